package domain

import "identity-platform/backend/internal/apperr"

// Name is a permission name guaranteed to be in the catalog.
type Name struct {
	value string
}

// ParseName returns the Name for s, or an invalid permission name error when s is not a catalog entry.
func ParseName(s string) (Name, error) {
	if !IsKnown(s) {
		return Name{}, apperr.InvalidPermissionName(s)
	}
	return Name{value: s}, nil
}

// MustParseName is ParseName for catalog constants.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseNames parses every entry of ss, failing on the first unknown name.
func ParseNames(ss ...string) ([]Name, error) {
	out := make([]Name, 0, len(ss))
	for _, s := range ss {
		n, err := ParseName(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (n Name) String() string { return n.value }

func (n Name) Equal(other Name) bool { return n.value == other.value }
