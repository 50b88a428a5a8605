package domain

import "identity-platform/backend/internal/platform/watchedlist"

// List is an ordered, duplicate-free set of permission names that tracks grants and revocations
// since it was loaded.
type List struct {
	*watchedlist.List[Name]
}

// NewList returns a List whose base is names.
func NewList(names ...Name) *List {
	return &List{List: watchedlist.New(func(a, b Name) bool { return a.Equal(b) }, names...)}
}

// Strings returns the current names as plain strings.
func (l *List) Strings() []string {
	items := l.Items()
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.String()
	}
	return out
}
