package domain

import (
	"errors"
	"slices"
	"testing"

	"identity-platform/backend/internal/apperr"
)

func TestCatalog_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range AllPermissions {
		if seen[p] {
			t.Errorf("duplicate catalog entry %q", p)
		}
		seen[p] = true
		if !IsKnown(p) {
			t.Errorf("IsKnown(%q) = false", p)
		}
	}
	if len(AllPermissions) != 15 {
		t.Errorf("catalog size = %d, want 15", len(AllPermissions))
	}
}

func TestParseName_AcceptsExactlyTheCatalog(t *testing.T) {
	for _, p := range AllPermissions {
		n, err := ParseName(p)
		if err != nil {
			t.Errorf("ParseName(%q): %v", p, err)
			continue
		}
		if n.String() != p {
			t.Errorf("ParseName(%q) = %q", p, n.String())
		}
	}

	outside := []string{"", " ", "admin", "read_users", "list_user", "READ_USER", " read_user", "read_user ", "revoke_sessions", "create_system_admins"}
	for _, s := range outside {
		if slices.Contains(AllPermissions, s) {
			t.Fatalf("%q is in the catalog", s)
		}
		if _, err := ParseName(s); !errors.Is(err, apperr.ErrInvalidPermissionName) {
			t.Errorf("ParseName(%q) error = %v, want ErrInvalidPermissionName", s, err)
		}
	}
}

func TestParseName(t *testing.T) {
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{UsersCreate, false},
		{SessionsRevoke, false},
		{"delete_planet", true},
		{"", true},
		{"Create_User", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			n, err := ParseName(tc.in)
			if tc.wantErr {
				if !errors.Is(err, apperr.ErrInvalidPermissionName) {
					t.Fatalf("want ErrInvalidPermissionName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseName: %v", err)
			}
			if n.String() != tc.in {
				t.Errorf("String() = %q, want %q", n.String(), tc.in)
			}
		})
	}
}

func TestParseNames_FailsOnFirstUnknown(t *testing.T) {
	if _, err := ParseNames(UsersRead, "nope", UsersList); !errors.Is(err, apperr.ErrInvalidPermissionName) {
		t.Fatalf("want ErrInvalidPermissionName, got %v", err)
	}
}

func TestList_DiffTracking(t *testing.T) {
	read, update, list := MustParseName(UsersRead), MustParseName(UsersUpdate), MustParseName(UsersList)
	l := NewList(read, update)

	l.Add(list)
	l.Add(list)
	l.Remove(update)

	if got, want := l.Strings(), []string{UsersRead, UsersList}; !slices.Equal(got, want) {
		t.Errorf("Strings() = %v, want %v", got, want)
	}
	if got := l.NewItems(); len(got) != 1 || !got[0].Equal(list) {
		t.Errorf("NewItems = %v", got)
	}
	if got := l.RemovedItems(); len(got) != 1 || !got[0].Equal(update) {
		t.Errorf("RemovedItems = %v", got)
	}

	l.Add(update)
	if len(l.RemovedItems()) != 0 {
		t.Errorf("re-adding a removed base item should un-remove it")
	}
}
