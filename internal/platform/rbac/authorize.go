// Package rbac checks caller permissions against the permission list of their role.
package rbac

import (
	"context"

	"identity-platform/backend/internal/apperr"
	permission "identity-platform/backend/internal/permission/domain"
)

// Authorize reports whether granted contains every required permission. The returned error is a
// not allowed error naming the first missing permission. No required permissions always passes.
func Authorize(granted *permission.List, required ...permission.Name) error {
	for _, r := range required {
		if granted == nil || !granted.Has(r) {
			return apperr.NotAllowed("missing permission " + r.String())
		}
	}
	return nil
}

// Authorizer decides whether a set of granted permissions covers the required ones.
type Authorizer interface {
	Authorize(ctx context.Context, granted *permission.List, required ...permission.Name) error
}

// SubsetAuthorizer is the in-process Authorizer: required must be a subset of granted.
type SubsetAuthorizer struct{}

func (SubsetAuthorizer) Authorize(_ context.Context, granted *permission.List, required ...permission.Name) error {
	return Authorize(granted, required...)
}
