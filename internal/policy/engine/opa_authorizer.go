// Package engine evaluates permission policies with the in-process OPA Rego engine.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"identity-platform/backend/internal/apperr"
	permission "identity-platform/backend/internal/permission/domain"
)

const decisionQuery = "data.identity.authz"

// DefaultPolicy allows a request when every required permission is granted.
const DefaultPolicy = `package identity.authz

default allow := false

granted contains g if {
	some g in input.granted
}

missing contains p if {
	some p in input.required
	not granted[p]
}

allow if {
	count(missing) == 0
}
`

// OPAAuthorizer authorizes permission checks by evaluating a Rego policy in package identity.authz.
// The policy must define allow (boolean) and may define missing (set of permission names).
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

// NewOPAAuthorizer compiles the given policy modules (DefaultPolicy when none are given) and prepares
// the decision query.
func NewOPAAuthorizer(ctx context.Context, policies ...string) (*OPAAuthorizer, error) {
	if len(policies) == 0 {
		policies = []string{DefaultPolicy}
	}
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile policies: %w", err)
	}
	query, err := rego.New(
		rego.Query(decisionQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy query: %w", err)
	}
	return &OPAAuthorizer{query: query}, nil
}

// Authorize evaluates the policy for the granted and required permissions. A denial is a not allowed
// error naming the first required permission the policy reports missing; evaluation failures are
// returned as plain errors.
func (a *OPAAuthorizer) Authorize(ctx context.Context, granted *permission.List, required ...permission.Name) error {
	var grantedNames []string
	if granted != nil {
		grantedNames = granted.Strings()
	}
	requiredNames := make([]string, len(required))
	for i, r := range required {
		requiredNames[i] = r.String()
	}

	d, err := a.evaluate(ctx, map[string]interface{}{
		"granted":  toAny(grantedNames),
		"required": toAny(requiredNames),
	})
	if err != nil {
		return err
	}
	if d.allow {
		return nil
	}
	for _, r := range requiredNames {
		if d.missing[r] {
			return apperr.NotAllowed("missing permission " + r)
		}
	}
	return apperr.NotAllowed("denied by policy")
}

// HealthCheck verifies that the prepared policy evaluates and allows an empty requirement.
func (a *OPAAuthorizer) HealthCheck(ctx context.Context) error {
	d, err := a.evaluate(ctx, map[string]interface{}{
		"granted":  []interface{}{},
		"required": []interface{}{},
	})
	if err != nil {
		return err
	}
	if !d.allow {
		return errors.New("policy denies an empty requirement")
	}
	return nil
}

type decision struct {
	allow   bool
	missing map[string]bool
}

func (a *OPAAuthorizer) evaluate(ctx context.Context, input map[string]interface{}) (decision, error) {
	rs, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return decision{}, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return decision{}, errors.New("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return decision{}, errors.New("policy query returned a non-object document")
	}
	d := decision{missing: map[string]bool{}}
	d.allow, _ = doc["allow"].(bool)
	if missing, ok := doc["missing"].([]interface{}); ok {
		for _, m := range missing {
			if s, ok := m.(string); ok {
				d.missing[s] = true
			}
		}
	}
	return d, nil
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
