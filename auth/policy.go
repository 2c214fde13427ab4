package auth

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed policy/admin.rego
var adminPolicy string

// AdminInput is the document the admin policy decides on
type AdminInput struct {
	APIKeyValid bool   `json:"api_key_valid"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Role        string `json:"role,omitempty"`
}

// AdminPolicy evaluates the embedded rego policy guarding inventory changes
type AdminPolicy struct {
	query rego.PreparedEvalQuery
}

// NewAdminPolicy compiles the policy once
func NewAdminPolicy(ctx context.Context) (*AdminPolicy, error) {
	query, err := rego.New(
		rego.Query("data.railway.admin.allow"),
		rego.Module("admin.rego", adminPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile admin policy: %w", err)
	}
	return &AdminPolicy{query: query}, nil
}

// Allow reports whether the request may use the admin surface
func (p *AdminPolicy) Allow(ctx context.Context, in AdminInput) (bool, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate admin policy: %w", err)
	}
	return rs.Allowed(), nil
}
