package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"mise/internal/core/actor"
)

// CELFlags evaluates feature flags as CEL expressions over the acting
// principal. Expressions see two variables: tenant_id and user_id, both
// strings. Example policies:
//
//	"true"                                     -> enabled everywhere
//	"tenant_id == 'a81bc81b-...'"              -> one tenant only
//	"user_id in ['pilot@a.com', 'qa@a.com']"   -> pilot users
//
// Flags without a policy fall back to the wrapped provider.
type CELFlags struct {
	programs map[string]cel.Program
	fallback FeatureFlagProvider
}

// NewCELFlags compiles the given flag policies. A policy that fails to
// compile is a configuration error and aborts startup.
func NewCELFlags(policies map[string]string, fallback FeatureFlagProvider) (*CELFlags, error) {
	env, err := cel.NewEnv(
		cel.Variable("tenant_id", cel.StringType),
		cel.Variable("user_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	programs := make(map[string]cel.Program, len(policies))
	for flag, expr := range policies {
		ast, iss := env.Compile(expr)
		if iss.Err() != nil {
			return nil, fmt.Errorf("compile policy for flag %q: %w", flag, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("policy for flag %q must evaluate to bool, got %s", flag, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build program for flag %q: %w", flag, err)
		}
		programs[flag] = prg
	}

	return &CELFlags{programs: programs, fallback: fallback}, nil
}

func (f *CELFlags) IsEnabled(ctx context.Context, flag string) bool {
	prg, ok := f.programs[flag]
	if !ok {
		if f.fallback != nil {
			return f.fallback.IsEnabled(ctx, flag)
		}
		return false
	}

	var tenantID, userID string
	if act, ok := actor.FromContext(ctx); ok {
		tenantID = act.TenantID.String()
		userID = act.UserID
	}

	out, _, err := prg.Eval(map[string]any{
		"tenant_id": tenantID,
		"user_id":   userID,
	})
	if err != nil {
		// Evaluation failure means the flag stays off; never fail the
		// business operation over a flag policy.
		return false
	}
	enabled, _ := out.Value().(bool)
	return enabled
}

func (f *CELFlags) GetValue(ctx context.Context, flag string) any {
	if f.fallback != nil {
		return f.fallback.GetValue(ctx, flag)
	}
	return nil
}

var _ FeatureFlagProvider = (*CELFlags)(nil)
