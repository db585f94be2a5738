package security

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/internal/core/actor"
	"mise/internal/core/id"
)

func TestCELFlags_TenantScoped(t *testing.T) {
	tenantA := id.New()
	tenantB := id.New()

	flags, err := NewCELFlags(map[string]string{
		FlagLotAllocationFEFO: fmt.Sprintf("tenant_id == '%s'", tenantA),
	}, nil)
	require.NoError(t, err)

	ctxA := actor.WithActor(context.Background(), actor.Actor{TenantID: tenantA, UserID: "u1"})
	ctxB := actor.WithActor(context.Background(), actor.Actor{TenantID: tenantB, UserID: "u1"})

	assert.True(t, flags.IsEnabled(ctxA, FlagLotAllocationFEFO))
	assert.False(t, flags.IsEnabled(ctxB, FlagLotAllocationFEFO))
}

func TestCELFlags_NoActorMeansOff(t *testing.T) {
	flags, err := NewCELFlags(map[string]string{
		FlagAsyncPosting: "user_id == 'ops@example.com'",
	}, nil)
	require.NoError(t, err)

	assert.False(t, flags.IsEnabled(context.Background(), FlagAsyncPosting))
}

func TestCELFlags_FallbackForUnknownFlag(t *testing.T) {
	fallback := NewInMemoryFlags()
	fallback.SetFlag("other_flag", true)

	flags, err := NewCELFlags(map[string]string{}, fallback)
	require.NoError(t, err)

	assert.True(t, flags.IsEnabled(context.Background(), "other_flag"))
	assert.False(t, flags.IsEnabled(context.Background(), "missing_flag"))
}

func TestCELFlags_RejectsBadPolicies(t *testing.T) {
	_, err := NewCELFlags(map[string]string{"f": "tenant_id +"}, nil)
	assert.Error(t, err)

	_, err = NewCELFlags(map[string]string{"f": "'not a bool'"}, nil)
	assert.Error(t, err)
}
