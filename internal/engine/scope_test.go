package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScopeIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.ResolveScope(ctx, "0xABCdef", "sess-1", "prof-1")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef", first.WalletAddress)

	second, err := e.ResolveScope(ctx, "0xABCdef", "sess-1", "prof-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveScopeNormalizesCase(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	lower, err := e.ResolveScope(ctx, "0xabcdef", "sess-1", "")
	require.NoError(t, err)
	upper, err := e.ResolveScope(ctx, "  0xABCDEF  ", "sess-1", "")
	require.NoError(t, err)

	assert.Equal(t, lower.ID, upper.ID, "case and whitespace variants must resolve to one scope")
}

func TestResolveScopeDistinctSessions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	a, err := e.ResolveScope(ctx, "0xabc", "sess-1", "")
	require.NoError(t, err)
	b, err := e.ResolveScope(ctx, "0xabc", "sess-2", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID, "distinct sessions are distinct scopes")
}

func TestResolveScopeValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ResolveScope(ctx, "", "sess-1", "")
	assert.True(t, IsValidation(err), "empty wallet: %v", err)

	_, err = e.ResolveScope(ctx, "   ", "sess-1", "")
	assert.True(t, IsValidation(err), "blank wallet: %v", err)

	_, err = e.ResolveScope(ctx, "0xabc", "", "")
	assert.True(t, IsValidation(err), "empty session: %v", err)
}

func TestResolveScopeKeepsOriginalProfile(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.ResolveScope(ctx, "0xabc", "sess-1", "prof-1")
	require.NoError(t, err)

	// A different profile on a later call must not mutate the stored scope.
	again, err := e.ResolveScope(ctx, "0xabc", "sess-1", "prof-2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "prof-1", again.ProfileID)
}
