package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStateStore()

	_, err := s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrStateNotFound)

	require.NoError(t, s.Set(ctx, KeyToken, "abc"))
	require.NoError(t, s.Set(ctx, KeyUser, `{"id":"1"}`))
	v, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Delete(ctx, KeyToken, KeyUser, "never-set"))
	_, err = s.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrStateNotFound)

	// deleting again is harmless
	assert.NoError(t, s.Delete(ctx, KeyToken, KeyUser))
}
