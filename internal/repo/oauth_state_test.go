package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eventer/internal/repo"
	"github.com/pkordes/eventer/testutil"
)

func TestOAuthStateRepo_ConsumeOnce(t *testing.T) {
	r := repo.NewOAuthStateRepo(testutil.NewTx(t))
	ctx := context.Background()

	require.NoError(t, r.Issue(ctx, "state-1", 10*time.Minute))

	ok, err := r.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.False(t, ok, "a state can only be used once")
}

func TestOAuthStateRepo_Consume_Unknown(t *testing.T) {
	r := repo.NewOAuthStateRepo(testutil.NewTx(t))

	ok, err := r.Consume(context.Background(), "never-issued")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOAuthStateRepo_Expired(t *testing.T) {
	r := repo.NewOAuthStateRepo(testutil.NewTx(t))
	ctx := context.Background()

	require.NoError(t, r.Issue(ctx, "stale", -time.Minute))
	require.NoError(t, r.Issue(ctx, "fresh", time.Minute))

	n, err := r.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := r.Consume(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Consume(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}
