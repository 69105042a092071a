package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eventer/internal/domain"
	"github.com/pkordes/eventer/internal/repo"
	"github.com/pkordes/eventer/testutil"
)

func TestInstallationRepo_SaveAndGet(t *testing.T) {
	r := repo.NewInstallationRepo(testutil.NewTx(t))
	ctx := context.Background()

	saved, err := r.Save(ctx, domain.Installation{
		TeamID:    "T1",
		TeamName:  "Acme",
		BotToken:  "xoxb-1",
		BotUserID: "B1",
	})
	require.NoError(t, err)
	assert.False(t, saved.InstalledAt.IsZero())

	got, err := r.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestInstallationRepo_Save_Reinstall(t *testing.T) {
	r := repo.NewInstallationRepo(testutil.NewTx(t))
	ctx := context.Background()

	_, err := r.Save(ctx, domain.Installation{TeamID: "T1", BotToken: "xoxb-old"})
	require.NoError(t, err)
	_, err = r.Save(ctx, domain.Installation{TeamID: "T1", BotToken: "xoxb-new"})
	require.NoError(t, err)

	got, err := r.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-new", got.BotToken)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInstallationRepo_Get_NotFound(t *testing.T) {
	r := repo.NewInstallationRepo(testutil.NewTx(t))

	_, err := r.Get(context.Background(), "T404")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInstallationRepo_Delete(t *testing.T) {
	r := repo.NewInstallationRepo(testutil.NewTx(t))
	ctx := context.Background()

	_, err := r.Save(ctx, domain.Installation{TeamID: "T1", BotToken: "xoxb-1"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "T1"))
	assert.ErrorIs(t, r.Delete(ctx, "T1"), domain.ErrNotFound)
}
