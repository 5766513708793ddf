package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgertycoon/ledger_tycoon/internal/adapters/state/memory"
	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
	"github.com/ledgertycoon/ledger_tycoon/internal/session"
)

func testManager() *session.Manager {
	cfg := config.DefaultSimulation()
	cfg.DemandVariation = 0
	cfg.EconomicEventProbability = 0
	cfg.DisruptionProbability = 0
	return session.NewManager(cfg)
}

func TestManager_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	manager := testManager()

	sess, err := manager.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, sess.Player.IsPlayer)

	found, err := manager.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)

	state, err := found.Services.Turn.CurrentState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Month)

	_, err = manager.Get("missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	manager := testManager()

	first, err := manager.Create(ctx)
	require.NoError(t, err)
	second, err := manager.Create(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	_, err = first.Services.Turn.AdvanceTurn(ctx)
	require.NoError(t, err)

	firstState, err := first.Services.Turn.CurrentState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, firstState.Month)

	secondState, err := second.Services.Turn.CurrentState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, secondState.Month, "advancing one game must not touch another")
}

func TestManager_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	manager := testManager()

	first, err := manager.Create(ctx)
	require.NoError(t, err)
	_, err = manager.Create(ctx)
	require.NoError(t, err)

	assert.Len(t, manager.List(), 2)

	manager.Delete(first.ID)
	assert.Len(t, manager.List(), 1)

	_, err = manager.Get(first.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Deleting twice is a no-op.
	manager.Delete(first.ID)
	assert.Len(t, manager.List(), 1)
}

func TestManager_AdoptFreshStore(t *testing.T) {
	ctx := context.Background()
	manager := testManager()

	store := memory.NewStore()
	sess, err := manager.Adopt(ctx, "campaign", store)
	require.NoError(t, err)
	assert.Equal(t, "campaign", sess.ID)
	assert.True(t, sess.Player.IsPlayer)

	found, err := manager.Get("campaign")
	require.NoError(t, err)
	assert.Equal(t, sess.Player.CompanyID, found.Player.CompanyID)
}

func TestManager_AdoptResumesInitializedStore(t *testing.T) {
	ctx := context.Background()
	manager := testManager()

	// Initialize once, then adopt the same store again as a restart would.
	store := memory.NewStore()
	first, err := manager.Adopt(ctx, "campaign", store)
	require.NoError(t, err)
	manager.Delete("campaign")

	resumed, err := manager.Adopt(ctx, "campaign", store)
	require.NoError(t, err)
	assert.Equal(t, first.Player.CompanyID, resumed.Player.CompanyID, "resume finds the existing player company")

	companies, err := resumed.Services.Game.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 4, "resume must not re-seed the game")
}
