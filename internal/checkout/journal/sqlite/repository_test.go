package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mifarmacia/storefront/internal/checkout/journal"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveAndGetLatest(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []*journal.Entry{
		{AttemptID: "a1", CartID: "cart-1", Status: journal.StatusStarted, Payload: `{"cart_id":"cart-1"}`, ErrorMessages: "[]", UpdatedAt: base},
		{AttemptID: "a1", CartID: "cart-1", Status: journal.StatusStepDone, Step: "create_invoice", ErrorMessages: "[]", UpdatedAt: base.Add(time.Second)},
		{AttemptID: "a1", CartID: "cart-1", Status: journal.StatusCompleted, ErrorMessages: "[]", UpdatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	latest, err := repo.GetLatest(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, journal.StatusCompleted, latest.Status)
	assert.Equal(t, "cart-1", latest.CartID)
	assert.True(t, latest.UpdatedAt.Equal(base.Add(2*time.Second)))
}

func TestGetLatestUnknownAttempt(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.GetLatest(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSaveFailedEntryKeepsErrors(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &journal.Entry{
		AttemptID:     "a2",
		CartID:        "cart-2",
		Status:        journal.StatusFailed,
		Step:          "confirm_card",
		ErrorMessages: `["Your card was declined."]`,
		UpdatedAt:     time.Now().UTC(),
	}))

	latest, err := repo.GetLatest(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, journal.StatusFailed, latest.Status)
	assert.Equal(t, "confirm_card", latest.Step)
	assert.Equal(t, `["Your card was declined."]`, latest.ErrorMessages)
	assert.Empty(t, latest.Payload, "non-started rows carry no payload")
}
