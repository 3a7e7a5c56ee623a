package memdb

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemarket/hivemarket/internal/models"
)

func newCampaign(t *testing.T, store *GroupBuyStore, min, max int) *models.GroupBuy {
	t.Helper()
	g, err := store.Create(models.CreateGroupBuyRequest{
		ProductID:       1,
		DiscountPrice:   decimal.RequireFromString("9.99"),
		MinParticipants: min,
		MaxParticipants: max,
		EndDate:         time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return g
}

// countInvariant checks that the denormalized counter matches the live
// participation rows.
func countInvariant(t *testing.T, store *GroupBuyStore, groupBuyID int) {
	t.Helper()
	g, err := store.GetByID(groupBuyID)
	require.NoError(t, err)
	parts, err := store.Participations(groupBuyID)
	require.NoError(t, err)
	assert.Equal(t, len(parts), g.CurrentParticipants)
	assert.GreaterOrEqual(t, g.CurrentParticipants, 0)
	assert.LessOrEqual(t, g.CurrentParticipants, g.MaxParticipants)
}

func TestJoin(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 2, 5)

	part, updated, err := store.Join(g.ID, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, part.UserID)
	assert.Equal(t, 1, updated.CurrentParticipants)
	assert.Equal(t, models.GroupBuyStatusActive, updated.Status)
	countInvariant(t, store, g.ID)
}

func TestJoin_UnknownCampaign(t *testing.T) {
	store := NewGroupBuyStore()
	_, _, err := store.Join(99, 1, 1)
	assert.ErrorIs(t, err, models.ErrCampaignNotFound)
}

func TestJoin_Duplicate(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 2, 5)

	_, _, err := store.Join(g.ID, 7, 1)
	require.NoError(t, err)

	_, _, err = store.Join(g.ID, 7, 1)
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)
	countInvariant(t, store, g.ID)
}

func TestJoin_Full(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 2)

	_, _, err := store.Join(g.ID, 1, 1)
	require.NoError(t, err)
	_, updated, err := store.Join(g.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusCompleted, updated.Status)

	_, _, err = store.Join(g.ID, 3, 1)
	assert.ErrorIs(t, err, models.ErrCampaignFull)
	countInvariant(t, store, g.ID)
}

func TestJoin_FillFlipsToCompletedAtomically(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 3)

	for user := 1; user <= 3; user++ {
		_, updated, err := store.Join(g.ID, user, 1)
		require.NoError(t, err)
		if user < 3 {
			assert.Equal(t, models.GroupBuyStatusActive, updated.Status)
		} else {
			assert.Equal(t, models.GroupBuyStatusCompleted, updated.Status)
		}
	}
}

func TestJoin_ExpiredCampaign(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 5)

	// Advance the clock past the end date; the stored status is still
	// active because no sweep has run.
	store.SetNow(func() time.Time { return time.Now().Add(2 * time.Hour) })

	_, _, err := store.Join(g.ID, 1, 1)
	assert.ErrorIs(t, err, models.ErrCampaignNotActive)

	stored, err := store.GetByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentParticipants)
}

func TestJoin_CancelledCampaign(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 5)

	store.SetNow(func() time.Time { return time.Now().Add(2 * time.Hour) })
	swept, err := store.CancelExpired(time.Now().Add(2 * time.Hour))
	require.NoError(t, err)
	require.Len(t, swept, 1)

	_, _, err = store.Join(g.ID, 1, 1)
	assert.ErrorIs(t, err, models.ErrCampaignNotActive)
}

func TestJoin_ConcurrentContention(t *testing.T) {
	// k free slots, k+m concurrent distinct buyers: exactly k admissions,
	// m CampaignFull outcomes, never k±1.
	const k, m = 5, 20

	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, k)

	var wg sync.WaitGroup
	results := make(chan error, k+m)

	for user := 1; user <= k+m; user++ {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			_, _, err := store.Join(g.ID, user, 1)
			results <- err
		}(user)
	}
	wg.Wait()
	close(results)

	var admitted, full int
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, models.ErrCampaignFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, k, admitted)
	assert.Equal(t, m, full)
	countInvariant(t, store, g.ID)

	final, err := store.GetByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusCompleted, final.Status)
}

func TestJoin_ConcurrentSameBuyer(t *testing.T) {
	const attempts = 16

	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 100)

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Join(g.ID, 7, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var admitted, duplicate int
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, models.ErrAlreadyJoined):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, admitted)
	assert.Equal(t, attempts-1, duplicate)

	parts, err := store.Participations(g.ID)
	require.NoError(t, err)
	assert.Len(t, parts, 1)
}

func TestJoin_LastSlotRace(t *testing.T) {
	// max=1, two concurrent buyers: one wins and flips the campaign to
	// completed, the other sees CampaignFull.
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, user := range []int{1, 2} {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			_, _, err := store.Join(g.ID, user, 1)
			results <- err
		}(user)
	}
	wg.Wait()
	close(results)

	var admitted, full int
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, models.ErrCampaignFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, full)

	final, err := store.GetByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusCompleted, final.Status)
}

func TestLeave(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 5)

	_, _, err := store.Join(g.ID, 7, 1)
	require.NoError(t, err)

	updated, err := store.Leave(g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentParticipants)
	countInvariant(t, store, g.ID)
}

func TestLeave_NotAParticipant(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 5)

	_, err := store.Leave(g.ID, 7)
	assert.ErrorIs(t, err, models.ErrNotAParticipant)

	stored, err := store.GetByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentParticipants)
}

func TestLeave_CompletedCampaignKeepsStatus(t *testing.T) {
	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, 1)

	_, updated, err := store.Join(g.ID, 7, 1)
	require.NoError(t, err)
	require.Equal(t, models.GroupBuyStatusCompleted, updated.Status)

	// Leaving frees the slot but does not reactivate the campaign.
	after, err := store.Leave(g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, after.CurrentParticipants)
	assert.Equal(t, models.GroupBuyStatusCompleted, after.Status)
}

func TestJoinLeave_ConcurrentCounterIntegrity(t *testing.T) {
	// Joins racing leaves must never skip or double-count the counter.
	const users = 30

	store := NewGroupBuyStore()
	g := newCampaign(t, store, 1, users)

	var wg sync.WaitGroup
	for user := 1; user <= users; user++ {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			if _, _, err := store.Join(g.ID, user, 1); err != nil {
				return
			}
			if user%2 == 0 {
				_, _ = store.Leave(g.ID, user)
			}
		}(user)
	}
	wg.Wait()

	countInvariant(t, store, g.ID)
	final, err := store.GetByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, users/2, final.CurrentParticipants)
}

func TestCancelExpired(t *testing.T) {
	store := NewGroupBuyStore()
	now := time.Now()

	expired, err := store.Create(models.CreateGroupBuyRequest{
		ProductID:       1,
		DiscountPrice:   decimal.RequireFromString("9.99"),
		MinParticipants: 3,
		MaxParticipants: 5,
		StartDate:       now.Add(-2 * time.Hour),
		EndDate:         now.Add(-time.Hour),
	})
	require.NoError(t, err)

	running := newCampaign(t, store, 3, 5)
	filled := newCampaign(t, store, 1, 1)
	_, _, err = store.Join(filled.ID, 1, 1)
	require.NoError(t, err)

	swept, err := store.CancelExpired(now)
	require.NoError(t, err)

	require.Len(t, swept, 1)
	assert.Equal(t, expired.ID, swept[0].ID)
	assert.Equal(t, models.GroupBuyStatusCancelled, swept[0].Status)

	// Idempotent: a second pass sweeps nothing.
	swept, err = store.CancelExpired(now)
	require.NoError(t, err)
	assert.Empty(t, swept)

	g, err := store.GetByID(running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusActive, g.Status)
	g, err = store.GetByID(filled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusCompleted, g.Status)
}
