package sweeper

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemarket/hivemarket/internal/memdb"
	"github.com/hivemarket/hivemarket/internal/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (n *recordingNotifier) Notify(userID int, kind, message string, relatedID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, models.NotificationEvent{
		UserID:    userID,
		Type:      kind,
		Message:   message,
		RelatedID: relatedID,
	})
	return nil
}

func TestSweep(t *testing.T) {
	store := memdb.NewGroupBuyStore()
	notifier := &recordingNotifier{}
	now := time.Now()

	// Expired with one participant under a minimum of three.
	expired, err := store.Create(models.CreateGroupBuyRequest{
		ProductID:       1,
		DiscountPrice:   decimal.RequireFromString("9.99"),
		MinParticipants: 3,
		MaxParticipants: 5,
		StartDate:       now.Add(-2 * time.Hour),
		EndDate:         now.Add(time.Minute),
	})
	require.NoError(t, err)
	_, _, err = store.Join(expired.ID, 7, 1)
	require.NoError(t, err)

	// Still running.
	running, err := store.Create(models.CreateGroupBuyRequest{
		ProductID:       2,
		DiscountPrice:   decimal.RequireFromString("9.99"),
		MinParticipants: 1,
		MaxParticipants: 5,
		EndDate:         now.Add(time.Hour),
	})
	require.NoError(t, err)

	s := New(store, notifier, time.Minute)
	s.Sweep(now.Add(2 * time.Minute))

	g, err := store.GetByID(expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusCancelled, g.Status)

	g, err = store.GetByID(running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupBuyStatusActive, g.Status)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, 7, notifier.events[0].UserID)
	assert.Equal(t, models.NotificationGroupBuy, notifier.events[0].Type)
	assert.Equal(t, expired.ID, notifier.events[0].RelatedID)
}

func TestSweep_Idempotent(t *testing.T) {
	store := memdb.NewGroupBuyStore()
	notifier := &recordingNotifier{}
	now := time.Now()

	_, err := store.Create(models.CreateGroupBuyRequest{
		ProductID:       1,
		DiscountPrice:   decimal.RequireFromString("9.99"),
		MinParticipants: 2,
		MaxParticipants: 5,
		StartDate:       now.Add(-2 * time.Hour),
		EndDate:         now.Add(-time.Hour),
	})
	require.NoError(t, err)

	s := New(store, notifier, time.Minute)
	s.Sweep(now)
	s.Sweep(now)
	s.Sweep(now.Add(time.Hour))

	// One campaign swept once; no participants, so no notifications.
	assert.Empty(t, notifier.events)

	groupBuys, err := store.GetAll()
	require.NoError(t, err)
	require.Len(t, groupBuys, 1)
	assert.Equal(t, models.GroupBuyStatusCancelled, groupBuys[0].Status)
}
