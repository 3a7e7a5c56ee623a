package sweeper

import (
	"fmt"
	"log"
	"time"

	"github.com/hivemarket/hivemarket/internal/models"
)

// Store is the slice of the group-buy store the sweep needs.
type Store interface {
	CancelExpired(now time.Time) ([]models.GroupBuy, error)
	Participations(groupBuyID int) ([]models.GroupBuyParticipation, error)
}

type Notifier interface {
	Notify(userID int, kind, message string, relatedID int) error
}

// Sweeper periodically cancels active campaigns that ran past their end
// date without reaching the minimum. The sweep is advisory: admission
// refuses expired campaigns inline, so correctness never depends on the
// sweep having run.
type Sweeper struct {
	store    Store
	notifier Notifier
	interval time.Duration
}

func New(store Store, notifier Notifier, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		notifier: notifier,
		interval: interval,
	}
}

// Run sweeps on a ticker until stop is closed.
func (s *Sweeper) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-stop:
			return
		}
	}
}

// Sweep runs one pass. Safe to call at any cadence; each pass only touches
// campaigns that are still stored as active.
func (s *Sweeper) Sweep(now time.Time) {
	swept, err := s.store.CancelExpired(now)
	if err != nil {
		log.Printf("⚠️ Expiry sweep failed: %v", err)
		return
	}

	for _, g := range swept {
		log.Printf("🧹 Cancelled expired group buy %d (%d/%d participants)",
			g.ID, g.CurrentParticipants, g.MinParticipants)
		s.notifyCancelled(&g)
	}
}

func (s *Sweeper) notifyCancelled(groupBuy *models.GroupBuy) {
	parts, err := s.store.Participations(groupBuy.ID)
	if err != nil {
		log.Printf("⚠️ Failed to list participants of group buy %d: %v", groupBuy.ID, err)
		return
	}

	message := fmt.Sprintf("The group buy for product %d expired before filling and was cancelled", groupBuy.ProductID)
	for _, p := range parts {
		if err := s.notifier.Notify(p.UserID, models.NotificationGroupBuy, message, groupBuy.ID); err != nil {
			log.Printf("⚠️ Failed to publish notification: %v", err)
		}
	}
}
