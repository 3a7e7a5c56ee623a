// Package memdb provides in-memory implementations of the repository
// contracts. Handler and property tests run against these; the mutex plays
// the role the campaign row lock plays in Postgres.
package memdb

import (
	"sync"
	"time"

	"github.com/hivemarket/hivemarket/internal/models"
)

type GroupBuyStore struct {
	mu         sync.Mutex
	nextID     int
	nextPartID int
	buys       map[int]*models.GroupBuy
	parts      map[int]map[int]*models.GroupBuyParticipation // groupBuyID → userID → row
	now        func() time.Time
}

func NewGroupBuyStore() *GroupBuyStore {
	return &GroupBuyStore{
		nextID:     1,
		nextPartID: 1,
		buys:       make(map[int]*models.GroupBuy),
		parts:      make(map[int]map[int]*models.GroupBuyParticipation),
		now:        time.Now,
	}
}

// SetNow overrides the clock, for tests that need to cross an end date.
func (s *GroupBuyStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *GroupBuyStore) Create(req models.CreateGroupBuyRequest) (*models.GroupBuy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := req.StartDate
	if start.IsZero() {
		start = s.now()
	}

	g := &models.GroupBuy{
		ID:              s.nextID,
		ProductID:       req.ProductID,
		DiscountPrice:   req.DiscountPrice,
		MinParticipants: req.MinParticipants,
		MaxParticipants: req.MaxParticipants,
		StartDate:       start,
		EndDate:         req.EndDate,
		Status:          models.GroupBuyStatusActive,
	}
	s.nextID++
	s.buys[g.ID] = g
	s.parts[g.ID] = make(map[int]*models.GroupBuyParticipation)

	out := *g
	return &out, nil
}

func (s *GroupBuyStore) GetByID(id int) (*models.GroupBuy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.buys[id]
	if !ok {
		return nil, models.ErrCampaignNotFound
	}

	out := *g
	return &out, nil
}

func (s *GroupBuyStore) GetAll() ([]models.GroupBuy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupBuys := make([]models.GroupBuy, 0, len(s.buys))
	for id := s.nextID - 1; id >= 1; id-- {
		if g, ok := s.buys[id]; ok {
			groupBuys = append(groupBuys, *g)
		}
	}
	return groupBuys, nil
}

// Join mirrors the Postgres admission sequence under one lock: effective
// status, membership, capacity, then insert + increment + possible flip to
// completed, all invisible to other callers until done.
func (s *GroupBuyStore) Join(groupBuyID, userID, quantity int) (*models.GroupBuyParticipation, *models.GroupBuy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.buys[groupBuyID]
	if !ok {
		return nil, nil, models.ErrCampaignNotFound
	}

	if g.EffectiveStatus(s.now()) != models.GroupBuyStatusActive {
		return nil, nil, models.ErrCampaignNotActive
	}

	if _, joined := s.parts[groupBuyID][userID]; joined {
		return nil, nil, models.ErrAlreadyJoined
	}

	if g.Full() {
		return nil, nil, models.ErrCampaignFull
	}

	part := &models.GroupBuyParticipation{
		ID:         s.nextPartID,
		GroupBuyID: groupBuyID,
		UserID:     userID,
		Quantity:   quantity,
		JoinedAt:   s.now(),
	}
	s.nextPartID++
	s.parts[groupBuyID][userID] = part

	g.CurrentParticipants++
	if g.Full() {
		g.Status = models.GroupBuyStatusCompleted
	}

	partOut := *part
	gOut := *g
	return &partOut, &gOut, nil
}

// Leave removes the participation and decrements the counter in the same
// critical section. Status stays completed even when a slot frees up.
func (s *GroupBuyStore) Leave(groupBuyID, userID int) (*models.GroupBuy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.buys[groupBuyID]
	if !ok {
		return nil, models.ErrCampaignNotFound
	}

	if _, joined := s.parts[groupBuyID][userID]; !joined {
		return nil, models.ErrNotAParticipant
	}

	delete(s.parts[groupBuyID], userID)
	g.CurrentParticipants--

	out := *g
	return &out, nil
}

func (s *GroupBuyStore) Participations(groupBuyID int) ([]models.GroupBuyParticipation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]models.GroupBuyParticipation, 0, len(s.parts[groupBuyID]))
	for _, p := range s.parts[groupBuyID] {
		parts = append(parts, *p)
	}
	return parts, nil
}

func (s *GroupBuyStore) CancelExpired(now time.Time) ([]models.GroupBuy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swept []models.GroupBuy
	for _, g := range s.buys {
		if g.ExpiredUnfilled(now) {
			g.Status = models.GroupBuyStatusCancelled
			swept = append(swept, *g)
		}
	}
	return swept, nil
}
