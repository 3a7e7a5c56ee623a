package memdb

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hivemarket/hivemarket/internal/models"
)

type OrderStore struct {
	mu         sync.Mutex
	nextID     int
	nextItemID int
	orders     map[int]*models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		nextID:     1,
		nextItemID: 1,
		orders:     make(map[int]*models.Order),
	}
}

// Create assigns identity to the order and all of its items as one step;
// there is no observable state in which the order exists without them.
func (s *OrderStore) Create(order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = s.nextID
	s.nextID++
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	for i := range order.Items {
		order.Items[i].ID = s.nextItemID
		s.nextItemID++
		order.Items[i].OrderID = order.ID
	}

	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	s.orders[order.ID] = &stored

	return nil
}

func (s *OrderStore) GetByID(id int) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyOrder(id)
}

func (s *OrderStore) copyOrder(id int) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}

	out := *o
	out.Items = append([]models.OrderItem(nil), o.Items...)
	return &out, nil
}

func (s *OrderStore) GetByUser(userID int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for id := s.nextID - 1; id >= 1; id-- {
		if o, ok := s.orders[id]; ok && o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (s *OrderStore) Search(userID int, q string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for id := s.nextID - 1; id >= 1; id-- {
		o, ok := s.orders[id]
		if !ok || o.UserID != userID {
			continue
		}
		if strings.Contains(strconv.Itoa(o.ID), q) ||
			strings.Contains(strings.ToLower(o.Status), strings.ToLower(q)) {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (s *OrderStore) UpdateStatus(id int, status string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}

	o.Status = status
	o.UpdatedAt = time.Now()
	return s.copyOrder(id)
}

func (s *OrderStore) AttachTracking(id int, trackingNumber string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}

	o.TrackingNumber = trackingNumber
	o.UpdatedAt = time.Now()
	return s.copyOrder(id)
}

func (s *OrderStore) Statistics(userID int) (*models.OrderStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats models.OrderStatistics
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		stats.TotalOrders++
		switch o.Status {
		case models.OrderStatusPending:
			stats.PendingOrders++
		case models.OrderStatusDelivered:
			stats.DeliveredOrders++
		case models.OrderStatusCancelled:
			stats.CancelledOrders++
		}
	}
	return &stats, nil
}
