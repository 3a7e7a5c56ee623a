package memdb

import (
	"database/sql"
	"sync"
	"time"

	"github.com/hivemarket/hivemarket/internal/models"
)

type NotificationStore struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		nextID: 1,
		rows:   make(map[int]*models.Notification),
	}
}

func (s *NotificationStore) Create(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextID
	s.nextID++
	n.CreatedAt = time.Now()

	stored := *n
	s.rows[n.ID] = &stored
	return nil
}

func (s *NotificationStore) GetByUser(userID int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notifications []models.Notification
	for id := s.nextID - 1; id >= 1; id-- {
		if n, ok := s.rows[id]; ok && n.UserID == userID {
			notifications = append(notifications, *n)
		}
	}
	return notifications, nil
}

func (s *NotificationStore) MarkRead(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.IsRead = true
	return nil
}

func (s *NotificationStore) MarkAllRead(userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}
