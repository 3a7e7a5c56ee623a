package db

import (
	"database/sql"
	"fmt"

	"github.com/hivemarket/hivemarket/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(database *PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: database.Conn}
}

// Create persists a notification row for a user.
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, message, related_id)
		VALUES ($1, $2, $3, NULLIF($4, 0))
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query, n.UserID, n.Type, n.Message, n.RelatedID).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetByUser returns a user's notifications, newest first.
func (r *NotificationRepository) GetByUser(userID int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, message, COALESCE(related_id, 0), is_read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.RelatedID, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead marks one notification as read.
func (r *NotificationRepository) MarkRead(id int) error {
	result, err := r.db.Exec(`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// MarkAllRead marks every notification for a user as read and returns the
// number updated.
func (r *NotificationRepository) MarkAllRead(userID int) (int, error) {
	result, err := r.db.Exec(
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}
