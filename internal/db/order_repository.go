package db

import (
	"database/sql"
	"fmt"

	"github.com/hivemarket/hivemarket/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

// Create inserts an order and all of its items in one transaction. Either
// every row exists with a consistent total or none do; a failure on any
// item rolls back the order header as well.
func (r *OrderRepository) Create(order *models.Order) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (user_id, total_price, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(orderQuery, order.UserID, order.TotalPrice, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		err = tx.QueryRow(itemQuery,
			order.ID,
			order.Items[i].ProductID,
			order.Items[i].Quantity,
			order.Items[i].Price,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID returns a single order with its items, or ErrOrderNotFound.
func (r *OrderRepository) GetByID(id int) (*models.Order, error) {
	orderQuery := `
		SELECT id, user_id, total_price, status, COALESCE(tracking_number, ''), created_at, updated_at
		FROM orders WHERE id = $1
	`

	var order models.Order
	err := r.db.QueryRow(orderQuery, id).
		Scan(&order.ID, &order.UserID, &order.TotalPrice, &order.Status,
			&order.TrackingNumber, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.itemsFor(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *OrderRepository) itemsFor(orderID int) ([]models.OrderItem, error) {
	rows, err := r.db.Query(
		`SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetByUser returns a user's orders, newest first, without items.
func (r *OrderRepository) GetByUser(userID int) ([]models.Order, error) {
	query := `
		SELECT id, user_id, total_price, status, COALESCE(tracking_number, ''), created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC
	`
	return r.queryOrders(query, userID)
}

// Search matches a user's orders by id or status substring.
func (r *OrderRepository) Search(userID int, q string) ([]models.Order, error) {
	query := `
		SELECT id, user_id, total_price, status, COALESCE(tracking_number, ''), created_at, updated_at
		FROM orders
		WHERE user_id = $1 AND (id::text LIKE '%' || $2 || '%' OR status ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
	`
	return r.queryOrders(query, userID, q)
}

func (r *OrderRepository) queryOrders(query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status,
			&o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// UpdateStatus overwrites the order status. Any valid status may follow any
// other; the caller validates membership in the status set.
func (r *OrderRepository) UpdateStatus(id int, status string) (*models.Order, error) {
	result, err := r.db.Exec(
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, models.ErrOrderNotFound
	}

	return r.GetByID(id)
}

// AttachTracking sets the tracking reference on an existing order.
func (r *OrderRepository) AttachTracking(id int, trackingNumber string) (*models.Order, error) {
	result, err := r.db.Exec(
		`UPDATE orders SET tracking_number = $1, updated_at = now() WHERE id = $2`,
		trackingNumber, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to attach tracking: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, models.ErrOrderNotFound
	}

	return r.GetByID(id)
}

// Statistics aggregates a user's order counts by status.
func (r *OrderRepository) Statistics(userID int) (*models.OrderStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM orders WHERE user_id = $1
	`

	var stats models.OrderStatistics
	err := r.db.QueryRow(query, userID).
		Scan(&stats.TotalOrders, &stats.PendingOrders, &stats.DeliveredOrders, &stats.CancelledOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order statistics: %w", err)
	}

	return &stats, nil
}
