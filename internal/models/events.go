package models

// NotificationEvent is published by commerce-service whenever an order or
// group buy changes in a way the affected user should hear about. Delivery
// is best effort: publish failures are logged and never roll back the
// commerce operation that triggered them.
type NotificationEvent struct {
	UserID    int    `json:"user_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	RelatedID int    `json:"related_id,omitempty"`
}

// OrderCreatedEvent is published when a new order is created.
type OrderCreatedEvent struct {
	OrderID    int              `json:"order_id"`
	UserID     int              `json:"user_id"`
	TotalPrice string           `json:"total_price"`
	Items      []OrderItemEvent `json:"items"`
}

type OrderItemEvent struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
