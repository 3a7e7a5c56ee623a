package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/hivemarket/hivemarket/internal/messaging"
	"github.com/hivemarket/hivemarket/internal/models"
)

const (
	NotificationQueue = "notifications"
	OrderCreatedQueue = "order.created"
)

// NotifyPublisher pushes user-facing events onto RabbitMQ. Callers treat it
// as fire-and-forget: a publish failure is logged by the caller and never
// rolls back the commerce operation that triggered it.
type NotifyPublisher struct {
	mq *messaging.RabbitMQ
}

func NewNotifyPublisher(mq *messaging.RabbitMQ) (*NotifyPublisher, error) {
	for _, queue := range []string{NotificationQueue, OrderCreatedQueue} {
		if err := mq.DeclareQueue(queue); err != nil {
			return nil, err
		}
	}

	return &NotifyPublisher{mq: mq}, nil
}

// Notify publishes a notification event for one user.
func (p *NotifyPublisher) Notify(userID int, kind, message string, relatedID int) error {
	event := models.NotificationEvent{
		UserID:    userID,
		Type:      kind,
		Message:   message,
		RelatedID: relatedID,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(NotificationQueue, data)
}

// PublishOrderCreated publishes an order.created event for downstream
// consumers (audit, analytics). Nothing mutates inventory off this event.
func (p *NotifyPublisher) PublishOrderCreated(order *models.Order) error {
	event := models.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice.StringFixed(2),
	}

	for _, item := range order.Items {
		event.Items = append(event.Items, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(OrderCreatedQueue, data)
}
