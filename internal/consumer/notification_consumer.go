package consumer

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hivemarket/hivemarket/internal/db"
	"github.com/hivemarket/hivemarket/internal/models"
)

// NotificationConsumer drains the notifications queue into durable rows.
type NotificationConsumer struct {
	repo *db.NotificationRepository
}

func NewNotificationConsumer(repo *db.NotificationRepository) *NotificationConsumer {
	return &NotificationConsumer{repo: repo}
}

// Process handles notification events until the channel closes. Malformed
// payloads are dropped; storage failures are requeued.
func (c *NotificationConsumer) Process(messages <-chan amqp.Delivery) {
	for msg := range messages {
		var event models.NotificationEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("❌ Failed to parse event: %v", err)
			msg.Nack(false, false) // Don't requeue bad messages
			continue
		}

		notification := models.Notification{
			UserID:    event.UserID,
			Type:      event.Type,
			Message:   event.Message,
			RelatedID: event.RelatedID,
		}
		if err := c.repo.Create(&notification); err != nil {
			log.Printf("❌ Failed to store notification for user %d: %v", event.UserID, err)
			msg.Nack(false, true) // Requeue for retry
			continue
		}

		msg.Ack(false)
		log.Printf("🔔 Stored %s notification for user %d", event.Type, event.UserID)
	}
}
