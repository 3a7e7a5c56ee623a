package models

import "time"

const (
	NotificationOrderStatus = "ORDER_STATUS"
	NotificationGroupBuy    = "GROUP_BUY"
	NotificationReview      = "REVIEW"
	NotificationPriceDrop   = "PRICE_DROP"
)

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	RelatedID int       `json:"related_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
