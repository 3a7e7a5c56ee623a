package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GroupBuyStatusActive    = "active"
	GroupBuyStatusCompleted = "completed"
	GroupBuyStatusCancelled = "cancelled"
)

// GroupBuy is a time- and capacity-bounded collective discount offer on one
// product. CurrentParticipants is denormalized from the participation rows
// and is only ever mutated inside the same isolation boundary as the row
// insert or delete.
type GroupBuy struct {
	ID                  int             `json:"id"`
	ProductID           int             `json:"product_id"`
	DiscountPrice       decimal.Decimal `json:"discount_price"`
	MinParticipants     int             `json:"min_participants"`
	MaxParticipants     int             `json:"max_participants"`
	CurrentParticipants int             `json:"current_participants"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	Status              string          `json:"status"`
}

// EffectiveStatus computes the campaign status from time as well as the
// stored column. An active campaign past its end date reads as cancelled
// even when the expiry sweep has not caught up yet; the stored status is
// only a cache.
func (g *GroupBuy) EffectiveStatus(now time.Time) string {
	if g.Status == GroupBuyStatusActive && now.After(g.EndDate) {
		return GroupBuyStatusCancelled
	}
	return g.Status
}

// Full reports whether every slot is taken.
func (g *GroupBuy) Full() bool {
	return g.CurrentParticipants >= g.MaxParticipants
}

// ExpiredUnfilled reports whether the campaign is a sweep target: still
// stored as active, past its end date, and short of the minimum.
func (g *GroupBuy) ExpiredUnfilled(now time.Time) bool {
	return g.Status == GroupBuyStatusActive &&
		now.After(g.EndDate) &&
		g.CurrentParticipants < g.MinParticipants
}

type GroupBuyParticipation struct {
	ID         int       `json:"id"`
	GroupBuyID int       `json:"group_buy_id"`
	UserID     int       `json:"user_id"`
	Quantity   int       `json:"quantity"`
	JoinedAt   time.Time `json:"joined_at"`
}

type CreateGroupBuyRequest struct {
	ProductID       int             `json:"product_id" binding:"required"`
	DiscountPrice   decimal.Decimal `json:"discount_price" binding:"required"`
	MinParticipants int             `json:"min_participants" binding:"required"`
	MaxParticipants int             `json:"max_participants" binding:"required"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date" binding:"required"`
}

// Validate enforces the campaign bounds: max >= min > 0, a positive
// discount, and an end after the start.
func (r *CreateGroupBuyRequest) Validate() error {
	if r.MinParticipants <= 0 {
		return errors.New("min_participants must be positive")
	}
	if r.MaxParticipants < r.MinParticipants {
		return errors.New("max_participants must be >= min_participants")
	}
	if !r.DiscountPrice.IsPositive() {
		return errors.New("discount_price must be positive")
	}
	if !r.StartDate.IsZero() && !r.EndDate.After(r.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

type JoinGroupBuyRequest struct {
	UserID   int `json:"user_id" binding:"required"`
	Quantity int `json:"quantity"`
}

type LeaveGroupBuyRequest struct {
	UserID int `json:"user_id" binding:"required"`
}
