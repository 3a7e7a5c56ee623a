package models

import "errors"

// Validation errors: the caller sent something unusable and must correct it.
var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Not-found errors.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCampaignNotFound = errors.New("group buy not found")
)

// Admission-conflict errors: expected outcomes under contention, not
// transient failures. A CampaignFull response is definitive and must not
// be retried blindly.
var (
	ErrCampaignNotActive = errors.New("group buy is not active")
	ErrAlreadyJoined     = errors.New("already joined this group buy")
	ErrCampaignFull      = errors.New("group buy is full")
	ErrNotAParticipant   = errors.New("not a participant of this group buy")
)

var ErrInvalidStatus = errors.New("invalid order status")
