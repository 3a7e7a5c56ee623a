package handlers

import (
	"errors"
	"net/http"

	"github.com/hivemarket/hivemarket/internal/models"
)

// Notifier is the one-way notification sink. Handlers treat every call as
// best effort: failures are logged and never surfaced to the commerce
// caller.
type Notifier interface {
	Notify(userID int, kind, message string, relatedID int) error
}

// statusFor maps the error taxonomy onto HTTP statuses: validation → 400,
// not found → 404, admission conflicts → 409, everything else → 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyOrder),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrCampaignNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCampaignNotActive),
		errors.Is(err, models.ErrAlreadyJoined),
		errors.Is(err, models.ErrCampaignFull),
		errors.Is(err, models.ErrNotAParticipant):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
