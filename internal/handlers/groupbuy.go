package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hivemarket/hivemarket/internal/models"
)

// GroupBuyStore is the admission controller's durable side. Join and Leave
// are indivisible with respect to each other on the same campaign: the
// membership check, capacity check, participation write, counter update and
// status flip all land together or not at all.
type GroupBuyStore interface {
	Create(req models.CreateGroupBuyRequest) (*models.GroupBuy, error)
	GetByID(id int) (*models.GroupBuy, error)
	GetAll() ([]models.GroupBuy, error)
	Join(groupBuyID, userID, quantity int) (*models.GroupBuyParticipation, *models.GroupBuy, error)
	Leave(groupBuyID, userID int) (*models.GroupBuy, error)
	Participations(groupBuyID int) ([]models.GroupBuyParticipation, error)
}

type GroupBuyHandler struct {
	store    GroupBuyStore
	notifier Notifier
}

func NewGroupBuyHandler(store GroupBuyStore, notifier Notifier) *GroupBuyHandler {
	return &GroupBuyHandler{
		store:    store,
		notifier: notifier,
	}
}

// CreateGroupBuy opens a new campaign.
func (h *GroupBuyHandler) CreateGroupBuy(c *gin.Context) {
	var req models.CreateGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groupBuy, err := h.store.Create(req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, groupBuy)
}

// ListGroupBuys returns campaigns, optionally filtered by effective status.
// The filter computes activity from time as well as the stored column, so a
// stale not-yet-swept campaign never shows up as active.
func (h *GroupBuyHandler) ListGroupBuys(c *gin.Context) {
	groupBuys, err := h.store.GetAll()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if want := c.Query("status"); want != "" {
		now := time.Now()
		filtered := make([]models.GroupBuy, 0, len(groupBuys))
		for _, g := range groupBuys {
			if g.EffectiveStatus(now) == want {
				filtered = append(filtered, g)
			}
		}
		groupBuys = filtered
	}

	c.JSON(http.StatusOK, groupBuys)
}

// GetGroupBuy returns a single campaign.
func (h *GroupBuyHandler) GetGroupBuy(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group buy ID"})
		return
	}

	groupBuy, err := h.store.GetByID(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, groupBuy)
}

// ListParticipations returns the live members of a campaign.
func (h *GroupBuyHandler) ListParticipations(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group buy ID"})
		return
	}

	if _, err := h.store.GetByID(id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	parts, err := h.store.Participations(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, parts)
}

// JoinGroupBuy admits the buyer into the campaign. Outcomes other than
// success are definitive: a full or inactive campaign will not admit on
// retry, so clients should not hammer this endpoint.
func (h *GroupBuyHandler) JoinGroupBuy(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group buy ID"})
		return
	}

	var req models.JoinGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Quantity < 0 {
		c.JSON(statusFor(models.ErrInvalidQuantity), gin.H{"error": models.ErrInvalidQuantity.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	part, groupBuy, err := h.store.Join(id, req.UserID, req.Quantity)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.notify(req.UserID, fmt.Sprintf("You joined the group buy for product %d", groupBuy.ProductID), groupBuy.ID)

	if groupBuy.Status == models.GroupBuyStatusCompleted {
		log.Printf("🎉 Group buy %d filled (%d participants)", groupBuy.ID, groupBuy.CurrentParticipants)
		h.notifyFilled(groupBuy)
	}

	c.JSON(http.StatusCreated, part)
}

// LeaveGroupBuy removes the buyer's participation. Leaving a completed
// campaign frees a slot but does not reactivate it.
func (h *GroupBuyHandler) LeaveGroupBuy(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group buy ID"})
		return
	}

	var req models.LeaveGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groupBuy, err := h.store.Leave(id, req.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":              "left group buy",
		"current_participants": groupBuy.CurrentParticipants,
	})
}

// notifyFilled tells every participant the campaign reached capacity.
func (h *GroupBuyHandler) notifyFilled(groupBuy *models.GroupBuy) {
	parts, err := h.store.Participations(groupBuy.ID)
	if err != nil {
		log.Printf("⚠️ Failed to list participants of group buy %d: %v", groupBuy.ID, err)
		return
	}

	message := fmt.Sprintf("The group buy for product %d is complete", groupBuy.ProductID)
	for _, p := range parts {
		h.notify(p.UserID, message, groupBuy.ID)
	}
}

func (h *GroupBuyHandler) notify(userID int, message string, groupBuyID int) {
	if err := h.notifier.Notify(userID, models.NotificationGroupBuy, message, groupBuyID); err != nil {
		log.Printf("⚠️ Failed to publish notification: %v", err)
	}
}
