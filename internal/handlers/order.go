package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hivemarket/hivemarket/internal/models"
	"github.com/hivemarket/hivemarket/internal/pricing"
)

// OrderStore is the order ledger: order-plus-items creation is atomic and
// items are immutable once written.
type OrderStore interface {
	Create(order *models.Order) error
	GetByID(id int) (*models.Order, error)
	GetByUser(userID int) ([]models.Order, error)
	Search(userID int, q string) ([]models.Order, error)
	UpdateStatus(id int, status string) (*models.Order, error)
	AttachTracking(id int, trackingNumber string) (*models.Order, error)
	Statistics(userID int) (*models.OrderStatistics, error)
}

// OrderEventPublisher extends the notification sink with the order.created
// event stream.
type OrderEventPublisher interface {
	Notifier
	PublishOrderCreated(order *models.Order) error
}

type OrderHandler struct {
	store     OrderStore
	pricer    *pricing.Engine
	publisher OrderEventPublisher
}

func NewOrderHandler(store OrderStore, pricer *pricing.Engine, publisher OrderEventPublisher) *OrderHandler {
	return &OrderHandler{
		store:     store,
		pricer:    pricer,
		publisher: publisher,
	}
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "commerce-service"})
}

// ListOrders returns a user's orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	orders, err := h.store.GetByUser(userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order with items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetByID(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder prices the requested lines against the live catalog and
// persists the order with all of its items in one shot. Client-posted
// prices are ignored; the catalog price at this instant is the snapshot
// that sticks.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Items) == 0 {
		c.JSON(statusFor(models.ErrEmptyOrder), gin.H{"error": models.ErrEmptyOrder.Error()})
		return
	}

	items, total, err := h.pricer.Price(c.Request.Context(), req.Items)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	order := models.Order{
		UserID:     req.UserID,
		Status:     models.OrderStatusPending,
		Items:      items,
		TotalPrice: total,
	}

	if err := h.store.Create(&order); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.publisher.PublishOrderCreated(&order); err != nil {
		log.Printf("⚠️ Failed to publish order.created: %v", err)
		// Don't fail the request, order is already created
	}
	h.notify(order.UserID, fmt.Sprintf("Your order #%d has been placed", order.ID), order.ID)

	log.Printf("✅ Order #%d created with total %s", order.ID, order.TotalPrice.StringFixed(2))
	c.JSON(http.StatusCreated, order)
}

// UpdateOrderStatus overwrites the order status. Only membership in the
// status set is checked; any status may follow any other.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidOrderStatus(req.Status) {
		c.JSON(statusFor(models.ErrInvalidStatus), gin.H{"error": models.ErrInvalidStatus.Error()})
		return
	}

	order, err := h.store.UpdateStatus(id, req.Status)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.notify(order.UserID, fmt.Sprintf("Your order #%d is now %s", order.ID, order.Status), order.ID)

	c.JSON(http.StatusOK, order)
}

// AttachTracking sets the tracking reference on an order.
func (h *OrderHandler) AttachTracking(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req struct {
		TrackingNumber string `json:"tracking_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.store.AttachTracking(id, req.TrackingNumber)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// SearchOrders matches a user's orders by id or status.
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	orders, err := h.store.Search(userID, c.Query("q"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// OrderStatistics returns a user's order counts by status.
func (h *OrderHandler) OrderStatistics(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	stats, err := h.store.Statistics(userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) notify(userID int, message string, orderID int) {
	if err := h.publisher.Notify(userID, models.NotificationOrderStatus, message, orderID); err != nil {
		log.Printf("⚠️ Failed to publish notification: %v", err)
	}
}
