package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemarket/hivemarket/internal/memdb"
	"github.com/hivemarket/hivemarket/internal/models"
)

func newProductRouter(t *testing.T) (*gin.Engine, *memdb.ProductStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memdb.NewProductStore()
	handler := NewProductHandler(store)

	router := gin.New()
	router.GET("/products", handler.ListProducts)
	router.GET("/products/:id", handler.GetProduct)
	router.POST("/products", handler.CreateProduct)
	router.PATCH("/products/:id", handler.UpdateProduct)
	router.DELETE("/products/:id", handler.DeleteProduct)

	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProductLifecycle(t *testing.T) {
	router, _ := newProductRouter(t)

	w := doJSON(t, router, http.MethodPost, "/products", gin.H{
		"seller_id": 3,
		"name":      "honey jar",
		"price":     "12.50",
		"category":  "food",
		"quantity":  40,
		"in_stock":  true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "honey jar", created.Name)
	assert.Equal(t, "12.50", created.Price.StringFixed(2))

	w = doJSON(t, router, http.MethodPatch, "/products/1", gin.H{"price": "9.99", "quantity": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "9.99", updated.Price.StringFixed(2))
	assert.Equal(t, 10, updated.Quantity)
	assert.Equal(t, "honey jar", updated.Name, "untouched fields survive a partial update")

	w = doJSON(t, router, http.MethodDelete, "/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/products/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	router, _ := newProductRouter(t)

	w := doJSON(t, router, http.MethodGet, "/products/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := memdb.NewNotificationStore()
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Create(&models.Notification{
			UserID:  7,
			Type:    models.NotificationGroupBuy,
			Message: "the group buy is complete",
		}))
	}

	handler := NewNotificationHandler(store)
	router := gin.New()
	router.GET("/notifications", handler.ListNotifications)
	router.POST("/notifications/:id/read", handler.MarkRead)
	router.POST("/notifications/read-all", handler.MarkAllRead)

	w := doJSON(t, router, http.MethodGet, "/notifications?user_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.False(t, listed[0].IsRead)

	w = doJSON(t, router, http.MethodPost, "/notifications/1/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/notifications/99/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/notifications/read-all?user_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["marked_read"])
}
