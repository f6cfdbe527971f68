package handlers

import (
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/orders"
	"github.com/gin-gonic/gin"
)

// PlaceOrderInput is the body of POST /api/orders. Conditional rules
// (card needs payment_method_id, delivery needs address_id) are checked by
// the orders service.
type PlaceOrderInput struct {
	PaymentMethod   string  `json:"payment_method" binding:"required"`
	PaymentMethodID string  `json:"payment_method_id"`
	DeliveryType    string  `json:"delivery_type" binding:"required"`
	AddressID       *int64  `json:"address_id"`
	Notes           *string `json:"notes" binding:"omitempty,max=1000"`
}

// PlaceOrder is the handler for POST /api/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Get IDs ---
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 2. --- Bind & Validate JSON ---
	var input PlaceOrderInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Checkout ---
	order, err := h.Orders.PlaceOrder(c.Request.Context(), userID, orders.PlaceOrderInput{
		PaymentMethod:   models.PaymentMethod(input.PaymentMethod),
		PaymentMethodID: input.PaymentMethodID,
		DeliveryType:    models.DeliveryType(input.DeliveryType),
		AddressID:       input.AddressID,
		Notes:           input.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondCreated(c, "Order placed successfully", order)
}

// GetMyOrders is the handler for GET /api/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.Orders.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	respondOK(c, "Orders retrieved", list)
}

// GetOrderDetails is the handler for GET /api/orders/:id
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Order retrieved", order)
}

// TrackOrder is the handler for GET /api/orders/track?order_number=
func (h *Handlers) TrackOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tracking, err := h.Orders.Track(c.Request.Context(), userID, c.Query("order_number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Order tracking retrieved", tracking)
}

// --- Admin ---

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus is the handler for PATCH /api/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input UpdateOrderStatusInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	order, err := h.Orders.AdvanceStatus(c.Request.Context(), orderID, models.OrderStatus(input.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Order status updated", order)
}
