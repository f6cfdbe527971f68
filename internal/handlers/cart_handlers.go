package handlers

import (
	"github.com/gin-gonic/gin"
)

// GetCart is the handler for GET /api/cart
func (h *Handlers) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cart, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Cart retrieved", cart)
}

type AddToCartInput struct {
	MealID   int64 `json:"meal_id" binding:"required"`
	Quantity int   `json:"quantity"`
}

// AddToCart is the handler for POST /api/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	// 1. --- Get IDs ---
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 2. --- Bind & Validate JSON ---
	var input AddToCartInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Add the Line ---
	cart, err := h.Carts.AddItem(c.Request.Context(), userID, input.MealID, input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, "Item added to cart", cart)
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem is the handler for PUT /api/cart/items/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input UpdateCartItemInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	cart, err := h.Carts.UpdateItem(c.Request.Context(), userID, itemID, input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Cart item updated", cart)
}

// DeleteCartItem is the handler for DELETE /api/cart/items/:id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	cart, err := h.Carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Item removed from cart", cart)
}

// ClearCart is the handler for DELETE /api/cart/clear
func (h *Handlers) ClearCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cart, err := h.Carts.Clear(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Cart cleared", cart)
}
