package handlers

import (
	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/payment"
	"github.com/gin-gonic/gin"
)

// SetupPaymentMethod is the handler for POST /api/payment-methods/setup.
// It creates the provider customer on first use and returns a client
// secret the frontend uses to save a card.
func (h *Handlers) SetupPaymentMethod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// 1. --- Load the User ---
	user, err := h.Store.GetUser(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 2. --- Create the Customer if Missing ---
	var customerID string
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		customerID = *user.StripeCustomerID
	} else {
		customerID, err = h.Payments.CreateCustomer(ctx, user.Email, user.Name)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if err := h.Store.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			h.respondError(c, err)
			return
		}
	}

	// 3. --- Start the Setup ---
	setup, err := h.Payments.CreateSetup(ctx, customerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondCreated(c, "Payment method setup started", setup)
}

// GetPaymentMethods is the handler for GET /api/payment-methods
func (h *Handlers) GetPaymentMethods(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		respondOK(c, "Payment methods retrieved", []payment.Card{})
		return
	}

	cards, err := h.Payments.ListCards(c.Request.Context(), *user.StripeCustomerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if cards == nil {
		cards = []payment.Card{}
	}
	respondOK(c, "Payment methods retrieved", cards)
}

// DeletePaymentMethod is the handler for DELETE /api/payment-methods/:id
func (h *Handlers) DeletePaymentMethod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		h.respondError(c, apperr.NotFound("Payment method"))
		return
	}

	if err := h.Payments.DetachCard(c.Request.Context(), *user.StripeCustomerID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Payment method removed", nil)
}
