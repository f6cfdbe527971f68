package handlers

import (
	"strings"

	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// GetMyAddresses is the handler for GET /api/addresses
func (h *Handlers) GetMyAddresses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addresses, err := h.Store.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	respondOK(c, "Addresses retrieved", addresses)
}

type CreateAddressInput struct {
	Label    string  `json:"label" binding:"max=50"`
	Line1    string  `json:"line1" binding:"required,max=255"`
	Line2    *string `json:"line2" binding:"omitempty,max=255"`
	City     string  `json:"city" binding:"required,max=100"`
	Postcode string  `json:"postcode" binding:"required,max=20"`
	Phone    string  `json:"phone" binding:"required,max=30"`
}

// CreateAddress is the handler for POST /api/addresses
func (h *Handlers) CreateAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input CreateAddressInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = "Home"
	}
	address := &models.Address{
		UserID:   userID,
		Label:    label,
		Line1:    strings.TrimSpace(input.Line1),
		Line2:    input.Line2,
		City:     strings.TrimSpace(input.City),
		Postcode: strings.TrimSpace(input.Postcode),
		Phone:    strings.TrimSpace(input.Phone),
	}
	if err := h.Store.CreateAddress(c.Request.Context(), address); err != nil {
		h.respondError(c, err)
		return
	}
	respondCreated(c, "Address saved", address)
}
