package handlers

import (
	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// GetMyNotifications is the handler for GET /api/notifications.
// Unread come first, newest first within each group.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notifications, err := h.Store.ListNotifications(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	respondOK(c, "Notifications retrieved", notifications)
}

// MarkNotificationAsRead is the handler for PATCH /api/notifications/:id/read
func (h *Handlers) MarkNotificationAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	// The update is scoped to the user, so a foreign id looks missing.
	updated, err := h.Store.MarkNotificationRead(c.Request.Context(), notificationID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !updated {
		h.respondError(c, apperr.NotFound("Notification"))
		return
	}
	respondOK(c, "Notification marked as read", nil)
}
