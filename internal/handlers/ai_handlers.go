package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string `json:"message" binding:"required"`
}

// Chat is the handler for POST /api/chat
func (h *Handlers) Chat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if h.Assistant == nil {
		respondStatus(c, http.StatusServiceUnavailable, "The assistant is not available")
		return
	}

	var input ChatInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	reply, err := h.Assistant.Chat(c.Request.Context(), userID, input.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Reply generated", reply)
}
