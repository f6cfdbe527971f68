package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
	"github.com/gin-gonic/gin"
)

// --- User Registration ---

// RegisterInput is the body of POST /api/auth/register. It is separate
// from models.User so clients cannot choose their id or role.
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register is the handler for POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Save the User ---
	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: password.Hash,
		Role:         models.RoleUser,
	}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			h.respondError(c, apperr.Validation("The given data was invalid", map[string]string{
				"email": "has already been taken",
			}))
			return
		}
		h.respondError(c, err)
		return
	}

	// 4. --- Issue a Token ---
	token, err := h.Tokens.GenerateToken(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondCreated(c, "Registered successfully", AuthPayload{Token: token, User: user})
}

// --- Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	// 1. --- Find the User ---
	user, err := h.Store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondStatus(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.respondError(c, err)
		return
	}

	// 2. --- Check the Password ---
	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !match {
		respondStatus(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	// 3. --- Issue a Token ---
	token, err := h.Tokens.GenerateToken(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, "Logged in successfully", AuthPayload{Token: token, User: user})
}
