package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

//
// --- Role-Based Middleware ---
//
// AdminMiddleware must run *after* AuthMiddleware. It reads the userID from
// the context, loads that user's role and enforces it.
//

// UserLookup is the slice of the store the role guard needs.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// AdminMiddleware allows only users with the admin role.
func AdminMiddleware(users UserLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID, ok := UserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		// 2. Load the user's role
		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				abort(c, http.StatusUnauthorized, "Invalid user")
				return
			}
			log.Error("role lookup failed", zap.Int64("user_id", userID), zap.Error(err))
			abort(c, http.StatusInternalServerError, "Something went wrong")
			return
		}

		// 3. Check permission
		if user.Role != models.RoleAdmin {
			abort(c, http.StatusForbidden, "Access denied: Admin role required")
			return
		}

		c.Set(UserRoleKey, user.Role)
		c.Next()
	}
}
