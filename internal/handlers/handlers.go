package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/01moynul/mealdrop-golang/internal/ai"
	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/auth"
	"github.com/01moynul/mealdrop-golang/internal/cart"
	"github.com/01moynul/mealdrop-golang/internal/catalog"
	"github.com/01moynul/mealdrop-golang/internal/middleware"
	"github.com/01moynul/mealdrop-golang/internal/orders"
	"github.com/01moynul/mealdrop-golang/internal/payment"
	"github.com/01moynul/mealdrop-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store    store.Store
	Tokens   *auth.Manager
	Catalog  *catalog.Service
	Carts    *cart.Service
	Orders   *orders.Service
	Payments payment.Gateway
	// Assistant is nil when no Gemini key is configured.
	Assistant *ai.Assistant
	Log       *zap.Logger
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// respondStatus answers with a plain failure that has no apperr kind.
func respondStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}

// respondError translates err through the apperr taxonomy. Anything
// unclassified is logged and answered with a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	if errors.Is(err, payment.ErrDisabled) {
		err = apperr.BusinessRule(apperr.CodeBusinessRule, "Card payments are not available")
	}
	if errors.Is(err, store.ErrNotFound) {
		err = apperr.NotFound("Resource")
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindUnexpected {
		h.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: "Something went wrong",
			Code:    apperr.CodeUnexpected,
		})
		return
	}

	c.JSON(ae.Kind.HTTPStatus(), Response{
		Success: false,
		Message: ae.Message,
		Code:    ae.Code,
		Errors:  ae.Fields,
	})
}

// currentUser reads the id set by AuthMiddleware and answers 401 without one.
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondStatus(c, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid "+name, map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// --- Request binding ---

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json tag.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON binds the request body into dst and converts binding failures
// into a ValidationFailed error with one message per field.
func bindJSON(c *gin.Context, dst interface{}) error {
	useJSONFieldNames()

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return apperr.Validation("The given data was invalid", fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation("The given data was invalid", map[string]string{
			typeErr.Field: "must be a " + typeErr.Type.String(),
		})
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required", nil)
	}
	return apperr.Validation("Malformed JSON body", nil)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
