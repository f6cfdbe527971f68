package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/auth"
	"github.com/01moynul/mealdrop-golang/internal/cart"
	"github.com/01moynul/mealdrop-golang/internal/catalog"
	"github.com/01moynul/mealdrop-golang/internal/email"
	"github.com/01moynul/mealdrop-golang/internal/events"
	"github.com/01moynul/mealdrop-golang/internal/handlers"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/notify"
	"github.com/01moynul/mealdrop-golang/internal/orders"
	"github.com/01moynul/mealdrop-golang/internal/payment"
	"github.com/01moynul/mealdrop-golang/internal/routes"
	"github.com/01moynul/mealdrop-golang/internal/store/memstore"
)

type app struct {
	router     *gin.Engine
	store      *memstore.Store
	tokens     *auth.Manager
	dispatcher *notify.Dispatcher
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	st := memstore.New()
	tokens := auth.NewManager("test-secret")
	dispatcher := notify.NewDispatcher(st, email.LogSender{Log: log}, events.Nop{}, log)

	catalogSvc := catalog.NewService(st, nil, log)
	carts := cart.NewService(st, decimal.RequireFromString("0.10"), log)
	orderSvc := orders.NewService(st, carts, payment.Disabled{}, dispatcher, catalogSvc, orders.Config{
		Currency:       "usd",
		PaymentTimeout: time.Second,
		DeliveryETA:    45 * time.Minute,
		PickupETA:      20 * time.Minute,
	}, log)

	h := &handlers.Handlers{
		Store:    st,
		Tokens:   tokens,
		Catalog:  catalogSvc,
		Carts:    carts,
		Orders:   orderSvc,
		Payments: payment.Disabled{},
		Log:      log,
	}
	t.Cleanup(dispatcher.Wait)

	return &app{
		router:     routes.SetupRouter(h, []string{"http://localhost:5173"}),
		store:      st,
		tokens:     tokens,
		dispatcher: dispatcher,
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

// user stores a user with the given role and returns a token for it.
func (a *app) user(t *testing.T, email string, role models.Role) (int64, string) {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, a.store.CreateUser(context.Background(), u))
	token, err := a.tokens.GenerateToken(u.ID)
	require.NoError(t, err)
	return u.ID, token
}

// seedMeal creates a category and a meal through the admin API.
func (a *app) seedMeal(t *testing.T, adminToken string, stock int) models.Meal {
	t.Helper()

	status, env := a.do(t, http.MethodPost, "/api/admin/categories", adminToken, gin.H{"name": "Bowls"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var category models.Category
	decode(t, env, &category)

	status, env = a.do(t, http.MethodPost, "/api/admin/meals", adminToken, gin.H{
		"category_id":    category.ID,
		"name":           "Teriyaki Bowl",
		"price":          "10.00",
		"discount_price": "8.00",
		"stock_quantity": stock,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var meal models.Meal
	decode(t, env, &meal)
	return meal
}

func TestPing(t *testing.T) {
	a := newApp(t)
	status, env := a.do(t, http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong!", env.Message)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newApp(t)
	creds := gin.H{"name": "Ana", "email": "Ana@Example.com", "password": "s3cret-pass"}

	status, env := a.do(t, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var registered handlers.AuthPayload
	decode(t, env, &registered)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "ana@example.com", registered.User.Email)
	assert.Equal(t, models.RoleUser, registered.User.Role)

	status, env = a.do(t, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "email")

	status, env = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ana@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var loggedIn handlers.AuthPayload
	decode(t, env, &loggedIn)
	userID, err := a.tokens.ValidateToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, userID)

	status, _ = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegister_ValidationErrors(t *testing.T) {
	a := newApp(t)

	status, env := a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "not-an-email", "password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
	assert.Equal(t, "validation_failed", env.Code)
	assert.Equal(t, "is required", env.Errors["name"])
	assert.Equal(t, "must be a valid email address", env.Errors["email"])
	assert.Equal(t, "must be at least 8", env.Errors["password"])
}

func TestAuthAndRoleGuards(t *testing.T) {
	a := newApp(t)
	_, userToken := a.user(t, "user@example.com", models.RoleUser)

	status, _ := a.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodGet, "/api/cart", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodPost, "/api/admin/categories", userToken, gin.H{"name": "Soups"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCheckoutFlow(t *testing.T) {
	a := newApp(t)
	_, adminToken := a.user(t, "admin@example.com", models.RoleAdmin)
	userID, token := a.user(t, "user@example.com", models.RoleUser)
	meal := a.seedMeal(t, adminToken, 5)

	// 1. Cart pricing
	status, env := a.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"meal_id": meal.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, status, env.Message)
	var c models.Cart
	decode(t, env, &c)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "8.00", c.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "24.00", c.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", c.Tax.StringFixed(2))
	assert.Equal(t, "26.40", c.Total.StringFixed(2))

	// 2. Checkout
	status, env = a.do(t, http.MethodPost, "/api/orders", token, gin.H{
		"payment_method": "cash_on_delivery",
		"delivery_type":  "pickup",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var order models.Order
	decode(t, env, &order)
	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.Equal(t, "26.40", order.Total.StringFixed(2))
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{12}$`, order.OrderNumber)

	status, env = a.do(t, http.MethodGet, fmt.Sprintf("/api/meals/%d", meal.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var after models.Meal
	decode(t, env, &after)
	assert.Equal(t, 2, after.StockQuantity)

	status, env = a.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &c)
	assert.Empty(t, c.Items)

	// 3. Reads
	status, env = a.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []models.Order
	decode(t, env, &list)
	assert.Len(t, list, 1)

	status, env = a.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	var details models.Order
	decode(t, env, &details)
	assert.Len(t, details.Items, 1)

	status, env = a.do(t, http.MethodGet, "/api/orders/track?order_number="+order.OrderNumber, token, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var tracking models.OrderTracking
	decode(t, env, &tracking)
	assert.Equal(t, models.OrderPlaced, tracking.Status)

	// 4. Status updates
	statusPath := fmt.Sprintf("/api/admin/orders/%d/status", order.ID)
	status, env = a.do(t, http.MethodPatch, statusPath, adminToken, gin.H{"status": "processing"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = a.do(t, http.MethodPatch, statusPath, adminToken, gin.H{"status": "delivered"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_status_transition", env.Code)

	// 5. Inbox
	a.dispatcher.Wait()
	notifications, err := a.store.ListNotifications(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)

	status, env = a.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, status)
	var inbox []models.Notification
	decode(t, env, &inbox)
	require.Len(t, inbox, 2)

	status, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/notifications/%d/read", inbox[0].ID), token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCheckout_Failures(t *testing.T) {
	a := newApp(t)
	_, adminToken := a.user(t, "admin@example.com", models.RoleAdmin)
	_, token := a.user(t, "user@example.com", models.RoleUser)
	meal := a.seedMeal(t, adminToken, 2)

	status, env := a.do(t, http.MethodPost, "/api/orders", token, gin.H{
		"payment_method": "cash_on_delivery",
		"delivery_type":  "pickup",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_cart", env.Code)

	status, env = a.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"meal_id": meal.ID, "quantity": 3})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "insufficient_stock", env.Code)

	status, env = a.do(t, http.MethodPost, "/api/orders", token, gin.H{
		"payment_method": "bitcoin",
		"delivery_type":  "delivery",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "payment_method")
	assert.Contains(t, env.Errors, "address_id")

	status, env = a.do(t, http.MethodGet, "/api/orders/track", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status, env.Message)

	status, _ = a.do(t, http.MethodGet, "/api/orders/abc", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestMalformedBody(t *testing.T) {
	a := newApp(t)
	_, token := a.user(t, "user@example.com", models.RoleUser)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewBufferString(`{"meal_id":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestAddressesAndOwnership(t *testing.T) {
	a := newApp(t)
	_, token := a.user(t, "user@example.com", models.RoleUser)
	otherID, otherToken := a.user(t, "other@example.com", models.RoleUser)

	status, env := a.do(t, http.MethodPost, "/api/addresses", token, gin.H{"city": "Leeds"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "line1")

	status, env = a.do(t, http.MethodPost, "/api/addresses", token, gin.H{
		"line1": "1 High St", "city": "Leeds", "postcode": "LS1 1AA", "phone": "0113 000",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var address models.Address
	decode(t, env, &address)
	assert.Equal(t, "Home", address.Label)

	status, env = a.do(t, http.MethodGet, "/api/addresses", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	var others []models.Address
	decode(t, env, &others)
	assert.Empty(t, others)

	n := &models.Notification{UserID: otherID, Message: "hello"}
	require.NoError(t, a.store.CreateNotification(context.Background(), n))
	status, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/notifications/%d/read", n.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPaymentMethods_Disabled(t *testing.T) {
	a := newApp(t)
	_, token := a.user(t, "user@example.com", models.RoleUser)

	status, env := a.do(t, http.MethodGet, "/api/payment-methods", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = a.do(t, http.MethodPost, "/api/payment-methods/setup", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "business_rule_violation", env.Code)

	status, _ = a.do(t, http.MethodDelete, "/api/payment-methods/pm_123", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChat_Unavailable(t *testing.T) {
	a := newApp(t)
	_, token := a.user(t, "user@example.com", models.RoleUser)

	status, _ := a.do(t, http.MethodPost, "/api/chat", token, gin.H{"message": "what is spicy?"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCORSPreflight(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/meals", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
