// Package store is the persistence boundary for the ordering backend.
package store

import (
	"context"
	"errors"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write violates a unique constraint or
	// a guarded update finds the row changed underneath it.
	ErrConflict = errors.New("store: conflict")
)

// Queries is every read and write the services need. It is implemented on
// the connection pool and inside a transaction alike.
type Queries interface {
	// --- Users ---
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error

	// --- Catalog ---
	CreateCategory(ctx context.Context, c *models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateMeal(ctx context.Context, m *models.Meal) error
	GetMeal(ctx context.Context, id int64) (*models.Meal, error)
	ListMeals(ctx context.Context, f models.MealFilter) ([]models.Meal, error)
	SetMealStock(ctx context.Context, mealID int64, stock int) error
	// DecrementStock subtracts qty only when at least qty units are left and
	// reports whether it did.
	DecrementStock(ctx context.Context, mealID int64, qty int) (bool, error)

	// --- Carts ---
	GetActiveCart(ctx context.Context, userID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, c *models.Cart) error
	SaveCartTotals(ctx context.Context, c *models.Cart) error
	CompleteCart(ctx context.Context, cartID int64) error
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, itemID int64) (*models.CartItem, error)
	FindCartItem(ctx context.Context, cartID, mealID int64) (*models.CartItem, error)
	InsertCartItem(ctx context.Context, item *models.CartItem) error
	UpdateCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, itemID int64) error
	DeleteCartItems(ctx context.Context, cartID int64) error

	// --- Orders ---
	CreateOrder(ctx context.Context, o *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	// UpdateOrderStatus saves the status columns of o only while the stored
	// status is still from; otherwise it returns ErrConflict.
	UpdateOrderStatus(ctx context.Context, o *models.Order, from models.OrderStatus) error

	// --- Addresses ---
	CreateAddress(ctx context.Context, a *models.Address) error
	GetAddress(ctx context.Context, id int64) (*models.Address, error)
	ListAddresses(ctx context.Context, userID int64) ([]models.Address, error)

	// --- Notifications & assistant history ---
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error)
	CreateChatHistory(ctx context.Context, h *models.ChatHistory) error
}

// Store adds transactions on top of Queries.
type Store interface {
	Queries
	// WithTx runs fn inside one transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error
}
