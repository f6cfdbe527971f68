package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderPlaced         OrderStatus = "placed"
	OrderProcessing     OrderStatus = "processing"
	OrderShipping       OrderStatus = "shipping"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// happyPath is the linear order of non-cancelled statuses.
var happyPath = []OrderStatus{
	OrderPlaced,
	OrderProcessing,
	OrderShipping,
	OrderOutForDelivery,
	OrderDelivered,
}

// Position maps a status to its 1-5 step on the progress indicator.
// Cancelled and unknown statuses are 0.
func (s OrderStatus) Position() int {
	for i, st := range happyPath {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// IsValid reports whether s is one of the six known statuses.
func (s OrderStatus) IsValid() bool {
	return s == OrderCancelled || s.Position() > 0
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo allows a single forward step along the happy path, or
// cancellation from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return s.Position() > 0 && next.Position() == s.Position()+1
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
)

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// DeliveryType is delivery to an address or pickup.
type DeliveryType string

const (
	DeliveryHome   DeliveryType = "delivery"
	DeliveryPickup DeliveryType = "pickup"
)

// Order is the model for the 'orders' table
type Order struct {
	ID               int64           `json:"id" db:"id"`
	OrderNumber      string          `json:"orderNumber" db:"order_number"`
	UserID           int64           `json:"userId" db:"user_id"`
	AddressID        *int64          `json:"addressId,omitempty" db:"address_id"`
	DeliveryAddress  *string         `json:"deliveryAddress,omitempty" db:"delivery_address"` // text snapshot at checkout
	PaymentMethod    PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	PaymentReference *string         `json:"paymentReference,omitempty" db:"payment_reference"`
	DeliveryType     DeliveryType    `json:"deliveryType" db:"delivery_type"`
	Status           OrderStatus     `json:"status" db:"status"`
	Subtotal         decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax              decimal.Decimal `json:"tax" db:"tax"`
	Discount         decimal.Decimal `json:"discount" db:"discount"`
	Total            decimal.Decimal `json:"total" db:"total"`
	Notes            *string         `json:"notes,omitempty" db:"notes"`

	// --- Status timestamps ---
	PlacedAt         *time.Time `json:"placedAt,omitempty" db:"placed_at"`
	ProcessingAt     *time.Time `json:"processingAt,omitempty" db:"processing_at"`
	ShippingAt       *time.Time `json:"shippingAt,omitempty" db:"shipping_at"`
	OutForDeliveryAt *time.Time `json:"outForDeliveryAt,omitempty" db:"out_for_delivery_at"`
	DeliveredAt      *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty" db:"cancelled_at"`

	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty" db:"estimated_delivery_time"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time  `json:"updatedAt" db:"updated_at"`

	// Loaded on demand
	Items   []OrderItem `json:"items,omitempty" db:"-"`
	Address *Address    `json:"address,omitempty" db:"-"`
}

// StampStatus sets Status and the timestamp column that belongs to it.
func (o *Order) StampStatus(status OrderStatus, at time.Time) {
	o.Status = status
	o.UpdatedAt = at
	t := at
	switch status {
	case OrderPlaced:
		o.PlacedAt = &t
	case OrderProcessing:
		o.ProcessingAt = &t
	case OrderShipping:
		o.ShippingAt = &t
	case OrderOutForDelivery:
		o.OutForDeliveryAt = &t
	case OrderDelivered:
		o.DeliveredAt = &t
	case OrderCancelled:
		o.CancelledAt = &t
	}
}

// OrderItem is the model for the 'order_items' table.
// Rows are written once at checkout and never updated.
type OrderItem struct {
	ID             int64           `json:"id" db:"id"`
	OrderID        int64           `json:"orderId" db:"order_id"`
	MealID         int64           `json:"mealId" db:"meal_id"`
	MealName       string          `json:"mealName" db:"meal_name"`
	Quantity       int             `json:"quantity" db:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice" db:"unit_price"` // Price at the time of purchase
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// OrderTracking is the client-facing progress view of an order.
type OrderTracking struct {
	OrderNumber           string      `json:"orderNumber"`
	Status                OrderStatus `json:"status"`
	Position              int         `json:"position"`
	PlacedAt              *time.Time  `json:"placedAt,omitempty"`
	ProcessingAt          *time.Time  `json:"processingAt,omitempty"`
	ShippingAt            *time.Time  `json:"shippingAt,omitempty"`
	OutForDeliveryAt      *time.Time  `json:"outForDeliveryAt,omitempty"`
	DeliveredAt           *time.Time  `json:"deliveredAt,omitempty"`
	CancelledAt           *time.Time  `json:"cancelledAt,omitempty"`
	EstimatedDeliveryTime *time.Time  `json:"estimatedDeliveryTime,omitempty"`
}

// Tracking builds the progress view for o.
func (o *Order) Tracking() OrderTracking {
	return OrderTracking{
		OrderNumber:           o.OrderNumber,
		Status:                o.Status,
		Position:              o.Status.Position(),
		PlacedAt:              o.PlacedAt,
		ProcessingAt:          o.ProcessingAt,
		ShippingAt:            o.ShippingAt,
		OutForDeliveryAt:      o.OutForDeliveryAt,
		DeliveredAt:           o.DeliveredAt,
		CancelledAt:           o.CancelledAt,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
	}
}
