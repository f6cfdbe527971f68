package orders

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns ORD-YYYYMMDD-XXXXXXXXXXXX, the suffix being 12 hex
// digits of a random UUID. Uniqueness is finally enforced by the database.
func NewOrderNumber(now time.Time) string {
	id := uuid.New()
	return "ORD-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(id[:6]))
}

// NewIdempotencyKey returns a fresh key for one charge attempt. A retried
// checkout must not replay a declined or refunded charge.
func NewIdempotencyKey() string {
	return "checkout-" + uuid.NewString()
}
