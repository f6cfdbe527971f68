package email

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

func TestOrderPlaced(t *testing.T) {
	eta := time.Date(2025, 3, 4, 18, 30, 0, 0, time.UTC)
	o := &models.Order{
		OrderNumber:           "ORD-20250304-000000000001",
		Total:                 decimal.RequireFromString("26.4"),
		PaymentMethod:         models.PaymentCashOnDelivery,
		DeliveryType:          models.DeliveryHome,
		EstimatedDeliveryTime: &eta,
	}

	subject, body := OrderPlaced(o, "Sam")
	assert.Equal(t, "Your MealDrop order ORD-20250304-000000000001", subject)
	assert.Contains(t, body, "Total: 26.40")
	assert.Contains(t, body, "Estimated delivery: 18:30 on Mar 4")
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := LogSender{Log: zap.New(core)}

	require.NoError(t, s.Send(context.Background(), "sam@example.com", "Hi", "Body"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sam@example.com", logs.All()[0].ContextMap()["to"])
}
