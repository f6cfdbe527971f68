package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

// Sender delivers one plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender is our placeholder sender. Instead of sending a real email it
// logs the message, so flows can be exercised without provider credentials.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Log.Info("email (placeholder)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// OrderPlaced renders the confirmation email for o.
func OrderPlaced(o *models.Order, name string) (subject, body string) {
	subject = fmt.Sprintf("Your MealDrop order %s", o.OrderNumber)
	body = fmt.Sprintf(
		"Hi %s,\n\nThanks for your order %s.\nTotal: %s\nPayment: %s\n",
		name, o.OrderNumber, o.Total.StringFixed(2), o.PaymentMethod,
	)
	if o.EstimatedDeliveryTime != nil {
		body += fmt.Sprintf("Estimated %s: %s\n", o.DeliveryType, o.EstimatedDeliveryTime.Format("15:04 on Jan 2"))
	}
	return subject, body
}

// StatusChanged renders the update email for o.
func StatusChanged(o *models.Order, name string) (subject, body string) {
	subject = fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status)
	body = fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n", name, o.OrderNumber, o.Status)
	return subject, body
}
