// Package notify runs the side effects that follow an order change: the
// in-app notification, the email and the domain event. They run in the
// background and a failure is logged, never returned.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/email"
	"github.com/01moynul/mealdrop-golang/internal/events"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

// DefaultTimeout bounds each background task.
const DefaultTimeout = 10 * time.Second

// Dispatcher fans order changes out to the inbox, email and event bus.
type Dispatcher struct {
	store   store.Queries
	mail    email.Sender
	events  events.Publisher
	log     *zap.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(q store.Queries, mail email.Sender, pub events.Publisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: q, mail: mail, events: pub, log: log, timeout: DefaultTimeout}
}

// Go runs fn in the background with its own bounded context.
func (d *Dispatcher) Go(task string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.log.Warn("background task failed", zap.String("task", task), zap.Error(err))
		}
	}()
}

// Wait blocks until every started task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// OrderPlaced announces a new order.
func (d *Dispatcher) OrderPlaced(o *models.Order) {
	order := *o
	now := time.Now()

	d.Go("notification", func(ctx context.Context) error {
		return d.inbox(ctx, &order, fmt.Sprintf("Order %s placed", order.OrderNumber))
	})
	d.Go("email", func(ctx context.Context) error {
		return d.email(ctx, &order, email.OrderPlaced)
	})
	d.Go("event", func(ctx context.Context) error {
		return d.events.Publish(ctx, events.TopicOrderPlaced, events.NewOrderEvent(&order, "", now))
	})
}

// OrderStatusChanged announces a status transition.
func (d *Dispatcher) OrderStatusChanged(o *models.Order, previous models.OrderStatus) {
	order := *o
	now := time.Now()

	d.Go("notification", func(ctx context.Context) error {
		return d.inbox(ctx, &order, fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status))
	})
	d.Go("email", func(ctx context.Context) error {
		return d.email(ctx, &order, email.StatusChanged)
	})
	d.Go("event", func(ctx context.Context) error {
		return d.events.Publish(ctx, events.TopicOrderStatusChanged, events.NewOrderEvent(&order, previous, now))
	})
}

func (d *Dispatcher) inbox(ctx context.Context, o *models.Order, message string) error {
	link := fmt.Sprintf("/orders/%d", o.ID)
	return d.store.CreateNotification(ctx, &models.Notification{
		UserID:  o.UserID,
		Message: message,
		Link:    &link,
	})
}

func (d *Dispatcher) email(ctx context.Context, o *models.Order, render func(*models.Order, string) (string, string)) error {
	user, err := d.store.GetUser(ctx, o.UserID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	subject, body := render(o, user.Name)
	return d.mail.Send(ctx, user.Email, subject, body)
}
