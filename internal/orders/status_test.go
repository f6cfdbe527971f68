package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
)

func placeOne(t *testing.T, f *fixture, in PlaceOrderInput) *models.Order {
	t.Helper()
	ctx := context.Background()
	meal := f.meal(t, "poke-"+string(in.PaymentMethod), "5", "", 10)
	_, err := f.carts.AddItem(ctx, f.user.ID, meal.ID, 1)
	require.NoError(t, err)
	o, err := f.svc.PlaceOrder(ctx, f.user.ID, in)
	require.NoError(t, err)
	return o
}

func TestAdvanceStatus_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, pickupCash)

	steps := []models.OrderStatus{
		models.OrderProcessing,
		models.OrderShipping,
		models.OrderOutForDelivery,
		models.OrderDelivered,
	}
	for i, next := range steps {
		got, err := f.svc.AdvanceStatus(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
		assert.Equal(t, i+2, got.Status.Position())
	}

	tracking, err := f.svc.Track(ctx, f.user.ID, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, 5, tracking.Position)
	assert.NotNil(t, tracking.PlacedAt)
	assert.NotNil(t, tracking.ProcessingAt)
	assert.NotNil(t, tracking.ShippingAt)
	assert.NotNil(t, tracking.OutForDeliveryAt)
	assert.NotNil(t, tracking.DeliveredAt)
	assert.Nil(t, tracking.CancelledAt)
	assert.Equal(t, steps, f.notifier.changed)

	_, err = f.svc.AdvanceStatus(ctx, o.ID, models.OrderCancelled)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err), "delivered is terminal")
}

func TestAdvanceStatus_RejectsSkipsAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, pickupCash)

	_, err := f.svc.AdvanceStatus(ctx, o.ID, models.OrderShipping)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	_, err = f.svc.AdvanceStatus(ctx, o.ID, models.OrderPlaced)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	_, err = f.svc.AdvanceStatus(ctx, o.ID, "lost")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.AdvanceStatus(ctx, 999, models.OrderProcessing)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdvanceStatus_CancelRefundsCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, cardInput())

	got, err := f.svc.AdvanceStatus(ctx, o.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, []string{"pi_test"}, f.gateway.refunds)

	tracking, err := f.svc.Track(ctx, f.user.ID, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, 0, tracking.Position)
	assert.NotNil(t, tracking.CancelledAt)
}

func TestAdvanceStatus_ConcurrentCancelRefundsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, cardInput())
	_, err := f.svc.AdvanceStatus(ctx, o.ID, models.OrderProcessing)
	require.NoError(t, err)

	const admins = 8
	errs := make([]error, admins)
	var wg sync.WaitGroup
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AdvanceStatus(ctx, o.ID, models.OrderCancelled)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, []string{"pi_test"}, f.gateway.refunds)

	stored, err := f.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, stored.Status)
	assert.Equal(t, models.PaymentRefunded, stored.PaymentStatus)
}

func TestAdvanceStatus_ConcurrentAdvanceAppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, pickupCash)

	const admins = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.AdvanceStatus(ctx, o.ID, models.OrderProcessing); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, []models.OrderStatus{models.OrderProcessing}, f.notifier.changed)
}

func TestAdvanceStatus_FailedRefundKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, cardInput())
	f.gateway.refundErr = errors.New("stripe down")

	_, err := f.svc.AdvanceStatus(ctx, o.ID, models.OrderCancelled)
	require.Error(t, err)

	stored, err := f.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, stored.Status)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.Nil(t, stored.CancelledAt)
	assert.Empty(t, f.notifier.changed)
}

func TestQueries_OwnerChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := placeOne(t, f, pickupCash)
	stranger := f.user.ID + 1

	_, err := f.svc.Get(ctx, stranger, o.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Track(ctx, stranger, o.OrderNumber)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Track(ctx, f.user.ID, "ORD-NOPE")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Track(ctx, f.user.ID, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	first := placeOne(t, f, pickupCash)
	second := placeOne(t, f, cardInput())

	list, err := f.svc.List(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
