package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/payment"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

const defaultPaymentMethod = "PayPal"

// Publisher is the part of *amqp.Channel used to announce finalized orders.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type CheckoutService struct {
	checkoutRepo repository.CheckoutRepository
	carts        *CartService
	provider     payment.Provider
	publisher    Publisher
	validate     *validator.Validate
	log          *slog.Logger
}

// NewCheckoutService accepts a nil provider (no server-side capture) and a
// nil publisher (no order events).
func NewCheckoutService(
	checkoutRepo repository.CheckoutRepository,
	carts *CartService,
	provider payment.Provider,
	publisher Publisher,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		checkoutRepo: checkoutRepo,
		carts:        carts,
		provider:     provider,
		publisher:    publisher,
		validate:     validator.New(),
		log:          log,
	}
}

func (s *CheckoutService) Current(sc *session.Context) *model.Checkout {
	return sc.State().Checkout.Checkout
}

// Create snapshots the session cart into a new checkout. An unpaid checkout
// it replaces is marked abandoned.
func (s *CheckoutService) Create(ctx context.Context, sc *session.Context, shipping model.ShippingAddress, paymentMethod string) (*model.Checkout, error) {
	cart := s.carts.Current(sc)
	if cart.IsEmpty() {
		return nil, fail(sc, state.ScreenCheckout, apperr.Validation("cart is empty"))
	}
	if err := s.validate.Struct(shipping); err != nil {
		return nil, fail(sc, state.ScreenCheckout, apperr.Validation("invalid shipping address: %s", err))
	}
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	if prev := s.Current(sc); prev != nil && model.CanTransitionTo(prev.State, model.CheckoutAbandoned) {
		s.log.Info("abandoning checkout", "session_id", sc.ID, "checkout_id", prev.ID)
		sc.Dispatch(state.CheckoutAbandoned{})
	}

	sc.Dispatch(state.Pending{Screen: state.ScreenCheckout})
	id := sc.Identity()
	checkout, err := s.checkoutRepo.Create(ctx, id.Token, cart.Snapshot(), shipping, paymentMethod, cart.TotalPrice())
	if err != nil {
		if errors.Is(err, apperr.ErrAuth) {
			s.requireLogin(sc)
		}
		return nil, fail(sc, state.ScreenCheckout, err)
	}

	sc.Dispatch(state.CheckoutCreated{Checkout: checkout})
	s.log.Info("checkout created", "session_id", sc.ID, "checkout_id", checkout.ID, "total", checkout.TotalPrice.String())
	return checkout, nil
}

// RecordPayment marks the checkout paid with the provider's details. It is
// never retried automatically.
func (s *CheckoutService) RecordPayment(ctx context.Context, sc *session.Context, checkoutID string, details map[string]any) (*model.Checkout, error) {
	if local := s.local(sc, checkoutID); local != nil {
		if local.IsPaid() {
			return local, nil
		}
		if !model.CanTransitionTo(local.State, model.CheckoutPaid) {
			return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: checkout %s is %s", apperr.ErrPayment, checkoutID, local.State))
		}
	}

	sc.Dispatch(state.Pending{Screen: state.ScreenCheckout})
	checkout, err := s.checkoutRepo.Pay(ctx, sc.Identity().Token, checkoutID, details)
	if err != nil {
		if errors.Is(err, apperr.ErrAuth) {
			s.requireLogin(sc)
			return nil, fail(sc, state.ScreenCheckout, err)
		}
		return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: %w", apperr.ErrPayment, err))
	}
	if !checkout.IsPaid() {
		return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: backend left checkout %s unpaid", apperr.ErrPayment, checkoutID))
	}

	sc.Dispatch(state.CheckoutPaid{Checkout: checkout})
	return checkout, nil
}

// Finalize turns a paid checkout into an order. The local cart is cleared
// here and nowhere else.
func (s *CheckoutService) Finalize(ctx context.Context, sc *session.Context, checkoutID string) (*model.Order, error) {
	if local := s.local(sc, checkoutID); local != nil {
		switch {
		case local.IsFinalized:
			return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: checkout %s already finalized", apperr.ErrFinalization, checkoutID))
		case !local.IsPaid():
			return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: checkout %s is unpaid", apperr.ErrFinalization, checkoutID))
		}
	}

	sc.Dispatch(state.Pending{Screen: state.ScreenCheckout})
	id := sc.Identity()
	order, err := s.checkoutRepo.Finalize(ctx, id.Token, checkoutID)
	if err != nil {
		if errors.Is(err, apperr.ErrAuth) {
			s.requireLogin(sc)
		}
		return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: %w", apperr.ErrFinalization, err))
	}

	sc.Dispatch(state.CheckoutFinalized{Order: order})
	s.log.Info("checkout finalized", "session_id", sc.ID, "checkout_id", checkoutID, "order_id", order.ID)
	s.publish(ctx, id.UserID, checkoutID, order)
	return order, nil
}

// CompletePayment records the payment and finalizes. Finalize is not
// attempted when recording fails.
func (s *CheckoutService) CompletePayment(ctx context.Context, sc *session.Context, checkoutID string, details map[string]any) (*model.Order, error) {
	if _, err := s.RecordPayment(ctx, sc, checkoutID, details); err != nil {
		return nil, err
	}
	return s.Finalize(ctx, sc, checkoutID)
}

// PayWithProvider captures an approved provider order, then completes the
// payment with the capture details.
func (s *CheckoutService) PayWithProvider(ctx context.Context, sc *session.Context, checkoutID, providerOrderID string) (*model.Order, error) {
	if s.provider == nil {
		return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: %w", apperr.ErrPayment, payment.ErrNotConfigured))
	}
	captured, err := s.provider.Capture(ctx, providerOrderID)
	if err != nil {
		s.log.Warn("payment capture failed", "session_id", sc.ID, "checkout_id", checkoutID, "error", err)
		return nil, fail(sc, state.ScreenCheckout, fmt.Errorf("%w: %w", apperr.ErrPayment, err))
	}
	return s.CompletePayment(ctx, sc, checkoutID, paymentDetails(captured))
}

func paymentDetails(d *model.PaymentDetails) map[string]any {
	if len(d.Raw) > 0 {
		return d.Raw
	}
	return map[string]any{
		"id":         d.ProviderOrderID,
		"status":     d.Status,
		"payer":      map[string]any{"email_address": d.PayerEmail},
		"amount":     d.Amount.String(),
		"capturedAt": d.CapturedAt,
	}
}

func (s *CheckoutService) local(sc *session.Context, checkoutID string) *model.Checkout {
	if c := s.Current(sc); c != nil && c.ID == checkoutID {
		return c
	}
	return nil
}

func (s *CheckoutService) requireLogin(sc *session.Context) {
	sc.Dispatch(state.TokenDropped{}, state.Redirected{To: loginForCheckout})
}

func (s *CheckoutService) publish(ctx context.Context, userID, checkoutID string, order *model.Order) {
	if s.publisher == nil {
		return
	}
	count := 0
	for _, it := range order.Items {
		count += it.Quantity
	}
	body, err := json.Marshal(model.OrderMessage{
		OrderID:     order.ID,
		UserID:      userID,
		CheckoutID:  checkoutID,
		TotalPrice:  order.TotalPrice,
		ItemCount:   count,
		FinalizedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("marshal order message", "order_id", order.ID, "error", err)
		return
	}
	err = s.publisher.PublishWithContext(ctx, "", model.OrderFinalizedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Error("publish order finalized", "order_id", order.ID, "error", err)
	}
}
