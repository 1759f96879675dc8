package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/state"
)

var shipTo = model.ShippingAddress{
	FirstName: "Ann", LastName: "Lee", Address: "1 Main St", City: "Nairobi",
	PostalCode: "00100", Country: "Kenya", Phone: "+254700000000",
}

type checkoutFixture struct {
	b         *mockBackend
	carts     *CartService
	auth      *AuthService
	checkout  *CheckoutService
	provider  *mockProvider
	publisher *mockPublisher
}

func newCheckoutFixture() *checkoutFixture {
	b := newMockBackend()
	carts := newCartService(b)
	provider := &mockProvider{details: &model.PaymentDetails{Status: "COMPLETED", Amount: decimal.NewFromInt(2000)}}
	publisher := &mockPublisher{}
	return &checkoutFixture{
		b:         b,
		carts:     carts,
		auth:      NewAuthService(&mockAuthRepo{b: b}, carts, testLogger()),
		checkout:  NewCheckoutService(&mockCheckoutRepo{b: b}, carts, provider, publisher, testLogger()),
		provider:  provider,
		publisher: publisher,
	}
}

func TestCheckout_GuestToOrderEndToEnd(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	sc := newSession("guest_1")

	_, err := f.carts.AddItem(ctx, sc, bag(2))
	require.NoError(t, err)

	user, err := f.auth.Register(ctx, sc, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	userCart := sc.State().Cart.Cart
	assert.Equal(t, model.UserOwner(user.ID), userCart.Owner)
	require.Len(t, userCart.Lines, 1)
	assert.Equal(t, 2, userCart.Lines[0].Quantity)

	checkout, err := f.checkout.Create(ctx, sc, shipTo, "")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(checkout.TotalPrice))
	assert.Equal(t, model.CheckoutCreated, checkout.State)
	assert.Equal(t, "PayPal", checkout.PaymentMethod)

	paid, err := f.checkout.RecordPayment(ctx, sc, checkout.ID, map[string]any{"id": "PAY-1", "status": "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid())

	order, err := f.checkout.Finalize(ctx, sc, checkout.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.True(t, sc.State().Cart.Cart.IsEmpty())
	assert.True(t, f.b.cartOf(model.UserOwner(user.ID)).IsEmpty())
	assert.True(t, sc.State().Checkout.Checkout.IsFinalized)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, model.OrderFinalizedQueue, f.publisher.keys[0])
	var msg model.OrderMessage
	require.NoError(t, json.Unmarshal(f.publisher.messages[0].Body, &msg))
	assert.Equal(t, order.ID, msg.OrderID)
	assert.Equal(t, user.ID, msg.UserID)
	assert.Equal(t, 2, msg.ItemCount)
}

func TestCheckout_CreateOnEmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	sc := newSession("guest_1")
	signIn(sc, &model.User{ID: "u1"}, f.b.addUser(&model.User{ID: "u1", Email: "a@x.io"}, "pw"))

	checkout, err := f.checkout.Create(context.Background(), sc, shipTo, "PayPal")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Nil(t, checkout)
	assert.Nil(t, f.checkout.Current(sc))
	assert.Equal(t, 0, f.b.callCount("checkout.create"))
	assert.Empty(t, f.b.checkouts)
}

func TestCheckout_CreateRejectsIncompleteAddress(t *testing.T) {
	f := newCheckoutFixture()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(context.Background(), sc, bag(1))
	require.NoError(t, err)

	partial := shipTo
	partial.Phone = ""
	_, err = f.checkout.Create(context.Background(), sc, partial, "PayPal")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.b.callCount("checkout.create"))
}

func TestCheckout_CreateUnauthorizedRedirectsToLogin(t *testing.T) {
	f := newCheckoutFixture()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(context.Background(), sc, bag(1))
	require.NoError(t, err)

	_, err = f.checkout.Create(context.Background(), sc, shipTo, "PayPal")
	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, "/login?redirect=checkout", sc.State().Redirect)
}

func TestCheckout_PaymentUnauthorizedNeverFinalizes(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(ctx, sc, bag(2))
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, sc, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	checkout, err := f.checkout.Create(ctx, sc, shipTo, "PayPal")
	require.NoError(t, err)

	f.b.failNext("checkout.pay", status(401))
	_, err = f.checkout.CompletePayment(ctx, sc, checkout.ID, map[string]any{"id": "PAY-1"})

	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, 0, f.b.callCount("checkout.finalize"))
	assert.Equal(t, "/login?redirect=checkout", sc.State().Redirect)
	assert.False(t, sc.State().IsAuthenticated())
	assert.False(t, sc.State().Cart.Cart.IsEmpty())
}

func TestCheckout_PaymentFailureIsPaymentError(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(ctx, sc, bag(1))
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, sc, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	checkout, err := f.checkout.Create(ctx, sc, shipTo, "PayPal")
	require.NoError(t, err)

	f.b.failNext("checkout.pay", apperr.ErrNetwork)
	_, err = f.checkout.RecordPayment(ctx, sc, checkout.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrPayment)
	assert.False(t, apperr.Retryable(err))
	assert.Equal(t, 1, f.b.callCount("checkout.pay"))
	assert.Equal(t, state.StatusFailed, sc.State().Checkout.Status)
}

func TestCheckout_FinalizeUnpaidFailsWithoutCall(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(ctx, sc, bag(1))
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, sc, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	checkout, err := f.checkout.Create(ctx, sc, shipTo, "PayPal")
	require.NoError(t, err)

	_, err = f.checkout.Finalize(ctx, sc, checkout.ID)
	assert.ErrorIs(t, err, apperr.ErrFinalization)
	assert.Equal(t, 0, f.b.callCount("checkout.finalize"))
	assert.False(t, sc.State().Cart.Cart.IsEmpty())
}

func TestCheckout_FinalizeBackendRejection(t *testing.T) {
	f := newCheckoutFixture()
	sc := newSession("guest_1")
	signIn(sc, &model.User{ID: "u1"}, f.b.addUser(&model.User{ID: "u1", Email: "a@x.io"}, "pw"))
	f.b.failNext("checkout.finalize", status(400))

	_, err := f.checkout.Finalize(context.Background(), sc, "unknown-locally")
	assert.ErrorIs(t, err, apperr.ErrFinalization)
	assert.Equal(t, 1, f.b.callCount("checkout.finalize"))
}

func TestCheckout_PayWithProvider(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(ctx, sc, bag(2))
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, sc, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	checkout, err := f.checkout.Create(ctx, sc, shipTo, "PayPal")
	require.NoError(t, err)

	order, err := f.checkout.PayWithProvider(ctx, sc, checkout.ID, "PP-ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.provider.calls)
	assert.NotEmpty(t, order.ID)
	details := f.b.checkouts[checkout.ID].PaymentDetails.Raw
	assert.Equal(t, "PP-ORDER-1", details["id"])
}

func TestCheckout_ProviderFailureStopsBeforeRecording(t *testing.T) {
	f := newCheckoutFixture()
	f.provider.err = errors.New("INSTRUMENT_DECLINED")
	sc := newSession("guest_1")

	_, err := f.checkout.PayWithProvider(context.Background(), sc, "chk1", "PP-ORDER-1")
	assert.ErrorIs(t, err, apperr.ErrPayment)
	assert.Equal(t, 0, f.b.callCount("checkout.pay"))
	assert.Equal(t, 0, f.b.callCount("checkout.finalize"))
}

func TestCheckout_NewCheckoutAbandonsUnpaidOne(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	sc := newSession("guest_1")
	_, err := f.carts.AddItem(ctx, sc, bag(1))
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, sc, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	first, err := f.checkout.Create(ctx, sc, shipTo, "PayPal")
	require.NoError(t, err)
	second, err := f.checkout.Create(ctx, sc, shipTo, "PayPal")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second.ID, f.checkout.Current(sc).ID)

	_, err = f.checkout.RecordPayment(ctx, sc, second.ID, nil)
	require.NoError(t, err)
}
