package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/state"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newResolver(client *redis.Client) *Resolver {
	return NewResolver(NewRedisStore(client, time.Hour), state.NewTracker(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseClaims_TopLevelAndNested(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	c, err := ParseClaims(signToken(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": exp.Unix()}))
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Subject)
	assert.Equal(t, "admin", c.Role)
	assert.True(t, exp.Equal(c.ExpiresAt))

	c, err = ParseClaims(signToken(t, jwt.MapClaims{"user": map[string]any{"id": "u2", "role": "customer"}}))
	require.NoError(t, err)
	assert.Equal(t, "u2", c.Subject)
	assert.Equal(t, "customer", c.Role)
	assert.True(t, c.ExpiresAt.IsZero())

	_, err = ParseClaims("not-a-token")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestIdentityFromState(t *testing.T) {
	guest := IdentityFromState(state.State{Auth: state.AuthState{GuestID: "guest_1"}})
	assert.True(t, guest.IsGuest())
	assert.Equal(t, model.GuestOwner("guest_1"), guest.Owner())

	token := signToken(t, jwt.MapClaims{"sub": "u1", "role": "admin"})
	user := IdentityFromState(state.State{Auth: state.AuthState{
		GuestID: "guest_1",
		User:    &model.User{ID: "u1"},
		Token:   token,
	}})
	assert.False(t, user.IsGuest())
	assert.True(t, user.IsAdmin())
	assert.Equal(t, model.UserOwner("u1"), user.Owner())
}

func TestResolver_OpenNewSessionIssuesGuest(t *testing.T) {
	_, client := setupRedis(t)
	r := newResolver(client)

	sc, err := r.Open(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, sc.ID)
	assert.True(t, strings.HasPrefix(sc.State().Auth.GuestID, "guest_"))
	assert.True(t, sc.Identity().IsGuest())
}

func TestResolver_SaveAndReopen(t *testing.T) {
	mr, client := setupRedis(t)
	r := newResolver(client)

	sc, err := r.Open(context.Background(), "")
	require.NoError(t, err)
	guestID := sc.State().Auth.GuestID
	require.NoError(t, r.Save(context.Background(), sc))
	assert.True(t, mr.Exists("session:"+sc.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sc.ID))

	again, err := r.Open(context.Background(), sc.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, again.ID)
	assert.Equal(t, guestID, again.State().Auth.GuestID)
}

func TestResolver_UnknownIDStartsFresh(t *testing.T) {
	_, client := setupRedis(t)
	sc, err := newResolver(client).Open(context.Background(), "gone")
	require.NoError(t, err)
	assert.NotEqual(t, "gone", sc.ID)
}

func TestResolver_DropsExpiredToken(t *testing.T) {
	_, client := setupRedis(t)
	r := newResolver(client)
	store := NewRedisStore(client, time.Hour)

	expired := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	_, err := store.Apply(context.Background(), "s1", state.State{}, []state.Action{
		state.GuestIssued{GuestID: "guest_1"},
		state.AuthSucceeded{User: &model.User{ID: "u1"}, Token: expired},
	})
	require.NoError(t, err)

	sc, err := r.Open(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, sc.State().IsAuthenticated())
	assert.Equal(t, "guest_1", sc.State().Auth.GuestID)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, time.Minute)
	_, err := store.Apply(context.Background(), "s1", state.State{}, []state.Action{state.GuestIssued{GuestID: "guest_1"}})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContext_BeginScopesBySession(t *testing.T) {
	tracker := state.NewTracker()
	a := NewContext("a", state.NewMemoryStore(state.State{}), tracker)
	b := NewContext("b", state.NewMemoryStore(state.State{}), tracker)

	_, tokA := a.Begin(context.Background(), "orders")
	_, tokB := b.Begin(context.Background(), "orders")
	assert.True(t, tokA.Valid())
	assert.True(t, tokB.Valid())

	_, tokA2 := a.Begin(context.Background(), "orders")
	assert.False(t, tokA.Valid())
	assert.True(t, tokA2.Valid())
	assert.True(t, tokB.Valid())
}

func TestResolver_OverlappingRequestsKeepEachOthersWrites(t *testing.T) {
	_, client := setupRedis(t)
	r := newResolver(client)
	ctx := context.Background()

	sc, err := r.Open(ctx, "")
	require.NoError(t, err)
	cart := model.NewCart(model.GuestOwner(sc.State().Auth.GuestID))
	cart.Lines = []model.CartLine{{ProductID: "P1", Size: "M", Color: "Black", Quantity: 1, Price: decimal.NewFromInt(1000)}}
	sc.Dispatch(
		state.CartLoaded{Cart: cart},
		state.CheckoutCreated{Checkout: &model.Checkout{ID: "ch1", State: model.CheckoutCreated, PaymentStatus: model.PaymentUnpaid}},
	)
	require.NoError(t, r.Save(ctx, sc))

	pay, err := r.Open(ctx, sc.ID)
	require.NoError(t, err)
	browse, err := r.Open(ctx, sc.ID)
	require.NoError(t, err)

	pay.Dispatch(state.CheckoutFinalized{Order: &model.Order{ID: "o1"}})
	require.NoError(t, r.Save(ctx, pay))

	browse.Dispatch(state.Pending{Screen: state.ScreenProducts}, state.ProductsLoaded{Products: []model.Product{{ID: "P1"}}})
	require.NoError(t, r.Save(ctx, browse))

	got, err := r.Open(ctx, sc.ID)
	require.NoError(t, err)
	st := got.State()
	assert.True(t, st.Cart.Cart.IsEmpty())
	require.NotNil(t, st.Checkout.Checkout)
	assert.Equal(t, model.CheckoutFinalized, st.Checkout.Checkout.State)
	assert.Equal(t, "o1", st.Orders.Selected.ID)
	require.Len(t, st.Products.Products, 1)
	assert.Equal(t, state.StatusSucceeded, st.Products.Load.Status)
}

func TestResolver_SupersededReadDoesNotResetStatus(t *testing.T) {
	mr, client := setupRedis(t)
	r := newResolver(client)
	ctx := context.Background()

	sc, err := r.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, sc))

	older, err := r.Open(ctx, sc.ID)
	require.NoError(t, err)
	newer, err := r.Open(ctx, sc.ID)
	require.NoError(t, err)

	older.Dispatch(state.Pending{Screen: state.ScreenOrders})
	newer.Dispatch(state.Pending{Screen: state.ScreenOrders}, state.OrdersLoaded{Orders: []model.Order{{ID: "o1"}}})
	require.NoError(t, r.Save(ctx, newer))

	assert.Empty(t, older.Journal())
	mr.FastForward(30 * time.Minute)
	require.NoError(t, r.Save(ctx, older))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sc.ID))

	got, err := r.Open(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSucceeded, got.State().Orders.Load.Status)
	require.Len(t, got.State().Orders.Orders, 1)
}

func TestRedisStore_ConcurrentAppliesAllLand(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	const writers = 4
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Apply(ctx, "s1", state.State{}, []state.Action{
				state.AdminProductSaved{Product: model.Product{ID: fmt.Sprintf("P%d", i)}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	st, ok, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, st.Admin.Products, writers)
}
