package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(guestID string) *session.Context {
	return session.NewContext("sess-"+guestID, state.NewMemoryStore(state.State{
		Auth: state.AuthState{GuestID: guestID},
	}), state.NewTracker())
}

func signIn(sc *session.Context, user *model.User, token string) {
	sc.Dispatch(state.AuthSucceeded{User: user, Token: token})
}

// mockBackend is an in-memory stand-in for the REST backend shared by the
// repository mocks below.
type mockBackend struct {
	mu        sync.Mutex
	carts     map[model.OwnerRef]*model.Cart
	versions  map[model.OwnerRef]int
	checkouts map[string]*model.Checkout
	orders    map[string]*model.Order
	users     map[string]*model.User
	passwords map[string]string
	tokens    map[string]string
	calls     map[string]int
	errs      map[string][]error
	seq       int
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		carts:     make(map[model.OwnerRef]*model.Cart),
		versions:  make(map[model.OwnerRef]int),
		checkouts: make(map[string]*model.Checkout),
		orders:    make(map[string]*model.Order),
		users:     make(map[string]*model.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
		calls:     make(map[string]int),
		errs:      make(map[string][]error),
	}
}

// failNext queues err as the result of the next call to op.
func (b *mockBackend) failNext(op string, errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[op] = append(b.errs[op], errs...)
}

func (b *mockBackend) enter(op string) error {
	b.calls[op]++
	if q := b.errs[op]; len(q) > 0 {
		b.errs[op] = q[1:]
		return q[0]
	}
	return nil
}

func (b *mockBackend) callCount(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *mockBackend) nextID(prefix string) string {
	b.seq++
	return prefix + strconv.Itoa(b.seq)
}

func status(code int) error {
	return &apperr.APIError{Status: code, Message: http.StatusText(code)}
}

func (b *mockBackend) addUser(u *model.User, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.Email] = u
	b.passwords[u.Email] = password
	token := "tok-" + u.ID
	b.tokens[token] = u.ID
	return token
}

func (b *mockBackend) cartOf(owner model.OwnerRef) *model.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.carts[owner]; ok {
		return c.Clone()
	}
	return model.NewCart(owner)
}

func (b *mockBackend) seedCart(owner model.OwnerRef, lines ...model.CartLine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := model.NewCart(owner)
	for _, l := range lines {
		c.Add(l)
	}
	b.carts[owner] = c
	b.versions[owner]++
}

// bumpVersion simulates a write from another device.
func (b *mockBackend) bumpVersion(owner model.OwnerRef) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.versions[owner]++
}

func (b *mockBackend) snapshot(owner model.OwnerRef) *model.Cart {
	c, ok := b.carts[owner]
	if !ok {
		c = model.NewCart(owner)
	}
	out := c.Clone()
	out.Version = strconv.Itoa(b.versions[owner])
	return out
}

func (b *mockBackend) checkVersion(owner model.OwnerRef, version string) error {
	if version != "" && version != strconv.Itoa(b.versions[owner]) {
		return status(http.StatusPreconditionFailed)
	}
	return nil
}

func (b *mockBackend) write(owner model.OwnerRef, c *model.Cart) *model.Cart {
	b.carts[owner] = c
	b.versions[owner]++
	return b.snapshot(owner)
}

// --- cart ---

type mockCartRepo struct{ b *mockBackend }

func (m *mockCartRepo) Get(_ context.Context, _ string, owner model.OwnerRef) (*model.Cart, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("cart.get"); err != nil {
		return nil, err
	}
	return m.b.snapshot(owner), nil
}

func (m *mockCartRepo) Add(_ context.Context, _ string, owner model.OwnerRef, line model.CartLine, version string) (*model.Cart, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("cart.add"); err != nil {
		return nil, err
	}
	if err := m.b.checkVersion(owner, version); err != nil {
		return nil, err
	}
	c := m.b.snapshot(owner)
	c.Add(line)
	return m.b.write(owner, c), nil
}

func (m *mockCartRepo) Update(_ context.Context, _ string, owner model.OwnerRef, key model.LineKey, quantity int, version string) (*model.Cart, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("cart.update"); err != nil {
		return nil, err
	}
	if err := m.b.checkVersion(owner, version); err != nil {
		return nil, err
	}
	c := m.b.snapshot(owner)
	if !c.SetQuantity(key, quantity) {
		return nil, status(http.StatusNotFound)
	}
	return m.b.write(owner, c), nil
}

func (m *mockCartRepo) Remove(_ context.Context, _ string, owner model.OwnerRef, key model.LineKey, version string) (*model.Cart, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("cart.remove"); err != nil {
		return nil, err
	}
	if err := m.b.checkVersion(owner, version); err != nil {
		return nil, err
	}
	c := m.b.snapshot(owner)
	if !c.Remove(key) {
		return nil, status(http.StatusNotFound)
	}
	return m.b.write(owner, c), nil
}

func (m *mockCartRepo) Merge(_ context.Context, _ string, guestID, userID, version string) (*model.Cart, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("cart.merge"); err != nil {
		return nil, err
	}
	user := model.UserOwner(userID)
	if err := m.b.checkVersion(user, version); err != nil {
		return nil, err
	}
	guest := model.GuestOwner(guestID)
	c := m.b.snapshot(user)
	c.Merge(m.b.carts[guest])
	delete(m.b.carts, guest)
	return m.b.write(user, c), nil
}

// --- checkout ---

type mockCheckoutRepo struct{ b *mockBackend }

func (m *mockCheckoutRepo) userFor(token string) (string, error) {
	userID, ok := m.b.tokens[token]
	if !ok {
		return "", status(http.StatusUnauthorized)
	}
	return userID, nil
}

func (m *mockCheckoutRepo) Create(_ context.Context, token string, items []model.CheckoutItem, shipping model.ShippingAddress, method string, total decimal.Decimal) (*model.Checkout, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("checkout.create"); err != nil {
		return nil, err
	}
	if _, err := m.userFor(token); err != nil {
		return nil, err
	}
	c := &model.Checkout{
		ID:              m.b.nextID("chk"),
		Items:           items,
		ShippingAddress: shipping,
		PaymentMethod:   method,
		TotalPrice:      total,
		PaymentStatus:   model.PaymentUnpaid,
		State:           model.CheckoutCreated,
		CreatedAt:       time.Now(),
	}
	m.b.checkouts[c.ID] = c
	out := *c
	return &out, nil
}

func (m *mockCheckoutRepo) Pay(_ context.Context, token, id string, details map[string]any) (*model.Checkout, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("checkout.pay"); err != nil {
		return nil, err
	}
	if _, err := m.userFor(token); err != nil {
		return nil, err
	}
	c, ok := m.b.checkouts[id]
	if !ok {
		return nil, status(http.StatusNotFound)
	}
	if err := c.Transition(model.CheckoutPaid); err != nil {
		return nil, status(http.StatusBadRequest)
	}
	c.PaymentDetails = &model.PaymentDetails{Raw: details}
	out := *c
	return &out, nil
}

func (m *mockCheckoutRepo) Finalize(_ context.Context, token, id string) (*model.Order, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("checkout.finalize"); err != nil {
		return nil, err
	}
	userID, err := m.userFor(token)
	if err != nil {
		return nil, err
	}
	c, ok := m.b.checkouts[id]
	if !ok {
		return nil, status(http.StatusNotFound)
	}
	if err := c.Transition(model.CheckoutFinalized); err != nil {
		return nil, status(http.StatusBadRequest)
	}
	order := &model.Order{
		ID:              m.b.nextID("ord"),
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
		TotalPrice:      c.TotalPrice,
		IsPaid:          true,
		Status:          model.OrderStatusProcessing,
		User:            &model.User{ID: userID},
		CreatedAt:       time.Now(),
	}
	for _, it := range c.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity,
			Size: it.Size, Color: it.Color,
		})
	}
	m.b.orders[order.ID] = order
	user := model.UserOwner(userID)
	m.b.write(user, model.NewCart(user))
	out := *order
	return &out, nil
}

// --- auth ---

type mockAuthRepo struct{ b *mockBackend }

func (m *mockAuthRepo) Login(_ context.Context, email, password string) (*model.User, string, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("auth.login"); err != nil {
		return nil, "", err
	}
	u, ok := m.b.users[email]
	if !ok || m.b.passwords[email] != password {
		return nil, "", status(http.StatusBadRequest)
	}
	out := *u
	return &out, "tok-" + u.ID, nil
}

func (m *mockAuthRepo) Register(_ context.Context, name, email, password string) (*model.User, string, error) {
	m.b.mu.Lock()
	if err := m.b.enter("auth.register"); err != nil {
		m.b.mu.Unlock()
		return nil, "", err
	}
	if _, exists := m.b.users[email]; exists {
		m.b.mu.Unlock()
		return nil, "", status(http.StatusBadRequest)
	}
	u := &model.User{ID: m.b.nextID("u"), Name: name, Email: email, Role: model.RoleCustomer}
	m.b.mu.Unlock()

	token := m.b.addUser(u, password)
	out := *u
	return &out, token, nil
}

// --- orders ---

type mockOrderRepo struct{ b *mockBackend }

func (m *mockOrderRepo) ListMine(_ context.Context, token string) ([]model.Order, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("orders.mine"); err != nil {
		return nil, err
	}
	userID := m.b.tokens[token]
	var out []model.Order
	for _, o := range m.b.orders {
		if o.User != nil && o.User.ID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string, id string) (*model.Order, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("orders.get"); err != nil {
		return nil, err
	}
	o, ok := m.b.orders[id]
	if !ok {
		return nil, nil
	}
	out := *o
	return &out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context, _ string) ([]model.Order, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("orders.all"); err != nil {
		return nil, err
	}
	var out []model.Order
	for _, o := range m.b.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, id string, st model.OrderStatus) (*model.Order, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("orders.status"); err != nil {
		return nil, err
	}
	o, ok := m.b.orders[id]
	if !ok {
		return nil, status(http.StatusNotFound)
	}
	o.Status = st
	out := *o
	return &out, nil
}

func (m *mockOrderRepo) Delete(_ context.Context, _ string, id string) error {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	if err := m.b.enter("orders.delete"); err != nil {
		return err
	}
	delete(m.b.orders, id)
	return nil
}

// --- products ---

type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
	arrivals []model.Product
	calls    map[string]int
	errs     map[string]error
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products: make(map[string]*model.Product),
		calls:    make(map[string]int),
		errs:     make(map[string]error),
	}
}

func (m *mockProductRepo) hit(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.errs[op]
}

func (m *mockProductRepo) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockProductRepo) List(_ context.Context, f model.ProductFilter) ([]model.Product, error) {
	if err := m.hit("list"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		if f.Category == "" || p.Category == f.Category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	if err := m.hit("get"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (m *mockProductRepo) Similar(_ context.Context, id string) ([]model.Product, error) {
	if err := m.hit("similar"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *mockProductRepo) BestSeller(_ context.Context) (*model.Product, error) {
	if err := m.hit("bestseller"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *mockProductRepo) NewArrivals(_ context.Context) ([]model.Product, error) {
	if err := m.hit("arrivals"); err != nil {
		return nil, err
	}
	return append([]model.Product(nil), m.arrivals...), nil
}

func (m *mockProductRepo) ListAdmin(_ context.Context, _ string) ([]model.Product, error) {
	if err := m.hit("admin.list"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ string, p *model.Product) (*model.Product, error) {
	if err := m.hit("admin.create"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *p
	out.ID = fmt.Sprintf("p%d", len(m.products)+1)
	m.products[out.ID] = &out
	return &out, nil
}

func (m *mockProductRepo) Update(_ context.Context, _ string, p *model.Product) (*model.Product, error) {
	if err := m.hit("admin.update"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *p
	m.products[p.ID] = &out
	return &out, nil
}

func (m *mockProductRepo) Delete(_ context.Context, _ string, id string) error {
	if err := m.hit("admin.delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

// --- users & uploads ---

type mockUserRepo struct {
	users map[string]*model.User
	calls int
}

func (m *mockUserRepo) List(_ context.Context, _ string) ([]model.User, error) {
	m.calls++
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ string, u *model.User, _ string) (*model.User, error) {
	m.calls++
	out := *u
	out.ID = fmt.Sprintf("u%d", len(m.users)+1)
	m.users[out.ID] = &out
	return &out, nil
}

func (m *mockUserRepo) Update(_ context.Context, _ string, u *model.User) (*model.User, error) {
	m.calls++
	out := *u
	m.users[u.ID] = &out
	return &out, nil
}

func (m *mockUserRepo) Delete(_ context.Context, _ string, id string) error {
	m.calls++
	delete(m.users, id)
	return nil
}

type mockUploadRepo struct{ calls int }

func (m *mockUploadRepo) UploadImage(_ context.Context, _ string, filename string, _ io.Reader) (string, error) {
	m.calls++
	return "https://cdn.example.com/" + filename, nil
}

// --- payment & messaging ---

type mockProvider struct {
	details *model.PaymentDetails
	err     error
	calls   int
}

func (m *mockProvider) Capture(_ context.Context, orderID string) (*model.PaymentDetails, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	d := *m.details
	d.ProviderOrderID = orderID
	return &d, nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []amqp.Publishing
	keys     []string
}

func (m *mockPublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	m.messages = append(m.messages, msg)
	return nil
}
