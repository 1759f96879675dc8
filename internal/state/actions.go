package state

import "github.com/flicky/go-storefront/internal/model"

// Action is anything Reduce knows how to apply.
type Action interface {
	isAction()
}

// Persistent reports whether a belongs in a session's saved history. Pending
// only describes a call still in flight in one request.
func Persistent(a Action) bool {
	_, inFlight := a.(Pending)
	return !inFlight
}

type (
	Pending struct{ Screen Screen }
	Failed  struct {
		Screen Screen
		Err    string
	}

	GuestIssued   struct{ GuestID string }
	AuthSucceeded struct {
		User  *model.User
		Token string
	}
	// TokenDropped forgets a token the backend rejected.
	TokenDropped struct{}
	LoggedOut    struct{ GuestID string }

	CartLoaded  struct{ Cart *model.Cart }
	CartCleared struct{}

	CheckoutCreated   struct{ Checkout *model.Checkout }
	CheckoutPaid      struct{ Checkout *model.Checkout }
	CheckoutFinalized struct{ Order *model.Order }
	CheckoutAbandoned struct{}

	OrdersLoaded struct{ Orders []model.Order }
	OrderLoaded  struct{ Order *model.Order }

	ProductsLoaded struct {
		Products []model.Product
		Filter   model.ProductFilter
	}
	ProductLoaded struct{ Product *model.Product }
	SimilarLoaded struct{ Products []model.Product }

	AdminProductsLoaded struct{ Products []model.Product }
	AdminProductSaved   struct{ Product model.Product }
	AdminProductDeleted struct{ ID string }
	AdminOrdersLoaded   struct{ Orders []model.Order }
	AdminOrderSaved     struct{ Order model.Order }
	AdminOrderDeleted   struct{ ID string }
	AdminUsersLoaded    struct{ Users []model.User }
	AdminUserSaved      struct{ User model.User }
	AdminUserDeleted    struct{ ID string }

	Redirected       struct{ To string }
	RedirectConsumed struct{}
)

func (Pending) isAction()             {}
func (Failed) isAction()              {}
func (GuestIssued) isAction()         {}
func (AuthSucceeded) isAction()       {}
func (TokenDropped) isAction()        {}
func (LoggedOut) isAction()           {}
func (CartLoaded) isAction()          {}
func (CartCleared) isAction()         {}
func (CheckoutCreated) isAction()     {}
func (CheckoutPaid) isAction()        {}
func (CheckoutFinalized) isAction()   {}
func (CheckoutAbandoned) isAction()   {}
func (OrdersLoaded) isAction()        {}
func (OrderLoaded) isAction()         {}
func (ProductsLoaded) isAction()      {}
func (ProductLoaded) isAction()       {}
func (SimilarLoaded) isAction()       {}
func (AdminProductsLoaded) isAction() {}
func (AdminProductSaved) isAction()   {}
func (AdminProductDeleted) isAction() {}
func (AdminOrdersLoaded) isAction()   {}
func (AdminOrderSaved) isAction()     {}
func (AdminOrderDeleted) isAction()   {}
func (AdminUsersLoaded) isAction()    {}
func (AdminUserSaved) isAction()      {}
func (AdminUserDeleted) isAction()    {}
func (Redirected) isAction()          {}
func (RedirectConsumed) isAction()    {}
