// Package state is the client-side state container: a single State value
// changed only by dispatching actions through Reduce.
package state

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Screen names a slice of state that has its own load status.
type Screen string

const (
	ScreenAuth     Screen = "auth"
	ScreenCart     Screen = "cart"
	ScreenCheckout Screen = "checkout"
	ScreenOrders   Screen = "orders"
	ScreenOrder    Screen = "order"
	ScreenProducts Screen = "products"
	ScreenProduct  Screen = "product"
	ScreenAdmin    Screen = "admin"
)

type Load struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type AuthState struct {
	User    *model.User `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
	GuestID string      `json:"guest_id"`
	Load
}

type CartState struct {
	Cart *model.Cart `json:"cart,omitempty"`
	Load
}

type CheckoutState struct {
	Checkout *model.Checkout `json:"checkout,omitempty"`
	Load
}

type OrdersState struct {
	Orders   []model.Order `json:"orders,omitempty"`
	Selected *model.Order  `json:"selected,omitempty"`
	Detail   Load          `json:"detail"`
	Load
}

type ProductsState struct {
	Products []model.Product     `json:"products,omitempty"`
	Filter   model.ProductFilter `json:"filter"`
	Selected *model.Product      `json:"selected,omitempty"`
	Similar  []model.Product     `json:"similar,omitempty"`
	Detail   Load                `json:"detail"`
	Load
}

type AdminState struct {
	Products []model.Product `json:"products,omitempty"`
	Orders   []model.Order   `json:"orders,omitempty"`
	Users    []model.User    `json:"users,omitempty"`

	// Dashboard totals over Orders.
	TotalOrders int             `json:"total_orders"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	Load
}

func (a *AdminState) tally() {
	a.TotalOrders = len(a.Orders)
	a.TotalSales = decimal.Zero
	for _, o := range a.Orders {
		a.TotalSales = a.TotalSales.Add(o.TotalPrice)
	}
}

type State struct {
	Auth     AuthState     `json:"auth"`
	Cart     CartState     `json:"cart"`
	Checkout CheckoutState `json:"checkout"`
	Orders   OrdersState   `json:"orders"`
	Products ProductsState `json:"products"`
	Admin    AdminState    `json:"admin"`
	// Redirect is a navigation the UI should perform next, e.g. to login.
	Redirect string `json:"redirect,omitempty"`
}

// Owner is the cart scope implied by the current authentication.
func (s State) Owner() model.OwnerRef {
	if s.Auth.User != nil && s.Auth.User.ID != "" {
		return model.UserOwner(s.Auth.User.ID)
	}
	return model.GuestOwner(s.Auth.GuestID)
}

func (s State) IsAuthenticated() bool {
	return s.Auth.User != nil && s.Auth.Token != ""
}

// Loads returns the load status of a screen.
func (s State) Loads(screen Screen) Load {
	switch screen {
	case ScreenAuth:
		return s.Auth.Load
	case ScreenCart:
		return s.Cart.Load
	case ScreenCheckout:
		return s.Checkout.Load
	case ScreenOrders:
		return s.Orders.Load
	case ScreenOrder:
		return s.Orders.Detail
	case ScreenProducts:
		return s.Products.Load
	case ScreenProduct:
		return s.Products.Detail
	case ScreenAdmin:
		return s.Admin.Load
	}
	return Load{Status: StatusIdle}
}

func (s *State) setLoad(screen Screen, l Load) {
	switch screen {
	case ScreenAuth:
		s.Auth.Load = l
	case ScreenCart:
		s.Cart.Load = l
	case ScreenCheckout:
		s.Checkout.Load = l
	case ScreenOrders:
		s.Orders.Load = l
	case ScreenOrder:
		s.Orders.Detail = l
	case ScreenProducts:
		s.Products.Load = l
	case ScreenProduct:
		s.Products.Detail = l
	case ScreenAdmin:
		s.Admin.Load = l
	}
}
