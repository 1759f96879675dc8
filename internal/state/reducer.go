package state

import (
	"slices"

	"github.com/flicky/go-storefront/internal/model"
)

var succeeded = Load{Status: StatusSucceeded}

// Reduce returns the state after applying a. Unknown actions leave s as is.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Pending:
		s.setLoad(a.Screen, Load{Status: StatusLoading})
	case Failed:
		s.setLoad(a.Screen, Load{Status: StatusFailed, Error: a.Err})

	case GuestIssued:
		s.Auth.GuestID = a.GuestID
	case AuthSucceeded:
		s.Auth.User = a.User
		s.Auth.Token = a.Token
		s.Auth.Load = succeeded
	case TokenDropped:
		s.Auth.User = nil
		s.Auth.Token = ""
	case LoggedOut:
		s.Auth = AuthState{GuestID: a.GuestID, Load: Load{Status: StatusIdle}}
		s.Cart = CartState{Cart: model.NewCart(model.GuestOwner(a.GuestID)), Load: Load{Status: StatusIdle}}
		s.Checkout = CheckoutState{Load: Load{Status: StatusIdle}}
		s.Orders = OrdersState{Load: Load{Status: StatusIdle}, Detail: Load{Status: StatusIdle}}
		s.Admin = AdminState{Load: Load{Status: StatusIdle}}

	case CartLoaded:
		s.Cart.Cart = a.Cart.Clone()
		s.Cart.Load = succeeded
	case CartCleared:
		s.Cart.Cart = model.NewCart(s.Owner())
		s.Cart.Load = succeeded

	case CheckoutCreated:
		s.Checkout.Checkout = a.Checkout
		s.Checkout.Load = succeeded
	case CheckoutPaid:
		s.Checkout.Checkout = a.Checkout
		s.Checkout.Load = succeeded
	case CheckoutFinalized:
		if c := s.Checkout.Checkout; c != nil {
			done := *c
			done.State = model.CheckoutFinalized
			done.IsFinalized = true
			s.Checkout.Checkout = &done
		}
		s.Checkout.Load = succeeded
		s.Cart.Cart = model.NewCart(s.Owner())
		s.Orders.Selected = a.Order
	case CheckoutAbandoned:
		if c := s.Checkout.Checkout; c != nil && model.CanTransitionTo(c.State, model.CheckoutAbandoned) {
			abandoned := *c
			abandoned.State = model.CheckoutAbandoned
			s.Checkout.Checkout = &abandoned
		}

	case OrdersLoaded:
		s.Orders.Orders = a.Orders
		s.Orders.Load = succeeded
	case OrderLoaded:
		s.Orders.Selected = a.Order
		s.Orders.Detail = succeeded

	case ProductsLoaded:
		s.Products.Products = a.Products
		s.Products.Filter = a.Filter
		s.Products.Load = succeeded
	case ProductLoaded:
		s.Products.Selected = a.Product
		s.Products.Detail = succeeded
	case SimilarLoaded:
		s.Products.Similar = a.Products

	case AdminProductsLoaded:
		s.Admin.Products = a.Products
		s.Admin.Load = succeeded
	case AdminProductSaved:
		s.Admin.Products = upsert(s.Admin.Products, a.Product, func(p model.Product) bool { return p.ID == a.Product.ID })
		s.Admin.Load = succeeded
	case AdminProductDeleted:
		s.Admin.Products = remove(s.Admin.Products, func(p model.Product) bool { return p.ID == a.ID })
		s.Admin.Load = succeeded
	case AdminOrdersLoaded:
		s.Admin.Orders = a.Orders
		s.Admin.tally()
		s.Admin.Load = succeeded
	case AdminOrderSaved:
		s.Admin.Orders = upsert(s.Admin.Orders, a.Order, func(o model.Order) bool { return o.ID == a.Order.ID })
		s.Admin.tally()
		s.Admin.Load = succeeded
	case AdminOrderDeleted:
		s.Admin.Orders = remove(s.Admin.Orders, func(o model.Order) bool { return o.ID == a.ID })
		s.Admin.tally()
		s.Admin.Load = succeeded
	case AdminUsersLoaded:
		s.Admin.Users = a.Users
		s.Admin.Load = succeeded
	case AdminUserSaved:
		s.Admin.Users = upsert(s.Admin.Users, a.User, func(u model.User) bool { return u.ID == a.User.ID })
		s.Admin.Load = succeeded
	case AdminUserDeleted:
		s.Admin.Users = remove(s.Admin.Users, func(u model.User) bool { return u.ID == a.ID })
		s.Admin.Load = succeeded

	case Redirected:
		s.Redirect = a.To
	case RedirectConsumed:
		s.Redirect = ""
	}
	return s
}

// upsert and remove never modify the input slice; reduced states may share
// backing arrays with earlier ones.
func upsert[T any](list []T, item T, match func(T) bool) []T {
	out := slices.Clone(list)
	if i := slices.IndexFunc(out, match); i >= 0 {
		out[i] = item
		return out
	}
	return append(out, item)
}

func remove[T any](list []T, match func(T) bool) []T {
	return slices.DeleteFunc(slices.Clone(list), match)
}
