package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

type CartService struct {
	cartRepo repository.CartRepository
	log      *slog.Logger
}

func NewCartService(cartRepo repository.CartRepository, log *slog.Logger) *CartService {
	return &CartService{cartRepo: cartRepo, log: log}
}

// Current returns the cart held in state, or an empty cart for the owner.
func (s *CartService) Current(sc *session.Context) *model.Cart {
	st := sc.State()
	if st.Cart.Cart != nil && st.Cart.Cart.Owner == st.Owner() {
		return st.Cart.Cart.Clone()
	}
	return model.NewCart(st.Owner())
}

func (s *CartService) Fetch(ctx context.Context, sc *session.Context) (*model.Cart, error) {
	id := sc.Identity()
	return read(ctx, sc, state.ScreenCart, string(state.ScreenCart),
		func(ctx context.Context) (*model.Cart, error) {
			cart, err := s.cartRepo.Get(ctx, id.Token, id.Owner())
			if err != nil {
				return nil, fmt.Errorf("fetch cart: %w", err)
			}
			return cart, nil
		},
		func(c *model.Cart) state.Action { return state.CartLoaded{Cart: c} },
	)
}

// AddItem validates line before any network call. The backend sums the
// quantity into an existing line with the same key.
func (s *CartService) AddItem(ctx context.Context, sc *session.Context, line model.CartLine) (*model.Cart, error) {
	if err := line.Validate(); err != nil {
		return nil, fail(sc, state.ScreenCart, apperr.Validation("%s", err))
	}
	id := sc.Identity()
	return s.mutate(ctx, sc, "add item", func(version string) (*model.Cart, error) {
		return s.cartRepo.Add(ctx, id.Token, id.Owner(), line, version)
	})
}

// UpdateQuantity ignores quantities below 1; removal is explicit.
func (s *CartService) UpdateQuantity(ctx context.Context, sc *session.Context, key model.LineKey, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return s.Current(sc), nil
	}
	id := sc.Identity()
	return s.mutate(ctx, sc, "update quantity", func(version string) (*model.Cart, error) {
		return s.cartRepo.Update(ctx, id.Token, id.Owner(), key, quantity, version)
	})
}

// RemoveItem treats a missing line as already removed.
func (s *CartService) RemoveItem(ctx context.Context, sc *session.Context, key model.LineKey) (*model.Cart, error) {
	id := sc.Identity()
	cart, err := s.mutate(ctx, sc, "remove item", func(version string) (*model.Cart, error) {
		return s.cartRepo.Remove(ctx, id.Token, id.Owner(), key, version)
	})
	if errors.Is(err, apperr.ErrNotFound) {
		current := s.Current(sc)
		current.Remove(key)
		sc.Dispatch(state.CartLoaded{Cart: current})
		return current, nil
	}
	return cart, err
}

// mutate sends the version last seen. On a conflict the cart is refetched so
// state shows what the backend holds, and the conflict is returned.
func (s *CartService) mutate(ctx context.Context, sc *session.Context, op string, call func(version string) (*model.Cart, error)) (*model.Cart, error) {
	sc.Dispatch(state.Pending{Screen: state.ScreenCart})
	cart, err := call(s.Current(sc).Version)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.refresh(ctx, sc)
		}
		return nil, fail(sc, state.ScreenCart, fmt.Errorf("%s: %w", op, err))
	}
	sc.Dispatch(state.CartLoaded{Cart: cart})
	return cart, nil
}

func (s *CartService) refresh(ctx context.Context, sc *session.Context) {
	id := sc.Identity()
	cart, err := s.cartRepo.Get(ctx, id.Token, id.Owner())
	if err != nil {
		s.log.Warn("refetch cart after conflict", "session_id", sc.ID, "error", err)
		return
	}
	sc.Dispatch(state.CartLoaded{Cart: cart})
}

// Merge folds the guest cart into the user's. An empty guest cart makes no
// merge call and leaves the user cart as the backend holds it. A version
// conflict is retried once against a freshly fetched user cart.
func (s *CartService) Merge(ctx context.Context, sc *session.Context, guestID, userID string) (*model.Cart, error) {
	id := sc.Identity()
	guest, err := s.guestCart(ctx, sc, guestID)
	if err != nil {
		return nil, fail(sc, state.ScreenCart, fmt.Errorf("merge cart: %w", err))
	}
	if guest.IsEmpty() {
		return nil, nil
	}

	sc.Dispatch(state.Pending{Screen: state.ScreenCart})
	cart, err := s.cartRepo.Merge(ctx, id.Token, guestID, userID, "")
	if errors.Is(err, apperr.ErrConflict) {
		s.log.Info("cart merge conflict, retrying", "session_id", sc.ID, "user_id", userID)
		var current *model.Cart
		current, err = s.cartRepo.Get(ctx, id.Token, model.UserOwner(userID))
		if err == nil {
			cart, err = s.cartRepo.Merge(ctx, id.Token, guestID, userID, current.Version)
		}
	}
	if err != nil {
		return nil, fail(sc, state.ScreenCart, fmt.Errorf("merge cart: %w", err))
	}
	sc.Dispatch(state.CartLoaded{Cart: cart})
	return cart, nil
}

func (s *CartService) guestCart(ctx context.Context, sc *session.Context, guestID string) (*model.Cart, error) {
	owner := model.GuestOwner(guestID)
	if local := sc.State().Cart.Cart; local != nil && local.Owner == owner {
		return local, nil
	}
	return s.cartRepo.Get(ctx, "", owner)
}

// ClearLocal empties the cart held in state without calling the backend.
func (s *CartService) ClearLocal(sc *session.Context) {
	sc.Dispatch(state.CartCleared{})
}
