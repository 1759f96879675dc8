package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

type AuthService struct {
	authRepo repository.AuthRepository
	carts    *CartService
	log      *slog.Logger
}

func NewAuthService(authRepo repository.AuthRepository, carts *CartService, log *slog.Logger) *AuthService {
	return &AuthService{authRepo: authRepo, carts: carts, log: log}
}

// Login authenticates and then merges the guest cart. A merge failure is
// returned alongside the user: the session stays authenticated either way.
func (s *AuthService) Login(ctx context.Context, sc *session.Context, email, password string) (*model.User, error) {
	sc.Dispatch(state.Pending{Screen: state.ScreenAuth})
	user, token, err := s.authRepo.Login(ctx, email, password)
	if err != nil {
		return nil, fail(sc, state.ScreenAuth, fmt.Errorf("login: %w", err))
	}
	return user, s.authenticated(ctx, sc, user, token)
}

func (s *AuthService) Register(ctx context.Context, sc *session.Context, name, email, password string) (*model.User, error) {
	sc.Dispatch(state.Pending{Screen: state.ScreenAuth})
	user, token, err := s.authRepo.Register(ctx, name, email, password)
	if err != nil {
		return nil, fail(sc, state.ScreenAuth, fmt.Errorf("register: %w", err))
	}
	return user, s.authenticated(ctx, sc, user, token)
}

func (s *AuthService) authenticated(ctx context.Context, sc *session.Context, user *model.User, token string) error {
	guestID := sc.State().Auth.GuestID
	sc.Dispatch(state.AuthSucceeded{User: user, Token: token})
	s.log.Info("user authenticated", "session_id", sc.ID, "user_id", user.ID)

	merged, err := s.carts.Merge(ctx, sc, guestID, user.ID)
	if err != nil {
		return fmt.Errorf("merge guest cart: %w", err)
	}
	if merged == nil {
		if _, err := s.carts.Fetch(ctx, sc); err != nil {
			s.log.Warn("load user cart after login", "session_id", sc.ID, "error", err)
		}
	}
	return nil
}

// Logout forgets the user and starts a new guest identity with an empty cart.
func (s *AuthService) Logout(sc *session.Context) {
	sc.Dispatch(state.LoggedOut{GuestID: session.NewGuestID()})
}
