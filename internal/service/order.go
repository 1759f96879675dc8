package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

// ConfirmationReader returns the last order confirmation recorded for a
// user, or nil when there is none.
type ConfirmationReader interface {
	Latest(ctx context.Context, userID string) (*model.OrderMessage, error)
}

type OrderService struct {
	orderRepo     repository.OrderRepository
	confirmations ConfirmationReader
}

func NewOrderService(orderRepo repository.OrderRepository, confirmations ConfirmationReader) *OrderService {
	return &OrderService{orderRepo: orderRepo, confirmations: confirmations}
}

// ListOrders keeps the backend's ordering.
func (s *OrderService) ListOrders(ctx context.Context, sc *session.Context) ([]model.Order, error) {
	token := sc.Identity().Token
	return read(ctx, sc, state.ScreenOrders, string(state.ScreenOrders),
		func(ctx context.Context) ([]model.Order, error) {
			orders, err := s.orderRepo.ListMine(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("list orders: %w", err)
			}
			return orders, nil
		},
		func(o []model.Order) state.Action { return state.OrdersLoaded{Orders: o} },
	)
}

func (s *OrderService) GetOrderDetail(ctx context.Context, sc *session.Context, orderID string) (*model.Order, error) {
	token := sc.Identity().Token
	return read(ctx, sc, state.ScreenOrder, string(state.ScreenOrder),
		func(ctx context.Context) (*model.Order, error) {
			order, err := s.orderRepo.GetByID(ctx, token, orderID)
			if err != nil {
				return nil, fmt.Errorf("get order: %w", err)
			}
			if order == nil {
				return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
			}
			return order, nil
		},
		func(o *model.Order) state.Action { return state.OrderLoaded{Order: o} },
	)
}

func (s *OrderService) EstimatedDelivery(order model.Order) time.Time {
	return order.EstimatedDelivery()
}

// Confirmation returns the most recent finalized-order confirmation for the
// signed-in user.
func (s *OrderService) Confirmation(ctx context.Context, sc *session.Context) (*model.OrderMessage, error) {
	id := sc.Identity()
	if id.IsGuest() {
		return nil, apperr.ErrAuth
	}
	if s.confirmations == nil {
		return nil, apperr.ErrNotFound
	}
	msg, err := s.confirmations.Latest(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	if msg == nil {
		return nil, apperr.ErrNotFound
	}
	return msg, nil
}
