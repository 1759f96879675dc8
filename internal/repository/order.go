package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/flicky/go-storefront/internal/apiclient"
	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type OrderRepository interface {
	ListMine(ctx context.Context, token string) ([]model.Order, error)
	GetByID(ctx context.Context, token, id string) (*model.Order, error)
	ListAll(ctx context.Context, token string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, token, id string, status model.OrderStatus) (*model.Order, error)
	Delete(ctx context.Context, token, id string) error
}

type restOrderRepo struct{ client *apiclient.Client }

func NewOrderRepository(client *apiclient.Client) OrderRepository {
	return &restOrderRepo{client: client}
}

func (r *restOrderRepo) ListMine(ctx context.Context, token string) ([]model.Order, error) {
	var payload []dto.OrderPayload
	if err := r.client.Get(ctx, "/api/orders/my-orders", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list my orders: %w", err)
	}
	return toOrders(payload), nil
}

// GetByID returns nil, nil when the backend does not know the order.
func (r *restOrderRepo) GetByID(ctx context.Context, token, id string) (*model.Order, error) {
	var payload dto.OrderPayload
	if err := r.client.Get(ctx, "/api/orders/"+url.PathEscape(id), token, nil, &payload); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	order := toOrder(payload)
	return &order, nil
}

func (r *restOrderRepo) ListAll(ctx context.Context, token string) ([]model.Order, error) {
	var payload []dto.OrderPayload
	if err := r.client.Get(ctx, "/api/admin/orders", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return toOrders(payload), nil
}

func (r *restOrderRepo) UpdateStatus(ctx context.Context, token, id string, status model.OrderStatus) (*model.Order, error) {
	var payload dto.OrderPayload
	req := dto.UpdateOrderStatusRequest{Status: string(status)}
	if err := r.client.Put(ctx, "/api/admin/orders/"+url.PathEscape(id), token, req, &payload); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order := toOrder(payload)
	return &order, nil
}

func (r *restOrderRepo) Delete(ctx context.Context, token, id string) error {
	if err := r.client.Delete(ctx, "/api/admin/orders/"+url.PathEscape(id), token); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}
