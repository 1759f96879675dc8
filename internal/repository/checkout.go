package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/apiclient"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type CheckoutRepository interface {
	Create(ctx context.Context, token string, items []model.CheckoutItem, shipping model.ShippingAddress, paymentMethod string, total decimal.Decimal) (*model.Checkout, error)
	Pay(ctx context.Context, token, checkoutID string, details map[string]any) (*model.Checkout, error)
	Finalize(ctx context.Context, token, checkoutID string) (*model.Order, error)
}

type restCheckoutRepo struct{ client *apiclient.Client }

func NewCheckoutRepository(client *apiclient.Client) CheckoutRepository {
	return &restCheckoutRepo{client: client}
}

func (r *restCheckoutRepo) Create(ctx context.Context, token string, items []model.CheckoutItem, shipping model.ShippingAddress, paymentMethod string, total decimal.Decimal) (*model.Checkout, error) {
	req := dto.CreateCheckoutRequest{
		CheckoutItems:   dto.FromCheckoutItems(items),
		ShippingAddress: dto.FromShipping(shipping),
		PaymentMethod:   paymentMethod,
		TotalPrice:      total,
	}
	var payload dto.CheckoutPayload
	if err := r.client.Post(ctx, "/api/checkout", token, req, &payload); err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	return toCheckout(payload), nil
}

func (r *restCheckoutRepo) Pay(ctx context.Context, token, checkoutID string, details map[string]any) (*model.Checkout, error) {
	req := dto.PayCheckoutRequest{
		PaymentStatus:  string(model.PaymentPaid),
		PaymentDetails: details,
	}
	var payload dto.CheckoutPayload
	if err := r.client.Put(ctx, "/api/checkout/"+url.PathEscape(checkoutID)+"/pay", token, req, &payload); err != nil {
		return nil, fmt.Errorf("pay checkout: %w", err)
	}
	return toCheckout(payload), nil
}

func (r *restCheckoutRepo) Finalize(ctx context.Context, token, checkoutID string) (*model.Order, error) {
	var payload dto.OrderPayload
	if err := r.client.Post(ctx, "/api/checkout/"+url.PathEscape(checkoutID)+"/finalize", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("finalize checkout: %w", err)
	}
	order := toOrder(payload)
	return &order, nil
}
