package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/flicky/go-storefront/internal/apiclient"
	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

// CartRepository talks to the backend cart resource. Mutations send the
// cart version the caller last saw; a stale version yields apperr.ErrConflict.
type CartRepository interface {
	Get(ctx context.Context, token string, owner model.OwnerRef) (*model.Cart, error)
	Add(ctx context.Context, token string, owner model.OwnerRef, line model.CartLine, version string) (*model.Cart, error)
	Update(ctx context.Context, token string, owner model.OwnerRef, key model.LineKey, quantity int, version string) (*model.Cart, error)
	Remove(ctx context.Context, token string, owner model.OwnerRef, key model.LineKey, version string) (*model.Cart, error)
	Merge(ctx context.Context, token, guestID, userID, version string) (*model.Cart, error)
}

type restCartRepo struct{ client *apiclient.Client }

func NewCartRepository(client *apiclient.Client) CartRepository {
	return &restCartRepo{client: client}
}

// Get returns an empty cart when the owner has none yet.
func (r *restCartRepo) Get(ctx context.Context, token string, owner model.OwnerRef) (*model.Cart, error) {
	query := url.Values{}
	if owner.IsUser() {
		query.Set("userId", owner.UserID)
	} else {
		query.Set("guestId", owner.GuestID)
	}

	var payload dto.CartPayload
	resp, err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/cart",
		Token:  token,
		Query:  query,
		Result: &payload,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.NewCart(owner), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return toCart(payload, owner, resp.Header.Get("ETag")), nil
}

func (r *restCartRepo) Add(ctx context.Context, token string, owner model.OwnerRef, line model.CartLine, version string) (*model.Cart, error) {
	price := line.Price
	body := withOwner(dto.CartMutation{
		ProductID: line.ProductID,
		Size:      line.Size,
		Color:     line.Color,
		Quantity:  line.Quantity,
		Price:     &price,
		Name:      line.Name,
		Image:     line.Image,
	}, owner)
	cart, err := r.mutate(ctx, http.MethodPost, "/api/cart", token, owner, body, version)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return cart, nil
}

func (r *restCartRepo) Update(ctx context.Context, token string, owner model.OwnerRef, key model.LineKey, quantity int, version string) (*model.Cart, error) {
	body := withOwner(dto.CartMutation{
		ProductID: key.ProductID,
		Size:      key.Size,
		Color:     key.Color,
		Quantity:  quantity,
	}, owner)
	cart, err := r.mutate(ctx, http.MethodPut, "/api/cart", token, owner, body, version)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return cart, nil
}

func (r *restCartRepo) Remove(ctx context.Context, token string, owner model.OwnerRef, key model.LineKey, version string) (*model.Cart, error) {
	body := withOwner(dto.CartMutation{
		ProductID: key.ProductID,
		Size:      key.Size,
		Color:     key.Color,
	}, owner)
	cart, err := r.mutate(ctx, http.MethodDelete, "/api/cart", token, owner, body, version)
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return cart, nil
}

func (r *restCartRepo) Merge(ctx context.Context, token, guestID, userID, version string) (*model.Cart, error) {
	body := dto.MergeCartRequest{GuestID: guestID, UserID: userID}
	cart, err := r.mutate(ctx, http.MethodPost, "/api/cart/merge", token, model.UserOwner(userID), body, version)
	if err != nil {
		return nil, fmt.Errorf("merge cart: %w", err)
	}
	return cart, nil
}

func (r *restCartRepo) mutate(ctx context.Context, method, path, token string, owner model.OwnerRef, body any, version string) (*model.Cart, error) {
	var payload dto.CartPayload
	resp, err := r.client.Do(ctx, apiclient.Request{
		Method:  method,
		Path:    path,
		Token:   token,
		Body:    body,
		Result:  &payload,
		IfMatch: version,
	})
	if err != nil {
		return nil, err
	}
	return toCart(payload, owner, resp.Header.Get("ETag")), nil
}

func withOwner(m dto.CartMutation, owner model.OwnerRef) dto.CartMutation {
	if owner.IsUser() {
		m.UserID = owner.UserID
	} else {
		m.GuestID = owner.GuestID
	}
	return m
}
