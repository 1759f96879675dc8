package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/flicky/go-storefront/internal/apiclient"
	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type ProductRepository interface {
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Similar(ctx context.Context, id string) ([]model.Product, error)
	BestSeller(ctx context.Context) (*model.Product, error)
	NewArrivals(ctx context.Context) ([]model.Product, error)

	ListAdmin(ctx context.Context, token string) ([]model.Product, error)
	Create(ctx context.Context, token string, product *model.Product) (*model.Product, error)
	Update(ctx context.Context, token string, product *model.Product) (*model.Product, error)
	Delete(ctx context.Context, token, id string) error
}

type restProductRepo struct{ client *apiclient.Client }

func NewProductRepository(client *apiclient.Client) ProductRepository {
	return &restProductRepo{client: client}
}

func (r *restProductRepo) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var payload []dto.ProductPayload
	if err := r.client.Get(ctx, "/api/products", "", filterQuery(filter), &payload); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return dto.ToProducts(payload), nil
}

// filterQuery drops empty fields and the "all" collection; multi-value
// fields travel comma-joined.
func filterQuery(f model.ProductFilter) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			q.Set(key, value)
		}
	}
	if !strings.EqualFold(f.Collection, "all") {
		set("collection", f.Collection)
	}
	set("category", f.Category)
	set("gender", f.Gender)
	set("color", f.Color)
	set("size", strings.Join(f.Sizes, ","))
	set("material", strings.Join(f.Materials, ","))
	set("brand", strings.Join(f.Brands, ","))
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	set("search", f.Search)
	set("sortBy", string(f.SortBy))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// GetByID returns nil, nil when the product does not exist.
func (r *restProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var payload dto.ProductPayload
	if err := r.client.Get(ctx, "/api/products/"+url.PathEscape(id), "", nil, &payload); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := dto.ToProduct(payload)
	return &p, nil
}

func (r *restProductRepo) Similar(ctx context.Context, id string) ([]model.Product, error) {
	var payload []dto.ProductPayload
	if err := r.client.Get(ctx, "/api/products/similar/"+url.PathEscape(id), "", nil, &payload); err != nil {
		return nil, fmt.Errorf("list similar products: %w", err)
	}
	return dto.ToProducts(payload), nil
}

func (r *restProductRepo) BestSeller(ctx context.Context) (*model.Product, error) {
	var payload dto.ProductPayload
	if err := r.client.Get(ctx, "/api/products/best-seller", "", nil, &payload); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get best seller: %w", err)
	}
	p := dto.ToProduct(payload)
	return &p, nil
}

func (r *restProductRepo) NewArrivals(ctx context.Context) ([]model.Product, error) {
	var payload []dto.ProductPayload
	if err := r.client.Get(ctx, "/api/products/new-arrivals", "", nil, &payload); err != nil {
		return nil, fmt.Errorf("list new arrivals: %w", err)
	}
	return dto.ToProducts(payload), nil
}

func (r *restProductRepo) ListAdmin(ctx context.Context, token string) ([]model.Product, error) {
	var payload []dto.ProductPayload
	if err := r.client.Get(ctx, "/api/admin/products", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list admin products: %w", err)
	}
	return dto.ToProducts(payload), nil
}

func (r *restProductRepo) Create(ctx context.Context, token string, product *model.Product) (*model.Product, error) {
	var payload dto.ProductPayload
	if err := r.client.Post(ctx, "/api/admin/products", token, dto.FromProduct(product), &payload); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	p := dto.ToProduct(payload)
	return &p, nil
}

func (r *restProductRepo) Update(ctx context.Context, token string, product *model.Product) (*model.Product, error) {
	var payload dto.ProductPayload
	if err := r.client.Put(ctx, "/api/admin/products/"+url.PathEscape(product.ID), token, dto.FromProduct(product), &payload); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	p := dto.ToProduct(payload)
	return &p, nil
}

func (r *restProductRepo) Delete(ctx context.Context, token, id string) error {
	if err := r.client.Delete(ctx, "/api/admin/products/"+url.PathEscape(id), token); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
