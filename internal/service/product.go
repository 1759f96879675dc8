package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

const (
	productCacheTTL  = 60 * time.Second
	sharedGetTimeout = 10 * time.Second
)

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
	group       singleflight.Group
	log         *slog.Logger
}

// NewProductService works without a cache when redisClient is nil.
func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client, log *slog.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient, log: log}
}

func (s *ProductService) List(ctx context.Context, sc *session.Context, filter model.ProductFilter) ([]model.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return read(ctx, sc, state.ScreenProducts, string(state.ScreenProducts),
		func(ctx context.Context) ([]model.Product, error) {
			products, err := s.productRepo.List(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("list products: %w", err)
			}
			return products, nil
		},
		func(p []model.Product) state.Action { return state.ProductsLoaded{Products: p, Filter: filter} },
	)
}

func (s *ProductService) Get(ctx context.Context, sc *session.Context, id string) (*model.Product, error) {
	return read(ctx, sc, state.ScreenProduct, string(state.ScreenProduct),
		func(ctx context.Context) (*model.Product, error) { return s.byID(ctx, id) },
		func(p *model.Product) state.Action { return state.ProductLoaded{Product: p} },
	)
}

// byID reads through the cache; concurrent misses for one id share a single
// backend call. The shared call is detached from every caller's cancellation
// and each caller stops waiting when its own ctx ends.
func (s *ProductService) byID(ctx context.Context, id string) (*model.Product, error) {
	cacheKey := "product:" + id

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
			var p model.Product
			if json.Unmarshal(cached, &p) == nil {
				return &p, nil
			}
		}
	}

	ch := s.group.DoChan(id, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedGetTimeout)
		defer cancel()

		product, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
		}
		if s.redisClient != nil {
			if data, err := json.Marshal(product); err == nil {
				if err := s.redisClient.Set(ctx, cacheKey, data, productCacheTTL).Err(); err != nil {
					s.log.Warn("cache product", "product_id", id, "error", err)
				}
			}
		}
		return product, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*model.Product)
		return &p, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("get product: %w", ctx.Err())
	}
}

func (s *ProductService) Similar(ctx context.Context, sc *session.Context, id string) ([]model.Product, error) {
	products, err := s.productRepo.Similar(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("similar products: %w", err)
	}
	sc.Dispatch(state.SimilarLoaded{Products: products})
	return products, nil
}

func (s *ProductService) BestSeller(ctx context.Context) (*model.Product, error) {
	product, err := s.productRepo.BestSeller(ctx)
	if err != nil {
		return nil, fmt.Errorf("best seller: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("best seller: %w", apperr.ErrNotFound)
	}
	return product, nil
}

// NewArrivals drops products that have no image to show.
func (s *ProductService) NewArrivals(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.NewArrivals(ctx)
	if err != nil {
		return nil, fmt.Errorf("new arrivals: %w", err)
	}
	out := products[:0]
	for _, p := range products {
		if p.HasImage() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Invalidate drops a cached product after an admin change.
func (s *ProductService) Invalidate(ctx context.Context, id string) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, "product:"+id).Err(); err != nil {
		s.log.Warn("invalidate product cache", "product_id", id, "error", err)
	}
}
