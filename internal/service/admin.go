package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

const (
	adminProductsKey = "admin:products"
	adminOrdersKey   = "admin:orders"
	adminUsersKey    = "admin:users"
)

type AdminService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	uploadRepo  repository.UploadRepository
	products    *ProductService
	log         *slog.Logger
}

func NewAdminService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	uploadRepo repository.UploadRepository,
	products *ProductService,
	log *slog.Logger,
) *AdminService {
	return &AdminService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		uploadRepo:  uploadRepo,
		products:    products,
		log:         log,
	}
}

// authorize is a client-side courtesy check. Non-admins are sent home
// without any backend call; the backend still enforces the role.
func (s *AdminService) authorize(sc *session.Context) (string, error) {
	id := sc.Identity()
	if !id.IsAdmin() {
		sc.Dispatch(state.Redirected{To: "/"})
		return "", fail(sc, state.ScreenAdmin, apperr.ErrForbidden)
	}
	return id.Token, nil
}

// Summary refreshes the order and product lists side by side and reports
// the dashboard totals derived from them.
func (s *AdminService) Summary(ctx context.Context, sc *session.Context) (*model.AdminSummary, error) {
	if _, err := s.authorize(sc); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.ListOrders(gctx, sc)
		return err
	})
	g.Go(func() error {
		_, err := s.ListProducts(gctx, sc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin summary: %w", err)
	}

	admin := sc.State().Admin
	return &model.AdminSummary{
		TotalOrders:   admin.TotalOrders,
		TotalSales:    admin.TotalSales,
		TotalProducts: len(admin.Products),
	}, nil
}

// --- products ---

func (s *AdminService) ListProducts(ctx context.Context, sc *session.Context) ([]model.Product, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	return read(ctx, sc, state.ScreenAdmin, adminProductsKey,
		func(ctx context.Context) ([]model.Product, error) {
			products, err := s.productRepo.ListAdmin(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("list products: %w", err)
			}
			return products, nil
		},
		func(p []model.Product) state.Action { return state.AdminProductsLoaded{Products: p} },
	)
}

func (s *AdminService) CreateProduct(ctx context.Context, sc *session.Context, product *model.Product) (*model.Product, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	if err := validateProduct(product); err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	created, err := s.productRepo.Create(ctx, token, product)
	if err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	sc.Dispatch(state.AdminProductSaved{Product: *created})
	return created, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, sc *session.Context, product *model.Product) (*model.Product, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	if product.ID == "" {
		return nil, fail(sc, state.ScreenAdmin, apperr.Validation("product id is required"))
	}
	if err := validateProduct(product); err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	updated, err := s.productRepo.Update(ctx, token, product)
	if err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	s.products.Invalidate(ctx, product.ID)
	sc.Dispatch(state.AdminProductSaved{Product: *updated})
	return updated, nil
}

// DeleteProduct never retries. On failure the list is refetched so the
// screen reflects what the backend holds.
func (s *AdminService) DeleteProduct(ctx context.Context, sc *session.Context, id string) error {
	token, err := s.authorize(sc)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, token, id); err != nil {
		s.log.Warn("delete product failed, refetching list", "product_id", id, "error", err)
		if _, listErr := s.ListProducts(ctx, sc); listErr != nil {
			s.log.Warn("refetch products", "error", listErr)
		}
		return fail(sc, state.ScreenAdmin, err)
	}
	s.products.Invalidate(ctx, id)
	sc.Dispatch(state.AdminProductDeleted{ID: id})
	return nil
}

func (s *AdminService) UploadImage(ctx context.Context, sc *session.Context, filename string, content io.Reader) (string, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return "", err
	}
	url, err := s.uploadRepo.UploadImage(ctx, token, filename, content)
	if err != nil {
		return "", fail(sc, state.ScreenAdmin, err)
	}
	return url, nil
}

func validateProduct(p *model.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperr.Validation("product name is required")
	case p.Price.IsNegative():
		return apperr.Validation("price must not be negative")
	case p.CountInStock < 0:
		return apperr.Validation("stock must not be negative")
	}
	return nil
}

// --- orders ---

func (s *AdminService) ListOrders(ctx context.Context, sc *session.Context) ([]model.Order, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	return read(ctx, sc, state.ScreenAdmin, adminOrdersKey,
		func(ctx context.Context) ([]model.Order, error) {
			orders, err := s.orderRepo.ListAll(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("list orders: %w", err)
			}
			return orders, nil
		},
		func(o []model.Order) state.Action { return state.AdminOrdersLoaded{Orders: o} },
	)
}

// UpdateOrderStatus rejects values outside the status enum without a call.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, sc *session.Context, id, status string) (*model.Order, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	st, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, fail(sc, state.ScreenAdmin, apperr.Validation("unknown order status %q", status))
	}
	order, err := s.orderRepo.UpdateStatus(ctx, token, id, st)
	if err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	sc.Dispatch(state.AdminOrderSaved{Order: *order})
	return order, nil
}

func (s *AdminService) DeleteOrder(ctx context.Context, sc *session.Context, id string) error {
	token, err := s.authorize(sc)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, token, id); err != nil {
		return fail(sc, state.ScreenAdmin, err)
	}
	sc.Dispatch(state.AdminOrderDeleted{ID: id})
	return nil
}

// --- users ---

func (s *AdminService) ListUsers(ctx context.Context, sc *session.Context) ([]model.User, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	return read(ctx, sc, state.ScreenAdmin, adminUsersKey,
		func(ctx context.Context) ([]model.User, error) {
			users, err := s.userRepo.List(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("list users: %w", err)
			}
			return users, nil
		},
		func(u []model.User) state.Action { return state.AdminUsersLoaded{Users: u} },
	)
}

func (s *AdminService) CreateUser(ctx context.Context, sc *session.Context, user *model.User, password string) (*model.User, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	if user.Role == "" {
		user.Role = model.RoleCustomer
	}
	if err := validateRole(user.Role); err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	created, err := s.userRepo.Create(ctx, token, user, password)
	if err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	sc.Dispatch(state.AdminUserSaved{User: *created})
	return created, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, sc *session.Context, user *model.User) (*model.User, error) {
	token, err := s.authorize(sc)
	if err != nil {
		return nil, err
	}
	if err := validateRole(user.Role); err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	updated, err := s.userRepo.Update(ctx, token, user)
	if err != nil {
		return nil, fail(sc, state.ScreenAdmin, err)
	}
	sc.Dispatch(state.AdminUserSaved{User: *updated})
	return updated, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, sc *session.Context, id string) error {
	token, err := s.authorize(sc)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, token, id); err != nil {
		return fail(sc, state.ScreenAdmin, err)
	}
	sc.Dispatch(state.AdminUserDeleted{ID: id})
	return nil
}

func validateRole(role string) error {
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return apperr.Validation("unknown role %q", role)
	}
	return nil
}
