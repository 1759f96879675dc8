package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/flicky/go-storefront/internal/apiclient"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

type AuthRepository interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
}

type UserRepository interface {
	List(ctx context.Context, token string) ([]model.User, error)
	Create(ctx context.Context, token string, user *model.User, password string) (*model.User, error)
	Update(ctx context.Context, token string, user *model.User) (*model.User, error)
	Delete(ctx context.Context, token, id string) error
}

type UploadRepository interface {
	UploadImage(ctx context.Context, token, filename string, content io.Reader) (string, error)
}

type restUserRepo struct{ client *apiclient.Client }

func NewAuthRepository(client *apiclient.Client) AuthRepository {
	return &restUserRepo{client: client}
}

func NewUserRepository(client *apiclient.Client) UserRepository {
	return &restUserRepo{client: client}
}

func NewUploadRepository(client *apiclient.Client) UploadRepository {
	return &restUserRepo{client: client}
}

func (r *restUserRepo) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var resp dto.AuthResponse
	req := dto.LoginRequest{Email: email, Password: password}
	if err := r.client.Post(ctx, "/api/users/login", "", req, &resp); err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	return dto.ToUser(resp.User), resp.Token, nil
}

func (r *restUserRepo) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	var resp dto.AuthResponse
	req := dto.RegisterRequest{Name: name, Email: email, Password: password}
	if err := r.client.Post(ctx, "/api/users/register", "", req, &resp); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return dto.ToUser(resp.User), resp.Token, nil
}

func (r *restUserRepo) List(ctx context.Context, token string) ([]model.User, error) {
	var payload []dto.UserPayload
	if err := r.client.Get(ctx, "/api/admin/users", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]model.User, 0, len(payload))
	for _, p := range payload {
		users = append(users, *dto.ToUser(p))
	}
	return users, nil
}

func (r *restUserRepo) Create(ctx context.Context, token string, user *model.User, password string) (*model.User, error) {
	req := dto.AdminUserRequest{Name: user.Name, Email: user.Email, Password: password, Role: user.Role}
	var resp dto.UserPayload
	if err := r.client.Post(ctx, "/api/admin/users", token, req, &resp); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return dto.ToUser(resp), nil
}

func (r *restUserRepo) Update(ctx context.Context, token string, user *model.User) (*model.User, error) {
	req := dto.AdminUserRequest{Name: user.Name, Email: user.Email, Role: user.Role}
	var resp dto.UserPayload
	if err := r.client.Put(ctx, "/api/admin/users/"+url.PathEscape(user.ID), token, req, &resp); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return dto.ToUser(resp), nil
}

func (r *restUserRepo) Delete(ctx context.Context, token, id string) error {
	if err := r.client.Delete(ctx, "/api/admin/users/"+url.PathEscape(id), token); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *restUserRepo) UploadImage(ctx context.Context, token, filename string, content io.Reader) (string, error) {
	var resp dto.UploadResponse
	_, err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/upload",
		Token:  token,
		File:   &apiclient.File{Field: "image", Name: filename, Reader: content},
		Result: &resp,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return resp.ImageURL, nil
}
