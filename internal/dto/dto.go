package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend and the UI both expect prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

type UserPayload struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionResponse describes the visitor a session acts as.
type SessionResponse struct {
	SessionID string       `json:"sessionId"`
	GuestID   string       `json:"guestId"`
	User      *UserPayload `json:"user,omitempty"`
	ItemCount int          `json:"cartItemCount"`
	Redirect  string       `json:"redirect,omitempty"`
}

// --- Product ---

type ProductImagePayload struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

type ProductPayload struct {
	ID            string                `json:"_id,omitempty"`
	Name          string                `json:"name" binding:"required"`
	Description   string                `json:"description"`
	Price         decimal.Decimal       `json:"price"`
	DiscountPrice decimal.Decimal       `json:"discountPrice"`
	CountInStock  int                   `json:"countInStock" binding:"min=0"`
	SKU           string                `json:"sku"`
	Category      string                `json:"category"`
	Brand         string                `json:"brand"`
	Sizes         []string              `json:"sizes"`
	Colors        []string              `json:"colors"`
	Collections   []string              `json:"collections"`
	Material      string                `json:"material"`
	Gender        string                `json:"gender"`
	Images        []ProductImagePayload `json:"images"`
	IsFeatured    bool                  `json:"isFeatured"`
	IsPublished   bool                  `json:"isPublished"`
	Rating        float64               `json:"rating"`
	NumReviews    int                   `json:"numReviews"`
	CreatedAt     time.Time             `json:"createdAt,omitempty"`
	UpdatedAt     time.Time             `json:"updatedAt,omitempty"`
}

type ListProductsRequest struct {
	Collection string   `form:"collection"`
	Category   string   `form:"category"`
	Gender     string   `form:"gender"`
	Color      string   `form:"color"`
	Size       []string `form:"size" collection_format:"csv"`
	Material   []string `form:"material" collection_format:"csv"`
	Brand      []string `form:"brand" collection_format:"csv"`
	MinPrice   string   `form:"minPrice"`
	MaxPrice   string   `form:"maxPrice"`
	Search     string   `form:"search"`
	SortBy     string   `form:"sortBy" binding:"omitempty,oneof=priceAsc priceDesc popularity"`
	Limit      int      `form:"limit" binding:"min=0,max=100"`
}

type AdminSummaryResponse struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalProducts int             `json:"totalProducts"`
}

type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// --- Cart ---

type CartLinePayload struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

type CartPayload struct {
	ID         string            `json:"_id,omitempty"`
	User       string            `json:"user,omitempty"`
	GuestID    string            `json:"guestId,omitempty"`
	Products   []CartLinePayload `json:"products"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
	Version    *int64            `json:"version,omitempty"`
}

// CartMutation is the body of add, update and remove calls. Only the fields
// relevant to the call are set.
type CartMutation struct {
	ProductID string           `json:"productId"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Quantity  int              `json:"quantity,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Name      string           `json:"name,omitempty"`
	Image     string           `json:"image,omitempty"`
	GuestID   string           `json:"guestId,omitempty"`
	UserID    string           `json:"userId,omitempty"`
}

type MergeCartRequest struct {
	GuestID string `json:"guestId"`
	UserID  string `json:"userId"`
}

type AddCartItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type RemoveCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type CartResponse struct {
	Owner      string            `json:"owner"`
	Products   []CartLinePayload `json:"products"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
	ItemCount  int               `json:"itemCount"`
	Version    string            `json:"version,omitempty"`
}

// --- Checkout ---

type ShippingAddressPayload struct {
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}

type CheckoutItemPayload struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

type CreateCheckoutRequest struct {
	CheckoutItems   []CheckoutItemPayload  `json:"checkoutItems"`
	ShippingAddress ShippingAddressPayload `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
}

type CheckoutPayload struct {
	ID              string                 `json:"_id"`
	CheckoutItems   []CheckoutItemPayload  `json:"checkoutItems"`
	ShippingAddress ShippingAddressPayload `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
	PaymentStatus   string                 `json:"paymentStatus"`
	IsPaid          bool                   `json:"isPaid"`
	IsFinalized     bool                   `json:"isFinalized"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type PayCheckoutRequest struct {
	PaymentStatus  string         `json:"paymentStatus"`
	PaymentDetails map[string]any `json:"paymentDetails"`
}

type StartCheckoutRequest struct {
	ShippingAddress ShippingAddressPayload `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// PaymentRequest carries either an approved provider order to capture or
// details of a capture the UI already completed.
type PaymentRequest struct {
	ProviderOrderID string         `json:"providerOrderId"`
	PaymentDetails  map[string]any `json:"paymentDetails"`
}

type CheckoutResponse struct {
	ID              string                 `json:"id"`
	State           string                 `json:"state"`
	Items           []CheckoutItemPayload  `json:"checkoutItems"`
	ShippingAddress ShippingAddressPayload `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
	PaymentStatus   string                 `json:"paymentStatus"`
	IsFinalized     bool                   `json:"isFinalized"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// --- Order ---

type OrderPayload struct {
	ID              string                 `json:"_id"`
	OrderItems      []CheckoutItemPayload  `json:"orderItems"`
	ShippingAddress ShippingAddressPayload `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
	IsPaid          bool                   `json:"isPaid"`
	IsDelivered     bool                   `json:"isDelivered"`
	Status          string                 `json:"status"`
	User            json.RawMessage        `json:"user,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID                string                 `json:"id"`
	Items             []CheckoutItemPayload  `json:"orderItems"`
	ShippingAddress   ShippingAddressPayload `json:"shippingAddress"`
	PaymentMethod     string                 `json:"paymentMethod"`
	TotalPrice        decimal.Decimal        `json:"totalPrice"`
	IsPaid            bool                   `json:"isPaid"`
	IsDelivered       bool                   `json:"isDelivered"`
	Status            string                 `json:"status"`
	Customer          *UserPayload           `json:"user,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	EstimatedDelivery time.Time              `json:"estimatedDelivery"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// --- Admin users ---

type AdminUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role" binding:"omitempty,oneof=customer admin"`
}

// --- Errors ---

// MessageResponse is the backend's error body.
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Redirect  string `json:"redirect,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
