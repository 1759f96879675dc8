package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type ProductImage struct {
	URL     string
	AltText string
}

type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.Decimal
	CountInStock  int
	SKU           string
	Category      string
	Brand         string
	Sizes         []string
	Colors        []string
	Collections   []string
	Material      string
	Gender        string
	Images        []ProductImage
	IsFeatured    bool
	IsPublished   bool
	Rating        float64
	NumReviews    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasImage reports whether at least one image has a non-blank URL.
func (p Product) HasImage() bool {
	for _, img := range p.Images {
		if img.URL != "" {
			return true
		}
	}
	return false
}

type OrderMessage struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	CheckoutID  string          `json:"checkout_id"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ItemCount   int             `json:"item_count"`
	FinalizedAt time.Time       `json:"finalized_at"`
}

// AdminSummary is what the admin dashboard shows.
type AdminSummary struct {
	TotalOrders   int
	TotalSales    decimal.Decimal
	TotalProducts int
}

type SortOrder string

const (
	SortPriceAsc   SortOrder = "priceAsc"
	SortPriceDesc  SortOrder = "priceDesc"
	SortPopularity SortOrder = "popularity"
)

// ProductFilter narrows a catalog listing. Zero values mean "no constraint".
type ProductFilter struct {
	Collection string
	Category   string
	Gender     string
	Color      string
	Sizes      []string
	Materials  []string
	Brands     []string
	MinPrice   string
	MaxPrice   string
	Search     string
	SortBy     SortOrder
	Limit      int
}

// OrderFinalizedQueue carries OrderMessage values published after finalize.
const OrderFinalizedQueue = "orders.finalized"
