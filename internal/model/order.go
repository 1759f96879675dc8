package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

const deliveryWindow = 10 * 24 * time.Hour

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

type OrderItem struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int
	Size      string
	Color     string
}

type Order struct {
	ID              string
	Items           []OrderItem
	ShippingAddress ShippingAddress
	PaymentMethod   string
	TotalPrice      decimal.Decimal
	IsPaid          bool
	IsDelivered     bool
	Status          OrderStatus
	User            *User
	CreatedAt       time.Time
}

func (o Order) EstimatedDelivery() time.Time {
	return o.CreatedAt.Add(deliveryWindow)
}
