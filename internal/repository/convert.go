package repository

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

// toCart ignores the backend's totalPrice; the model derives it from lines.
func toCart(p dto.CartPayload, owner model.OwnerRef, etag string) *model.Cart {
	cart := model.NewCart(owner)
	for _, l := range p.Products {
		cart.Lines = append(cart.Lines, model.CartLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Size:      l.Size,
			Color:     l.Color,
			Quantity:  l.Quantity,
		})
	}
	switch {
	case etag != "":
		cart.Version = etag
	case p.Version != nil:
		cart.Version = strconv.FormatInt(*p.Version, 10)
	}
	return cart
}

func toCheckout(p dto.CheckoutPayload) *model.Checkout {
	c := &model.Checkout{
		ID:              p.ID,
		ShippingAddress: dto.ToShipping(p.ShippingAddress),
		PaymentMethod:   p.PaymentMethod,
		TotalPrice:      p.TotalPrice,
		PaymentStatus:   model.PaymentUnpaid,
		IsFinalized:     p.IsFinalized,
		State:           model.CheckoutCreated,
		CreatedAt:       p.CreatedAt,
	}
	for _, it := range p.CheckoutItems {
		c.Items = append(c.Items, model.CheckoutItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	if p.IsPaid || p.PaymentStatus == string(model.PaymentPaid) {
		c.PaymentStatus = model.PaymentPaid
		c.State = model.CheckoutPaid
	}
	if p.IsFinalized {
		c.State = model.CheckoutFinalized
	}
	return c
}

func toOrder(p dto.OrderPayload) model.Order {
	o := model.Order{
		ID:              p.ID,
		ShippingAddress: dto.ToShipping(p.ShippingAddress),
		PaymentMethod:   p.PaymentMethod,
		TotalPrice:      p.TotalPrice,
		IsPaid:          p.IsPaid,
		IsDelivered:     p.IsDelivered,
		Status:          model.OrderStatus(p.Status),
		CreatedAt:       p.CreatedAt,
	}
	for _, it := range p.OrderItems {
		o.Items = append(o.Items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	// Admin listings populate the user; customer listings carry only its id.
	if raw := bytes.TrimSpace(p.User); len(raw) > 0 && raw[0] == '{' {
		var u dto.UserPayload
		if json.Unmarshal(raw, &u) == nil {
			o.User = dto.ToUser(u)
		}
	}
	return o
}

func toOrders(ps []dto.OrderPayload) []model.Order {
	out := make([]model.Order, 0, len(ps))
	for _, p := range ps {
		out = append(out, toOrder(p))
	}
	return out
}
