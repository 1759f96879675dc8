package handler

import (
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

func toCartResponse(cart *model.Cart) dto.CartResponse {
	lines := make([]dto.CartLinePayload, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, dto.CartLinePayload{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Size:      l.Size,
			Color:     l.Color,
			Quantity:  l.Quantity,
		})
	}
	return dto.CartResponse{
		Owner:      cart.Owner.String(),
		Products:   lines,
		TotalPrice: cart.TotalPrice(),
		ItemCount:  cart.ItemCount(),
		Version:    cart.Version,
	}
}

func toCheckoutResponse(c *model.Checkout) dto.CheckoutResponse {
	return dto.CheckoutResponse{
		ID:              c.ID,
		State:           c.State.String(),
		Items:           dto.FromCheckoutItems(c.Items),
		ShippingAddress: dto.FromShipping(c.ShippingAddress),
		PaymentMethod:   c.PaymentMethod,
		TotalPrice:      c.TotalPrice,
		PaymentStatus:   string(c.PaymentStatus),
		IsFinalized:     c.IsFinalized,
		CreatedAt:       c.CreatedAt,
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                o.ID,
		Items:             dto.FromOrderItems(o.Items),
		ShippingAddress:   dto.FromShipping(o.ShippingAddress),
		PaymentMethod:     o.PaymentMethod,
		TotalPrice:        o.TotalPrice,
		IsPaid:            o.IsPaid,
		IsDelivered:       o.IsDelivered,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt,
		EstimatedDelivery: o.EstimatedDelivery(),
	}
	if o.User != nil {
		u := dto.FromUser(o.User)
		resp.Customer = &u
	}
	return resp
}

func toOrderList(orders []model.Order) dto.OrderListResponse {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return dto.OrderListResponse{Orders: items, Total: len(items)}
}

func toUserList(users []model.User) []dto.UserPayload {
	out := make([]dto.UserPayload, 0, len(users))
	for i := range users {
		out = append(out, dto.FromUser(&users[i]))
	}
	return out
}
