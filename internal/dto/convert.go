package dto

import "github.com/flicky/go-storefront/internal/model"

func ToUser(p UserPayload) *model.User {
	return &model.User{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role}
}

func FromUser(u *model.User) UserPayload {
	return UserPayload{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func ToShipping(p ShippingAddressPayload) model.ShippingAddress {
	return model.ShippingAddress{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Address:    p.Address,
		City:       p.City,
		PostalCode: p.PostalCode,
		Country:    p.Country,
		Phone:      p.Phone,
	}
}

func FromShipping(a model.ShippingAddress) ShippingAddressPayload {
	return ShippingAddressPayload{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Address:    a.Address,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func FromCheckoutItems(items []model.CheckoutItem) []CheckoutItemPayload {
	out := make([]CheckoutItemPayload, 0, len(items))
	for _, it := range items {
		out = append(out, CheckoutItemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return out
}

func FromOrderItems(items []model.OrderItem) []CheckoutItemPayload {
	out := make([]CheckoutItemPayload, 0, len(items))
	for _, it := range items {
		out = append(out, CheckoutItemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return out
}

func ToProduct(p ProductPayload) model.Product {
	out := model.Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		CountInStock:  p.CountInStock,
		SKU:           p.SKU,
		Category:      p.Category,
		Brand:         p.Brand,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		Collections:   p.Collections,
		Material:      p.Material,
		Gender:        p.Gender,
		IsFeatured:    p.IsFeatured,
		IsPublished:   p.IsPublished,
		Rating:        p.Rating,
		NumReviews:    p.NumReviews,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, model.ProductImage{URL: img.URL, AltText: img.AltText})
	}
	return out
}

func ToProducts(ps []ProductPayload) []model.Product {
	out := make([]model.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToProduct(p))
	}
	return out
}

func FromProduct(p *model.Product) ProductPayload {
	out := ProductPayload{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		CountInStock:  p.CountInStock,
		SKU:           p.SKU,
		Category:      p.Category,
		Brand:         p.Brand,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		Collections:   p.Collections,
		Material:      p.Material,
		Gender:        p.Gender,
		IsFeatured:    p.IsFeatured,
		IsPublished:   p.IsPublished,
		Rating:        p.Rating,
		NumReviews:    p.NumReviews,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, ProductImagePayload{URL: img.URL, AltText: img.AltText})
	}
	return out
}

func FromProducts(ps []model.Product) []ProductPayload {
	out := make([]ProductPayload, 0, len(ps))
	for i := range ps {
		out = append(out, FromProduct(&ps[i]))
	}
	return out
}
