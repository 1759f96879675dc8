package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	products, err := h.productService.List(c.Request.Context(), middleware.GetSession(c), model.ProductFilter{
		Collection: req.Collection,
		Category:   req.Category,
		Gender:     req.Gender,
		Color:      req.Color,
		Sizes:      req.Size,
		Materials:  req.Material,
		Brands:     req.Brand,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		Search:     req.Search,
		SortBy:     model.SortOrder(req.SortBy),
		Limit:      req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProducts(products))
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(product))
}

func (h *ProductHandler) Similar(c *gin.Context) {
	products, err := h.productService.Similar(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProducts(products))
}

func (h *ProductHandler) BestSeller(c *gin.Context) {
	product, err := h.productService.BestSeller(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(product))
}

func (h *ProductHandler) NewArrivals(c *gin.Context) {
	products, err := h.productService.NewArrivals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProducts(products))
}
