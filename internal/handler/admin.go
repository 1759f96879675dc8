package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

const maxUploadSize = 5 << 20

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Summary(c *gin.Context) {
	summary, err := h.adminService.Summary(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AdminSummaryResponse{
		TotalOrders:   summary.TotalOrders,
		TotalSales:    summary.TotalSales,
		TotalProducts: summary.TotalProducts,
	})
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.adminService.ListProducts(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProducts(products))
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product := dto.ToProduct(req)
	product.ID = ""
	created, err := h.adminService.CreateProduct(c.Request.Context(), middleware.GetSession(c), &product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromProduct(created))
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	var req dto.ProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product := dto.ToProduct(req)
	product.ID = c.Param("id")
	updated, err := h.adminService.UpdateProduct(c.Request.Context(), middleware.GetSession(c), &product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(updated))
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	if err := h.adminService.DeleteProduct(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, fmt.Errorf("image file is required: %w", err))
		return
	}
	if header.Size > maxUploadSize {
		badRequest(c, fmt.Errorf("image exceeds %d bytes", maxUploadSize))
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	url, err := h.adminService.UploadImage(c.Request.Context(), middleware.GetSession(c), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.UploadResponse{ImageURL: url})
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	orders, err := h.adminService.ListOrders(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders))
}

func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.adminService.UpdateOrderStatus(c.Request.Context(), middleware.GetSession(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) DeleteOrder(c *gin.Context) {
	if err := h.adminService.DeleteOrder(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserList(users))
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req dto.AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Password) < 6 {
		badRequest(c, fmt.Errorf("password must be at least 6 characters"))
		return
	}
	user := &model.User{Name: req.Name, Email: req.Email, Role: req.Role}
	created, err := h.adminService.CreateUser(c.Request.Context(), middleware.GetSession(c), user, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(created))
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req dto.AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user := &model.User{ID: c.Param("id"), Name: req.Name, Email: req.Email, Role: req.Role}
	if user.Role == "" {
		user.Role = model.RoleCustomer
	}
	updated, err := h.adminService.UpdateUser(c.Request.Context(), middleware.GetSession(c), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(updated))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.adminService.DeleteUser(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
