package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) Create(c *gin.Context) {
	var req dto.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkout, err := h.checkoutService.Create(c.Request.Context(), middleware.GetSession(c),
		dto.ToShipping(req.ShippingAddress), req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(checkout))
}

func (h *CheckoutHandler) Current(c *gin.Context) {
	checkout := h.checkoutService.Current(middleware.GetSession(c))
	if checkout == nil {
		respondError(c, apperr.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(checkout))
}

// Pay captures an approved provider order when providerOrderId is given,
// otherwise records the details of a capture the UI completed. Either way a
// successful payment is finalized into an order.
func (h *CheckoutHandler) Pay(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ProviderOrderID == "" && len(req.PaymentDetails) == 0 {
		badRequest(c, errors.New("providerOrderId or paymentDetails is required"))
		return
	}

	var (
		sc    = middleware.GetSession(c)
		id    = c.Param("id")
		order *model.Order
		err   error
	)
	if req.ProviderOrderID != "" {
		order, err = h.checkoutService.PayWithProvider(c.Request.Context(), sc, id, req.ProviderOrderID)
	} else {
		order, err = h.checkoutService.CompletePayment(c.Request.Context(), sc, id, req.PaymentDetails)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Finalize retries finalization of a checkout that is already paid.
func (h *CheckoutHandler) Finalize(c *gin.Context) {
	order, err := h.checkoutService.Finalize(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}
