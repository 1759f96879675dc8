package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse(middleware.GetSession(c)))
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.authService.Register(c.Request.Context(), middleware.GetSession(c), req.Name, req.Email, req.Password)
	h.respond(c, http.StatusCreated, user, err)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.authService.Login(c.Request.Context(), middleware.GetSession(c), req.Email, req.Password)
	h.respond(c, http.StatusOK, user, err)
}

// respond reports a failed cart merge as an error even though the user is
// signed in; the session body tells the UI who it is now.
func (h *AuthHandler) respond(c *gin.Context, status int, user *model.User, err error) {
	if user == nil {
		respondError(c, err)
		return
	}
	sc := middleware.GetSession(c)
	if err != nil {
		_ = c.Error(err)
		c.JSON(statusFor(err), gin.H{
			"error":     apperr.Message(err),
			"retryable": apperr.Retryable(err),
			"session":   sessionResponse(sc),
		})
		return
	}
	c.JSON(status, sessionResponse(sc))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sc := middleware.GetSession(c)
	h.authService.Logout(sc)
	c.JSON(http.StatusOK, sessionResponse(sc))
}

func sessionResponse(sc *session.Context) dto.SessionResponse {
	st := sc.State()
	resp := dto.SessionResponse{
		SessionID: sc.ID,
		GuestID:   st.Auth.GuestID,
		Redirect:  st.Redirect,
	}
	if st.IsAuthenticated() {
		u := dto.FromUser(st.Auth.User)
		resp.User = &u
	}
	if st.Cart.Cart != nil && st.Cart.Cart.Owner == st.Owner() {
		resp.ItemCount = st.Cart.Cart.ItemCount()
	}
	if st.Redirect != "" {
		sc.Dispatch(state.RedirectConsumed{})
	}
	return resp
}
