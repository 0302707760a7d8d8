package handler

import (
	"net/http"

	"tableside/internal/middleware"
	"tableside/internal/services"
	"tableside/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles staff and table logins.
type AuthHandler struct {
	service      *services.AuthService
	secureCookie bool
}

func NewAuthHandler(service *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req httpdto.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	res, err := h.service.StaffLogin(c.Request.Context(), services.StaffLoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, res)
}

func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var req httpdto.CustomerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	res, err := h.service.CustomerLogin(c.Request.Context(), services.CustomerLoginInput{
		Name:      req.Name,
		TableID:   req.TableID,
		Allergies: req.Allergies,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "logged_out"}))
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(principalDTO(p)))
}

// respond also sets the token cookie so EventSource requests authenticate.
func (h *AuthHandler) respond(c *gin.Context, res services.AuthResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, res.AccessToken, int(res.ExpiresIn), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AuthResponse{
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		Principal:   principalDTO(res.Principal),
	}))
}
