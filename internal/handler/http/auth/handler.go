package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/auth"
	"rusithink-backend/pkg/response"
)

// Handler handles authentication HTTP requests
type Handler struct {
	authService *auth.Service
}

// NewHandler creates a new auth handler
func NewHandler(authService *auth.Service) *Handler {
	return &Handler{authService: authService}
}

// Register handles client registration
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req domain.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	output, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, output)
}

// Login handles client login
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req domain.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, output)
}

// AdminLogin handles admin console login
// POST /api/auth/admin-login
func (h *Handler) AdminLogin(c *gin.Context) {
	var req domain.AdminLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	output, err := h.authService.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, output)
}

// Me returns the authenticated caller's profile
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}
