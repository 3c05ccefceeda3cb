package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/analytics"
	"rusithink-backend/pkg/response"
)

// Handler handles analytics HTTP requests
type Handler struct {
	analyticsService *analytics.Service
}

// NewHandler creates a new analytics handler
func NewHandler(analyticsService *analytics.Service) *Handler {
	return &Handler{analyticsService: analyticsService}
}

// GetClientAnalytics returns the caller's own analytics snapshot
// GET /api/analytics/client
func (h *Handler) GetClientAnalytics(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	snapshot, err := h.analyticsService.GetClientAnalytics(c.Request.Context(), identity, identity.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// GetAdminAnalytics returns the business-wide monthly window
// GET /api/analytics/admin?months=6
func (h *Handler) GetAdminAnalytics(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	months := 0
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.ValidationError(c, "months must be a number")
			return
		}
		months = parsed
	}

	snapshots, err := h.analyticsService.GetAdminAnalytics(c.Request.Context(), identity, months)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshots)
}

// Recalculate refreshes every stored snapshot
// POST /api/analytics/calculate
func (h *Handler) Recalculate(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	result, err := h.analyticsService.RecalculateAll(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
