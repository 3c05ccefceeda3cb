package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/chat"
	"rusithink-backend/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	chatService *chat.Service
}

// NewHandler creates a new notification handler
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{chatService: chatService}
}

// UnreadCount returns the caller's unread message total, computed fresh from
// stored messages
// GET /api/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	output, err := h.chatService.UnreadCount(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, output)
}
