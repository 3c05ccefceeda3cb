package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/chat"
	"rusithink-backend/internal/service/user"
	"rusithink-backend/pkg/pagination"
	"rusithink-backend/pkg/response"
)

// Handler handles the admin console HTTP requests
type Handler struct {
	chatService *chat.Service
	userService *user.Service
}

// NewHandler creates a new admin handler
func NewHandler(chatService *chat.Service, userService *user.Service) *Handler {
	return &Handler{
		chatService: chatService,
		userService: userService,
	}
}

// BulkDeleteMessagesRequest names the messages to delete
type BulkDeleteMessagesRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required,min=1"`
}

// BulkDeleteUsersRequest names the accounts to delete
type BulkDeleteUsersRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1"`
}

// ListConversations returns the admin inbox
// GET /api/admin/chat/conversations
func (h *Handler) ListConversations(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	output, err := h.chatService.ListConversations(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, output.Conversations)
}

// DeleteMessage removes one message
// DELETE /api/admin/chat/message/:message_id
func (h *Handler) DeleteMessage(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		response.ValidationError(c, "Invalid message ID")
		return
	}

	if err := h.chatService.DeleteMessage(c.Request.Context(), identity, messageID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// DeleteConversation removes a whole client conversation
// DELETE /api/admin/chat/conversation/:client_id
func (h *Handler) DeleteConversation(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	clientID, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		response.ValidationError(c, "Invalid client ID")
		return
	}

	output, err := h.chatService.DeleteConversation(c.Request.Context(), identity, clientID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, output)
}

// BulkDeleteMessages removes a batch of messages
// POST /api/admin/chat/bulk-delete
func (h *Handler) BulkDeleteMessages(c *gin.Context) {
	var req BulkDeleteMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, _ := middleware.IdentityFromContext(c)

	messageIDs := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		messageID, err := uuid.Parse(raw)
		if err != nil {
			response.ValidationError(c, "Invalid message ID: "+raw)
			return
		}
		messageIDs = append(messageIDs, messageID)
	}

	output, err := h.chatService.BulkDeleteMessages(c.Request.Context(), identity, messageIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, output)
}

// ExportConversation downloads one conversation as CSV
// GET /api/admin/chat/export/:client_id
func (h *Handler) ExportConversation(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	clientID, err := uuid.Parse(c.Param("client_id"))
	if err != nil {
		response.ValidationError(c, "Invalid client ID")
		return
	}

	data, err := h.chatService.ExportConversation(c.Request.Context(), identity, clientID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="conversation-`+clientID.String()+`.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ListUsers returns a user directory page
// GET /api/admin/users?page=1&limit=20
func (h *Handler) ListUsers(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	params, err := pagination.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	output, err := h.userService.ListUsers(c.Request.Context(), identity, params)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, output)
}

// GetUser returns one profile
// GET /api/admin/users/:user_id
func (h *Handler) GetUser(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	profile, err := h.userService.GetUser(c.Request.Context(), identity, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// DeleteUser removes a client account and its conversation
// DELETE /api/admin/users/:user_id
func (h *Handler) DeleteUser(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), identity, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// BulkDeleteUsers removes a batch of accounts
// POST /api/admin/users/bulk-delete
func (h *Handler) BulkDeleteUsers(c *gin.Context) {
	var req BulkDeleteUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, _ := middleware.IdentityFromContext(c)

	userIDs := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		userID, err := uuid.Parse(raw)
		if err != nil {
			response.ValidationError(c, "Invalid user ID: "+raw)
			return
		}
		userIDs = append(userIDs, userID)
	}

	output, err := h.userService.BulkDeleteUsers(c.Request.Context(), identity, userIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, output)
}

// ExportUsersCSV downloads the user directory as CSV
// GET /api/admin/users/export/csv
func (h *Handler) ExportUsersCSV(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)

	data, err := h.userService.ExportUsersCSV(c.Request.Context(), identity)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="users.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
