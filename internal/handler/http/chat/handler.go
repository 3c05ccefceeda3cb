package chat

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/service/chat"
	"rusithink-backend/internal/service/storage"
	"rusithink-backend/pkg/response"
)

// Handler handles chat HTTP requests
type Handler struct {
	chatService    *chat.Service
	storageService *storage.Service
}

// NewHandler creates a new chat handler
func NewHandler(chatService *chat.Service, storageService *storage.Service) *Handler {
	return &Handler{
		chatService:    chatService,
		storageService: storageService,
	}
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Content     string `json:"content" binding:"required"`
	TaskID      string `json:"task_id" binding:"omitempty,uuid"`
}

// MarkReadRequest names the messages to mark as read
type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required,min=1"`
}

// AdminInfo returns the admin profile clients message
// GET /api/chat/admin-info
func (h *Handler) AdminInfo(c *gin.Context) {
	info, err := h.chatService.AdminInfo(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

// SendMessage handles sending a new message
// POST /api/chat/messages
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		response.ValidationError(c, "Invalid recipient ID")
		return
	}

	input := &chat.SendMessageInput{
		RecipientID: recipientID,
		Content:     req.Content,
	}
	if req.TaskID != "" {
		taskID, err := uuid.Parse(req.TaskID)
		if err != nil {
			response.ValidationError(c, "Invalid task ID")
			return
		}
		input.TaskID = &taskID
	}

	output, err := h.chatService.SendMessage(c.Request.Context(), identity, input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, output.Message)
}

// GetMessages retrieves conversation messages
// GET /api/chat/messages?client_id=uuid&task_id=uuid|general
func (h *Handler) GetMessages(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	input := &chat.ListMessagesInput{
		TaskFilter: c.Query("task_id"),
	}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			response.ValidationError(c, "Invalid client ID")
			return
		}
		input.ClientID = &clientID
	}

	output, err := h.chatService.ListMessages(c.Request.Context(), identity, input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, output.Messages)
}

// MarkRead marks messages addressed to the caller as read
// POST /api/chat/messages/mark-read
func (h *Handler) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	messageIDs := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		messageID, err := uuid.Parse(raw)
		if err != nil {
			response.ValidationError(c, "Invalid message ID: "+raw)
			return
		}
		messageIDs = append(messageIDs, messageID)
	}

	output, err := h.chatService.MarkRead(c.Request.Context(), identity, &chat.MarkReadInput{MessageIDs: messageIDs})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, output)
}

// Upload stores an attachment and sends it as a message
// POST /api/chat/upload (multipart: file, recipient_id, optional task_id, optional content)
func (h *Handler) Upload(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	recipientID, err := uuid.Parse(c.PostForm("recipient_id"))
	if err != nil {
		response.ValidationError(c, "Invalid recipient ID")
		return
	}

	input := &chat.SendMessageInput{
		RecipientID: recipientID,
		Content:     c.PostForm("content"),
	}
	if raw := c.PostForm("task_id"); raw != "" {
		taskID, err := uuid.Parse(raw)
		if err != nil {
			response.ValidationError(c, "Invalid task ID")
			return
		}
		input.TaskID = &taskID
	}

	// Reject an unauthorized send before the blob is stored; otherwise every
	// rejected request would leave an orphaned object behind
	if _, err := h.chatService.AuthorizeSend(c.Request.Context(), identity, recipientID); err != nil {
		response.FromError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "File is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read upload")
		return
	}
	defer file.Close()

	attachment, err := h.storageService.Upload(
		c.Request.Context(),
		identity.UserID,
		fileHeader.Filename,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		response.FromError(c, err)
		return
	}
	input.Attachment = attachment

	output, err := h.chatService.SendMessage(c.Request.Context(), identity, input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, output.Message)
}

// DownloadFile streams a stored attachment
// GET /api/chat/files/*object
func (h *Handler) DownloadFile(c *gin.Context) {
	objectKey := c.Param("object")
	if len(objectKey) > 0 && objectKey[0] == '/' {
		objectKey = objectKey[1:]
	}
	if objectKey == "" {
		response.ValidationError(c, "File path is required")
		return
	}

	reader, err := h.storageService.Download(c.Request.Context(), objectKey)
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are gone already; nothing left to report to the client
		return
	}
}
