package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes the chat message variants
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Attachment describes a stored file referenced by an image or file message
type Attachment struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
}

// Message represents a chat message entity
// Maps to the Cassandra messages table, partitioned by the client side of the
// admin-client conversation. Clustering by (created_at, message_id) keeps
// ordering total and deterministic even for identical timestamps.
type Message struct {
	MessageID   uuid.UUID   `json:"id" cql:"message_id"`
	ClientID    uuid.UUID   `json:"client_id" cql:"client_id"`
	SenderID    uuid.UUID   `json:"sender_id" cql:"sender_id"`
	SenderName  string      `json:"sender_name" cql:"sender_name"`
	SenderRole  Role        `json:"sender_role" cql:"sender_role"`
	RecipientID uuid.UUID   `json:"recipient_id" cql:"recipient_id"`
	Content     string      `json:"content" cql:"content"`
	Type        MessageType `json:"message_type" cql:"message_type"`
	TaskID      *uuid.UUID  `json:"task_id,omitempty" cql:"task_id"` // nil means the general thread
	Attachment  *Attachment `json:"attachment,omitempty"`
	Read        bool        `json:"read" cql:"is_read"`
	CreatedAt   time.Time   `json:"created_at" cql:"created_at"`
}

// MessageResponse represents the message returned to clients
type MessageResponse struct {
	MessageID   uuid.UUID   `json:"id"`
	SenderID    uuid.UUID   `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	SenderRole  Role        `json:"sender_role"`
	RecipientID uuid.UUID   `json:"recipient_id"`
	Content     string      `json:"content"`
	Type        MessageType `json:"message_type"`
	TaskID      *uuid.UUID  `json:"task_id,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	Read        bool        `json:"read"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ToResponse converts Message to MessageResponse
func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		MessageID:   m.MessageID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		SenderRole:  m.SenderRole,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Type:        m.Type,
		TaskID:      m.TaskID,
		Attachment:  m.Attachment,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
	}
}

// ConversationSummary is the derived per-client conversation view shown to
// the admin. Never stored.
type ConversationSummary struct {
	Client          *UserResponse    `json:"client"`
	UnreadCount     int              `json:"unread_count"`
	LastMessage     *MessageResponse `json:"last_message,omitempty"`
	LastMessageTime time.Time        `json:"last_message_time"`
}

// BulkDeleteError reports one failed id in a bulk message delete
type BulkDeleteError struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// BulkDeleteResult is the partial-success outcome of a bulk message delete
type BulkDeleteResult struct {
	DeletedCount int               `json:"deleted_count"`
	Errors       []BulkDeleteError `json:"errors"`
}

// imageExtensions are the attachment extensions rendered inline
var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"heic": true,
}

// MessageTypeForFile infers the message variant from an attachment file name
func MessageTypeForFile(fileName string) MessageType {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if imageExtensions[ext] {
		return MessageTypeImage
	}
	return MessageTypeFile
}
