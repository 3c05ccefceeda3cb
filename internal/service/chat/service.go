package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/cassandra"
	"rusithink-backend/internal/repository/postgres"
	"rusithink-backend/pkg/constants"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/export"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/metrics"
)

// TaskFilterGeneral selects only messages of the general thread, which have
// no task attached
const TaskFilterGeneral = "general"

// MessageRepository interface
type MessageRepository interface {
	Save(message *domain.Message) error
	ListByClient(clientID uuid.UUID) ([]*domain.Message, error)
	GetByID(messageID uuid.UUID) (*domain.Message, error)
	MarkRead(message *domain.Message) error
	Delete(messageID uuid.UUID) error
	DeleteByClient(clientID uuid.UUID) (int, error)
}

// UserDirectory interface
type UserDirectory interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetAdmin(ctx context.Context) (*domain.User, error)
	ListClients(ctx context.Context) ([]*domain.User, error)
}

// Publisher interface for real-time delivery
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisAdapter adapts redis.Client to the Publisher interface
type RedisAdapter struct {
	Client *redis.Client
}

// Publish publishes a payload to a Redis channel
func (a *RedisAdapter) Publish(ctx context.Context, channel string, payload []byte) error {
	return a.Client.Publish(ctx, channel, payload).Err()
}

// Service handles chat business logic
type Service struct {
	messageRepo MessageRepository
	users       UserDirectory
	publisher   Publisher
}

// NewService creates a new chat service
func NewService(messageRepo MessageRepository, users UserDirectory, publisher Publisher) *Service {
	return &Service{
		messageRepo: messageRepo,
		users:       users,
		publisher:   publisher,
	}
}

// Channel returns the Redis pub/sub channel of one conversation
func Channel(clientID uuid.UUID) string {
	return fmt.Sprintf("chat:%s", clientID)
}

// SendMessageInput contains message data
type SendMessageInput struct {
	RecipientID uuid.UUID
	Content     string
	TaskID      *uuid.UUID
	Attachment  *domain.Attachment
}

// SendMessageOutput contains sent message info
type SendMessageOutput struct {
	Message *domain.MessageResponse
}

// AuthorizeSend resolves the conversation a message from caller to
// recipientID would land in. Messages are only exchanged between a client
// and the admin; anything else is rejected before any side effect, so
// callers with preparatory work (attachment uploads) run this first.
func (s *Service) AuthorizeSend(ctx context.Context, caller domain.Identity, recipientID uuid.UUID) (uuid.UUID, error) {
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return uuid.Nil, apperrors.UserNotFoundError()
		}
		return uuid.Nil, apperrors.DatabaseError(err)
	}

	// The conversation is always keyed by its client side
	switch {
	case caller.IsAdmin() && recipient.Role == domain.RoleClient:
		return recipient.UserID, nil
	case !caller.IsAdmin() && recipient.Role == domain.RoleAdmin:
		return caller.UserID, nil
	default:
		metrics.ChatMessageSendUnauthorizedTotal.Inc()
		return uuid.Nil, apperrors.ForbiddenError("messages can only be exchanged between a client and the admin")
	}
}

// SendMessage stores a message and publishes it to the conversation channel.
// Clients may only write to the admin; the admin may only write to clients.
func (s *Service) SendMessage(ctx context.Context, caller domain.Identity, input *SendMessageInput) (*SendMessageOutput, error) {
	if input.Attachment == nil && strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.MissingFieldError("content")
	}

	clientID, err := s.AuthorizeSend(ctx, caller, input.RecipientID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		MessageID:   uuid.New(),
		ClientID:    clientID,
		SenderID:    caller.UserID,
		SenderName:  caller.Name,
		SenderRole:  caller.Role,
		RecipientID: input.RecipientID,
		Content:     input.Content,
		Type:        domain.MessageTypeText,
		TaskID:      input.TaskID,
		Read:        false,
		CreatedAt:   time.Now().UTC(),
	}

	if input.Attachment != nil {
		message.Attachment = input.Attachment
		message.Type = domain.MessageTypeForFile(input.Attachment.FileName)
		if strings.TrimSpace(message.Content) == "" {
			message.Content = constants.SharedFilePrefix + input.Attachment.FileName
		}
	}

	if err := s.messageRepo.Save(message); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	metrics.ChatMessageCreatedTotal.WithLabelValues(string(message.Type), string(message.SenderRole)).Inc()

	s.publish(ctx, message)

	return &SendMessageOutput{Message: message.ToResponse()}, nil
}

// publish pushes a stored message to the conversation channel. Delivery is
// best effort; persistence already succeeded.
func (s *Service) publish(ctx context.Context, message *domain.Message) {
	payload, err := json.Marshal(message.ToResponse())
	if err != nil {
		metrics.ChatMessagePublishedTotal.WithLabelValues("error").Inc()
		logger.Log.Warn("failed to marshal message for pub/sub",
			zap.String("message_id", message.MessageID.String()),
			zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, Channel(message.ClientID), payload); err != nil {
		metrics.ChatMessagePublishedTotal.WithLabelValues("error").Inc()
		logger.Log.Warn("failed to publish message",
			zap.String("message_id", message.MessageID.String()),
			zap.Error(err))
		return
	}
	metrics.ChatMessagePublishedTotal.WithLabelValues("ok").Inc()
}

// ListMessagesInput contains query parameters.
// TaskFilter is three-state: empty selects the whole conversation,
// TaskFilterGeneral selects messages without a task, and a task id selects
// one task thread.
type ListMessagesInput struct {
	ClientID   *uuid.UUID
	TaskFilter string
}

// ListMessagesOutput contains the ordered conversation slice
type ListMessagesOutput struct {
	Messages []*domain.MessageResponse
}

// ListMessages retrieves conversation messages in chronological order.
// Clients always read their own conversation regardless of the requested
// client id; the admin must name one.
func (s *Service) ListMessages(ctx context.Context, caller domain.Identity, input *ListMessagesInput) (*ListMessagesOutput, error) {
	clientID, err := s.resolveConversation(ctx, caller, input.ClientID)
	if err != nil {
		return nil, err
	}

	var taskFilter *uuid.UUID
	generalOnly := false
	switch input.TaskFilter {
	case "":
	case TaskFilterGeneral:
		generalOnly = true
	default:
		taskID, parseErr := uuid.Parse(input.TaskFilter)
		if parseErr != nil {
			return nil, apperrors.InvalidInputError("task_id must be a uuid or \"general\"")
		}
		taskFilter = &taskID
	}

	messages, err := s.messageRepo.ListByClient(clientID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses := make([]*domain.MessageResponse, 0, len(messages))
	for _, message := range messages {
		if generalOnly && message.TaskID != nil {
			continue
		}
		if taskFilter != nil && (message.TaskID == nil || *message.TaskID != *taskFilter) {
			continue
		}
		responses = append(responses, message.ToResponse())
	}

	return &ListMessagesOutput{Messages: responses}, nil
}

// resolveConversation maps the caller and an optional requested client id to
// the conversation partition the caller is allowed to read
func (s *Service) resolveConversation(ctx context.Context, caller domain.Identity, requested *uuid.UUID) (uuid.UUID, error) {
	if !caller.IsAdmin() {
		return caller.UserID, nil
	}
	if requested == nil {
		return uuid.Nil, apperrors.MissingFieldError("client_id")
	}
	if _, err := s.clientUser(ctx, *requested); err != nil {
		return uuid.Nil, err
	}
	return *requested, nil
}

// clientUser loads a user and verifies it is a client account
func (s *Service) clientUser(ctx context.Context, clientID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.ClientNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if user.Role != domain.RoleClient {
		return nil, apperrors.ValidationError("user is not a client")
	}
	return user, nil
}

// MarkReadInput names the messages to mark
type MarkReadInput struct {
	MessageIDs []uuid.UUID
}

// MarkReadOutput reports how many messages were actually flipped
type MarkReadOutput struct {
	MarkedCount int `json:"marked_count"`
}

// MarkRead marks messages addressed to the caller as read. Ids that are
// unknown, already read, or addressed to someone else are skipped silently.
func (s *Service) MarkRead(ctx context.Context, caller domain.Identity, input *MarkReadInput) (*MarkReadOutput, error) {
	marked := 0
	for _, messageID := range input.MessageIDs {
		message, err := s.messageRepo.GetByID(messageID)
		if err != nil {
			if errors.Is(err, cassandra.ErrNotFound) {
				continue
			}
			return nil, apperrors.DatabaseError(err)
		}
		if message.Read || message.RecipientID != caller.UserID {
			continue
		}
		if err := s.messageRepo.MarkRead(message); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		marked++
	}
	return &MarkReadOutput{MarkedCount: marked}, nil
}

// UnreadCountOutput carries the caller's unread total
type UnreadCountOutput struct {
	UnreadCount int `json:"unread_count"`
}

// UnreadCount counts unread messages addressed to the caller. The count is
// derived from stored messages on every call, never cached.
func (s *Service) UnreadCount(ctx context.Context, caller domain.Identity) (*UnreadCountOutput, error) {
	if !caller.IsAdmin() {
		count, err := s.countUnread(caller.UserID, caller.UserID)
		if err != nil {
			return nil, err
		}
		return &UnreadCountOutput{UnreadCount: count}, nil
	}

	clients, err := s.users.ListClients(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	total := 0
	for _, client := range clients {
		count, err := s.countUnread(client.UserID, caller.UserID)
		if err != nil {
			return nil, err
		}
		total += count
	}
	return &UnreadCountOutput{UnreadCount: total}, nil
}

func (s *Service) countUnread(clientID, recipientID uuid.UUID) (int, error) {
	messages, err := s.messageRepo.ListByClient(clientID)
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}
	count := 0
	for _, message := range messages {
		if !message.Read && message.RecipientID == recipientID {
			count++
		}
	}
	return count, nil
}

// ListConversationsOutput contains the admin inbox view
type ListConversationsOutput struct {
	Conversations []*domain.ConversationSummary
}

// ListConversations builds the admin inbox: one summary per client that has
// at least one message, most recent activity first.
func (s *Service) ListConversations(ctx context.Context, caller domain.Identity) (*ListConversationsOutput, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}

	clients, err := s.users.ListClients(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	summaries := make([]*domain.ConversationSummary, 0, len(clients))
	for _, client := range clients {
		messages, err := s.messageRepo.ListByClient(client.UserID)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		if len(messages) == 0 {
			continue
		}

		unread := 0
		for _, message := range messages {
			if !message.Read && message.RecipientID == caller.UserID {
				unread++
			}
		}

		last := messages[len(messages)-1]
		summaries = append(summaries, &domain.ConversationSummary{
			Client:          client.ToResponse(),
			UnreadCount:     unread,
			LastMessage:     last.ToResponse(),
			LastMessageTime: last.CreatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
	})

	return &ListConversationsOutput{Conversations: summaries}, nil
}

// DeleteMessage removes one message. Admin only.
func (s *Service) DeleteMessage(ctx context.Context, caller domain.Identity, messageID uuid.UUID) error {
	if !caller.IsAdmin() {
		return apperrors.AccessDeniedError("admin access required")
	}

	if err := s.messageRepo.Delete(messageID); err != nil {
		if errors.Is(err, cassandra.ErrNotFound) {
			return apperrors.MessageNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	metrics.ChatMessageDeletedTotal.WithLabelValues("single").Inc()
	return nil
}

// DeleteConversationOutput reports how many messages the conversation held
type DeleteConversationOutput struct {
	DeletedCount int `json:"deleted_count"`
}

// DeleteConversation removes every message of one client. Admin only.
func (s *Service) DeleteConversation(ctx context.Context, caller domain.Identity, clientID uuid.UUID) (*DeleteConversationOutput, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}
	if _, err := s.clientUser(ctx, clientID); err != nil {
		return nil, err
	}

	count, err := s.messageRepo.DeleteByClient(clientID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	metrics.ChatMessageDeletedTotal.WithLabelValues("conversation").Add(float64(count))
	return &DeleteConversationOutput{DeletedCount: count}, nil
}

// BulkDeleteMessages removes a batch of messages with partial success. Ids
// that fail are reported alongside the count that went through. Admin only.
func (s *Service) BulkDeleteMessages(ctx context.Context, caller domain.Identity, messageIDs []uuid.UUID) (*domain.BulkDeleteResult, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}
	if len(messageIDs) == 0 {
		return nil, apperrors.MissingFieldError("message_ids")
	}

	result := &domain.BulkDeleteResult{Errors: []domain.BulkDeleteError{}}
	for _, messageID := range messageIDs {
		if err := s.messageRepo.Delete(messageID); err != nil {
			reason := "delete failed"
			if errors.Is(err, cassandra.ErrNotFound) {
				reason = "message not found"
			}
			result.Errors = append(result.Errors, domain.BulkDeleteError{
				MessageID: messageID.String(),
				Error:     reason,
			})
			continue
		}
		result.DeletedCount++
	}
	metrics.ChatMessageDeletedTotal.WithLabelValues("bulk").Add(float64(result.DeletedCount))
	return result, nil
}

// exportHeader is the column layout of a conversation export
var exportHeader = []string{"message_id", "created_at", "sender_name", "sender_role", "message_type", "content", "task_id", "file_name", "read"}

// ExportConversation renders one client conversation as CSV in chronological
// order. Admin only.
func (s *Service) ExportConversation(ctx context.Context, caller domain.Identity, clientID uuid.UUID) ([]byte, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}
	if _, err := s.clientUser(ctx, clientID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByClient(clientID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	rows := make([][]string, 0, len(messages))
	for _, message := range messages {
		taskID := ""
		if message.TaskID != nil {
			taskID = message.TaskID.String()
		}
		fileName := ""
		if message.Attachment != nil {
			fileName = message.Attachment.FileName
		}
		rows = append(rows, []string{
			message.MessageID.String(),
			message.CreatedAt.UTC().Format(time.RFC3339),
			message.SenderName,
			string(message.SenderRole),
			string(message.Type),
			message.Content,
			taskID,
			fileName,
			fmt.Sprintf("%t", message.Read),
		})
	}

	data, err := export.CSV(exportHeader, rows)
	if err != nil {
		return nil, apperrors.InternalError("failed to render export")
	}
	return data, nil
}

// AdminInfo returns the public profile of the admin account so clients know
// where their messages go
func (s *Service) AdminInfo(ctx context.Context) (*domain.UserResponse, error) {
	admin, err := s.users.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return admin.ToResponse(), nil
}
