package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/cassandra"
	"rusithink-backend/internal/repository/postgres"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/logger"
)

func init() {
	logger.InitDefault()
}

// Mocks
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Save(message *domain.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByClient(clientID uuid.UUID) ([]*domain.Message, error) {
	args := m.Called(clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByID(messageID uuid.UUID) (*domain.Message, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(message *domain.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageRepository) Delete(messageID uuid.UUID) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *MockMessageRepository) DeleteByClient(clientID uuid.UUID) (int, error) {
	args := m.Called(clientID)
	return args.Int(0), args.Error(1)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) GetAdmin(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) ListClients(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

// Fixtures

var (
	adminID  = uuid.New()
	clientID = uuid.New()
	otherID  = uuid.New()
)

func adminUser() *domain.User {
	return &domain.User{UserID: adminID, Email: "admin@rusithink.local", Name: "RusiThink Admin", Role: domain.RoleAdmin}
}

func clientUser2(id uuid.UUID, name string) *domain.User {
	return &domain.User{UserID: id, Email: name + "@example.com", Name: name, Role: domain.RoleClient}
}

func adminIdentity() domain.Identity {
	return domain.Identity{UserID: adminID, Role: domain.RoleAdmin, Name: "RusiThink Admin"}
}

func clientIdentity(id uuid.UUID) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleClient, Name: "Client"}
}

func message(client, sender, recipient uuid.UUID, content string, read bool, createdAt time.Time) *domain.Message {
	role := domain.RoleClient
	if sender == adminID {
		role = domain.RoleAdmin
	}
	return &domain.Message{
		MessageID:   uuid.New(),
		ClientID:    client,
		SenderID:    sender,
		SenderRole:  role,
		RecipientID: recipient,
		Content:     content,
		Type:        domain.MessageTypeText,
		Read:        read,
		CreatedAt:   createdAt,
	}
}

func newTestService() (*Service, *MockMessageRepository, *MockUserDirectory, *MockPublisher) {
	messageRepo := new(MockMessageRepository)
	users := new(MockUserDirectory)
	publisher := new(MockPublisher)
	return NewService(messageRepo, users, publisher), messageRepo, users, publisher
}

// Tests

func TestSendMessageClientToAdmin(t *testing.T) {
	svc, messageRepo, users, publisher := newTestService()

	users.On("GetByID", mock.Anything, adminID).Return(adminUser(), nil)
	messageRepo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	publisher.On("Publish", mock.Anything, "chat:"+clientID.String(), mock.Anything).Return(nil)

	out, err := svc.SendMessage(context.Background(), clientIdentity(clientID), &SendMessageInput{
		RecipientID: adminID,
		Content:     "hello",
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", out.Message.Content)
	assert.Equal(t, domain.MessageTypeText, out.Message.Type)
	assert.False(t, out.Message.Read)

	// Conversation is keyed by the client side
	saved := messageRepo.Calls[0].Arguments.Get(0).(*domain.Message)
	assert.Equal(t, clientID, saved.ClientID)
	publisher.AssertExpectations(t)
}

func TestSendMessageAdminToClient(t *testing.T) {
	svc, messageRepo, users, publisher := newTestService()

	users.On("GetByID", mock.Anything, clientID).Return(clientUser2(clientID, "alice"), nil)
	messageRepo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	publisher.On("Publish", mock.Anything, "chat:"+clientID.String(), mock.Anything).Return(nil)

	out, err := svc.SendMessage(context.Background(), adminIdentity(), &SendMessageInput{
		RecipientID: clientID,
		Content:     "hi alice",
	})

	require.NoError(t, err)
	saved := messageRepo.Calls[0].Arguments.Get(0).(*domain.Message)
	assert.Equal(t, clientID, saved.ClientID)
	assert.Equal(t, domain.RoleAdmin, out.Message.SenderRole)
}

func TestSendMessageClientToClientForbidden(t *testing.T) {
	svc, messageRepo, users, _ := newTestService()

	users.On("GetByID", mock.Anything, otherID).Return(clientUser2(otherID, "bob"), nil)

	_, err := svc.SendMessage(context.Background(), clientIdentity(clientID), &SendMessageInput{
		RecipientID: otherID,
		Content:     "psst",
	})

	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
	messageRepo.AssertNotCalled(t, "Save", mock.Anything)
}

func TestAuthorizeSendResolvesConversation(t *testing.T) {
	svc, _, users, _ := newTestService()

	users.On("GetByID", mock.Anything, adminID).Return(adminUser(), nil)
	users.On("GetByID", mock.Anything, clientID).Return(clientUser2(clientID, "alice"), nil)

	got, err := svc.AuthorizeSend(context.Background(), clientIdentity(clientID), adminID)
	require.NoError(t, err)
	assert.Equal(t, clientID, got)

	got, err = svc.AuthorizeSend(context.Background(), adminIdentity(), clientID)
	require.NoError(t, err)
	assert.Equal(t, clientID, got)
}

// An unauthorized pair is rejected by AuthorizeSend alone, so callers that
// stage work before SendMessage (attachment uploads) can bail out without
// leaving anything behind.
func TestAuthorizeSendRejectsClientPairBeforeAnyWrite(t *testing.T) {
	svc, messageRepo, users, publisher := newTestService()

	users.On("GetByID", mock.Anything, otherID).Return(clientUser2(otherID, "bob"), nil)

	_, err := svc.AuthorizeSend(context.Background(), clientIdentity(clientID), otherID)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetAppError(err).Code)
	messageRepo.AssertNotCalled(t, "Save", mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageEmptyContent(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.SendMessage(context.Background(), clientIdentity(clientID), &SendMessageInput{
		RecipientID: adminID,
		Content:     "   ",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetAppError(err).Code)
}

func TestSendMessagePublishFailureDoesNotFailSend(t *testing.T) {
	svc, messageRepo, users, publisher := newTestService()

	users.On("GetByID", mock.Anything, adminID).Return(adminUser(), nil)
	messageRepo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.SendMessage(context.Background(), clientIdentity(clientID), &SendMessageInput{
		RecipientID: adminID,
		Content:     "still delivered",
	})

	require.NoError(t, err)
}

func TestSendMessageWithAttachmentInfersType(t *testing.T) {
	svc, messageRepo, users, publisher := newTestService()

	users.On("GetByID", mock.Anything, adminID).Return(adminUser(), nil)
	messageRepo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	out, err := svc.SendMessage(context.Background(), clientIdentity(clientID), &SendMessageInput{
		RecipientID: adminID,
		Content:     "Shared file: photo.PNG",
		Attachment:  &domain.Attachment{FileName: "photo.PNG", FileURL: "/api/chat/files/photo.PNG", FileSize: 1024},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeImage, out.Message.Type)
	require.NotNil(t, out.Message.Attachment)
	assert.Equal(t, int64(1024), out.Message.Attachment.FileSize)
}

func TestListMessagesClientIgnoresRequestedClientID(t *testing.T) {
	svc, messageRepo, _, _ := newTestService()

	own := []*domain.Message{message(clientID, clientID, adminID, "mine", false, time.Now())}
	messageRepo.On("ListByClient", clientID).Return(own, nil)

	// A client asking for someone else's conversation still gets its own
	foreign := otherID
	out, err := svc.ListMessages(context.Background(), clientIdentity(clientID), &ListMessagesInput{ClientID: &foreign})

	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "mine", out.Messages[0].Content)
	messageRepo.AssertCalled(t, "ListByClient", clientID)
	messageRepo.AssertNotCalled(t, "ListByClient", otherID)
}

func TestListMessagesAdminRequiresClientID(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.ListMessages(context.Background(), adminIdentity(), &ListMessagesInput{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetAppError(err).Code)
}

func TestListMessagesTaskFilter(t *testing.T) {
	taskID := uuid.New()
	now := time.Now()

	general := message(clientID, clientID, adminID, "general question", false, now)
	threaded := message(clientID, clientID, adminID, "about the task", false, now.Add(time.Minute))
	threaded.TaskID = &taskID

	cases := []struct {
		name   string
		filter string
		want   []string
	}{
		{"whole conversation", "", []string{"general question", "about the task"}},
		{"general thread only", TaskFilterGeneral, []string{"general question"}},
		{"one task thread", taskID.String(), []string{"about the task"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, messageRepo, _, _ := newTestService()
			messageRepo.On("ListByClient", clientID).Return([]*domain.Message{general, threaded}, nil)

			out, err := svc.ListMessages(context.Background(), clientIdentity(clientID), &ListMessagesInput{TaskFilter: tc.filter})

			require.NoError(t, err)
			require.Len(t, out.Messages, len(tc.want))
			for i, content := range tc.want {
				assert.Equal(t, content, out.Messages[i].Content)
			}
		})
	}
}

func TestListMessagesInvalidTaskFilter(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.ListMessages(context.Background(), clientIdentity(clientID), &ListMessagesInput{TaskFilter: "not-a-uuid"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetAppError(err).Code)
}

func TestMarkReadSkipsForeignAndAlreadyRead(t *testing.T) {
	svc, messageRepo, _, _ := newTestService()

	mine := message(clientID, adminID, clientID, "to me", false, time.Now())
	alreadyRead := message(clientID, adminID, clientID, "seen", true, time.Now())
	foreign := message(otherID, adminID, otherID, "not mine", false, time.Now())
	unknown := uuid.New()

	messageRepo.On("GetByID", mine.MessageID).Return(mine, nil)
	messageRepo.On("GetByID", alreadyRead.MessageID).Return(alreadyRead, nil)
	messageRepo.On("GetByID", foreign.MessageID).Return(foreign, nil)
	messageRepo.On("GetByID", unknown).Return(nil, cassandra.ErrNotFound)
	messageRepo.On("MarkRead", mine).Return(nil)

	out, err := svc.MarkRead(context.Background(), clientIdentity(clientID), &MarkReadInput{
		MessageIDs: []uuid.UUID{mine.MessageID, alreadyRead.MessageID, foreign.MessageID, unknown},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, out.MarkedCount)
	messageRepo.AssertNumberOfCalls(t, "MarkRead", 1)
}

func TestUnreadCountClient(t *testing.T) {
	svc, messageRepo, _, _ := newTestService()

	messages := []*domain.Message{
		message(clientID, adminID, clientID, "unread", false, time.Now()),
		message(clientID, adminID, clientID, "read", true, time.Now()),
		message(clientID, clientID, adminID, "sent by me", false, time.Now()),
	}
	messageRepo.On("ListByClient", clientID).Return(messages, nil)

	out, err := svc.UnreadCount(context.Background(), clientIdentity(clientID))

	require.NoError(t, err)
	assert.Equal(t, 1, out.UnreadCount)
}

func TestUnreadCountAdminSumsAcrossClients(t *testing.T) {
	svc, messageRepo, users, _ := newTestService()

	alice := clientUser2(clientID, "alice")
	bob := clientUser2(otherID, "bob")
	users.On("ListClients", mock.Anything).Return([]*domain.User{alice, bob}, nil)

	messageRepo.On("ListByClient", clientID).Return([]*domain.Message{
		message(clientID, clientID, adminID, "one", false, time.Now()),
		message(clientID, clientID, adminID, "two", false, time.Now()),
	}, nil)
	messageRepo.On("ListByClient", otherID).Return([]*domain.Message{
		message(otherID, otherID, adminID, "three", false, time.Now()),
		message(otherID, adminID, otherID, "admin reply", false, time.Now()),
	}, nil)

	out, err := svc.UnreadCount(context.Background(), adminIdentity())

	require.NoError(t, err)
	assert.Equal(t, 3, out.UnreadCount)
}

func TestListConversationsSkipsEmptyAndSortsByRecency(t *testing.T) {
	svc, messageRepo, users, _ := newTestService()

	alice := clientUser2(clientID, "alice")
	bob := clientUser2(otherID, "bob")
	quiet := clientUser2(uuid.New(), "quiet")
	users.On("ListClients", mock.Anything).Return([]*domain.User{alice, bob, quiet}, nil)

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	messageRepo.On("ListByClient", alice.UserID).Return([]*domain.Message{
		message(alice.UserID, alice.UserID, adminID, "old", false, older),
	}, nil)
	messageRepo.On("ListByClient", bob.UserID).Return([]*domain.Message{
		message(bob.UserID, bob.UserID, adminID, "new", false, newer),
	}, nil)
	messageRepo.On("ListByClient", quiet.UserID).Return([]*domain.Message{}, nil)

	out, err := svc.ListConversations(context.Background(), adminIdentity())

	require.NoError(t, err)
	require.Len(t, out.Conversations, 2)
	assert.Equal(t, "bob", out.Conversations[0].Client.Name)
	assert.Equal(t, "alice", out.Conversations[1].Client.Name)
	assert.Equal(t, 1, out.Conversations[0].UnreadCount)
}

func TestListConversationsClientForbidden(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.ListConversations(context.Background(), clientIdentity(clientID))

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
}

func TestDeleteConversationUnknownClient(t *testing.T) {
	svc, _, users, _ := newTestService()

	users.On("GetByID", mock.Anything, otherID).Return(nil, postgres.ErrNotFound)

	_, err := svc.DeleteConversation(context.Background(), adminIdentity(), otherID)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeClientNotFound, apperrors.GetAppError(err).Code)
}

func TestDeleteConversationAdminIDRejected(t *testing.T) {
	svc, _, users, _ := newTestService()

	users.On("GetByID", mock.Anything, adminID).Return(adminUser(), nil)

	_, err := svc.DeleteConversation(context.Background(), adminIdentity(), adminID)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
}

func TestBulkDeleteMessagesPartialSuccess(t *testing.T) {
	svc, messageRepo, _, _ := newTestService()

	ok1, missing, ok2 := uuid.New(), uuid.New(), uuid.New()
	messageRepo.On("Delete", ok1).Return(nil)
	messageRepo.On("Delete", missing).Return(cassandra.ErrNotFound)
	messageRepo.On("Delete", ok2).Return(nil)

	out, err := svc.BulkDeleteMessages(context.Background(), adminIdentity(), []uuid.UUID{ok1, missing, ok2})

	require.NoError(t, err)
	assert.Equal(t, 2, out.DeletedCount)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, missing.String(), out.Errors[0].MessageID)
}

func TestExportConversationCSV(t *testing.T) {
	svc, messageRepo, users, _ := newTestService()

	alice := clientUser2(clientID, "alice")
	users.On("GetByID", mock.Anything, clientID).Return(alice, nil)

	first := message(clientID, clientID, adminID, "hello", true, time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC))
	second := message(clientID, adminID, clientID, "hi, \"alice\"", false, time.Date(2025, 7, 1, 11, 0, 0, 0, time.UTC))
	messageRepo.On("ListByClient", clientID).Return([]*domain.Message{first, second}, nil)

	data, err := svc.ExportConversation(context.Background(), adminIdentity(), clientID)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "message_id")
	assert.Contains(t, lines[1], "hello")
	// CSV quoting keeps embedded quotes intact
	assert.Contains(t, lines[2], `"hi, ""alice"""`)
}

func TestAdminInfo(t *testing.T) {
	svc, _, users, _ := newTestService()

	users.On("GetAdmin", mock.Anything).Return(adminUser(), nil)

	info, err := svc.AdminInfo(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, info.Role)
	assert.Equal(t, "RusiThink Admin", info.Name)
}
