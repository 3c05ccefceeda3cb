package cassandra

import (
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"rusithink-backend/internal/domain"
)

// ErrNotFound is returned when a message id does not exist
var ErrNotFound = errors.New("message not found")

// MessageRepository handles message storage in Cassandra.
// The messages table is partitioned per client conversation; messages_by_id
// maps a message id back to its partition for point operations.
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

const messageColumns = `client_id, created_at, message_id, sender_id, sender_name,
	       sender_role, recipient_id, content, message_type, task_id,
	       file_name, file_url, file_size, is_read`

// messageRow buffers one Cassandra row before nullable columns are folded
// into the domain shape
type messageRow struct {
	message  domain.Message
	taskID   uuid.UUID
	fileName string
	fileURL  string
	fileSize int64
}

func (row *messageRow) dest() []interface{} {
	return []interface{}{
		&row.message.ClientID,
		&row.message.CreatedAt,
		&row.message.MessageID,
		&row.message.SenderID,
		&row.message.SenderName,
		&row.message.SenderRole,
		&row.message.RecipientID,
		&row.message.Content,
		&row.message.Type,
		&row.taskID,
		&row.fileName,
		&row.fileURL,
		&row.fileSize,
		&row.message.Read,
	}
}

func (row *messageRow) toMessage() *domain.Message {
	message := row.message
	if row.taskID != uuid.Nil {
		taskID := row.taskID
		message.TaskID = &taskID
	}
	if row.fileName != "" {
		message.Attachment = &domain.Attachment{
			FileName: row.fileName,
			FileURL:  row.fileURL,
			FileSize: row.fileSize,
		}
	}
	return &message
}

// Save inserts a new message into both tables
func (r *MessageRepository) Save(message *domain.Message) error {
	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	taskID := message.TaskID
	var fileName, fileURL string
	var fileSize int64
	if message.Attachment != nil {
		fileName = message.Attachment.FileName
		fileURL = message.Attachment.FileURL
		fileSize = message.Attachment.FileSize
	}

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(query,
		message.ClientID,
		message.CreatedAt,
		message.MessageID,
		message.SenderID,
		message.SenderName,
		message.SenderRole,
		message.RecipientID,
		message.Content,
		message.Type,
		taskID,
		fileName,
		fileURL,
		fileSize,
		message.Read,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	err = r.session.Query(
		`INSERT INTO messages_by_id (message_id, client_id, created_at) VALUES (?, ?, ?)`,
		message.MessageID, message.ClientID, message.CreatedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to index message: %w", err)
	}

	return nil
}

// ListByClient retrieves all messages of one conversation in chronological
// order. Ordering comes from the clustering key, not a sort here.
func (r *MessageRepository) ListByClient(clientID uuid.UUID) ([]*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE client_id = ?`

	iter := r.session.Query(query, clientID).Iter()

	var messages []*domain.Message
	for {
		row := &messageRow{}
		if !iter.Scan(row.dest()...) {
			break
		}
		messages = append(messages, row.toMessage())
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return messages, nil
}

// locate resolves a message id to its partition coordinates
func (r *MessageRepository) locate(messageID uuid.UUID) (uuid.UUID, time.Time, error) {
	var clientID uuid.UUID
	var createdAt time.Time

	err := r.session.Query(
		`SELECT client_id, created_at FROM messages_by_id WHERE message_id = ?`,
		messageID,
	).Scan(&clientID, &createdAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return uuid.Nil, time.Time{}, ErrNotFound
		}
		return uuid.Nil, time.Time{}, fmt.Errorf("failed to locate message: %w", err)
	}
	return clientID, createdAt, nil
}

// GetByID retrieves a specific message
func (r *MessageRepository) GetByID(messageID uuid.UUID) (*domain.Message, error) {
	clientID, createdAt, err := r.locate(messageID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE client_id = ? AND created_at = ? AND message_id = ?
	`

	row := &messageRow{}
	err = r.session.Query(query, clientID, createdAt, messageID).Scan(row.dest()...)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return row.toMessage(), nil
}

// MarkRead flips the read flag of one message
func (r *MessageRepository) MarkRead(message *domain.Message) error {
	query := `
		UPDATE messages SET is_read = true
		WHERE client_id = ? AND created_at = ? AND message_id = ?
	`

	err := r.session.Query(query, message.ClientID, message.CreatedAt, message.MessageID).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// Delete removes a message from both tables
func (r *MessageRepository) Delete(messageID uuid.UUID) error {
	clientID, createdAt, err := r.locate(messageID)
	if err != nil {
		return err
	}

	err = r.session.Query(
		`DELETE FROM messages WHERE client_id = ? AND created_at = ? AND message_id = ?`,
		clientID, createdAt, messageID,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	err = r.session.Query(`DELETE FROM messages_by_id WHERE message_id = ?`, messageID).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete message index: %w", err)
	}
	return nil
}

// DeleteByClient removes an entire conversation and returns how many messages
// it held. Index rows go first so the id table never points at a live
// partition after a partial failure.
func (r *MessageRepository) DeleteByClient(clientID uuid.UUID) (int, error) {
	iter := r.session.Query(`SELECT message_id FROM messages WHERE client_id = ?`, clientID).Iter()

	var ids []uuid.UUID
	var id uuid.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("failed to list conversation messages: %w", err)
	}

	for _, messageID := range ids {
		err := r.session.Query(`DELETE FROM messages_by_id WHERE message_id = ?`, messageID).Exec()
		if err != nil {
			return 0, fmt.Errorf("failed to delete message index: %w", err)
		}
	}

	err := r.session.Query(`DELETE FROM messages WHERE client_id = ?`, clientID).Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversation: %w", err)
	}

	return len(ids), nil
}
