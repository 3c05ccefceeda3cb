package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/postgres"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/export"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/pagination"
)

// UserRepository interface
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, int64, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// MessagePurger removes a user's conversation when the account goes away
type MessagePurger interface {
	DeleteByClient(clientID uuid.UUID) (int, error)
}

// SnapshotPurger removes a user's analytics snapshot when the account goes away
type SnapshotPurger interface {
	DeleteClient(ctx context.Context, clientID uuid.UUID) error
}

// Service handles the admin user directory
type Service struct {
	userRepo  UserRepository
	messages  MessagePurger
	snapshots SnapshotPurger
}

// NewService creates a new user service
func NewService(userRepo UserRepository, messages MessagePurger, snapshots SnapshotPurger) *Service {
	return &Service{
		userRepo:  userRepo,
		messages:  messages,
		snapshots: snapshots,
	}
}

// ListUsers returns a directory page. Admin only.
func (s *Service) ListUsers(ctx context.Context, caller domain.Identity, params *pagination.Params) (*pagination.PagedResponse, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}

	users, total, err := s.userRepo.List(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses := make([]*domain.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return pagination.NewPagedResponse(params, total, responses), nil
}

// GetUser returns one profile. Admin only.
func (s *Service) GetUser(ctx context.Context, caller domain.Identity, userID uuid.UUID) (*domain.UserResponse, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return user.ToResponse(), nil
}

// DeleteUser removes a client account along with its conversation. The admin
// account itself cannot be deleted. Admin only.
func (s *Service) DeleteUser(ctx context.Context, caller domain.Identity, userID uuid.UUID) error {
	if !caller.IsAdmin() {
		return apperrors.AccessDeniedError("admin access required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.UserNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	if user.Role == domain.RoleAdmin {
		return apperrors.ValidationError("the admin account cannot be deleted")
	}

	// Conversation and analytics snapshot go first; a failure here leaves
	// the account intact
	if _, err := s.messages.DeleteByClient(userID); err != nil {
		return apperrors.DatabaseError(err)
	}
	if err := s.snapshots.DeleteClient(ctx, userID); err != nil {
		return apperrors.DatabaseError(err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.UserNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// BulkDeleteUserError reports one failed id in a bulk user delete
type BulkDeleteUserError struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// BulkDeleteOutput is the partial-success outcome of a bulk user delete
type BulkDeleteOutput struct {
	DeletedCount int                   `json:"deleted_count"`
	Errors       []BulkDeleteUserError `json:"errors"`
}

// BulkDeleteUsers removes a batch of accounts with partial success. Admin only.
func (s *Service) BulkDeleteUsers(ctx context.Context, caller domain.Identity, userIDs []uuid.UUID) (*BulkDeleteOutput, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}
	if len(userIDs) == 0 {
		return nil, apperrors.MissingFieldError("user_ids")
	}

	result := &BulkDeleteOutput{Errors: []BulkDeleteUserError{}}
	for _, userID := range userIDs {
		if err := s.DeleteUser(ctx, caller, userID); err != nil {
			result.Errors = append(result.Errors, BulkDeleteUserError{
				UserID: userID.String(),
				Error:  apperrors.GetAppError(err).Message,
			})
			logger.Log.Warn("failed to delete user in bulk operation",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}
		result.DeletedCount++
	}
	return result, nil
}

// exportHeader is the column layout of a user directory export
var exportHeader = []string{"id", "email", "name", "role", "company_name", "phone", "address", "created_at"}

// ExportUsersCSV renders the whole directory as CSV. Admin only.
func (s *Service) ExportUsersCSV(ctx context.Context, caller domain.Identity) ([]byte, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.UserID.String(),
			u.Email,
			u.Name,
			string(u.Role),
			deref(u.CompanyName),
			deref(u.Phone),
			deref(u.Address),
			u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := export.CSV(exportHeader, rows)
	if err != nil {
		return nil, apperrors.InternalError("failed to render export")
	}
	return data, nil
}
