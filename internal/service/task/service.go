package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/postgres"
	apperrors "rusithink-backend/pkg/errors"
)

// TaskRepository interface
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, taskID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	ListAll(ctx context.Context) ([]*domain.Task, error)
	Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.TaskStats, error)
}

// UserDirectory interface
type UserDirectory interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Service handles task business logic
type Service struct {
	taskRepo TaskRepository
	users    UserDirectory
	clock    func() time.Time
}

// NewService creates a new task service
func NewService(taskRepo TaskRepository, users UserDirectory) *Service {
	return &Service{
		taskRepo: taskRepo,
		users:    users,
		clock:    time.Now,
	}
}

// CreateTask creates a task for the caller, or for a named client when the
// caller is the admin
func (s *Service) CreateTask(ctx context.Context, caller domain.Identity, input *domain.TaskCreate) (*domain.Task, error) {
	ownerID := caller.UserID
	if input.OwnerID != "" {
		if !caller.IsAdmin() {
			return nil, apperrors.ForbiddenError("only the admin can create tasks for other users")
		}
		parsed, err := uuid.Parse(input.OwnerID)
		if err != nil {
			return nil, apperrors.InvalidInputError("owner_id must be a uuid")
		}
		owner, err := s.users.GetByID(ctx, parsed)
		if err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return nil, apperrors.UserNotFoundError()
			}
			return nil, apperrors.DatabaseError(err)
		}
		ownerID = owner.UserID
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	now := s.clock().UTC()
	task := &domain.Task{
		TaskID:       uuid.New(),
		OwnerID:      ownerID,
		Title:        input.Title,
		Description:  input.Description,
		DueDatetime:  input.DueDatetime,
		ProjectPrice: input.ProjectPrice,
		Status:       domain.TaskStatusPending,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return task, nil
}

// GetTask retrieves one task the caller is allowed to see
func (s *Service) GetTask(ctx context.Context, caller domain.Identity, taskID uuid.UUID) (*domain.Task, error) {
	return s.authorizedTask(ctx, caller, taskID)
}

// ListTasks retrieves the caller's tasks, or every task for the admin
func (s *Service) ListTasks(ctx context.Context, caller domain.Identity) ([]*domain.Task, error) {
	var tasks []*domain.Task
	var err error
	if caller.IsAdmin() {
		tasks, err = s.taskRepo.ListAll(ctx)
	} else {
		tasks, err = s.taskRepo.ListByOwner(ctx, caller.UserID)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update to a task the caller owns
func (s *Service) UpdateTask(ctx context.Context, caller domain.Identity, taskID uuid.UUID, input *domain.TaskUpdate) (*domain.Task, error) {
	task, err := s.authorizedTask(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.DueDatetime != nil {
		task.DueDatetime = *input.DueDatetime
	}
	if input.ProjectPrice != nil {
		task.ProjectPrice = input.ProjectPrice
	}
	if input.Status != nil {
		if !domain.ValidTaskStatus(*input.Status) {
			return nil, apperrors.InvalidInputError("unknown task status")
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	task.UpdatedAt = s.clock().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return task, nil
}

// UpdateStatus transitions a task to a new lifecycle state
func (s *Service) UpdateStatus(ctx context.Context, caller domain.Identity, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if !domain.ValidTaskStatus(status) {
		return nil, apperrors.InvalidInputError("unknown task status")
	}

	task, err := s.authorizedTask(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	task.Status = status
	task.UpdatedAt = s.clock().UTC()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return task, nil
}

// DeleteTask removes a task the caller owns
func (s *Service) DeleteTask(ctx context.Context, caller domain.Identity, taskID uuid.UUID) error {
	if _, err := s.authorizedTask(ctx, caller, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.TaskNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// Stats aggregates the caller's dashboard overview. The admin sees the whole
// business.
func (s *Service) Stats(ctx context.Context, caller domain.Identity) (*domain.TaskStats, error) {
	var ownerID *uuid.UUID
	if !caller.IsAdmin() {
		ownerID = &caller.UserID
	}

	stats, err := s.taskRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return stats, nil
}

// authorizedTask loads a task and enforces ownership. The admin can reach
// any task; clients only their own.
func (s *Service) authorizedTask(ctx context.Context, caller domain.Identity, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.TaskNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !caller.IsAdmin() && task.OwnerID != caller.UserID {
		return nil, apperrors.AccessDeniedError("task belongs to another user")
	}
	return task, nil
}
