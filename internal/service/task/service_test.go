package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/postgres"
	apperrors "rusithink-backend/pkg/errors"
)

// Mocks
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, taskID uuid.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) ListAll(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.TaskStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskStats), args.Error(1)
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

// Fixtures

var (
	adminID  = uuid.New()
	clientID = uuid.New()
	otherID  = uuid.New()
)

func adminIdentity() domain.Identity {
	return domain.Identity{UserID: adminID, Role: domain.RoleAdmin}
}

func clientIdentity(id uuid.UUID) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleClient}
}

func newTestService() (*Service, *MockTaskRepository, *MockUserDirectory) {
	taskRepo := new(MockTaskRepository)
	users := new(MockUserDirectory)
	svc := NewService(taskRepo, users)
	svc.clock = func() time.Time { return time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC) }
	return svc, taskRepo, users
}

func ownedTask(owner uuid.UUID) *domain.Task {
	return &domain.Task{
		TaskID:      uuid.New(),
		OwnerID:     owner,
		Title:       "website redesign",
		DueDatetime: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:      domain.TaskStatusPending,
		Priority:    domain.TaskPriorityMedium,
	}
}

// Tests

func TestCreateTaskDefaults(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	taskRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Task")).Return(nil)

	out, err := svc.CreateTask(context.Background(), clientIdentity(clientID), &domain.TaskCreate{
		Title:       "new project",
		DueDatetime: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, clientID, out.OwnerID)
	assert.Equal(t, domain.TaskStatusPending, out.Status)
	assert.Equal(t, domain.TaskPriorityMedium, out.Priority)
	assert.NotEqual(t, uuid.Nil, out.TaskID)
}

func TestCreateTaskForOtherUserRequiresAdmin(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	_, err := svc.CreateTask(context.Background(), clientIdentity(clientID), &domain.TaskCreate{
		Title:       "sneaky",
		DueDatetime: time.Now(),
		OwnerID:     otherID.String(),
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetAppError(err).Code)
	taskRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateTaskAdminAssignsOwner(t *testing.T) {
	svc, taskRepo, users := newTestService()

	users.On("GetByID", mock.Anything, clientID).Return(&domain.User{UserID: clientID, Role: domain.RoleClient}, nil)
	taskRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Task")).Return(nil)

	price := decimal.RequireFromString("1500.00")
	out, err := svc.CreateTask(context.Background(), adminIdentity(), &domain.TaskCreate{
		Title:        "client project",
		DueDatetime:  time.Now(),
		ProjectPrice: &price,
		OwnerID:      clientID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, clientID, out.OwnerID)
	assert.True(t, out.ProjectPrice.Equal(price))
}

func TestGetTaskOwnership(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	task := ownedTask(otherID)
	taskRepo.On("GetByID", mock.Anything, task.TaskID).Return(task, nil)

	_, err := svc.GetTask(context.Background(), clientIdentity(clientID), task.TaskID)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)

	// The admin reaches any task
	got, err := svc.GetTask(context.Background(), adminIdentity(), task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, task.TaskID, got.TaskID)
}

func TestGetTaskNotFound(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	missing := uuid.New()
	taskRepo.On("GetByID", mock.Anything, missing).Return(nil, postgres.ErrNotFound)

	_, err := svc.GetTask(context.Background(), adminIdentity(), missing)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTaskNotFound, apperrors.GetAppError(err).Code)
}

func TestListTasksScoping(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	taskRepo.On("ListByOwner", mock.Anything, clientID).Return([]*domain.Task{ownedTask(clientID)}, nil)
	taskRepo.On("ListAll", mock.Anything).Return([]*domain.Task{ownedTask(clientID), ownedTask(otherID)}, nil)

	own, err := svc.ListTasks(context.Background(), clientIdentity(clientID))
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := svc.ListTasks(context.Background(), adminIdentity())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateTaskPartial(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	task := ownedTask(clientID)
	taskRepo.On("GetByID", mock.Anything, task.TaskID).Return(task, nil)
	taskRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Task")).Return(nil)

	title := "renamed"
	status := domain.TaskStatusCompleted
	out, err := svc.UpdateTask(context.Background(), clientIdentity(clientID), task.TaskID, &domain.TaskUpdate{
		Title:  &title,
		Status: &status,
	})

	require.NoError(t, err)
	assert.Equal(t, "renamed", out.Title)
	assert.Equal(t, domain.TaskStatusCompleted, out.Status)
	assert.Equal(t, domain.TaskPriorityMedium, out.Priority)
}

func TestUpdateStatusInvalid(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UpdateStatus(context.Background(), clientIdentity(clientID), uuid.New(), "archived")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetAppError(err).Code)
}

func TestDeleteTaskForeignForbidden(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	task := ownedTask(otherID)
	taskRepo.On("GetByID", mock.Anything, task.TaskID).Return(task, nil)

	err := svc.DeleteTask(context.Background(), clientIdentity(clientID), task.TaskID)

	require.Error(t, err)
	taskRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestStatsScoping(t *testing.T) {
	svc, taskRepo, _ := newTestService()

	taskRepo.On("Stats", mock.Anything, &clientID).Return(&domain.TaskStats{TotalTasks: 2}, nil)
	taskRepo.On("Stats", mock.Anything, (*uuid.UUID)(nil)).Return(&domain.TaskStats{TotalTasks: 10}, nil)

	own, err := svc.Stats(context.Background(), clientIdentity(clientID))
	require.NoError(t, err)
	assert.Equal(t, 2, own.TotalTasks)

	all, err := svc.Stats(context.Background(), adminIdentity())
	require.NoError(t, err)
	assert.Equal(t, 10, all.TotalTasks)
}
