package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rusithink-backend/internal/config"
	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/postgres"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/jwt"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/password"
)

func init() {
	logger.InitDefault()
}

// Mocks
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetAdmin(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// Fixtures

var testSecret = "0123456789abcdef0123456789abcdef"

func testAdminConfig() config.AdminConfig {
	return config.AdminConfig{
		Username: "rusithink",
		Email:    "admin@rusithink.local",
		Name:     "RusiThink",
		Password: "super-secret-admin",
	}
}

func newTestService() (*Service, *MockUserRepository) {
	userRepo := new(MockUserRepository)
	manager := jwt.NewManager(testSecret, time.Hour)
	return NewService(userRepo, manager, testAdminConfig()), userRepo
}

func hashed(plaintext string) string {
	hash, err := password.Hash(plaintext)
	if err != nil {
		panic(err)
	}
	return hash
}

// Tests

func TestRegisterNewClient(t *testing.T) {
	svc, userRepo := newTestService()

	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, postgres.ErrNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	out, err := svc.Register(context.Background(), &domain.UserCreate{
		Email:     "Alice@Example.com",
		Password:  "strongpass1",
		FirstName: "Alice",
		LastName:  "Smith",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.Equal(t, "Alice Smith", out.User.Name)
	assert.Equal(t, domain.RoleClient, out.User.Role)
	assert.NotEmpty(t, out.AccessToken)

	created := userRepo.Calls[1].Arguments.Get(1).(*domain.User)
	assert.NotEqual(t, "strongpass1", created.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, userRepo := newTestService()

	existing := &domain.User{UserID: uuid.New(), Email: "alice@example.com", Role: domain.RoleClient}
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(existing, nil)

	_, err := svc.Register(context.Background(), &domain.UserCreate{
		Email:     "alice@example.com",
		Password:  "strongpass1",
		FirstName: "Alice",
		LastName:  "Smith",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmailExists, apperrors.GetAppError(err).Code)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), &domain.UserCreate{
		Email:     "bob@example.com",
		Password:  "short",
		FirstName: "Bob",
		LastName:  "Jones",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
}

func TestLoginSuccess(t *testing.T) {
	svc, userRepo := newTestService()

	user := &domain.User{
		UserID:       uuid.New(),
		Email:        "alice@example.com",
		Name:         "Alice Smith",
		Role:         domain.RoleClient,
		PasswordHash: hashed("strongpass1"),
	}
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	out, err := svc.Login(context.Background(), &domain.UserLogin{
		Email:    "alice@example.com",
		Password: "strongpass1",
	})

	require.NoError(t, err)
	assert.Equal(t, user.UserID, out.User.UserID)

	manager := jwt.NewManager(testSecret, time.Hour)
	claims, err := manager.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "client", claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, userRepo := newTestService()

	user := &domain.User{UserID: uuid.New(), Email: "alice@example.com", PasswordHash: hashed("strongpass1")}
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	_, err := svc.Login(context.Background(), &domain.UserLogin{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidCreds, apperrors.GetAppError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, userRepo := newTestService()

	userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, postgres.ErrNotFound)

	_, err := svc.Login(context.Background(), &domain.UserLogin{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidCreds, apperrors.GetAppError(err).Code)
}

func TestAdminLogin(t *testing.T) {
	svc, userRepo := newTestService()

	admin := &domain.User{
		UserID:       uuid.New(),
		Email:        "admin@rusithink.local",
		Name:         "RusiThink",
		Role:         domain.RoleAdmin,
		PasswordHash: hashed("super-secret-admin"),
	}
	userRepo.On("GetAdmin", mock.Anything).Return(admin, nil)

	out, err := svc.AdminLogin(context.Background(), &domain.AdminLogin{
		Username: "rusithink",
		Password: "super-secret-admin",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, out.User.Role)
}

func TestAdminLoginWrongUsername(t *testing.T) {
	svc, userRepo := newTestService()

	_, err := svc.AdminLogin(context.Background(), &domain.AdminLogin{
		Username: "root",
		Password: "super-secret-admin",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidCreds, apperrors.GetAppError(err).Code)
	userRepo.AssertNotCalled(t, "GetAdmin", mock.Anything)
}

func TestEnsureAdminSeedsOnce(t *testing.T) {
	svc, userRepo := newTestService()

	userRepo.On("GetAdmin", mock.Anything).Return(nil, postgres.ErrNotFound).Once()
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	require.NoError(t, svc.EnsureAdmin(context.Background()))

	created := userRepo.Calls[1].Arguments.Get(1).(*domain.User)
	assert.Equal(t, domain.RoleAdmin, created.Role)
	assert.Equal(t, "admin@rusithink.local", created.Email)

	// Already seeded on the second call
	userRepo.On("GetAdmin", mock.Anything).Return(created, nil)
	require.NoError(t, svc.EnsureAdmin(context.Background()))
	userRepo.AssertNumberOfCalls(t, "Create", 1)
}
