package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rusithink-backend/internal/config"
	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/postgres"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/jwt"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/password"
)

// UserRepository interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAdmin(ctx context.Context) (*domain.User, error)
}

// Service handles authentication business logic
type Service struct {
	userRepo   UserRepository
	jwtManager *jwt.Manager
	adminCfg   config.AdminConfig
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, jwtManager *jwt.Manager, adminCfg config.AdminConfig) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		adminCfg:   adminCfg,
	}
}

// AuthOutput carries an authenticated session
type AuthOutput struct {
	User        *domain.UserResponse `json:"user"`
	AccessToken string               `json:"access_token"`
}

// Register creates a new client account and opens a session
func (s *Service) Register(ctx context.Context, input *domain.UserCreate) (*AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := password.Validate(input.Password); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, postgres.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}
	if existing != nil {
		return nil, apperrors.EmailExistsError()
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password")
	}

	user := &domain.User{
		UserID:       uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(input.FirstName + " " + input.LastName),
		Role:         domain.RoleClient,
		PasswordHash: hash,
		CompanyName:  input.CompanyName,
		Phone:        input.Phone,
		Address:      input.Address,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return s.session(user)
}

// Login authenticates a client by email and password
func (s *Service) Login(ctx context.Context, input *domain.UserLogin) (*AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.InvalidCredentialsError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if !password.Verify(user.PasswordHash, input.Password) {
		return nil, apperrors.InvalidCredentialsError()
	}

	return s.session(user)
}

// AdminLogin authenticates the admin console by username and password
func (s *Service) AdminLogin(ctx context.Context, input *domain.AdminLogin) (*AuthOutput, error) {
	if input.Username != s.adminCfg.Username {
		return nil, apperrors.InvalidCredentialsError()
	}

	admin, err := s.userRepo.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.InvalidCredentialsError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if !password.Verify(admin.PasswordHash, input.Password) {
		return nil, apperrors.InvalidCredentialsError()
	}

	return s.session(admin)
}

// Me returns the profile behind a validated session
func (s *Service) Me(ctx context.Context, caller domain.Identity) (*domain.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return user.ToResponse(), nil
}

// EnsureAdmin seeds the admin account at startup when it does not exist yet
func (s *Service) EnsureAdmin(ctx context.Context) error {
	_, err := s.userRepo.GetAdmin(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, postgres.ErrNotFound) {
		return err
	}

	hash, err := password.Hash(s.adminCfg.Password)
	if err != nil {
		return err
	}

	admin := &domain.User{
		UserID:       uuid.New(),
		Email:        s.adminCfg.Email,
		Name:         s.adminCfg.Name,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	logger.Log.Info("seeded admin account", zap.String("email", admin.Email))
	return nil
}

func (s *Service) session(user *domain.User) (*AuthOutput, error) {
	token, err := s.jwtManager.GenerateToken(user.UserID, user.Email, user.Name, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError("failed to issue token")
	}
	return &AuthOutput{
		User:        user.ToResponse(),
		AccessToken: token,
	}, nil
}
