package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpme/helpdesk-service/internal/auth"
	"github.com/helpme/helpdesk-service/internal/config"
	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/policy"
	"github.com/helpme/helpdesk-service/internal/repository"
	"github.com/helpme/helpdesk-service/internal/storage"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

const (
	minUsernameLength = 6
	maxBioLength      = 500
)

// AuthService handles registration, login and profile management.
type AuthService struct {
	users   repository.UserRepository
	tokens  *auth.TokenManager
	storage storage.ObjectStorage
	logger  *zap.Logger
	cfg     config.AuthConfig
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Tokens   *auth.TokenManager
	Storage  storage.ObjectStorage
	Logger   *zap.Logger
	Config   config.AuthConfig
}

// RegisterInput describes a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput describes a login request.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult carries the authenticated user with their session token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// ProfileUpdateInput carries a partial profile update.
type ProfileUpdateInput struct {
	Username *string
	Bio      *string
	Avatar   *storage.StoredObject
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:   deps.UserRepo,
		tokens:  deps.Tokens,
		storage: deps.Storage,
		logger:  deps.Logger,
		cfg:     deps.Config,
	}
}

// Register creates a new account. Self-service accounts always start
// with the user role; elevated roles are granted out of band.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, email and password are required", nil)
	}
	if len(username) < minUsernameLength {
		return nil, apperrors.NewValidationError("username must be at least 6 characters", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issueToken(user)
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password produce the same unauthorized error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	return s.issueToken(user)
}

// GetProfile returns the caller's own account.
func (s *AuthService) GetProfile(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": principal.ID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's own account.
// Replacing the avatar does not release the old file: avatar URLs may be
// shared across profile history and external callers. A new avatar
// stored for a rejected update is released.
func (s *AuthService) UpdateProfile(ctx context.Context, principal domain.Principal, input ProfileUpdateInput) (updated *domain.User, err error) {
	defer func() {
		if err != nil && input.Avatar != nil && s.storage != nil {
			if relErr := s.storage.Release(ctx, input.Avatar.StorageKey); relErr != nil {
				s.logger.Warn("orphaned avatar could not be released",
					zap.String("storage_key", input.Avatar.StorageKey),
					zap.Error(relErr),
				)
			}
		}
	}()

	user, err := s.GetProfile(ctx, principal)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if len(username) < minUsernameLength {
			return nil, apperrors.NewValidationError("username must be at least 6 characters", nil)
		}
		if username != user.Username {
			if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
				return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
			user.Username = username
		}
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if len(bio) > maxBioLength {
			return nil, apperrors.NewValidationError("bio too long", map[string]any{"max_length": maxBioLength})
		}
		user.Bio = bio
	}
	if input.Avatar != nil {
		user.AvatarURL = input.Avatar.URL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// GetUser returns another user's account. Admin only.
func (s *AuthService) GetUser(ctx context.Context, principal domain.Principal, userID string) (*domain.User, error) {
	if !policy.HasRole(principal, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
