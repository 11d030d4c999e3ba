package service

import (
	"context"
	"errors"
	"strings"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
	"supermarket-pos/pkg/jwt"
	"supermarket-pos/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  model.UserResponse `json:"user"`
	Token string             `json:"token"`
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Profile(ctx context.Context, userID uint) (*model.User, error)
	// Authenticate resolves a bearer token to its active user
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register creates a cashier account. Admins are created through user management.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	// 1. Validate request
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Uniqueness
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email, 0)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if taken {
		return nil, apperror.Conflict("Username or email already exists")
	}

	// 3. Build user with a hashed password and a fresh session
	user := &model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		Email:        email,
		Role:         model.RoleCashier,
		IsActive:     true,
		TokenVersion: uuid.New().String(),
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err)
	}

	// 4. Save
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateWriteError(err, "Username or email already exists")
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 1. Find user; unknown and inactive accounts look the same to the caller
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.KindUnauthorized, ErrInvalidCredentials, "Invalid credentials")
		}
		return nil, apperror.Internal(err)
	}
	if !user.IsActive || !user.CheckPassword(req.Password) {
		return nil, apperror.Wrap(apperror.KindUnauthorized, ErrInvalidCredentials, "Invalid credentials")
	}

	// 2. Single session: a new token version invalidates older tokens
	user.TokenVersion = uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion); err != nil {
		return nil, apperror.Internal(err)
	}

	return s.issue(user)
}

func (s *authService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "User not found")
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	// 1. Validate JWT token
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrMissingToken) {
			return nil, apperror.Wrap(apperror.KindUnauthorized, err, "Missing authorization token")
		}
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, "Invalid or expired token")
	}

	// 2. Find user by ID from token claims
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.KindUnauthorized, ErrUserNotFound, "User not found")
		}
		return nil, apperror.Internal(err)
	}

	// 3. Check if user is still active
	if !user.IsActive {
		return nil, apperror.Wrap(apperror.KindUnauthorized, ErrUserInactive, "User account is inactive")
	}

	// 4. Check against DB for strict session (TokenVersion)
	if user.TokenVersion != claims.TokenVersion {
		return nil, apperror.Wrap(apperror.KindUnauthorized, ErrSessionReplaced, "Session expired (logged in on another device)")
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username, string(user.Role), user.TokenVersion)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResponse{User: user.ToResponse(), Token: token}, nil
}
