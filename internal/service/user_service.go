package service

import (
	"context"
	"errors"
	"strings"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
	"supermarket-pos/pkg/validator"

	"github.com/google/uuid"
)

var ErrSelfAction = errors.New("action not allowed on own account")

type CreateUserRequest struct {
	FullName string     `json:"full_name" validate:"required,max=255"`
	Username string     `json:"username" validate:"required,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=ADMIN CASHIER"`
	IsActive *bool      `json:"is_active"`
}

type UpdateUserRequest struct {
	FullName *string     `json:"full_name" validate:"omitempty,min=1,max=255"`
	Username *string     `json:"username" validate:"omitempty,min=1,max=50"`
	Email    *string     `json:"email" validate:"omitempty,email"`
	Password *string     `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	Role     *model.Role `json:"role" validate:"omitempty,oneof=ADMIN CASHIER"`
	IsActive *bool       `json:"is_active"`
}

type UserService interface {
	GetAllUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, actor *model.User, id uint, req *UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actor *model.User, id uint) error
	ToggleUserStatus(ctx context.Context, actor *model.User, id uint) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return users, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "User not found")
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	// 1. Validate request
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Check if username or email already exists
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureIdentityFree(ctx, username, email, 0); err != nil {
		return nil, err
	}

	// 3. Create user
	user := &model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		Email:        email,
		Role:         model.RoleCashier,
		IsActive:     true,
		TokenVersion: uuid.New().String(),
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	// 4. Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err)
	}

	// 5. Save to database
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateWriteError(err, "Username or email already exists")
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor *model.User, id uint, req *UpdateUserRequest) (*model.User, error) {
	// 1. Validate request
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Only admins may change their own role
	if actor != nil && actor.ID == id && req.Role != nil && actor.Role != model.RoleAdmin {
		return nil, apperror.Wrap(apperror.KindForbidden, ErrSelfAction, "You cannot change your own role")
	}

	// 3. Find existing user
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "User not found")
	}

	// 4. Check uniqueness of changed identity fields
	username, email := user.Username, user.Email
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if username != user.Username || email != user.Email {
		if err := s.ensureIdentityFree(ctx, username, email, user.ID); err != nil {
			return nil, err
		}
	}

	// 5. Update user fields
	user.Username = username
	user.Email = email
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	// 6. Update password if provided; it also ends the current session
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, apperror.Internal(err)
		}
		user.TokenVersion = uuid.New().String()
	}

	// 7. Save to database
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, translateWriteError(err, "Username or email already exists")
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor *model.User, id uint) error {
	if actor != nil && actor.ID == id {
		return apperror.Wrap(apperror.KindBusinessRule, ErrSelfAction, "You cannot delete your own account")
	}

	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, ErrUserNotFound, "User not found")
	}

	// Sales keep a reference to the user who recorded them
	count, err := s.userRepo.CountSales(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if count > 0 {
		return apperror.BusinessRule("User has recorded sales and cannot be deleted; deactivate the account instead")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *userService) ToggleUserStatus(ctx context.Context, actor *model.User, id uint) (*model.User, error) {
	if actor != nil && actor.ID == id {
		return nil, apperror.Wrap(apperror.KindBusinessRule, ErrSelfAction, "You cannot deactivate your own account")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "User not found")
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.Internal(err)
	}
	return user, nil
}

func (s *userService) ensureIdentityFree(ctx context.Context, username, email string, selfID uint) error {
	taken, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email, selfID)
	if err != nil {
		return apperror.Internal(err)
	}
	if taken {
		return apperror.Conflict("Username or email already exists")
	}
	return nil
}
