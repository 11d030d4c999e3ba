package handler

import (
	"supermarket-pos/internal/middleware"
	"supermarket-pos/internal/model"
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUsers lists every account
// GET /api/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return err
	}
	data := make([]model.UserResponse, len(users))
	for i := range users {
		data[i] = users[i].ToResponse()
	}
	return response.OK(c, "", data)
}

// GET /api/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", user.ToResponse())
}

// CreateUser handles user creation
// POST /api/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.userService.CreateUser(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "User created successfully", user.ToResponse())
}

// UpdateUser handles partial user updates
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.userService.UpdateUser(c.UserContext(), middleware.Actor(c), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "User updated successfully", user.ToResponse())
}

// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.userService.DeleteUser(c.UserContext(), middleware.Actor(c), id); err != nil {
		return err
	}
	return response.OK(c, "User deleted successfully", nil)
}

// ToggleUserStatus flips is_active
// PATCH /api/users/:id/toggle-status
func (h *UserHandler) ToggleUserStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.ToggleUserStatus(c.UserContext(), middleware.Actor(c), id)
	if err != nil {
		return err
	}

	message := "User deactivated successfully"
	if user.IsActive {
		message = "User activated successfully"
	}
	return response.OK(c, message, fiber.Map{"id": user.ID, "is_active": user.IsActive})
}
