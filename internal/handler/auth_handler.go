package handler

import (
	"supermarket-pos/internal/middleware"
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles self sign-up of cashier accounts
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "User registered successfully", res)
}

// Login handles user authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Login successful", res)
}

// Profile returns the authenticated user
// GET /api/auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, err := h.authService.Profile(c.UserContext(), middleware.Actor(c).ID)
	if err != nil {
		return err
	}
	return response.OK(c, "", user.ToResponse())
}
