package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techsupport-manager/internal/api/dto"
	"github.com/spec-kit/techsupport-manager/internal/service"
	"github.com/spec-kit/techsupport-manager/pkg/util"
)

// AuthHandler manages registration and login endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register. Self-registration always yields a USER
// account; elevated roles are provisioned out of band.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}

	account, err := h.service.Register(c.UserContext(), req.Email, req.Password, "")
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.AccountFromDomain(account)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}

	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Account:   dto.AccountFromDomain(result.Account),
	}})
}
