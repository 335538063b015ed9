package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpme/helpdesk-service/internal/api/dto"
	"github.com/helpme/helpdesk-service/internal/auth"
	"github.com/helpme/helpdesk-service/internal/config"
	"github.com/helpme/helpdesk-service/internal/service"
	"github.com/helpme/helpdesk-service/internal/storage"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// UsersHandler exposes auth and profile endpoints.
type UsersHandler struct {
	auth      *service.AuthService
	storage   storage.ObjectStorage
	uploadCfg config.UploadConfig
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, store storage.ObjectStorage, uploadCfg config.UploadConfig) *UsersHandler {
	return &UsersHandler{auth: authService, storage: store, uploadCfg: uploadCfg}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.UserFromDomain(result.User),
	}})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.UserFromDomain(result.User),
	}})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.GetProfile(c.UserContext(), identity.Principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

// Get handles GET /users/:id for admins.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.GetUser(c.UserContext(), identity.Principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

// UpdateMe handles PATCH /users/me. Accepts JSON fields or a multipart
// form with an optional avatar file under "attachment".
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ProfileUpdateInput{Username: req.Username, Bio: req.Bio}

	attachment, err := readAttachment(c, h.storage, h.uploadCfg)
	if err != nil {
		return err
	}
	if attachment != nil {
		input.Avatar = &storage.StoredObject{URL: attachment.URL, StorageKey: attachment.StorageKey}
	}

	user, err := h.auth.UpdateProfile(c.UserContext(), identity.Principal, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}
