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

// RepliesHandler manages the conversational thread endpoints.
type RepliesHandler struct {
	service   *service.ReplyService
	storage   storage.ObjectStorage
	uploadCfg config.UploadConfig
}

// NewRepliesHandler constructs handler.
func NewRepliesHandler(replyService *service.ReplyService, store storage.ObjectStorage, uploadCfg config.UploadConfig) *RepliesHandler {
	return &RepliesHandler{service: replyService, storage: store, uploadCfg: uploadCfg}
}

// Create handles POST /tickets/:id/replies.
func (h *RepliesHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attachment, err := readAttachment(c, h.storage, h.uploadCfg)
	if err != nil {
		return err
	}

	reply, err := h.service.Post(c.UserContext(), identity.Principal, c.Params("id"), req.Message, attachment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ReplyFromDomain(reply)})
}

// List handles GET /tickets/:id/replies.
func (h *RepliesHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	replies, err := h.service.ListForTicket(c.UserContext(), identity.Principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RepliesFromDomain(replies)})
}

// Update handles PATCH /replies/:id.
func (h *RepliesHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attachment, err := readAttachment(c, h.storage, h.uploadCfg)
	if err != nil {
		return err
	}

	result, err := h.service.Edit(c.UserContext(), identity.Principal, c.Params("id"), req.Message, attachment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReplyMutationResponse{
		Reply:    dto.ReplyFromDomain(result.Reply),
		Warnings: result.Warnings,
	}})
}

// Delete handles DELETE /replies/:id.
func (h *RepliesHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	warnings, err := h.service.Delete(c.UserContext(), identity.Principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeleteResponse{Deleted: true, Warnings: warnings}})
}
