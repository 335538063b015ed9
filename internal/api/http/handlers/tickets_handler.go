package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpme/helpdesk-service/internal/api/dto"
	"github.com/helpme/helpdesk-service/internal/auth"
	"github.com/helpme/helpdesk-service/internal/config"
	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/service"
	"github.com/helpme/helpdesk-service/internal/storage"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service   *service.TicketService
	storage   storage.ObjectStorage
	uploadCfg config.UploadConfig
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, store storage.ObjectStorage, uploadCfg config.UploadConfig) *TicketsHandler {
	return &TicketsHandler{service: ticketService, storage: store, uploadCfg: uploadCfg}
}

// Create handles POST /tickets. Accepts JSON or a multipart form with an
// optional "attachment" file.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attachment, err := readAttachment(c, h.storage, h.uploadCfg)
	if err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), identity.Principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Attachment:  attachment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Mine handles GET /tickets/my-tickets.
func (h *TicketsHandler) Mine(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit, offset := parsePage(c)
	tickets, err := h.service.ListMine(c.UserContext(), identity.Principal, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: dto.TicketsFromDomain(tickets),
		Limit:   limit,
		Offset:  offset,
	}})
}

// Assigned handles GET /tickets/assigned.
func (h *TicketsHandler) Assigned(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit, offset := parsePage(c)
	tickets, err := h.service.ListAssigned(c.UserContext(), identity.Principal, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: dto.TicketsFromDomain(tickets),
		Limit:   limit,
		Offset:  offset,
	}})
}

// All handles GET /tickets/all with optional status/priority filters.
func (h *TicketsHandler) All(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit, offset := parsePage(c)
	filter := service.TicketListFilter{Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.TicketStatus(raw)
		if !domain.ValidTicketStatus(status) {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority := domain.TicketPriority(raw)
		if !domain.ValidTicketPriority(priority) {
			return apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": raw})
		}
		filter.Priority = &priority
	}

	tickets, err := h.service.ListAll(c.UserContext(), identity.Principal, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: dto.TicketsFromDomain(tickets),
		Limit:   limit,
		Offset:  offset,
	}})
}

// ByUser handles GET /tickets/user/:userId.
func (h *TicketsHandler) ByUser(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit, offset := parsePage(c)
	tickets, err := h.service.ListByUser(c.UserContext(), identity.Principal, c.Params("userId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: dto.TicketsFromDomain(tickets),
		Limit:   limit,
		Offset:  offset,
	}})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := h.service.GetByID(c.UserContext(), identity.Principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Update handles PATCH /tickets/:id. Accepts JSON fields or a multipart
// form with a replacement "attachment" file.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attachment, err := readAttachment(c, h.storage, h.uploadCfg)
	if err != nil {
		return err
	}

	result, err := h.service.UpdateFields(c.UserContext(), identity.Principal, c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Attachment:  attachment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketMutationResponse{
		Ticket:   dto.TicketFromDomain(result.Ticket),
		Warnings: result.Warnings,
	}})
}

// UpdateStatus handles PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), identity.Principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Assign handles PATCH /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return apperrors.NewValidationError("agent_id is required", nil)
	}

	ticket, err := h.service.Assign(c.UserContext(), identity.Principal, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
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

func parsePage(c *fiber.Ctx) (limit, offset int) {
	limit = parseInt(c.Query("limit"), 20)
	offset = parseInt(c.Query("offset"), 0)
	if limit < 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
