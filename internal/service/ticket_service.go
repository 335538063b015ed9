package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/events"
	"github.com/helpme/helpdesk-service/internal/policy"
	"github.com/helpme/helpdesk-service/internal/repository"
	"github.com/helpme/helpdesk-service/internal/storage"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle. Policy and validation
// failures return before any state is mutated.
type TicketService struct {
	tickets           repository.TicketRepository
	replies           repository.ReplyRepository
	users             repository.UserRepository
	storage           storage.ObjectStorage
	dispatcher        events.Dispatcher
	logger            *zap.Logger
	strictTransitions bool
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo        repository.TicketRepository
	ReplyRepo         repository.ReplyRepository
	UserRepo          repository.UserRepository
	Storage           storage.ObjectStorage
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	StrictTransitions bool
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Attachment  *domain.Attachment
}

// TicketUpdateInput carries a partial field update; only non-nil fields
// are applied.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Attachment  *domain.Attachment
}

// TicketListFilter describes admin listing filters.
type TicketListFilter struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
	Limit    int
	Offset   int
}

// TicketResult pairs a ticket with non-fatal warnings, such as a storage
// release that failed after the primary mutation succeeded.
type TicketResult struct {
	Ticket   *domain.Ticket
	Warnings []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:           deps.TicketRepo,
		replies:           deps.ReplyRepo,
		users:             deps.UserRepo,
		storage:           deps.Storage,
		dispatcher:        deps.Dispatcher,
		logger:            deps.Logger,
		strictTransitions: deps.StrictTransitions,
	}
}

// Create files a new ticket for a user-role principal. An attachment
// already stored for a rejected request is released so it cannot leak.
func (s *TicketService) Create(ctx context.Context, principal domain.Principal, input TicketCreateInput) (created *domain.Ticket, err error) {
	defer func() {
		if err != nil {
			s.discardAttachment(ctx, input.Attachment)
		}
	}()

	if !policy.CanCreateTicket(principal) {
		return nil, apperrors.NewForbidden("only users can create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidTicketPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   principal.ID,
		Attachment:  input.Attachment,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// GetByID fetches a ticket, enforcing the view policy.
func (s *TicketService) GetByID(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionViewTicket) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	return ticket, nil
}

// ListMine returns the principal's own tickets, newest-first.
func (s *TicketService) ListMine(ctx context.Context, principal domain.Principal, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		CreatedBy: &principal.ID,
		Limit:     limit,
		Offset:    offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	return tickets, apperrors.MapError(err)
}

// ListAssigned returns tickets assigned to the calling agent.
func (s *TicketService) ListAssigned(ctx context.Context, principal domain.Principal, limit, offset int) ([]domain.Ticket, error) {
	if !policy.HasRole(principal, domain.RoleAgent) {
		return nil, apperrors.NewForbidden("agent role required")
	}
	filter := repository.TicketFilter{
		AssignedTo: &principal.ID,
		Limit:      limit,
		Offset:     offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	return tickets, apperrors.MapError(err)
}

// ListAll returns all tickets for admins, with optional equality filters.
func (s *TicketService) ListAll(ctx context.Context, principal domain.Principal, filter TicketListFilter) ([]domain.Ticket, error) {
	if !policy.HasRole(principal, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	repoFilter := repository.TicketFilter{
		Status:   filter.Status,
		Priority: filter.Priority,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	return tickets, apperrors.MapError(err)
}

// ListByUser returns another user's tickets for admins.
func (s *TicketService) ListByUser(ctx context.Context, principal domain.Principal, userID string, limit, offset int) ([]domain.Ticket, error) {
	if !policy.HasRole(principal, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	filter := repository.TicketFilter{
		CreatedBy: &userID,
		Limit:     limit,
		Offset:    offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	return tickets, apperrors.MapError(err)
}

// Assign sets the ticket's assignee. Admin-gated; the target must hold
// the agent role at assignment time. A missing agent is a not-found
// failure; a non-agent target is a conflict, not an authorization error.
func (s *TicketService) Assign(ctx context.Context, principal domain.Principal, ticketID, agentID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionAssignTicket) {
		return nil, apperrors.NewForbidden("not allowed to assign tickets")
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewConflict("assignee is not an agent", map[string]any{"agent_id": agentID, "role": agent.Role})
	}

	prevAssignee := ticket.AssignedTo
	ticket.AssignedTo = &agent.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			AssignedTo:   agent.ID,
			PrevAssignee: prevAssignee,
		},
	})
	return ticket, nil
}

// UpdateStatus sets the ticket status. Assignee or admin only. Values
// are unconstrained across the enum unless strict transitions are
// enabled by config.
func (s *TicketService) UpdateStatus(ctx context.Context, principal domain.Principal, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidTicketStatus(newStatus) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionUpdateStatus) {
		return nil, apperrors.NewForbidden("not allowed to update ticket status")
	}
	if s.strictTransitions && !forwardTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("status transition not allowed", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// UpdateFields applies a partial update to title, description, priority,
// or attachment. Creator only. Replacing an attachment releases the
// previous storage handle best-effort; a release failure surfaces as a
// warning, never as a failure of the update itself. A new attachment
// stored for a rejected update is released.
func (s *TicketService) UpdateFields(ctx context.Context, principal domain.Principal, ticketID string, input TicketUpdateInput) (result *TicketResult, err error) {
	defer func() {
		if err != nil {
			s.discardAttachment(ctx, input.Attachment)
		}
	}()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionUpdateFields) {
		return nil, apperrors.NewForbidden("only the ticket creator can update it")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = description
	}
	if input.Priority != nil {
		if !domain.ValidTicketPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}

	var replaced *domain.Attachment
	if input.Attachment != nil {
		replaced = ticket.Attachment
		ticket.Attachment = input.Attachment
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	result = &TicketResult{Ticket: ticket}
	if replaced != nil {
		result.Warnings = s.releaseAttachment(ctx, replaced, result.Warnings)
	}

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
	})
	return result, nil
}

// Delete removes a ticket. Creator or admin. The ticket row is removed
// first; replies cascade at the database, with a best-effort sweep for
// stores without the constraint. Cleanup failures surface as warnings
// on the successful delete.
func (s *TicketService) Delete(ctx context.Context, principal domain.Principal, ticketID string) ([]string, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionDeleteTicket) {
		return nil, apperrors.NewForbidden("not allowed to delete this ticket")
	}

	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	var warnings []string

	removed, err := s.replies.DeleteByTicket(ctx, ticket.ID)
	if err != nil {
		warnings = append(warnings, "failed to remove ticket replies")
		s.logger.Warn("reply sweep failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	warnings = s.releaseAttachment(ctx, ticket.Attachment, warnings)

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Payload: events.TicketDeletedPayload{
			RepliesRemoved: removed,
		},
	})
	return warnings, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewValidationError("ticket id is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// discardAttachment releases a handle that was stored for a request the
// service then rejected. Best-effort; a failure is only logged since the
// request already carries its own error.
func (s *TicketService) discardAttachment(ctx context.Context, attachment *domain.Attachment) {
	if attachment == nil || s.storage == nil {
		return
	}
	if err := s.storage.Release(ctx, attachment.StorageKey); err != nil {
		s.logger.Warn("orphaned attachment could not be released",
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err),
		)
	}
}

// releaseAttachment releases a storage handle best-effort, folding any
// failure into the warning list.
func (s *TicketService) releaseAttachment(ctx context.Context, attachment *domain.Attachment, warnings []string) []string {
	if attachment == nil || s.storage == nil {
		return warnings
	}
	if err := s.storage.Release(ctx, attachment.StorageKey); err != nil {
		s.logger.Warn("attachment release failed",
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err),
		)
		return append(warnings, "previous attachment could not be released")
	}
	return warnings
}

// forwardTransition enforces open -> in-progress -> closed ordering.
// Setting the current status again is a no-op and allowed.
func forwardTransition(current, next domain.TicketStatus) bool {
	if current == next {
		return true
	}
	switch current {
	case domain.TicketStatusOpen:
		return next == domain.TicketStatusInProgress || next == domain.TicketStatusClosed
	case domain.TicketStatusInProgress:
		return next == domain.TicketStatusClosed
	}
	return false
}

func (s *TicketService) publishEvent(ctx context.Context, principal domain.Principal, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Actor = events.Actor{ID: principal.ID, Role: principal.Role}
	_ = s.dispatcher.Publish(ctx, event)
}
