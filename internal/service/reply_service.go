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

const replyPreviewLength = 120

// ReplyService manages the conversational thread on a ticket.
type ReplyService struct {
	replies    repository.ReplyRepository
	tickets    repository.TicketRepository
	storage    storage.ObjectStorage
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ReplyDependencies bundles collaborators for the reply service.
type ReplyDependencies struct {
	ReplyRepo  repository.ReplyRepository
	TicketRepo repository.TicketRepository
	Storage    storage.ObjectStorage
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ReplyResult pairs a reply with non-fatal warnings from attachment
// cleanup.
type ReplyResult struct {
	Reply    *domain.Reply
	Warnings []string
}

// NewReplyService constructs the service.
func NewReplyService(deps ReplyDependencies) *ReplyService {
	return &ReplyService{
		replies:    deps.ReplyRepo,
		tickets:    deps.TicketRepo,
		storage:    deps.Storage,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Post adds a reply to a ticket. Participants and admins only. The
// sender role is snapshotted from the principal at creation time. An
// attachment stored for a rejected post is released.
func (s *ReplyService) Post(ctx context.Context, principal domain.Principal, ticketID, message string, attachment *domain.Attachment) (posted *domain.Reply, err error) {
	defer func() {
		if err != nil {
			s.discardAttachment(ctx, attachment)
		}
	}()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionCreateReply) {
		return nil, apperrors.NewForbidden("not allowed to reply to this ticket")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}

	reply := &domain.Reply{
		TicketID:   ticket.ID,
		AuthorID:   principal.ID,
		SenderRole: principal.Role,
		Message:    message,
		Attachment: attachment,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventReplyAdded,
		TicketID: ticket.ID,
		Payload: events.ReplyAddedPayload{
			ReplyID:    reply.ID,
			SenderRole: reply.SenderRole,
			Preview:    stringPreview(reply.Message, replyPreviewLength),
		},
	})
	return reply, nil
}

// Edit updates a reply's message or attachment. Author or admin only.
// Replacing the attachment releases the old handle best-effort; a new
// attachment stored for a rejected edit is released.
func (s *ReplyService) Edit(ctx context.Context, principal domain.Principal, replyID, message string, attachment *domain.Attachment) (result *ReplyResult, err error) {
	defer func() {
		if err != nil {
			s.discardAttachment(ctx, attachment)
		}
	}()

	reply, err := s.loadReply(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyReply(principal, reply) {
		return nil, apperrors.NewForbidden("not allowed to modify this reply")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}

	var replaced *domain.Attachment
	if attachment != nil {
		replaced = reply.Attachment
		reply.Attachment = attachment
	}
	reply.Message = message

	if err := s.replies.Update(ctx, reply); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reply", map[string]any{"reply_id": replyID})
		}
		return nil, apperrors.MapError(err)
	}

	result = &ReplyResult{Reply: reply}
	if replaced != nil {
		result.Warnings = s.releaseAttachment(ctx, replaced, result.Warnings)
	}
	return result, nil
}

// Delete removes a reply. Author or admin only. The attachment handle is
// released best-effort after the delete succeeds.
func (s *ReplyService) Delete(ctx context.Context, principal domain.Principal, replyID string) ([]string, error) {
	reply, err := s.loadReply(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyReply(principal, reply) {
		return nil, apperrors.NewForbidden("not allowed to delete this reply")
	}

	if err := s.replies.Delete(ctx, reply.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reply", map[string]any{"reply_id": replyID})
		}
		return nil, apperrors.MapError(err)
	}

	warnings := s.releaseAttachment(ctx, reply.Attachment, nil)

	s.publishEvent(ctx, principal, events.Event{
		Type:     events.EventReplyDeleted,
		TicketID: reply.TicketID,
		Payload:  events.ReplyDeletedPayload{ReplyID: reply.ID},
	})
	return warnings, nil
}

// ListForTicket returns the ticket's replies newest-first with author
// details. View policy applies: participants and admins only.
func (s *ReplyService) ListForTicket(ctx context.Context, principal domain.Principal, ticketID string) ([]domain.ReplyWithAuthor, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessTicket(principal, ticket, policy.ActionViewTicket) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	return replies, apperrors.MapError(err)
}

func (s *ReplyService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
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

func (s *ReplyService) loadReply(ctx context.Context, replyID string) (*domain.Reply, error) {
	if strings.TrimSpace(replyID) == "" {
		return nil, apperrors.NewValidationError("reply id is required", nil)
	}
	reply, err := s.replies.GetByID(ctx, replyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reply", map[string]any{"reply_id": replyID})
		}
		return nil, apperrors.MapError(err)
	}
	return reply, nil
}

// discardAttachment releases a handle stored for a request the service
// then rejected. Best-effort; failures are only logged.
func (s *ReplyService) discardAttachment(ctx context.Context, attachment *domain.Attachment) {
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

func (s *ReplyService) releaseAttachment(ctx context.Context, attachment *domain.Attachment, warnings []string) []string {
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

func (s *ReplyService) publishEvent(ctx context.Context, principal domain.Principal, event events.Event) {
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

// stringPreview truncates a message for event payloads.
func stringPreview(message string, limit int) string {
	if len(message) <= limit {
		return message
	}
	return message[:limit] + "..."
}
