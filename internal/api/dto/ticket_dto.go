package dto

import (
	"time"

	"github.com/helpme/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Attachments arrive as multipart form
// files; these fields cover the JSON body variant.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload; only present fields are applied.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	URL string `json:"url"`
}

// TicketResponse is the full ticket projection.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedBy   string                `json:"created_by"`
	AssignedTo  *string               `json:"assigned_to"`
	Attachment  *AttachmentResponse   `json:"attachment,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketListResponse wraps a page of tickets.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// TicketMutationResponse pairs a ticket with cleanup warnings.
type TicketMutationResponse struct {
	Ticket   TicketResponse `json:"ticket"`
	Warnings []string       `json:"warnings,omitempty"`
}

// DeleteResponse reports a completed delete with any cleanup warnings.
type DeleteResponse struct {
	Deleted  bool     `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

// TicketFromDomain maps a ticket to its response projection.
func TicketFromDomain(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Attachment != nil {
		resp.Attachment = &AttachmentResponse{URL: t.Attachment.URL}
	}
	return resp
}

// TicketsFromDomain maps a slice of tickets.
func TicketsFromDomain(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, TicketFromDomain(&tickets[i]))
	}
	return result
}
