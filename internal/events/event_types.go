package events

import (
	"time"

	"github.com/helpme/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventReplyAdded          EventType = "reply_added"
	EventReplyDeleted        EventType = "reply_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo    string  `json:"assigned_to"`
	PrevAssignee  *string `json:"prev_assignee,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	RepliesRemoved int64 `json:"replies_removed"`
}

// ReplyAddedPayload payload.
type ReplyAddedPayload struct {
	ReplyID    string      `json:"reply_id"`
	SenderRole domain.Role `json:"sender_role"`
	Preview    string      `json:"preview"`
}

// ReplyDeletedPayload payload.
type ReplyDeletedPayload struct {
	ReplyID string `json:"reply_id"`
}
