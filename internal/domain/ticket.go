package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidTicketStatus reports whether the value is in the status enum.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ValidTicketPriority reports whether the value is in the priority enum.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Attachment references a file held by the external object store.
type Attachment struct {
	URL        string
	StorageKey string
}

// Ticket is the aggregate for support requests. CreatedBy never changes
// after creation. AssignedTo must reference an agent at assignment time;
// a later demotion leaves the assignment in place.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	CreatedBy   string
	AssignedTo  *string
	Attachment  *Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignedToID returns the assignee id or the empty string.
func (t *Ticket) AssignedToID() string {
	if t.AssignedTo == nil {
		return ""
	}
	return *t.AssignedTo
}
