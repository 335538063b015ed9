// Package policy is the pure authorization decision engine. Every
// decision takes an already-loaded resource and returns a boolean; no
// function here performs I/O or mutates state, so the whole package is
// unit-testable without a database.
package policy

import "github.com/helpme/helpdesk-service/internal/domain"

// TicketAction enumerates the operations gated per ticket.
type TicketAction string

const (
	ActionViewTicket   TicketAction = "view"
	ActionCreateReply  TicketAction = "create-reply"
	ActionUpdateFields TicketAction = "update-fields"
	ActionUpdateStatus TicketAction = "update-status"
	ActionDeleteTicket TicketAction = "delete"
	ActionAssignTicket TicketAction = "assign"
)

// HasRole is the single role gate. The superadmin wildcard passes every
// gate regardless of the declared allowed set.
func HasRole(p domain.Principal, allowed ...domain.Role) bool {
	if p.Role == domain.RoleSuperadmin {
		return true
	}
	for _, role := range allowed {
		if p.Role == role {
			return true
		}
	}
	return false
}

// isParticipant reports whether the principal created the ticket or is
// its assigned agent.
func isParticipant(p domain.Principal, t *domain.Ticket) bool {
	if p.ID == t.CreatedBy {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == p.ID
}

// CanAccessTicket decides (principal, ticket, action). Unknown actions
// are denied, keeping the function total over its input space.
func CanAccessTicket(p domain.Principal, t *domain.Ticket, action TicketAction) bool {
	if t == nil {
		return false
	}
	switch action {
	case ActionViewTicket, ActionCreateReply:
		return isParticipant(p, t) || HasRole(p, domain.RoleAdmin)
	case ActionUpdateFields:
		return p.ID == t.CreatedBy
	case ActionUpdateStatus:
		if HasRole(p, domain.RoleAdmin) {
			return true
		}
		return t.AssignedTo != nil && *t.AssignedTo == p.ID
	case ActionDeleteTicket:
		return p.ID == t.CreatedBy || HasRole(p, domain.RoleAdmin)
	case ActionAssignTicket:
		return HasRole(p, domain.RoleAdmin)
	}
	return false
}

// CanModifyReply decides edit/delete on a reply: the author or an admin.
// Stricter than ticket view: the assigned agent cannot touch someone
// else's reply.
func CanModifyReply(p domain.Principal, r *domain.Reply) bool {
	if r == nil {
		return false
	}
	return p.ID == r.AuthorID || HasRole(p, domain.RoleAdmin)
}

// CanCreateTicket gates ticket creation on the user role. Agents and
// admins cannot self-file tickets in this model.
func CanCreateTicket(p domain.Principal) bool {
	return HasRole(p, domain.RoleUser)
}
