package dto

import (
	"time"

	"github.com/helpme/helpdesk-service/internal/domain"
)

// CreateReplyRequest payload.
type CreateReplyRequest struct {
	Message string `json:"message"`
}

// UpdateReplyRequest payload.
type UpdateReplyRequest struct {
	Message string `json:"message"`
}

// ReplyResponse is the reply projection.
type ReplyResponse struct {
	ID         string              `json:"id"`
	TicketID   string              `json:"ticket_id"`
	AuthorID   string              `json:"author_id"`
	SenderRole domain.Role         `json:"sender_role"`
	Message    string              `json:"message"`
	Attachment *AttachmentResponse `json:"attachment,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ReplyWithAuthorResponse adds the author projection for listings.
type ReplyWithAuthorResponse struct {
	ReplyResponse
	Author AuthorResponse `json:"author"`
}

// ReplyMutationResponse pairs a reply with cleanup warnings.
type ReplyMutationResponse struct {
	Reply    ReplyResponse `json:"reply"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ReplyFromDomain maps a reply to its response projection.
func ReplyFromDomain(r *domain.Reply) ReplyResponse {
	resp := ReplyResponse{
		ID:         r.ID,
		TicketID:   r.TicketID,
		AuthorID:   r.AuthorID,
		SenderRole: r.SenderRole,
		Message:    r.Message,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Attachment != nil {
		resp.Attachment = &AttachmentResponse{URL: r.Attachment.URL}
	}
	return resp
}

// RepliesFromDomain maps a thread listing.
func RepliesFromDomain(replies []domain.ReplyWithAuthor) []ReplyWithAuthorResponse {
	result := make([]ReplyWithAuthorResponse, 0, len(replies))
	for i := range replies {
		r := &replies[i]
		result = append(result, ReplyWithAuthorResponse{
			ReplyResponse: ReplyFromDomain(&r.Reply),
			Author: AuthorResponse{
				ID:       r.Author.ID,
				Username: r.Author.Username,
				Email:    r.Author.Email,
				Role:     r.Author.Role,
			},
		})
	}
	return result
}
