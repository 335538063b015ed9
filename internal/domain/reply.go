package domain

import "time"

// Reply is a single message in a ticket's conversation thread. TicketID
// and AuthorID are immutable after creation. SenderRole is a snapshot of
// the author's role at creation time, preserved even if the author's role
// later changes.
type Reply struct {
	ID         string
	TicketID   string
	AuthorID   string
	SenderRole Role
	Message    string
	Attachment *Attachment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReplyWithAuthor is the read projection returned by thread listings.
type ReplyWithAuthor struct {
	Reply
	Author AuthorRef
}
