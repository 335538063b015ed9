package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpme/helpdesk-service/internal/domain"
)

// ReplyRepository manages ticket thread replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *domain.Reply) error
	Update(ctx context.Context, reply *domain.Reply) error
	GetByID(ctx context.Context, id string) (*domain.Reply, error)
	Delete(ctx context.Context, id string) error
	DeleteByTicket(ctx context.Context, ticketID string) (int64, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ReplyWithAuthor, error)
}

type replyRepository struct {
	pool *pgxpool.Pool
}

// NewReplyRepository builds repository.
func NewReplyRepository(pool *pgxpool.Pool) ReplyRepository {
	return &replyRepository{pool: pool}
}

func (r *replyRepository) Create(ctx context.Context, reply *domain.Reply) error {
	const query = `
        INSERT INTO replies (ticket_id, author_id, sender_role, message, attachment_url, attachment_storage_key)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	attachmentURL, storageKey := attachmentColumns(reply.Attachment)
	return r.pool.QueryRow(ctx, query,
		reply.TicketID,
		reply.AuthorID,
		reply.SenderRole,
		reply.Message,
		attachmentURL,
		storageKey,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
}

func (r *replyRepository) Update(ctx context.Context, reply *domain.Reply) error {
	const query = `
        UPDATE replies SET message=$1, attachment_url=$2, attachment_storage_key=$3, updated_at=NOW()
        WHERE id=$4`
	attachmentURL, storageKey := attachmentColumns(reply.Attachment)
	cmd, err := r.pool.Exec(ctx, query, reply.Message, attachmentURL, storageKey, reply.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *replyRepository) GetByID(ctx context.Context, id string) (*domain.Reply, error) {
	const query = `
        SELECT id, ticket_id, author_id, sender_role, message, attachment_url, attachment_storage_key, created_at, updated_at
        FROM replies WHERE id=$1`
	var (
		reply         domain.Reply
		attachmentURL *string
		storageKey    *string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reply.ID,
		&reply.TicketID,
		&reply.AuthorID,
		&reply.SenderRole,
		&reply.Message,
		&attachmentURL,
		&storageKey,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	); err != nil {
		return nil, err
	}
	reply.Attachment = attachmentFromColumns(attachmentURL, storageKey)
	return &reply, nil
}

func (r *replyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM replies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *replyRepository) DeleteByTicket(ctx context.Context, ticketID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM replies WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ReplyWithAuthor, error) {
	const query = `
        SELECT r.id, r.ticket_id, r.author_id, r.sender_role, r.message,
               r.attachment_url, r.attachment_storage_key, r.created_at, r.updated_at,
               u.username, u.email, u.role
        FROM replies r
        JOIN users u ON u.id = r.author_id
        WHERE r.ticket_id=$1
        ORDER BY r.created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReplyWithAuthor
	for rows.Next() {
		var (
			reply         domain.ReplyWithAuthor
			attachmentURL *string
			storageKey    *string
		)
		if err := rows.Scan(
			&reply.ID,
			&reply.TicketID,
			&reply.AuthorID,
			&reply.SenderRole,
			&reply.Message,
			&attachmentURL,
			&storageKey,
			&reply.CreatedAt,
			&reply.UpdatedAt,
			&reply.Author.Username,
			&reply.Author.Email,
			&reply.Author.Role,
		); err != nil {
			return nil, err
		}
		reply.Attachment = attachmentFromColumns(attachmentURL, storageKey)
		reply.Author.ID = reply.AuthorID
		result = append(result, reply)
	}
	return result, rows.Err()
}
