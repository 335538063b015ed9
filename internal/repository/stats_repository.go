package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpme/helpdesk-service/internal/domain"
)

// StatusCounts is the dashboard counter read model.
type StatusCounts struct {
	Total      int64
	Open       int64
	InProgress int64
	Closed     int64
}

// DailyCount is one point in a created-per-day trend.
type DailyCount struct {
	Day   time.Time
	Count int64
}

// AgentCounts summarizes one agent's assigned workload.
type AgentCounts struct {
	AgentID  string
	Assigned int64
	Closed   int64
}

// StatsRepository issues aggregation queries against the ticket store.
// Read-only; no invariants of its own.
type StatsRepository interface {
	CountByStatus(ctx context.Context) (StatusCounts, error)
	CountByStatusForAgent(ctx context.Context, agentID string) (StatusCounts, error)
	CreatedPerDay(ctx context.Context, since time.Time) ([]DailyCount, error)
	CountsPerAgent(ctx context.Context) ([]AgentCounts, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository constructs repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) CountByStatus(ctx context.Context) (StatusCounts, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='open'),
               COUNT(*) FILTER (WHERE status='in-progress'),
               COUNT(*) FILTER (WHERE status='closed')
        FROM tickets`
	var counts StatusCounts
	err := r.pool.QueryRow(ctx, query).Scan(&counts.Total, &counts.Open, &counts.InProgress, &counts.Closed)
	return counts, err
}

func (r *statsRepository) CountByStatusForAgent(ctx context.Context, agentID string) (StatusCounts, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='open'),
               COUNT(*) FILTER (WHERE status='in-progress'),
               COUNT(*) FILTER (WHERE status='closed')
        FROM tickets WHERE assigned_to=$1`
	var counts StatusCounts
	err := r.pool.QueryRow(ctx, query, agentID).Scan(&counts.Total, &counts.Open, &counts.InProgress, &counts.Closed)
	return counts, err
}

func (r *statsRepository) CreatedPerDay(ctx context.Context, since time.Time) ([]DailyCount, error) {
	const query = `
        SELECT date_trunc('day', created_at) AS day, COUNT(*)
        FROM tickets
        WHERE created_at >= $1
        GROUP BY day
        ORDER BY day`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyCount
	for rows.Next() {
		var point DailyCount
		if err := rows.Scan(&point.Day, &point.Count); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

func (r *statsRepository) CountsPerAgent(ctx context.Context) ([]AgentCounts, error) {
	const query = `
        SELECT assigned_to,
               COUNT(*),
               COUNT(*) FILTER (WHERE status=$1)
        FROM tickets
        WHERE assigned_to IS NOT NULL
        GROUP BY assigned_to
        ORDER BY COUNT(*) DESC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AgentCounts
	for rows.Next() {
		var counts AgentCounts
		if err := rows.Scan(&counts.AgentID, &counts.Assigned, &counts.Closed); err != nil {
			return nil, err
		}
		result = append(result, counts)
	}
	return result, rows.Err()
}
