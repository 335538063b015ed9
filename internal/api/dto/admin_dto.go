package dto

import (
	"time"

	"github.com/helpme/helpdesk-service/internal/service"
)

// StatusCountsResponse is the dashboard counter block.
type StatusCountsResponse struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Closed     int64 `json:"closed"`
}

// AgentCountsResponse is one agent's workload row.
type AgentCountsResponse struct {
	AgentID  string `json:"agent_id"`
	Assigned int64  `json:"assigned"`
	Closed   int64  `json:"closed"`
}

// DashboardResponse is the admin overview.
type DashboardResponse struct {
	Counts      StatusCountsResponse  `json:"counts"`
	AgentCounts []AgentCountsResponse `json:"agent_counts"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// AgentDashboardResponse is the calling agent's overview.
type AgentDashboardResponse struct {
	Counts      StatusCountsResponse `json:"counts"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// TrendPointResponse is one day in the created-per-day series.
type TrendPointResponse struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// TrendResponse is the created-per-day series.
type TrendResponse struct {
	Days        int                  `json:"days"`
	Points      []TrendPointResponse `json:"points"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// DashboardFromService maps the admin dashboard read model.
func DashboardFromService(d *service.Dashboard) DashboardResponse {
	agents := make([]AgentCountsResponse, 0, len(d.AgentCounts))
	for _, a := range d.AgentCounts {
		agents = append(agents, AgentCountsResponse{
			AgentID:  a.AgentID,
			Assigned: a.Assigned,
			Closed:   a.Closed,
		})
	}
	return DashboardResponse{
		Counts: StatusCountsResponse{
			Total:      d.Counts.Total,
			Open:       d.Counts.Open,
			InProgress: d.Counts.InProgress,
			Closed:     d.Counts.Closed,
		},
		AgentCounts: agents,
		GeneratedAt: d.GeneratedAt,
	}
}

// AgentDashboardFromService maps the agent dashboard read model.
func AgentDashboardFromService(d *service.AgentDashboard) AgentDashboardResponse {
	return AgentDashboardResponse{
		Counts: StatusCountsResponse{
			Total:      d.Counts.Total,
			Open:       d.Counts.Open,
			InProgress: d.Counts.InProgress,
			Closed:     d.Counts.Closed,
		},
		GeneratedAt: d.GeneratedAt,
	}
}

// TrendFromService maps the created-per-day series.
func TrendFromService(t *service.Trend) TrendResponse {
	points := make([]TrendPointResponse, 0, len(t.Points))
	for _, p := range t.Points {
		points = append(points, TrendPointResponse{Day: p.Day, Count: p.Count})
	}
	return TrendResponse{
		Days:        t.Days,
		Points:      points,
		GeneratedAt: t.GeneratedAt,
	}
}
