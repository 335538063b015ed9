package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/repository"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

type fakeStatsRepo struct {
	counts      repository.StatusCounts
	agentCounts []repository.AgentCounts
	daily       []repository.DailyCount

	perAgent map[string]repository.StatusCounts
	lastSince time.Time
}

func (f *fakeStatsRepo) CountByStatus(context.Context) (repository.StatusCounts, error) {
	return f.counts, nil
}

func (f *fakeStatsRepo) CountByStatusForAgent(_ context.Context, agentID string) (repository.StatusCounts, error) {
	return f.perAgent[agentID], nil
}

func (f *fakeStatsRepo) CreatedPerDay(_ context.Context, since time.Time) ([]repository.DailyCount, error) {
	f.lastSince = since
	return f.daily, nil
}

func (f *fakeStatsRepo) CountsPerAgent(context.Context) ([]repository.AgentCounts, error) {
	return f.agentCounts, nil
}

func newStatsHarness(repo *fakeStatsRepo) *StatsService {
	return NewStatsService(StatsDependencies{
		StatsRepo: repo,
		Cache:     nil,
		Logger:    zap.NewNop(),
		CacheTTL:  30 * time.Second,
		TrendDays: 14,
	})
}

func TestAdminDashboard(t *testing.T) {
	repo := &fakeStatsRepo{
		counts: repository.StatusCounts{Total: 10, Open: 4, InProgress: 3, Closed: 3},
		agentCounts: []repository.AgentCounts{
			{AgentID: "agent-1", Assigned: 6, Closed: 2},
			{AgentID: "agent-2", Assigned: 1, Closed: 1},
		},
	}
	service := newStatsHarness(repo)
	ctx := context.Background()

	dashboard, err := service.AdminDashboard(ctx, adminPrincipal)
	require.NoError(t, err)
	assert.Equal(t, int64(10), dashboard.Counts.Total)
	assert.Len(t, dashboard.AgentCounts, 2)

	_, err = service.AdminDashboard(ctx, agentPrincipal)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = service.AdminDashboard(ctx, domain.Principal{ID: "root", Role: domain.RoleSuperadmin})
	assert.NoError(t, err)
}

func TestCreatedTrendWindow(t *testing.T) {
	repo := &fakeStatsRepo{
		daily: []repository.DailyCount{
			{Day: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Count: 3},
			{Day: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Count: 5},
		},
	}
	service := newStatsHarness(repo)
	ctx := context.Background()

	trend, err := service.CreatedTrend(ctx, adminPrincipal, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, trend.Days)
	assert.Len(t, trend.Points, 2)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -7), repo.lastSince, time.Minute)

	fallback, err := service.CreatedTrend(ctx, adminPrincipal, 0)
	require.NoError(t, err)
	assert.Equal(t, 14, fallback.Days, "out-of-range window falls back to the default")

	tooWide, err := service.CreatedTrend(ctx, adminPrincipal, 365)
	require.NoError(t, err)
	assert.Equal(t, 14, tooWide.Days)

	_, err = service.CreatedTrend(ctx, userPrincipal, 7)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestOwnDashboard(t *testing.T) {
	repo := &fakeStatsRepo{
		perAgent: map[string]repository.StatusCounts{
			agentPrincipal.ID: {Total: 5, Open: 1, InProgress: 2, Closed: 2},
		},
	}
	service := newStatsHarness(repo)
	ctx := context.Background()

	dashboard, err := service.OwnDashboard(ctx, agentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, int64(5), dashboard.Counts.Total)

	_, err = service.OwnDashboard(ctx, userPrincipal)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = service.OwnDashboard(ctx, adminPrincipal)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden),
		"admin without the agent role has no personal queue")
}
