package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/policy"
	"github.com/helpme/helpdesk-service/internal/repository"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// Dashboard is the admin overview read model.
type Dashboard struct {
	Counts      repository.StatusCounts  `json:"counts"`
	AgentCounts []repository.AgentCounts `json:"agent_counts"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// AgentDashboard summarizes the calling agent's workload.
type AgentDashboard struct {
	Counts      repository.StatusCounts `json:"counts"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// Trend is the created-per-day series.
type Trend struct {
	Days        int                     `json:"days"`
	Points      []repository.DailyCount `json:"points"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// StatsService serves dashboard read models with a short-TTL Redis
// cache in front of the aggregation queries. A cache failure degrades
// to a direct query; it never fails the request.
type StatsService struct {
	stats     repository.StatsRepository
	cache     *redis.Client
	logger    *zap.Logger
	cacheTTL  time.Duration
	trendDays int
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	StatsRepo repository.StatsRepository
	Cache     *redis.Client
	Logger    *zap.Logger
	CacheTTL  time.Duration
	TrendDays int
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	trendDays := deps.TrendDays
	if trendDays <= 0 {
		trendDays = 14
	}
	return &StatsService{
		stats:     deps.StatsRepo,
		cache:     deps.Cache,
		logger:    deps.Logger,
		cacheTTL:  deps.CacheTTL,
		trendDays: trendDays,
	}
}

// AdminDashboard returns global status counts and per-agent workloads.
func (s *StatsService) AdminDashboard(ctx context.Context, principal domain.Principal) (*Dashboard, error) {
	if !policy.HasRole(principal, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("admin role required")
	}

	var cached Dashboard
	if s.cacheGet(ctx, "stats:dashboard", &cached) {
		return &cached, nil
	}

	counts, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	agents, err := s.stats.CountsPerAgent(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dashboard := &Dashboard{
		Counts:      counts,
		AgentCounts: agents,
		GeneratedAt: time.Now().UTC(),
	}
	s.cacheSet(ctx, "stats:dashboard", dashboard)
	return dashboard, nil
}

// CreatedTrend returns the created-per-day series over the configured
// window. Days outside [1, 90] fall back to the default window.
func (s *StatsService) CreatedTrend(ctx context.Context, principal domain.Principal, days int) (*Trend, error) {
	if !policy.HasRole(principal, domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if days <= 0 || days > 90 {
		days = s.trendDays
	}

	key := fmt.Sprintf("stats:trend:%d", days)
	var cached Trend
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	points, err := s.stats.CreatedPerDay(ctx, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	trend := &Trend{
		Days:        days,
		Points:      points,
		GeneratedAt: time.Now().UTC(),
	}
	s.cacheSet(ctx, key, trend)
	return trend, nil
}

// OwnDashboard returns the calling agent's workload counts.
func (s *StatsService) OwnDashboard(ctx context.Context, principal domain.Principal) (*AgentDashboard, error) {
	if !policy.HasRole(principal, domain.RoleAgent) {
		return nil, apperrors.NewForbidden("agent role required")
	}

	key := "stats:agent:" + principal.ID
	var cached AgentDashboard
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	counts, err := s.stats.CountByStatusForAgent(ctx, principal.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dashboard := &AgentDashboard{
		Counts:      counts,
		GeneratedAt: time.Now().UTC(),
	}
	s.cacheSet(ctx, key, dashboard)
	return dashboard, nil
}

func (s *StatsService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("stats cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *StatsService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
