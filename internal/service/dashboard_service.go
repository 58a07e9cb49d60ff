package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/repository"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

const dashboardCacheKey = "incident-desk:dashboard:counts"

// DashboardCounts aggregates the ticket set for dashboards. Statuses with no
// tickets are absent from the maps; callers treat a missing key as zero.
type DashboardCounts struct {
	Total        int                            `json:"total"`
	ByStatus     map[domain.TicketStatus]int    `json:"by_status"`
	ByDepartment map[domain.Department]int      `json:"by_department,omitempty"`
	Percentages  map[domain.TicketStatus]float64 `json:"percentages"`
}

// DashboardService computes status/department/agent aggregates. The global
// view is cached in Redis for a short TTL; cache failures fall back to
// direct queries.
type DashboardService struct {
	tickets repository.TicketRepository
	cache   *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDashboardService constructs the service. cache may be nil.
func NewDashboardService(tickets repository.TicketRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{tickets: tickets, cache: cache, ttl: ttl, logger: logger}
}

// Counts returns the global dashboard aggregates.
func (s *DashboardService) Counts(ctx context.Context) (*DashboardCounts, error) {
	if cached := s.readCache(ctx); cached != nil {
		return cached, nil
	}

	byStatus, err := s.tickets.CountsByStatus(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("counts by status", err)
	}
	rawDepartments, err := s.tickets.CountsByDepartment(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("counts by department", err)
	}

	counts := &DashboardCounts{
		ByStatus:     byStatus,
		ByDepartment: parseDepartmentCounts(rawDepartments, s.logger),
	}
	for _, n := range byStatus {
		counts.Total += n
	}
	counts.Percentages = StatusPercentages(byStatus, counts.Total)

	s.writeCache(ctx, counts)
	return counts, nil
}

// CountsForEmployee returns status aggregates for one reporter's tickets.
func (s *DashboardService) CountsForEmployee(ctx context.Context, employeeID string) (*DashboardCounts, error) {
	byStatus, err := s.tickets.CountsByStatusForEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("counts by status for employee", err)
	}

	counts := &DashboardCounts{ByStatus: byStatus}
	for _, n := range byStatus {
		counts.Total += n
	}
	counts.Percentages = StatusPercentages(byStatus, counts.Total)
	return counts, nil
}

// StatusPercentages derives each status's share of the total. A zero total
// yields all-zero percentages rather than a division error.
func StatusPercentages(counts map[domain.TicketStatus]int, total int) map[domain.TicketStatus]float64 {
	percentages := make(map[domain.TicketStatus]float64, len(counts))
	for status := range counts {
		percentages[status] = 0
	}
	if total == 0 {
		return percentages
	}
	for status, n := range counts {
		percentages[status] = float64(n) * 100 / float64(total)
	}
	return percentages
}

// parseDepartmentCounts maps raw department strings through the enum,
// dropping legacy values that no longer parse.
func parseDepartmentCounts(raw map[string]int, logger *zap.Logger) map[domain.Department]int {
	counts := make(map[domain.Department]int, len(raw))
	for name, n := range raw {
		department, err := domain.ParseDepartment(name)
		if err != nil {
			logger.Debug("dropping unparseable department bucket", zap.String("department", name))
			continue
		}
		counts[department] = n
	}
	return counts
}

func (s *DashboardService) readCache(ctx context.Context) *DashboardCounts {
	if s.cache == nil || s.ttl <= 0 {
		return nil
	}
	payload, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var counts DashboardCounts
	if err := json.Unmarshal(payload, &counts); err != nil {
		s.logger.Debug("dashboard cache payload invalid", zap.Error(err))
		return nil
	}
	return &counts
}

func (s *DashboardService) writeCache(ctx context.Context, counts *DashboardCounts) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	payload, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Debug("dashboard cache write failed", zap.Error(err))
	}
}
