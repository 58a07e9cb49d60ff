package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/observability"
	"github.com/spec-kit/incident-desk/internal/repository"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

// AssignmentService distributes tickets across active service-desk agents
// using a persistent rotation counter. The counter is shared by every
// rotation decision and never resets, which keeps the long-run split fair
// even as the roster changes size between calls.
type AssignmentService struct {
	counters repository.CounterRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(counters repository.CounterRepository, metrics *observability.Metrics, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{counters: counters, metrics: metrics, logger: logger}
}

// SelectAgent picks the next assignee from the given roster and captures it
// as a value snapshot. A single-agent roster bypasses the rotation counter
// entirely; an empty roster is rejected so a ticket is never silently left
// unassigned.
func (s *AssignmentService) SelectAgent(ctx context.Context, agents []domain.User) (domain.AgentSnapshot, error) {
	if len(agents) == 0 {
		return domain.AgentSnapshot{}, apperrors.NewNoEligibleAgents()
	}
	if len(agents) == 1 {
		snapshot := domain.AgentSnapshotOf(agents[0])
		s.metrics.RecordAssignment(snapshot.EmployeeID)
		return snapshot, nil
	}

	value, err := s.nextRotationValue(ctx)
	if err != nil {
		return domain.AgentSnapshot{}, apperrors.NewAllocationError(domain.CounterAgentRotation, err)
	}

	index := int(value % int64(len(agents)))
	snapshot := domain.AgentSnapshotOf(agents[index])
	s.metrics.RecordAssignment(snapshot.EmployeeID)
	s.logger.Debug("rotation pick",
		zap.Int64("rotation_value", value),
		zap.Int("roster_size", len(agents)),
		zap.String("agent", snapshot.EmployeeID))
	return snapshot, nil
}

// nextRotationValue increments the rotation counter, lazily creating it on
// first use. There is nothing meaningful to seed from, so it starts at 1.
func (s *AssignmentService) nextRotationValue(ctx context.Context) (int64, error) {
	value, err := s.counters.Increment(ctx, domain.CounterAgentRotation)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	created, err := s.counters.InsertIfAbsent(ctx, domain.CounterAgentRotation, 1)
	if err != nil {
		return 0, err
	}
	if created {
		return 1, nil
	}
	return s.counters.Increment(ctx, domain.CounterAgentRotation)
}
