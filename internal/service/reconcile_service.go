package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/observability"
	"github.com/spec-kit/incident-desk/internal/repository"
)

// ReconcileService repairs tickets that predate assignment allocation. Every
// ticket read path passes its batch through Reconcile, which makes the repair
// lazy and removes the need for a one-time migration.
type ReconcileService struct {
	tickets   repository.TicketRepository
	users     repository.UserRepository
	allocator *AssignmentService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// ReconcileDependencies bundles collaborators for the reconciler.
type ReconcileDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Allocator  *AssignmentService
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewReconcileService constructs the service.
func NewReconcileService(deps ReconcileDependencies) *ReconcileService {
	return &ReconcileService{
		tickets:   deps.TicketRepo,
		users:     deps.UserRepo,
		allocator: deps.Allocator,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Reconcile allocates agents for tickets missing an assignment and persists
// the correction. It never fails the surrounding read: roster problems and
// write failures are logged and the batch is returned best-effort. When no
// ticket is missing an assignment the store is not touched at all.
func (s *ReconcileService) Reconcile(ctx context.Context, tickets []domain.Ticket) []domain.Ticket {
	var missing []int
	for i := range tickets {
		if tickets[i].AssignedAgent == nil {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return tickets
	}

	agents, err := s.users.ListActiveServiceDesk(ctx)
	if err != nil {
		s.logger.Warn("assignment backfill skipped; roster query failed", zap.Error(err))
		return tickets
	}
	if len(agents) == 0 {
		s.logger.Warn("assignment backfill skipped; no active service desk agents",
			zap.Int("unassigned", len(missing)))
		return tickets
	}

	repaired := 0
	for _, i := range missing {
		agent, err := s.allocator.SelectAgent(ctx, agents)
		if err != nil {
			s.logger.Warn("assignment backfill allocation failed",
				zap.String("ticket", tickets[i].HumanID), zap.Error(err))
			continue
		}
		tickets[i].AssignedAgent = &agent

		// Conditional write: only the first reconciler of a concurrently
		// read ticket wins; the loser keeps its pick for this response only.
		won, err := s.tickets.AssignIfUnassigned(ctx, tickets[i].ID, agent)
		if err != nil {
			s.logger.Warn("assignment backfill write failed",
				zap.String("ticket", tickets[i].HumanID), zap.Error(err))
			continue
		}
		if !won {
			s.logger.Debug("ticket assigned by concurrent reconciliation",
				zap.String("ticket", tickets[i].HumanID))
			continue
		}
		repaired++
	}

	if repaired > 0 {
		s.metrics.RecordBackfill(repaired)
		s.logger.Info("backfilled ticket assignments", zap.Int("count", repaired))
	}
	return tickets
}
