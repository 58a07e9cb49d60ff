package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/observability"
)

func newReconcileService(tickets *fakeTicketRepo, users *fakeUserRepo, counters *fakeCounterRepo) *ReconcileService {
	return NewReconcileService(ReconcileDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Allocator:  newAssignmentService(counters),
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
}

func unassignedTicket(t *testing.T, repo *fakeTicketRepo, humanID string) domain.Ticket {
	t.Helper()
	ticket := domain.Ticket{
		HumanID:  humanID,
		Title:    "printer on fire",
		Status:   domain.TicketStatusOpen,
		Reporter: domain.EmployeeSnapshotOf(employeeUser("EMP-0100", "Rae", domain.DepartmentIT)),
	}
	require.NoError(t, repo.Create(context.Background(), &ticket))
	return ticket
}

func TestReconcileRepairsOrphanedTickets(t *testing.T) {
	repo := newFakeTicketRepo()
	users := newFakeUserRepo(agentUser("EMP-0001", "Ana"))
	svc := newReconcileService(repo, users, newFakeCounterRepo())

	orphan := unassignedTicket(t, repo, "INC-0001")

	out := svc.Reconcile(context.Background(), []domain.Ticket{orphan})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].AssignedAgent)
	require.Equal(t, "EMP-0001", out[0].AssignedAgent.EmployeeID)

	// The correction is persisted, not just attached to the response.
	stored := repo.get(orphan.ID)
	require.NotNil(t, stored.AssignedAgent)
	require.Equal(t, "EMP-0001", stored.AssignedAgent.EmployeeID)
	require.Equal(t, 1, repo.assignCalls)
}

func TestReconcileNoOrphansTouchesNothing(t *testing.T) {
	repo := newFakeTicketRepo()
	users := newFakeUserRepo(agentUser("EMP-0001", "Ana"))
	svc := newReconcileService(repo, users, newFakeCounterRepo())

	agent := domain.AgentSnapshotOf(agentUser("EMP-0001", "Ana"))
	assigned := domain.Ticket{
		HumanID:       "INC-0002",
		Status:        domain.TicketStatusOpen,
		AssignedAgent: &agent,
	}

	out := svc.Reconcile(context.Background(), []domain.Ticket{assigned})
	require.Len(t, out, 1)
	require.Zero(t, repo.assignCalls)
	require.Zero(t, users.listCalls, "roster must not be queried when nothing is missing")
}

func TestReconcileEmptyRosterIsNonFatal(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newReconcileService(repo, newFakeUserRepo(), newFakeCounterRepo())

	orphan := unassignedTicket(t, repo, "INC-0003")

	out := svc.Reconcile(context.Background(), []domain.Ticket{orphan})
	require.Len(t, out, 1)
	require.Nil(t, out[0].AssignedAgent)
	require.Zero(t, repo.assignCalls)
}

func TestReconcileRosterFailureIsNonFatal(t *testing.T) {
	repo := newFakeTicketRepo()
	users := newFakeUserRepo(agentUser("EMP-0001", "Ana"))
	users.rosterErr = errors.New("roster unavailable")
	svc := newReconcileService(repo, users, newFakeCounterRepo())

	orphan := unassignedTicket(t, repo, "INC-0004")

	out := svc.Reconcile(context.Background(), []domain.Ticket{orphan})
	require.Len(t, out, 1)
	require.Nil(t, out[0].AssignedAgent)
}

func TestReconcileLostRaceKeepsResponsePick(t *testing.T) {
	repo := newFakeTicketRepo()
	repo.assignLosesRace = true
	users := newFakeUserRepo(agentUser("EMP-0001", "Ana"))
	svc := newReconcileService(repo, users, newFakeCounterRepo())

	orphan := unassignedTicket(t, repo, "INC-0005")

	out := svc.Reconcile(context.Background(), []domain.Ticket{orphan})
	require.Len(t, out, 1)
	// The in-memory pick stays on the returned batch even though the write
	// lost to a concurrent reconciler.
	require.NotNil(t, out[0].AssignedAgent)
	require.Equal(t, 1, repo.assignCalls)
}

func TestReconcileSpreadsAcrossRoster(t *testing.T) {
	repo := newFakeTicketRepo()
	users := newFakeUserRepo(
		agentUser("EMP-0001", "Ana"),
		agentUser("EMP-0002", "Ben"),
	)
	svc := newReconcileService(repo, users, newFakeCounterRepo())

	batch := []domain.Ticket{
		unassignedTicket(t, repo, "INC-0006"),
		unassignedTicket(t, repo, "INC-0007"),
		unassignedTicket(t, repo, "INC-0008"),
		unassignedTicket(t, repo, "INC-0009"),
	}

	out := svc.Reconcile(context.Background(), batch)
	picks := map[string]int{}
	for _, ticket := range out {
		require.NotNil(t, ticket.AssignedAgent)
		picks[ticket.AssignedAgent.EmployeeID]++
	}
	require.Equal(t, map[string]int{"EMP-0001": 2, "EMP-0002": 2}, picks)
}
