package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
)

func seedDashboardTickets(t *testing.T, repo *fakeTicketRepo) {
	t.Helper()
	add := func(humanID string, status domain.TicketStatus, reporter domain.User) {
		ticket := domain.Ticket{
			HumanID:  humanID,
			Status:   status,
			Reporter: domain.EmployeeSnapshotOf(reporter),
		}
		require.NoError(t, repo.Create(context.Background(), &ticket))
	}
	rae := employeeUser("EMP-0100", "Rae", domain.DepartmentIT)
	kim := employeeUser("EMP-0101", "Kim", domain.DepartmentHR)

	add("INC-0001", domain.TicketStatusOpen, rae)
	add("INC-0002", domain.TicketStatusOpen, rae)
	add("INC-0003", domain.TicketStatusInProgress, kim)
	add("INC-0004", domain.TicketStatusClosedResolved, kim)
}

func TestDashboardCounts(t *testing.T) {
	repo := newFakeTicketRepo()
	seedDashboardTickets(t, repo)
	svc := NewDashboardService(repo, nil, 0, zap.NewNop())

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, counts.Total)
	require.Equal(t, 2, counts.ByStatus[domain.TicketStatusOpen])
	require.Equal(t, 1, counts.ByStatus[domain.TicketStatusInProgress])
	require.Equal(t, 1, counts.ByStatus[domain.TicketStatusClosedResolved])
	require.Zero(t, counts.ByStatus[domain.TicketStatusClosedNoResolve], "absent key reads as zero")

	require.Equal(t, 2, counts.ByDepartment[domain.DepartmentIT])
	require.Equal(t, 2, counts.ByDepartment[domain.DepartmentHR])

	require.InDelta(t, 50.0, counts.Percentages[domain.TicketStatusOpen], 0.001)
	require.InDelta(t, 25.0, counts.Percentages[domain.TicketStatusInProgress], 0.001)
}

func TestDashboardCountsEmptyStore(t *testing.T) {
	svc := NewDashboardService(newFakeTicketRepo(), nil, 0, zap.NewNop())

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	require.Zero(t, counts.Total)
	require.Empty(t, counts.ByStatus)
	require.Empty(t, counts.Percentages)
}

func TestDashboardCountsForEmployee(t *testing.T) {
	repo := newFakeTicketRepo()
	seedDashboardTickets(t, repo)
	svc := NewDashboardService(repo, nil, 0, zap.NewNop())

	counts, err := svc.CountsForEmployee(context.Background(), "EMP-0101")
	require.NoError(t, err)
	require.Equal(t, 2, counts.Total)
	require.Equal(t, 1, counts.ByStatus[domain.TicketStatusInProgress])
	require.Equal(t, 1, counts.ByStatus[domain.TicketStatusClosedResolved])
	require.Nil(t, counts.ByDepartment)
}

func TestStatusPercentagesZeroTotal(t *testing.T) {
	counts := map[domain.TicketStatus]int{domain.TicketStatusOpen: 0}

	percentages := StatusPercentages(counts, 0)
	require.Equal(t, 0.0, percentages[domain.TicketStatusOpen])
}

func TestParseDepartmentCountsDropsLegacyValues(t *testing.T) {
	raw := map[string]int{
		"IT":        3,
		"Facilites": 2, // legacy free-text value, no enum match
	}

	counts := parseDepartmentCounts(raw, zap.NewNop())
	require.Equal(t, map[domain.Department]int{domain.DepartmentIT: 3}, counts)
}
