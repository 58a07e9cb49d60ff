package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

func newSequenceService(counters *fakeCounterRepo, tickets *fakeTicketRepo, users *fakeUserRepo, floor int64) *SequenceService {
	return NewSequenceService(SequenceDependencies{
		CounterRepo: counters,
		TicketRepo:  tickets,
		UserRepo:    users,
		SeedFloor:   floor,
		Logger:      zap.NewNop(),
	})
}

func TestNextTicketIDSeedsFromExistingIdentifiers(t *testing.T) {
	counters := newFakeCounterRepo()
	tickets := newFakeTicketRepo()
	tickets.humanIDs = []string{"INC-0007", "INC-0003"}
	seq := newSequenceService(counters, tickets, newFakeUserRepo(), 1000)

	id, err := seq.NextTicketID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "INC-0008", id)

	id, err = seq.NextTicketID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "INC-0009", id)
}

func TestNextTicketIDUsesFloorWhenNoSuffixParses(t *testing.T) {
	counters := newFakeCounterRepo()
	tickets := newFakeTicketRepo()
	tickets.humanIDs = []string{"LEGACY", "INC-abc"}
	seq := newSequenceService(counters, tickets, newFakeUserRepo(), 1000)

	id, err := seq.NextTicketID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "INC-1001", id)
}

func TestNextTicketIDEmptyStore(t *testing.T) {
	seq := newSequenceService(newFakeCounterRepo(), newFakeTicketRepo(), newFakeUserRepo(), 1000)

	id, err := seq.NextTicketID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "INC-1001", id)
}

func TestNextEmployeeIDSeedsFromDirectory(t *testing.T) {
	users := newFakeUserRepo(
		employeeUser("EMP-0012", "Dana", domain.DepartmentHR),
		employeeUser("EMP-0005", "Eli", domain.DepartmentIT),
	)
	seq := newSequenceService(newFakeCounterRepo(), newFakeTicketRepo(), users, 1000)

	id, err := seq.NextEmployeeID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "EMP-0013", id)
}

func TestNextTicketIDSeedingRaceFallsBackToIncrement(t *testing.T) {
	counters := newFakeCounterRepo()
	// First increment misses, but by the time InsertIfAbsent runs another
	// writer has already seeded the counter at 42.
	counters.values[domain.CounterTicketID] = 42
	counters.missOnce = true
	tickets := newFakeTicketRepo()
	tickets.humanIDs = []string{"INC-0007"}
	seq := newSequenceService(counters, tickets, newFakeUserRepo(), 1000)

	id, err := seq.NextTicketID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "INC-0043", id)

	_, inserts := counters.calls()
	require.Equal(t, 1, inserts)
}

func TestNextTicketIDWrapsStoreFailure(t *testing.T) {
	counters := newFakeCounterRepo()
	counters.failIncrement = errors.New("connection reset")
	seq := newSequenceService(counters, newFakeTicketRepo(), newFakeUserRepo(), 1000)

	_, err := seq.NextTicketID(context.Background())
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeAllocationFailed))
}

func TestNextTicketIDConcurrentMintsAreDistinct(t *testing.T) {
	counters := newFakeCounterRepo()
	counters.values[domain.CounterTicketID] = 0
	seq := newSequenceService(counters, newFakeTicketRepo(), newFakeUserRepo(), 1000)

	const n = 50
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			id, err := seq.NextTicketID(context.Background())
			require.NoError(t, err)
			ids[slot] = id
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
}

func TestFormatIDZeroPadsToFourDigits(t *testing.T) {
	require.Equal(t, "INC-0008", FormatID("INC", 8))
	require.Equal(t, "INC-1001", FormatID("INC", 1001))
	require.Equal(t, "EMP-12345", FormatID("EMP", 12345))
}
