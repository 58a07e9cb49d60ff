package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/repository"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

// SequenceService mints collision-free, monotonically increasing
// human-readable identifiers from the shared counter store.
type SequenceService struct {
	counters  repository.CounterRepository
	tickets   repository.TicketRepository
	users     repository.UserRepository
	seedFloor int64
	logger    *zap.Logger
}

// SequenceDependencies bundles repositories for the sequence service.
type SequenceDependencies struct {
	CounterRepo repository.CounterRepository
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	SeedFloor   int64
	Logger      *zap.Logger
}

// NewSequenceService constructs the service.
func NewSequenceService(deps SequenceDependencies) *SequenceService {
	return &SequenceService{
		counters:  deps.CounterRepo,
		tickets:   deps.TicketRepo,
		users:     deps.UserRepo,
		seedFloor: deps.SeedFloor,
		logger:    deps.Logger,
	}
}

// NextTicketID returns the next "INC-…" identifier.
func (s *SequenceService) NextTicketID(ctx context.Context) (string, error) {
	return s.next(ctx, domain.CounterTicketID, domain.TicketIDPrefix, s.tickets.ListHumanIDs)
}

// NextEmployeeID returns the next "EMP-…" identifier.
func (s *SequenceService) NextEmployeeID(ctx context.Context) (string, error) {
	return s.next(ctx, domain.CounterEmployeeID, domain.EmployeeIDPrefix, s.users.ListEmployeeIDs)
}

// next increments the named counter, lazily seeding it on first use from the
// highest identifier already minted for the entity. A seeding collision with
// a concurrent writer falls back to incrementing the now-existing counter.
func (s *SequenceService) next(ctx context.Context, name, prefix string, existingIDs func(context.Context) ([]string, error)) (string, error) {
	value, err := s.counters.Increment(ctx, name)
	if err == nil {
		return FormatID(prefix, value), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NewAllocationError(name, err)
	}

	ids, err := existingIDs(ctx)
	if err != nil {
		return "", apperrors.NewAllocationError(name, err)
	}
	seed := seedValue(ids, s.seedFloor)

	created, err := s.counters.InsertIfAbsent(ctx, name, seed)
	if err != nil {
		return "", apperrors.NewAllocationError(name, err)
	}
	if created {
		s.logger.Info("seeded counter",
			zap.String("counter", name),
			zap.Int64("seed", seed))
		return FormatID(prefix, seed), nil
	}

	// Lost the seeding race; the counter exists now.
	value, err = s.counters.Increment(ctx, name)
	if err != nil {
		return "", apperrors.NewAllocationError(name, err)
	}
	return FormatID(prefix, value), nil
}

// FormatID renders a counter value as a human-readable identifier,
// zero-padded to at least four digits.
func FormatID(prefix string, value int64) string {
	return fmt.Sprintf("%s-%04d", prefix, value)
}

// seedValue computes the first counter value for a fresh counter: one past
// the highest numeric suffix among existing identifiers, or one past the
// floor when none parse.
func seedValue(ids []string, floor int64) int64 {
	var max int64
	found := false
	for _, id := range ids {
		sep := strings.LastIndex(id, "-")
		if sep < 0 {
			continue
		}
		n, err := strconv.ParseInt(id[sep+1:], 10, 64)
		if err != nil {
			continue
		}
		if !found || n > max {
			max = n
			found = true
		}
	}
	if !found {
		max = floor
	}
	return max + 1
}
