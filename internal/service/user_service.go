package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/repository"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

// UserService manages the employee directory: admins create users with a
// minted employee id and soft-disable them via the active flag.
type UserService struct {
	users     repository.UserRepository
	sequences *SequenceService
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, sequences *SequenceService, logger *zap.Logger) *UserService {
	return &UserService{users: users, sequences: sequences, logger: logger}
}

// UserCreateInput describes user creation payload. PasswordHash arrives
// pre-hashed from the account collaborator.
type UserCreateInput struct {
	Name         string
	Email        string
	Role         domain.UserRole
	Department   domain.Department
	PasswordHash string
}

// UserUpdateInput describes mutable user fields.
type UserUpdateInput struct {
	Name       string
	Email      string
	Department domain.Department
	IsActive   *bool
}

// Create mints an employee id and persists the user. Without an id no user
// is persisted.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}

	employeeID, err := s.sequences.NextEmployeeID(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		EmployeeID:   employeeID,
		Name:         name,
		Email:        email,
		Role:         input.Role,
		Department:   input.Department,
		IsActive:     true,
		PasswordHash: input.PasswordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.NewPersistenceError("insert user", err)
	}

	s.logger.Info("user created",
		zap.String("employee_id", user.EmployeeID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Update mutates directory fields of an existing user. Tickets that embed a
// snapshot of the previous values are intentionally left untouched.
func (s *UserService) Update(ctx context.Context, employeeID string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.getByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(strings.ToLower(input.Email)); email != "" {
		user.Email = email
	}
	if input.Department != "" {
		user.Department = input.Department
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"employee_id": employeeID})
		}
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.NewPersistenceError("update user", err)
	}
	return user, nil
}

// Deactivate soft-disables a user; an inactive agent drops out of the
// rotation roster on the next selection.
func (s *UserService) Deactivate(ctx context.Context, employeeID string) (*domain.User, error) {
	inactive := false
	return s.Update(ctx, employeeID, UserUpdateInput{IsActive: &inactive})
}

// GetByEmployeeID fetches a single user.
func (s *UserService) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return s.getByEmployeeID(ctx, employeeID)
}

// List returns all users ordered by employee id.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list users", err)
	}
	return users, nil
}

// ListActiveAgents returns the current assignment roster as snapshots.
func (s *UserService) ListActiveAgents(ctx context.Context) ([]domain.AgentSnapshot, error) {
	agents, err := s.users.ListActiveServiceDesk(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list service desk agents", err)
	}
	snapshots := make([]domain.AgentSnapshot, 0, len(agents))
	for _, agent := range agents {
		snapshots = append(snapshots, domain.AgentSnapshotOf(agent))
	}
	return snapshots, nil
}

func (s *UserService) getByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	user, err := s.users.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"employee_id": employeeID})
		}
		return nil, apperrors.NewPersistenceError("get user", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
