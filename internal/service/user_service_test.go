package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-desk/internal/domain"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

func newUserFixture(users ...domain.User) (*UserService, *fakeUserRepo) {
	userRepo := newFakeUserRepo(users...)
	sequences := newSequenceService(newFakeCounterRepo(), newFakeTicketRepo(), userRepo, 1000)
	return NewUserService(userRepo, sequences, zap.NewNop()), userRepo
}

func TestCreateUserMintsEmployeeID(t *testing.T) {
	svc, _ := newUserFixture(employeeUser("EMP-0042", "Rae", domain.DepartmentIT))

	user, err := svc.Create(context.Background(), UserCreateInput{
		Name:       "New Hire",
		Email:      "New.Hire@Example.com",
		Role:       domain.UserRoleEmployee,
		Department: domain.DepartmentFinance,
	})
	require.NoError(t, err)
	require.Equal(t, "EMP-0043", user.EmployeeID)
	require.Equal(t, "new.hire@example.com", user.Email)
	require.True(t, user.IsActive)
}

func TestCreateUserRequiresNameAndEmail(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), UserCreateInput{Name: "  ", Email: ""})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestDeactivateRemovesAgentFromRoster(t *testing.T) {
	svc, userRepo := newUserFixture(
		agentUser("EMP-0001", "Ana"),
		agentUser("EMP-0002", "Ben"),
	)

	user, err := svc.Deactivate(context.Background(), "EMP-0001")
	require.NoError(t, err)
	require.False(t, user.IsActive)

	roster, err := userRepo.ListActiveServiceDesk(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, "EMP-0002", roster[0].EmployeeID)
}

func TestUpdateUnknownUser(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Update(context.Background(), "EMP-9999", UserUpdateInput{Name: "Ghost"})
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListActiveAgentsReturnsSnapshots(t *testing.T) {
	inactive := agentUser("EMP-0003", "Cam")
	inactive.IsActive = false
	svc, _ := newUserFixture(
		agentUser("EMP-0002", "Ben"),
		agentUser("EMP-0001", "Ana"),
		inactive,
		employeeUser("EMP-0100", "Rae", domain.DepartmentIT),
	)

	agents, err := svc.ListActiveAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 2)
	// Roster ordering is deterministic for rotation indexing.
	require.Equal(t, "EMP-0001", agents[0].EmployeeID)
	require.Equal(t, "EMP-0002", agents[1].EmployeeID)
}
