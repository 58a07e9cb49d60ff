package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/repository"
)

// fakeCounterRepo is an in-memory CounterRepository with the same contract as
// the Postgres implementation: Increment on a missing counter returns
// pgx.ErrNoRows, InsertIfAbsent reports whether this caller created the row.
type fakeCounterRepo struct {
	mu             sync.Mutex
	values         map[string]int64
	incrementCalls int
	insertCalls    int
	failIncrement  error
	missOnce       bool
}

func newFakeCounterRepo() *fakeCounterRepo {
	return &fakeCounterRepo{values: map[string]int64{}}
}

func (f *fakeCounterRepo) Increment(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementCalls++
	if f.failIncrement != nil {
		return 0, f.failIncrement
	}
	if f.missOnce {
		f.missOnce = false
		return 0, pgx.ErrNoRows
	}
	value, ok := f.values[name]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	value++
	f.values[name] = value
	return value, nil
}

func (f *fakeCounterRepo) InsertIfAbsent(ctx context.Context, name string, value int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if _, ok := f.values[name]; ok {
		return false, nil
	}
	f.values[name] = value
	return true, nil
}

func (f *fakeCounterRepo) Get(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[name]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return value, nil
}

func (f *fakeCounterRepo) calls() (increments, inserts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incrementCalls, f.insertCalls
}

// fakeUserRepo keeps users keyed by employee id.
type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[string]domain.User
	listErr    error
	rosterErr  error
	listCalls  int
	nextRowID  int
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]domain.User{}}
	for _, user := range users {
		repo.users[user.EmployeeID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	f.nextRowID++
	user.ID = fmt.Sprintf("row-%d", f.nextRowID)
	f.users[user.EmployeeID] = *user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.EmployeeID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[user.EmployeeID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == id {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[employeeID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakeUserRepo) ListActiveServiceDesk(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	var out []domain.User
	for _, user := range f.users {
		if user.IsEligibleAgent() {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakeUserRepo) ListEmployeeIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeTicketRepo keeps tickets keyed by row id.
type fakeTicketRepo struct {
	mu              sync.Mutex
	tickets         map[string]domain.Ticket
	humanIDs        []string
	nextRowID       int
	assignCalls     int
	assignLosesRace bool
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRowID++
	ticket.ID = fmt.Sprintf("ticket-%d", f.nextRowID)
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetByHumanID(ctx context.Context, humanID string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.HumanID == humanID {
			copied := ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.ReporterEmployeeID != nil && ticket.Reporter.EmployeeID != *filter.ReporterEmployeeID {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(ticket.Title, *filter.SearchTerm) {
			continue
		}
		out = append(out, ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HumanID < out[j].HumanID })
	return out, nil
}

func (f *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketRepo) ReplaceAssignment(ctx context.Context, ticketID string, agent domain.AgentSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.AssignedAgent = &agent
	f.tickets[ticketID] = ticket
	return nil
}

func (f *fakeTicketRepo) AssignIfUnassigned(ctx context.Context, ticketID string, agent domain.AgentSnapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls++
	if f.assignLosesRace {
		return false, nil
	}
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if ticket.AssignedAgent != nil {
		return false, nil
	}
	ticket.AssignedAgent = &agent
	f.tickets[ticketID] = ticket
	return true, nil
}

func (f *fakeTicketRepo) AppendComment(ctx context.Context, ticketID string, comment domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Comments = append(ticket.Comments, comment)
	f.tickets[ticketID] = ticket
	return nil
}

func (f *fakeTicketRepo) ListHumanIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.humanIDs != nil {
		return append([]string{}, f.humanIDs...), nil
	}
	ids := make([]string, 0, len(f.tickets))
	for _, ticket := range f.tickets {
		ids = append(ids, ticket.HumanID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeTicketRepo) CountsByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.TicketStatus]int{}
	for _, ticket := range f.tickets {
		counts[ticket.Status]++
	}
	return counts, nil
}

func (f *fakeTicketRepo) CountsByDepartment(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, ticket := range f.tickets {
		counts[string(ticket.Reporter.Department)]++
	}
	return counts, nil
}

func (f *fakeTicketRepo) CountsByStatusForEmployee(ctx context.Context, employeeID string) (map[domain.TicketStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.TicketStatus]int{}
	for _, ticket := range f.tickets {
		if ticket.Reporter.EmployeeID == employeeID {
			counts[ticket.Status]++
		}
	}
	return counts, nil
}

func (f *fakeTicketRepo) get(id string) domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickets[id]
}

func agentUser(employeeID, name string) domain.User {
	return domain.User{
		ID:         "row-" + employeeID,
		EmployeeID: employeeID,
		Name:       name,
		Email:      strings.ToLower(name) + "@example.com",
		Role:       domain.UserRoleServiceDesk,
		IsActive:   true,
		Department: domain.DepartmentIT,
	}
}

func employeeUser(employeeID, name string, department domain.Department) domain.User {
	return domain.User{
		ID:         "row-" + employeeID,
		EmployeeID: employeeID,
		Name:       name,
		Email:      strings.ToLower(name) + "@example.com",
		Role:       domain.UserRoleEmployee,
		IsActive:   true,
		Department: department,
	}
}
