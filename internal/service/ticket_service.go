package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/events"
	"github.com/spec-kit/incident-desk/internal/repository"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

// TicketService coordinates ticket workflows: identifier allocation, agent
// assignment, status transitions and the self-healing read paths.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	sequences  *SequenceService
	allocator  *AssignmentService
	reconciler *ReconcileService
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Sequences  *SequenceService
	Allocator  *AssignmentService
	Reconciler *ReconcileService
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ReporterEmployeeID string
	Title              string
	Description        string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	ReporterEmployeeID *string
	AssignedEmployeeID *string
	Statuses           []domain.TicketStatus
	SearchTerm         *string
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	Limit              int
	Offset             int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		sequences:  deps.Sequences,
		allocator:  deps.Allocator,
		reconciler: deps.Reconciler,
		dispatcher: deps.Dispatcher,
	}
}

// Create mints a ticket id, snapshots the reporter, allocates an agent via
// rotation and persists the ticket. No ticket is persisted without an id and
// an assignment: allocation failures and an empty roster reject the create.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	reporter, err := s.users.GetByEmployeeID(ctx, input.ReporterEmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reporter", map[string]any{"employee_id": input.ReporterEmployeeID})
		}
		return nil, apperrors.NewPersistenceError("get reporter", err)
	}

	agents, err := s.users.ListActiveServiceDesk(ctx)
	if err != nil {
		// Fail closed: a roster query failure must not produce an
		// unassigned ticket.
		return nil, apperrors.NewPersistenceError("list service desk agents", err)
	}
	agent, err := s.allocator.SelectAgent(ctx, agents)
	if err != nil {
		return nil, err
	}

	humanID, err := s.sequences.NextTicketID(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		HumanID:       humanID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Reporter:      domain.EmployeeSnapshotOf(*reporter),
		AssignedAgent: &agent,
		Comments:      []domain.Comment{},
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceError("insert ticket", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketCreated,
		TicketID:        ticket.ID,
		TicketHumanID:   ticket.HumanID,
		ActorEmployeeID: reporter.EmployeeID,
		Payload: events.TicketCreatedPayload{
			Title:              ticket.Title,
			ReporterEmployeeID: ticket.Reporter.EmployeeID,
			Department:         ticket.Reporter.Department,
		},
	})
	s.publishEvent(ctx, events.Event{
		Type:          events.EventTicketAssigned,
		TicketID:      ticket.ID,
		TicketHumanID: ticket.HumanID,
		Payload: events.TicketAssignedPayload{
			AgentEmployeeID: agent.EmployeeID,
			AgentName:       agent.Name,
		},
	})
	return ticket, nil
}

// UpdateStatus applies the closed/open transition rules. Entering a closed
// state stamps closedAt only once; reopening clears it.
func (s *TicketService) UpdateStatus(ctx context.Context, actorEmployeeID, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	if newStatus.IsClosed() {
		if ticket.ClosedAt == nil {
			now := time.Now().UTC()
			ticket.ClosedAt = &now
		}
	} else {
		ticket.ClosedAt = nil
	}
	ticket.Status = newStatus

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError("update ticket", err)
	}

	if oldStatus != newStatus {
		s.publishEvent(ctx, events.Event{
			Type:            events.EventTicketStatusChanged,
			TicketID:        ticket.ID,
			TicketHumanID:   ticket.HumanID,
			ActorEmployeeID: actorEmployeeID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: newStatus,
			},
		})
	}
	return ticket, nil
}

// Reassign is the manual override: it bypasses rotation and pins the ticket
// to the named agent, who must still be an active service-desk user.
func (s *TicketService) Reassign(ctx context.Context, actorEmployeeID, ticketID, agentEmployeeID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	agentUser, err := s.users.GetByEmployeeID(ctx, agentEmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"employee_id": agentEmployeeID})
		}
		return nil, apperrors.NewPersistenceError("get agent", err)
	}
	if !agentUser.IsEligibleAgent() {
		return nil, apperrors.NewConflict("user is not an active service desk agent", map[string]any{
			"employee_id": agentEmployeeID,
		})
	}

	agent := domain.AgentSnapshotOf(*agentUser)
	if err := s.tickets.ReplaceAssignment(ctx, ticket.ID, agent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError("replace assignment", err)
	}
	ticket.AssignedAgent = &agent

	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketReassigned,
		TicketID:        ticket.ID,
		TicketHumanID:   ticket.HumanID,
		ActorEmployeeID: actorEmployeeID,
		Payload: events.TicketAssignedPayload{
			AgentEmployeeID: agent.EmployeeID,
			AgentName:       agent.Name,
			Manual:          true,
		},
	})
	return ticket, nil
}

// List returns tickets matching the filter, passed through the backfill
// reconciler so orphaned tickets are repaired on read.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		ReporterEmployeeID: filter.ReporterEmployeeID,
		AssignedEmployeeID: filter.AssignedEmployeeID,
		Statuses:           filter.Statuses,
		SearchTerm:         filter.SearchTerm,
		CreatedFrom:        filter.CreatedFrom,
		CreatedTo:          filter.CreatedTo,
		Limit:              filter.Limit,
		Offset:             filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list tickets", err)
	}
	return s.reconciler.Reconcile(ctx, tickets), nil
}

// GetByID fetches a single ticket, also through the reconciler.
func (s *TicketService) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	repaired := s.reconciler.Reconcile(ctx, []domain.Ticket{*ticket})
	return &repaired[0], nil
}

// AddComment appends a comment to the ticket's ordered thread.
func (s *TicketService) AddComment(ctx context.Context, authorEmployeeID, ticketID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByEmployeeID(ctx, authorEmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("author", map[string]any{"employee_id": authorEmployeeID})
		}
		return nil, apperrors.NewPersistenceError("get author", err)
	}

	comment := domain.Comment{
		AuthorEmployeeID: author.EmployeeID,
		AuthorName:       author.Name,
		Body:             body,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.tickets.AppendComment(ctx, ticket.ID, comment); err != nil {
		return nil, apperrors.NewPersistenceError("append comment", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:            events.EventTicketCommentAdded,
		TicketID:        ticket.ID,
		TicketHumanID:   ticket.HumanID,
		ActorEmployeeID: author.EmployeeID,
		Payload: events.TicketCommentAddedPayload{
			AuthorEmployeeID: author.EmployeeID,
			BodyPreview:      stringPreview(body, 120),
		},
	})
	return &comment, nil
}

// Delete removes a ticket. Peripheral operation; counters are untouched.
func (s *TicketService) Delete(ctx context.Context, ticketID string) error {
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewPersistenceError("delete ticket", err)
	}
	return nil
}

// getTicket accepts either the row id or the human-readable "INC-…" id.
func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	lookup := s.tickets.GetByID
	if strings.HasPrefix(ticketID, domain.TicketIDPrefix+"-") {
		lookup = s.tickets.GetByHumanID
	}
	ticket, err := lookup(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError("get ticket", err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

// allowedTransitions includes the identity edge for each state so repeated
// updates to the same status stay idempotent.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen: {
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusClosedResolved,
		domain.TicketStatusClosedNoResolve,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusInProgress,
		domain.TicketStatusOpen,
		domain.TicketStatusClosedResolved,
		domain.TicketStatusClosedNoResolve,
	},
	domain.TicketStatusClosedResolved: {
		domain.TicketStatusClosedResolved,
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
	},
	domain.TicketStatusClosedNoResolve: {
		domain.TicketStatusClosedNoResolve,
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
	},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
