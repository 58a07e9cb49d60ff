package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-desk/internal/domain"
)

// TicketFilter captures list query parameters.
type TicketFilter struct {
	ReporterEmployeeID *string
	AssignedEmployeeID *string
	Statuses           []domain.TicketStatus
	SearchTerm         *string
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	Limit              int
	Offset             int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByHumanID(ctx context.Context, humanID string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error

	// ReplaceAssignment overwrites only the assignment snapshot of a ticket.
	ReplaceAssignment(ctx context.Context, ticketID string, agent domain.AgentSnapshot) error
	// AssignIfUnassigned writes the assignment snapshot only when the ticket
	// is still unassigned; it reports false when another writer won the race.
	AssignIfUnassigned(ctx context.Context, ticketID string, agent domain.AgentSnapshot) (bool, error)
	// AppendComment appends to the ordered comment list of a ticket.
	AppendComment(ctx context.Context, ticketID string, comment domain.Comment) error

	// ListHumanIDs returns every minted ticket identifier, used to seed the
	// ticket id counter on first use.
	ListHumanIDs(ctx context.Context) ([]string, error)

	CountsByStatus(ctx context.Context) (map[domain.TicketStatus]int, error)
	CountsByDepartment(ctx context.Context) (map[string]int, error)
	CountsByStatusForEmployee(ctx context.Context, employeeID string) (map[domain.TicketStatus]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, human_id, title, description, status,
               reporter_employee_id, reporter_name, reporter_email, reporter_role, reporter_department,
               assigned_employee_id, assigned_name, assigned_email, assigned_role,
               comments, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (human_id, title, description, status,
            reporter_employee_id, reporter_name, reporter_email, reporter_role, reporter_department,
            assigned_employee_id, assigned_name, assigned_email, assigned_role, comments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`

	comments, err := marshalComments(ticket.Comments)
	if err != nil {
		return err
	}
	agentID, agentName, agentEmail, agentRole := assignmentColumns(ticket.AssignedAgent)

	return r.pool.QueryRow(ctx, query,
		ticket.HumanID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Reporter.EmployeeID,
		ticket.Reporter.Name,
		ticket.Reporter.Email,
		ticket.Reporter.Role,
		ticket.Reporter.Department,
		agentID,
		agentName,
		agentEmail,
		agentRole,
		comments,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3,
            assigned_employee_id=$4, assigned_name=$5, assigned_email=$6, assigned_role=$7,
            closed_at=$8, updated_at=NOW()
        WHERE id=$9`

	agentID, agentName, agentEmail, agentRole := assignmentColumns(ticket.AssignedAgent)

	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		agentID,
		agentName,
		agentEmail,
		agentRole,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByHumanID(ctx context.Context, humanID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE human_id=$1`
	return r.fetchSingle(ctx, query, humanID)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ReplaceAssignment(ctx context.Context, ticketID string, agent domain.AgentSnapshot) error {
	const query = `
        UPDATE tickets SET assigned_employee_id=$1, assigned_name=$2, assigned_email=$3, assigned_role=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query, agent.EmployeeID, agent.Name, agent.Email, agent.Role, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) AssignIfUnassigned(ctx context.Context, ticketID string, agent domain.AgentSnapshot) (bool, error) {
	const query = `
        UPDATE tickets SET assigned_employee_id=$1, assigned_name=$2, assigned_email=$3, assigned_role=$4, updated_at=NOW()
        WHERE id=$5 AND assigned_employee_id IS NULL`

	cmd, err := r.pool.Exec(ctx, query, agent.EmployeeID, agent.Name, agent.Email, agent.Role, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) AppendComment(ctx context.Context, ticketID string, comment domain.Comment) error {
	const query = `
        UPDATE tickets SET comments = comments || $1::jsonb, updated_at=NOW()
        WHERE id=$2`

	encoded, err := json.Marshal([]domain.Comment{comment})
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, query, encoded, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListHumanIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT human_id FROM tickets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterEmployeeID != nil {
		args = append(args, *filter.ReporterEmployeeID)
		clauses = append(clauses, fmt.Sprintf("reporter_employee_id=$%d", len(args)))
	}
	if filter.AssignedEmployeeID != nil {
		args = append(args, *filter.AssignedEmployeeID)
		clauses = append(clauses, fmt.Sprintf("assigned_employee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountsByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	return r.statusCounts(ctx, query)
}

func (r *ticketRepository) CountsByStatusForEmployee(ctx context.Context, employeeID string) (map[domain.TicketStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM tickets WHERE reporter_employee_id=$1 GROUP BY status`
	return r.statusCounts(ctx, query, employeeID)
}

func (r *ticketRepository) CountsByDepartment(ctx context.Context) (map[string]int, error) {
	const query = `SELECT reporter_department, COUNT(*) FROM tickets GROUP BY reporter_department`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var department string
		var count int
		if err := rows.Scan(&department, &count); err != nil {
			return nil, err
		}
		counts[department] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) statusCounts(ctx context.Context, query string, args ...any) (map[domain.TicketStatus]int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		rawComment []byte
		agentID    *string
		agentName  *string
		agentEmail *string
		agentRole  *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.HumanID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Reporter.EmployeeID,
		&ticket.Reporter.Name,
		&ticket.Reporter.Email,
		&ticket.Reporter.Role,
		&ticket.Reporter.Department,
		&agentID,
		&agentName,
		&agentEmail,
		&agentRole,
		&rawComment,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	if agentID != nil {
		ticket.AssignedAgent = &domain.AgentSnapshot{
			EmployeeID: *agentID,
			Name:       deref(agentName),
			Email:      deref(agentEmail),
			Role:       domain.UserRole(deref(agentRole)),
		}
	}
	if len(rawComment) > 0 {
		if err := json.Unmarshal(rawComment, &ticket.Comments); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}

func marshalComments(comments []domain.Comment) ([]byte, error) {
	if comments == nil {
		comments = []domain.Comment{}
	}
	return json.Marshal(comments)
}

func assignmentColumns(agent *domain.AgentSnapshot) (id, name, email, role *string) {
	if agent == nil {
		return nil, nil, nil, nil
	}
	roleStr := string(agent.Role)
	return &agent.EmployeeID, &agent.Name, &agent.Email, &roleStr
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
