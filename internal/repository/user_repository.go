package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-desk/internal/domain"
)

// UserRepository defines persistence access for employees and agents.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// ListActiveServiceDesk returns the current eligible assignment targets,
	// ordered by employee id for deterministic rotation indexing.
	ListActiveServiceDesk(ctx context.Context) ([]domain.User, error)
	// ListEmployeeIDs returns every minted employee identifier, used to seed
	// the employee id counter on first use.
	ListEmployeeIDs(ctx context.Context) ([]string, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (employee_id, name, email, role, department, is_active, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.EmployeeID,
		user.Name,
		user.Email,
		user.Role,
		user.Department,
		user.IsActive,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, role=$3, department=$4, is_active=$5, password_hash=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Role,
		user.Department,
		user.IsActive,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = userSelect + ` WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	const query = userSelect + ` WHERE employee_id=$1`
	return r.fetchSingle(ctx, query, employeeID)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = userSelect + ` ORDER BY employee_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListActiveServiceDesk(ctx context.Context) ([]domain.User, error) {
	const query = userSelect + ` WHERE role=$1 AND is_active ORDER BY employee_id`

	rows, err := r.pool.Query(ctx, query, domain.UserRoleServiceDesk)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListEmployeeIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT employee_id FROM users`

	rows, err := r.pool.Query(ctx, query)
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

const userSelect = `
        SELECT id, employee_id, name, email, role, department, is_active, password_hash, created_at, updated_at
        FROM users`

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.EmployeeID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Department,
		&user.IsActive,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.EmployeeID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.Department,
			&user.IsActive,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
