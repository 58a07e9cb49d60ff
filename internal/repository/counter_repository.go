package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository encapsulates the named-counter store. All mutation goes
// through the store's atomic single-row primitives; no in-process locking.
type CounterRepository interface {
	// Increment atomically adds one to the named counter and returns the
	// new value. Returns pgx.ErrNoRows when the counter does not exist yet.
	Increment(ctx context.Context, name string) (int64, error)
	// InsertIfAbsent creates the counter with the given seed value. It
	// reports false when another writer created the counter first.
	InsertIfAbsent(ctx context.Context, name string, value int64) (bool, error)
	// Get reads the current value without modifying it.
	Get(ctx context.Context, name string) (int64, error)
}

type counterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository returns a Postgres-backed implementation.
func NewCounterRepository(pool *pgxpool.Pool) CounterRepository {
	return &counterRepository{pool: pool}
}

func (r *counterRepository) Increment(ctx context.Context, name string) (int64, error) {
	const query = `UPDATE counters SET value = value + 1 WHERE name=$1 RETURNING value`

	var value int64
	if err := r.pool.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

func (r *counterRepository) InsertIfAbsent(ctx context.Context, name string, value int64) (bool, error) {
	const query = `INSERT INTO counters (name, value) VALUES ($1,$2) ON CONFLICT (name) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query, name, value)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *counterRepository) Get(ctx context.Context, name string) (int64, error) {
	const query = `SELECT value FROM counters WHERE name=$1`

	var value int64
	if err := r.pool.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
