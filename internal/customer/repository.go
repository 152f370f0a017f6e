package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

var (
	// ErrCustomerNotFound is returned by repositories when no row matches.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrNICTaken is returned when the nic unique constraint rejects an insert.
	ErrNICTaken = errors.New("nic already registered")
)

// Repository persists customers.
type Repository interface {
	// Create assigns the next sequential id (BaseID on an empty store),
	// inserts c and returns the id.
	Create(ctx context.Context, c Customer) (int64, error)
	ExistsByNIC(ctx context.Context, nic string) (bool, error)
	FindByID(ctx context.Context, id int64) (Customer, error)
	UpdatePINHash(ctx context.Context, id int64, pinHash string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed customer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create reads MAX(id) and inserts in one serializable transaction so two
// concurrent writers cannot commit the same id.
func (r *PostgresRepository) Create(ctx context.Context, c Customer) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var next int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id) + 1, $1) FROM customers`, BaseID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next customer id: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO customers (id, nic, name, pin_hash, dob, mobile_num, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`, next, c.NIC, c.Name, c.PINHash, c.DOB, c.MobileNum, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "nic") {
			return 0, ErrNICTaken
		}
		return 0, fmt.Errorf("insert customer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit create: %w", err)
	}
	return next, nil
}

// ExistsByNIC reports whether a customer with nic is already registered.
func (r *PostgresRepository) ExistsByNIC(ctx context.Context, nic string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE nic = $1)`, nic).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup nic: %w", err)
	}
	return exists, nil
}

// FindByID fetches a customer by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT id, nic, name, pin_hash, dob, mobile_num, created_at, updated_at
        FROM customers WHERE id = $1`, id)
	var c Customer
	if err := row.Scan(&c.ID, &c.NIC, &c.Name, &c.PINHash, &c.DOB, &c.MobileNum, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, fmt.Errorf("find customer %d: %w", id, err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// UpdatePINHash replaces the stored PIN hash inside a transaction.
func (r *PostgresRepository) UpdatePINHash(ctx context.Context, id int64, pinHash string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin pin update: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE customers SET pin_hash = $1, updated_at = $2 WHERE id = $3`, pinHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update pin: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit pin update: %w", err)
	}
	return nil
}
