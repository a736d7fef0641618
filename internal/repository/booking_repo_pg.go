package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	IsAvailable(ctx context.Context, r domain.DateRange) (bool, error)
	Create(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context) ([]domain.Booking, error)
}

// bookingsLockKey serialises check-and-insert across connections.
const bookingsLockKey int64 = 0x626e62 // "bnb"

const exclusionViolation = "23P01"

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id         BIGSERIAL PRIMARY KEY,
	check_in   DATE NOT NULL,
	check_out  DATE NOT NULL,
	status     TEXT NOT NULL DEFAULT 'CONFIRMED',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (check_in < check_out),
	CONSTRAINT bookings_no_overlap EXCLUDE USING gist (daterange(check_in, check_out, '[)') WITH &&)
)`

const overlapQuery = `SELECT EXISTS (SELECT 1 FROM bookings WHERE NOT (check_out <= $1 OR check_in >= $2))`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create bookings table: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) IsAvailable(ctx context.Context, rng domain.DateRange) (bool, error) {
	var taken bool
	if err := r.db.QueryRow(ctx, overlapQuery, rng.CheckIn, rng.CheckOut).Scan(&taken); err != nil {
		return false, fmt.Errorf("query overlap: %w", err)
	}
	return !taken, nil
}

// Create re-checks the range and inserts inside one transaction. The advisory
// lock orders concurrent writers and the exclusion constraint rejects anything
// that slips past it.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingsLockKey); err != nil {
		return fmt.Errorf("lock bookings: %w", err)
	}

	var taken bool
	if err := tx.QueryRow(ctx, overlapQuery, booking.CheckIn, booking.CheckOut).Scan(&taken); err != nil {
		return fmt.Errorf("query overlap: %w", err)
	}
	if taken {
		return domain.ErrUnavailable
	}

	booking.Status = domain.BookingStatusConfirmed
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (check_in, check_out, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, booking.CheckIn, booking.CheckOut, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt); err != nil {
		if isExclusionViolation(err) {
			return domain.ErrUnavailable
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT id, check_in, check_out, status, created_at FROM bookings ORDER BY check_in`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.CheckIn, &b.CheckOut, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}

var _ BookingRepository = (*PGBookingRepository)(nil)
