package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo is the authoritative ledger of reservation records.
// Each row books one table for one (date, time) slot on behalf of a
// user known to the external user service.  The time column is kept
// as a canonical HH:MM:SS string so slot comparison is exact string
// equality; the date column maps to time.Time via parseTime=true.
// All timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, date, time, party_size, status, user_id, table_id, created_at, updated_at`

func scanReservation(row interface {
	Scan(dest ...interface{}) error
}, res *model.Reservation) error {
	var status string
	if err := row.Scan(&res.ID, &res.Date, &res.Time, &res.PartySize, &status,
		&res.UserID, &res.TableID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}
	res.Status = model.ReservationStatus(status)
	return nil
}

// Insert persists a new reservation and populates the generated ID
// and the database-assigned timestamps on the provided record.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (date, time, party_size, status, user_id, table_id)
               VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.Date.Format(model.DateLayout), res.Time, res.PartySize, string(res.Status), res.UserID, res.TableID)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, sel, res.ID), res)
}

// GetByID returns a single reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListAll returns every reservation in unspecified order.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations`
	return r.list(ctx, q)
}

// ListByDate returns the reservations for a calendar date.
func (r *ReservationRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE date = ?`
	return r.list(ctx, q, date.Format(model.DateLayout))
}

// ListByUser returns the reservations owned by the given user.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ?`
	return r.list(ctx, q, userID)
}

// ListByStatus returns the reservations currently in the given
// lifecycle state.
func (r *ReservationRepo) ListByStatus(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE status = ?`
	return r.list(ctx, q, string(status))
}

// ListByDateAndStatus returns the reservations for a date in a given
// state.  The allocation engine uses this query, restricted to
// ACTIVE, as the input of its slot conflict check.
func (r *ReservationRepo) ListByDateAndStatus(ctx context.Context, date time.Time, status model.ReservationStatus) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE date = ? AND status = ?`
	return r.list(ctx, q, date.Format(model.DateLayout), string(status))
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reservations := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// Update overwrites the mutable fields of an existing reservation and
// refreshes the record from the database.  ErrReservationNotFound is
// returned when the row is absent.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations
               SET date = ?, time = ?, party_size = ?, status = ?, user_id = ?, table_id = ?
               WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		res.Date.Format(model.DateLayout), res.Time, res.PartySize, string(res.Status),
		res.UserID, res.TableID, res.ID); err != nil {
		return err
	}
	// RowsAffected is zero both for a missing row and for a value-equal
	// rewrite (idempotent cancellation), so existence is confirmed by
	// reading the row back.
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	if err := scanReservation(r.db.QueryRowContext(ctx, sel, res.ID), res); err != nil {
		if err == sql.ErrNoRows {
			return ErrReservationNotFound
		}
		return err
	}
	return nil
}

// DeleteByID removes a reservation unconditionally, bypassing the
// status lifecycle.  ErrReservationNotFound is returned when no row
// was deleted.
func (r *ReservationRepo) DeleteByID(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}
