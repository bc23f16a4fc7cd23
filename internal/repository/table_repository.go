package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides CRUD operations for restaurant tables.  Tables
// are only ever read by the allocation path; the write operations
// back the administrative endpoints.  All timestamp fields are
// assumed to be stored in UTC.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, number, capacity, available, created_at, updated_at`

func scanTable(row interface {
	Scan(dest ...interface{}) error
}, t *model.Table) error {
	return row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Available, &t.CreatedAt, &t.UpdatedAt)
}

// Create inserts a new table and populates the generated ID and the
// database-assigned timestamps on the provided record.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO tables (number, capacity, available) VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, t.Number, t.Capacity, t.Available)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	return scanTable(r.db.QueryRowContext(ctx, sel, t.ID), t)
}

// GetByID returns a single table or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	var t model.Table
	if err := scanTable(r.db.QueryRowContext(ctx, q, id), &t); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListAll returns every table.  When none exist an empty slice is
// returned.
func (r *TableRepo) ListAll(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables`
	return r.list(ctx, q)
}

// ListAvailable returns the tables whose coarse available flag is
// set.  Slot-level booking state is not considered here.
func (r *TableRepo) ListAvailable(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE available = TRUE`
	return r.list(ctx, q)
}

// ListWithCapacityAtLeast returns the tables seating at least n
// diners, in no particular order.
func (r *TableRepo) ListWithCapacityAtLeast(ctx context.Context, n uint32) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE capacity >= ?`
	return r.list(ctx, q, n)
}

func (r *TableRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Update persists changes to number, capacity and availability for an
// existing table.  ErrTableNotFound is returned when the row is
// absent.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE tables SET number = ?, capacity = ?, available = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, t.Number, t.Capacity, t.Available, t.ID); err != nil {
		return err
	}
	// Query back to refresh updated_at and confirm the row exists;
	// RowsAffected is zero for a no-op update, so it cannot be used to
	// detect a missing row.
	const sel = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	if err := scanTable(r.db.QueryRowContext(ctx, sel, t.ID), t); err != nil {
		if err == sql.ErrNoRows {
			return ErrTableNotFound
		}
		return err
	}
	return nil
}

// Delete removes a table.  Deletion is refused with ErrConflict while
// any ACTIVE reservation still references the table, so a booked slot
// can never dangle.  The existence check and the delete run inside a
// single transaction.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const check = `SELECT COUNT(*) FROM reservations WHERE table_id = ? AND status = 'ACTIVE'`
	var active int
	if err := tx.QueryRowContext(ctx, check, id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTableNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
