package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/happycoon/coffee-table-reservation/internal/model"
)

// TableRepo is the table inventory.  It creates, lists and deletes the
// shop's physical tables.
type TableRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

// Create inserts a new table of the given type and reads the row back so
// that created_at is populated.
func (r *TableRepo) Create(ctx context.Context, tableType model.TableType) (*model.Table, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO cafe_tables (table_type) VALUES (?)`, string(tableType))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, r.db, uint64(id))
}

// GetByID retrieves a table by its ID.  It returns ErrTableNotFound when no
// row is found.
func (r *TableRepo) GetByID(ctx context.Context, q Querier, id uint64) (*model.Table, error) {
	const sel = `SELECT id, table_type, created_at FROM cafe_tables WHERE id = ?`
	var t model.Table
	var tableType string
	err := q.QueryRowContext(ctx, sel, id).Scan(&t.ID, &tableType, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	t.Type = model.TableType(tableType)
	return &t, nil
}

// List returns every table ordered by id.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	return r.list(ctx, `SELECT id, table_type, created_at FROM cafe_tables ORDER BY id`)
}

// ListByType returns the tables of one type ordered by id.
func (r *TableRepo) ListByType(ctx context.Context, tableType model.TableType) ([]model.Table, error) {
	return r.list(ctx, `SELECT id, table_type, created_at FROM cafe_tables WHERE table_type = ? ORDER BY id`, string(tableType))
}

// CountByType returns how many tables exist per type.  Types without
// tables are absent from the map.
func (r *TableRepo) CountByType(ctx context.Context) (map[model.TableType]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT table_type, COUNT(*) FROM cafe_tables GROUP BY table_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.TableType]int)
	for rows.Next() {
		var (
			tableType string
			n         int
		)
		if err := rows.Scan(&tableType, &n); err != nil {
			return nil, err
		}
		out[model.TableType(tableType)] = n
	}
	return out, rows.Err()
}

// DeleteTx removes a table together with its bookings and their slots
// inside tx.  It returns the number of bookings removed.
func (r *TableRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) (removedBookings int64, err error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_slots WHERE table_id = ?`, id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE table_id = ?`, id)
	if err != nil {
		return 0, err
	}
	removedBookings, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM cafe_tables WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrTableNotFound
	}
	return removedBookings, nil
}

func (r *TableRepo) list(ctx context.Context, q string, args ...any) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Table{}
	for rows.Next() {
		var t model.Table
		var tableType string
		if err := rows.Scan(&t.ID, &tableType, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = model.TableType(tableType)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
