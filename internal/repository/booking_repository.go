package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/happycoon/coffee-table-reservation/internal/database"
    "github.com/happycoon/coffee-table-reservation/internal/model"
)

// BookingRepo is the booking ledger.  Every booking row is accompanied by
// one booking_slots row per hour it covers; the unique (table_id,
// slot_start) key on that table rejects overlapping bookings at the storage
// layer.  All times are naive values stored as-is.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, table_id, start_time, end_time, created_at`

// CreateTx inserts a booking and its hour slots within the scope of an
// existing transaction.  It populates ID and CreatedAt on b.  A clash on
// the slot key is reported as ErrSlotTaken.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, table_id, start_time, end_time) VALUES (?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, b.UserID, b.TableID, b.StartTime, b.EndTime)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)

    slots := model.HourSlots(b.StartTime, b.EndTime)
    if len(slots) > 0 {
        placeholders := make([]string, 0, len(slots))
        args := make([]any, 0, len(slots)*3)
        for _, s := range slots {
            placeholders = append(placeholders, "(?, ?, ?)")
            args = append(args, b.ID, b.TableID, s)
        }
        ins := `INSERT INTO booking_slots (booking_id, table_id, slot_start) VALUES ` + strings.Join(placeholders, ", ")
        if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
            if database.IsDuplicate(err) {
                return ErrSlotTaken
            }
            return err
        }
    }

    // Query back the row to populate defaults
    return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// GetByID loads a single booking.  It returns ErrBookingNotFound when the
// row does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, q Querier, id uint64) (*model.Booking, error) {
    row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
    var b model.Booking
    if err := row.Scan(&b.ID, &b.UserID, &b.TableID, &b.StartTime, &b.EndTime, &b.CreatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBookingNotFound
        }
        return nil, err
    }
    return &b, nil
}

// DeleteTx removes a booking and its slots.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM booking_slots WHERE booking_id = ?`, id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrBookingNotFound
    }
    return nil
}

// FirstFreeTable returns the lowest-id table of the given type that has no
// booking overlapping [start, end), or nil when every such table is taken.
// Overlap is the half-open test: existing.start < end AND existing.end > start.
func (r *BookingRepo) FirstFreeTable(ctx context.Context, q Querier, tableType model.TableType, start, end time.Time) (*model.Table, error) {
    const sel = `
        SELECT t.id, t.table_type, t.created_at
        FROM cafe_tables t
        WHERE t.table_type = ?
          AND NOT EXISTS (
              SELECT 1 FROM bookings b
              WHERE b.table_id = t.id
                AND b.start_time < ?
                AND b.end_time > ?
          )
        ORDER BY t.id
        LIMIT 1`
    var t model.Table
    var tt string
    err := q.QueryRowContext(ctx, sel, string(tableType), end, start).Scan(&t.ID, &tt, &t.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    t.Type = model.TableType(tt)
    return &t, nil
}

// ListByUser returns all bookings owned by a user, oldest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY start_time, id`, userID)
}

// ListUpcomingByUser returns the user's bookings that have not ended yet.
func (r *BookingRepo) ListUpcomingByUser(ctx context.Context, userID uint64, now time.Time) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? AND end_time > ? ORDER BY start_time, id`, userID, now)
}

// ListPreviousByUser returns the user's bookings that have already ended.
func (r *BookingRepo) ListPreviousByUser(ctx context.Context, userID uint64, now time.Time) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? AND end_time <= ? ORDER BY start_time, id`, userID, now)
}

// ListByTable returns the bookings of one table, oldest first.
func (r *BookingRepo) ListByTable(ctx context.Context, tableID uint64) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE table_id = ? ORDER BY start_time, id`, tableID)
}

// ListAll returns every booking, oldest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY start_time, id`)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []model.Booking{}
    for rows.Next() {
        var b model.Booking
        if err := rows.Scan(&b.ID, &b.UserID, &b.TableID, &b.StartTime, &b.EndTime, &b.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
