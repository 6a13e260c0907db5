// Package repository holds the data access layer.  Repositories work on
// *sql.DB directly; the *Tx variants run inside a caller-owned transaction
// and leave commit or rollback to the caller.
//
// The sentinel values below let higher layers tell failure scenarios apart
// without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/happycoon/coffee-table-reservation/internal/database"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrTableNotFound   = errors.New("table not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrUsernameExists  = errors.New("username already taken")
)

// ErrSlotTaken is returned when inserting a booking hits the unique
// (table_id, slot_start) key, i.e. a concurrent writer won the race for the
// same table.  It wraps database.ErrTransient so the unit of work is
// retried and the availability check runs again.
var ErrSlotTaken = fmt.Errorf("booking slot already taken: %w", database.ErrTransient)

// Querier is satisfied by both *sql.DB and *sql.Tx, so read paths can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
