package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrTransient marks failures that are worth retrying.  Repositories wrap it
// into their own sentinels (see repository.ErrSlotTaken).
var ErrTransient = errors.New("transient storage error")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// RetryPolicy bounds how often a unit of work is re-run after a transient
// failure.  Attempts counts the first run; the n-th retry waits n*Backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry is used when a caller leaves its policy zero.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

// Retry runs fn until it succeeds, fails with a non-transient error, the
// attempts are used up or ctx is done.  The last error is returned as is so
// that callers can still classify it with IsTransient.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p = DefaultRetry
	}
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil || !IsTransient(err) || attempt >= p.Attempts {
			return err
		}
		t := time.NewTimer(time.Duration(attempt) * p.Backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

// IsTransient reports whether err is a deadlock, lock timeout, busy
// database or dropped connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// IsDuplicate reports whether err is a unique-key violation.
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
