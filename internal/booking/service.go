// Package booking is the reservation core: it resolves a free table for a
// requested interval, validates new bookings and authorizes cancellations.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/happycoon/coffee-table-reservation/internal/database"
	"github.com/happycoon/coffee-table-reservation/internal/lock"
	"github.com/happycoon/coffee-table-reservation/internal/metrics"
	"github.com/happycoon/coffee-table-reservation/internal/model"
	"github.com/happycoon/coffee-table-reservation/internal/queue"
	"github.com/happycoon/coffee-table-reservation/internal/repository"
)

// Scope selects which of a user's bookings to list.
type Scope int

const (
	ScopeAll      Scope = iota
	ScopeUpcoming       // not ended yet
	ScopePrevious       // already ended
)

// Deps are the collaborators of a Service.  Zero values get defaults:
// ledger-backed availability, an in-process locker, no events, DefaultRules,
// the local clock and database.DefaultRetry.
type Deps struct {
	DB           *sql.DB
	Tables       *repository.TableRepo
	Bookings     *repository.BookingRepo
	Availability Availability
	Locker       lock.Locker
	Events       queue.Publisher
	Rules        Rules
	Clock        Clock
	Retry        database.RetryPolicy
	Logger       *zerolog.Logger
}

// Service runs the booking lifecycle and table inventory operations.  It is
// safe for concurrent use.
type Service struct {
	db       *sql.DB
	tables   *repository.TableRepo
	bookings *repository.BookingRepo
	avail    Availability
	locker   lock.Locker
	events   queue.Publisher
	rules    Rules
	now      Clock
	retry    database.RetryPolicy
	log      zerolog.Logger
}

// NewService wires a Service and panics if a storage dependency is nil.
func NewService(d Deps) *Service {
	if d.DB == nil || d.Tables == nil || d.Bookings == nil {
		panic("nil storage dependency passed to NewService")
	}
	s := &Service{
		db:       d.DB,
		tables:   d.Tables,
		bookings: d.Bookings,
		avail:    d.Availability,
		locker:   d.Locker,
		events:   d.Events,
		rules:    d.Rules,
		now:      d.Clock,
		retry:    d.Retry,
		log:      zerolog.Nop(),
	}
	if s.avail == nil {
		s.avail = LedgerAvailability{Bookings: d.Bookings}
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.events == nil {
		s.events = queue.NopPublisher{}
	}
	if s.rules == (Rules{}) {
		s.rules = DefaultRules()
	}
	if s.now == nil {
		s.now = ShopClock(time.Local)
	}
	if s.retry.Attempts < 1 {
		s.retry = database.DefaultRetry
	}
	if d.Logger != nil {
		s.log = d.Logger.With().Str("component", "booking").Logger()
	}
	return s
}

// Now returns the service's current naive time.
func (s *Service) Now() time.Time { return s.now() }

// CreateBooking validates the request, then reserves the first free table
// of tableType for [start, end) on behalf of actor.  Availability check and
// insert run under the per-type lock inside one transaction; a lost race on
// the slot key is retried, which re-runs the availability check.
func (s *Service) CreateBooking(ctx context.Context, actor Actor, tableType model.TableType, start, end time.Time) (*model.Booking, error) {
	b, err := s.createBooking(ctx, actor, tableType, start, end)
	if err != nil {
		metrics.IncBookingRejected(reason(err))
		return nil, err
	}
	metrics.IncBookingCreated(string(tableType))
	s.log.Info().
		Uint64("booking_id", b.ID).
		Uint64("table_id", b.TableID).
		Uint64("user_id", b.UserID).
		Time("start", b.StartTime).
		Time("end", b.EndTime).
		Msg("booking created")
	s.publish(ctx, queue.Event{
		Type:      queue.EventBookingCreated,
		BookingID: b.ID,
		TableID:   b.TableID,
		TableType: string(tableType),
		UserID:    b.UserID,
		ActorID:   actor.UserID,
		StartTime: queue.FormatTime(b.StartTime),
		EndTime:   queue.FormatTime(b.EndTime),
	})
	return b, nil
}

func (s *Service) createBooking(ctx context.Context, actor Actor, tableType model.TableType, start, end time.Time) (*model.Booking, error) {
	if !tableType.Valid() {
		return nil, ErrInvalidTableType
	}
	start, end = Naive(start), Naive(end)
	if err := s.rules.Validate(start, end, s.now()); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, tableType)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *model.Booking
	err = database.Retry(ctx, s.retry, func(ctx context.Context) error {
		b, err := s.reserveOnce(ctx, actor.UserID, tableType, start, end)
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, s.storageError("create booking", err)
	}
	return created, nil
}

// reserveOnce is one attempt at the check-and-insert unit of work.
func (s *Service) reserveOnce(ctx context.Context, userID uint64, tableType model.TableType, start, end time.Time) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	table, err := s.avail.FindAvailableTable(ctx, tx, tableType, start, end)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrNoTableAvailable
	}

	b := &model.Booking{UserID: userID, TableID: table.ID, StartTime: start, EndTime: end}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// DeleteBooking cancels a booking.  It fails with ErrNotFound when the
// booking does not exist and ErrForbidden when actor may not cancel it
// (see AuthorizeCancel).
func (s *Service) DeleteBooking(ctx context.Context, actor Actor, bookingID uint64) error {
	var deleted *model.Booking
	err := database.Retry(ctx, s.retry, func(ctx context.Context) error {
		b, err := s.deleteOnce(ctx, actor, bookingID)
		if err != nil {
			return err
		}
		deleted = b
		return nil
	})
	if err != nil {
		return s.storageError("delete booking", err)
	}

	by := "owner"
	if actor.IsAdmin && actor.UserID != deleted.UserID {
		by = "admin"
	}
	metrics.IncBookingCancelled(by)
	s.log.Info().
		Uint64("booking_id", deleted.ID).
		Uint64("actor_id", actor.UserID).
		Str("by", by).
		Msg("booking cancelled")
	s.publish(ctx, queue.Event{
		Type:      queue.EventBookingCancelled,
		BookingID: deleted.ID,
		TableID:   deleted.TableID,
		UserID:    deleted.UserID,
		ActorID:   actor.UserID,
		StartTime: queue.FormatTime(deleted.StartTime),
		EndTime:   queue.FormatTime(deleted.EndTime),
	})
	return nil
}

func (s *Service) deleteOnce(ctx context.Context, actor Actor, bookingID uint64) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.bookings.GetByID(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if err := AuthorizeCancel(actor, b, s.now()); err != nil {
		return nil, err
	}
	if err := s.bookings.DeleteTx(ctx, tx, bookingID); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// ListBookings returns the actor's own bookings in the given scope.
// Upcoming means the booking has not ended yet.
func (s *Service) ListBookings(ctx context.Context, actor Actor, scope Scope) ([]model.Booking, error) {
	var (
		out []model.Booking
		err error
	)
	switch scope {
	case ScopeUpcoming:
		out, err = s.bookings.ListUpcomingByUser(ctx, actor.UserID, s.now())
	case ScopePrevious:
		out, err = s.bookings.ListPreviousByUser(ctx, actor.UserID, s.now())
	default:
		out, err = s.bookings.ListByUser(ctx, actor.UserID)
	}
	if err != nil {
		return nil, s.storageError("list bookings", err)
	}
	return out, nil
}

// ListAllBookings returns every booking.  Only admins may call it.
func (s *Service) ListAllBookings(ctx context.Context, actor Actor) ([]model.Booking, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: only an admin can see all bookings", ErrForbidden)
	}
	out, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, s.storageError("list all bookings", err)
	}
	return out, nil
}

// CreateTable adds a table to the inventory.
func (s *Service) CreateTable(ctx context.Context, tableType model.TableType) (*model.Table, error) {
	if !tableType.Valid() {
		return nil, ErrInvalidTableType
	}
	var t *model.Table
	err := database.Retry(ctx, s.retry, func(ctx context.Context) error {
		var err error
		t, err = s.tables.Create(ctx, tableType)
		return err
	})
	if err != nil {
		return nil, s.storageError("create table", err)
	}
	s.log.Info().Uint64("table_id", t.ID).Str("table_type", string(t.Type)).Msg("table created")
	s.publish(ctx, queue.Event{Type: queue.EventTableCreated, TableID: t.ID, TableType: string(t.Type)})
	return t, nil
}

// DeleteTable removes a table and every booking on it.  The table's type
// lock is held so no booking is placed on it mid-delete.
func (s *Service) DeleteTable(ctx context.Context, tableID uint64) error {
	t, err := s.tables.GetByID(ctx, s.db, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return fmt.Errorf("%w: table %d", ErrNotFound, tableID)
		}
		return s.storageError("delete table", err)
	}

	release, err := s.acquire(ctx, t.Type)
	if err != nil {
		return err
	}
	defer release()

	var removed int64
	err = database.Retry(ctx, s.retry, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()
		if removed, err = s.tables.DeleteTx(ctx, tx, tableID); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return fmt.Errorf("%w: table %d", ErrNotFound, tableID)
		}
		return s.storageError("delete table", err)
	}

	s.log.Info().Uint64("table_id", tableID).Int64("removed_bookings", removed).Msg("table deleted")
	s.publish(ctx, queue.Event{Type: queue.EventTableDeleted, TableID: tableID, TableType: string(t.Type), Removed: removed})
	return nil
}

// ListTables returns the whole inventory ordered by id.
func (s *Service) ListTables(ctx context.Context) ([]model.Table, error) {
	out, err := s.tables.List(ctx)
	if err != nil {
		return nil, s.storageError("list tables", err)
	}
	return out, nil
}

func (s *Service) acquire(ctx context.Context, tableType model.TableType) (func(), error) {
	started := time.Now()
	release, err := s.locker.Acquire(ctx, "tables:"+string(tableType))
	metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		s.log.Error().Err(err).Str("table_type", string(tableType)).Msg("acquire booking lock")
		return nil, fmt.Errorf("%w: acquire lock: %v", ErrStorageUnavailable, err)
	}
	return release, nil
}

// storageError passes domain errors through and classifies the rest.
func (s *Service) storageError(op string, err error) error {
	switch {
	case isDomain(err):
		return err
	case database.IsTransient(err):
		s.log.Warn().Err(err).Str("op", op).Msg("storage retries exhausted")
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	default:
		s.log.Error().Err(err).Str("op", op).Msg("storage failure")
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isDomain(err error) bool {
	for _, target := range []error{
		ErrInvalidTableType, ErrInvalidInterval, ErrInvalidDuration, ErrInvalidAlignment,
		ErrPastTime, ErrOutsideBusinessHours, ErrNoTableAvailable, ErrNotFound, ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publish sends ev best-effort; a broker failure never fails the request.
func (s *Service) publish(ctx context.Context, ev queue.Event) {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", ev.Type).Msg("publish event failed")
	}
}
