package booking

import (
	"fmt"
	"time"

	"github.com/happycoon/coffee-table-reservation/internal/model"
)

// Actor is the authenticated identity performing an operation, as supplied
// by the identity boundary.  The core trusts it as given.
type Actor struct {
	UserID  uint64
	IsAdmin bool
}

// Rules are the constraints a new booking must satisfy.
type Rules struct {
	MinDuration time.Duration // inclusive
	MaxDuration time.Duration // inclusive
	OpenHour    int           // first hour a booking may start
	CloseHour   int           // a booking may end at CloseHour:00 but not later
}

// DefaultRules: 1 to 4 hours between 09:00 and 21:00.
func DefaultRules() Rules {
	return Rules{MinDuration: time.Hour, MaxDuration: 4 * time.Hour, OpenHour: 9, CloseHour: 21}
}

// Validate checks a requested interval against the rules.  Checks run in a
// fixed order and the first violation is returned:
// interval, duration, alignment, past, business hours.
func (r Rules) Validate(start, end, now time.Time) error {
	if !end.After(start) {
		return ErrInvalidInterval
	}
	if d := end.Sub(start); d < r.MinDuration || d > r.MaxDuration {
		return ErrInvalidDuration
	}
	if !onTheHour(start) || !onTheHour(end) {
		return ErrInvalidAlignment
	}
	if start.Before(now) || end.Before(now) {
		return ErrPastTime
	}
	if !r.withinBusinessHours(start, end) {
		return ErrOutsideBusinessHours
	}
	return nil
}

// withinBusinessHours: the start hour lies in [open, close) and the end
// lies in (open, close], on the same day as the start.
func (r Rules) withinBusinessHours(start, end time.Time) bool {
	if start.Hour() < r.OpenHour || start.Hour() >= r.CloseHour {
		return false
	}
	closing := time.Date(start.Year(), start.Month(), start.Day(), r.CloseHour, 0, 0, 0, start.Location())
	return !end.After(closing)
}

func onTheHour(t time.Time) bool {
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// AuthorizeCancel decides whether actor may delete b at time now.  Admins
// may delete any booking.  Owners may delete their own bookings only while
// they have not started.
func AuthorizeCancel(actor Actor, b *model.Booking, now time.Time) error {
	if actor.IsAdmin {
		return nil
	}
	if actor.UserID != b.UserID {
		return fmt.Errorf("%w: only an admin or the booking creator can delete this booking", ErrForbidden)
	}
	if !b.StartTime.After(now) {
		return fmt.Errorf("%w: as a booking creator you can delete only upcoming bookings", ErrForbidden)
	}
	return nil
}

// Naive drops the location of t while keeping its wall clock, so that
// every timestamp is compared as an offset-free local value.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Clock returns the current naive time.
type Clock func() time.Time

// ShopClock reports the wall clock in loc as a naive time.
func ShopClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return Naive(time.Now().In(loc)) }
}
