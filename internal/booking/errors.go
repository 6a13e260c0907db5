package booking

import "errors"

// Business-rule violations.  Each carries the human-readable reason shown
// to the caller; none of them is retried.
var (
	ErrInvalidTableType     = errors.New("unknown table type")
	ErrInvalidInterval      = errors.New("end time must be after start time")
	ErrInvalidDuration      = errors.New("booking duration must be between 1 and 4 hours")
	ErrInvalidAlignment     = errors.New("time must be on the hour: e.g. 14:00 or 16:00")
	ErrPastTime             = errors.New("time must not be in the past")
	ErrOutsideBusinessHours = errors.New("booking must start and end between 9 AM and 9 PM")
	ErrNoTableAvailable     = errors.New("no available table of the selected type")
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("access denied")

	// ErrStorageUnavailable is returned once transient storage failures have
	// exhausted their retries.  Callers may try again later.
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")
)

// reason returns the metrics label for a rejected booking.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTableType):
		return "invalid_table_type"
	case errors.Is(err, ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidAlignment):
		return "invalid_alignment"
	case errors.Is(err, ErrPastTime):
		return "past_time"
	case errors.Is(err, ErrOutsideBusinessHours):
		return "outside_business_hours"
	case errors.Is(err, ErrNoTableAvailable):
		return "no_table_available"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	}
	return "internal"
}
