package model

import "time"

// Booking reserves one table for the half-open interval [StartTime, EndTime).
// Times are naive wall-clock values labelled UTC; no offset arithmetic is
// ever applied to them.
type Booking struct {
    ID        uint64    // bookings.id
    UserID    uint64    // bookings.user_id (owner)
    TableID   uint64    // bookings.table_id
    StartTime time.Time // bookings.start_time
    EndTime   time.Time // bookings.end_time
    CreatedAt time.Time // bookings.created_at
}

// Overlaps reports whether the booking shares any instant with [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
    return b.StartTime.Before(end) && b.EndTime.After(start)
}

// HourSlots returns the start of every whole hour touched by [start, end).
// Two intervals overlap exactly when they share a slot, provided both are
// aligned to the hour.
func HourSlots(start, end time.Time) []time.Time {
    if !end.After(start) {
        return nil
    }
    var out []time.Time
    for s := start.Truncate(time.Hour); s.Before(end); s = s.Add(time.Hour) {
        out = append(out, s)
    }
    return out
}
