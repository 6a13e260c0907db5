// Package queue defines the booking event stream exchanged over RabbitMQ:
// the payloads, the publisher used by the service and the audit consumer.
package queue

import "time"

// Event types published on the booking queue.
const (
    EventBookingCreated   = "booking.created"
    EventBookingCancelled = "booking.cancelled"
    EventTableCreated     = "table.created"
    EventTableDeleted     = "table.deleted"
)

// Event is published after a change to the ledger or the inventory has been
// committed.  It carries enough information for downstream consumers to
// log or trigger analytics without querying the primary database.  Fields
// that do not apply to a type are left zero.
type Event struct {
    Type       string `json:"type"`
    BookingID  uint64 `json:"booking_id,omitempty"`
    TableID    uint64 `json:"table_id"`
    TableType  string `json:"table_type,omitempty"`
    UserID     uint64 `json:"user_id,omitempty"`
    ActorID    uint64 `json:"actor_id,omitempty"`
    StartTime  string `json:"start_time,omitempty"`
    EndTime    string `json:"end_time,omitempty"`
    Removed    int64  `json:"removed_bookings,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// naiveLayout renders booking times without an offset, matching how they
// are stored.
const naiveLayout = "2006-01-02T15:04:05"

// FormatTime formats a naive booking time for an event payload.
func FormatTime(t time.Time) string {
    if t.IsZero() {
        return ""
    }
    return t.Format(naiveLayout)
}
