package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageWritesAuditLine(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(&buf)

	body, err := json.Marshal(Event{
		Type:       EventBookingCreated,
		BookingID:  7,
		TableID:    2,
		TableType:  "two_guest_table",
		UserID:     3,
		StartTime:  FormatTime(time.Date(2030, 3, 10, 14, 0, 0, 0, time.UTC)),
		EndTime:    FormatTime(time.Date(2030, 3, 10, 15, 0, 0, 0, time.UTC)),
		OccurredAt: "2030-03-09T10:00:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, HandleMessage(body, audit))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booking.created", line["event"])
	assert.EqualValues(t, 7, line["booking_id"])
	assert.Equal(t, "2030-03-10T14:00:00", line["start_time"])
	assert.Equal(t, "two_guest_table", line["table_type"])
	assert.Equal(t, "booking event", line["message"])
}

func TestHandleMessageTableDeleted(t *testing.T) {
	var buf bytes.Buffer
	body := []byte(`{"type":"table.deleted","table_id":4,"removed_bookings":3,"occurred_at":"x"}`)
	require.NoError(t, HandleMessage(body, NewAuditLogger(&buf)))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.EqualValues(t, 3, line["removed_bookings"])
	assert.NotContains(t, line, "booking_id")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, HandleMessage([]byte("not json"), NewAuditLogger(&buf)))
	assert.Error(t, HandleMessage([]byte(`{"table_id":1}`), NewAuditLogger(&buf)))
	assert.Zero(t, buf.Len())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: EventTableCreated}))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", FormatTime(time.Time{}))
	assert.Equal(t, "2030-01-02T09:00:00", FormatTime(time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)))
}
