package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2030, 3, 10, h, m, 0, 0, time.UTC)
}

func TestBookingOverlaps(t *testing.T) {
	b := Booking{StartTime: at(14, 0), EndTime: at(16, 0)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"same interval", at(14, 0), at(16, 0), true},
		{"inside", at(14, 30), at(15, 0), true},
		{"covers", at(13, 0), at(17, 0), true},
		{"tail overlap", at(15, 0), at(17, 0), true},
		{"head overlap", at(13, 0), at(15, 0), true},
		{"ends at start", at(12, 0), at(14, 0), false},
		{"starts at end", at(16, 0), at(18, 0), false},
		{"far before", at(9, 0), at(10, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestHourSlots(t *testing.T) {
	assert.Equal(t, []time.Time{at(14, 0), at(15, 0), at(16, 0)}, HourSlots(at(14, 0), at(17, 0)))
	assert.Equal(t, []time.Time{at(20, 0)}, HourSlots(at(20, 0), at(21, 0)))
	assert.Nil(t, HourSlots(at(15, 0), at(15, 0)))
	assert.Nil(t, HourSlots(at(15, 0), at(14, 0)))
}

func TestParseTableType(t *testing.T) {
	for in, want := range map[string]TableType{
		"two_guest_table":   TwoGuestTable,
		"four guest table":  FourGuestTable,
		" Eight-Guest-Table": EightGuestTable,
	} {
		got, ok := ParseTableType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseTableType("sofa")
	assert.False(t, ok)

	assert.True(t, FourGuestTable.Valid())
	assert.False(t, TableType("four guest table").Valid())
	assert.Equal(t, "eight guest table", EightGuestTable.Label())
	assert.Len(t, TableTypes(), 3)
}
