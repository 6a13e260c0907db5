package model

import (
    "strings"
    "time"
)

// TableType is the capacity class of a physical table.
type TableType string

const (
    TwoGuestTable   TableType = "two_guest_table"
    FourGuestTable  TableType = "four_guest_table"
    EightGuestTable TableType = "eight_guest_table"
)

var tableTypes = []TableType{TwoGuestTable, FourGuestTable, EightGuestTable}

// TableTypes returns every known table type in capacity order.
func TableTypes() []TableType {
    out := make([]TableType, len(tableTypes))
    copy(out, tableTypes)
    return out
}

// ParseTableType accepts the identifier form ("two_guest_table") as well as
// the display form ("two guest table").  Matching is case-insensitive.
func ParseTableType(s string) (TableType, bool) {
    norm := strings.ToLower(strings.TrimSpace(s))
    norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
    for _, t := range tableTypes {
        if string(t) == norm {
            return t, true
        }
    }
    return "", false
}

// Valid reports whether t is one of the known table types.
func (t TableType) Valid() bool {
    for _, known := range tableTypes {
        if t == known {
            return true
        }
    }
    return false
}

// Label returns the human readable form, e.g. "two guest table".
func (t TableType) Label() string { return strings.ReplaceAll(string(t), "_", " ") }

// Table represents a physical table in the shop, stored in `cafe_tables`.
// A table owns its bookings: deleting it removes them as well.
type Table struct {
    ID        uint64    // cafe_tables.id
    Type      TableType // cafe_tables.table_type
    CreatedAt time.Time // cafe_tables.created_at
}
