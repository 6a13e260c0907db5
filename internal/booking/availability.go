package booking

import (
	"context"
	"time"

	"github.com/happycoon/coffee-table-reservation/internal/model"
	"github.com/happycoon/coffee-table-reservation/internal/repository"
)

// Availability finds a table of the requested type that is free for the
// whole half-open interval [start, end).  It returns (nil, nil) when no
// such table exists: absence is an outcome, not an error.  q lets the
// search run inside the caller's transaction.
type Availability interface {
	FindAvailableTable(ctx context.Context, q repository.Querier, tableType model.TableType, start, end time.Time) (*model.Table, error)
}

// LedgerAvailability answers from the booking ledger in storage, picking
// the lowest table id among the free ones.
type LedgerAvailability struct {
	Bookings *repository.BookingRepo
}

func (a LedgerAvailability) FindAvailableTable(ctx context.Context, q repository.Querier, tableType model.TableType, start, end time.Time) (*model.Table, error) {
	return a.Bookings.FirstFreeTable(ctx, q, tableType, start, end)
}

// FirstFree is the in-memory form of the same search over already loaded
// tables and bookings.  tables must be sorted by id.
func FirstFree(tables []model.Table, bookings []model.Booking, tableType model.TableType, start, end time.Time) *model.Table {
	busy := make(map[uint64]bool)
	for _, b := range bookings {
		if b.Overlaps(start, end) {
			busy[b.TableID] = true
		}
	}
	for i := range tables {
		if tables[i].Type == tableType && !busy[tables[i].ID] {
			return &tables[i]
		}
	}
	return nil
}
