package change

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Type is the kind of row-level write a change reports.
type Type string

const (
	Insert Type = "insert"
	Update Type = "update"
	Delete Type = "delete"
)

// Change is one row-level notification of the change feed.
// IDs are ULIDs, so they sort in publish order.
type Change struct {
	ID       string    `json:"id"`
	Table    string    `json:"table"`
	Type     Type      `json:"type"`
	RecordID string    `json:"record_id"`
	New      any       `json:"new,omitempty"`
	At       time.Time `json:"at"`
}

// Filter scopes a subscription to a table and optionally one record.
// An empty Table matches every table.
type Filter struct {
	Table    string
	RecordID string
}

// Matches reports whether the change falls within the filter.
func (f Filter) Matches(c Change) bool {
	if f.Table != "" && f.Table != c.Table {
		return false
	}
	if f.RecordID != "" && f.RecordID != c.RecordID {
		return false
	}
	return true
}

// New builds a change stamped with a fresh ULID.
func New(table string, typ Type, recordID string, row any, at time.Time) Change {
	return Change{
		ID:       ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Table:    table,
		Type:     typ,
		RecordID: recordID,
		New:      row,
		At:       at,
	}
}
