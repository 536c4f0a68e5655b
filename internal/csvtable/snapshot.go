package csvtable

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one parsed copy of the CSV document.
//
// Every Row has exactly len(Columns) values. A Snapshot is never modified
// after Parse returns it, so it can be shared between requests.
type Snapshot struct {
	ID        uuid.UUID
	Source    string
	Columns   []string
	Rows      []Row
	FetchedAt time.Time

	// Warnings lists records that had to be padded or truncated.
	Warnings []string
}

// Row is a body record. Values are aligned with Snapshot.Columns.
type Row struct {
	Index  int
	Values []string
}

// Odd reports whether the row sits at an odd body index.
func (r Row) Odd() bool {
	return r.Index%2 == 1
}

// Empty reports whether the snapshot has no body rows.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// Value returns the cell of row i under column.
func (s *Snapshot) Value(i int, column string) (string, bool) {
	if s == nil || i < 0 || i >= len(s.Rows) {
		return "", false
	}
	for c, name := range s.Columns {
		if name == column {
			return s.Rows[i].Values[c], true
		}
	}
	return "", false
}

// Record returns row i as a column name to value map.
func (s *Snapshot) Record(i int) map[string]string {
	if s == nil || i < 0 || i >= len(s.Rows) {
		return nil
	}
	rec := make(map[string]string, len(s.Columns))
	for c, name := range s.Columns {
		rec[name] = s.Rows[i].Values[c]
	}
	return rec
}

// Records returns every row as a map, in file order.
func (s *Snapshot) Records() []map[string]string {
	if s == nil {
		return nil
	}
	out := make([]map[string]string, len(s.Rows))
	for i := range s.Rows {
		out[i] = s.Record(i)
	}
	return out
}

type snapshotJSON struct {
	ID        string              `json:"id"`
	Source    string              `json:"source"`
	FetchedAt time.Time           `json:"fetched_at"`
	Columns   []string            `json:"columns"`
	Rows      []map[string]string `json:"rows"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// MarshalJSON encodes rows as objects keyed by column name.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	rows := s.Records()
	if rows == nil {
		rows = []map[string]string{}
	}
	columns := s.Columns
	if columns == nil {
		columns = []string{}
	}
	return json.Marshal(snapshotJSON{
		ID:        s.ID.String(),
		Source:    s.Source,
		FetchedAt: s.FetchedAt,
		Columns:   columns,
		Rows:      rows,
		Warnings:  s.Warnings,
	})
}
