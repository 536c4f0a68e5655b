package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"
)

// Parse reads a CSV document whose first record is the header and returns
// the resulting Snapshot. Blank lines are skipped. Records shorter than the
// header are padded with empty values and longer ones are truncated; both
// cases are noted in Snapshot.Warnings.
func Parse(r io.Reader, source string) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, readError(err)
	}

	snap := &Snapshot{
		ID:        uuid.New(),
		Source:    source,
		Columns:   uniqueColumns(header),
		FetchedAt: time.Now().UTC(),
	}
	width := len(snap.Columns)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}

		line, _ := cr.FieldPos(0)
		switch {
		case len(record) < width:
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("line %d: %d of %d fields, padded", line, len(record), width))
		case len(record) > width:
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("line %d: %d of %d fields, extra dropped", line, len(record), width))
		}

		values := make([]string, width)
		copy(values, record)
		snap.Rows = append(snap.Rows, Row{Index: len(snap.Rows), Values: values})
	}

	return snap, nil
}

// readError labels syntax errors as invalid csv and passes transport
// errors (size cap, connection resets) through unchanged.
func readError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("invalid csv: %w", err)
	}
	return fmt.Errorf("read csv: %w", err)
}

// uniqueColumns suffixes repeated header names with _1, _2, ... so every
// column can be addressed by name. The first occurrence keeps its name.
func uniqueColumns(header []string) []string {
	seen := mapset.NewSet()
	columns := make([]string, len(header))
	for i, name := range header {
		candidate := name
		for n := 1; seen.Contains(candidate); n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen.Add(candidate)
		columns[i] = candidate
	}
	return columns
}
