// Package termview prints a snapshot as a terminal table.
package termview

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Options control terminal output.
type Options struct {
	Heading string

	// Color forces ANSI colours on or off. Nil follows fatih/color's
	// terminal detection.
	Color *bool
}

// Render writes the heading and the table to w. Odd rows are tinted so
// consecutive matchups stay readable, like the two row classes on the page.
// As on the page, the header only appears when there are rows.
func Render(w io.Writer, snap *csvtable.Snapshot, opts Options) error {
	heading := color.New(color.Bold)
	stripe := color.New(color.FgCyan)
	if opts.Color != nil {
		for _, c := range []*color.Color{heading, stripe} {
			if *opts.Color {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}

	if opts.Heading != "" {
		if _, err := fmt.Fprintln(w, heading.Sprint(opts.Heading)); err != nil {
			return err
		}
	}
	if snap == nil || snap.Empty() {
		return nil
	}

	table := tablewriter.NewTable(w, tablewriter.WithHeaderAutoFormat(tw.Off))
	table.Header(snap.Columns)

	for _, row := range snap.Rows {
		cells := row.Values
		if row.Odd() {
			cells = make([]string, len(row.Values))
			for i, v := range row.Values {
				cells[i] = stripe.Sprint(v)
			}
		}
		if err := table.Append(cells); err != nil {
			return fmt.Errorf("append row %d: %w", row.Index, err)
		}
	}
	return table.Render()
}
