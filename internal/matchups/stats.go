package matchups

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrNoTable       = errors.New("no table found")
	ErrMissingColumn = errors.New("missing column")
)

// TeamColumn names the column holding the team name.
const TeamColumn = "Team"

// StatsTable is an HTML table read into strings. The leading index column
// of the source page is already dropped.
type StatsTable struct {
	Columns []string
	Rows    [][]string
}

// ParseStatsTable reads the first <table> of an HTML document. The first
// row with header cells names the columns; "-" cells become empty.
func ParseStatsTable(r io.Reader) (*StatsTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	tbl := findFirst(doc, isElement(atom.Table))
	if tbl == nil {
		return nil, ErrNoTable
	}

	out := &StatsTable{}
	for _, tr := range findAll(tbl, isElement(atom.Tr)) {
		cs := cells(tr)
		if len(cs) < 2 {
			continue
		}
		values := make([]string, 0, len(cs)-1)
		for _, c := range cs[1:] {
			v := text(c)
			if v == "-" {
				v = ""
			}
			values = append(values, v)
		}

		if out.Columns == nil {
			out.Columns = values
			continue
		}
		out.Rows = append(out.Rows, fitRow(values, len(out.Columns)))
	}
	if out.Columns == nil {
		return nil, fmt.Errorf("%w: table has no header row", ErrNoTable)
	}
	return out, nil
}

func fitRow(values []string, n int) []string {
	if len(values) == n {
		return values
	}
	row := make([]string, n)
	copy(row, values)
	return row
}

func (t *StatsTable) column(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// TeamRank is one team's rank per stat, 1 being the best.
type TeamRank struct {
	Team  string
	Ranks []int
}

// Ranking holds ranks for every team, ordered by the first stat.
type Ranking struct {
	Stats []string
	Teams []TeamRank
}

// RankTeams ranks every team on each stat, highest value first. Missing or
// non-numeric values sort last; ties keep page order.
func RankTeams(t *StatsTable, stats []string) (*Ranking, error) {
	if len(stats) == 0 {
		return nil, errors.New("rank teams: no stat columns")
	}
	teamCol, err := t.column(TeamColumn)
	if err != nil {
		return nil, err
	}

	ranks := make([][]int, len(t.Rows))
	for i := range ranks {
		ranks[i] = make([]int, len(stats))
	}

	var firstOrder []int
	for s, stat := range stats {
		col, err := t.column(stat)
		if err != nil {
			return nil, err
		}
		order := sortedDesc(t.Rows, col)
		for pos, row := range order {
			ranks[row][s] = pos + 1
		}
		if s == 0 {
			firstOrder = order
		}
	}

	out := &Ranking{Stats: stats, Teams: make([]TeamRank, 0, len(t.Rows))}
	for _, row := range firstOrder {
		out.Teams = append(out.Teams, TeamRank{Team: t.Rows[row][teamCol], Ranks: ranks[row]})
	}
	return out, nil
}

// sortedDesc returns row indexes ordered by the numeric value in col.
func sortedDesc(rows [][]string, col int) []int {
	vals := make([]float64, len(rows))
	order := make([]int, len(rows))
	for i, row := range rows {
		order[i] = i
		vals[i] = math.NaN()
		if v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(row[col]), "%"), 64); err == nil {
			vals[i] = v
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := vals[order[a]], vals[order[b]]
		if math.IsNaN(vb) {
			return !math.IsNaN(va)
		}
		return va > vb
	})
	return order
}

// Find returns the teams whose name contains name, ignoring case.
func (r *Ranking) Find(name string) []TeamRank {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	var out []TeamRank
	for _, t := range r.Teams {
		if strings.Contains(strings.ToLower(t.Team), name) {
			out = append(out, t)
		}
	}
	return out
}
