package matchups

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/JonMunkholm/statstable/internal/csvtable"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const goalieTableID = "goaliesTable"

// GoalieRanks maps a goalie name to the GSAx rank, 1 being the best.
type GoalieRanks map[string]int

// ParseGoalieTable reads the goalie table (id "goaliesTable", else the first
// table) and re-ranks goalies by GSAx, highest first. Rows need at least
// four cells: rank, -, name, GSAx. Rows that do not parse are skipped.
func ParseGoalieTable(r io.Reader) (GoalieRanks, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	tbl := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Table && attr(n, "id") == goalieTableID
	})
	if tbl == nil {
		tbl = findFirst(doc, isElement(atom.Table))
	}
	if tbl == nil {
		return nil, ErrNoTable
	}

	type goalie struct {
		name string
		gsax float64
	}
	var goalies []goalie
	for i, tr := range findAll(tbl, isElement(atom.Tr)) {
		if i == 0 {
			continue
		}
		cs := cells(tr)
		if len(cs) < 4 {
			continue
		}
		if _, err := strconv.Atoi(text(cs[0])); err != nil {
			continue
		}
		gsax, err := strconv.ParseFloat(text(cs[3]), 64)
		if err != nil {
			continue
		}
		goalies = append(goalies, goalie{name: text(cs[2]), gsax: gsax})
	}

	sort.SliceStable(goalies, func(a, b int) bool { return goalies[a].gsax > goalies[b].gsax })

	ranks := make(GoalieRanks, len(goalies))
	// A repeated name keeps its last (worst) rank.
	for i, g := range goalies {
		ranks[g.name] = i + 1
	}
	return ranks, nil
}

// ReadGoalieCache loads ranks written by WriteGoalieCache. A missing file
// returns an error satisfying errors.Is(err, os.ErrNotExist).
func ReadGoalieCache(path string) (GoalieRanks, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snap, err := csvtable.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("read goalie cache: %w", err)
	}

	ranks := make(GoalieRanks, len(snap.Rows))
	for i := range snap.Rows {
		name, _ := snap.Value(i, "Goalie")
		raw, _ := snap.Value(i, "GSAx_Rank")
		rank, err := strconv.Atoi(raw)
		if name == "" || err != nil {
			continue
		}
		ranks[name] = rank
	}
	return ranks, nil
}

// WriteGoalieCache writes ranks as Goalie,GSAx_Rank ordered by rank.
func WriteGoalieCache(path string, ranks GoalieRanks) error {
	names := make([]string, 0, len(ranks))
	for name := range ranks {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		if ranks[names[a]] != ranks[names[b]] {
			return ranks[names[a]] < ranks[names[b]]
		}
		return names[a] < names[b]
	})

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, strconv.Itoa(ranks[name])}
	}
	return writeCSVFile(path, []string{"Goalie", "GSAx_Rank"}, rows)
}

// writeCSVFile replaces path atomically: the rows go to a temp file in the
// same directory which is then renamed over path.
func writeCSVFile(path string, header []string, rows [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".statstable-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
