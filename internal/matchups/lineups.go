package matchups

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Matchup is one game on the lineups page.
type Matchup struct {
	Away       string
	Home       string
	AwayGoalie string
	HomeGoalie string
}

// ParseLineups reads the games from the lineups page. Each "lineup is-nhl"
// block is one game; the page always ends with a promotional block of the
// same class, so the last one is ignored. Blocks without two teams and two
// goalies are skipped.
func ParseLineups(r io.Reader) ([]Matchup, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	blocks := findAll(doc, hasClasses("lineup", "is-nhl"))
	if len(blocks) == 0 {
		return nil, nil
	}

	var out []Matchup
	for _, block := range blocks[:len(blocks)-1] {
		goalies := findAll(block, hasClasses("lineup__player-highlight-name"))
		teamsBox := findFirst(block, hasClasses("lineup__teams"))
		if len(goalies) < 2 || teamsBox == nil {
			continue
		}
		teams := findAll(teamsBox, isElement(atom.A))
		if len(teams) < 2 {
			continue
		}
		out = append(out, Matchup{
			Away:       teamName(text(teams[0])),
			Home:       teamName(text(teams[1])),
			AwayGoalie: text(goalies[0]),
			HomeGoalie: text(goalies[1]),
		})
	}
	return out, nil
}

// teamName drops the record suffix: "Boston (30-12-4)" -> "Boston".
func teamName(s string) string {
	name, _, _ := strings.Cut(s, " (")
	return strings.TrimSpace(name)
}
