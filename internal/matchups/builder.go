// Package matchups builds the matchups CSV shown by the stats page: one row
// per team playing today with its stat ranks and starting goalie, away team
// first, a blank row between games.
package matchups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/JonMunkholm/statstable/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	goalieColumn     = "Goalie"
	goalieRankColumn = "Goalie_GSAx_Rank"
)

// Builder fetches the three source pages and writes the matchups CSV.
type Builder struct {
	cfg  Config
	opts csvtable.SourceOptions
	now  func() time.Time
}

// NewBuilder creates a Builder. opts control how page locations are
// fetched (HTTP client, base URL, S3 region).
func NewBuilder(cfg Config, opts csvtable.SourceOptions) *Builder {
	return &Builder{cfg: cfg, opts: opts, now: time.Now}
}

// Result describes a finished build.
type Result struct {
	Columns  []string
	Rows     [][]string
	Matchups int
	Output   string
}

// Build fetches stats, lineups and goalie ranks concurrently, assembles the
// rows and replaces the output file.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	log := logging.FromContext(ctx)
	start := time.Now()

	var (
		ranking  *Ranking
		games    []Matchup
		goalies  GoalieRanks
		statsURL = b.cfg.StatsLocation(b.now())
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		table, err := fetchParse(gctx, b, statsURL, ParseStatsTable)
		if err != nil {
			return fmt.Errorf("team stats: %w", err)
		}
		ranking, err = RankTeams(table, b.cfg.StatColumns)
		if err != nil {
			return fmt.Errorf("rank teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		games, err = fetchParse(gctx, b, b.cfg.LineupsURL, ParseLineups)
		if err != nil {
			return fmt.Errorf("lineups: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goalies, err = b.goalieRanks(gctx)
		if err != nil {
			return fmt.Errorf("goalie ranks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	columns, rows := Assemble(ranking, games, goalies)
	if err := writeCSVFile(b.cfg.Output, columns, rows); err != nil {
		return nil, fmt.Errorf("write %s: %w", b.cfg.Output, err)
	}

	log.Info("matchups written",
		"output", b.cfg.Output,
		"matchups", len(games),
		"teams", len(ranking.Teams),
		"goalies", len(goalies),
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{Columns: columns, Rows: rows, Matchups: len(games), Output: b.cfg.Output}, nil
}

// goalieRanks reads the cache, falling back to the goalie page and writing
// the cache afterwards.
func (b *Builder) goalieRanks(ctx context.Context) (GoalieRanks, error) {
	log := logging.FromContext(ctx)
	if b.cfg.GoalieCache != "" {
		ranks, err := ReadGoalieCache(b.cfg.GoalieCache)
		if err == nil {
			log.Debug("goalie cache hit", "path", b.cfg.GoalieCache, "goalies", len(ranks))
			return ranks, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	ranks, err := fetchParse(ctx, b, b.cfg.GoaliesURL, ParseGoalieTable)
	if err != nil {
		return nil, err
	}
	if b.cfg.GoalieCache != "" {
		if err := WriteGoalieCache(b.cfg.GoalieCache, ranks); err != nil {
			return nil, fmt.Errorf("write goalie cache: %w", err)
		}
	}
	return ranks, nil
}

func fetchParse[T any](ctx context.Context, b *Builder, location string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	src, err := csvtable.NewSource(location, b.opts)
	if err != nil {
		return zero, err
	}
	if h, ok := src.(*csvtable.HTTPSource); ok {
		h.Accept = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1"
		h.UserAgent = b.cfg.UserAgent
	}

	body, err := src.Fetch(ctx)
	if err != nil {
		return zero, err
	}
	defer body.Close()
	return parse(body)
}

// Assemble lays out the CSV: away team rows then home team rows for each
// matchup, a blank row between matchups. Teams are matched by
// case-insensitive substring, so one lineup name can match several rows.
func Assemble(ranking *Ranking, games []Matchup, goalies GoalieRanks) ([]string, [][]string) {
	columns := make([]string, 0, len(ranking.Stats)+3)
	columns = append(columns, TeamColumn)
	columns = append(columns, ranking.Stats...)
	columns = append(columns, goalieColumn, goalieRankColumn)

	var rows [][]string
	for i, game := range games {
		rows = appendTeam(rows, ranking.Find(game.Away), game.AwayGoalie, goalies)
		rows = appendTeam(rows, ranking.Find(game.Home), game.HomeGoalie, goalies)
		if i < len(games)-1 {
			rows = append(rows, make([]string, len(columns)))
		}
	}
	return columns, rows
}

func appendTeam(rows [][]string, teams []TeamRank, goalie string, goalies GoalieRanks) [][]string {
	goalieRank := ""
	if r, ok := goalies[goalie]; ok {
		goalieRank = fmt.Sprint(r)
	}
	for _, t := range teams {
		row := make([]string, 0, len(t.Ranks)+3)
		row = append(row, t.Team)
		for _, r := range t.Ranks {
			row = append(row, fmt.Sprint(r))
		}
		rows = append(rows, append(row, goalie, goalieRank))
	}
	return rows
}
