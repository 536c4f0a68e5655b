package matchups

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultStats = []string{"CF%", "GF%", "xGF%", "HDCF%", "SH%"}

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseStatsTable(t *testing.T) {
	table, err := ParseStatsTable(openFixture(t, "stats.html"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Team", "GP", "CF%", "GF%", "xGF%", "HDCF%", "SH%"}, table.Columns)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "Boston Bruins", table.Rows[0][0])
	assert.Equal(t, "", table.Rows[1][3], "dash cells are empty")
}

func TestParseStatsTable_NoTable(t *testing.T) {
	_, err := ParseStatsTable(strings.NewReader("<p>maintenance</p>"))
	assert.True(t, errors.Is(err, ErrNoTable))
}

func TestRankTeams(t *testing.T) {
	table, err := ParseStatsTable(openFixture(t, "stats.html"))
	require.NoError(t, err)

	ranking, err := RankTeams(table, defaultStats)
	require.NoError(t, err)

	want := []TeamRank{
		{Team: "Boston Bruins", Ranks: []int{1, 1, 2, 2, 2}},
		{Team: "Toronto Maple Leafs", Ranks: []int{2, 3, 1, 4, 1}},
		{Team: "New York Rangers", Ranks: []int{3, 4, 3, 1, 3}},
		{Team: "Montreal Canadiens", Ranks: []int{4, 2, 4, 3, 4}},
	}
	assert.Equal(t, want, ranking.Teams)
}

func TestRankTeams_Errors(t *testing.T) {
	table := &StatsTable{Columns: []string{"Team", "CF%"}, Rows: [][]string{{"A", "1"}}}

	_, err := RankTeams(table, []string{"GF%"})
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = RankTeams(&StatsTable{Columns: []string{"Club"}}, []string{"Club"})
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = RankTeams(table, nil)
	assert.Error(t, err)
}

func TestRankTeams_TiesKeepPageOrder(t *testing.T) {
	table := &StatsTable{
		Columns: []string{"Team", "CF%"},
		Rows:    [][]string{{"A", "50"}, {"B", "x"}, {"C", "50"}, {"D", "60"}},
	}
	ranking, err := RankTeams(table, []string{"CF%"})
	require.NoError(t, err)

	var order []string
	for _, tr := range ranking.Teams {
		order = append(order, tr.Team)
	}
	assert.Equal(t, []string{"D", "A", "C", "B"}, order)
}

func TestRanking_Find(t *testing.T) {
	r := &Ranking{Teams: []TeamRank{{Team: "New York Rangers"}, {Team: "New York Islanders"}, {Team: "Boston Bruins"}}}

	assert.Len(t, r.Find("new york"), 2)
	assert.Len(t, r.Find("BOSTON"), 1)
	assert.Empty(t, r.Find("Seattle"))
	assert.Empty(t, r.Find("  "))
}

func TestParseLineups(t *testing.T) {
	games, err := ParseLineups(openFixture(t, "lineups.html"))
	require.NoError(t, err)

	assert.Equal(t, []Matchup{
		{Away: "Boston", Home: "Toronto", AwayGoalie: "Jeremy Swayman", HomeGoalie: "Joseph Woll"},
		{Away: "Rangers", Home: "Montreal", AwayGoalie: "Igor Shesterkin", HomeGoalie: "Sam Montembeault"},
	}, games)
}

func TestParseLineups_Empty(t *testing.T) {
	games, err := ParseLineups(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestTeamName(t *testing.T) {
	assert.Equal(t, "Boston", teamName("Boston (30-12-4)"))
	assert.Equal(t, "St. Louis", teamName("St. Louis"))
}

func TestParseGoalieTable(t *testing.T) {
	ranks, err := ParseGoalieTable(openFixture(t, "goalies.html"))
	require.NoError(t, err)

	assert.Equal(t, GoalieRanks{
		"Igor Shesterkin": 1,
		"Jeremy Swayman":  2,
		"Joseph Woll":     3,
	}, ranks)
}

func TestParseGoalieTable_RepeatedNameKeepsLastRank(t *testing.T) {
	page := `<table id="goaliesTable">
<tr><th>#</th><th></th><th>Goalie</th><th>GSAx</th></tr>
<tr><td>1</td><td></td><td>Sam Montembeault</td><td>4.0</td></tr>
<tr><td>2</td><td></td><td>Joseph Woll</td><td>9.5</td></tr>
<tr><td>3</td><td></td><td>Sam Montembeault</td><td>-1.2</td></tr>
</table>`
	ranks, err := ParseGoalieTable(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, GoalieRanks{"Joseph Woll": 1, "Sam Montembeault": 3}, ranks)
}

func TestGoalieCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "goalie_gsax_20.csv")

	_, err := ReadGoalieCache(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	want := GoalieRanks{"Igor Shesterkin": 1, "Jeremy Swayman": 2}
	require.NoError(t, WriteGoalieCache(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Goalie,GSAx_Rank\nIgor Shesterkin,1\nJeremy Swayman,2\n", string(data))

	got, err := ReadGoalieCache(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAssemble(t *testing.T) {
	ranking := &Ranking{
		Stats: []string{"CF%"},
		Teams: []TeamRank{{Team: "Boston Bruins", Ranks: []int{1}}, {Team: "Toronto Maple Leafs", Ranks: []int{2}}},
	}
	games := []Matchup{
		{Away: "Boston", Home: "Toronto", AwayGoalie: "Swayman", HomeGoalie: "Woll"},
		{Away: "Toronto", Home: "Seattle", AwayGoalie: "Stolarz", HomeGoalie: "Daccord"},
	}

	columns, rows := Assemble(ranking, games, GoalieRanks{"Swayman": 4})

	assert.Equal(t, []string{"Team", "CF%", "Goalie", "Goalie_GSAx_Rank"}, columns)
	assert.Equal(t, [][]string{
		{"Boston Bruins", "1", "Swayman", "4"},
		{"Toronto Maple Leafs", "2", "Woll", ""},
		{"", "", "", ""},
		{"Toronto Maple Leafs", "2", "Stolarz", ""},
	}, rows)
}

func TestAssemble_NoBlankAfterLastGame(t *testing.T) {
	ranking := &Ranking{Stats: []string{"CF%"}, Teams: []TeamRank{{Team: "A", Ranks: []int{1}}}}
	_, rows := Assemble(ranking, []Matchup{{Away: "A", Home: "A"}}, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[1][0])
}

func testBuildConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.StatsURL = filepath.Join("testdata", "stats.html")
	cfg.LineupsURL = filepath.Join("testdata", "lineups.html")
	cfg.GoaliesURL = filepath.Join("testdata", "goalies.html")
	cfg.GoalieCache = filepath.Join(dir, "goalie_gsax_20.csv")
	cfg.Output = filepath.Join(dir, "public", "result.csv")
	return cfg
}

func TestBuilder_Build(t *testing.T) {
	cfg := testBuildConfig(t)

	res, err := NewBuilder(cfg, csvtable.SourceOptions{}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matchups)
	assert.Equal(t, cfg.Output, res.Output)

	f, err := os.Open(cfg.Output)
	require.NoError(t, err)
	defer f.Close()
	snap, err := csvtable.Parse(f, cfg.Output)
	require.NoError(t, err)

	assert.Equal(t, []string{"Team", "CF%", "GF%", "xGF%", "HDCF%", "SH%", "Goalie", "Goalie_GSAx_Rank"}, snap.Columns)
	require.Len(t, snap.Rows, 5)
	assert.Equal(t, []string{"Boston Bruins", "1", "1", "2", "2", "2", "Jeremy Swayman", "2"}, snap.Rows[0].Values)
	assert.Equal(t, []string{"Toronto Maple Leafs", "2", "3", "1", "4", "1", "Joseph Woll", "3"}, snap.Rows[1].Values)
	assert.Equal(t, make([]string, 8), snap.Rows[2].Values)
	assert.Equal(t, []string{"New York Rangers", "3", "4", "3", "1", "3", "Igor Shesterkin", "1"}, snap.Rows[3].Values)
	assert.Equal(t, []string{"Montreal Canadiens", "4", "2", "4", "3", "4", "Sam Montembeault", ""}, snap.Rows[4].Values)

	_, err = os.Stat(cfg.GoalieCache)
	assert.NoError(t, err, "goalie cache written")
}

func TestBuilder_UsesGoalieCache(t *testing.T) {
	cfg := testBuildConfig(t)
	require.NoError(t, WriteGoalieCache(cfg.GoalieCache, GoalieRanks{"Jeremy Swayman": 9}))
	cfg.GoaliesURL = filepath.Join("testdata", "missing.html")

	res, err := NewBuilder(cfg, csvtable.SourceOptions{}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9", res.Rows[0][7])
	assert.Equal(t, "", res.Rows[1][7])
}

func TestBuilder_FetchError(t *testing.T) {
	cfg := testBuildConfig(t)
	cfg.LineupsURL = filepath.Join("testdata", "missing.html")

	_, err := NewBuilder(cfg, csvtable.SourceOptions{}).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lineups")

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "output untouched on failure")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lineups_url: https://example.com/lineups
stat_columns: [CF%, xGF%]
window_days: 14
timeout: 45s
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/lineups", cfg.LineupsURL)
	assert.Equal(t, []string{"CF%", "xGF%"}, cfg.StatColumns)
	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, DefaultConfig().GoaliesURL, cfg.GoaliesURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_days: 0\nstat_columns: []\noutput: \"\"\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	for _, want := range []string{"window_days", "stat_columns", "output"} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStatsLocation(t *testing.T) {
	cfg := Config{StatsURL: "https://stats.example/t?fd={from}&td={to}", WindowDays: 30}
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "https://stats.example/t?fd=2026-01-01&td=2026-01-31", cfg.StatsLocation(now))
}
