package matchups

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one build of the matchups CSV. Locations accept
// anything csvtable.NewSource does, so pages can come from files in tests.
type Config struct {
	// StatsURL may contain {from} and {to}, replaced by the window dates
	// formatted as 2006-01-02.
	StatsURL   string `yaml:"stats_url"`
	LineupsURL string `yaml:"lineups_url"`
	GoaliesURL string `yaml:"goalies_url"`

	StatColumns []string `yaml:"stat_columns"`
	WindowDays  int      `yaml:"window_days"`

	// GoalieCache is read instead of GoaliesURL when it exists. Empty
	// disables caching.
	GoalieCache string `yaml:"goalie_cache"`
	Output      string `yaml:"output"`

	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// DefaultConfig returns the settings used when a key is absent.
func DefaultConfig() Config {
	return Config{
		StatsURL: "https://www.naturalstattrick.com/teamtable.php?fromseason=20252026&thruseason=20252026" +
			"&stype=2&sit=5v5&score=all&rate=n&team=all&loc=B&gpf=410&fd={from}&td={to}",
		LineupsURL:  "https://www.rotowire.com/hockey/nhl-lineups.php",
		GoaliesURL:  "https://moneypuck.com/goalies.htm",
		StatColumns: []string{"CF%", "GF%", "xGF%", "HDCF%", "SH%"},
		WindowDays:  30,
		GoalieCache: "goalie_gsax_20.csv",
		Output:      "public/result.csv",
		Timeout:     20 * time.Second,
		UserAgent:   "statstable/1.0",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read build config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse build config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StatsURL) == "" {
		errs = append(errs, errors.New("stats_url is required"))
	}
	if strings.TrimSpace(c.LineupsURL) == "" {
		errs = append(errs, errors.New("lineups_url is required"))
	}
	if strings.TrimSpace(c.GoaliesURL) == "" && strings.TrimSpace(c.GoalieCache) == "" {
		errs = append(errs, errors.New("goalies_url or goalie_cache is required"))
	}
	if len(c.StatColumns) == 0 {
		errs = append(errs, errors.New("stat_columns must not be empty"))
	}
	if c.WindowDays < 1 {
		errs = append(errs, fmt.Errorf("window_days must be at least 1, got %d", c.WindowDays))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid build config: %w", errors.Join(errs...))
	}
	return nil
}

// StatsLocation fills the date window ending at now into StatsURL.
func (c Config) StatsLocation(now time.Time) string {
	from := now.AddDate(0, 0, -c.WindowDays)
	return strings.NewReplacer(
		"{from}", from.Format(time.DateOnly),
		"{to}", now.Format(time.DateOnly),
	).Replace(c.StatsURL)
}
