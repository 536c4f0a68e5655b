package main

import (
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/statstable/internal/config"
	"github.com/JonMunkholm/statstable/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "statstable",
		Short:         "Show and build the hockey matchups stats table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			// stdout carries the table; logs go to stderr.
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	root.AddCommand(newShowCmd(func() *config.Config { return cfg }))
	root.AddCommand(newBuildCmd())
	return root
}

// localLocation maps the configured site path, such as /result.csv, into
// the public directory when no base URL is configured.
func localLocation(cfg *config.Config, raw string) string {
	if cfg.Source.BaseURL != "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return raw
	}
	return filepath.Join(cfg.Server.PublicDir, filepath.FromSlash(strings.TrimPrefix(raw, "/")))
}
