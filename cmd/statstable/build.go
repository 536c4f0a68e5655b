package main

import (
	"fmt"

	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/JonMunkholm/statstable/internal/matchups"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scrape today's games and write the matchups CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bc, err := matchups.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if output != "" {
				bc.Output = output
			}

			res, err := matchups.NewBuilder(bc, csvtable.SourceOptions{}).Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d matchups (%d rows) to %s\n", res.Matchups, len(res.Rows), res.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML build config (default: built-in sources)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "override the output path")
	return cmd
}
