package main

import (
	"errors"
	"log/slog"

	"github.com/JonMunkholm/statstable/internal/config"
	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/JonMunkholm/statstable/internal/termview"
	"github.com/spf13/cobra"
)

func newShowCmd(cfg func() *config.Config) *cobra.Command {
	var (
		source  string
		heading string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch the CSV and print it as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if !cmd.Flags().Changed("source") {
				source = localLocation(c, c.Source.URL)
			}
			if !cmd.Flags().Changed("heading") {
				heading = c.Display.Heading
			}

			src, err := csvtable.NewSource(source, csvtable.SourceOptions{
				BaseURL:  c.Source.BaseURL,
				S3Region: c.Source.S3Region,
			})
			if err != nil {
				return err
			}

			svc := csvtable.NewService(src, csvtable.Options{
				Timeout:  c.Source.Timeout,
				MaxBytes: c.Source.MaxBytes,
			})
			snap, err := svc.Load(cmd.Context())
			if err != nil {
				slog.Debug("snapshot load failed", "source", src.String(), "error", err)
				return errors.New(csvtable.FormatUserError(err))
			}

			opts := termview.Options{Heading: heading}
			if noColor {
				off := false
				opts.Color = &off
			}
			return termview.Render(cmd.OutOrStdout(), snap, opts)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "CSV location: URL, file path or s3://bucket/key (default: SOURCE_URL, site paths read from PUBLIC_DIR)")
	cmd.Flags().StringVar(&heading, "heading", "", "heading printed above the table (default: DISPLAY_HEADING)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured rows")
	return cmd
}
