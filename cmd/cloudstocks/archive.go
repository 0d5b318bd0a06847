package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"cloudstocks/internal/store"
	"cloudstocks/internal/views"
)

func newArchiveCmd(opts *globalOpts) *cobra.Command {
	archive := &cobra.Command{Use: "archive", Short: "Query locally archived history"}

	archive.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived symbols",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			syms, err := store.NewParquetStore(archiveDir(cfg.Export.Dir)).ListSymbols(context.Background())
			if err != nil {
				return err
			}
			if len(syms) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no archived symbols")
				return nil
			}
			for _, s := range syms {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	})

	var from, to string
	show := &cobra.Command{
		Use:   "show <symbol>",
		Short: "Show archived history for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			start, end := time.Time{}, time.Now().UTC()
			if from != "" {
				if start, err = time.Parse("2006-01-02", from); err != nil {
					return fmt.Errorf("%w: %q", views.ErrInvalidDate, from)
				}
			}
			if to != "" {
				if end, err = time.Parse("2006-01-02", to); err != nil {
					return fmt.Errorf("%w: %q", views.ErrInvalidDate, to)
				}
			}
			if start.IsZero() {
				start = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
			}

			recs, err := store.NewParquetStore(archiveDir(cfg.Export.Dir)).ReadHistory(context.Background(), args[0], start, end)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no archived history for %s\n", args[0])
				return nil
			}
			rows, _ := views.BuildRows(recs)
			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Date", "Open", "High", "Low", "Close", "Volume")
			for _, r := range rows {
				tbl.Row(r.Date,
					views.FormatPrice(r.Open), views.FormatPrice(r.High),
					views.FormatPrice(r.Low), views.FormatPrice(r.Close),
					views.FormatVolumeShort(r.Volume))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
	show.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD")
	show.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD")

	archive.AddCommand(show)
	return archive
}
