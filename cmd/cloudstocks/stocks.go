package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"cloudstocks/internal/nav"
	"cloudstocks/internal/store"
	"cloudstocks/internal/views"
	"cloudstocks/pkg/cloudstocks"
)

func newStocksCmd(opts *globalOpts) *cobra.Command {
	stocks := &cobra.Command{Use: "stocks", Short: "Stock listing and history"}
	stocks.AddCommand(newStocksListCmd(opts), newStocksShowCmd(opts))
	return stocks
}

func newStocksListCmd(opts *globalOpts) *cobra.Command {
	var industry, name string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stocks, optionally filtered by industry and name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			l := views.NewListing(a.client, a.log)
			t := l.SetIndustry(industry)
			rows, err := l.Fetch(context.Background(), t)
			l.Apply(t, rows, err)
			if err != nil && !cloudstocks.IsAPIError(err) {
				return err
			}
			l.SetName(name)

			out := cmd.OutOrStdout()
			if !l.ShowTable() {
				_, _ = fmt.Fprintln(out, l.Message())
				return nil
			}
			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Name", "Symbol", "Industry")
			for _, s := range l.Visible() {
				tbl.Row(s.Name, s.Symbol, s.Industry)
			}
			_, _ = fmt.Fprintln(out, tbl.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&industry, "industry", "", "industry sector (server-side filter)")
	cmd.Flags().StringVar(&name, "name", "", "case-insensitive name filter")
	return cmd
}

func newStocksShowCmd(opts *globalOpts) *cobra.Command {
	var from, to, exportPath string
	var archive bool
	cmd := &cobra.Command{
		Use:   "show <symbol>",
		Short: "Show price history for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			route := nav.Resolve(nav.DetailPath(args[0]))
			if route.View != nav.ViewDetail {
				return fmt.Errorf("invalid symbol %q", args[0])
			}
			defaults := cloudstocks.SearchParam{From: a.cfg.History.DefaultFrom, To: a.cfg.History.DefaultTo}
			d := views.NewDetail(route.Symbol, a.client, a.sess, &nav.RefetchSignal{}, defaults, a.log)

			ctx := context.Background()
			if err := d.LoadHeader(ctx); err != nil && !cloudstocks.IsAPIError(err) {
				return err
			}

			t := d.Mount()
			if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
				r := d.Range()
				if cmd.Flags().Changed("from") {
					r.From = from
				}
				if cmd.Flags().Changed("to") {
					r.To = to
				}
				if t, err = d.SetRange(r.From, r.To); err != nil {
					return err
				}
			}
			recs, err := d.Fetch(ctx, t)
			d.Apply(t, recs, err)
			if err != nil && !cloudstocks.IsAPIError(err) {
				return err
			}

			printDetail(cmd.OutOrStdout(), d)

			if exportPath != "" {
				if err := exportDetail(cmd.OutOrStdout(), d, exportPath); err != nil {
					return err
				}
			}
			if archive {
				ps := store.NewParquetStore(archiveDir(a.cfg.Export.Dir))
				if err := ps.WriteHistory(ctx, d.Symbol(), d.Records()); err != nil {
					return fmt.Errorf("archiving history: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "archived %d rows under %s\n", len(d.Records()), ps.DataDir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD (authenticated only)")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD (authenticated only)")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the shown history to this Parquet file (a directory gets a generated name)")
	cmd.Flags().BoolVar(&archive, "archive", false, "merge the shown history into the local archive")
	return cmd
}

func printDetail(w io.Writer, d *views.Detail) {
	h := d.Header()
	_, _ = fmt.Fprintf(w, "%s (%s) - %s\n", h.Name, d.Symbol(), h.Industry)
	if d.ShowProBadge() {
		_, _ = fmt.Fprintln(w, views.ProBadge)
	}
	if msg := d.Message(); msg != "" {
		_, _ = fmt.Fprintln(w, msg)
	}
	if d.ShowChart() {
		ys, _, _ := views.ChartSeries(d.Points())
		_, _ = fmt.Fprintln(w, asciigraph.Plot(ys, asciigraph.Height(10), asciigraph.Caption("Closing price")))
	}
	if d.ShowTable() {
		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Date", "Open", "High", "Low", "Close", "Volume")
		for _, r := range d.Rows() {
			tbl.Row(r.Date,
				views.FormatPrice(r.Open), views.FormatPrice(r.High),
				views.FormatPrice(r.Low), views.FormatPrice(r.Close),
				views.FormatVolume(r.Volume))
		}
		_, _ = fmt.Fprintln(w, tbl.Render())
	}
}

// exportDetail writes the displayed history to path. When path names a
// directory the file name is generated from the symbol and range.
func exportDetail(w io.Writer, d *views.Detail, path string) error {
	recs := d.Records()
	if len(recs) == 0 {
		return fmt.Errorf("nothing to export for %s", d.Symbol())
	}
	if filepath.Ext(path) != ".parquet" {
		var from, to string
		if d.Authenticated() {
			r := d.Range()
			from, to = r.From, r.To
		}
		path = filepath.Join(path, store.ExportName(d.Symbol(), from, to))
	}
	if err := store.ExportFile(path, d.Symbol(), recs); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "exported %d rows to %s\n", len(recs), path)
	return nil
}

func archiveDir(exportDir string) string {
	return filepath.Join(exportDir, "archive")
}
