package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cloudstocks/internal/nav"
	"cloudstocks/internal/tui"
	"cloudstocks/internal/util"
	"cloudstocks/pkg/cloudstocks"
)

func newTUICmd(opts *globalOpts) *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(opts, symbol)
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "open the detail screen for this symbol")
	return cmd
}

func runTUI(opts *globalOpts, symbol string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logFile, err := util.OpenLogFile(cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	a, err := newApp(cfg, logFile)
	if err != nil {
		return err
	}
	defer a.Close()

	start := "/"
	if symbol != "" {
		start = nav.DetailPath(symbol)
	}
	a.log.Info("starting tui", "api", a.client.BaseURL(), "location", start)

	p := tea.NewProgram(
		tui.New(tui.Deps{
			API:     a.client,
			Session: a.sess,
			Nav:     nav.NewNavigator(start),
			Refetch: &nav.RefetchSignal{},
			Defaults: cloudstocks.SearchParam{
				From: a.cfg.History.DefaultFrom,
				To:   a.cfg.History.DefaultTo,
			},
			ExportDir: a.cfg.Export.Dir,
			Logger:    a.log,
		}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}
