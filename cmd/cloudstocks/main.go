package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cloudstocks/internal/config"
	"cloudstocks/internal/session"
	"cloudstocks/internal/util"
	"cloudstocks/pkg/cloudstocks"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	apiURL     string
	backend    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "cloudstocks",
		Short:         "Browse CloudStocks listings and price history",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(opts, "")
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CLOUDSTOCKS_CONFIG"), "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API origin (overrides config)")
	root.PersistentFlags().StringVar(&opts.backend, "session-backend", "", "session storage: memory|file|sqlite")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newRegisterCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newWhoamiCmd(opts))
	root.AddCommand(newStocksCmd(opts))
	root.AddCommand(newArchiveCmd(opts))
	return root
}

// app holds everything a command needs, built from config and flags.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	sess    *session.Session
	client  *cloudstocks.Client
	closeFn func() error
}

func (a *app) Close() error {
	return a.closeFn()
}

// loadApp resolves configuration and opens the session store. Logs go to
// logW.
func loadApp(opts *globalOpts, logW io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logW)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *globalOpts) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.backend != "" {
		cfg.Session.Backend = opts.backend
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func newApp(cfg *config.Config, logW io.Writer) (*app, error) {
	log := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logW)
	util.SetDefault(log)

	store, closeFn, err := session.Open(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	log.Debug("session store opened", "backend", cfg.Session.Backend, "path", cfg.Session.StoragePath())

	client := cloudstocks.NewClient(cfg.API.BaseURL,
		cloudstocks.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		cloudstocks.WithLogger(log),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		sess:    session.New(store, session.WithLogger(log)),
		client:  client,
		closeFn: closeFn,
	}, nil
}
