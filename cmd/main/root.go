package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/matt-steen/todo-board/pkg/api"
	"github.com/matt-steen/todo-board/pkg/app"
	"github.com/matt-steen/todo-board/pkg/config"
	"github.com/matt-steen/todo-board/pkg/controller"
	"github.com/matt-steen/todo-board/pkg/db"
	"github.com/matt-steen/todo-board/pkg/identity"
	"github.com/matt-steen/todo-board/pkg/server"
	"github.com/matt-steen/todo-board/pkg/tasks"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const logFilePerms = 0o600

// options holds the flags shared by every command.
type options struct {
	configPath string
	baseURL    string
	dataDir    string
	logLevel   string

	addr   string
	dbPath string
}

// NewRootCmd returns the todo-board command: the board UI by default, and the service with serve.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "todo-board",
		Short:        "Shared to-do board in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the board against the default service
  todo-board

  # Run the service the board talks to
  todo-board serve --addr :8080
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			return runBoard(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a TOML config file (default: config.toml in the data dir)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Address of the todo service")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for the identity file, log and database")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the todo service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Address to listen on")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Path to the sqlite database")

	return cmd
}

// load reads the config file and applies the flags the user set on top of it.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)

		return f != nil && f.Changed
	}

	if changed("data-dir") {
		cfg.SetDataDir(o.dataDir)
	}

	if changed("base-url") {
		cfg.BaseURL = o.baseURL
	}

	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	if changed("addr") {
		cfg.Server.Addr = o.addr
	}

	if changed("db") {
		cfg.Server.DBPath = o.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error in config: %w", err)
	}

	return cfg, nil
}

// runBoard bootstraps the identity and runs the board until the user quits. The terminal belongs
// to the UI, so logs go to the configured file.
func runBoard(ctx context.Context, cfg *config.Config) error {
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("error creating data dir: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(logFilePerms))
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}

	defer logFile.Close()

	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: logFile, TimeFormat: "2006-01-02_15:04:05",
	})

	log.Info().Str("service", cfg.BaseURL).Msg("starting application...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := api.NewClient(cfg.BaseURL, cfg.Timeout.Duration)

	queue := tasks.NewQueue(ctx, nil)
	defer queue.Close()

	a := app.New(app.Options{
		Remote:   client,
		Identity: identity.NewCache(cfg.DataDir, client),
		Queue:    queue,
	})

	if err := a.Start(ctx); err != nil {
		log.Error().Err(err).Msg("could not load the board")

		return fmt.Errorf("error starting board (is the service at %s running?): %w", cfg.BaseURL, err)
	}

	c, err := controller.NewController(ctx, a)
	if err != nil {
		return err
	}

	return c.Go()
}

// runServer serves the todo API until interrupted.
func runServer(ctx context.Context, cfg *config.Config) error {
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: os.Stderr, TimeFormat: "2006-01-02_15:04:05",
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0o700); err != nil {
		return fmt.Errorf("error creating database dir: %w", err)
	}

	database, err := db.NewDatabase(ctx, cfg.Server.DBPath)
	if err != nil {
		return err
	}

	defer database.Close()

	log.Info().Str("db", cfg.Server.DBPath).Msg("database opened")

	return server.New(database, cfg.Server.AllowedOrigins).ListenAndServe(ctx, cfg.Server.Addr)
}
