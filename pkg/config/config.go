// Package config loads the board's settings from defaults and an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/matt-steen/todo-board/pkg/api"
	"github.com/rs/zerolog"
)

const (
	// AppName is the application directory name.
	AppName = "todo-board"

	// FileName is the config file looked up in the data directory.
	FileName = "config.toml"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultRequestTimeout bounds each remote request.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultListenAddr is where the service listens.
	DefaultListenAddr = ":8080"

	// DefaultDBFile is the service's sqlite file name inside the data directory.
	DefaultDBFile = "todos.db"
)

// Duration is a time.Duration written as a string such as "5s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}

	d.Duration = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting of the board and the service.
type Config struct {
	// BaseURL is the address of the remote service.
	BaseURL string `toml:"base_url"`
	// DataDir holds the identity file, the log file and the service's database.
	DataDir string `toml:"data_dir"`
	// LogFile is where the board writes its log; the terminal belongs to the UI.
	LogFile  string   `toml:"log_file"`
	LogLevel string   `toml:"log_level"`
	Timeout  Duration `toml:"request_timeout"`

	Server Server `toml:"server"`
}

// Server holds the settings of the remote service.
type Server struct {
	Addr           string   `toml:"addr"`
	DBPath         string   `toml:"db_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	dir := DefaultDataDir()

	return &Config{
		BaseURL:  api.DefaultBaseURL,
		DataDir:  dir,
		LogFile:  filepath.Join(dir, "debug.log"),
		LogLevel: DefaultLogLevel,
		Timeout:  Duration{DefaultRequestTimeout},
		Server: Server{
			Addr:           DefaultListenAddr,
			DBPath:         filepath.Join(dir, DefaultDBFile),
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

// DefaultDataDir returns the default data directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}

	return filepath.Join(home, ".config", AppName)
}

// Load returns the defaults overlaid with the TOML file at path. An empty path means the
// config.toml in the default data directory, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.DataDir, FileName)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("error loading config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("error loading config %s: unknown key %s", path, undecoded[0])
	}

	// paths that weren't set explicitly follow a relocated data dir
	def := Default()
	if !meta.IsDefined("log_file") {
		cfg.LogFile = filepath.Join(cfg.DataDir, filepath.Base(def.LogFile))
	}

	if !meta.IsDefined("server", "db_path") {
		cfg.Server.DBPath = filepath.Join(cfg.DataDir, DefaultDBFile)
	}

	return cfg, cfg.Validate()
}

// Validate checks settings that can't be caught while decoding.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}

	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	if c.Timeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative: %s", c.Timeout)
	}

	return nil
}

// Level returns the configured zerolog level.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	return level, nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

// SetDataDir moves the data directory to dir. Paths still inside the old directory move with it.
func (c *Config) SetDataDir(dir string) {
	move := func(path string) string {
		if filepath.Dir(path) == filepath.Clean(c.DataDir) {
			return filepath.Join(dir, filepath.Base(path))
		}

		return path
	}

	c.LogFile = move(c.LogFile)
	c.Server.DBPath = move(c.Server.DBPath)
	c.DataDir = dir
}
