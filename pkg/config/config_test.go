package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-steen/todo-board/pkg/api"
	"github.com/matt-steen/todo-board/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.FileName)
	require.Nil(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	cfg := config.Default()
	assert.Equal(api.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(config.DefaultRequestTimeout, cfg.Timeout.Duration)
	assert.Equal(filepath.Join(cfg.DataDir, config.DefaultDBFile), cfg.Server.DBPath)
	assert.Nil(cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	path := writeConfig(t, `
base_url = "http://todo.example:9000"
data_dir = "/var/lib/todo-board"
log_level = "debug"
request_timeout = "2s"

[server]
addr = ":9000"
`)

	cfg, err := config.Load(path)
	require.Nil(t, err)

	assert.Equal("http://todo.example:9000", cfg.BaseURL)
	assert.Equal(2*time.Second, cfg.Timeout.Duration)
	assert.Equal(":9000", cfg.Server.Addr)
	assert.Equal("/var/lib/todo-board/debug.log", cfg.LogFile)
	assert.Equal("/var/lib/todo-board/todos.db", cfg.Server.DBPath)

	level, err := cfg.Level()
	assert.Nil(err)
	assert.Equal(zerolog.DebugLevel, level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.NotNil(t, err)
}

func TestLoadUnknownKey(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `colour = "blue"`)

	_, err := config.Load(path)
	assert.EqualError(t, err, "error loading config "+path+": unknown key colour")
}

func TestLoadInvalidValues(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	_, err := config.Load(writeConfig(t, `log_level = "chatty"`))
	assert.NotNil(err)

	_, err = config.Load(writeConfig(t, `request_timeout = "soon"`))
	assert.NotNil(err)

	_, err = config.Load(writeConfig(t, `base_url = ""`))
	assert.EqualError(err, "base_url must not be empty")
}

func TestSetDataDir(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	cfg := &config.Config{
		DataDir: "/srv/board",
		LogFile: "/srv/board/debug.log",
		Server:  config.Server{DBPath: "/var/lib/todos.db"},
	}

	cfg.SetDataDir("/tmp/other")

	assert.Equal("/tmp/other", cfg.DataDir)
	assert.Equal("/tmp/other/debug.log", cfg.LogFile)
	assert.Equal("/var/lib/todos.db", cfg.Server.DBPath)
}
