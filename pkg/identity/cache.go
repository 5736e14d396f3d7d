// Package identity caches the single local user on disk.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/rs/zerolog/log"
)

const (
	// FileName is the name of the identity file inside the data directory.
	FileName = "user.json"

	lockSuffix = ".lock"

	// DefaultStaleLock is how old a bootstrap lock may get before another launch takes it over.
	DefaultStaleLock = 30 * time.Second

	lockPollInterval = 100 * time.Millisecond
)

// Bootstrapper creates the remote records for a first run.
type Bootstrapper interface {
	CreateUser(ctx context.Context) (board.User, error)
	CreateList(ctx context.Context, userID int) (board.List, error)
}

// Cache loads the local user, creating one on first run, and persists changes to it.
type Cache struct {
	path      string
	remote    Bootstrapper
	staleLock time.Duration

	mu      sync.RWMutex
	current *board.User
}

// NewCache creates a Cache that keeps its file in dir.
func NewCache(dir string, remote Bootstrapper) *Cache {
	return &Cache{
		path:      filepath.Join(dir, FileName),
		remote:    remote,
		staleLock: DefaultStaleLock,
	}
}

// SetStaleLock changes how old a bootstrap lock may get before it is considered abandoned.
func (c *Cache) SetStaleLock(d time.Duration) {
	c.staleLock = d
}

// Path returns the location of the identity file.
func (c *Cache) Path() string {
	return c.path
}

// Initialize returns the cached user, loading it verbatim from disk when the file exists. On a
// first run it creates a remote user and an initial list for it, then writes the file.
// Concurrent first runs are serialized by a lock file next to the identity file.
func (c *Cache) Initialize(ctx context.Context) (board.User, error) {
	user, err := c.load()
	if err == nil {
		log.Info().Str("path", c.path).Int("user", user.ID).Msg("loaded local user")

		c.setCurrent(user)

		return user, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return board.User{}, err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return board.User{}, fmt.Errorf("error creating data dir: %w", err)
	}

	unlock, err := c.lock(ctx)
	if err != nil {
		return board.User{}, err
	}
	defer unlock()

	// another launch may have finished the bootstrap while we waited for the lock
	if user, err := c.load(); err == nil {
		c.setCurrent(user)

		return user, nil
	}

	user, err = c.bootstrap(ctx)
	if err != nil {
		return board.User{}, err
	}

	if err := c.write(user); err != nil {
		return board.User{}, err
	}

	log.Info().Str("path", c.path).Int("user", user.ID).Str("username", user.Username).Msg("created local user")

	c.setCurrent(user)

	return user, nil
}

// Current returns the loaded user, or nil before Initialize succeeds.
func (c *Cache) Current() *board.User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return nil
	}

	user := *c.current

	return &user
}

// Update persists user as the local identity and returns the stored record.
func (c *Cache) Update(user board.User) (board.User, error) {
	if err := c.write(user); err != nil {
		return board.User{}, err
	}

	c.setCurrent(user)

	log.Debug().Int("user", user.ID).Int("list", user.LastUsedTodolistID).Msg("updated local user")

	return user, nil
}

func (c *Cache) bootstrap(ctx context.Context) (board.User, error) {
	user, err := c.remote.CreateUser(ctx)
	if err != nil {
		return board.User{}, fmt.Errorf("error bootstrapping user: %w", err)
	}

	list, err := c.remote.CreateList(ctx, user.ID)
	if err != nil {
		return board.User{}, fmt.Errorf("error bootstrapping todolist for user %d: %w", user.ID, err)
	}

	user.LastUsedTodolistID = list.ID

	return user, nil
}

func (c *Cache) setCurrent(user board.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = &user
}

func (c *Cache) load() (board.User, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return board.User{}, err
		}

		return board.User{}, fmt.Errorf("error reading %s: %w", c.path, err)
	}

	var user board.User
	if err := json.Unmarshal(data, &user); err != nil {
		return board.User{}, fmt.Errorf("error parsing %s: %w", c.path, err)
	}

	return user, nil
}

// write replaces the identity file atomically.
func (c *Cache) write(user board.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("error encoding user: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("error writing %s: %w", c.path, err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmp.Name(), 0o600)
	}

	if err == nil {
		err = os.Rename(tmp.Name(), c.path)
	}

	if err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("error writing %s: %w", c.path, err)
	}

	return nil
}

// lock takes the bootstrap lock, waiting for a live holder and replacing a stale one.
func (c *Cache) lock(ctx context.Context) (func(), error) {
	lockPath := c.path + lockSuffix

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()

			return func() {
				if err := os.Remove(lockPath); err != nil {
					log.Warn().Err(err).Str("path", lockPath).Msg("error removing bootstrap lock")
				}
			}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("error creating bootstrap lock: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > c.staleLock {
			breakStaleLock(lockPath, c.staleLock)

			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("error waiting for bootstrap lock: %w", ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

// breakStaleLock removes the lock at lockPath if it is older than staleAfter. The lock is first
// renamed aside, so two launches can't both remove it; if what was moved turns out to be a fresh
// lock taken in the meantime, it is put back.
func breakStaleLock(lockPath string, staleAfter time.Duration) {
	aside := fmt.Sprintf("%s.%d.%d", lockPath, os.Getpid(), time.Now().UnixNano())

	if err := os.Rename(lockPath, aside); err != nil {
		// someone else got to it first
		return
	}

	defer os.Remove(aside)

	info, err := os.Stat(aside)
	if err == nil && time.Since(info.ModTime()) <= staleAfter {
		// a live lock; a new one created meanwhile wins and keeps its place
		if err := os.Link(aside, lockPath); err != nil {
			log.Warn().Err(err).Str("path", lockPath).Msg("error restoring bootstrap lock")
		}

		return
	}

	log.Warn().Str("path", lockPath).Msg("removed stale bootstrap lock")
}
