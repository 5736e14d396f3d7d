package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakStaleLockRemovesOldLock(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	lockPath := filepath.Join(dir, FileName+lockSuffix)
	require.Nil(t, os.WriteFile(lockPath, []byte("1\n"), 0o600))

	old := time.Now().Add(-time.Hour)
	require.Nil(t, os.Chtimes(lockPath, old, old))

	breakStaleLock(lockPath, time.Minute)

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	assert.Empty(entries)
}

// A launch that judged the lock stale may only get to it after another launch has replaced it.
func TestBreakStaleLockKeepsFreshLock(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	lockPath := filepath.Join(dir, FileName+lockSuffix)
	require.Nil(t, os.WriteFile(lockPath, []byte("2\n"), 0o600))

	breakStaleLock(lockPath, time.Minute)

	data, err := os.ReadFile(lockPath)
	require.Nil(t, err)
	assert.Equal("2\n", string(data))

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	assert.Len(entries, 1)
}

func TestBreakStaleLockAlreadyGone(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	breakStaleLock(filepath.Join(dir, FileName+lockSuffix), time.Minute)

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	assert.Empty(t, entries)
}
