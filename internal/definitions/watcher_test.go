package definitions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherMatches(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, "**/*.yaml", time.Second, func(context.Context, string) error { return nil })
	require.NoError(t, err)
	defer w.watcher.Close()

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "geometry.yaml"), true},
		{filepath.Join(root, "nested", "dir", "physics.yaml"), true},
		{filepath.Join(root, "notes.txt"), false},
		{filepath.Join(t.TempDir(), "elsewhere.yaml"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.Matches(tt.path), tt.path)
	}
}

func TestWatcherRejectsBadPattern(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), "[", time.Second, nil)
	assert.Error(t, err)
}

func TestWatcherDebouncesEvents(t *testing.T) {
	root := t.TempDir()
	var calls []string
	w, err := NewWatcher(root, "*.yaml", 0, func(_ context.Context, path string) error {
		calls = append(calls, path)
		return nil
	})
	require.NoError(t, err)
	defer w.watcher.Close()

	path := filepath.Join(root, "geometry.yaml")
	writeFile(t, path, "domain: geometry\n")
	for i := 0; i < 3; i++ {
		w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	}
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "skip.txt"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Chmod})

	w.processSettled(context.Background())
	assert.Equal(t, []string{path}, calls)
	stats := w.Stats()
	assert.Equal(t, 3, stats.Events)
	assert.Equal(t, 1, stats.Reloads)
}

func TestWatcherSkipsRemovedFiles(t *testing.T) {
	root := t.TempDir()
	called := false
	w, err := NewWatcher(root, "*.yaml", 0, func(context.Context, string) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "gone.yaml"), Op: fsnotify.Create})
	w.processSettled(context.Background())
	assert.False(t, called)
}

func TestWatcherCountsHandlerErrors(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, "*.yaml", 0, func(context.Context, string) error {
		return errors.New("broken definitions")
	})
	require.NoError(t, err)
	defer w.watcher.Close()

	path := filepath.Join(root, "bad.yaml")
	writeFile(t, path, "domain: [\n")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.processSettled(context.Background())
	assert.Equal(t, 1, w.Stats().Errors)
}

func TestWatcherStartFailureClosesWatcher(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), "*.yaml", time.Second, func(context.Context, string) error { return nil })
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))
	assert.False(t, w.IsWatching())
	assert.ErrorIs(t, w.watcher.Add(t.TempDir()), fsnotify.ErrClosed)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	root := t.TempDir()
	reloaded := make(chan string, 4)
	w, err := NewWatcher(root, "*.yaml", 20*time.Millisecond, func(_ context.Context, path string) error {
		reloaded <- path
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())

	path := filepath.Join(root, "geometry.yaml")
	writeFile(t, path, geometryYAML)

	select {
	case got := <-reloaded:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	w.Stop()
	assert.False(t, w.IsWatching())
}
