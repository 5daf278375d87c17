package devserver

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, w *Watcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	})
	// allow the initial watches to register
	time.Sleep(100 * time.Millisecond)
	return cancel, done
}

func TestWatcher_rebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	changes := make(chan struct{}, 10)

	startWatcher(t, &Watcher{
		Dirs:     []string{dir},
		Debounce: 50 * time.Millisecond,
		OnChange: func(context.Context) { changes <- struct{}{} },
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.js"), []byte("export {}"), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestWatcher_debouncesBursts(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	startWatcher(t, &Watcher{
		Dirs:     []string{dir},
		Debounce: 200 * time.Millisecond,
		OnChange: func(context.Context) { calls.Add(1) },
	})

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte{byte('a' + i)}, 0o600))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestWatcher_watchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	changes := make(chan struct{}, 10)

	startWatcher(t, &Watcher{
		Dirs:     []string{dir},
		Debounce: 50 * time.Millisecond,
		OnChange: func(context.Context) { changes <- struct{}{} },
	})

	sub := filepath.Join(dir, "components")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// drain the notification for the directory itself
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification for the new directory")
	}

	require.NoError(t, os.WriteFile(filepath.Join(sub, "Button.jsx"), []byte("export {}"), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification inside the new directory")
	}
}

func waitForChange(t *testing.T, changes <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal(msg)
	}
}

func TestWatcher_rewatchesRecreatedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.Mkdir(root, 0o755))
	changes := make(chan struct{}, 10)

	startWatcher(t, &Watcher{
		Dirs:         []string{root},
		Debounce:     50 * time.Millisecond,
		ReaddTimeout: 10 * time.Second,
		OnChange:     func(context.Context) { changes <- struct{}{} },
	})

	require.NoError(t, os.Remove(root))
	waitForChange(t, changes, "expected a change notification for the removed directory")

	require.NoError(t, os.Mkdir(root, 0o755))
	waitForChange(t, changes, "expected a change notification once the directory is watched again")

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.js"), []byte("export {}"), 0o600))
	waitForChange(t, changes, "expected a change notification inside the recreated directory")
}

func TestWatcher_ignored(t *testing.T) {
	w := &Watcher{Ignore: []string{"dist", "/project/build"}}

	tests := []struct {
		path     string
		expected bool
	}{
		{path: "/project/src/index.js", expected: false},
		{path: "/project/node_modules", expected: true},
		{path: "/project/src/.index.js.swp", expected: true},
		{path: "/project/dist", expected: true},
		{path: "/project/build", expected: true},
		{path: "/project/src/build.js", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.expected, w.ignored(tt.path))
		})
	}
}

func TestWatcher_requiresCallback(t *testing.T) {
	err := (&Watcher{Dirs: []string{t.TempDir()}}).Run(context.Background())
	require.Error(t, err)
}

func TestWatcher_missingDirectoryIsSkipped(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, done := startWatcher(t, &Watcher{
		Dirs:     []string{missing},
		OnChange: func(context.Context) {},
	})

	select {
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	default:
	}
}
