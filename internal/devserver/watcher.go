package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDebounce is the quiet period after the last change before rebuilding
	DefaultDebounce = 300 * time.Millisecond
	// DefaultReaddTimeout bounds how long a vanished root directory is awaited
	DefaultReaddTimeout = 30 * time.Second
)

// Watcher calls OnChange once file activity below Dirs settles.
type Watcher struct {
	Dirs         []string
	Debounce     time.Duration
	ReaddTimeout time.Duration
	// Directories skipped entirely, matched by base name or full path
	Ignore []string
	// Called sequentially, never concurrently
	OnChange func(ctx context.Context)
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.OnChange == nil {
		return errors.New("watcher requires an OnChange callback")
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	roots := make([]string, 0, len(w.Dirs))
	for _, dir := range w.Dirs {
		root := filepath.Clean(dir)
		if err := w.addRecursive(fw, root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn().Str("dir", root).Msg("Watch directory does not exist, skipping")
				continue
			}
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		roots = append(roots, root)
	}

	log.Info().Strs("dirs", roots).Msg("Watching for changes")

	readded := make(chan string, len(roots))
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
		} else {
			timer.Reset(debounce)
		}
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}

			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("File changed")

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, event.Name); err != nil {
						log.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch new directory")
					}
				}
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if slices.Contains(roots, filepath.Clean(event.Name)) {
					go w.readd(ctx, fw, filepath.Clean(event.Name), readded)
				}
			}

			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			schedule()

		case dir := <-readded:
			log.Info().Str("dir", dir).Msg("Watch directory restored")
			schedule()

		case <-fire:
			fire = nil
			w.OnChange(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// readd waits for a removed root directory to reappear and watches it again
func (w *Watcher) readd(ctx context.Context, fw *fsnotify.Watcher, dir string, done chan<- string) {
	timeout := w.ReaddTimeout
	if timeout <= 0 {
		timeout = DefaultReaddTimeout
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		info, err := os.Stat(dir)
		if err != nil {
			return struct{}{}, err
		}
		if !info.IsDir() {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%s is no longer a directory", dir))
		}
		return struct{}{}, w.addRecursive(fw, dir)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Gave up watching removed directory")
		return
	}

	select {
	case done <- dir:
	case <-ctx.Done():
	}
}

// addRecursive watches dir and every directory below it that is not ignored
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// ignored matches dependency, output and hidden directories as well as the
// configured ignore list
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if base == "node_modules" || (strings.HasPrefix(base, ".") && base != "." && base != "..") {
		return true
	}
	clean := filepath.Clean(path)
	for _, ignore := range w.Ignore {
		if base == ignore || clean == filepath.Clean(ignore) {
			return true
		}
	}
	return false
}
