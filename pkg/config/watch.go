package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Trigger names what kind of file caused a reload.
type Trigger string

const (
	// TriggerConfig means the configuration file changed.
	TriggerConfig Trigger = "config"

	// TriggerContent means a document under the content root changed.
	TriggerContent Trigger = "content"
)

// ChangeSet is a debounced batch of file changes.
type ChangeSet struct {
	Triggers []Trigger
	Paths    []string
}

// Has reports whether the batch includes t.
func (c ChangeSet) Has(t Trigger) bool {
	for _, got := range c.Triggers {
		if got == t {
			return true
		}
	}
	return false
}

// Watcher reports changes to a configuration file and a content tree.
type Watcher struct {
	configFile  string
	contentRoot string
	delay       time.Duration
	logger      zerolog.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]Trigger
	timer   *time.Timer
}

// NewWatcher creates a watcher for configFile and, when non-empty, the
// markdown files under contentRoot. Events are batched over delay.
func NewWatcher(configFile, contentRoot string, delay time.Duration, logger zerolog.Logger) *Watcher {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Watcher{
		configFile:  filepath.Clean(configFile),
		contentRoot: contentRoot,
		delay:       delay,
		logger:      logger.With().Str("component", "config-watcher").Logger(),
		pending:     make(map[string]Trigger),
	}
}

// Run watches until ctx is cancelled, calling onChange once per debounced
// batch. Calls to onChange never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, ChangeSet)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher
	defer watcher.Close()

	// Editors often replace files by rename, so the directory is watched
	// rather than the file itself.
	if err := watcher.Add(filepath.Dir(w.configFile)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	if w.contentRoot != "" {
		if err := w.watchDirectory(w.contentRoot); err != nil {
			return fmt.Errorf("failed to watch content root: %w", err)
		}
	}

	w.logger.Info().
		Str("config", w.configFile).
		Str("content", w.contentRoot).
		Msg("Started watching")

	flush := make(chan struct{}, 1)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-flush:
				if batch, ok := w.drain(); ok {
					onChange(ctx, batch)
				}
			}
		}
	}()
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		close(done)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event, flush)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// handle classifies an event and schedules a batch flush.
func (w *Watcher) handle(event fsnotify.Event, flush chan<- struct{}) {
	if event.Op == fsnotify.Chmod {
		return
	}

	name := filepath.Clean(event.Name)

	if event.Op&fsnotify.Create != 0 && w.contentRoot != "" && w.underContent(name) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.watchDirectory(name); err != nil {
				w.logger.Warn().Err(err).Str("path", name).Msg("Failed to watch new directory")
			}
			return
		}
	}

	var trigger Trigger
	switch {
	case name == w.configFile:
		trigger = TriggerConfig
	case w.contentRoot != "" && w.underContent(name) && strings.HasSuffix(name, ".md"):
		trigger = TriggerContent
	default:
		return
	}

	w.logger.Debug().
		Str("file", name).
		Str("op", event.Op.String()).
		Str("trigger", string(trigger)).
		Msg("File changed")

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[name] = trigger
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		select {
		case flush <- struct{}{}:
		default:
			// A flush is already queued and will pick up this change.
		}
	})
}

// drain returns and clears the pending changes.
func (w *Watcher) drain() (ChangeSet, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return ChangeSet{}, false
	}

	seen := make(map[Trigger]bool)
	var batch ChangeSet
	for path, trigger := range w.pending {
		batch.Paths = append(batch.Paths, path)
		if !seen[trigger] {
			seen[trigger] = true
			batch.Triggers = append(batch.Triggers, trigger)
		}
	}
	sort.Strings(batch.Paths)
	sort.Slice(batch.Triggers, func(i, j int) bool { return batch.Triggers[i] < batch.Triggers[j] })
	w.pending = make(map[string]Trigger)
	return batch, true
}

func (w *Watcher) underContent(path string) bool {
	rel, err := filepath.Rel(w.contentRoot, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// watchDirectory adds a directory tree to the watcher.
func (w *Watcher) watchDirectory(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}
