package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

// EventLibraryChanged is published when a watched music folder changes.
// Event data is a LibraryChange.
const EventLibraryChanged = "music.library.changed"

type LibraryChange struct {
	Type       string      `json:"type"`
	FolderPath string      `json:"folderPath"`
	AudioFiles []AudioFile `json:"audioFiles"`
}

// WatcherStats counts watcher activity.
type WatcherStats struct {
	Events    int
	Rescans   int
	Errors    int
	LastEvent time.Time
}

// Watcher rescans a music folder after its audio files settle. Bursts of
// events within the debounce window produce one rescan.
type Watcher struct {
	root      string
	recursive bool
	debounce  time.Duration
	onChange  func(LibraryChange)
	logger    log.Log

	watcher *fsnotify.Watcher

	mu        sync.Mutex
	pending   bool
	lastEvent time.Time
	stats     WatcherStats
}

// NewWatcher watches root (and its subfolders when recursive). onChange runs
// on the watcher goroutine.
func NewWatcher(root string, recursive bool, debounce time.Duration, onChange func(LibraryChange), logger log.Log) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:      root,
		recursive: recursive,
		debounce:  debounce,
		onChange:  onChange,
		logger:    logger.With(log.String("component", "music_watcher"), log.String("root", root)),
		watcher:   fw,
	}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	if !w.recursive {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFolderNotFound, dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("%w: %s: %w", ErrFolderNotFound, dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Cannot watch folder", log.String("path", path), log.Error(err))
		}
		return nil
	})
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing watcher", log.Error(err))
		}
	}()

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.Info("Watching music folder", log.Bool("recursive", w.recursive))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.markPending()
			}
			w.logger.Warn("Watcher error", log.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}
	if w.recursive && event.Op&fsnotify.Create != 0 {
		// new subfolders need their own watch and may already hold files
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Cannot watch new folder", log.String("path", event.Name), log.Error(err))
			}
			w.markPending()
			return
		}
	}
	// a removed or renamed folder has no extension to check
	if !IsAudio(event.Name) && event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.markPending()
}

func (w *Watcher) markPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = true
	w.lastEvent = time.Now()
	w.stats.Events++
	w.stats.LastEvent = w.lastEvent
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.stats.Rescans++
	w.mu.Unlock()

	files, err := Scan(w.root, w.recursive)
	if err != nil {
		w.logger.Warn("Rescan failed", log.Error(err))
		return
	}
	w.logger.Debug("Music folder rescanned", log.Int("files", len(files)))
	if w.onChange != nil {
		w.onChange(LibraryChange{Type: EventLibraryChanged, FolderPath: w.root, AudioFiles: files})
	}
}

func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
