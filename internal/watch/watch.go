package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceInterval = 2 * time.Second

// Watcher observes the claude projects root and the cursor database
// directory, coalescing filesystem events into debounced reindex calls.
type Watcher struct {
	claudeRoot string
	cursorDB   string
	reindex    func()
	log        *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New builds a watcher. reindex is invoked after activity settles for
// two seconds; it runs on the watcher goroutine, never concurrently
// with itself.
func New(claudeRoot, cursorDB string, reindex func(), log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		claudeRoot: claudeRoot,
		cursorDB:   cursorDB,
		reindex:    reindex,
		log:        log,
	}
}

// Run blocks until ctx is cancelled, dispatching debounced reindex
// callbacks as session files change.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	watched := 0
	if w.claudeRoot != "" {
		if err := w.addClaudeTree(fw); err != nil {
			w.log.Warn("watch claude root", zap.String("root", w.claudeRoot), zap.Error(err))
		} else {
			watched++
		}
	}
	if w.cursorDB != "" {
		dir := filepath.Dir(w.cursorDB)
		if err := fw.Add(dir); err != nil {
			w.log.Warn("watch cursor db dir", zap.String("dir", dir), zap.Error(err))
		} else {
			watched++
		}
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch")
	}

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return ctx.Err()
		case <-fire:
			w.log.Info("changes settled, reindexing")
			w.reindex()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// new project directories appear under the claude root
			if ev.Op.Has(fsnotify.Create) && w.underClaudeRoot(ev.Name) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						w.log.Warn("watch new project dir", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if w.relevant(ev) {
				w.schedule(fire)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) addClaudeTree(fw *fsnotify.Watcher) error {
	if err := fw.Add(w.claudeRoot); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.claudeRoot)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.claudeRoot, e.Name())
		if err := fw.Add(dir); err != nil {
			w.log.Warn("watch project dir", zap.String("dir", dir), zap.Error(err))
		}
	}
	return nil
}

func (w *Watcher) underClaudeRoot(path string) bool {
	if w.claudeRoot == "" {
		return false
	}
	rel, err := filepath.Rel(w.claudeRoot, path)
	return err == nil && rel != ".." && !filepath.IsAbs(rel) &&
		len(rel) > 0 && rel[0] != '.'
}

// relevant filters out events that can never affect the index: only
// .jsonl files under the claude root and the cursor store itself matter.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if w.cursorDB != "" && filepath.Base(ev.Name) == filepath.Base(w.cursorDB) {
		return true
	}
	if w.underClaudeRoot(ev.Name) {
		return filepath.Ext(ev.Name) == ".jsonl" || ev.Op.Has(fsnotify.Create)
	}
	return false
}

func (w *Watcher) schedule(fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceInterval, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
