package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"trackviz/logger"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 合并连续写事件的等待时间
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads a Store when its CSV file changes.
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration
}

// NewWatcher 创建文件监听器
func NewWatcher(store *Store, path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{store: store, path: path, debounce: debounce}
}

// Run blocks until ctx is done. The parent directory is watched rather than the
// file itself so editors that replace the file on save are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching dataset", logger.String("path", abs))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("dataset watcher error", logger.ErrorField(err))
		case <-timer.C:
			if _, err := w.store.Reload(ctx); err != nil {
				logger.Warn("dataset reload failed, keeping previous snapshot", logger.ErrorField(err))
			}
		}
	}
}
