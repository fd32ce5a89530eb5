package library

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/beatlab/beatlab"
)

// storeWatcher watches the file backing the library's store key and
// invokes onChange when it is written from outside. Events are debounced
// because editors and atomic renames produce bursts.
type storeWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

const debounceWindow = 250 * time.Millisecond

func newStoreWatcher(path string, logger beatlab.Logger, onChange func()) (*storeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: atomic renames replace the file
	// inode and a file watch would go stale after the first write.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	sw := &storeWatcher{
		watcher: w,
		done:    make(chan struct{}),
	}

	go func() {
		var timer *time.Timer
		var timerC <-chan time.Time
		target := filepath.Clean(path)
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounceWindow)
					timerC = timer.C
				} else {
					timer.Reset(debounceWindow)
				}
			case <-timerC:
				timer = nil
				timerC = nil
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("library watcher error", "error", err)
			case <-sw.done:
				return
			}
		}
	}()

	return sw, nil
}

func (sw *storeWatcher) close() {
	close(sw.done)
	sw.watcher.Close()
}
