// Package watcher implements the deck watcher (component F): a
// recursive-free file-watch primitive that coalesces bursts of filesystem
// events into a single debounced change event. Reparsing and swapping the
// deck on that event is done by internal/core/reload.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tobogganhq/toboggan/internal/domain/ports"
)

// DebounceWindow is the default coalescing window: a burst of editor save
// events (temp-file-then-rename, multiple Write events) collapses into one
// change notification fired this long after the last observed event.
const DebounceWindow = 300 * time.Millisecond

// FSWatcher watches one file using fsnotify, debouncing bursts of events
// and filtering out saves that rewrite identical bytes via a checksum
// guard (a torn read or an editor's atomic-rename-of-unchanged-content
// should never trigger a spurious reload).
type FSWatcher struct {
	debounce time.Duration
	watcher  *fsnotify.Watcher
	events   chan ports.FileChangeEvent
	wg       sync.WaitGroup

	mu        sync.Mutex
	stopped   bool
	lastCheck fileSignature
}

type fileSignature struct {
	size     int64
	modTime  time.Time
	checksum string
}

// New returns a watcher using the default debounce window.
func New() *FSWatcher {
	return NewWithDebounce(DebounceWindow)
}

// NewWithDebounce returns a watcher using a custom debounce window
// (tests use a shorter one to keep runtime bounded).
func NewWithDebounce(debounce time.Duration) *FSWatcher {
	return &FSWatcher{
		debounce: debounce,
		events:   make(chan ports.FileChangeEvent, 10),
	}
}

// Watch starts watching path, delivering a debounced FileChangeEvent on
// the returned channel every time the file's content actually changes.
// fsnotify watches the containing directory rather than the file itself:
// editors that save via temp-file-then-rename replace the inode, which a
// direct file watch would silently stop observing.
func (w *FSWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileChangeEvent, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}
	w.watcher = fsw

	if sig, err := signatureOf(absPath); err == nil {
		w.lastCheck = sig
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx, absPath)
	}()

	return w.events, nil
}

// Stop stops the watcher and releases the underlying fsnotify handle.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
	}
	w.wg.Wait()
	close(w.events)
	return err
}

// loop coalesces raw fsnotify events for path into debounced, content-
// verified FileChangeEvents, single-flight: while a debounce timer is
// pending, further raw events merely reset it.
func (w *FSWatcher) loop(ctx context.Context, path string) {
	base := filepath.Base(path)

	var timer *time.Timer
	var timerC <-chan time.Time
	pendingType := ports.Modified

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove):
				pendingType = ports.Deleted
			case ev.Has(fsnotify.Create):
				pendingType = ports.Created
			case ev.Has(fsnotify.Rename):
				pendingType = ports.Renamed
			case ev.Has(fsnotify.Write):
				pendingType = ports.Modified
			default:
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if w.contentChanged(path, pendingType) {
				select {
				case w.events <- ports.FileChangeEvent{Path: path, Type: pendingType, Timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// contentChanged applies the post-debounce checksum guard: a Delete always
// passes through, but a Modified/Created event is only reported if the
// file's bytes actually differ from the last successfully observed
// signature, catching both no-op saves and a torn read mid-write.
func (w *FSWatcher) contentChanged(path string, changeType ports.ChangeType) bool {
	if changeType == ports.Deleted {
		w.mu.Lock()
		w.lastCheck = fileSignature{}
		w.mu.Unlock()
		return true
	}

	sig, err := signatureOf(path)
	if err != nil {
		// File vanished between the debounce firing and the stat (e.g. a
		// rename-based save still mid-flight); skip this round, the next
		// Create event will retrigger the debounce.
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if sig.checksum == w.lastCheck.checksum {
		w.lastCheck = sig
		return false
	}
	w.lastCheck = sig
	return true
}

func signatureOf(path string) (fileSignature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileSignature{}, err
	}
	checksum, err := checksumOf(path)
	if err != nil {
		return fileSignature{}, err
	}
	return fileSignature{size: info.Size(), modTime: info.ModTime(), checksum: checksum}, nil
}

func checksumOf(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is validated by caller
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
