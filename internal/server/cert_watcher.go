package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"coverdraft/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// CertWatcher watches a set of certificate files and invokes a callback
// when any of them changes. Events are debounced so that a cert/key pair
// written in quick succession produces a single reload.
type CertWatcher struct {
	mu sync.RWMutex

	files    []string
	modTimes map[string]time.Time

	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	timer     *time.Timer

	stop    chan struct{}
	changed chan struct{}

	onChange func()
	logger   *errors.Logger
	running  bool
}

// NewCertWatcher creates a watcher over the given certificate, key and CA
// paths. Empty paths are skipped. A zero debounce defaults to one second.
func NewCertWatcher(certFile, keyFile, caFile string, debounce time.Duration, onChange func(), logger *errors.Logger) (*CertWatcher, error) {
	if debounce == 0 {
		debounce = time.Second
	}

	var files []string
	for _, f := range []string{certFile, keyFile, caFile} {
		if f != "" {
			files = append(files, f)
		}
	}

	return &CertWatcher{
		files:    files,
		modTimes: make(map[string]time.Time),
		debounce: debounce,
		stop:     make(chan struct{}),
		changed:  make(chan struct{}, 1),
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start begins watching. Files that do not exist yet are watched through
// their parent directory so creation is still observed.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = fsw

	if err := cw.recordModTimes(); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to stat watched certificate files: %w", err)
	}

	for _, file := range cw.files {
		if err := cw.watchFile(file); err != nil && cw.logger != nil {
			cw.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
	}

	cw.running = true
	go cw.loop()

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.files,
			"debounce_delay", cw.debounce)
	}
	return nil
}

// Stop shuts the watcher down. Safe to call when not running.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stop)
	if cw.timer != nil {
		cw.timer.Stop()
	}
	if err := cw.fsWatcher.Close(); err != nil {
		if cw.logger != nil {
			cw.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}

	cw.running = false
	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

// IsRunning reports whether the watch loop is active.
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}

// GetWatchedFiles returns the paths under watch.
func (cw *CertWatcher) GetWatchedFiles() []string {
	return slices.Clone(cw.files)
}

// watchFile registers the file and its directory. The directory watch
// catches atomic replacement (write to temp file, then rename).
func (cw *CertWatcher) watchFile(file string) error {
	dir := filepath.Dir(file)

	if err := cw.fsWatcher.Add(file); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
		if err := cw.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		if cw.logger != nil {
			cw.logger.Info("Watching directory for certificate file",
				"file", file, "directory", dir)
		}
		return nil
	}

	if err := cw.fsWatcher.Add(dir); err != nil && cw.logger != nil {
		cw.logger.Warn("Failed to watch directory for atomic writes",
			"directory", dir, "error", err)
	}
	return nil
}

func (cw *CertWatcher) recordModTimes() error {
	for _, file := range cw.files {
		stat, err := os.Stat(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
		cw.modTimes[file] = stat.ModTime()
	}
	return nil
}

// fileChanged reports whether the file has a newer mtime than last seen,
// or was deleted since the last check.
func (cw *CertWatcher) fileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			if _, seen := cw.modTimes[file]; seen {
				delete(cw.modTimes, file)
				return true
			}
		}
		return false
	}

	last, seen := cw.modTimes[file]
	if !seen || stat.ModTime().After(last) {
		cw.modTimes[file] = stat.ModTime()
		return true
	}
	return false
}

func (cw *CertWatcher) loop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.relevantEvent(event) {
				cw.armTimer()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-cw.changed:
			if slices.ContainsFunc(cw.files, cw.fileChanged) {
				if cw.logger != nil {
					cw.logger.Info("Certificate files changed, triggering reload")
				}
				cw.onChange()
			}

		case <-cw.stop:
			return
		}
	}
}

// relevantEvent matches write/create/rename events against the watched
// set, by full path or base name (for directory-level events).
func (cw *CertWatcher) relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	for _, file := range cw.files {
		if event.Name == file || filepath.Base(event.Name) == filepath.Base(file) {
			return true
		}
	}
	return false
}

// armTimer (re)starts the debounce timer; repeated events within the
// window collapse into one change notification.
func (cw *CertWatcher) armTimer() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, func() {
		select {
		case cw.changed <- struct{}{}:
		default:
		}
	})
}
