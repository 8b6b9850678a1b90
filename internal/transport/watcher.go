package transport

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
)

// Kicker receives change signals for a source. Implemented by the scan
// coordinator.
type Kicker interface {
	Kick(sourceKey string)
}

// Watcher turns filesystem change notifications on local log files into
// coordinator kicks, so local sources are scanned moments after the game
// server flushes instead of waiting for the poll interval. Remote (SFTP)
// sources cannot be watched and stay on the poll cycle.
type Watcher struct {
	logger *pterm.Logger
	kicker Kicker

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	paths   map[string]string // absolute log path -> source key
	dirs    map[string]int    // watched directory -> refcount
	closed  bool
	stopped chan struct{}
}

func NewWatcher(logger *pterm.Logger, kicker Kicker) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		logger:  logger,
		kicker:  kicker,
		fw:      fw,
		paths:   make(map[string]string),
		dirs:    make(map[string]int),
		stopped: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add registers a local log path for a source. The parent directory is
// watched, not the file: the host replaces the file on rotation and a watch
// on the old inode would go quiet.
func (w *Watcher) Add(sourceKey, logPath string) error {
	abs, err := filepath.Abs(logPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	if _, ok := w.paths[abs]; ok {
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.fw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.paths[abs] = sourceKey

	w.logger.Debug("Watching log file",
		w.logger.Args("source", sourceKey, "path", abs))
	return nil
}

// Remove unregisters a source's log path.
func (w *Watcher) Remove(logPath string) {
	abs, err := filepath.Abs(logPath)
	if err != nil {
		return
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[abs]; !ok {
		return
	}
	delete(w.paths, abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.fw.Remove(dir)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.fw.Close()
	<-w.stopped
}

func (w *Watcher) run() {
	defer close(w.stopped)

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			sourceKey, watched := w.paths[event.Name]
			w.mu.Unlock()
			if !watched {
				continue
			}
			w.logger.Trace("Log file changed",
				w.logger.Args("source", sourceKey, "path", event.Name))
			w.kicker.Kick(sourceKey)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", w.logger.Args("error", err))
		}
	}
}
