package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval is how long to wait after the last file event before
// reloading, so editors that write in several steps trigger one reload.
const debounceInterval = 500 * time.Millisecond

// Watcher monitors the config file and invokes a callback with the freshly
// loaded configuration when it changes. The interactive console uses this to
// tell the user when an edited config needs a restart to take effect.
type Watcher struct {
	configDir string
	onChange  func(Config)

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}

	mu            sync.Mutex
	running       bool
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the config file in configDir.
func NewWatcher(configDir string, onChange func(Config)) *Watcher {
	return &Watcher{
		configDir: configDir,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching. Watching the directory rather than the file itself
// survives rename-based saves.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsWatcher.Add(w.configDir); err != nil {
		fsWatcher.Close()
		return err
	}

	w.fsWatcher = fsWatcher
	w.running = true

	go w.watchLoop()
	return nil
}

// Stop terminates the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.fsWatcher.Close()
}

func (w *Watcher) watchLoop() {
	configPath := ConfigFilePath(w.configDir)

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Debug("config watcher error", "error", err.Error())
		}
	}
}

// scheduleReload debounces bursts of file events into a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.configDir)
	if err != nil {
		slog.Warn("ignoring unreadable config change", "error", err.Error())
		return
	}

	slog.Info("configuration reloaded", "api_url", cfg.APIURL)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
