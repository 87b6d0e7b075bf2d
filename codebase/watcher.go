package codebase

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called after the watcher re-parsed or dropped a file. info
// is nil for removed files.
type ChangeFunc func(path string, info *FileInfo)

// FileWatcher keeps the codebase in sync with the files on disk. It polls
// the root at a fixed interval and, where the platform supports it, also
// rescans as soon as fsnotify reports a change in a watched directory.
type FileWatcher struct {
	codebase     *Codebase
	stopCh       chan struct{}
	doneCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time
	onChange     ChangeFunc

	notify  *fsnotify.Watcher
	watched map[string]bool
}

func NewFileWatcher(c *Codebase, interval time.Duration, onChange ChangeFunc) *FileWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &FileWatcher{
		codebase:     c,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		pollInterval: interval,
		modTimes:     make(map[string]time.Time),
		onChange:     onChange,
		watched:      make(map[string]bool),
	}
}

func (w *FileWatcher) Start() {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warningf("fsnotify unavailable, polling only: %v", err)
	} else {
		w.notify = notify
	}
	go w.run()
}

// Stop ends watching and waits for the current scan to finish.
func (w *FileWatcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	if w.notify != nil {
		w.notify.Close()
	}
}

func (w *FileWatcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.notify != nil {
		events = w.notify.Events
		errs = w.notify.Errors
	}

	w.scan()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Ext(event.Name) == Ext || event.Has(fsnotify.Create) {
				w.scan()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warningf("fsnotify: %v", err)
		}
	}
}

func (w *FileWatcher) scan() {
	current := make(map[string]bool)
	w.watchDir(w.codebase.RootDir())

	walkSources(w.codebase.RootDir(), func(path string, info os.FileInfo) {
		current[path] = true
		w.watchDir(filepath.Dir(path))

		lastMod, known := w.modTimes[path]
		if known && !info.ModTime().After(lastMod) {
			return
		}
		w.modTimes[path] = info.ModTime()
		if err := w.codebase.ScanFile(path); err != nil {
			log.Warningf("rescanning %s: %v", path, err)
			return
		}
		w.changed(path, w.codebase.GetFile(path))
	})

	for path := range w.modTimes {
		if !current[path] {
			delete(w.modTimes, path)
			w.codebase.RemoveFile(path)
			w.changed(path, nil)
		}
	}
}

// watchDir registers dir with fsnotify once. Directories are only known
// after a scan found a source file in them; the poll picks up the rest.
func (w *FileWatcher) watchDir(dir string) {
	if w.notify == nil || w.watched[dir] {
		return
	}
	if err := w.notify.Add(dir); err != nil {
		log.Debugf("fsnotify: cannot watch %s: %v", dir, err)
		return
	}
	w.watched[dir] = true
}

func (w *FileWatcher) changed(path string, info *FileInfo) {
	if w.onChange != nil {
		w.onChange(path, info)
	}
}
