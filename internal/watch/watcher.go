// Package watch re-runs a callback when a fixed set of files changes on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle
const DefaultDebounce = 100 * time.Millisecond

// FileWatcher monitors a set of files and calls onChange with the ones whose
// content changed. Parent directories are watched rather than the files
// themselves so that editors which save by renaming a temp file are seen.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	detector  *changeDetector
	files     map[string]struct{}
	logger    *zap.Logger
	onChange  func([]string) error
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// Option configures a FileWatcher
type Option func(*FileWatcher)

// WithDebounce sets the quiet period before onChange runs
func WithDebounce(d time.Duration) Option {
	return func(fw *FileWatcher) {
		fw.debouncer = NewDebouncer(d)
	}
}

// WithLogger sets the logger for watch events
func WithLogger(logger *zap.Logger) Option {
	return func(fw *FileWatcher) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// NewFileWatcher creates a watcher for files
func NewFileWatcher(files []string, onChange func([]string) error, opts ...Option) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(DefaultDebounce),
		detector:  newChangeDetector(),
		files:     make(map[string]struct{}, len(files)),
		logger:    zap.NewNop(),
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		fw.files[abs] = struct{}{}
	}

	fw.debouncer.SetCallback(fw.flush)
	return fw, nil
}

// Start begins watching. The current content of each file is the baseline
// later changes are compared against.
func (fw *FileWatcher) Start() error {
	dirs := make(map[string]struct{})
	for file := range fw.files {
		if _, err := fw.detector.Changed(file); err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		dirs[filepath.Dir(file)] = struct{}{}
	}

	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() error {
	select {
	case <-fw.stopChan:
		return nil
	default:
		close(fw.stopChan)
	}

	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := fw.files[path]; watched {
				fw.logger.Debug("file event", zap.String("file", path), zap.Stringer("op", event.Op))
				fw.debouncer.Add(path)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// flush drops files whose content is unchanged and runs onChange with the rest
func (fw *FileWatcher) flush(files []string) {
	changed := make([]string, 0, len(files))
	for _, file := range files {
		ok, err := fw.detector.Changed(file)
		if err != nil {
			// mid-save; the following Create event retries
			fw.logger.Debug("file not readable", zap.String("file", file), zap.Error(err))
			continue
		}
		if ok {
			changed = append(changed, file)
		}
	}
	if len(changed) == 0 {
		return
	}

	if err := fw.onChange(changed); err != nil {
		fw.logger.Warn("error handling file changes", zap.Error(err))
	}
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add adds a file to the debouncer and restarts the quiet period
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with accumulated files, sorted
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if d.stopped || len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending flush. Files added afterwards are ignored.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
