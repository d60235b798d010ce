package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"backupwatch/internal/util/logger/sl"

	"github.com/fsnotify/fsnotify"
)

// FSNotify is the Source backed by fsnotify.
type FSNotify struct {
	config Config
}

func NewFSNotify(config Config) *FSNotify {
	return &FSNotify{config: config}
}

func (s *FSNotify) Subscribe(root string, opts SubscribeOptions) (Subscription, error) {
	return NewFileWatcher(root, opts, s.config)
}

type FileWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	opts    SubscribeOptions
	config  Config
	logger  *slog.Logger

	events chan ChangeEvent
	errors chan error

	dirs    map[string]struct{}
	renamed *pendingRename

	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
}

type pendingRename struct {
	path  string
	isDir bool
	timer *time.Timer
}

// NewFileWatcher watches root (and, when opts.Recursive is set, every
// directory below it) and starts translating fsnotify events.
func NewFileWatcher(root string, opts SubscribeOptions, config Config) (*FileWatcher, error) {
	if config.BufferSize == 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.RenameWindow == 0 {
		config.RenameWindow = DefaultRenameWindow
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:  watcher,
		root:     filepath.Clean(root),
		opts:     opts,
		config:   config,
		logger:   config.Logger,
		events:   make(chan ChangeEvent, config.BufferSize),
		errors:   make(chan error, 1),
		dirs:     make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}

	if err := fw.addTree(fw.root); err != nil {
		watcher.Close()
		return nil, err
	}

	fw.wg.Add(1)
	go fw.run()

	return fw, nil
}

func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

func (fw *FileWatcher) Close() error {
	err := ErrWatcherClosed
	fw.closeOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()

		err = nil
		if cerr := fw.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
	})
	return err
}

// addTree adds dir and, when recursive, every directory below it. Unreadable
// subdirectories are skipped; failing to watch root itself is an error.
func (fw *FileWatcher) addTree(dir string) error {
	if !fw.opts.Recursive {
		return fw.addDir(dir)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == fw.root {
				return fmt.Errorf("%w: %v", ErrInvalidPath, err)
			}
			fw.logger.Warn("skipping unreadable directory", slog.String("path", path), sl.Err(err))
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if fw.excluded(path) {
			return filepath.SkipDir
		}
		if err := fw.addDir(path); err != nil {
			if path == fw.root {
				return err
			}
			fw.logger.Warn("cannot watch directory", slog.String("path", path), sl.Err(err))
			return filepath.SkipDir
		}
		return nil
	})
}

func (fw *FileWatcher) addDir(dir string) error {
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	fw.mu.Lock()
	fw.dirs[dir] = struct{}{}
	fw.mu.Unlock()
	return nil
}

func (fw *FileWatcher) excluded(path string) bool {
	for _, ex := range fw.opts.Exclude {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) isDir(path string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, ok := fw.dirs[path]
	return ok
}

func (fw *FileWatcher) forgetDir(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	delete(fw.dirs, path)
}

func (fw *FileWatcher) run() {
	defer fw.wg.Done()
	defer close(fw.events)

	for {
		var renameExpired <-chan time.Time
		if fw.renamed != nil {
			renameExpired = fw.renamed.timer.C
		}

		select {
		case <-fw.stopChan:
			fw.stopRenameTimer()
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.excluded(event.Name) {
				continue
			}
			fw.processEvent(event)
		case <-renameExpired:
			fw.flushRename()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				fw.logger.Warn("fsnotify event queue overflowed, some changes were missed", sl.Err(err))
				continue
			}
			fw.stopRenameTimer()
			fw.handleError(err)
			return
		}
	}
}

func (fw *FileWatcher) processEvent(event fsnotify.Event) {
	if event.Op&WatchedEvents == 0 {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		isDir := false
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			isDir = true
			if fw.opts.Recursive {
				if err := fw.addTree(event.Name); err != nil {
					fw.logger.Warn("cannot watch new directory", slog.String("path", event.Name), sl.Err(err))
				}
			}
		}

		// Without a rename cookie only a create in the same directory is
		// taken as the other half of the rename.
		if fw.renamed != nil && filepath.Dir(fw.renamed.path) != filepath.Dir(event.Name) {
			fw.flushRename()
		}
		if fw.renamed != nil {
			from := fw.renamed.path
			fw.stopRenameTimer()
			fw.emit(ChangeEvent{Op: Moved, Path: from, Dest: event.Name, IsDir: isDir})
			return
		}
		fw.emit(ChangeEvent{Op: Created, Path: event.Name, IsDir: isDir})

	case event.Has(fsnotify.Rename):
		fw.flushRename()
		isDir := fw.isDir(event.Name)
		fw.forgetDir(event.Name)
		fw.renamed = &pendingRename{
			path:  event.Name,
			isDir: isDir,
			timer: time.NewTimer(fw.config.RenameWindow),
		}

	case event.Has(fsnotify.Remove):
		isDir := fw.isDir(event.Name)
		fw.forgetDir(event.Name)
		fw.emit(ChangeEvent{Op: Deleted, Path: event.Name, IsDir: isDir})

	case event.Has(fsnotify.Write):
		fw.emit(ChangeEvent{Op: Modified, Path: event.Name})
	}
}

// flushRename reports a rename whose destination never showed up (moved out
// of the watched tree) as a deletion.
func (fw *FileWatcher) flushRename() {
	if fw.renamed == nil {
		return
	}
	r := fw.renamed
	fw.stopRenameTimer()
	fw.emit(ChangeEvent{Op: Deleted, Path: r.path, IsDir: r.isDir})
}

func (fw *FileWatcher) stopRenameTimer() {
	if fw.renamed == nil {
		return
	}
	fw.renamed.timer.Stop()
	fw.renamed = nil
}

func (fw *FileWatcher) emit(event ChangeEvent) {
	select {
	case fw.events <- event:
	case <-fw.stopChan:
	}
}

func (fw *FileWatcher) handleError(err error) {
	select {
	case fw.errors <- err:
	default:
		fw.logger.Error("error buffer full, dropping error", sl.Err(err))
	}
}
