package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultBufferSize   = 100
	DefaultRenameWindow = 50 * time.Millisecond
)

// WatchedEvents are the fsnotify operations translated into change events.
var WatchedEvents = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
