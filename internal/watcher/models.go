package watcher

import (
	"log/slog"
	"time"
)

type Op uint8

const (
	Created Op = iota + 1
	Modified
	Deleted
	Moved
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// ChangeEvent is a single filesystem change. Dest is set for Moved only.
type ChangeEvent struct {
	Op    Op
	Path  string
	Dest  string
	IsDir bool
}

type SubscribeOptions struct {
	Recursive bool
	// Exclude lists directories that are neither watched nor descended into.
	Exclude []string
}

// Config содержит настройки для FileWatcher
type Config struct {
	BufferSize int
	// RenameWindow is how long a rename waits for the matching create before
	// it is reported as a deletion.
	RenameWindow time.Duration
	Logger       *slog.Logger
}
