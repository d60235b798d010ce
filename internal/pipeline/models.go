package pipeline

import (
	"log/slog"
	"time"

	"backupwatch/internal/archive"
	"backupwatch/internal/watcher"
)

type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Recorder is told about every successful backup.
type Recorder interface {
	Record(sessionID string, entry archive.Entry) error
}

type Options struct {
	Source   watcher.Source
	Logger   *slog.Logger
	Clock    func() time.Time
	Recorder Recorder
	// SessionID generates the id written into the session banners.
	SessionID func() string
}
