package eventlog

import "time"

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Session identifies one run of the watch pipeline.
type Session struct {
	ID         string
	Root       string
	ArchiveDir string
	Started    time.Time
	Ended      time.Time
}

// Summary is written into the session end banner.
type Summary struct {
	Events   int64
	Backups  int64
	Bytes    int64
	Warnings int64
	Errors   int64
}
