// Package eventlog keeps the append-only, human-readable record of a watch
// session inside the archive directory.
package eventlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"backupwatch/internal/util/logger/sl"
)

const (
	TimeLayout     = "2006-01-02 15:04:05"
	DefaultLogFile = "backup_log.txt"
	FilePermission = 0644

	delimiter = "============================================================"
)

// Log appends lines to a file, opening and closing it on every call so that
// an external reader always sees whole lines. Each line is mirrored to the
// slog logger at the matching level.
type Log struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

type Config struct {
	Dir      string
	FileName string
	Logger   *slog.Logger
	Clock    func() time.Time
}

func New(cfg Config) *Log {
	if cfg.FileName == "" {
		cfg.FileName = DefaultLogFile
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Log{
		path:   filepath.Join(cfg.Dir, cfg.FileName),
		logger: cfg.Logger,
		now:    cfg.Clock,
	}
}

func (l *Log) Path() string {
	return l.path
}

// Record appends "[YYYY-MM-DD HH:MM:SS] [LEVEL] message".
func (l *Log) Record(level Level, message string) error {
	line := fmt.Sprintf("[%s] [%s] %s", l.now().Format(TimeLayout), level, message)

	l.mirror(level, message)

	return l.append(line)
}

func (l *Log) Infof(format string, args ...any) {
	l.recordf(LevelInfo, format, args...)
}

func (l *Log) Warningf(format string, args ...any) {
	l.recordf(LevelWarning, format, args...)
}

func (l *Log) Errorf(format string, args ...any) {
	l.recordf(LevelError, format, args...)
}

func (l *Log) recordf(level Level, format string, args ...any) {
	if err := l.Record(level, fmt.Sprintf(format, args...)); err != nil {
		l.logger.Error("failed to append to event log", slog.String("path", l.path), sl.Err(err))
	}
}

// SessionStart writes the banner opening a session.
func (l *Log) SessionStart(s Session) error {
	l.logger.Info("session started",
		slog.String("session", s.ID),
		slog.String("root", s.Root),
		slog.String("archive_dir", s.ArchiveDir),
	)

	return l.append(
		delimiter,
		"SESSION STARTED: "+s.Started.Format(TimeLayout),
		"Session: "+s.ID,
		"Watching: "+s.Root,
		"Archive directory: "+s.ArchiveDir,
		delimiter,
	)
}

// SessionEnd writes the banner closing a session.
func (l *Log) SessionEnd(s Session, sum Summary) error {
	l.logger.Info("session ended",
		slog.String("session", s.ID),
		slog.Int64("backups", sum.Backups),
		slog.Int64("warnings", sum.Warnings),
		slog.Int64("errors", sum.Errors),
	)

	return l.append(
		"SESSION ENDED: "+s.Ended.Format(TimeLayout),
		fmt.Sprintf("Events: %d, backups: %d (%s), warnings: %d, errors: %d",
			sum.Events, sum.Backups, FormatSize(sum.Bytes), sum.Warnings, sum.Errors),
		delimiter,
		"",
	)
}

func (l *Log) mirror(level Level, message string) {
	switch level {
	case LevelError:
		l.logger.Error(message)
	case LevelWarning:
		l.logger.Warn(message)
	default:
		l.logger.Info(message)
	}
}

func (l *Log) append(lines ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, FilePermission)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	_, err = f.WriteString(strings.Join(lines, "\n") + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

// FormatSize renders a byte count in kilobytes with one decimal.
func FormatSize(n int64) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
