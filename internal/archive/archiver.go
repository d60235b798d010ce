package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Archiver copies files into a single archive directory. Name generation and
// the copy run under one lock so that concurrent backups never pick the same
// name.
type Archiver struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

type Config struct {
	Dir   string
	Clock func() time.Time
}

// NewArchiver creates the archive directory if it is missing and checks that
// it can be listed.
func NewArchiver(cfg Config) (*Archiver, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveDir, err)
	}

	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrArchiveDir, dir, err)
	}

	d, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrArchiveDir, dir, err)
	}
	defer d.Close()

	if _, err := d.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArchiveDir, dir, err)
	}

	return &Archiver{
		dir: dir,
		now: cfg.Clock,
	}, nil
}

func (a *Archiver) Dir() string {
	return a.dir
}

// Backup copies sourcePath into the archive directory, preserving permission
// bits and modification time. A source that vanished before the copy yields
// ErrSourceMissing; on any failure no file is left behind.
func (a *Archiver) Backup(sourcePath, reason string) (Entry, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, fmt.Errorf("%w: %s", ErrSourceMissing, sourcePath)
		}
		return Entry{}, wrapIO("stat source", err)
	}
	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%w: %s is not a regular file", ErrIO, sourcePath)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	name, err := GenerateName(a.dir, sourcePath, now)
	if err != nil {
		return Entry{}, wrapIO("generate archive name", err)
	}

	dst := filepath.Join(a.dir, name)
	size, err := copyFile(sourcePath, dst)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Source: sourcePath,
		Name:   name,
		Path:   dst,
		Size:   size,
		Reason: reason,
		Time:   now,
	}, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return 0, wrapIO("open source", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, wrapIO("stat source", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return 0, wrapIO("create archive file", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, wrapIO("copy", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, wrapIO("close archive file", err)
	}

	// OpenFile applies the umask.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		os.Remove(dst)
		return 0, wrapIO("copy permissions", err)
	}
	if err := os.Chtimes(dst, time.Now(), info.ModTime()); err != nil {
		os.Remove(dst)
		return 0, wrapIO("copy modification time", err)
	}

	return n, nil
}

func wrapIO(op string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
