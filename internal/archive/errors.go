package archive

import "errors"

var (
	ErrSourceMissing    = errors.New("source file missing")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIO               = errors.New("i/o failure")
	ErrArchiveDir       = errors.New("archive directory unavailable")
	ErrNamesExhausted   = errors.New("no free archive name")
)
