package catalog

import "errors"

var (
	ErrRecordNotFound   = errors.New("catalog record not found")
	ErrBucketNotFound   = errors.New("bucket not found")
	ErrNilDB            = errors.New("database connection is nil")
	ErrNilRecord        = errors.New("catalog record is nil")
	ErrArchiveMissing   = errors.New("archive file missing")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
