package catalog

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/crypto/blake2b"
)

// HashFile returns the hex encoded blake2b-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the checksum of the archived copy described by r.
func Verify(r *Record) error {
	if r == nil {
		return ErrNilRecord
	}

	sum, err := HashFile(r.ArchivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArchiveMissing, r.ArchivePath)
		}
		return err
	}
	if sum != r.Checksum {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, r.ArchivePath)
	}
	return nil
}
