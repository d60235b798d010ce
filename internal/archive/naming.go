package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GenerateName returns an archive name for sourcePath that does not exist in
// dir at call time: {timestamp}_{stem}{ext}, then {timestamp}_{stem}_2{ext},
// _3 and so on. Callers that write the file must hold the directory lock
// between this call and the write.
func GenerateName(dir, sourcePath string, now time.Time) (string, error) {
	stem, ext := SplitName(filepath.Base(sourcePath))
	ts := now.Format(TimestampLayout)

	for n := 1; n <= MaxNameAttempts; n++ {
		name := candidate(ts, stem, ext, n)

		_, err := os.Lstat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("probe archive name %s: %w", name, err)
		}
	}

	return "", fmt.Errorf("%w: %s_%s%s", ErrNamesExhausted, ts, stem, ext)
}

// SplitName splits a base name into stem and extension. A leading-dot name
// without another dot (".bashrc") and a trailing bare dot have no extension.
func SplitName(base string) (stem, ext string) {
	ext = filepath.Ext(base)
	if ext == base || ext == "." {
		return base, ""
	}
	return strings.TrimSuffix(base, ext), ext
}

func candidate(ts, stem, ext string, n int) string {
	if n == 1 {
		return ts + "_" + stem + ext
	}
	return ts + "_" + stem + "_" + strconv.Itoa(n) + ext
}
