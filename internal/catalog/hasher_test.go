package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"backupwatch/internal/archive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()

	a, err := HashFile(writeFile(t, dir, "a.py", "same"))
	require.NoError(t, err)
	b, err := HashFile(writeFile(t, dir, "b.py", "same"))
	require.NoError(t, err)
	c, err := HashFile(writeFile(t, dir, "c.py", "different"))
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = HashFile(filepath.Join(dir, "missing.py"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "20240305_140709_a.py", "print(1)")
	sum, err := HashFile(path)
	require.NoError(t, err)

	record := &Record{ArchivePath: path, Checksum: sum}
	assert.NoError(t, Verify(record))

	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0644))
	assert.ErrorIs(t, Verify(record), ErrChecksumMismatch)

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, Verify(record), ErrArchiveMissing)

	assert.ErrorIs(t, Verify(nil), ErrNilRecord)
}

func TestRecorder(t *testing.T) {
	h := setupTest(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "20240305_140709_a.py", "print(1)")

	entry := archive.Entry{
		Source: "/src/a.py",
		Name:   "20240305_140709_a.py",
		Path:   path,
		Size:   8,
		Reason: "created",
		Time:   time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
	}

	recorder := NewRecorder(h.db)
	require.NoError(t, recorder.Record("session-1", entry))

	got, err := h.db.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, "/src/a.py", got.Source)
	assert.Equal(t, "created", got.Reason)
	assert.NoError(t, Verify(got))

	entry.Path = filepath.Join(dir, "missing.py")
	assert.Error(t, recorder.Record("session-1", entry))
}
