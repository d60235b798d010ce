package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHelper struct {
	db  *DB
	dir string
}

func setupTest(t *testing.T) *testHelper {
	t.Helper()

	dir := t.TempDir()

	db, err := Open(Config{
		Path:       filepath.Join(dir, "catalog.db"),
		FileMode:   0666,
		Serializer: &GobSerializer{},
	})
	require.NoError(t, err)
	require.NotNil(t, db)

	t.Cleanup(func() {
		db.Close()
	})

	return &testHelper{
		db:  db,
		dir: dir,
	}
}

var baseTime = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func createTestRecord(source, name string, offset time.Duration) *Record {
	return &Record{
		SessionID:   uuid.New().String(),
		Source:      source,
		ArchiveName: name,
		ArchivePath: filepath.Join("/backup", name),
		Reason:      "modified",
		Size:        42,
		CreatedAt:   baseTime.Add(offset),
		Checksum:    "00ff",
	}
}

func TestDB_Put(t *testing.T) {
	h := setupTest(t)

	tests := []struct {
		name        string
		input       *Record
		shouldError bool
	}{
		{
			name:        "Valid record",
			input:       createTestRecord("/src/a.py", "20240305_140709_a.py", 0),
			shouldError: false,
		},
		{
			name:        "Nil record",
			input:       nil,
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.db.Put(tt.input)
			if tt.shouldError {
				assert.ErrorIs(t, err, ErrNilRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDB_Get(t *testing.T) {
	h := setupTest(t)

	record := createTestRecord("/src/a.py", "20240305_140709_a.py", 0)
	require.NoError(t, h.db.Put(record))

	got, err := h.db.Get(record.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, record.SessionID, got.SessionID)
	assert.Equal(t, record.Source, got.Source)
	assert.Equal(t, record.ArchiveName, got.ArchiveName)
	assert.Equal(t, record.Size, got.Size)
	assert.True(t, record.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, record.Checksum, got.Checksum)

	_, err = h.db.Get("/backup/missing.py")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDB_BySource(t *testing.T) {
	h := setupTest(t)

	records := []*Record{
		createTestRecord("/src/a.py", "20240305_140711_a.py", 2*time.Second),
		createTestRecord("/src/a.py", "20240305_140709_a.py", 0),
		createTestRecord("/src/b.py", "20240305_140710_b.py", time.Second),
		createTestRecord("/src/a.py", "20240305_140709_a_2.py", 0),
	}
	for _, r := range records {
		require.NoError(t, h.db.Put(r))
	}

	got, err := h.db.BySource("/src/a.py")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "20240305_140709_a.py", got[0].ArchiveName)
	assert.Equal(t, "20240305_140709_a_2.py", got[1].ArchiveName)
	assert.Equal(t, "20240305_140711_a.py", got[2].ArchiveName)

	none, err := h.db.BySource("/src/c.py")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDB_All(t *testing.T) {
	h := setupTest(t)

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("20240305_14070%d_f.py", i)
		require.NoError(t, h.db.Put(createTestRecord("/src/f.py", name, time.Duration(i)*time.Second)))
	}

	all, err := h.db.All()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDB_Delete(t *testing.T) {
	h := setupTest(t)

	record := createTestRecord("/src/a.py", "20240305_140709_a.py", 0)
	require.NoError(t, h.db.Put(record))

	tests := []struct {
		name string
		path string
	}{
		{name: "Delete existing record", path: record.ArchivePath},
		{name: "Delete non-existing record", path: "/backup/nonexistent.py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, h.db.Delete(tt.path))

			_, err := h.db.Get(tt.path)
			assert.ErrorIs(t, err, ErrRecordNotFound)
		})
	}
}

func TestDB_Concurrency(t *testing.T) {
	h := setupTest(t)

	const numGoroutines = 10
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("20240305_140709_f_%d.py", id+2)
			assert.NoError(t, h.db.Put(createTestRecord("/src/f.py", name, 0)))
		}(i)
	}
	wg.Wait()

	records, err := h.db.All()
	assert.NoError(t, err)
	assert.Len(t, records, numGoroutines)
}

func TestDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Put(createTestRecord("/src/a.py", "20240305_140709_a.py", 0)))
	require.NoError(t, db.Close())

	db, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer db.Close()

	all, err := db.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGobSerializer(t *testing.T) {
	serializer := &GobSerializer{}
	record := createTestRecord("/src/a.py", "20240305_140709_a.py", 0)

	data, err := serializer.Serialize(record)
	require.NoError(t, err)

	var result Record
	require.NoError(t, serializer.Deserialize(data, &result))
	assert.Equal(t, record.ArchivePath, result.ArchivePath)
	assert.Equal(t, record.Reason, result.Reason)
}
