package eventlog

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func newTestLog(t *testing.T, console *bytes.Buffer) *Log {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(console, nil))
	return New(Config{
		Dir:    t.TempDir(),
		Logger: logger,
		Clock:  func() time.Time { return fixedTime },
	})
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARNING", LevelWarning.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestLog_Record(t *testing.T) {
	var console bytes.Buffer
	l := newTestLog(t, &console)

	require.NoError(t, l.Record(LevelInfo, "'a.py' created"))
	l.Warningf("'%s' deleted", "b.py")
	l.Errorf("no permission for %s", "c.py")

	lines := readLines(t, l.Path())
	assert.Equal(t, []string{
		"[2024-03-05 14:07:09] [INFO] 'a.py' created",
		"[2024-03-05 14:07:09] [WARNING] 'b.py' deleted",
		"[2024-03-05 14:07:09] [ERROR] no permission for c.py",
	}, lines)

	out := console.String()
	assert.Contains(t, out, `level=INFO msg="'a.py' created"`)
	assert.Contains(t, out, `level=WARN msg="'b.py' deleted"`)
	assert.Contains(t, out, `level=ERROR msg="no permission for c.py"`)
}

func TestLog_AppendOnly(t *testing.T) {
	var console bytes.Buffer
	dir := t.TempDir()

	first := New(Config{Dir: dir, Logger: slog.New(slog.NewTextHandler(&console, nil))})
	require.NoError(t, first.Record(LevelInfo, "first session"))

	second := New(Config{Dir: dir, Logger: slog.New(slog.NewTextHandler(&console, nil))})
	require.NoError(t, second.Record(LevelInfo, "second session"))

	lines := readLines(t, second.Path())
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "first session"))
	assert.True(t, strings.HasSuffix(lines[1], "second session"))
}

func TestLog_Sessions(t *testing.T) {
	var console bytes.Buffer
	l := newTestLog(t, &console)

	s := Session{
		ID:         "5f0c",
		Root:       "/work",
		ArchiveDir: "/work/backup",
		Started:    fixedTime,
		Ended:      fixedTime.Add(time.Minute),
	}

	require.NoError(t, l.SessionStart(s))
	l.Infof("'a.py' created")
	require.NoError(t, l.SessionEnd(s, Summary{Events: 4, Backups: 2, Bytes: 2048, Warnings: 1}))

	text, err := os.ReadFile(l.Path())
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		delimiter,
		"SESSION STARTED: 2024-03-05 14:07:09",
		"Session: 5f0c",
		"Watching: /work",
		"Archive directory: /work/backup",
		delimiter,
		"[2024-03-05 14:07:09] [INFO] 'a.py' created",
		"SESSION ENDED: 2024-03-05 14:08:09",
		"Events: 4, backups: 2 (2.0 KB), warnings: 1, errors: 0",
		delimiter,
		"",
	}, "\n")+"\n", string(text))

	assert.Contains(t, console.String(), "session started")
	assert.Contains(t, console.String(), "session ended")
}

func TestLog_ConcurrentRecords(t *testing.T) {
	var console syncBuffer
	l := New(Config{
		Dir:    t.TempDir(),
		Logger: slog.New(slog.NewTextHandler(&console, nil)),
	})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Infof("line %d", i)
		}(i)
	}
	wg.Wait()

	lines := readLines(t, l.Path())
	require.Len(t, lines, n)
	for _, line := range lines {
		assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] line \d+$`, line)
	}
}

func TestLog_UnwritableDirectory(t *testing.T) {
	var console bytes.Buffer
	l := New(Config{
		Dir:    "/nonexistent/backupwatch/dir",
		Logger: slog.New(slog.NewTextHandler(&console, nil)),
	})

	err := l.Record(LevelInfo, "lost")
	assert.Error(t, err)

	l.Infof("also lost")
	assert.Contains(t, console.String(), "failed to append to event log")
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0.0 KB"},
		{512, "0.5 KB"},
		{1024, "1.0 KB"},
		{1536 * 1024, "1536.0 KB"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.n))
		})
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}
