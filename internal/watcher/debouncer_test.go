package watcher

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer(t *testing.T) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	var counter atomic.Int32

	incrementCounter := func() {
		counter.Add(1)
	}

	for i := 0; i < 5; i++ {
		debouncer.Debounce("test", incrementCounter)
		time.Sleep(10 * time.Millisecond)
	}

	debouncer.Wait()

	// Counter should be incremented only once
	assert.Equal(t, int32(1), counter.Load())
}

func TestDebouncer_LastCallWins(t *testing.T) {
	debouncer := NewDebouncer(20 * time.Millisecond)
	var got atomic.Value

	for _, reason := range []string{"created", "modified"} {
		reason := reason
		debouncer.Debounce("a.py", func() { got.Store(reason) })
	}
	debouncer.Wait()

	assert.Equal(t, "modified", got.Load())
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	debouncer := NewDebouncer(20 * time.Millisecond)
	var counter atomic.Int32

	for _, key := range []string{"a.py", "b.py", "c.py"} {
		debouncer.Debounce(key, func() { counter.Add(1) })
	}
	debouncer.Wait()

	assert.Equal(t, int32(3), counter.Load())
}

func TestDebouncer_WaitWithoutCalls(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewDebouncer(time.Second).Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked without pending calls")
	}
}
