package listing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) add(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = append(r.values, v)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.values...)
}

func TestDebouncerDeliversLastValue(t *testing.T) {
	t.Parallel()

	var rec recorder

	d := NewDebouncer(20*time.Millisecond, rec.add)
	defer d.Stop()

	for _, v := range []string{"t", "th", "the", "thef", "theft"} {
		d.Push(v)
	}

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, []string{"theft"}, rec.get())
	assert.False(t, d.Pending())
}

func TestDebouncerFlushAndCancel(t *testing.T) {
	t.Parallel()

	var rec recorder

	d := NewDebouncer(time.Hour, rec.add)
	defer d.Stop()

	d.Push("a")
	assert.True(t, d.Pending())

	d.Flush()
	assert.Equal(t, []string{"a"}, rec.get())

	d.Flush()
	assert.Equal(t, []string{"a"}, rec.get(), "flush without a pending value is a no-op")

	d.Push("b")
	d.Cancel()
	assert.False(t, d.Pending())

	d.Flush()
	assert.Equal(t, []string{"a"}, rec.get())
}

func TestDebouncerStop(t *testing.T) {
	t.Parallel()

	var rec recorder

	d := NewDebouncer(10*time.Millisecond, rec.add)
	d.Push("x")
	d.Stop()
	d.Push("y")

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.get())
}

func TestDebouncerStopWaitsForCallback(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	var finished bool

	d := NewDebouncer(time.Millisecond, func(string) {
		close(started)
		<-release

		finished = true
	})

	d.Push("x")
	<-started

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	d.Stop()
	assert.True(t, finished)
}

func TestDebouncerDefaultDelay(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(0, func(string) {})
	assert.Equal(t, DefaultDebounce, d.delay)
}
