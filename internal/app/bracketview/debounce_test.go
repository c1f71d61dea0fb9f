package bracketview

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesPerKey(t *testing.T) {
	d := NewDebouncer()
	defer d.Stop()

	var a, b atomic.Int32
	assert.True(t, d.Trigger("a", shortDelay, func() { a.Add(1) }))
	assert.False(t, d.Trigger("a", shortDelay, func() { a.Add(1) }))
	assert.True(t, d.Trigger("b", shortDelay, func() { b.Add(1) }))
	assert.True(t, d.Pending("a"))

	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, shortDelay)
	require.Eventually(t, func() bool { return !d.Pending("a") }, time.Second, shortDelay)

	assert.True(t, d.Trigger("a", shortDelay, func() { a.Add(1) }))
	require.Eventually(t, func() bool { return a.Load() == 2 }, time.Second, shortDelay)
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer()
	var n atomic.Int32
	d.Trigger("a", 5*shortDelay, func() { n.Add(1) })
	d.Stop()

	assert.False(t, d.Trigger("a", shortDelay, func() { n.Add(1) }))
	time.Sleep(10 * shortDelay)
	assert.Equal(t, int32(0), n.Load())
}
