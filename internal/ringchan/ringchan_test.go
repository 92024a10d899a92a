package ringchan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingChannelKeepsNewest(t *testing.T) {
	rc := New[int](3)

	for i := 0; i < 10; i++ {
		rc.Send(i)
	}
	rc.Close()

	var got []int
	for v := range rc.C() {
		got = append(got, v)
	}
	assert.Equal(t, []int{7, 8, 9}, got, "only the newest values MUST survive")

	m := rc.Metrics()
	assert.Equal(t, int64(10), m.Written)
	assert.Equal(t, int64(7), m.Dropped)
}

func TestRingChannelSendReportsDrop(t *testing.T) {
	rc := New[string](1)

	assert.False(t, rc.Send("a"), "first send MUST NOT drop")
	assert.True(t, rc.Send("b"), "send into a full buffer MUST drop the oldest")

	v, ok := rc.TryReceive()
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = rc.TryReceive()
	assert.False(t, ok, "empty buffer MUST NOT yield a value")
	assert.Equal(t, int64(1), rc.Metrics().Received)
}

func TestRingChannelCloseIsIdempotent(t *testing.T) {
	rc := New[int](2)
	rc.Send(1)
	rc.Close()
	rc.Close()

	assert.False(t, rc.Send(2), "send after close MUST be ignored")

	v, ok := rc.Receive()
	require.True(t, ok, "buffered value MUST be readable after close")
	assert.Equal(t, 1, v)

	_, ok = rc.Receive()
	assert.False(t, ok)
}

func TestRingChannelConcurrentProducers(t *testing.T) {
	rc := New[int](8)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				rc.Send(i)
			}
		}()
	}
	wg.Wait()

	m := rc.Metrics()
	assert.Equal(t, int64(400), m.Written)
	assert.Equal(t, int64(400-8), m.Dropped)
	assert.Equal(t, 8, rc.Len())
	assert.Equal(t, 8, rc.Cap())
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[int](0) })
}
