package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/glimpse/internal/logger"
)

func TestPredictor_ForwardPlayback(t *testing.T) {
	p := newPredictor(10)
	for n := int64(10); n <= 15; n++ {
		p.record(n)
	}

	next, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, int64(16), next)
}

func TestPredictor_Stride(t *testing.T) {
	p := newPredictor(10)
	for _, n := range []int64{0, 5, 10, 15} {
		p.record(n)
	}

	next, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, int64(20), next)
}

func TestPredictor_TooFewAccesses(t *testing.T) {
	p := newPredictor(10)
	_, ok := p.next()
	assert.False(t, ok)

	p.record(3)
	_, ok = p.next()
	assert.False(t, ok)
}

func TestPredictor_ZeroStride(t *testing.T) {
	p := newPredictor(10)
	p.record(7)
	p.record(7)
	p.record(7)

	_, ok := p.next()
	assert.False(t, ok, "paused playback hammers one frame; nothing to prefetch")
}

func TestPredictor_NegativeStrideClampsAtZero(t *testing.T) {
	p := newPredictor(10)
	for _, n := range []int64{6, 4, 2, 0} {
		p.record(n)
	}

	// Reverse scrub beyond frame 0 has no valid prediction.
	_, ok := p.next()
	assert.False(t, ok)
}

func TestPredictor_SlidingWindow(t *testing.T) {
	p := newPredictor(3)
	for _, n := range []int64{100, 200, 1, 2, 3} {
		p.record(n)
	}

	// Only the last 3 accesses (1,2,3) remain in the window.
	next, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, int64(4), next)
}

func TestCachePredictNext_AdvisoryOnly(t *testing.T) {
	c, err := New(10_000, 10, "test-session", logger.NewNullLogger())
	require.NoError(t, err)

	// Sequential misses still build the access pattern.
	for n := int64(0); n < 5; n++ {
		c.Get(n)
	}

	next, ok := c.PredictNext()
	require.True(t, ok)
	assert.Equal(t, int64(5), next)
}
