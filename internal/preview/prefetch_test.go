package preview

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/preview/cache"
	"github.com/zsiec/glimpse/internal/preview/source"
	"github.com/zsiec/glimpse/internal/preview/types"
)

func newPrefetchFixture(t *testing.T) (*cache.Cache, *prefetcher) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	adapted := logger.NewLogrusAdapter(logrus.NewEntry(log))

	frameCache, err := cache.New(10*1024*1024, 10, "test", adapted)
	require.NoError(t, err)

	src, err := source.NewSynthetic(8, 4, 25, 100)
	require.NoError(t, err)
	insert := func(frameNumber int64, frame *types.Frame) {
		_ = frameCache.Put(frameNumber, frame)
	}
	pf := newPrefetcher(frameCache, src, 2, insert, adapted)
	t.Cleanup(pf.close)
	return frameCache, pf
}

func TestPrefetcher_DecodesPredictedFrame(t *testing.T) {
	frameCache, pf := newPrefetchFixture(t)

	// Sequential access trains the stride predictor.
	for n := int64(0); n < 5; n++ {
		frameCache.Get(n)
	}
	next, ok := frameCache.PredictNext()
	require.True(t, ok)
	require.Equal(t, int64(5), next)

	pf.hint()

	assert.Eventually(t, func() bool {
		return frameCache.Peek(5)
	}, 2*time.Second, 5*time.Millisecond, "predicted frame lands in the cache")
}

func TestPrefetcher_NoPredictionNoWork(t *testing.T) {
	frameCache, pf := newPrefetchFixture(t)

	pf.hint()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, frameCache.Stats().Entries)
}

func TestPrefetcher_IgnoresOutOfRangePrediction(t *testing.T) {
	frameCache, pf := newPrefetchFixture(t)

	// Large strides predict past the end of the source.
	frameCache.Get(40)
	frameCache.Get(90)
	next, ok := frameCache.PredictNext()
	require.True(t, ok)
	require.GreaterOrEqual(t, next, pf.frameCount)

	pf.hint()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, frameCache.Stats().Entries)
}

func TestPrefetcher_HintAfterCloseIsSafe(t *testing.T) {
	frameCache, pf := newPrefetchFixture(t)
	pf.close()

	for n := int64(0); n < 5; n++ {
		frameCache.Get(n)
	}
	pf.hint()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, frameCache.Stats().Entries)
}
