package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheCounters(t *testing.T) {
	session := "test-session-cache"

	initialHits := testutil.ToFloat64(cacheHitsTotal.WithLabelValues(session))
	initialMisses := testutil.ToFloat64(cacheMissesTotal.WithLabelValues(session))

	RecordCacheHit(session)
	RecordCacheHit(session)
	RecordCacheMiss(session)

	assert.Equal(t, initialHits+2, testutil.ToFloat64(cacheHitsTotal.WithLabelValues(session)))
	assert.Equal(t, initialMisses+1, testutil.ToFloat64(cacheMissesTotal.WithLabelValues(session)))
}

func TestEvictionAndBytes(t *testing.T) {
	session := "test-session-evict"

	initial := testutil.ToFloat64(cacheEvictionsTotal.WithLabelValues(session))
	RecordEviction(session, 3)
	assert.Equal(t, initial+3, testutil.ToFloat64(cacheEvictionsTotal.WithLabelValues(session)))

	SetCacheBytes(session, 600_000)
	assert.Equal(t, float64(600_000), testutil.ToFloat64(cacheBytes.WithLabelValues(session)))
}

func TestPlaybackCounters(t *testing.T) {
	session := "test-session-playback"

	initialDelivered := testutil.ToFloat64(framesDeliveredTotal.WithLabelValues(session))
	initialDropped := testutil.ToFloat64(framesDroppedTotal.WithLabelValues(session, "decode_failure"))

	RecordFrameDelivered(session)
	RecordFrameDropped(session, "decode_failure")
	RecordDecodeError(session)

	assert.Equal(t, initialDelivered+1, testutil.ToFloat64(framesDeliveredTotal.WithLabelValues(session)))
	assert.Equal(t, initialDropped+1, testutil.ToFloat64(framesDroppedTotal.WithLabelValues(session, "decode_failure")))

	SetDeliveredFPS(session, 29.7)
	assert.Equal(t, 29.7, testutil.ToFloat64(deliveredFPS.WithLabelValues(session)))
}

func TestQualityMetrics(t *testing.T) {
	session := "test-session-quality"

	SetQualityLevel(session, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(qualityLevel.WithLabelValues(session)))

	initial := testutil.ToFloat64(qualityAdjustmentsTotal.WithLabelValues(session, "down"))
	RecordQualityAdjustment(session, "down")
	assert.Equal(t, initial+1, testutil.ToFloat64(qualityAdjustmentsTotal.WithLabelValues(session, "down")))
}

func TestCleanupSession(t *testing.T) {
	session := "test-session-cleanup"

	RecordCacheHit(session)
	SetQualityLevel(session, 1)
	CleanupSession(session)

	// After cleanup the series restart from zero.
	assert.Equal(t, float64(0), testutil.ToFloat64(cacheHitsTotal.WithLabelValues(session)))
	assert.Equal(t, float64(0), testutil.ToFloat64(qualityLevel.WithLabelValues(session)))
}
