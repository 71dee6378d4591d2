package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Frame cache metrics
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_cache_hits_total",
		Help: "Total frame cache hits",
	}, []string{"session_id"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_cache_misses_total",
		Help: "Total frame cache misses",
	}, []string{"session_id"})

	cacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_cache_evictions_total",
		Help: "Total frames evicted from the cache",
	}, []string{"session_id"})

	cacheBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "preview_cache_bytes",
		Help: "Current bytes held by the frame cache",
	}, []string{"session_id"})

	// Playback metrics
	framesDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_frames_delivered_total",
		Help: "Total frames published to the consumer",
	}, []string{"session_id"})

	framesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_frames_dropped_total",
		Help: "Total frames skipped due to schedule slip or decode failure",
	}, []string{"session_id", "reason"})

	decodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_decode_errors_total",
		Help: "Total frame decode failures",
	}, []string{"session_id"})

	frameProcessingSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "preview_frame_processing_seconds",
		Help:    "Wall-clock time to fetch, filter and publish one frame",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~2s
	}, []string{"session_id"})

	deliveredFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "preview_delivered_fps",
		Help: "Actual frames per second delivered over the last stats interval",
	}, []string{"session_id"})

	// Adaptive quality metrics
	qualityLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "preview_quality_level",
		Help: "Current render quality level (0=low, 1=medium, 2=high, 3=ultra)",
	}, []string{"session_id"})

	qualityAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_quality_adjustments_total",
		Help: "Total adaptive quality level changes",
	}, []string{"session_id", "direction"})

	// Filter metrics
	filterFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_filter_failures_total",
		Help: "Total filter stage failures bypassed during playback",
	}, []string{"session_id", "stage"})
)

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit(sessionID string) {
	cacheHitsTotal.WithLabelValues(sessionID).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss(sessionID string) {
	cacheMissesTotal.WithLabelValues(sessionID).Inc()
}

// RecordEviction adds evicted frames to the eviction counter.
func RecordEviction(sessionID string, count int) {
	cacheEvictionsTotal.WithLabelValues(sessionID).Add(float64(count))
}

// SetCacheBytes sets the current cache memory footprint.
func SetCacheBytes(sessionID string, bytes int64) {
	cacheBytes.WithLabelValues(sessionID).Set(float64(bytes))
}

// RecordFrameDelivered increments the delivered frame counter.
func RecordFrameDelivered(sessionID string) {
	framesDeliveredTotal.WithLabelValues(sessionID).Inc()
}

// RecordFrameDropped increments the dropped frame counter for a reason.
func RecordFrameDropped(sessionID, reason string) {
	framesDroppedTotal.WithLabelValues(sessionID, reason).Inc()
}

// RecordDecodeError increments the decode failure counter.
func RecordDecodeError(sessionID string) {
	decodeErrorsTotal.WithLabelValues(sessionID).Inc()
}

// ObserveProcessingTime records per-frame processing time.
func ObserveProcessingTime(sessionID string, seconds float64) {
	frameProcessingSeconds.WithLabelValues(sessionID).Observe(seconds)
}

// SetDeliveredFPS sets the measured delivery rate.
func SetDeliveredFPS(sessionID string, fps float64) {
	deliveredFPS.WithLabelValues(sessionID).Set(fps)
}

// SetQualityLevel sets the current quality level gauge.
func SetQualityLevel(sessionID string, level int) {
	qualityLevel.WithLabelValues(sessionID).Set(float64(level))
}

// RecordQualityAdjustment counts an adaptive quality step ("up" or "down").
func RecordQualityAdjustment(sessionID, direction string) {
	qualityAdjustmentsTotal.WithLabelValues(sessionID, direction).Inc()
}

// RecordFilterFailure counts a bypassed filter stage.
func RecordFilterFailure(sessionID, stage string) {
	filterFailuresTotal.WithLabelValues(sessionID, stage).Inc()
}

// CleanupSession removes all metrics for a closed playback session.
func CleanupSession(sessionID string) {
	labels := prometheus.Labels{"session_id": sessionID}
	cacheHitsTotal.DeletePartialMatch(labels)
	cacheMissesTotal.DeletePartialMatch(labels)
	cacheEvictionsTotal.DeletePartialMatch(labels)
	cacheBytes.DeletePartialMatch(labels)
	framesDeliveredTotal.DeletePartialMatch(labels)
	framesDroppedTotal.DeletePartialMatch(labels)
	decodeErrorsTotal.DeletePartialMatch(labels)
	frameProcessingSeconds.DeletePartialMatch(labels)
	deliveredFPS.DeletePartialMatch(labels)
	qualityLevel.DeletePartialMatch(labels)
	qualityAdjustmentsTotal.DeletePartialMatch(labels)
	filterFailuresTotal.DeletePartialMatch(labels)
}
