package preview

import (
	"context"
	"time"

	"github.com/zsiec/glimpse/internal/metrics"
	"github.com/zsiec/glimpse/internal/preview/cache"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// StatsSnapshot is an immutable view of engine activity since the previous
// snapshot, published on a fixed cadence independent of the playback rate.
type StatsSnapshot struct {
	SessionID       string              `json:"session_id"`
	State           types.PlaybackState `json:"state"`
	Position        time.Duration       `json:"position"`
	FramesDelivered int64               `json:"frames_delivered"`
	DeliveredFPS    float64             `json:"delivered_fps"`
	DroppedFrames   int64               `json:"dropped_frames"`
	Cache           cache.Stats         `json:"cache"`
	Quality         types.QualityLevel  `json:"quality"`
	MemoryBytes     int64               `json:"memory_bytes"`
	Timestamp       time.Time           `json:"timestamp"`
}

// statsLoop publishes snapshots until the engine closes. It runs on the
// real clock; the playback loop's injected clock only drives frame timing.
func (e *Engine) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(e.statsInterval)
	defer ticker.Stop()

	lastDelivered := e.delivered.Load()
	lastAt := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			total := e.delivered.Load()
			sinceLast := total - lastDelivered
			elapsed := now.Sub(lastAt).Seconds()
			lastDelivered = total
			lastAt = now

			fps := 0.0
			if elapsed > 0 {
				fps = float64(sinceLast) / elapsed
			}
			e.publishStats(e.snapshot(sinceLast, fps, now))
		}
	}
}

func (e *Engine) snapshot(sinceLast int64, fps float64, now time.Time) StatsSnapshot {
	cacheStats := e.cache.Stats()
	quality := e.controller.Level()

	e.mu.Lock()
	state := e.state
	position := e.positionLocked(e.clock.Now())
	e.mu.Unlock()

	metrics.SetDeliveredFPS(e.sessionID, fps)
	metrics.SetQualityLevel(e.sessionID, int(quality))

	return StatsSnapshot{
		SessionID:       e.sessionID,
		State:           state,
		Position:        position,
		FramesDelivered: sinceLast,
		DeliveredFPS:    fps,
		DroppedFrames:   e.dropped.Load(),
		Cache:           cacheStats,
		Quality:         quality,
		MemoryBytes:     cacheStats.CurrentBytes + e.lastFrameBytes.Load(),
		Timestamp:       now,
	}
}

func (e *Engine) publishStats(snap StatsSnapshot) {
	e.mu.Lock()
	callback := e.onStats
	e.mu.Unlock()
	if callback != nil {
		callback(snap)
	}
}
