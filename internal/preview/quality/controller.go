// Package quality implements the closed-loop controller that trades render
// fidelity for throughput to hold the playback frame budget.
package quality

import (
	"sync"
	"time"

	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/metrics"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// Band multipliers around the frame budget. The wide band is the
// hysteresis keeping the controller from flapping between levels when the
// measured cost sits near the budget.
const (
	stepDownFactor = 1.5
	stepUpFactor   = 0.5

	// DefaultAlpha is the EMA smoothing factor for processing time.
	DefaultAlpha = 0.1
)

// Controller maintains an exponential moving average of per-frame
// processing time and steps the quality level at most one tier per
// observation in either direction.
type Controller struct {
	mu sync.Mutex

	level       types.QualityLevel
	frameBudget time.Duration

	avg     float64 // EMA of processing seconds
	alpha   float64
	samples uint64

	adaptive bool

	onChange func(types.QualityLevel)

	sessionID string
	logger    logger.Logger
}

// New creates a controller starting at the given level.
func New(initial types.QualityLevel, alpha float64, sessionID string, log logger.Logger) *Controller {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}

	c := &Controller{
		level:     initial,
		alpha:     alpha,
		adaptive:  true,
		sessionID: sessionID,
		logger:    log.WithField("component", "quality_controller"),
	}
	metrics.SetQualityLevel(sessionID, int(initial))
	return c
}

// SetFrameBudget sets the time allotted per frame (1/fps). Called at load.
func (c *Controller) SetFrameBudget(budget time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frameBudget = budget
}

// SetChangeCallback registers a callback invoked (outside the lock) when
// the level changes, adaptively or manually.
func (c *Controller) SetChangeCallback(callback func(types.QualityLevel)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onChange = callback
}

// Observe feeds one per-frame processing time into the moving average and
// applies at most a single quality step.
func (c *Controller) Observe(processingTime time.Duration) {
	c.mu.Lock()

	sample := processingTime.Seconds()
	if c.samples == 0 {
		c.avg = sample
	} else {
		c.avg = c.avg*(1-c.alpha) + sample*c.alpha
	}
	c.samples++

	if !c.adaptive || c.frameBudget <= 0 {
		c.mu.Unlock()
		return
	}

	budget := c.frameBudget.Seconds()
	old := c.level
	switch {
	case c.avg > budget*stepDownFactor:
		c.level = c.level.StepDown()
	case c.avg < budget*stepUpFactor:
		c.level = c.level.StepUp()
	}

	changed := c.level != old
	newLevel := c.level
	callback := c.onChange
	avg := c.avg
	c.mu.Unlock()

	if !changed {
		return
	}

	direction := "up"
	if newLevel < old {
		direction = "down"
	}
	metrics.RecordQualityAdjustment(c.sessionID, direction)
	metrics.SetQualityLevel(c.sessionID, int(newLevel))

	c.logger.WithFields(map[string]interface{}{
		"old_level": old.String(),
		"new_level": newLevel.String(),
		"avg_ms":    avg * 1000,
		"budget_ms": budget * 1000,
	}).Debug("Quality level adjusted")

	if callback != nil {
		callback(newLevel)
	}
}

// Level returns the current quality level.
func (c *Controller) Level() types.QualityLevel {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.level
}

// SetManual pins the level and suspends adaptive stepping until
// SetAdaptive(true) re-enables it.
func (c *Controller) SetManual(level types.QualityLevel) {
	c.mu.Lock()
	changed := level != c.level
	c.level = level
	c.adaptive = false
	callback := c.onChange
	c.mu.Unlock()

	metrics.SetQualityLevel(c.sessionID, int(level))
	if changed && callback != nil {
		callback(level)
	}
}

// SetAdaptive toggles closed-loop control.
func (c *Controller) SetAdaptive(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.adaptive = enabled
}

// Adaptive reports whether closed-loop control is active.
func (c *Controller) Adaptive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.adaptive
}

// AverageProcessingTime returns the current EMA.
func (c *Controller) AverageProcessingTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return time.Duration(c.avg * float64(time.Second))
}

// Reset clears the moving average, keeping level and adaptive mode.
// Called on source reload.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.avg = 0
	c.samples = 0
}
