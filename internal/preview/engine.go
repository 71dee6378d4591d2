// Package preview implements the real-time playback engine: a byte-budgeted
// frame cache with stride prediction, a filter pipeline, an adaptive quality
// controller, and the playback scheduler that ties them together. Consumers
// embed an Engine and receive frames and stats through registered callbacks.
package preview

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/zsiec/glimpse/internal/config"
	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/metrics"
	"github.com/zsiec/glimpse/internal/preview/cache"
	"github.com/zsiec/glimpse/internal/preview/filter"
	"github.com/zsiec/glimpse/internal/preview/quality"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// Engine is the playback facade. One Engine drives one source at a time;
// a host embedding several previews creates one Engine per pane, each with
// its own session id on logs and metrics.
type Engine struct {
	sessionID string
	log       logger.Logger
	handler   *errors.Handler
	clock     Clock

	cache      *cache.Cache
	pipeline   *filter.Pipeline
	controller *quality.Controller

	filtersEnabled  bool
	maxFPS          float64
	statsInterval   time.Duration
	prefetchWorkers int
	errLimiter      *rate.Limiter

	rootCtx    context.Context
	rootCancel context.CancelFunc

	// mu guards playback state. generation fences frame delivery: it is
	// bumped (under mu and deliverMu) by Load, Pause, Stop and Close so an
	// in-flight tick can never publish past a completed control call.
	mu            sync.Mutex
	deliverMu     sync.Mutex
	generation    int64
	state         types.PlaybackState
	source        types.FrameSource
	fps           float64
	frameCount    int64
	frameInterval time.Duration
	duration      time.Duration
	baseMedia     time.Duration
	baseWall      time.Time
	lastDelivered int64
	loopCancel    context.CancelFunc
	prefetch      *prefetcher
	closed        bool

	onFrame       func(*types.Frame)
	onStats       func(StatsSnapshot)
	onError       func(kind, message string)
	onStateChange func(types.PlaybackState)

	delivered      atomic.Int64
	dropped        atomic.Int64
	lastFrameBytes atomic.Int64
}

// New creates an Engine from a validated configuration.
func New(cfg *config.Config, log *logrus.Logger) (*Engine, error) {
	return newEngine(cfg, log, systemClock{})
}

func newEngine(cfg *config.Config, log *logrus.Logger, clock Clock) (*Engine, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("configuration is required")
	}
	if err := cfg.Preview.Validate(); err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	entry := logger.WithSession(log, sessionID).WithField("component", "engine")
	engineLog := logger.NewLogrusAdapter(entry)

	initial, ok := types.ParseQualityLevel(cfg.Preview.Quality.Initial)
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("unknown quality level %q", cfg.Preview.Quality.Initial))
	}

	frameCache, err := cache.New(cfg.Preview.Cache.MaxBytes, cfg.Preview.Cache.PredictorWindow, sessionID, engineLog)
	if err != nil {
		return nil, err
	}

	controller := quality.New(initial, cfg.Preview.Quality.Alpha, sessionID, engineLog)
	controller.SetAdaptive(cfg.Preview.Quality.Adaptive)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	e := &Engine{
		sessionID:       sessionID,
		log:             engineLog,
		handler:         errors.NewHandler(entry),
		clock:           clock,
		cache:           frameCache,
		pipeline:        filter.NewPipeline(sessionID, engineLog),
		controller:      controller,
		filtersEnabled:  cfg.Preview.Filters.Enabled,
		maxFPS:          cfg.Preview.Scheduler.MaxFPS,
		statsInterval:   cfg.Preview.Scheduler.StatsInterval,
		prefetchWorkers: cfg.Preview.Cache.PrefetchWorkers,
		errLimiter:      rate.NewLimiter(rate.Every(cfg.Preview.Scheduler.ErrorInterval), cfg.Preview.Scheduler.ErrorBurst),
		rootCtx:         rootCtx,
		rootCancel:      rootCancel,
		state:           types.StateStopped,
		lastDelivered:   -1,
	}

	controller.SetChangeCallback(func(level types.QualityLevel) {
		engineLog.WithField("quality", level.String()).Info("Quality level changed")
	})

	go e.statsLoop(rootCtx)

	e.log.Info("Preview engine created")
	return e, nil
}

// SessionID returns the unique id attached to this engine's logs, metrics
// and stats snapshots.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// OnFrame registers the consumer callback for delivered frames. The
// callback runs on the playback goroutine and must not call back into
// engine control methods.
func (e *Engine) OnFrame(callback func(*types.Frame)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFrame = callback
}

// OnStats registers the callback for periodic stats snapshots.
func (e *Engine) OnStats(callback func(StatsSnapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStats = callback
}

// OnError registers the callback for runtime (non-configuration) errors.
// Calls are rate limited so an error burst surfaces its first occurrences
// without flooding the consumer.
func (e *Engine) OnError(callback func(kind, message string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = callback
}

// OnStateChange registers the callback for playback state transitions.
func (e *Engine) OnStateChange(callback func(types.PlaybackState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStateChange = callback
}

// Load attaches a new frame source. Any current playback stops, the cache
// and quality controller reset, and position returns to zero. Once Load
// returns, no frame from the previous source will be delivered.
func (e *Engine) Load(source types.FrameSource) error {
	if source == nil {
		return errors.NewConfigError("frame source is required")
	}
	if fps := source.FPS(); fps <= 0 || fps > e.maxFPS {
		return errors.NewConfigError(fmt.Sprintf("source fps %v outside (0, %v]", fps, e.maxFPS))
	}
	if source.FrameCount() <= 0 {
		return errors.NewConfigError("source has no frames")
	}
	if source.Width() <= 0 || source.Height() <= 0 {
		return errors.NewConfigError(fmt.Sprintf("invalid source dimensions %dx%d", source.Width(), source.Height()))
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.NewStateError("engine is closed")
	}
	e.bumpGenerationLocked()
	e.cancelLoopLocked()
	oldPrefetch := e.prefetch

	fps := source.FPS()
	e.source = source
	e.fps = fps
	e.frameCount = source.FrameCount()
	e.frameInterval = time.Duration(float64(time.Second) / fps)
	e.duration = time.Duration(float64(e.frameCount) / fps * float64(time.Second))
	e.baseMedia = 0
	e.baseWall = e.clock.Now()
	e.lastDelivered = -1

	e.cache.Clear()
	e.controller.Reset()
	e.controller.SetFrameBudget(e.frameInterval)
	gen := e.generation
	e.prefetch = newPrefetcher(e.cache, source, e.prefetchWorkers,
		func(frameNumber int64, frame *types.Frame) { e.cachePut(gen, frameNumber, frame) }, e.log)

	changed := e.state != types.StateStopped
	e.state = types.StateStopped
	callback := e.onStateChange
	e.mu.Unlock()

	if oldPrefetch != nil {
		oldPrefetch.close()
	}
	if changed && callback != nil {
		callback(types.StateStopped)
	}

	e.log.WithFields(map[string]interface{}{
		"fps":         fps,
		"frame_count": source.FrameCount(),
		"width":       source.Width(),
		"height":      source.Height(),
	}).Info("Source loaded")
	return nil
}

// Play starts (or resumes) playback from the current position.
func (e *Engine) Play() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.NewStateError("engine is closed")
	}
	if e.source == nil {
		e.mu.Unlock()
		return errors.NewStateError("no source loaded")
	}
	if !e.state.CanTransition(types.StatePlaying) {
		err := errors.NewStateError(fmt.Sprintf("cannot play from state %s", e.state))
		e.mu.Unlock()
		return err
	}

	e.baseWall = e.clock.Now()
	e.state = types.StatePlaying
	e.startLoopLocked()
	callback := e.onStateChange
	e.mu.Unlock()

	if callback != nil {
		callback(types.StatePlaying)
	}
	return nil
}

// startLoopLocked spawns a playback loop goroutine pinned to the current
// generation and source. Callers hold e.mu.
func (e *Engine) startLoopLocked() {
	ctx, cancel := context.WithCancel(e.rootCtx)
	e.loopCancel = cancel

	loop := loopParams{
		source:     e.source,
		fps:        e.fps,
		frameCount: e.frameCount,
		interval:   e.frameInterval,
		prefetch:   e.prefetch,
	}
	go e.runLoop(ctx, e.generation, loop)
}

// Pause freezes playback at the current position.
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.state != types.StatePlaying {
		err := errors.NewStateError(fmt.Sprintf("cannot pause from state %s", e.state))
		e.mu.Unlock()
		return err
	}
	e.baseMedia = e.positionLocked(e.clock.Now())
	e.bumpGenerationLocked()
	e.cancelLoopLocked()
	e.state = types.StatePaused
	callback := e.onStateChange
	e.mu.Unlock()

	if callback != nil {
		callback(types.StatePaused)
	}
	return nil
}

// Resume continues paused playback.
func (e *Engine) Resume() error {
	e.mu.Lock()
	paused := e.state == types.StatePaused
	e.mu.Unlock()
	if !paused {
		return errors.NewStateError("engine is not paused")
	}
	return e.Play()
}

// Stop halts playback and resets position to zero. The cache is kept.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.NewStateError("engine is closed")
	}
	if e.state == types.StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.bumpGenerationLocked()
	e.cancelLoopLocked()
	e.baseMedia = 0
	e.lastDelivered = -1
	e.state = types.StateStopped
	callback := e.onStateChange
	e.mu.Unlock()

	if callback != nil {
		callback(types.StateStopped)
	}
	return nil
}

// Seek jumps to the given position in seconds, clamped to the source
// duration. The frame at the new position is redelivered even if it is
// numerically the frame already on screen. The generation bump fences out
// any tick still in flight for the pre-seek position, so it can neither
// publish nor overwrite the forced-redelivery marker after Seek returns.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == nil {
		return errors.NewStateError("no source loaded")
	}
	pos := time.Duration(seconds * float64(time.Second))
	if pos < 0 {
		pos = 0
	}
	if pos > e.duration {
		pos = e.duration
	}
	e.baseMedia = pos
	e.baseWall = e.clock.Now()
	e.lastDelivered = -1
	if e.state == types.StatePlaying {
		e.bumpGenerationLocked()
		e.cancelLoopLocked()
		e.startLoopLocked()
	}
	return nil
}

// SetStage configures a filter stage. Invalid parameters are rejected here,
// before they can reach the playback loop.
func (e *Engine) SetStage(kind filter.StageKind, enabled bool, params filter.Params) error {
	if !e.filtersEnabled {
		return errors.NewConfigError("filter pipeline is disabled by configuration")
	}
	return e.pipeline.SetStage(kind, enabled, params)
}

// SetQuality pins the quality level manually, suspending adaptation.
func (e *Engine) SetQuality(level types.QualityLevel) error {
	if level < types.QualityLow || level > types.QualityUltra {
		return errors.NewConfigError(fmt.Sprintf("unknown quality level %d", level))
	}
	e.controller.SetManual(level)
	return nil
}

// SetAdaptive enables or disables closed-loop quality adaptation.
func (e *Engine) SetAdaptive(enabled bool) {
	e.controller.SetAdaptive(enabled)
}

// SetCacheBudget re-budgets the frame cache at runtime.
func (e *Engine) SetCacheBudget(bytes int64) error {
	return e.cache.SetBudget(bytes)
}

// State returns the current playback state.
func (e *Engine) State() types.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Position returns the current playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked(e.clock.Now())
}

// Quality returns the current quality level.
func (e *Engine) Quality() types.QualityLevel {
	return e.controller.Level()
}

// CacheStats returns a snapshot of cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Close shuts the engine down and releases its metrics series. The engine
// cannot be reused afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.bumpGenerationLocked()
	e.cancelLoopLocked()
	pf := e.prefetch
	e.prefetch = nil
	e.state = types.StateStopped
	e.mu.Unlock()

	e.rootCancel()
	if pf != nil {
		pf.close()
	}
	metrics.CleanupSession(e.sessionID)
	e.log.Info("Preview engine closed")
	return nil
}

// cachePut inserts a decoded frame unless the engine has moved on (reload,
// pause, stop) since gen was captured. Holding e.mu across the check and
// the insert makes the fence atomic against Load clearing the cache, so a
// decode that outlives its source — a decoder blocked past context
// cancellation included — can never poison the next source's cache.
func (e *Engine) cachePut(gen int64, frameNumber int64, frame *types.Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen {
		return
	}
	if err := e.cache.Put(frameNumber, frame); err != nil {
		// Oversized frame: it still gets delivered, just uncached.
		e.log.WithError(err).WithField("frame_number", frameNumber).Debug("Frame not cached")
	}
}

// positionLocked computes the media position at the given wall-clock time.
// Callers hold e.mu.
func (e *Engine) positionLocked(now time.Time) time.Duration {
	pos := e.baseMedia
	if e.state == types.StatePlaying {
		pos += now.Sub(e.baseWall)
	}
	if pos < 0 {
		pos = 0
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

func (e *Engine) bumpGenerationLocked() {
	e.deliverMu.Lock()
	e.generation++
	e.deliverMu.Unlock()
}

func (e *Engine) cancelLoopLocked() {
	if e.loopCancel != nil {
		e.loopCancel()
		e.loopCancel = nil
	}
}

func frameTime(frameNumber int64, fps float64) time.Duration {
	return time.Duration(float64(frameNumber) / fps * float64(time.Second))
}

func wantFrameAt(pos time.Duration, fps float64) int64 {
	return int64(math.Floor(pos.Seconds() * fps))
}
