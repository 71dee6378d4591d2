package preview

import (
	"context"
	"time"

	"github.com/zsiec/glimpse/internal/metrics"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// loopParams are the per-playback values captured at Play time so the tick
// loop never races Load swapping the source underneath it.
type loopParams struct {
	source     types.FrameSource
	fps        float64
	frameCount int64
	interval   time.Duration
	prefetch   *prefetcher
}

// runLoop is the playback scheduler. It runs on its own goroutine only
// while Playing and exits when its context is canceled by Pause, Stop,
// Load or Close. Per-frame failures never escape the loop.
func (e *Engine) runLoop(ctx context.Context, gen int64, loop loopParams) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.handler.HandlePanic(recovered)
		}
	}()

	for ctx.Err() == nil {
		e.tick(ctx, gen, loop)
	}
}

// tick performs one scheduler iteration: derive the wanted frame from the
// wall clock, fetch it from cache or decoder, run the filter pipeline,
// publish, feed the quality controller, then sleep out the frame interval.
// Falling behind schedule skips frames naturally because the next tick
// recomputes the wanted frame from the clock; there is no catch-up replay.
func (e *Engine) tick(ctx context.Context, gen int64, loop loopParams) {
	tickStart := e.clock.Now()

	e.mu.Lock()
	if e.generation != gen || e.state != types.StatePlaying {
		e.mu.Unlock()
		return
	}
	pos := e.positionLocked(tickStart)
	want := wantFrameAt(pos, loop.fps)
	if want >= loop.frameCount {
		want = loop.frameCount - 1
	}
	if want == e.lastDelivered {
		atEnd := want == loop.frameCount-1 && pos >= e.duration
		e.mu.Unlock()
		if atEnd {
			e.pauseAtEnd(gen)
			return
		}
		wait := frameTime(want+1, loop.fps) - pos
		if wait <= 0 {
			wait = loop.interval / 4
		}
		e.clock.Sleep(ctx, wait)
		return
	}
	e.mu.Unlock()

	frame, ok := e.cache.Get(want)
	if !ok {
		decoded, err := loop.source.Decode(ctx, want)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.handleDecodeError(err, want, gen)
			e.clock.Sleep(ctx, loop.interval-e.clock.Now().Sub(tickStart))
			return
		}
		frame = decoded
		e.cachePut(gen, want, frame)
	}

	out := frame
	level := e.controller.Level()
	if e.pipeline.AnyEnabled() || level == types.QualityLow || level == types.QualityUltra {
		out = e.pipeline.Apply(frame, level)
	}

	processing := e.clock.Now().Sub(tickStart)
	e.deliver(out, want, gen)
	e.controller.Observe(processing)
	metrics.ObserveProcessingTime(e.sessionID, processing.Seconds())
	loop.prefetch.hint()

	e.clock.Sleep(ctx, loop.interval-e.clock.Now().Sub(tickStart))
}

// deliver publishes a frame to the consumer callback. Delivery is fenced
// by the generation counter so a control call that completed concurrently
// (pause, stop, reload) suppresses the in-flight frame.
func (e *Engine) deliver(frame *types.Frame, frameNumber int64, gen int64) {
	e.mu.Lock()
	if e.generation != gen || e.state != types.StatePlaying {
		e.mu.Unlock()
		return
	}
	e.lastDelivered = frameNumber
	callback := e.onFrame
	e.mu.Unlock()

	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()
	if e.generation != gen {
		return
	}
	if callback != nil {
		callback(frame)
	}
	e.delivered.Add(1)
	e.lastFrameBytes.Store(frame.Size())
	metrics.RecordFrameDelivered(e.sessionID)
}

// handleDecodeError records a failed decode and advances past the frame so
// the loop never retries the same failing frame in a tight spin.
func (e *Engine) handleDecodeError(err error, frameNumber int64, gen int64) {
	e.mu.Lock()
	if e.generation == gen {
		e.lastDelivered = frameNumber
	}
	callback := e.onError
	e.mu.Unlock()

	e.dropped.Add(1)
	metrics.RecordDecodeError(e.sessionID)
	metrics.RecordFrameDropped(e.sessionID, "decode_error")

	appErr := e.handler.Handle(err)
	if callback != nil && e.errLimiter.Allow() {
		callback(string(appErr.Type), appErr.Message)
	}
}

// pauseAtEnd transitions Playing→Paused when the last frame has been
// delivered and the clock has run past the end of the source.
func (e *Engine) pauseAtEnd(gen int64) {
	e.mu.Lock()
	if e.generation != gen || e.state != types.StatePlaying {
		e.mu.Unlock()
		return
	}
	e.baseMedia = e.duration
	e.bumpGenerationLocked()
	e.cancelLoopLocked()
	e.state = types.StatePaused
	callback := e.onStateChange
	e.mu.Unlock()

	e.log.Info("Reached end of source")
	if callback != nil {
		callback(types.StatePaused)
	}
}
