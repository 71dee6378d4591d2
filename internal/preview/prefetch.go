package preview

import (
	"context"
	"sync"

	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/preview/cache"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// prefetcher decodes predicted frames into the cache ahead of the playback
// tick. Workers are bounded and cancellation is immediate. Inserts go
// through the caller-supplied insert function rather than straight into the
// cache, so the engine can fence out a decode that completes after the
// source it belongs to has been replaced.
type prefetcher struct {
	cache      *cache.Cache
	source     types.FrameSource
	frameCount int64
	insert     func(frameNumber int64, frame *types.Frame)
	log        logger.Logger

	jobs   chan int64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newPrefetcher(frameCache *cache.Cache, source types.FrameSource, workers int,
	insert func(int64, *types.Frame), log logger.Logger) *prefetcher {
	if workers <= 0 {
		workers = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &prefetcher{
		cache:      frameCache,
		source:     source,
		frameCount: source.FrameCount(),
		insert:     insert,
		log:        log.WithField("component", "prefetcher"),
		jobs:       make(chan int64, workers*2),
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// hint asks the cache predictor for the next likely frame and queues it if
// it is in range and not already cached. Never blocks the caller.
func (p *prefetcher) hint() {
	if p.ctx.Err() != nil {
		return
	}
	next, ok := p.cache.PredictNext()
	if !ok || next < 0 || next >= p.frameCount {
		return
	}
	if p.cache.Peek(next) {
		return
	}
	select {
	case p.jobs <- next:
	default:
	}
}

func (p *prefetcher) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case frameNumber := <-p.jobs:
			p.fetch(frameNumber)
		}
	}
}

func (p *prefetcher) fetch(frameNumber int64) {
	if p.cache.Peek(frameNumber) {
		return
	}
	frame, err := p.source.Decode(p.ctx, frameNumber)
	if err != nil {
		if p.ctx.Err() == nil {
			p.log.WithError(err).WithField("frame_number", frameNumber).Debug("Prefetch decode failed")
		}
		return
	}
	p.insert(frameNumber, frame)
}

// close cancels in-flight decodes and waits for the workers to exit.
func (p *prefetcher) close() {
	p.cancel()
	p.wg.Wait()
}
