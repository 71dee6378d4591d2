package cache

// predictor estimates the next frame access from the mean stride of the
// most recent accesses. Forward playback produces stride 1, scrubbing a
// larger or negative stride; either way the estimate only seeds prefetch.
type predictor struct {
	window  int
	history []int64
}

func newPredictor(window int) *predictor {
	return &predictor{
		window:  window,
		history: make([]int64, 0, window),
	}
}

func (p *predictor) record(frameNumber int64) {
	p.history = append(p.history, frameNumber)
	if len(p.history) > p.window {
		p.history = p.history[1:]
	}
}

func (p *predictor) next() (int64, bool) {
	if len(p.history) < 2 {
		return 0, false
	}

	var sum int64
	for i := 1; i < len(p.history); i++ {
		sum += p.history[i] - p.history[i-1]
	}
	stride := sum / int64(len(p.history)-1)
	if stride == 0 {
		// Repeated access to one frame; nothing useful to prefetch.
		return 0, false
	}

	predicted := p.history[len(p.history)-1] + stride
	if predicted < 0 {
		return 0, false
	}
	return predicted, true
}

func (p *predictor) reset() {
	p.history = p.history[:0]
}
