package source

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// SyntheticSource generates deterministic gradient frames. It backs the
// demo player and tests without needing media on disk. DecodeDelay
// simulates decoder cost; FailEvery injects a decode failure on every Nth
// frame to exercise the skip path.
type SyntheticSource struct {
	fps        float64
	frameCount int64
	width      int
	height     int

	// DecodeDelay is slept (context-aware) on every decode when non-zero.
	DecodeDelay time.Duration

	// FailEvery makes decode fail for frame numbers divisible by it.
	FailEvery int64

	decodes atomic.Int64
}

// NewSynthetic creates a synthetic frame source.
func NewSynthetic(width, height int, fps float64, frameCount int64) (*SyntheticSource, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid frame dimensions %dx%d", width, height))
	}
	if fps <= 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid fps %v", fps))
	}
	if frameCount <= 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid frame count %d", frameCount))
	}

	return &SyntheticSource{
		fps:        fps,
		frameCount: frameCount,
		width:      width,
		height:     height,
	}, nil
}

// Decode produces a gradient frame whose pattern shifts with the frame
// number, so consecutive frames are distinguishable in tests.
func (s *SyntheticSource) Decode(ctx context.Context, frameNumber int64) (*types.Frame, error) {
	if frameNumber < 0 || frameNumber >= s.frameCount {
		return nil, errors.NewSourceError(
			fmt.Sprintf("frame %d out of range [0,%d)", frameNumber, s.frameCount))
	}
	if s.FailEvery > 0 && frameNumber%s.FailEvery == 0 && frameNumber > 0 {
		return nil, errors.WrapSourceError(fmt.Errorf("injected failure"), frameNumber)
	}

	if s.DecodeDelay > 0 {
		timer := time.NewTimer(s.DecodeDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.decodes.Add(1)

	pixels := make([]byte, s.width*s.height*3)
	shift := byte(frameNumber)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := (y*s.width + x) * 3
			pixels[i+0] = byte(x) + shift
			pixels[i+1] = byte(y) + shift
			pixels[i+2] = shift
		}
	}

	return &types.Frame{
		Number:    frameNumber,
		Timestamp: frameTimestamp(frameNumber, s.fps),
		Pixels:    pixels,
		Width:     s.width,
		Height:    s.height,
		Channels:  3,
		Format:    types.PixelFormatBGR24,
	}, nil
}

func (s *SyntheticSource) FPS() float64      { return s.fps }
func (s *SyntheticSource) FrameCount() int64 { return s.frameCount }
func (s *SyntheticSource) Width() int        { return s.width }
func (s *SyntheticSource) Height() int       { return s.height }

// Decodes returns how many frames were successfully decoded.
func (s *SyntheticSource) Decodes() int64 {
	return s.decodes.Load()
}
