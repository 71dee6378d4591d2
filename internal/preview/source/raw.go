// Package source provides FrameSource implementations: a raw packed-frame
// file reader and a synthetic generator for tests and the demo player.
package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// RawFileSource decodes frames from a file of contiguous packed BGR24
// frames, width*height*3 bytes each. ReadAt gives random access, so Decode
// is safe for concurrent use by the playback tick and the prefetch pool.
type RawFileSource struct {
	file *os.File

	fps        float64
	frameCount int64
	width      int
	height     int
	frameSize  int64
}

// OpenRaw opens a raw frame file. The frame count is derived from the file
// size; a trailing partial frame is an error.
func OpenRaw(path string, width, height int, fps float64) (*RawFileSource, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid frame dimensions %dx%d", width, height))
	}
	if fps <= 0 {
		return nil, errors.NewConfigError(fmt.Sprintf("invalid fps %v", fps))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "failed to open raw frame file")
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "failed to stat raw frame file")
	}

	frameSize := int64(width) * int64(height) * 3
	if info.Size()%frameSize != 0 {
		file.Close()
		return nil, errors.NewSourceError(
			fmt.Sprintf("file size %d is not a multiple of frame size %d", info.Size(), frameSize))
	}

	return &RawFileSource{
		file:       file,
		fps:        fps,
		frameCount: info.Size() / frameSize,
		width:      width,
		height:     height,
		frameSize:  frameSize,
	}, nil
}

// Decode reads the frame at the given index.
func (s *RawFileSource) Decode(ctx context.Context, frameNumber int64) (*types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frameNumber < 0 || frameNumber >= s.frameCount {
		return nil, errors.NewSourceError(
			fmt.Sprintf("frame %d out of range [0,%d)", frameNumber, s.frameCount))
	}

	pixels := make([]byte, s.frameSize)
	if _, err := s.file.ReadAt(pixels, frameNumber*s.frameSize); err != nil {
		return nil, errors.WrapSourceError(err, frameNumber)
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

func (s *RawFileSource) FPS() float64      { return s.fps }
func (s *RawFileSource) FrameCount() int64 { return s.frameCount }
func (s *RawFileSource) Width() int        { return s.width }
func (s *RawFileSource) Height() int       { return s.height }

// Close releases the underlying file.
func (s *RawFileSource) Close() error {
	return s.file.Close()
}

func frameTimestamp(frameNumber int64, fps float64) time.Duration {
	return time.Duration(float64(frameNumber) / fps * float64(time.Second))
}
