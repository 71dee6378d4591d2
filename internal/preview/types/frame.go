package types

import (
	"context"
	"time"
)

// PixelFormat identifies the packed pixel layout of a frame buffer.
type PixelFormat uint8

const (
	PixelFormatBGR24 PixelFormat = iota // packed 8-bit BGR, 3 bytes per pixel
	PixelFormatRGBA                     // packed 8-bit RGBA, 4 bytes per pixel
	PixelFormatGray                     // single 8-bit channel
)

// String returns the string representation of PixelFormat
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGR24:
		return "bgr24"
	case PixelFormatRGBA:
		return "rgba"
	case PixelFormatGray:
		return "gray"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the packed size of one pixel in this format
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatBGR24:
		return 3
	case PixelFormatRGBA:
		return 4
	case PixelFormatGray:
		return 1
	default:
		return 0
	}
}

// Frame is a single decoded image. The pixel buffer is immutable once the
// frame is produced: filter stages allocate a new frame rather than writing
// through, so cached frames stay valid while a consumer still holds them.
type Frame struct {
	// Frame identity
	Number    int64         // Monotonic index within the source
	Timestamp time.Duration // Number / fps

	// Pixel data
	Pixels   []byte // Width * Height * Channels packed bytes
	Width    int
	Height   int
	Channels int
	Format   PixelFormat
}

// Size returns the byte size of the pixel buffer.
func (f *Frame) Size() int64 {
	return int64(len(f.Pixels))
}

// Valid reports whether the buffer length matches the declared geometry.
func (f *Frame) Valid() bool {
	if f.Width <= 0 || f.Height <= 0 || f.Channels <= 0 {
		return false
	}
	return len(f.Pixels) == f.Width*f.Height*f.Channels
}

// Clone returns a deep copy with its own pixel buffer.
func (f *Frame) Clone() *Frame {
	pixels := make([]byte, len(f.Pixels))
	copy(pixels, f.Pixels)

	clone := *f
	clone.Pixels = pixels
	return &clone
}

// FrameSource is the decoder contract the engine consumes. Implementations
// wrap a container/codec library and expose random-access decoding; they are
// expected to be safe for concurrent Decode calls (the prefetch pool decodes
// alongside the playback tick).
type FrameSource interface {
	// Decode produces the frame at the given index. The context is
	// canceled when playback stops or the source is reloaded.
	Decode(ctx context.Context, frameNumber int64) (*Frame, error)

	FPS() float64
	FrameCount() int64
	Width() int
	Height() int
}

// Duration returns the total duration of a source.
func Duration(src FrameSource) time.Duration {
	fps := src.FPS()
	if fps <= 0 {
		return 0
	}
	seconds := float64(src.FrameCount()) / fps
	return time.Duration(seconds * float64(time.Second))
}
