package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/preview/types"
)

func writeRawFile(t *testing.T, frames int, w, h int) string {
	t.Helper()
	frameSize := w * h * 3
	data := make([]byte, frames*frameSize)
	for f := 0; f < frames; f++ {
		for i := 0; i < frameSize; i++ {
			data[f*frameSize+i] = byte(f)
		}
	}
	path := filepath.Join(t.TempDir(), "frames.raw")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOpenRaw_Metadata(t *testing.T) {
	path := writeRawFile(t, 300, 4, 2)

	src, err := OpenRaw(path, 4, 2, 30)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(300), src.FrameCount())
	assert.Equal(t, 30.0, src.FPS())
	assert.Equal(t, 4, src.Width())
	assert.Equal(t, 2, src.Height())
	assert.Equal(t, 10*time.Second, types.Duration(src))
}

func TestOpenRaw_Errors(t *testing.T) {
	path := writeRawFile(t, 2, 4, 2)

	_, err := OpenRaw(path, 0, 2, 30)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))

	_, err = OpenRaw(path, 4, 2, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))

	_, err = OpenRaw(filepath.Join(t.TempDir(), "missing.raw"), 4, 2, 30)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSource))

	// Wrong geometry leaves a partial trailing frame.
	_, err = OpenRaw(path, 5, 2, 30)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSource))
}

func TestRawDecode(t *testing.T) {
	path := writeRawFile(t, 10, 4, 2)
	src, err := OpenRaw(path, 4, 2, 25)
	require.NoError(t, err)
	defer src.Close()

	frame, err := src.Decode(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), frame.Number)
	assert.Equal(t, byte(7), frame.Pixels[0], "frame content keyed by index")
	assert.Equal(t, 280*time.Millisecond, frame.Timestamp)
	assert.True(t, frame.Valid())

	_, err = src.Decode(context.Background(), 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSource))

	_, err = src.Decode(context.Background(), -1)
	assert.Error(t, err)
}

func TestRawDecode_CanceledContext(t *testing.T) {
	path := writeRawFile(t, 2, 4, 2)
	src, err := OpenRaw(path, 4, 2, 25)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Decode(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthetic_Decode(t *testing.T) {
	src, err := NewSynthetic(8, 4, 30, 100)
	require.NoError(t, err)

	a, err := src.Decode(context.Background(), 1)
	require.NoError(t, err)
	b, err := src.Decode(context.Background(), 2)
	require.NoError(t, err)

	assert.True(t, a.Valid())
	assert.NotEqual(t, a.Pixels, b.Pixels, "consecutive frames differ")
	assert.Equal(t, int64(2), src.Decodes())

	_, err = src.Decode(context.Background(), 100)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSource))
}

func TestSynthetic_FailureInjection(t *testing.T) {
	src, err := NewSynthetic(4, 4, 30, 100)
	require.NoError(t, err)
	src.FailEvery = 5

	_, err = src.Decode(context.Background(), 5)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSource))

	// Frame 0 is exempt so playback can always start.
	_, err = src.Decode(context.Background(), 0)
	assert.NoError(t, err)
}

func TestSynthetic_DecodeDelayHonorsCancel(t *testing.T) {
	src, err := NewSynthetic(4, 4, 30, 100)
	require.NoError(t, err)
	src.DecodeDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = src.Decode(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSynthetic_InvalidConfig(t *testing.T) {
	_, err := NewSynthetic(0, 4, 30, 10)
	assert.Error(t, err)
	_, err = NewSynthetic(4, 4, -1, 10)
	assert.Error(t, err)
	_, err = NewSynthetic(4, 4, 30, 0)
	assert.Error(t, err)
}
