package filter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/preview/types"
)

func newTestPipeline() *Pipeline {
	return NewPipeline("test-session", logger.NewNullLogger())
}

func solidFrame(w, h int, b, g, r byte) *types.Frame {
	pixels := make([]byte, w*h*3)
	for i := 0; i < len(pixels); i += 3 {
		pixels[i] = b
		pixels[i+1] = g
		pixels[i+2] = r
	}
	return &types.Frame{
		Number:   1,
		Pixels:   pixels,
		Width:    w,
		Height:   h,
		Channels: 3,
		Format:   types.PixelFormatBGR24,
	}
}

func TestApply_AllDisabledIsIdentity(t *testing.T) {
	p := newTestPipeline()
	frame := solidFrame(8, 8, 10, 20, 30)

	out := p.Apply(frame, types.QualityMedium)

	assert.Same(t, frame, out, "disabled pipeline must not allocate")
	assert.True(t, bytes.Equal(frame.Pixels, out.Pixels))
}

func TestApply_IdentityParamsDoNotAllocate(t *testing.T) {
	p := newTestPipeline()
	require.NoError(t, p.SetStage(StageBrightness, true, BrightnessParams{Offset: 0}))
	require.NoError(t, p.SetStage(StageContrast, true, ContrastParams{Gain: 1}))

	frame := solidFrame(8, 8, 10, 20, 30)
	out := p.Apply(frame, types.QualityHigh)

	assert.Same(t, frame, out)
}

func TestApply_NeverMutatesInput(t *testing.T) {
	p := newTestPipeline()
	require.NoError(t, p.SetStage(StageBrightness, true, BrightnessParams{Offset: 50}))

	frame := solidFrame(4, 4, 100, 100, 100)
	original := append([]byte(nil), frame.Pixels...)

	out := p.Apply(frame, types.QualityMedium)

	assert.NotSame(t, frame, out)
	assert.Equal(t, original, frame.Pixels, "cached frames must stay valid while referenced")
	assert.Equal(t, byte(150), out.Pixels[0])
}

func TestSetStage_ValidatesSynchronously(t *testing.T) {
	p := newTestPipeline()

	err := p.SetStage(StageBlur, true, BlurParams{Radius: -3})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFilter))

	err = p.SetStage(StageSharpen, true, SharpenParams{Intensity: 2})
	assert.Error(t, err)

	// Mismatched variant is rejected too.
	err = p.SetStage(StageBlur, true, SharpenParams{Intensity: 0.5})
	assert.Error(t, err)

	// Failed configuration leaves the stage untouched.
	for _, s := range p.Stages() {
		assert.False(t, s.Enabled)
	}
}

func TestSetStage_NilParamsUseDefaults(t *testing.T) {
	p := newTestPipeline()
	require.NoError(t, p.SetStage(StageBlur, true, nil))

	for _, s := range p.Stages() {
		if s.Kind == StageBlur {
			assert.True(t, s.Enabled)
			assert.Equal(t, BlurParams{Radius: 0}, s.Params)
		}
	}
}

func TestSetOrder(t *testing.T) {
	p := newTestPipeline()

	order := []StageKind{StageScale, StageSharpen, StageBlur, StageSaturation, StageContrast, StageBrightness}
	require.NoError(t, p.SetOrder(order))

	stages := p.Stages()
	for i, kind := range order {
		assert.Equal(t, kind, stages[i].Kind)
	}

	assert.Error(t, p.SetOrder([]StageKind{StageBlur}))
	assert.Error(t, p.SetOrder([]StageKind{StageBlur, StageBlur, StageBlur, StageBlur, StageBlur, StageBlur}))
}

func TestApply_QualityResize(t *testing.T) {
	p := newTestPipeline()
	frame := solidFrame(16, 8, 40, 80, 120)

	low := p.Apply(frame, types.QualityLow)
	assert.Equal(t, 8, low.Width)
	assert.Equal(t, 4, low.Height)
	assert.True(t, low.Valid())

	ultra := p.Apply(frame, types.QualityUltra)
	assert.Equal(t, 24, ultra.Width)
	assert.Equal(t, 12, ultra.Height)
	assert.True(t, ultra.Valid())

	for _, q := range []types.QualityLevel{types.QualityMedium, types.QualityHigh} {
		out := p.Apply(frame, q)
		assert.Equal(t, 16, out.Width)
		assert.Equal(t, 8, out.Height)
	}
}

func TestApply_MalformedFrameReturnsInput(t *testing.T) {
	p := newTestPipeline()
	require.NoError(t, p.SetStage(StageBrightness, true, BrightnessParams{Offset: 10}))

	bad := &types.Frame{
		Number:   3,
		Pixels:   make([]byte, 5), // does not match geometry
		Width:    4,
		Height:   4,
		Channels: 3,
	}

	out := p.Apply(bad, types.QualityMedium)
	assert.Same(t, bad, out, "a filter failure must never stop playback")
}

func TestAnyEnabled(t *testing.T) {
	p := newTestPipeline()
	assert.False(t, p.AnyEnabled())

	require.NoError(t, p.SetStage(StageContrast, true, ContrastParams{Gain: 1.2}))
	assert.True(t, p.AnyEnabled())

	p.DisableAll()
	assert.False(t, p.AnyEnabled())
}

func TestApply_ConcurrentConfigEdits(t *testing.T) {
	p := newTestPipeline()
	frame := solidFrame(16, 16, 1, 2, 3)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = p.SetStage(StageBrightness, i%2 == 0, BrightnessParams{Offset: float64(i % 100)})
		}
	}()

	for i := 0; i < 200; i++ {
		out := p.Apply(frame, types.QualityMedium)
		assert.True(t, out.Valid())
	}
	<-done
}
