// Package filter implements the ordered image-transform pipeline applied to
// each frame before delivery, including the quality-level resize step.
package filter

import (
	"fmt"

	"github.com/zsiec/glimpse/internal/errors"
)

// StageKind identifies a filter stage.
type StageKind uint8

const (
	StageBrightness StageKind = iota
	StageContrast
	StageSaturation
	StageBlur
	StageSharpen
	StageScale
)

// String returns the string representation of StageKind
func (k StageKind) String() string {
	switch k {
	case StageBrightness:
		return "brightness"
	case StageContrast:
		return "contrast"
	case StageSaturation:
		return "saturation"
	case StageBlur:
		return "blur"
	case StageSharpen:
		return "sharpen"
	case StageScale:
		return "scale"
	default:
		return "unknown"
	}
}

// ParseStageKind converts a stage name to its kind.
func ParseStageKind(name string) (StageKind, bool) {
	switch name {
	case "brightness":
		return StageBrightness, true
	case "contrast":
		return StageContrast, true
	case "saturation":
		return StageSaturation, true
	case "blur":
		return StageBlur, true
	case "sharpen":
		return StageSharpen, true
	case "scale":
		return StageScale, true
	default:
		return 0, false
	}
}

// Params is the tagged parameter variant for a stage kind. Validation runs
// when a stage is configured so malformed parameters are rejected before
// they ever reach the playback loop; Clamped is the apply-time fallback
// that coerces out-of-range values instead of failing a frame.
type Params interface {
	Kind() StageKind
	Validate() error
	Clamped() Params
}

// BrightnessParams shifts the value channel by Offset (-255..255).
type BrightnessParams struct {
	Offset float64
}

func (p BrightnessParams) Kind() StageKind { return StageBrightness }

func (p BrightnessParams) Validate() error {
	if p.Offset < -255 || p.Offset > 255 {
		return errors.NewFilterError("brightness", fmt.Sprintf("offset %v out of range [-255,255]", p.Offset))
	}
	return nil
}

func (p BrightnessParams) Clamped() Params {
	p.Offset = clampF(p.Offset, -255, 255)
	return p
}

// ContrastParams scales contrast around mid-gray by Gain (0..4).
type ContrastParams struct {
	Gain float64
}

func (p ContrastParams) Kind() StageKind { return StageContrast }

func (p ContrastParams) Validate() error {
	if p.Gain < 0 || p.Gain > 4 {
		return errors.NewFilterError("contrast", fmt.Sprintf("gain %v out of range [0,4]", p.Gain))
	}
	return nil
}

func (p ContrastParams) Clamped() Params {
	p.Gain = clampF(p.Gain, 0, 4)
	return p
}

// SaturationParams scales distance from gray by Gain (0..4). Gain 0 is
// grayscale, 1 is identity.
type SaturationParams struct {
	Gain float64
}

func (p SaturationParams) Kind() StageKind { return StageSaturation }

func (p SaturationParams) Validate() error {
	if p.Gain < 0 || p.Gain > 4 {
		return errors.NewFilterError("saturation", fmt.Sprintf("gain %v out of range [0,4]", p.Gain))
	}
	return nil
}

func (p SaturationParams) Clamped() Params {
	p.Gain = clampF(p.Gain, 0, 4)
	return p
}

// BlurParams is a separable box blur with the given pixel radius (0..64).
type BlurParams struct {
	Radius int
}

func (p BlurParams) Kind() StageKind { return StageBlur }

func (p BlurParams) Validate() error {
	if p.Radius < 0 || p.Radius > 64 {
		return errors.NewFilterError("blur", fmt.Sprintf("radius %d out of range [0,64]", p.Radius))
	}
	return nil
}

func (p BlurParams) Clamped() Params {
	if p.Radius < 0 {
		p.Radius = 0
	}
	if p.Radius > 64 {
		p.Radius = 64
	}
	return p
}

// SharpenParams applies a fixed unsharp kernel scaled by Intensity (0..1).
type SharpenParams struct {
	Intensity float64
}

func (p SharpenParams) Kind() StageKind { return StageSharpen }

func (p SharpenParams) Validate() error {
	if p.Intensity < 0 || p.Intensity > 1 {
		return errors.NewFilterError("sharpen", fmt.Sprintf("intensity %v out of range [0,1]", p.Intensity))
	}
	return nil
}

func (p SharpenParams) Clamped() Params {
	p.Intensity = clampF(p.Intensity, 0, 1)
	return p
}

// ScaleParams resizes by Factor (0.1..4) with bilinear interpolation.
type ScaleParams struct {
	Factor float64
}

func (p ScaleParams) Kind() StageKind { return StageScale }

func (p ScaleParams) Validate() error {
	if p.Factor < 0.1 || p.Factor > 4 {
		return errors.NewFilterError("scale", fmt.Sprintf("factor %v out of range [0.1,4]", p.Factor))
	}
	return nil
}

func (p ScaleParams) Clamped() Params {
	p.Factor = clampF(p.Factor, 0.1, 4)
	return p
}

// DefaultParams returns the identity parameters for a stage kind.
func DefaultParams(kind StageKind) Params {
	switch kind {
	case StageBrightness:
		return BrightnessParams{Offset: 0}
	case StageContrast:
		return ContrastParams{Gain: 1}
	case StageSaturation:
		return SaturationParams{Gain: 1}
	case StageBlur:
		return BlurParams{Radius: 0}
	case StageSharpen:
		return SharpenParams{Intensity: 0}
	case StageScale:
		return ScaleParams{Factor: 1}
	default:
		return nil
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
