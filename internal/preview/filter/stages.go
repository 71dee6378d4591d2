package filter

import (
	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/preview/types"
)

// applyStage dispatches one enabled stage. Identity parameters return the
// input frame untouched so a configured-but-neutral stage costs nothing.
func applyStage(frame *types.Frame, params Params) (*types.Frame, error) {
	if !frame.Valid() {
		return nil, errors.NewFilterError(params.Kind().String(), "malformed frame buffer")
	}

	switch p := params.Clamped().(type) {
	case BrightnessParams:
		if p.Offset == 0 {
			return frame, nil
		}
		return applyBrightness(frame, p.Offset), nil
	case ContrastParams:
		if p.Gain == 1 {
			return frame, nil
		}
		return applyContrast(frame, p.Gain), nil
	case SaturationParams:
		if p.Gain == 1 {
			return frame, nil
		}
		if frame.Channels < 3 {
			return nil, errors.NewFilterError("saturation", "requires a color frame")
		}
		return applySaturation(frame, p.Gain), nil
	case BlurParams:
		if p.Radius == 0 {
			return frame, nil
		}
		return applyBoxBlur(frame, p.Radius), nil
	case SharpenParams:
		if p.Intensity == 0 {
			return frame, nil
		}
		return applySharpen(frame, p.Intensity), nil
	case ScaleParams:
		if p.Factor == 1 {
			return frame, nil
		}
		return resizeFrame(frame, p.Factor, scalerBilinear)
	default:
		return nil, errors.NewFilterError("unknown", "unsupported stage parameters")
	}
}

// newOutput allocates the destination frame for a same-geometry transform.
func newOutput(src *types.Frame) *types.Frame {
	out := *src
	out.Pixels = make([]byte, len(src.Pixels))
	return &out
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func applyBrightness(src *types.Frame, offset float64) *types.Frame {
	out := newOutput(src)
	for i, v := range src.Pixels {
		out.Pixels[i] = clampByte(float64(v) + offset)
	}
	return out
}

func applyContrast(src *types.Frame, gain float64) *types.Frame {
	// Precomputed lookup: out = (in - 128) * gain + 128.
	var lut [256]byte
	for i := range lut {
		lut[i] = clampByte((float64(i)-128)*gain + 128)
	}

	out := newOutput(src)
	for i, v := range src.Pixels {
		out.Pixels[i] = lut[v]
	}
	return out
}

func applySaturation(src *types.Frame, gain float64) *types.Frame {
	out := newOutput(src)
	ch := src.Channels

	for i := 0; i+ch <= len(src.Pixels); i += ch {
		// Mean of the color channels stands in for the gray axis; scaling
		// distance from it scales saturation without touching luminance much.
		var sum int
		for c := 0; c < 3; c++ {
			sum += int(src.Pixels[i+c])
		}
		gray := float64(sum) / 3

		for c := 0; c < 3; c++ {
			out.Pixels[i+c] = clampByte(gray + (float64(src.Pixels[i+c])-gray)*gain)
		}
		// Alpha or extra channels pass through.
		for c := 3; c < ch; c++ {
			out.Pixels[i+c] = src.Pixels[i+c]
		}
	}
	return out
}

// applyBoxBlur runs a separable box convolution: one horizontal pass into a
// scratch buffer, one vertical pass into the output. Cost is O(pixels) per
// pass regardless of radius thanks to the sliding window sum.
func applyBoxBlur(src *types.Frame, radius int) *types.Frame {
	w, h, ch := src.Width, src.Height, src.Channels

	scratch := make([]byte, len(src.Pixels))
	blurPass(src.Pixels, scratch, w, h, ch, radius, true)

	out := newOutput(src)
	blurPass(scratch, out.Pixels, w, h, ch, radius, false)
	return out
}

func blurPass(src, dst []byte, w, h, ch, radius int, horizontal bool) {
	outer, inner := h, w
	if !horizontal {
		outer, inner = w, h
	}

	idx := func(o, i, c int) int {
		if horizontal {
			return (o*w+i)*ch + c
		}
		return (i*w+o)*ch + c
	}

	for o := 0; o < outer; o++ {
		for c := 0; c < ch; c++ {
			// Prime the window around position 0.
			var sum, count int
			for i := -radius; i <= radius; i++ {
				if i >= 0 && i < inner {
					sum += int(src[idx(o, i, c)])
					count++
				}
			}

			for i := 0; i < inner; i++ {
				dst[idx(o, i, c)] = byte(sum / count)

				// Slide: drop the tail pixel, take the next head pixel.
				tail := i - radius
				if tail >= 0 {
					sum -= int(src[idx(o, tail, c)])
					count--
				}
				head := i + radius + 1
				if head < inner {
					sum += int(src[idx(o, head, c)])
					count++
				}
			}
		}
	}
}

// applySharpen is an unsharp mask built from a fixed 3x3 kernel: the
// 4-neighborhood weighted by -k with center 1+4k, k scaled by intensity.
func applySharpen(src *types.Frame, intensity float64) *types.Frame {
	w, h, ch := src.Width, src.Height, src.Channels
	out := newOutput(src)

	k := intensity
	center := 1 + 4*k

	at := func(x, y, c int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return float64(src.Pixels[(y*w+x)*ch+c])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				v := center*at(x, y, c) -
					k*(at(x-1, y, c)+at(x+1, y, c)+at(x, y-1, c)+at(x, y+1, c))
				out.Pixels[(y*w+x)*ch+c] = clampByte(v)
			}
		}
	}
	return out
}
