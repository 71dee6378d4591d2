package filter

import (
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/zsiec/glimpse/internal/errors"
	"github.com/zsiec/glimpse/internal/preview/types"
)

type scalerKind uint8

const (
	scalerNearest scalerKind = iota
	scalerApproxBilinear
	scalerBilinear
	scalerCatmullRom
)

// Downsample and upsample factors applied by the quality post-step.
const (
	lowQualityScale   = 0.5
	ultraQualityScale = 1.5
)

func (k scalerKind) scaler() draw.Scaler {
	switch k {
	case scalerNearest:
		return draw.NearestNeighbor
	case scalerBilinear:
		return draw.BiLinear
	case scalerCatmullRom:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

// resizeFrame scales a frame by factor using the given resampler. The pixel
// path goes through image.RGBA because x/image/draw scalers operate on
// image types, then back to the frame's packed format.
func resizeFrame(src *types.Frame, factor float64, kind scalerKind) (*types.Frame, error) {
	if !src.Valid() {
		return nil, errors.NewFilterError("resize", "malformed frame buffer")
	}

	newW := int(float64(src.Width) * factor)
	newH := int(float64(src.Height) * factor)
	if newW < 1 || newH < 1 {
		return nil, errors.NewFilterError("resize", "target dimensions collapsed to zero")
	}

	srcImg, err := toRGBA(src)
	if err != nil {
		return nil, err
	}

	dstImg := image.NewRGBA(image.Rect(0, 0, newW, newH))
	kind.scaler().Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)

	return fromRGBA(dstImg, src.Number, src.Timestamp, src.Format, src.Channels), nil
}

func toRGBA(src *types.Frame) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))

	switch src.Format {
	case types.PixelFormatBGR24:
		for i, j := 0, 0; i+3 <= len(src.Pixels); i, j = i+3, j+4 {
			img.Pix[j+0] = src.Pixels[i+2]
			img.Pix[j+1] = src.Pixels[i+1]
			img.Pix[j+2] = src.Pixels[i+0]
			img.Pix[j+3] = 0xff
		}
	case types.PixelFormatRGBA:
		copy(img.Pix, src.Pixels)
	case types.PixelFormatGray:
		for i, j := 0, 0; i < len(src.Pixels); i, j = i+1, j+4 {
			v := src.Pixels[i]
			img.Pix[j+0] = v
			img.Pix[j+1] = v
			img.Pix[j+2] = v
			img.Pix[j+3] = 0xff
		}
	default:
		return nil, errors.NewFilterError("resize", "unsupported pixel format "+src.Format.String())
	}

	return img, nil
}

func fromRGBA(img *image.RGBA, number int64, timestamp time.Duration, format types.PixelFormat, channels int) *types.Frame {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	out := &types.Frame{
		Number:    number,
		Timestamp: timestamp,
		Width:     w,
		Height:    h,
		Channels:  channels,
		Format:    format,
	}

	switch format {
	case types.PixelFormatBGR24:
		out.Pixels = make([]byte, w*h*3)
		for i, j := 0, 0; j+4 <= len(img.Pix); i, j = i+3, j+4 {
			out.Pixels[i+0] = img.Pix[j+2]
			out.Pixels[i+1] = img.Pix[j+1]
			out.Pixels[i+2] = img.Pix[j+0]
		}
	case types.PixelFormatRGBA:
		out.Pixels = make([]byte, w*h*4)
		copy(out.Pixels, img.Pix)
	case types.PixelFormatGray:
		out.Pixels = make([]byte, w*h)
		for i, j := 0, 0; j+4 <= len(img.Pix); i, j = i+1, j+4 {
			out.Pixels[i] = img.Pix[j]
		}
	}

	return out
}

// applyQualityResize is the quality-coupled post-step: LOW trades detail for
// speed with a fast half-size downsample, ULTRA upsamples with the highest
// quality resampler available. MEDIUM and HIGH pass through.
func applyQualityResize(frame *types.Frame, quality types.QualityLevel) (*types.Frame, error) {
	switch quality {
	case types.QualityLow:
		return resizeFrame(frame, lowQualityScale, scalerApproxBilinear)
	case types.QualityUltra:
		return resizeFrame(frame, ultraQualityScale, scalerCatmullRom)
	default:
		return frame, nil
	}
}
