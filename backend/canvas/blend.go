package canvas

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/batch2d/command"
)

// composite blends layer into dst at r, weighted by mask. layer and mask
// are r-sized and start at the origin.
func composite(dst *image.RGBA, r image.Rectangle, layer *image.RGBA, mask *image.Alpha, state command.BlendState) {
	if state == command.BlendNormal {
		xdraw.DrawMask(dst, r, layer, image.Point{}, mask, image.Point{}, xdraw.Over)
		return
	}
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			m := mask.Pix[y*mask.Stride+x]
			if m == 0 {
				continue
			}
			sp := layer.Pix[y*layer.Stride+x*4 : y*layer.Stride+x*4+4]
			doff := dst.PixOffset(r.Min.X+x, r.Min.Y+y)
			dp := dst.Pix[doff : doff+4]
			var s, d [4]float64
			for i := range 4 {
				s[i] = float64(sp[i]) / 255
				d[i] = float64(dp[i]) / 255
			}
			out := blendPixel(s, d, state)
			cov := float64(m) / 255
			for i := range 4 {
				v := d[i] + cov*(out[i]-d[i])
				dp[i] = uint8(clamp01(v)*255 + 0.5)
			}
		}
	}
}

// blendPixel evaluates the fixed-function blend equation on premultiplied
// colors. A disabled state replaces the destination.
func blendPixel(s, d [4]float64, state command.BlendState) [4]float64 {
	if !state.Enabled {
		return s
	}
	var out [4]float64
	for i := range 3 {
		out[i] = blendChannel(s, d, i, state.Color)
	}
	out[3] = blendChannel(s, d, 3, state.Alpha)
	return out
}

func blendChannel(s, d [4]float64, i int, c command.BlendComponent) float64 {
	sv, dv := s[i], d[i]
	switch c.Operation {
	case command.BlendOpMin:
		return math.Min(sv, dv)
	case command.BlendOpMax:
		return math.Max(sv, dv)
	}
	sw := sv * blendFactor(c.Src, s, d, i)
	dw := dv * blendFactor(c.Dst, s, d, i)
	switch c.Operation {
	case command.BlendOpSubtract:
		return clamp01(sw - dw)
	case command.BlendOpReverseSubtract:
		return clamp01(dw - sw)
	default:
		return clamp01(sw + dw)
	}
}

func blendFactor(f command.BlendFactor, s, d [4]float64, i int) float64 {
	switch f {
	case command.BlendFactorZero:
		return 0
	case command.BlendFactorOne:
		return 1
	case command.BlendFactorSrc:
		return s[i]
	case command.BlendFactorOneMinusSrc:
		return 1 - s[i]
	case command.BlendFactorSrcAlpha:
		return s[3]
	case command.BlendFactorOneMinusSrcAlpha:
		return 1 - s[3]
	case command.BlendFactorDst:
		return d[i]
	case command.BlendFactorOneMinusDst:
		return 1 - d[i]
	case command.BlendFactorDstAlpha:
		return d[3]
	case command.BlendFactorOneMinusDstAlpha:
		return 1 - d[3]
	case command.BlendFactorSrcAlphaSaturated:
		if i == 3 {
			return 1
		}
		return math.Min(s[3], 1-d[3])
	default:
		return 1
	}
}
