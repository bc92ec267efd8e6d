package graphics

import (
	"math"
)

// VideoProcessor applies brightness, contrast and saturation to RGB frames
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32

	// a frame holds at most a few dozen distinct colours
	cache map[uint32][3]uint8
	out   []uint8
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
		cache:      make(map[uint32][3]uint8),
	}
}

// IsIdentity reports whether ProcessFrame leaves frames unchanged
func (vp *VideoProcessor) IsIdentity() bool {
	return vp.brightness == 1.0 && vp.contrast == 1.0 && vp.saturation == 1.0
}

// ProcessFrame applies the video effects to an RGB frame. The input is
// returned as is when no effect is active; otherwise the result lives in
// a buffer reused by the next call.
func (vp *VideoProcessor) ProcessFrame(frame []uint8) []uint8 {
	if vp.IsIdentity() {
		return frame
	}
	if len(vp.out) != len(frame) {
		vp.out = make([]uint8, len(frame))
	}

	for i := 0; i+2 < len(frame); i += 3 {
		key := uint32(frame[i])<<16 | uint32(frame[i+1])<<8 | uint32(frame[i+2])
		rgb, ok := vp.cache[key]
		if !ok {
			rgb = vp.adjust(frame[i], frame[i+1], frame[i+2])
			vp.cache[key] = rgb
		}
		vp.out[i], vp.out[i+1], vp.out[i+2] = rgb[0], rgb[1], rgb[2]
	}
	return vp.out
}

func (vp *VideoProcessor) adjust(r8, g8, b8 uint8) [3]uint8 {
	r := float32(r8) * vp.brightness
	g := float32(g8) * vp.brightness
	b := float32(b8) * vp.brightness

	r = ((r/255.0-0.5)*vp.contrast + 0.5) * 255.0
	g = ((g/255.0-0.5)*vp.contrast + 0.5) * 255.0
	b = ((b/255.0-0.5)*vp.contrast + 0.5) * 255.0

	if vp.saturation != 1.0 {
		h, s, l := rgbToHSL(clamp(r, 0, 255)/255.0, clamp(g, 0, 255)/255.0, clamp(b, 0, 255)/255.0)
		s = clamp(s*vp.saturation, 0, 1)
		r, g, b = hslToRGB(h, s, l)
		r *= 255.0
		g *= 255.0
		b *= 255.0
	}

	return [3]uint8{
		uint8(clamp(r, 0, 255) + 0.5),
		uint8(clamp(g, 0, 255) + 0.5),
		uint8(clamp(b, 0, 255) + 0.5),
	}
}

// clamp limits a value to a range
func clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// rgbToHSL converts RGB to HSL color space
func rgbToHSL(r, g, b float32) (h, s, l float32) {
	max := float32(math.Max(float64(r), math.Max(float64(g), float64(b))))
	min := float32(math.Min(float64(r), math.Min(float64(g), float64(b))))

	l = (max + min) / 2.0
	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2.0 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

// hslToRGB converts HSL to RGB color space
func hslToRGB(h, s, l float32) (r, g, b float32) {
	if s == 0 {
		return l, l, l
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3.0), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3.0)
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
