package hdr

import "math"

// Channels is the number of color channels in every curve and sample.
const Channels = 3

// RGBCurve is a per-channel discrete curve over [0, 1], sampled at Size()
// evenly spaced points. It serves both as a calibration weight curve and as
// the recovered response curve.
type RGBCurve struct {
	values [Channels][]float64
}

// NewRGBCurve returns an all-zero curve with size samples per channel.
func NewRGBCurve(size int) *RGBCurve {
	c := &RGBCurve{}
	for ch := range c.values {
		c.values[ch] = make([]float64, size)
	}
	return c
}

// Size returns the number of samples per channel.
func (c *RGBCurve) Size() int { return len(c.values[0]) }

// Value returns sample k of the given channel.
func (c *RGBCurve) Value(k, channel int) float64 { return c.values[channel][k] }

// SetValue sets sample k of the given channel.
func (c *RGBCurve) SetValue(k, channel int, v float64) { c.values[channel][k] = v }

// Interpolate evaluates the curve at x in [0, 1] by linear interpolation
// between the two nearest samples. x outside [0, 1] is clamped.
func (c *RGBCurve) Interpolate(x float64, channel int) float64 {
	v := c.values[channel]
	n := len(v)
	if n == 1 {
		return v[0]
	}
	pos := x * float64(n-1)
	if pos <= 0 {
		return v[0]
	}
	if pos >= float64(n-1) {
		return v[n-1]
	}
	k := int(pos)
	frac := pos - float64(k)
	return v[k]*(1-frac) + v[k+1]*frac
}

// NewTriangleWeight returns the classic Debevec hat weight: zero at both ends
// of the intensity range, peaking at the middle.
func NewTriangleWeight(size int) *RGBCurve {
	return fillWeight(size, func(x float64) float64 {
		return 1.0 - math.Abs(2.0*x-1.0)
	})
}

// NewGaussianWeight returns a Gaussian weight centered on mid-gray.
func NewGaussianWeight(size int) *RGBCurve {
	const sigma = 0.25
	return fillWeight(size, func(x float64) float64 {
		d := x - 0.5
		return math.Exp(-d * d / (2.0 * sigma * sigma))
	})
}

// NewPlateauWeight returns a weight that is near-constant over the usable
// intensity range and falls off sharply at the extremes, where sensor
// response is unreliable.
func NewPlateauWeight(size int) *RGBCurve {
	return fillWeight(size, func(x float64) float64 {
		return 1.0 - math.Pow(2.0*x-1.0, 12.0)
	})
}

func fillWeight(size int, f func(float64) float64) *RGBCurve {
	c := NewRGBCurve(size)
	for k := 0; k < size; k++ {
		x := 0.0
		if size > 1 {
			x = float64(k) / float64(size-1)
		}
		w := f(x)
		for ch := 0; ch < Channels; ch++ {
			c.values[ch][k] = w
		}
	}
	return c
}
