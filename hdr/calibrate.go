package hdr

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ImageSamples holds the color samples extracted from one exposure bracket.
// Colors[i] is the RGB value (in [0, 1]) of sample point i; the same point
// index refers to the same scene point in every bracket of a group.
type ImageSamples struct {
	Colors   [][Channels]float64
	Exposure float64 // exposure time in seconds
}

// Calibration errors.
var (
	ErrNoSamples       = errors.New("hdr: no calibration samples")
	ErrBadQuantization = errors.New("hdr: channel quantization must be >= 3")
	ErrTooFewBrackets  = errors.New("hdr: each group needs at least two brackets")
	ErrRaggedGroup     = errors.New("hdr: brackets within a group must have equal sample counts")
	ErrUnderdetermined = errors.New("hdr: not enough measures to constrain the system")
	ErrSolverFailed    = errors.New("hdr: least-squares solve failed")
)

// Calibrate recovers the camera's log-response curve from groups of bracketed
// samples. Each group covers one scene; within a group, bracket j's sample
// point i observes the same scene point at a different exposure time.
//
// quantization is the number of discrete response samples (256 for 8-bit
// sources). weight down-weights samples near the intensity extremes, and
// lambda scales the smoothness prior on the response's second derivative.
//
// The returned curve g satisfies g(mid-gray) = 0; exp(g(z) - log t) is the
// relative radiance of a pixel with value z at exposure time t. Calibrate
// fails if the system cannot be factorized.
func Calibrate(groups [][]ImageSamples, quantization int, weight *RGBCurve, lambda float64) (*RGBCurve, error) {
	if quantization < 3 {
		return nil, ErrBadQuantization
	}

	// Count sample points per group and the data rows they produce. The
	// last bracket of each group carries no data row of its own: its
	// samples only anchor the radiance unknowns via earlier brackets.
	countPoints := 0
	countMeasures := 0
	pointOffset := make([]int, len(groups))
	for g, group := range groups {
		if len(group) == 0 {
			continue
		}
		if len(group) < 2 {
			return nil, ErrTooFewBrackets
		}
		points := len(group[0].Colors)
		for _, bracket := range group {
			if len(bracket.Colors) != points {
				return nil, ErrRaggedGroup
			}
		}
		pointOffset[g] = countPoints
		countPoints += points
		countMeasures += points * (len(group) - 1)
	}
	if countMeasures == 0 {
		return nil, ErrNoSamples
	}

	rows := countMeasures + 1 + (quantization - 2)
	cols := quantization + countPoints
	if rows < cols {
		return nil, fmt.Errorf("%w: %d rows for %d unknowns", ErrUnderdetermined, rows, cols)
	}

	response := NewRGBCurve(quantization)
	for ch := 0; ch < Channels; ch++ {
		a := mat.NewDense(rows, cols, nil)
		b := mat.NewVecDense(rows, nil)

		row := 0
		for g, group := range groups {
			for bracketID := 0; bracketID < len(group)-1; bracketID++ {
				bracket := group[bracketID]
				logTime := math.Log(bracket.Exposure)
				for sampleID, color := range bracket.Colors {
					sample := color[ch]
					w := weight.Interpolate(sample, ch)
					// Float noise can push a sample marginally outside
					// [0, 1]; keep the index in range.
					index := int(math.Round(sample * float64(quantization-1)))
					if index < 0 {
						index = 0
					} else if index > quantization-1 {
						index = quantization - 1
					}

					a.Set(row, index, w)
					a.Set(row, quantization+pointOffset[g]+sampleID, -w)
					b.SetVec(row, w*logTime)
					row++
				}
			}
		}

		// Fix the free scale: g(mid-gray) = 0.
		a.Set(row, quantization/2, 1.0)
		row++

		// Smoothness prior: penalize the response's second derivative,
		// g''(k) = g(k+1) - 2 g(k) + g(k-1), weighted like the data.
		for k := 0; k < quantization-2; k++ {
			w := weight.Value(k+1, ch)
			a.Set(row, k, lambda*w)
			a.Set(row, k+1, -2.0*lambda*w)
			a.Set(row, k+2, lambda*w)
			row++
		}

		var qr mat.QR
		qr.Factorize(a)
		var x mat.VecDense
		if err := qr.SolveVecTo(&x, false, b); err != nil {
			return nil, fmt.Errorf("%w: channel %d: %v", ErrSolverFailed, ch, err)
		}

		for k := 0; k < quantization; k++ {
			response.SetValue(k, ch, x.AtVec(k))
		}
	}
	return response, nil
}
