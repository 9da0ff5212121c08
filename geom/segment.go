package geom

import (
	"fmt"
	"math"
)

// EffectiveSegments clamps the requested segment count so that samples are
// never closer than one raster pixel. A line shorter than one pixel yields 0.
func EffectiveSegments(requested int, length, pixelSize float64) (int, error) {
	if requested < 1 {
		return 0, fmt.Errorf("%w: number of segments must be positive, got %d", ErrBadParameter, requested)
	}
	pixelSize = math.Abs(pixelSize)
	if pixelSize == 0 || !finite(pixelSize) {
		return 0, fmt.Errorf("%w: pixel size must be a non-zero number, got %v", ErrBadParameter, pixelSize)
	}

	if perPixel := math.Floor(length / pixelSize); perPixel < float64(requested) {
		return int(perPixel), nil
	}
	return requested, nil
}

// Segment splits line into n equal increments and returns one sample at the
// end of each increment. The start point is not included, so every sample has
// a distance greater than zero.
func Segment(line Line, n int) ([]Sample, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: number of segments must be positive, got %d", ErrBadParameter, n)
	}

	de, dn := line.Delta()
	samples := make([]Sample, n)
	for i := range samples {
		e := de / float64(n) * float64(i+1)
		nn := dn / float64(n) * float64(i+1)
		samples[i] = Sample{
			Easting:  line.Start.Easting + e,
			Northing: line.Start.Northing + nn,
			Distance: math.Hypot(e, nn),
		}
	}
	return samples, nil
}
