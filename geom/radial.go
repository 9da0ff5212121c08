package geom

import (
	"fmt"
	"math"
)

// RadialLines returns n sight-lines of the given length starting at center.
// Line i points towards azimuth 2π·i/n, clockwise from north.
func RadialLines(center Point, n int, length float64) ([]Line, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: number of lines must be positive, got %d", ErrBadParameter, n)
	}
	if !(length > 0) || math.IsInf(length, 0) {
		return nil, fmt.Errorf("%w: line length must be a positive number, got %v", ErrBadParameter, length)
	}
	if !finite(center.Easting) || !finite(center.Northing) {
		return nil, fmt.Errorf("%w: center %v is not finite", ErrBadParameter, center)
	}

	lines := make([]Line, n)
	for i := range lines {
		rad := AzimuthRad(i, n)
		lines[i] = Line{
			Start: center,
			End:   center.Add(length*math.Sin(rad), length*math.Cos(rad)),
		}
	}
	return lines, nil
}

// AzimuthRad is the azimuth of line i out of n in radians.
func AzimuthRad(i, n int) float64 {
	return 2 * math.Pi / float64(n) * float64(i)
}

// AzimuthsGon returns the azimuths of n equally spaced lines in gon.
func AzimuthsGon(n int) []float64 {
	azimuths := make([]float64, n)
	for i := range azimuths {
		azimuths[i] = 400 / float64(n) * float64(i)
	}
	return azimuths
}
