// Package trace samples an elevation raster along sight-lines and reduces
// the samples to obstruction angles.
package trace

import (
	"math"

	"github.com/larschri/horisont/geom"
)

// Measurement is the terrain seen at one sample.
type Measurement struct {
	// HeightDifference is terrain height minus eye height. Positive means
	// the terrain is above the antenna.
	HeightDifference float64
	// ElevationAngle in radians, derived from HeightDifference.
	ElevationAngle float64
}

// ElevationAngle returns the angle above (positive) or below (negative) the
// horizontal eye-height plane. distance must be positive.
func ElevationAngle(heightDifference, distance float64) float64 {
	return math.Atan(heightDifference / distance)
}

// Measure derives the elevation angle from heightDifference so both values
// always agree.
func Measure(heightDifference, distance float64) Measurement {
	return Measurement{
		HeightDifference: heightDifference,
		ElevationAngle:   ElevationAngle(heightDifference, distance),
	}
}

// Segment is a sample location together with its measurement.
type Segment struct {
	geom.Sample
	Measurement
}

// Profile holds the segments of one sight-line ordered by distance.
type Profile struct {
	Segments []Segment
}

// Add appends s. Segments must be added in increasing distance.
func (p *Profile) Add(s Segment) {
	p.Segments = append(p.Segments, s)
}

// MaxElevationAngle returns the largest elevation angle in radians. The
// most obstructing sample decides the line. An empty profile is open sky
// and returns 0.
func (p Profile) MaxElevationAngle() float64 {
	if len(p.Segments) == 0 {
		return 0
	}

	angle := p.Segments[0].ElevationAngle
	for _, s := range p.Segments[1:] {
		if s.ElevationAngle > angle {
			angle = s.ElevationAngle
		}
	}
	return angle
}

// Worst returns the segment with the largest elevation angle.
func (p Profile) Worst() (Segment, bool) {
	if len(p.Segments) == 0 {
		return Segment{}, false
	}

	worst := p.Segments[0]
	for _, s := range p.Segments[1:] {
		if s.ElevationAngle > worst.ElevationAngle {
			worst = s
		}
	}
	return worst, true
}
