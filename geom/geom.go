// Package geom contains the planar value types used to build sight-lines
// around an observation point.
//
// All coordinates are easting/northing in one projected system. Azimuths are
// measured clockwise from north, so a direction vector is (sin, cos).
package geom

import (
	"errors"
	"math"
)

// ErrBadParameter is returned when an operation is called with an argument
// outside its domain: non-positive counts or lengths, non-finite numbers,
// unknown method names.
var ErrBadParameter = errors.New("bad parameter")

// Point is a planar coordinate.
type Point struct {
	Easting  float64
	Northing float64
}

// Add returns p moved by (de, dn).
func (p Point) Add(de, dn float64) Point {
	return Point{Easting: p.Easting + de, Northing: p.Northing + dn}
}

// Line is a directed segment from Start to End.
type Line struct {
	Start Point
	End   Point
}

// Delta returns the easting and northing difference from Start to End.
func (l Line) Delta() (de, dn float64) {
	return l.End.Easting - l.Start.Easting, l.End.Northing - l.Start.Northing
}

// Length is never negative.
func (l Line) Length() float64 {
	return math.Hypot(l.Delta())
}

// Sample is a location along a sight-line. Distance is measured from the
// start of the line and is fixed when the sample is created.
type Sample struct {
	Easting  float64
	Northing float64
	Distance float64
}

// RadToGon converts radians to gon (400 gon = full circle).
func RadToGon(rad float64) float64 {
	return rad * 200 / math.Pi
}

// GonToRad converts gon to radians.
func GonToRad(gon float64) float64 {
	return gon * math.Pi / 200
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
