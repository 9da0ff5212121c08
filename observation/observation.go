// Package observation holds surveyed GNSS points and the sets they are
// planned in.
package observation

import (
	"fmt"
	"math"

	"github.com/larschri/horisont/geom"
)

// DefaultAntennaHeight is used when a point list omits the antenna height.
const DefaultAntennaHeight = 2.0

// Point is a surveyed GNSS location.
type Point struct {
	Name          string  `json:"name"`
	Easting       float64 `json:"easting"`
	Northing      float64 `json:"northing"`
	FloorHeight   float64 `json:"floor_height"`
	AntennaHeight float64 `json:"antenna_height"`
}

// NewPoint returns a validated point with the default antenna height.
func NewPoint(name string, easting, northing, floorHeight float64) (Point, error) {
	p := Point{
		Name:          name,
		Easting:       easting,
		Northing:      northing,
		FloorHeight:   floorHeight,
		AntennaHeight: DefaultAntennaHeight,
	}
	return p, p.Validate()
}

// Validate checks that the name is set and every number is finite.
func (p Point) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: point name must not be empty", geom.ErrBadParameter)
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"easting", p.Easting},
		{"northing", p.Northing},
		{"floor_height", p.FloorHeight},
		{"antenna_height", p.AntennaHeight},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: point %q: %s must be finite, got %v", geom.ErrBadParameter, p.Name, f.name, f.value)
		}
	}
	return nil
}

// Location is the planar position of p.
func (p Point) Location() geom.Point {
	return geom.Point{Easting: p.Easting, Northing: p.Northing}
}

// EyeHeight is the height the terrain is compared against: the ground
// height plus the antenna height above ground.
func (p Point) EyeHeight() float64 {
	return p.FloorHeight + p.AntennaHeight
}

// Set is an ordered collection of points. Names need not be unique.
type Set struct {
	Points []Point `json:"points"`
}

// Add validates p and appends it.
func (s *Set) Add(p Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Points = append(s.Points, p)
	return nil
}

// ByName returns the first point called name.
func (s *Set) ByName(name string) (Point, bool) {
	for _, p := range s.Points {
		if p.Name == name {
			return p, true
		}
	}
	return Point{}, false
}

// Len is the number of points.
func (s *Set) Len() int {
	return len(s.Points)
}

// BoundingBox returns the extent of all points. Buffer it by the sight-line
// length before requesting elevation tiles.
func (s *Set) BoundingBox() (geom.BoundingBox, error) {
	locations := make([]geom.Point, len(s.Points))
	for i, p := range s.Points {
		locations[i] = p.Location()
	}
	return geom.Bounds(locations)
}
