package geom

import "fmt"

// BoundingBox is the extent of a set of points.
type BoundingBox struct {
	EMin float64 `json:"e_min"`
	EMax float64 `json:"e_max"`
	NMin float64 `json:"n_min"`
	NMax float64 `json:"n_max"`
}

// Bounds returns the smallest box containing all points.
func Bounds(points []Point) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, fmt.Errorf("%w: bounding box of zero points", ErrBadParameter)
	}

	b := BoundingBox{
		EMin: points[0].Easting,
		EMax: points[0].Easting,
		NMin: points[0].Northing,
		NMax: points[0].Northing,
	}
	for _, p := range points[1:] {
		b = b.extend(p)
	}
	return b, nil
}

func (b BoundingBox) extend(p Point) BoundingBox {
	if p.Easting < b.EMin {
		b.EMin = p.Easting
	}
	if p.Easting > b.EMax {
		b.EMax = p.Easting
	}
	if p.Northing < b.NMin {
		b.NMin = p.Northing
	}
	if p.Northing > b.NMax {
		b.NMax = p.Northing
	}
	return b
}

// Buffer grows the box by d on every side. A negative d shrinks it.
func (b BoundingBox) Buffer(d float64) BoundingBox {
	return BoundingBox{
		EMin: b.EMin - d,
		EMax: b.EMax + d,
		NMin: b.NMin - d,
		NMax: b.NMax + d,
	}
}

// Contains reports whether other lies completely inside b.
func (b BoundingBox) Contains(other BoundingBox) bool {
	return other.EMin >= b.EMin && other.EMax <= b.EMax &&
		other.NMin >= b.NMin && other.NMax <= b.NMax
}
