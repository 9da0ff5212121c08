// Package dataset implements access to single-band elevation rasters.
//
// A raster is opened once per run and shared read-only by every worker.
// Files are decoded through GDAL and can be cached on disk in a flat layout
// that is mapped into memory using mmap.
package dataset

import (
	"fmt"
	"math"

	"github.com/larschri/horisont/geom"
	"github.com/larschri/horisont/transform"
)

// ErrNoData is returned for cells that carry the raster's no-data value.
// A void is treated like a missing tile, so it also matches
// transform.ErrExtentInsufficient.
var ErrNoData = fmt.Errorf("%w: no data", transform.ErrExtentInsufficient)

// Raster is a read-only elevation grid with its georeferencing.
type Raster interface {
	// Width is the number of columns.
	Width() int
	// Height is the number of rows.
	Height() int
	// Transform maps (col, row) to planar coordinates.
	Transform() transform.Affine
	// Elevation returns the height of the cell. row and col must be in bounds.
	Elevation(row, col int) float64
}

// Grid is a Raster held in memory. Heights are stored row by row.
type Grid struct {
	XSize   int
	YSize   int
	Affine  transform.Affine
	Heights []float32

	NoData    float64
	HasNoData bool
}

// NewGrid checks that heights fits xsize x ysize and that affine can be inverted.
func NewGrid(xsize, ysize int, affine transform.Affine, heights []float32) (*Grid, error) {
	if xsize <= 0 || ysize <= 0 {
		return nil, fmt.Errorf("%w: raster size %d x %d", geom.ErrBadParameter, xsize, ysize)
	}
	if len(heights) != xsize*ysize {
		return nil, fmt.Errorf("%w: %d heights for a %d x %d raster", geom.ErrBadParameter, len(heights), xsize, ysize)
	}
	if err := affine.Validate(); err != nil {
		return nil, err
	}
	return &Grid{XSize: xsize, YSize: ysize, Affine: affine, Heights: heights}, nil
}

// Flat returns a grid of constant height.
func Flat(xsize, ysize int, affine transform.Affine, height float32) (*Grid, error) {
	heights := make([]float32, xsize*ysize)
	for i := range heights {
		heights[i] = height
	}
	return NewGrid(xsize, ysize, affine, heights)
}

func (g *Grid) Width() int                  { return g.XSize }
func (g *Grid) Height() int                 { return g.YSize }
func (g *Grid) Transform() transform.Affine { return g.Affine }

func (g *Grid) Elevation(row, col int) float64 {
	return float64(g.Heights[row*g.XSize+col])
}

// Set changes the height of one cell. Grids must not be modified once they
// are shared.
func (g *Grid) Set(row, col int, height float32) {
	g.Heights[row*g.XSize+col] = height
}

type noDataRaster interface {
	noData() (float64, bool)
}

func (g *Grid) noData() (float64, bool) {
	return g.NoData, g.HasNoData
}

// Lookup returns the height of the cell containing (easting, northing).
func Lookup(r Raster, easting, northing float64) (float64, error) {
	row, col, err := r.Transform().Index(easting, northing, r.Width(), r.Height())
	if err != nil {
		return 0, err
	}

	h := r.Elevation(row, col)
	if math.IsNaN(h) {
		return 0, fmt.Errorf("%w at row %d col %d", ErrNoData, row, col)
	}
	if nd, ok := r.(noDataRaster); ok {
		if v, has := nd.noData(); has && h == v {
			return 0, fmt.Errorf("%w at row %d col %d", ErrNoData, row, col)
		}
	}
	return h, nil
}

// Extent returns the planar footprint of r.
func Extent(r Raster) geom.BoundingBox {
	return r.Transform().Extent(r.Width(), r.Height())
}

// Covers fails with transform.ErrExtentInsufficient unless r contains box.
func Covers(r Raster, box geom.BoundingBox) error {
	if ext := Extent(r); !ext.Contains(box) {
		return fmt.Errorf("%w: raster %+v does not contain %+v", transform.ErrExtentInsufficient, ext, box)
	}
	return nil
}

// Closer is implemented by rasters that hold resources.
type Closer interface {
	Close() error
}

// Close releases r if it holds resources.
func Close(r Raster) error {
	if c, ok := r.(Closer); ok {
		return c.Close()
	}
	return nil
}
