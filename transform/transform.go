// Package transform maps between planar coordinates and raster indices using
// a six-coefficient affine georeferencing transform.
package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/larschri/horisont/geom"
)

// ErrExtentInsufficient is returned when a coordinate falls outside the
// raster. It means the raster was sized too small upstream.
var ErrExtentInsufficient = errors.New("raster extent insufficient")

// Affine maps raster (col, row) to planar (easting, northing):
//
//	easting  = PixelSizeU*col + ShearU*row + TranslateE
//	northing = ShearV*col + PixelSizeV*row + TranslateN
type Affine struct {
	PixelSizeU float64 `json:"pixel_size_u"`
	ShearU     float64 `json:"shear_u"`
	TranslateE float64 `json:"translate_e"`
	ShearV     float64 `json:"shear_v"`
	PixelSizeV float64 `json:"pixel_size_v"`
	TranslateN float64 `json:"translate_n"`
}

// FromGDAL converts a GDAL geotransform (origin x, pixel width, row
// rotation, origin y, column rotation, pixel height) into an Affine.
func FromGDAL(gt [6]float64) Affine {
	return Affine{
		TranslateE: gt[0],
		PixelSizeU: gt[1],
		ShearU:     gt[2],
		TranslateN: gt[3],
		ShearV:     gt[4],
		PixelSizeV: gt[5],
	}
}

// GDAL is the inverse of FromGDAL.
func (a Affine) GDAL() [6]float64 {
	return [6]float64{a.TranslateE, a.PixelSizeU, a.ShearU, a.TranslateN, a.ShearV, a.PixelSizeV}
}

func (a Affine) determinant() float64 {
	return a.PixelSizeU*a.PixelSizeV - a.ShearU*a.ShearV
}

// Validate fails for transforms that cannot be inverted.
func (a Affine) Validate() error {
	for _, c := range a.GDAL() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: affine coefficients must be finite: %+v", geom.ErrBadParameter, a)
		}
	}
	if a.determinant() == 0 {
		return fmt.Errorf("%w: affine transform is singular: %+v", geom.ErrBadParameter, a)
	}
	return nil
}

// Forward returns the planar coordinate of the (col, row) pixel corner.
func (a Affine) Forward(col, row float64) (easting, northing float64) {
	easting = a.PixelSizeU*col + a.ShearU*row + a.TranslateE
	northing = a.ShearV*col + a.PixelSizeV*row + a.TranslateN
	return
}

// Inverse returns the fractional (col, row) of a planar coordinate.
func (a Affine) Inverse(easting, northing float64) (col, row float64) {
	det := a.determinant()
	x := easting - a.TranslateE
	y := northing - a.TranslateN
	col = (a.PixelSizeV*x - a.ShearU*y) / det
	row = (a.PixelSizeU*y - a.ShearV*x) / det
	return
}

// RowCol returns the raster cell containing (easting, northing). It does not
// check bounds; use Index for that.
func (a Affine) RowCol(easting, northing float64) (row, col int) {
	c, r := a.Inverse(easting, northing)
	return int(math.Floor(r)), int(math.Floor(c))
}

// ExtentError describes a coordinate that maps outside the raster.
type ExtentError struct {
	Easting  float64
	Northing float64
	Row      int
	Col      int
	Width    int
	Height   int
}

func (e *ExtentError) Error() string {
	return fmt.Sprintf("%v: (%.3f, %.3f) maps to row %d col %d, raster is %d x %d",
		ErrExtentInsufficient, e.Easting, e.Northing, e.Row, e.Col, e.Width, e.Height)
}

func (e *ExtentError) Unwrap() error {
	return ErrExtentInsufficient
}

// Index returns the cell containing (easting, northing) in a raster of
// width x height cells. Coordinates outside the raster are never clamped.
func (a Affine) Index(easting, northing float64, width, height int) (row, col int, err error) {
	row, col = a.RowCol(easting, northing)
	if row < 0 || col < 0 || row >= height || col >= width {
		return row, col, &ExtentError{
			Easting:  easting,
			Northing: northing,
			Row:      row,
			Col:      col,
			Width:    width,
			Height:   height,
		}
	}
	return row, col, nil
}

// Extent returns the planar footprint of a width x height raster.
func (a Affine) Extent(width, height int) geom.BoundingBox {
	w, h := float64(width), float64(height)
	corners := []geom.Point{}
	for _, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		e, n := a.Forward(c[0], c[1])
		corners = append(corners, geom.Point{Easting: e, Northing: n})
	}
	b, _ := geom.Bounds(corners)
	return b
}
