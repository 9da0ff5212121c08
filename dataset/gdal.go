package dataset

import (
	"fmt"
	"log/slog"

	"github.com/lukeroth/gdal"

	"github.com/larschri/horisont/transform"
)

// Reader reads elevation data from a file.
type Reader interface {
	ReadFile(fname string) (*Grid, error)
}

// GDALReader reads band 1 of any raster format GDAL understands.
type GDALReader struct {
	// Log defaults to slog.Default().
	Log *slog.Logger
}

func (r GDALReader) ReadFile(fname string) (*Grid, error) {
	logger := r.Log
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("reading raster", "file", fname)
	ds, err := gdal.Open(fname, gdal.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fname, err)
	}
	defer ds.Close()

	if ds.RasterCount() < 1 {
		return nil, fmt.Errorf("%s has no raster bands", fname)
	}

	xsize := ds.RasterXSize()
	ysize := ds.RasterYSize()
	buf := make([]float32, xsize*ysize)
	band := ds.RasterBand(1)
	if err := band.IO(gdal.Read, 0, 0, xsize, ysize, buf, xsize, ysize, 0, 0); err != nil {
		return nil, fmt.Errorf("read elevation buffer from %s: %w", fname, err)
	}

	grid, err := NewGrid(xsize, ysize, transform.FromGDAL(ds.GeoTransform()), buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	grid.NoData, grid.HasNoData = band.NoDataValue()
	return grid, nil
}
