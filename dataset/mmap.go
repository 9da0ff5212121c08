package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/larschri/horisont/transform"
)

var mmapMagic = [8]byte{'h', 'o', 'r', 'i', 's', 'o', 'n', '2'}

// mmapHeader is stored at the start of a cache file, followed by
// XSize*YSize float32 heights. SourceSize and SourceModTime identify the
// version of the source file the cache was built from.
type mmapHeader struct {
	Magic         [8]byte
	XSize         int64
	YSize         int64
	GeoTransform  [6]float64
	NoData        float64
	HasNoData     int64
	SourceSize    int64
	SourceModTime int64
}

const headerSize = int(unsafe.Sizeof(mmapHeader{}))

var (
	errShortRead  = errors.New("short raster cache file")
	errStaleCache = errors.New("raster cache built from another version of the source")
)

// MmapRaster is a Raster backed by a read-only memory mapping. It is safe for
// concurrent use.
type MmapRaster struct {
	data    []byte
	header  *mmapHeader
	affine  transform.Affine
	heights []float32
}

func (m *MmapRaster) Width() int                  { return int(m.header.XSize) }
func (m *MmapRaster) Height() int                 { return int(m.header.YSize) }
func (m *MmapRaster) Transform() transform.Affine { return m.affine }

func (m *MmapRaster) Elevation(row, col int) float64 {
	return float64(m.heights[row*int(m.header.XSize)+col])
}

func (m *MmapRaster) noData() (float64, bool) {
	return m.header.NoData, m.header.HasNoData != 0
}

// Close unmaps the file.
func (m *MmapRaster) Close() error {
	if m.data == nil {
		return nil
	}
	err := syscall.Munmap(m.data)
	m.data = nil
	return err
}

// cacheName derives the cache file from the absolute source path, so
// sources with the same base name in different directories never share a
// cache.
func cacheName(cacheDir, absFname string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s-%016x.mmap", filepath.Base(absFname), xxhash.Sum64String(absFname)))
}

func (h *mmapHeader) matches(source fs.FileInfo) bool {
	return h.SourceSize == source.Size() && h.SourceModTime == source.ModTime().UnixNano()
}

// LoadAsMmap returns the raster in fname through a cache file in cacheDir.
// The cache is rebuilt with reader when it is missing, was built from
// another size or modification time of fname, or is not a valid cache file.
// A nil logger means slog.Default().
func LoadAsMmap(reader Reader, fname string, cacheDir string, logger *slog.Logger) (*MmapRaster, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absFname, err := filepath.Abs(fname)
	if err != nil {
		return nil, err
	}
	fileInfo, err := os.Stat(absFname)
	if err != nil {
		return nil, err
	}
	mmapFname := cacheName(cacheDir, absFname)

	m, err := openMmapped(mmapFname)
	if err == nil {
		if m.header.matches(fileInfo) {
			return m, nil
		}
		m.Close()
		err = errStaleCache
	}
	if !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("rebuilding raster cache", "file", mmapFname, "source", absFname, "error", err)
	}

	if err := writeMmapped(reader, absFname, fileInfo, mmapFname); err != nil {
		return nil, err
	}
	return openMmapped(mmapFname)
}

func writeMmapped(reader Reader, fname string, source fs.FileInfo, mmapFname string) error {
	grid, err := reader.ReadFile(fname)
	if err != nil {
		return err
	}

	header := mmapHeader{
		Magic:         mmapMagic,
		XSize:         int64(grid.XSize),
		YSize:         int64(grid.YSize),
		GeoTransform:  grid.Affine.GDAL(),
		NoData:        grid.NoData,
		SourceSize:    source.Size(),
		SourceModTime: source.ModTime().UnixNano(),
	}
	if grid.HasNoData {
		header.HasNoData = 1
	}

	buf := make([]byte, 0, headerSize+4*len(grid.Heights))
	buf = append(buf, unsafe.Slice((*byte)(unsafe.Pointer(&header)), headerSize)...)
	if len(grid.Heights) > 0 {
		buf = append(buf, unsafe.Slice((*byte)(unsafe.Pointer(&grid.Heights[0])), 4*len(grid.Heights))...)
	}

	// Write to a temporary name so concurrent readers never map a partial file.
	tmp := mmapFname + ".tmp"
	if err := os.WriteFile(tmp, buf, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, mmapFname)
}

func openMmapped(fname string) (*MmapRaster, error) {
	file, err := os.OpenFile(fname, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < int64(headerSize) {
		return nil, fmt.Errorf("%s: %w", fname, errShortRead)
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(info.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	header := (*mmapHeader)(unsafe.Pointer(&data[0]))
	cells := header.XSize * header.YSize
	if header.Magic != mmapMagic || header.XSize <= 0 || header.YSize <= 0 ||
		int64(len(data)) != int64(headerSize)+4*cells {
		_ = syscall.Munmap(data)
		return nil, fmt.Errorf("%s: not a raster cache file", fname)
	}

	affine := transform.FromGDAL(header.GeoTransform)
	if err := affine.Validate(); err != nil {
		_ = syscall.Munmap(data)
		return nil, fmt.Errorf("%s: %w", fname, err)
	}

	return &MmapRaster{
		data:    data,
		header:  header,
		affine:  affine,
		heights: unsafe.Slice((*float32)(unsafe.Pointer(&data[headerSize])), cells),
	}, nil
}

// Open opens the raster in fname. With a cacheDir the raster is served from a
// shared memory mapping, otherwise it is read into memory. A nil logger means
// slog.Default().
func Open(fname string, cacheDir string, logger *slog.Logger) (Raster, error) {
	reader := GDALReader{Log: logger}
	if cacheDir == "" {
		g, err := reader.ReadFile(fname)
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	m, err := LoadAsMmap(reader, fname, cacheDir, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}
