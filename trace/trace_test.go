package trace

import (
	"errors"
	"math"
	"testing"

	"github.com/larschri/horisont/dataset"
	"github.com/larschri/horisont/geom"
	"github.com/larschri/horisont/transform"
)

// 201 x 201 one-metre cells centred on the origin
var origin = transform.Affine{PixelSizeU: 1, TranslateE: -100.5, PixelSizeV: -1, TranslateN: 100.5}

func flat(t testing.TB, height float32) *dataset.Grid {
	g, err := dataset.Flat(201, 201, origin, height)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestElevationAngleMonotonic(t *testing.T) {
	for _, d := range []float64{0.5, 10, 1000} {
		if got := ElevationAngle(0, d); got != 0 {
			t.Errorf("ElevationAngle(0, %v) = %v, want 0", d, got)
		}
		prev := math.Inf(-1)
		for h := -500.0; h <= 500; h += 12.5 {
			a := ElevationAngle(h, d)
			if a <= prev {
				t.Fatalf("not increasing at h=%v d=%v", h, d)
			}
			if (h > 0) != (a > 0) {
				t.Fatalf("sign mismatch at h=%v: %v", h, a)
			}
			prev = a
		}
	}
}

func TestMeasureDerivesAngleFromHeight(t *testing.T) {
	m := Measure(48, 10)
	if m.HeightDifference != 48 || m.ElevationAngle != math.Atan(4.8) {
		t.Errorf("got %+v", m)
	}
}

func TestEmptyProfile(t *testing.T) {
	var p Profile
	if got := p.MaxElevationAngle(); got != 0 {
		t.Errorf("MaxElevationAngle of empty profile = %v, want 0", got)
	}
	if _, ok := p.Worst(); ok {
		t.Error("Worst of empty profile reported a segment")
	}
}

func TestMaxElevationAngle(t *testing.T) {
	var p Profile
	for i, h := range []float64{-3, 5, 2, -1} {
		d := float64(10 * (i + 1))
		p.Add(Segment{Sample: geom.Sample{Distance: d}, Measurement: Measure(h, d)})
	}
	if got, want := p.MaxElevationAngle(), math.Atan(5.0/20); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if w, _ := p.Worst(); w.Distance != 20 {
		t.Errorf("worst segment at %v, want 20", w.Distance)
	}
}

func TestTraceLineFlatAbove(t *testing.T) {
	s := Sampler{Raster: flat(t, 50), EyeHeight: 2}
	lines, err := geom.RadialLines(geom.Point{}, 4, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i, line := range lines {
		p, err := s.TraceLine(line, 10)
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if len(p.Segments) != 10 {
			t.Fatalf("line %d: %d segments", i, len(p.Segments))
		}
		for _, seg := range p.Segments {
			if seg.HeightDifference != 48 {
				t.Fatalf("line %d: height difference %v, want 48", i, seg.HeightDifference)
			}
		}
		w, _ := p.Worst()
		if math.Abs(w.Distance-10) > 1e-9 {
			t.Errorf("line %d: worst sample at %v, want 10", i, w.Distance)
		}
		if got := p.MaxElevationAngle(); math.Abs(got-math.Atan(4.8)) > 1e-12 {
			t.Errorf("line %d: max angle %v rad, want atan(48/10)", i, got)
		}
		if got := geom.RadToGon(p.MaxElevationAngle()); math.Abs(got-86.924) > 1e-3 {
			t.Errorf("line %d: max angle %v gon, want 86.924", i, got)
		}
	}
}

func TestTraceLineFlatBelow(t *testing.T) {
	s := Sampler{Raster: flat(t, 1), EyeHeight: 2}
	line := geom.Line{End: geom.Point{Easting: 100}}
	p, err := s.TraceLine(line, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, seg := range p.Segments {
		if seg.ElevationAngle >= 0 {
			t.Fatalf("angle %v at %v should be negative", seg.ElevationAngle, seg.Distance)
		}
	}
	w, _ := p.Worst()
	if math.Abs(w.Distance-100) > 1e-9 {
		t.Errorf("worst sample at %v, want 100", w.Distance)
	}
	if got := p.MaxElevationAngle(); math.Abs(got-(-0.00999967)) > 1e-6 {
		t.Errorf("max angle %v rad, want -0.0099997", got)
	}
	if got := geom.RadToGon(p.MaxElevationAngle()); math.Abs(got-(-0.6366)) > 1e-3 {
		t.Errorf("max angle %v gon, want -0.6366", got)
	}
}

func TestTraceLineOutsideRaster(t *testing.T) {
	s := Sampler{Raster: flat(t, 10), EyeHeight: 2}
	line := geom.Line{End: geom.Point{Northing: 150}}
	p, err := s.TraceLine(line, 15)
	if !errors.Is(err, transform.ErrExtentInsufficient) {
		t.Fatalf("expected ErrExtentInsufficient, got %v", err)
	}
	var extentErr *transform.ExtentError
	if !errors.As(err, &extentErr) || extentErr.Row >= 0 {
		t.Errorf("expected extent error above the raster, got %v", err)
	}
	if len(p.Segments) != 0 {
		t.Error("partial profile returned")
	}
}

func TestTraceLineZeroSegments(t *testing.T) {
	s := Sampler{Raster: flat(t, 10), EyeHeight: 2}
	p, err := s.TraceLine(geom.Line{End: geom.Point{Easting: 0.5}}, 0)
	if err != nil || len(p.Segments) != 0 || p.MaxElevationAngle() != 0 {
		t.Errorf("got %+v, %v", p, err)
	}
}

func BenchmarkTraceLine(b *testing.B) {
	s := Sampler{Raster: flat(b, 50), EyeHeight: 2}
	line := geom.Line{End: geom.Point{Easting: 70, Northing: 70}}
	for i := 0; i < b.N; i++ {
		if _, err := s.TraceLine(line, 99); err != nil {
			b.Fatal(err)
		}
	}
}
