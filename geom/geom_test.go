package geom

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func TestRadialLinesAzimuthSpacing(t *testing.T) {
	center := Point{Easting: 2600000, Northing: 1200000}
	for _, n := range []int{1, 2, 3, 4, 7, 16, 400} {
		lines, err := RadialLines(center, n, 250)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(lines) != n {
			t.Fatalf("n=%d: got %d lines", n, len(lines))
		}
		for i, l := range lines {
			if l.Start != center {
				t.Errorf("n=%d line %d: start %v, want %v", n, i, l.Start, center)
			}
			if got := l.Length(); math.Abs(got-250)/250 > tolerance {
				t.Errorf("n=%d line %d: length %f, want 250", n, i, got)
			}
			de, dn := l.Delta()
			az := math.Atan2(de, dn)
			if az < 0 {
				az += 2 * math.Pi
			}
			want := 2 * math.Pi * float64(i) / float64(n)
			if diff := math.Abs(az - want); diff > 1e-9 && math.Abs(diff-2*math.Pi) > 1e-9 {
				t.Errorf("n=%d line %d: azimuth %f, want %f", n, i, az, want)
			}
		}
	}
}

func TestRadialLinesCardinalDirections(t *testing.T) {
	lines, err := RadialLines(Point{}, 4, 100)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{0, 100}, {100, 0}, {0, -100}, {-100, 0}}
	for i, l := range lines {
		if math.Abs(l.End.Easting-want[i].Easting) > 1e-9 || math.Abs(l.End.Northing-want[i].Northing) > 1e-9 {
			t.Errorf("line %d ends at %v, want %v", i, l.End, want[i])
		}
	}
}

func TestRadialLinesBadParameter(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		length float64
	}{
		{"zero lines", 0, 100},
		{"negative lines", -3, 100},
		{"zero length", 4, 0},
		{"negative length", 4, -1},
		{"nan length", 4, math.NaN()},
		{"infinite length", 4, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RadialLines(Point{}, tt.n, tt.length)
			if !errors.Is(err, ErrBadParameter) {
				t.Fatalf("expected ErrBadParameter, got %v", err)
			}
		})
	}
}

func TestAzimuthsGon(t *testing.T) {
	got := AzimuthsGon(4)
	want := []float64{0, 100, 200, 300}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("azimuth %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSegmentPartition(t *testing.T) {
	line := Line{Start: Point{10, 20}, End: Point{70, 100}} // length 100
	for _, n := range []int{1, 3, 10, 99} {
		samples, err := Segment(line, n)
		if err != nil {
			t.Fatal(err)
		}
		if len(samples) != n {
			t.Fatalf("n=%d: got %d samples", n, len(samples))
		}
		prev := 0.0
		for i, s := range samples {
			if s.Distance <= prev {
				t.Fatalf("n=%d: distance not strictly increasing at %d: %f <= %f", n, i, s.Distance, prev)
			}
			prev = s.Distance
		}
		last := samples[n-1]
		if math.Abs(last.Distance-100) > tolerance {
			t.Errorf("n=%d: last distance %f, want 100", n, last.Distance)
		}
		if math.Abs(last.Easting-70) > tolerance || math.Abs(last.Northing-100) > tolerance {
			t.Errorf("n=%d: last sample at (%f, %f), want line end", n, last.Easting, last.Northing)
		}
	}
}

func TestSegmentRejectsNonPositiveCount(t *testing.T) {
	if _, err := Segment(Line{End: Point{1, 1}}, 0); !errors.Is(err, ErrBadParameter) {
		t.Fatalf("expected ErrBadParameter, got %v", err)
	}
}

func TestEffectiveSegments(t *testing.T) {
	tests := []struct {
		requested int
		length    float64
		pixel     float64
		want      int
	}{
		{10, 100, 1, 10},
		{1000, 100, 1, 100},
		{1000, 100, 0.5, 200},
		{150, 100, 0.75, 133},
		{100, 100, 1, 100},
		{5, 0.4, 0.5, 0},
		{1000, 100, -2, 50}, // pixel size along u may be stored negative
	}
	for _, tt := range tests {
		got, err := EffectiveSegments(tt.requested, tt.length, tt.pixel)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", tt, err)
		}
		if got != tt.want {
			t.Errorf("EffectiveSegments(%d, %v, %v) = %d, want %d", tt.requested, tt.length, tt.pixel, got, tt.want)
		}
	}

	if _, err := EffectiveSegments(0, 100, 1); !errors.Is(err, ErrBadParameter) {
		t.Errorf("expected ErrBadParameter for zero segments, got %v", err)
	}
	if _, err := EffectiveSegments(10, 100, 0); !errors.Is(err, ErrBadParameter) {
		t.Errorf("expected ErrBadParameter for zero pixel size, got %v", err)
	}
}

func TestBoundingBoxBuffer(t *testing.T) {
	b := BoundingBox{EMin: 10, EMax: 20, NMin: -5, NMax: 5}
	for _, d := range []float64{0, 1.5, 100, -2, -5} {
		got := b.Buffer(d)
		want := BoundingBox{EMin: 10 - d, EMax: 20 + d, NMin: -5 - d, NMax: 5 + d}
		if got != want {
			t.Errorf("Buffer(%v) = %+v, want %+v", d, got, want)
		}
	}
}

func TestBounds(t *testing.T) {
	b, err := Bounds([]Point{{3, 4}, {-1, 10}, {7, -2}})
	if err != nil {
		t.Fatal(err)
	}
	want := BoundingBox{EMin: -1, EMax: 7, NMin: -2, NMax: 10}
	if b != want {
		t.Fatalf("got %+v, want %+v", b, want)
	}
	if !b.Buffer(1).Contains(b) || b.Contains(b.Buffer(1)) {
		t.Error("Contains does not agree with Buffer")
	}

	if _, err := Bounds(nil); !errors.Is(err, ErrBadParameter) {
		t.Errorf("expected ErrBadParameter for empty input, got %v", err)
	}
}

func TestGonConversion(t *testing.T) {
	if got := RadToGon(math.Pi); math.Abs(got-200) > tolerance {
		t.Errorf("RadToGon(pi) = %f", got)
	}
	if got := GonToRad(RadToGon(1.2345)); math.Abs(got-1.2345) > tolerance {
		t.Errorf("round trip gave %f", got)
	}
}
