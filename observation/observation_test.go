package observation

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/larschri/horisont/geom"
)

func TestPointValidate(t *testing.T) {
	good := Point{Name: "P1", Easting: 2600000, Northing: 1200000, FloorHeight: 500, AntennaHeight: 2}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Point{
		{Name: "", Easting: 1, Northing: 1},
		{Name: "P", Easting: math.NaN()},
		{Name: "P", Northing: math.Inf(-1)},
		{Name: "P", FloorHeight: math.Inf(1)},
		{Name: "P", AntennaHeight: math.NaN()},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, geom.ErrBadParameter) {
			t.Errorf("%+v: expected ErrBadParameter, got %v", p, err)
		}
	}
}

func TestNewPointDefaultsAntennaHeight(t *testing.T) {
	p, err := NewPoint("P1", 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if p.AntennaHeight != DefaultAntennaHeight {
		t.Errorf("antenna height %v, want %v", p.AntennaHeight, DefaultAntennaHeight)
	}
	if p.EyeHeight() != 5 {
		t.Errorf("eye height %v, want 5", p.EyeHeight())
	}
}

func TestSetByNameReturnsFirstMatch(t *testing.T) {
	var s Set
	for _, p := range []Point{
		{Name: "A", Easting: 1},
		{Name: "B", Easting: 2},
		{Name: "A", Easting: 3},
	} {
		if err := s.Add(p); err != nil {
			t.Fatal(err)
		}
	}

	p, ok := s.ByName("A")
	if !ok || p.Easting != 1 {
		t.Errorf("ByName(A) = %+v, %v", p, ok)
	}
	if _, ok := s.ByName("C"); ok {
		t.Error("ByName(C) found a point")
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestSetAddRejectsInvalid(t *testing.T) {
	var s Set
	if err := s.Add(Point{}); !errors.Is(err, geom.ErrBadParameter) {
		t.Fatalf("expected ErrBadParameter, got %v", err)
	}
	if s.Len() != 0 {
		t.Error("invalid point was stored")
	}
}

func TestSetBoundingBox(t *testing.T) {
	s := Set{Points: []Point{
		{Name: "A", Easting: 2600100, Northing: 1200050},
		{Name: "B", Easting: 2600000, Northing: 1200300},
		{Name: "C", Easting: 2600250, Northing: 1200000},
	}}
	b, err := s.BoundingBox()
	if err != nil {
		t.Fatal(err)
	}
	want := geom.BoundingBox{EMin: 2600000, EMax: 2600250, NMin: 1200000, NMax: 1200300}
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}
	if got := b.Buffer(1000); got.EMin != 2599000 || got.NMax != 1201300 {
		t.Errorf("buffered box %+v", got)
	}

	var empty Set
	if _, err := empty.BoundingBox(); !errors.Is(err, geom.ErrBadParameter) {
		t.Errorf("expected ErrBadParameter for empty set, got %v", err)
	}
}

func TestReadPoints(t *testing.T) {
	input := `P1,2600000.5,1200000.25,512.3,1.8
P2, 2600100, 1200100, 500

P3,2600200,1200200,490,2.5
`
	set, err := ReadPoints(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 3 {
		t.Fatalf("got %d points, want 3", set.Len())
	}
	want := Point{Name: "P1", Easting: 2600000.5, Northing: 1200000.25, FloorHeight: 512.3, AntennaHeight: 1.8}
	if set.Points[0] != want {
		t.Errorf("got %+v, want %+v", set.Points[0], want)
	}
	if set.Points[1].AntennaHeight != DefaultAntennaHeight {
		t.Errorf("missing antenna height not defaulted: %+v", set.Points[1])
	}
}

func TestReadPointsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		record int
		want   error
	}{
		{"too few fields", "P1,1,2\n", 1, ErrMalformedInput},
		{"too many fields", "P1,1,2,3,4,5\n", 1, ErrMalformedInput},
		{"empty field", "P1,1,,3,2\n", 1, ErrMalformedInput},
		{"not a number", "P1,1,2,3,2\nP2,east,2,3,2\n", 2, ErrMalformedInput},
		{"empty name", ",1,2,3,2\n", 1, ErrMalformedInput},
		{"non finite", "P1,1,2,NaN,2\n", 1, geom.ErrBadParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPoints(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var recErr *RecordError
			if !errors.As(err, &recErr) || recErr.Record != tt.record {
				t.Fatalf("expected RecordError for record %d, got %v", tt.record, err)
			}
		})
	}
}
