package postgres

import (
	"errors"
	"math"
	"testing"

	"github.com/larschri/horisont/observation"
)

func str(s string) *string { return &s }
func num(f float64) *float64 { return &f }

func TestPointRow(t *testing.T) {
	p, err := pointRow{
		Name:        str("P7"),
		Easting:     num(596000),
		Northing:    num(6643000),
		FloorHeight: num(112.5),
	}.point()
	if err != nil {
		t.Fatal(err)
	}
	want := observation.Point{Name: "P7", Easting: 596000, Northing: 6643000, FloorHeight: 112.5, AntennaHeight: 2}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}

	p, err = pointRow{
		Name: str("P8"), Easting: num(1), Northing: num(2), FloorHeight: num(3), AntennaHeight: num(1.5),
	}.point()
	if err != nil || p.AntennaHeight != 1.5 {
		t.Errorf("got %+v, %v", p, err)
	}
}

func TestPointRowMissingColumns(t *testing.T) {
	rows := []pointRow{
		{Easting: num(1), Northing: num(2), FloorHeight: num(3)},
		{Name: str(""), Easting: num(1), Northing: num(2), FloorHeight: num(3)},
		{Name: str("P"), Northing: num(2), FloorHeight: num(3)},
		{Name: str("P"), Easting: num(1), FloorHeight: num(3)},
		{Name: str("P"), Easting: num(1), Northing: num(2)},
	}
	for i, r := range rows {
		if _, err := r.point(); !errors.Is(err, observation.ErrMalformedInput) {
			t.Errorf("row %d: got %v, want malformed input", i, err)
		}
	}
}

func TestPointRowLeavesValidationToSet(t *testing.T) {
	p, err := pointRow{Name: str("P"), Easting: num(math.Inf(1)), Northing: num(0), FloorHeight: num(0)}.point()
	if err != nil {
		t.Fatal(err)
	}
	if err := (&observation.Set{}).Add(p); err == nil {
		t.Error("non-finite easting accepted")
	}
}
