package postgres

import (
	"context"
	"fmt"

	"github.com/larschri/horisont/observation"
)

const loadPointsSQL = `
	SELECT name, easting, northing, floor_height, antenna_height
	FROM observation_points
	WHERE session = $1
	ORDER BY ordinal
`

// PointSource reads observation sets from the observation_points table.
type PointSource struct {
	db *DB
}

// NewPointSource creates a new PointSource.
func NewPointSource(db *DB) *PointSource {
	return &PointSource{db: db}
}

// pointRow is one row of observation_points. Every column is nullable.
type pointRow struct {
	Name          *string
	Easting       *float64
	Northing      *float64
	FloorHeight   *float64
	AntennaHeight *float64
}

func (r pointRow) point() (observation.Point, error) {
	if r.Name == nil || *r.Name == "" {
		return observation.Point{}, fmt.Errorf("%w: name is missing", observation.ErrMalformedInput)
	}
	p := observation.Point{Name: *r.Name, AntennaHeight: observation.DefaultAntennaHeight}
	required := []struct {
		column string
		value  *float64
		dst    *float64
	}{
		{"easting", r.Easting, &p.Easting},
		{"northing", r.Northing, &p.Northing},
		{"floor_height", r.FloorHeight, &p.FloorHeight},
	}
	for _, c := range required {
		if c.value == nil {
			return observation.Point{}, fmt.Errorf("%w: point %q: %s is missing", observation.ErrMalformedInput, p.Name, c.column)
		}
		*c.dst = *c.value
	}
	if r.AntennaHeight != nil {
		p.AntennaHeight = *r.AntennaHeight
	}
	return p, nil
}

// Load returns the points of one survey session in ordinal order. Rows are
// checked like records of a point list; the first bad row fails the load.
func (s *PointSource) Load(ctx context.Context, session string) (*observation.Set, error) {
	rows, err := s.db.Pool.Query(ctx, loadPointsSQL, session)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	set := &observation.Set{}
	record := 0
	for rows.Next() {
		record++
		var r pointRow
		if err := rows.Scan(&r.Name, &r.Easting, &r.Northing, &r.FloorHeight, &r.AntennaHeight); err != nil {
			return nil, &observation.RecordError{Record: record, Err: fmt.Errorf("%w: %v", observation.ErrMalformedInput, err)}
		}
		p, err := r.point()
		if err == nil {
			err = set.Add(p)
		}
		if err != nil {
			return nil, &observation.RecordError{Record: record, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read points: %w", err)
	}
	return set, nil
}
