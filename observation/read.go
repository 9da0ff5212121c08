package observation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedInput is returned for point records with the wrong number of
// fields or fields that are not numbers.
var ErrMalformedInput = errors.New("malformed input")

// RecordError reports a rejected record. Record is 1-based.
type RecordError struct {
	Record int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Record, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ReadPoints reads one point per line:
//
//	name,easting,northing,floor_height[,antenna_height]
//
// Blank lines are skipped. The first bad record stops the read.
func ReadPoints(r io.Reader) (*Set, error) {
	set := &Set{}
	scanner := bufio.NewScanner(r)
	record := 0
	for scanner.Scan() {
		record++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		p, err := ParseRecord(strings.Split(line, ","))
		if err == nil {
			err = set.Add(p)
		}
		if err != nil {
			return nil, &RecordError{Record: record, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// ReadPointsFile reads a point list from a file.
func ReadPointsFile(fname string) (*Set, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return set, nil
}

// ParseRecord converts the fields of one record into a point. It does not
// validate the numbers beyond parsing them.
func ParseRecord(fields []string) (Point, error) {
	if len(fields) != 4 && len(fields) != 5 {
		return Point{}, fmt.Errorf("%w: want 4 or 5 fields, got %d", ErrMalformedInput, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
		if fields[i] == "" {
			return Point{}, fmt.Errorf("%w: field %d is empty", ErrMalformedInput, i+1)
		}
	}

	p := Point{Name: fields[0], AntennaHeight: DefaultAntennaHeight}
	numbers := []*float64{&p.Easting, &p.Northing, &p.FloorHeight, &p.AntennaHeight}
	for i, field := range fields[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Point{}, fmt.Errorf("%w: field %d: %v", ErrMalformedInput, i+2, err)
		}
		*numbers[i] = v
	}
	return p, nil
}
