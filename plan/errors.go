package plan

import "fmt"

// PointError reports why one observation point could not be profiled.
type PointError struct {
	Point string
	// Azimuth is the index of the failing sight-line, or -1 when the
	// failure is not tied to one line.
	Azimuth int
	Err     error
}

func (e *PointError) Error() string {
	if e.Azimuth < 0 {
		return fmt.Sprintf("point %q: %v", e.Point, e.Err)
	}
	return fmt.Sprintf("point %q azimuth %d: %v", e.Point, e.Azimuth, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}
