package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/larschri/horisont/geom"
)

// Method selects how sight-lines are evaluated for a point.
type Method string

const (
	// Conventional samples every sight-line against the raster.
	Conventional Method = "CONVENTIONAL"
	// Ransac is reserved for a robust-fit variant and is not implemented.
	Ransac Method = "RANSAC"
)

// ErrMethodNotImplemented is returned when a point is planned with Ransac.
var ErrMethodNotImplemented = errors.New("planning method not implemented")

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case Conventional, Ransac:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown planning method %q", geom.ErrBadParameter, s)
}

func (m Method) String() string {
	return string(m)
}
