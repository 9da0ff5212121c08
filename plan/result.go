package plan

import (
	"github.com/larschri/horisont/observation"
)

// Result is the obstruction profile of one point. Azimuths and Angles are
// in gon and sorted by ascending azimuth.
type Result struct {
	Point      observation.Point `json:"point"`
	Method     Method            `json:"method"`
	LineLength float64           `json:"line_length"`
	Segments   int               `json:"segments"`
	Azimuths   []float64         `json:"azimuths"`
	Angles     []float64         `json:"angles"`
}

// Assessment summarises a Result against a cut-off elevation.
type Assessment struct {
	Cutoff       float64 `json:"cutoff"`
	Obstructed   int     `json:"obstructed"`
	OpenFraction float64 `json:"open_fraction"`
	WorstAzimuth float64 `json:"worst_azimuth"`
	WorstAngle   float64 `json:"worst_angle"`
	Suitable     bool    `json:"suitable"`
}

// Assess counts the azimuths obstructed above cutoff (gon). The point is
// suitable when at least minOpenFraction of the azimuths are open.
func (r Result) Assess(cutoff, minOpenFraction float64) Assessment {
	a := Assessment{Cutoff: cutoff, OpenFraction: 1}
	if len(r.Angles) == 0 {
		a.Suitable = a.OpenFraction >= minOpenFraction
		return a
	}

	a.WorstAzimuth, a.WorstAngle = r.Azimuths[0], r.Angles[0]
	for i, angle := range r.Angles {
		if angle > cutoff {
			a.Obstructed++
		}
		if angle > a.WorstAngle {
			a.WorstAzimuth, a.WorstAngle = r.Azimuths[i], angle
		}
	}
	a.OpenFraction = float64(len(r.Angles)-a.Obstructed) / float64(len(r.Angles))
	a.Suitable = a.OpenFraction >= minOpenFraction
	return a
}
