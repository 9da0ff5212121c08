package trace

import (
	"fmt"

	"github.com/larschri/horisont/dataset"
	"github.com/larschri/horisont/geom"
)

// Sampler measures samples against one observer. It only reads the raster,
// so a Sampler can be shared between goroutines.
type Sampler struct {
	Raster    dataset.Raster
	EyeHeight float64
}

// Measure looks up the terrain below every sample. Any sample outside the
// raster fails the whole profile; no partial profile is returned.
func (s Sampler) Measure(samples []geom.Sample) (Profile, error) {
	profile := Profile{Segments: make([]Segment, 0, len(samples))}
	for _, sample := range samples {
		height, err := dataset.Lookup(s.Raster, sample.Easting, sample.Northing)
		if err != nil {
			return Profile{}, fmt.Errorf("sample at %.1f m: %w", sample.Distance, err)
		}
		profile.Add(Segment{
			Sample:      sample,
			Measurement: Measure(height-s.EyeHeight, sample.Distance),
		})
	}
	return profile, nil
}

// TraceLine segments line into n samples and measures them.
func (s Sampler) TraceLine(line geom.Line, n int) (Profile, error) {
	if n == 0 {
		return Profile{}, nil
	}

	samples, err := geom.Segment(line, n)
	if err != nil {
		return Profile{}, err
	}
	return s.Measure(samples)
}
