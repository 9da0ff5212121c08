// Package plan profiles observation points against an elevation raster.
//
// For every point, N sight-lines are cast at equal azimuth spacing. Each
// line is sampled independently on a bounded pool of workers and reduced to
// its maximum elevation angle. The per-line angles are reassembled in
// azimuth order regardless of completion order.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/larschri/horisont/dataset"
	"github.com/larschri/horisont/geom"
	"github.com/larschri/horisont/metrics"
	"github.com/larschri/horisont/observation"
	"github.com/larschri/horisont/trace"
	"github.com/larschri/horisont/transform"
)

// Options control the sight-line geometry and the worker pools.
type Options struct {
	Lines      int
	LineLength float64
	// Segments is the requested number of samples per line. It is reduced
	// when samples would be closer than one pixel.
	Segments int
	// Workers bounds the number of lines sampled at once for one point.
	// Zero means runtime.NumCPU().
	Workers int
	// PointWorkers bounds the number of points planned at once by PlanSet.
	// Zero means one.
	PointWorkers int
	// CheckCoverage rejects a point before sampling when its sight-line
	// square is not inside the raster.
	CheckCoverage bool
}

// DefaultOptions returns 400 lines of 1000 m with 1000 segments each.
func DefaultOptions() Options {
	return Options{
		Lines:         400,
		LineLength:    1000,
		Segments:      1000,
		Workers:       runtime.NumCPU(),
		PointWorkers:  1,
		CheckCoverage: true,
	}
}

// Validate reports the first option that is out of range.
func (o Options) Validate() error {
	switch {
	case o.Lines < 1:
		return fmt.Errorf("%w: number of lines must be positive, got %d", geom.ErrBadParameter, o.Lines)
	case !(o.LineLength > 0):
		return fmt.Errorf("%w: line length must be positive, got %v", geom.ErrBadParameter, o.LineLength)
	case o.Segments < 1:
		return fmt.Errorf("%w: number of segments must be positive, got %d", geom.ErrBadParameter, o.Segments)
	case o.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", geom.ErrBadParameter, o.Workers)
	case o.PointWorkers < 0:
		return fmt.Errorf("%w: point workers must not be negative, got %d", geom.ErrBadParameter, o.PointWorkers)
	}
	return nil
}

// Planner profiles points against one shared raster. It is safe for
// concurrent use.
type Planner struct {
	raster dataset.Raster
	method Method
	opts   Options
	log    *slog.Logger
}

// New returns a Planner. A nil logger means slog.Default().
func New(raster dataset.Raster, method Method, opts Options, logger *slog.Logger) (*Planner, error) {
	if raster == nil {
		return nil, fmt.Errorf("%w: raster is required", geom.ErrBadParameter)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.PointWorkers == 0 {
		opts.PointWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{raster: raster, method: method, opts: opts, log: logger}, nil
}

// Options returns the options the planner was created with.
func (p *Planner) Options() Options {
	return p.opts
}

// Method returns the planning method.
func (p *Planner) Method() Method {
	return p.method
}

// With returns a planner sharing the raster and logger but using another
// method and options.
func (p *Planner) With(method Method, opts Options) (*Planner, error) {
	return New(p.raster, method, opts, p.log)
}

// Plan profiles one point. A failure on any sight-line fails the whole point
// with a *PointError; no partial result is returned.
func (p *Planner) Plan(ctx context.Context, point observation.Point) (Result, error) {
	start := time.Now()

	var res Result
	err := point.Validate()
	if err == nil {
		switch p.method {
		case Conventional:
			res, err = p.conventional(ctx, point)
		case Ransac:
			err = &PointError{Point: point.Name, Azimuth: -1, Err: ErrMethodNotImplemented}
		}
	}
	if err != nil {
		var perr *PointError
		if !errors.As(err, &perr) {
			err = &PointError{Point: point.Name, Azimuth: -1, Err: err}
		}
		if errors.Is(err, transform.ErrExtentInsufficient) {
			metrics.ExtentFailures.Inc()
		}
		metrics.PointsTotal.WithLabelValues(p.method.String(), "failed").Inc()
		p.log.Warn("planning failed", "point", point.Name, "method", p.method, "error", err)
		return Result{}, err
	}

	elapsed := time.Since(start)
	metrics.PointsTotal.WithLabelValues(p.method.String(), "ok").Inc()
	metrics.PointDuration.WithLabelValues(p.method.String()).Observe(elapsed.Seconds())
	p.log.Info("planned point",
		"point", point.Name,
		"lines", len(res.Angles),
		"segments", res.Segments,
		"duration", elapsed)
	return res, nil
}

func (p *Planner) conventional(ctx context.Context, point observation.Point) (Result, error) {
	affine := p.raster.Transform()
	segments, err := geom.EffectiveSegments(p.opts.Segments, p.opts.LineLength, affine.PixelSizeU)
	if err != nil {
		return Result{}, err
	}
	if segments < p.opts.Segments {
		p.log.Debug("segment count reduced to raster resolution",
			"point", point.Name, "requested", p.opts.Segments, "segments", segments)
	}

	lines, err := geom.RadialLines(point.Location(), p.opts.Lines, p.opts.LineLength)
	if err != nil {
		return Result{}, err
	}

	if p.opts.CheckCoverage {
		if err := covers(p.raster, lines); err != nil {
			return Result{}, err
		}
	}

	sampler := trace.Sampler{Raster: p.raster, EyeHeight: point.EyeHeight()}
	angles := make([]float64, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, line := range lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			profile, err := sampler.TraceLine(line, segments)
			if err != nil {
				return &PointError{Point: point.Name, Azimuth: i, Err: err}
			}
			angles[i] = profile.MaxElevationAngle()
			metrics.LinesTotal.Inc()
			p.log.Debug("sampled line",
				"point", point.Name,
				"azimuth", i,
				"segments", segments,
				"angle", angles[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	for i := range angles {
		angles[i] = geom.RadToGon(angles[i])
	}
	return Result{
		Point:      point,
		Method:     Conventional,
		LineLength: p.opts.LineLength,
		Segments:   segments,
		Azimuths:   geom.AzimuthsGon(len(lines)),
		Angles:     angles,
	}, nil
}

// covers checks that the box around the start and every end point of lines
// lies inside the raster. Lines only reach the axis extremes of the
// point ± length square when their count is a multiple of four, so the box
// is built from the lines themselves.
func covers(r dataset.Raster, lines []geom.Line) error {
	points := make([]geom.Point, 0, len(lines)+1)
	points = append(points, lines[0].Start)
	for _, l := range lines {
		points = append(points, l.End)
	}
	box, err := geom.Bounds(points)
	if err != nil {
		return err
	}
	return dataset.Covers(r, box)
}
