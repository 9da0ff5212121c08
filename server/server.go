// Package server exposes planned obstruction profiles over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/larschri/horisont/dataset"
	"github.com/larschri/horisont/geom"
	"github.com/larschri/horisont/metrics"
	"github.com/larschri/horisont/observation"
	"github.com/larschri/horisont/plan"
	"github.com/larschri/horisont/render"
	"github.com/larschri/horisont/transform"
)

// Bounds on what a single request may ask for. Lines and segments size the
// per-request allocations.
const (
	maxImageSize = 4096
	maxLines     = 4000
	maxSegments  = 100_000
)

var errUnknownPoint = errors.New("unknown observation point")

type Server struct {
	Raster  dataset.Raster
	Points  *observation.Set
	Planner *plan.Planner

	// Cutoff (gon) and MinOpenFraction are used to assess profiles.
	Cutoff          float64
	MinOpenFraction float64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Listener net.Listener
	Log      *slog.Logger
}

// APIError is the body of every failed request.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type profileResponse struct {
	plan.Result
	Assessment plan.Assessment `json:"assessment"`
}

func (srv *Server) logger() *slog.Logger {
	if srv.Log == nil {
		return slog.Default()
	}
	return srv.Log
}

func queryInt(c *fiber.Ctx, key string, value int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return value, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to parse '%s': %v", geom.ErrBadParameter, key, err)
	}
	return v, nil
}

func queryFloat(c *fiber.Ctx, key string, value float64) (float64, error) {
	s := c.Query(key)
	if s == "" {
		return value, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: failed to parse '%s': %q", geom.ErrBadParameter, key, s)
	}
	return v, nil
}

func imageSize(c *fiber.Ctx, key string, value int) (int, error) {
	v, err := queryInt(c, key, value)
	if err != nil {
		return 0, err
	}
	if v < 1 || v > maxImageSize {
		return 0, fmt.Errorf("%w: '%s' must be between 1 and %d, got %d", geom.ErrBadParameter, key, maxImageSize, v)
	}
	return v, nil
}

// requestToPlanner applies the query overrides lines, length, segments and
// method to the server's planner.
func (srv *Server) requestToPlanner(c *fiber.Ctx) (*plan.Planner, error) {
	opts := srv.Planner.Options()
	method := srv.Planner.Method()
	if c.Query("lines") == "" && c.Query("length") == "" &&
		c.Query("segments") == "" && c.Query("method") == "" {
		return srv.Planner, nil
	}

	var err error
	if opts.Lines, err = queryInt(c, "lines", opts.Lines); err != nil {
		return nil, err
	}
	if opts.LineLength, err = queryFloat(c, "length", opts.LineLength); err != nil {
		return nil, err
	}
	if opts.Segments, err = queryInt(c, "segments", opts.Segments); err != nil {
		return nil, err
	}
	if opts.Lines > maxLines {
		return nil, fmt.Errorf("%w: 'lines' must be at most %d, got %d", geom.ErrBadParameter, maxLines, opts.Lines)
	}
	if opts.Segments > maxSegments {
		return nil, fmt.Errorf("%w: 'segments' must be at most %d, got %d", geom.ErrBadParameter, maxSegments, opts.Segments)
	}
	if s := c.Query("method"); s != "" {
		if method, err = plan.ParseMethod(s); err != nil {
			return nil, err
		}
	}
	return srv.Planner.With(method, opts)
}

func (srv *Server) requestToPoint(c *fiber.Ctx) (observation.Point, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return observation.Point{}, fmt.Errorf("%w: %v", geom.ErrBadParameter, err)
	}
	p, ok := srv.Points.ByName(name)
	if !ok {
		return observation.Point{}, fmt.Errorf("%w: %q", errUnknownPoint, name)
	}
	return p, nil
}

func (srv *Server) profile(c *fiber.Ctx) (plan.Result, error) {
	point, err := srv.requestToPoint(c)
	if err != nil {
		return plan.Result{}, err
	}
	planner, err := srv.requestToPlanner(c)
	if err != nil {
		return plan.Result{}, err
	}
	return planner.Plan(c.UserContext(), point)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errUnknownPoint):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, geom.ErrBadParameter):
		return fiber.StatusBadRequest, "bad_parameter"
	case errors.Is(err, transform.ErrExtentInsufficient):
		return fiber.StatusUnprocessableEntity, "extent_insufficient"
	case errors.Is(err, plan.ErrMethodNotImplemented):
		return fiber.StatusNotImplemented, "not_implemented"
	}
	return fiber.StatusInternalServerError, "internal_error"
}

func (srv *Server) writeJSONResponse(c *fiber.Ctx, result interface{}, err error) error {
	if err != nil {
		status, code := statusOf(err)
		if status == fiber.StatusInternalServerError {
			srv.logger().Error("request failed", "path", c.Path(), "error", err)
		}
		return c.Status(status).JSON(APIError{Status: status, Code: code, Message: err.Error()})
	}
	return c.JSON(result)
}

func (srv *Server) handleHealth(c *fiber.Ctx) error {
	return srv.writeJSONResponse(c, fiber.Map{
		"status": "ok",
		"points": srv.Points.Len(),
		"raster": fiber.Map{
			"width":  srv.Raster.Width(),
			"height": srv.Raster.Height(),
			"extent": dataset.Extent(srv.Raster),
		},
	}, nil)
}

func (srv *Server) handlePoints(c *fiber.Ctx) error {
	return srv.writeJSONResponse(c, srv.Points, nil)
}

func (srv *Server) handleBoundingBox(c *fiber.Ctx) error {
	buffer, err := queryFloat(c, "buffer", srv.Planner.Options().LineLength)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	box, err := srv.Points.BoundingBox()
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	return srv.writeJSONResponse(c, box.Buffer(buffer), nil)
}

func (srv *Server) handleProfile(c *fiber.Ctx) error {
	res, err := srv.profile(c)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	return srv.writeJSONResponse(c, profileResponse{
		Result:     res,
		Assessment: res.Assess(srv.Cutoff, srv.MinOpenFraction),
	}, nil)
}

func (srv *Server) handlePanorama(c *fiber.Ctx) error {
	width, err := imageSize(c, "width", 800)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	height, err := imageSize(c, "height", 200)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	res, err := srv.profile(c)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	return srv.writeImage(c, render.Panorama(res, srv.Cutoff, width, height))
}

func (srv *Server) handlePolar(c *fiber.Ctx) error {
	size, err := imageSize(c, "size", 400)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	res, err := srv.profile(c)
	if err != nil {
		return srv.writeJSONResponse(c, nil, err)
	}
	return srv.writeImage(c, render.Polar(res, srv.Cutoff, size))
}

func (srv *Server) writeImage(c *fiber.Ctx, img image.Image) error {
	var buf bytes.Buffer
	if err := render.Encode(&buf, img); err != nil {
		srv.logger().Error("failed during image encoding", "error", err)
		return srv.writeJSONResponse(c, nil, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// App returns the fiber application with every route registered.
func (srv *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           srv.ReadTimeout,
		WriteTimeout:          srv.WriteTimeout,
		AppName:               "horisont",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	app.Get("/metrics", metrics.Handler())

	v1 := app.Group("/v1")
	v1.Get("/health", srv.handleHealth)
	v1.Get("/points", srv.handlePoints)
	v1.Get("/bbox", srv.handleBoundingBox)
	v1.Get("/points/:name/profile", srv.handleProfile)
	v1.Get("/points/:name/panorama.png", srv.handlePanorama)
	v1.Get("/points/:name/polar.png", srv.handlePolar)

	return app
}

// shutdownWhenDone shuts app down when the given context is cancelled.
// This function will block until context cancellation.
func (srv *Server) shutdownWhenDone(ctx context.Context, app *fiber.App) {
	srv.logger().Info("server started", "addr", srv.Listener.Addr().String())
	<-ctx.Done()

	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.logger().Info("terminating server")
	if err := app.ShutdownWithContext(c); err != nil {
		srv.logger().Error("forced shutdown", "error", err)
	}
}

// Serve handles requests on srv.Listener until ctx is cancelled.
func (srv *Server) Serve(ctx context.Context) error {
	app := srv.App()

	go srv.shutdownWhenDone(ctx, app)

	err := app.Listener(srv.Listener)

	if ctx.Err() == nil {
		return err
	}

	srv.logger().Info("server stopped")
	return nil
}
