package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/larschri/horisont/config"
	"github.com/larschri/horisont/dataset"
	"github.com/larschri/horisont/logging"
	"github.com/larschri/horisont/natspub"
	"github.com/larschri/horisont/observation"
	"github.com/larschri/horisont/plan"
	"github.com/larschri/horisont/postgres"
	"github.com/larschri/horisont/render"
	"github.com/larschri/horisont/server"
)

const usage = `usage: horisont <command> [flags]

commands:
  plan    profile every observation point and print the results
  bbox    print the buffered bounding box of the observation points
  serve   serve profiles over HTTP
`

var errPointsFailed = errors.New("some points could not be planned")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "plan":
		err = runPlan(ctx, cfg, os.Args[2:], os.Stdout)
	case "bbox":
		err = runBoundingBox(ctx, cfg, os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(ctx, cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// sourceFlags registers the flags shared by every command. Defaults come
// from cfg, so flags override the configuration file and environment.
func sourceFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Points.Path, "points", cfg.Points.Path, "CSV point list")
	fs.StringVar(&cfg.Database.Session, "session", cfg.Database.Session, "survey session to load from PostgreSQL")
}

func planFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Raster.Path, "raster", cfg.Raster.Path, "elevation raster")
	fs.StringVar(&cfg.Raster.CacheDir, "cache-dir", cfg.Raster.CacheDir, "directory for memory-mapped raster caches, empty to read into memory")
	fs.StringVar(&cfg.Plan.Method, "method", cfg.Plan.Method, "planning method: CONVENTIONAL or RANSAC")
	fs.IntVar(&cfg.Plan.Lines, "lines", cfg.Plan.Lines, "number of sight-lines per point")
	fs.Float64Var(&cfg.Plan.LineLength, "length", cfg.Plan.LineLength, "sight-line length in metres")
	fs.IntVar(&cfg.Plan.Segments, "segments", cfg.Plan.Segments, "samples per sight-line")
	fs.IntVar(&cfg.Plan.Workers, "workers", cfg.Plan.Workers, "sight-lines sampled concurrently per point")
	fs.IntVar(&cfg.Plan.PointWorkers, "point-workers", cfg.Plan.PointWorkers, "points planned concurrently")
	fs.Float64Var(&cfg.Plan.Cutoff, "cutoff", cfg.Plan.Cutoff, "cut-off elevation in gon")
}

func parse(fs *pflag.FlagSet, cfg *config.Config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cfg.Validate()
}

func loadPoints(ctx context.Context, cfg *config.Config) (*observation.Set, error) {
	switch {
	case cfg.Points.Path != "":
		return observation.ReadPointsFile(cfg.Points.Path)
	case cfg.Database.DSN != "":
		db, err := postgres.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		return postgres.NewPointSource(db).Load(ctx, cfg.Database.Session)
	}
	return nil, errors.New("no point source: set points.path or database.dsn")
}

func newPlanner(cfg *config.Config) (*plan.Planner, dataset.Raster, error) {
	if cfg.Raster.Path == "" {
		return nil, nil, errors.New("raster.path is required")
	}
	method, err := plan.ParseMethod(cfg.Plan.Method)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	raster, err := dataset.Open(cfg.Raster.Path, cfg.Raster.CacheDir, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	slog.Info("opened raster",
		"path", cfg.Raster.Path,
		"width", raster.Width(),
		"height", raster.Height(),
		"duration", time.Since(start))

	planner, err := plan.New(raster, method, plan.Options{
		Lines:         cfg.Plan.Lines,
		LineLength:    cfg.Plan.LineLength,
		Segments:      cfg.Plan.Segments,
		Workers:       cfg.Plan.Workers,
		PointWorkers:  cfg.Plan.PointWorkers,
		CheckCoverage: cfg.Plan.CheckCoverage,
	}, slog.Default())
	if err != nil {
		dataset.Close(raster)
		return nil, nil, err
	}
	return planner, raster, nil
}

func runPlan(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("plan", pflag.ContinueOnError)
	sourceFlags(fs, cfg)
	planFlags(fs, cfg)
	out := fs.String("out", "", "directory to write panorama and polar diagrams to")
	publish := fs.Bool("publish", cfg.NATS.URL != "", "publish results to NATS")
	if err := parse(fs, cfg, args); err != nil {
		return err
	}

	set, err := loadPoints(ctx, cfg)
	if err != nil {
		return err
	}
	planner, raster, err := newPlanner(cfg)
	if err != nil {
		return err
	}
	defer dataset.Close(raster)

	rep := reporter{
		cutoff:          cfg.Plan.Cutoff,
		minOpenFraction: cfg.Plan.MinOpenFraction,
		out:             *out,
	}
	if *publish {
		if cfg.NATS.URL == "" {
			return errors.New("--publish requires nats.url")
		}
		pub, err := natspub.NewPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
		defer pub.Close()
		rep.pub = pub
	}

	return rep.report(ctx, stdout, set, planner.PlanSet(ctx, set))
}

type publisher interface {
	Publish(ctx context.Context, res plan.Result) error
}

// reporter prints one table row per point and writes diagrams and publishes
// results for the points that succeeded.
type reporter struct {
	cutoff          float64
	minOpenFraction float64
	out             string
	pub             publisher
}

// report handles every outcome before returning. The error joins the failed
// points with any diagram that could not be written.
func (r reporter) report(ctx context.Context, stdout io.Writer, set *observation.Set, outcomes []plan.Outcome) error {
	var errs []error

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tSTATUS\tOBSTRUCTED\tOPEN\tWORST AZ\tWORST ANGLE\tSUITABLE")
	for i, o := range outcomes {
		name := set.Points[i].Name
		if o.Err != nil {
			fmt.Fprintf(w, "%s\tfailed\t\t\t\t\t%v\n", name, o.Err)
			continue
		}
		a := o.Result.Assess(r.cutoff, r.minOpenFraction)
		fmt.Fprintf(w, "%s\tok\t%d/%d\t%.0f%%\t%.1f\t%.1f\t%t\n",
			name, a.Obstructed, len(o.Result.Angles), 100*a.OpenFraction, a.WorstAzimuth, a.WorstAngle, a.Suitable)

		if r.out != "" {
			if err := writeDiagrams(r.out, o.Result, r.cutoff); err != nil {
				slog.Warn("writing diagrams failed", "point", name, "error", err)
				errs = append(errs, fmt.Errorf("point %q: %w", name, err))
			}
		}
		if r.pub != nil {
			if err := r.pub.Publish(ctx, o.Result); err != nil {
				slog.Warn("publish failed", "point", name, "error", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if n := plan.Failed(outcomes); n > 0 {
		errs = append([]error{fmt.Errorf("%w: %d of %d", errPointsFailed, n, len(outcomes))}, errs...)
	}
	return errors.Join(errs...)
}

// diagramName is the file name of a diagram of point. Path separators and
// other characters that are unsafe in file names are replaced with '_', so
// the file always lands directly in the output directory.
func diagramName(point, suffix string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == ':', r < ' ':
			return '_'
		}
		return r
	}, point)
	return fmt.Sprintf("%s-%s.png", safe, suffix)
}

func writeDiagrams(dir string, res plan.Result, cutoff float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	diagrams := []struct {
		suffix string
		img    image.Image
	}{
		{"panorama", render.Panorama(res, cutoff, 800, 200)},
		{"polar", render.Polar(res, cutoff, 400)},
	}
	for _, d := range diagrams {
		fname := filepath.Join(dir, diagramName(res.Point.Name, d.suffix))
		if err := writePNG(fname, d.img); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(fname string, img image.Image) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := render.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", fname, err)
	}
	return f.Close()
}

func runBoundingBox(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("bbox", pflag.ContinueOnError)
	sourceFlags(fs, cfg)
	buffer := fs.Float64("buffer", cfg.Plan.LineLength, "buffer around the points in metres")
	if err := parse(fs, cfg, args); err != nil {
		return err
	}

	set, err := loadPoints(ctx, cfg)
	if err != nil {
		return err
	}
	box, err := set.BoundingBox()
	if err != nil {
		return err
	}
	box = box.Buffer(*buffer)
	_, err = fmt.Fprintf(stdout, "%.3f %.3f %.3f %.3f\n", box.EMin, box.NMin, box.EMax, box.NMax)
	return err
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	sourceFlags(fs, cfg)
	planFlags(fs, cfg)
	fs.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP port")
	if err := parse(fs, cfg, args); err != nil {
		return err
	}

	set, err := loadPoints(ctx, cfg)
	if err != nil {
		return err
	}
	planner, raster, err := newPlanner(cfg)
	if err != nil {
		return err
	}
	defer dataset.Close(raster)

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return err
	}

	srv := &server.Server{
		Raster:          raster,
		Points:          set,
		Planner:         planner,
		Cutoff:          cfg.Plan.Cutoff,
		MinOpenFraction: cfg.Plan.MinOpenFraction,
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeout) * time.Second,
		Listener:        l,
	}
	return srv.Serve(ctx)
}
