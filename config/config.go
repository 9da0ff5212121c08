package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Raster   RasterConfig   `mapstructure:"raster"`
	Points   PointsConfig   `mapstructure:"points"`
	Plan     PlanConfig     `mapstructure:"plan"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

type RasterConfig struct {
	Path     string `mapstructure:"path"`
	CacheDir string `mapstructure:"cache_dir"`
}

type PointsConfig struct {
	Path string `mapstructure:"path"`
}

type PlanConfig struct {
	Method          string  `mapstructure:"method"`
	Lines           int     `mapstructure:"lines"`
	LineLength      float64 `mapstructure:"line_length"`
	Segments        int     `mapstructure:"segments"`
	Workers         int     `mapstructure:"workers"`
	PointWorkers    int     `mapstructure:"point_workers"`
	CheckCoverage   bool    `mapstructure:"check_coverage"`
	Cutoff          float64 `mapstructure:"cutoff"`
	MinOpenFraction float64 `mapstructure:"min_open_fraction"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the PostgreSQL point source. An empty DSN disables it.
type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	Session string `mapstructure:"session"`
}

// NATSConfig selects the profile publisher. An empty URL disables it.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: HORISONT_PLAN_LINES → plan.lines
	v.SetEnvPrefix("HORISONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return decode(v)
}

// SetDefaults registers every key with its default value. Keys must be
// registered for AutomaticEnv to pick them up during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("raster.path", "")
	v.SetDefault("raster.cache_dir", os.TempDir())
	v.SetDefault("points.path", "")
	v.SetDefault("plan.method", "CONVENTIONAL")
	v.SetDefault("plan.lines", 400)
	v.SetDefault("plan.line_length", 1000.0)
	v.SetDefault("plan.segments", 1000)
	v.SetDefault("plan.workers", runtime.NumCPU())
	v.SetDefault("plan.point_workers", 1)
	v.SetDefault("plan.check_coverage", true)
	v.SetDefault("plan.cutoff", 10.0)
	v.SetDefault("plan.min_open_fraction", 0.75)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.session", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "horisont.profile")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are sane. It does not require
// raster.path or points.path; the commands that need them check for them.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToUpper(c.Plan.Method) {
	case "CONVENTIONAL", "RANSAC":
	default:
		errs = append(errs, fmt.Sprintf("plan.method must be CONVENTIONAL or RANSAC, got %q", c.Plan.Method))
	}
	if c.Plan.Lines <= 0 {
		errs = append(errs, fmt.Sprintf("plan.lines must be positive, got %d", c.Plan.Lines))
	}
	if !(c.Plan.LineLength > 0) {
		errs = append(errs, fmt.Sprintf("plan.line_length must be positive, got %v", c.Plan.LineLength))
	}
	if c.Plan.Segments <= 0 {
		errs = append(errs, fmt.Sprintf("plan.segments must be positive, got %d", c.Plan.Segments))
	}
	if c.Plan.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("plan.workers must be positive, got %d", c.Plan.Workers))
	}
	if c.Plan.PointWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("plan.point_workers must be positive, got %d", c.Plan.PointWorkers))
	}
	if c.Plan.Cutoff < 0 || c.Plan.Cutoff >= 100 {
		errs = append(errs, fmt.Sprintf("plan.cutoff must be in [0, 100) gon, got %v", c.Plan.Cutoff))
	}
	if c.Plan.MinOpenFraction < 0 || c.Plan.MinOpenFraction > 1 {
		errs = append(errs, fmt.Sprintf("plan.min_open_fraction must be in [0, 1], got %v", c.Plan.MinOpenFraction))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.DSN != "" && c.Database.Session == "" {
		errs = append(errs, "database.session is required when database.dsn is set")
	}
	if c.NATS.URL != "" && c.NATS.SubjectPrefix == "" {
		errs = append(errs, "nats.subject_prefix is required when nats.url is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
