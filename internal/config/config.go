package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dpup/prefab"

	"github.com/dpup/geocalc/internal/cache"
	"github.com/dpup/geocalc/internal/lib/calculator"
	"github.com/dpup/geocalc/internal/lib/ellipsoid"
	"github.com/dpup/geocalc/internal/lib/polyline"
	"github.com/dpup/geocalc/internal/lib/proximity"
)

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete geocalc configuration. It lives under the "geo"
// key of prefab.yaml and may be overridden with PF__GEO__ environment variables.
type Config struct {
	Calculator CalculatorConfig `koanf:"calculator" yaml:"calculator"`
	Polyline   PolylineConfig   `koanf:"polyline" yaml:"polyline"`
	Batch      BatchConfig      `koanf:"batch" yaml:"batch"`
	Cache      CacheConfig      `koanf:"cache" yaml:"cache"`
	Proximity  ProximityConfig  `koanf:"proximity" yaml:"proximity"`
}

// CalculatorConfig selects and tunes the solver
type CalculatorConfig struct {
	Solver     string  `koanf:"solver" yaml:"solver"`
	Ellipsoid  string  `koanf:"ellipsoid" yaml:"ellipsoid"`
	Allowed    float64 `koanf:"allowed" yaml:"allowed"`
	Iterations int     `koanf:"iterations" yaml:"iterations"`
}

// PolylineConfig holds encoded polyline settings
type PolylineConfig struct {
	Precision int `koanf:"precision" yaml:"precision"`
}

// BatchConfig sizes the worker pool; zero means one worker per CPU
type BatchConfig struct {
	Workers int `koanf:"workers" yaml:"workers"`
}

// CacheConfig controls memoization of vertex to path distances during
// proximity classification
type CacheConfig struct {
	Enabled bool          `koanf:"enabled" yaml:"enabled"`
	TTL     time.Duration `koanf:"ttl" yaml:"ttl"`
	Cleanup time.Duration `koanf:"cleanup" yaml:"cleanup"` // expired entry sweep interval
}

// ProximityConfig holds the distances, in meters, used to classify shapes
// against reference paths
type ProximityConfig struct {
	OnPath      float64 `koanf:"onpath" yaml:"onpath"`
	MaxDistance float64 `koanf:"maxdistance" yaml:"maxdistance"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Calculator: CalculatorConfig{
			Solver:     calculator.Ellipsoidal.String(),
			Ellipsoid:  ellipsoid.WGS84.String(),
			Allowed:    calculator.DefaultAllowed,
			Iterations: calculator.DefaultMaxIterations,
		},
		Polyline: PolylineConfig{
			Precision: polyline.DefaultPrecision,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
			Cleanup: time.Minute,
		},
		Proximity: ProximityConfig{
			OnPath:      proximity.DefaultOnPathThreshold,
			MaxDistance: 16093.4, // 10 miles
		},
	}
}

// Load returns the defaults overlaid with the "geo" section of prefab's config
// (prefab.yaml and PF__ prefixed environment variables)
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := prefab.Config.Unmarshal("geo", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal geo section: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if _, err := calculator.ParseKind(c.Calculator.Solver); err != nil {
		return fmt.Errorf("%w: calculator.solver: %w", ErrInvalid, err)
	}
	if _, err := ellipsoid.Parse(c.Calculator.Ellipsoid); err != nil {
		return fmt.Errorf("%w: calculator.ellipsoid: %w", ErrInvalid, err)
	}
	if c.Calculator.Allowed < 0 {
		return fmt.Errorf("%w: calculator.allowed must not be negative, got %v", ErrInvalid, c.Calculator.Allowed)
	}
	if c.Calculator.Iterations < 1 {
		return fmt.Errorf("%w: calculator.iterations must be at least 1, got %d", ErrInvalid, c.Calculator.Iterations)
	}
	if c.Polyline.Precision < 0 || c.Polyline.Precision > polyline.MaxPrecision {
		return fmt.Errorf("%w: polyline.precision must be within 0..%d, got %d",
			ErrInvalid, polyline.MaxPrecision, c.Polyline.Precision)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers must not be negative, got %d", ErrInvalid, c.Batch.Workers)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative, got %v", ErrInvalid, c.Cache.TTL)
	}
	if c.Cache.Cleanup < 0 {
		return fmt.Errorf("%w: cache.cleanup must not be negative, got %v", ErrInvalid, c.Cache.Cleanup)
	}
	if c.Proximity.OnPath < 0 {
		return fmt.Errorf("%w: proximity.onpath must not be negative, got %v", ErrInvalid, c.Proximity.OnPath)
	}
	if c.Proximity.MaxDistance < c.Proximity.OnPath {
		return fmt.Errorf("%w: proximity.maxdistance %v is below proximity.onpath %v",
			ErrInvalid, c.Proximity.MaxDistance, c.Proximity.OnPath)
	}
	return nil
}

// NewCalculator builds the configured calculator
func (c *Config) NewCalculator() (calculator.Calculator, error) {
	kind, err := calculator.ParseKind(c.Calculator.Solver)
	if err != nil {
		return nil, err
	}
	e, err := ellipsoid.Parse(c.Calculator.Ellipsoid)
	if err != nil {
		return nil, err
	}
	return calculator.New(kind,
		calculator.WithEllipsoid(e),
		calculator.WithAllowed(c.Calculator.Allowed),
		calculator.WithMaxIterations(c.Calculator.Iterations),
	)
}

// Encoder builds the configured polyline encoder
func (c *Config) Encoder() (*polyline.Encoder, error) {
	return polyline.NewEncoder(c.Polyline.Precision)
}

// Matcher builds a proximity matcher on calc using the configured threshold and
// batch workers, memoizing distances in a fresh cache when caching is enabled
func (c *Config) Matcher(calc calculator.Calculator) *proximity.PathMatcher {
	opts := []proximity.Option{
		proximity.WithOnPathThreshold(c.Proximity.OnPath),
		proximity.WithWorkers(c.Batch.Workers),
	}
	if c.Cache.Enabled {
		opts = append(opts, proximity.WithCache(cache.New(), c.Cache.TTL))
	}
	return proximity.NewMatcher(calc, opts...)
}
