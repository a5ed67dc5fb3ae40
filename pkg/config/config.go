// Package config provides configuration loading and management.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/user/moviebarcode/pkg/adapters/s3store"
	"github.com/user/moviebarcode/pkg/adapters/smartsource"
	"github.com/user/moviebarcode/pkg/orchestrator"
	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

var (
	// ErrInvalidWorkers is returned when workers is below one.
	ErrInvalidWorkers = errors.New("config: workers must be at least 1")
	// ErrInvalidQuality is returned when jpeg_quality is outside 1-100.
	ErrInvalidQuality = errors.New("config: jpeg_quality must be between 1 and 100")
	// ErrInvalidSigma is returned when smooth_sigma is negative.
	ErrInvalidSigma = errors.New("config: smooth_sigma must not be negative")
)

// Config represents the full configuration for moviebarcode.
// Values are layered: Defaults, then a YAML file, then the environment,
// then command line flags.
type Config struct {
	// Generation
	BarWidth    int    `yaml:"bar_width"`
	ImageWidth  int    `yaml:"width"`
	ImageHeight int    `yaml:"height"` // 0 takes the height of the input
	Mode        string `yaml:"mode"`
	Smooth      bool   `yaml:"smooth"`
	Overwrite   bool   `yaml:"overwrite"`
	Recursive   bool   `yaml:"recursive"`

	// Output
	SmoothSigma float64 `yaml:"smooth_sigma"`
	JPEGQuality int     `yaml:"jpeg_quality"`

	// Decoding
	FFmpegPath     string        `yaml:"ffmpeg_path" env:"FFMPEG_PATH, overwrite"`
	FFprobePath    string        `yaml:"ffprobe_path" env:"FFPROBE_PATH, overwrite"`
	DecoderTimeout time.Duration `yaml:"decoder_timeout" env:"MOVIEBARCODE_DECODER_TIMEOUT, overwrite"`
	DisableNative  bool          `yaml:"disable_native_probe"`

	// Execution
	Workers  int    `yaml:"workers" env:"MOVIEBARCODE_WORKERS, overwrite"`
	LogLevel string `yaml:"log_level" env:"MOVIEBARCODE_LOG_LEVEL, overwrite"`

	// Debug
	DebugDir string `yaml:"debug_dir" env:"MOVIEBARCODE_DEBUG_DIR, overwrite"`

	// Upload
	S3 S3Config `yaml:"s3" env:", prefix=MOVIEBARCODE_S3_"`
}

// S3Config configures the optional upload of generated images.
type S3Config struct {
	Bucket          string `yaml:"bucket" env:"BUCKET, overwrite"`
	Region          string `yaml:"region" env:"REGION, overwrite"`
	Prefix          string `yaml:"prefix" env:"PREFIX, overwrite"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT, overwrite"`
	AccessKeyID     string `yaml:"-" env:"ACCESS_KEY_ID, overwrite"`
	SecretAccessKey string `yaml:"-" env:"SECRET_ACCESS_KEY, overwrite"`
}

// Enabled reports whether uploads are configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		BarWidth:    1,
		ImageWidth:  1000,
		Mode:        string(pipeline.ModeResize),
		JPEGQuality: 90,
		Workers:     1,
		LogLevel:    "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides c with the environment variables that are set.
// A nil lookuper reads the process environment.
func (c *Config) ApplyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   c,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks the settings that are not covered by parameter validation.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidQuality
	}
	if c.SmoothSigma < 0 {
		return ErrInvalidSigma
	}
	return nil
}

// RawParameters builds the generation request for one input file.
// Numbers stay textual; their validation belongs to the validate stage.
func (c Config) RawParameters(input, output string) pipeline.RawParameters {
	raw := pipeline.RawParameters{
		InputPath:        input,
		OutputPath:       output,
		BarWidth:         strconv.Itoa(c.BarWidth),
		ImageWidth:       strconv.Itoa(c.ImageWidth),
		GenerateSmoothed: c.Smooth,
		Overwrite:        c.Overwrite,
		Mode:             c.Mode,
	}
	if c.ImageHeight == 0 {
		raw.UseInputHeight = true
	} else {
		raw.ImageHeight = strconv.Itoa(c.ImageHeight)
	}
	return raw
}

// SourceOptions returns the frame source settings.
func (c Config) SourceOptions() smartsource.Options {
	return smartsource.Options{
		FFmpegPath:     c.FFmpegPath,
		FFprobePath:    c.FFprobePath,
		DecoderTimeout: c.DecoderTimeout,
		DisableNative:  c.DisableNative,
	}
}

// StoreConfig returns the S3 upload settings.
func (c Config) StoreConfig() s3store.Config {
	return s3store.Config{
		Bucket:          c.S3.Bucket,
		Region:          c.S3.Region,
		Prefix:          c.S3.Prefix,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
	}
}

// ToOrchestratorOptions converts Config to orchestrator.Options.
// The store is created by the caller because it needs a context.
func (c Config) ToOrchestratorOptions(store ports.ObjectStore) orchestrator.Options {
	return orchestrator.Options{
		SmoothSigma: c.SmoothSigma,
		JPEGQuality: c.JPEGQuality,
		Store:       store,
	}
}

// Level returns the configured log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}
