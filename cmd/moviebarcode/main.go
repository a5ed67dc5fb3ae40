// Package main provides the CLI entry point for moviebarcode.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/user/moviebarcode/pkg/adapters/filesink"
	"github.com/user/moviebarcode/pkg/adapters/ggrenderer"
	"github.com/user/moviebarcode/pkg/adapters/logger"
	"github.com/user/moviebarcode/pkg/adapters/nullsink"
	"github.com/user/moviebarcode/pkg/adapters/osfilesystem"
	"github.com/user/moviebarcode/pkg/adapters/s3store"
	"github.com/user/moviebarcode/pkg/adapters/smartsource"
	"github.com/user/moviebarcode/pkg/config"
	"github.com/user/moviebarcode/pkg/orchestrator"
	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
	"github.com/user/moviebarcode/pkg/stages/composite"
	"github.com/user/moviebarcode/pkg/stages/encode"
	"github.com/user/moviebarcode/pkg/stages/smooth"
	"github.com/user/moviebarcode/pkg/stages/validate"
	"github.com/user/moviebarcode/pkg/summarizer"
)

var version = "dev"

// Exit codes.
const (
	exitFailed    = 1
	exitUsage     = 2
	exitCancelled = 130
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailed)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "moviebarcode",
		Usage:     l10n.T("Generate movie barcodes from video files"),
		UsageText: "moviebarcode [options] --in <file|dir|pattern> [--out <file|dir>]",
		Version:   version,
		Flags:     generateFlags(),
		Action:    runGenerate,

		// File names may contain commas.
		DisableSliceFlagSeparator: true,

		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     l10n.T("Generate barcodes (default command)"),
				ArgsUsage: "[inputs...]",
				Flags:     generateFlags(),
				Action:    runGenerate,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("moviebarcode version %s", version))
					return nil
				},
			},
		},
	}
}

func generateFlags() []cli.Flag {
	input := l10n.T("Input and Output")
	barcode := l10n.T("Barcode")
	decoding := l10n.T("Decoding")
	execution := l10n.T("Execution")
	logging := l10n.T("Logging")

	return []cli.Flag{
		&cli.StringSliceFlag{Name: "in", Aliases: []string{"i", "input"}, Category: input,
			Usage: l10n.T("Input file, directory or wildcard pattern (repeatable)")},
		&cli.StringFlag{Name: "out", Aliases: []string{"o", "output"}, Category: input,
			Usage: l10n.T("Output file or directory (default: current directory)")},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"x"}, Category: input,
			Usage: l10n.T("Overwrite existing files instead of skipping them")},
		&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Category: input,
			Usage: l10n.T("Browse input directories recursively")},
		&cli.StringFlag{Name: "summary", Category: input,
			Usage: l10n.T("Write a Markdown summary of the batch to this file")},

		&cli.StringFlag{Name: "width", Aliases: []string{"w"}, Category: barcode,
			Usage: l10n.F("Width of the output image (default: %s)", pipeline.DefaultImageWidth)},
		&cli.StringFlag{Name: "height", Aliases: []string{"H"}, Category: barcode,
			Usage: l10n.T("Height of the output image (default: input height)")},
		&cli.StringFlag{Name: "barwidth", Aliases: []string{"b", "barWidth"}, Category: barcode,
			Usage: l10n.F("Width of each bar (default: %s)", pipeline.DefaultBarWidth)},
		&cli.BoolFlag{Name: "smooth", Aliases: []string{"s"}, Category: barcode,
			Usage: l10n.T("Also generate a smoothed version suffixed with '_smoothed'")},
		&cli.StringFlag{Name: "mode", Category: barcode,
			Usage: l10n.T("Strip reduction mode (resize, average)")},

		&cli.StringFlag{Name: "ffmpeg", Category: decoding,
			Usage: l10n.T("Path to the ffmpeg binary (falls back to FFMPEG_PATH, then PATH)")},
		&cli.StringFlag{Name: "ffprobe", Category: decoding,
			Usage: l10n.T("Path to the ffprobe binary (falls back to FFPROBE_PATH, then PATH)")},

		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Category: execution,
			Usage: l10n.T("Number of files processed in parallel")},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: execution,
			Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "debug-dir", Category: execution,
			Usage: l10n.T("Save the plan, sampled frames and strips to this directory")},

		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: logging,
			Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Category: logging,
			Usage: l10n.T("Suppress all log output")},
	}
}

func runGenerate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, exitUsage)
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(cfg.Level())
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	args := inputArgs(c)
	if len(args) == 0 {
		return cli.Exit(l10n.T("No input given, use --in"), exitUsage)
	}
	files, err := collectInputs(args, cfg.Recursive)
	if err != nil {
		return cli.Exit(err, exitUsage)
	}
	if len(files) == 0 {
		log.Error("No input files found")
		return cli.Exit("", exitFailed)
	}
	log.Info("Found %d input files", len(files))

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	source := smartsource.New(cfg.SourceOptions(), log)

	var sink ports.DebugSink
	if cfg.DebugDir != "" {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	var store ports.ObjectStore
	if cfg.S3.Enabled() {
		s, err := s3store.New(ctx, cfg.StoreConfig())
		if err != nil {
			return fmt.Errorf("create S3 store: %w", err)
		}
		store = s
	}

	opts := cfg.ToOrchestratorOptions(store)
	if len(files) == 1 && !c.Bool("quiet") && isatty.IsTerminal(os.Stderr.Fd()) {
		bar := newProgressBar()
		opts.Progress = bar.update
		defer bar.finish()
	}

	// Create stages
	orch := orchestrator.New(
		validate.NewStage(fs, source, log),
		composite.NewStage(renderer, sink, log),
		smooth.NewStage(log),
		encode.NewStage(renderer, log),
		source,
		fs,
		sink,
		log,
		opts,
	)

	requests := buildRequests(c, cfg, files)

	start := time.Now()
	results := orch.RunBatch(ctx, requests, cfg.Workers)

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			WithSettings(summarySettings(cfg, requests[0])).
			WithResults(results).
			WithElapsed(time.Since(start)).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T)), fs)
		if err := writer.Write(path, summary); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else {
			log.Info("Summary written to %s", path)
		}
	}

	counts := orchestrator.Tally(results)
	switch {
	case counts.Failed > 0:
		return cli.Exit("", exitFailed)
	case counts.Cancelled > 0 || errors.Is(ctx.Err(), context.Canceled):
		return cli.Exit("", exitCancelled)
	}
	return nil
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(c.Context, nil); err != nil {
		return cfg, err
	}

	if c.IsSet("overwrite") {
		cfg.Overwrite = c.Bool("overwrite")
	}
	if c.IsSet("recursive") {
		cfg.Recursive = c.Bool("recursive")
	}
	if c.IsSet("smooth") {
		cfg.Smooth = c.Bool("smooth")
	}
	if c.IsSet("mode") {
		cfg.Mode = c.String("mode")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("ffprobe") {
		cfg.FFprobePath = c.String("ffprobe")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

// inputArgs returns the --in values followed by the positional arguments.
func inputArgs(c *cli.Context) []string {
	var args []string
	args = append(args, c.StringSlice("in")...)
	return append(args, c.Args().Slice()...)
}

// buildRequests creates one generation request per input file.
func buildRequests(c *cli.Context, cfg config.Config, files []string) []pipeline.RawParameters {
	requests := make([]pipeline.RawParameters, 0, len(files))
	for _, f := range files {
		raw := cfg.RawParameters(f, c.String("out"))
		applyDimensionFlags(c, &raw)
		requests = append(requests, raw)
	}
	return requests
}

// applyDimensionFlags passes the numeric flags through verbatim so that the
// validate stage sees exactly what the user typed.
func applyDimensionFlags(c *cli.Context, raw *pipeline.RawParameters) {
	if c.IsSet("width") {
		raw.ImageWidth = c.String("width")
	}
	if c.IsSet("barwidth") {
		raw.BarWidth = c.String("barwidth")
	}
	if c.IsSet("height") {
		raw.ImageHeight = c.String("height")
		raw.UseInputHeight = false
	}
}

func summarySettings(cfg config.Config, raw pipeline.RawParameters) summarizer.Settings {
	width, _ := strconv.Atoi(raw.ImageWidth)
	barWidth, _ := strconv.Atoi(raw.BarWidth)
	height := 0
	if !raw.UseInputHeight {
		height, _ = strconv.Atoi(raw.ImageHeight)
	}
	mode, _ := pipeline.ParseStripMode(raw.Mode)
	return summarizer.Settings{
		Width:    width,
		Height:   height,
		BarWidth: barWidth,
		Mode:     string(mode),
		Smooth:   raw.GenerateSmoothed,
		Workers:  cfg.Workers,
	}
}

// progressBar renders composition progress of a single file.
type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar() *progressBar {
	return &progressBar{}
}

func (p *progressBar) update(input string, current, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(l10n.T("Compositing")),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Set(current + 1)
}

func (p *progressBar) finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
