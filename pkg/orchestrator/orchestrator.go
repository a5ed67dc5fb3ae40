// Package orchestrator coordinates the pipeline stages for one input file
// and runs batches of files concurrently.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

// Status is the outcome of processing one input file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Stage names reported in FileResult.Stage.
const (
	StageValidate  = "validate"
	StageSample    = "sample"
	StageComposite = "composite"
	StageEncode    = "encode"
	StageWrite     = "write"
	StageUpload    = "upload"
	StageSmooth    = "smooth"
)

// FileResult describes what happened to one input file.
type FileResult struct {
	InputPath    string
	OutputPath   string
	SmoothedPath string
	Status       Status
	Stage        string // Stage that failed or was cancelled
	Err          error

	// Set when a smoothed output was requested.
	SmoothErr       error
	SmoothedSkipped bool
	SmoothedWritten bool

	UploadURL string
	Width     int
	Height    int
	Strips    int
	Elapsed   time.Duration
}

// Options tunes the orchestrator.
type Options struct {
	SmoothSigma float64
	JPEGQuality int
	// Store receives every primary output when set.
	Store ports.ObjectStore
	// Progress is called after every strip with the input path.
	Progress func(input string, current, total int)
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	validateStage  pipeline.Stage[pipeline.RawParameters, pipeline.GenerationPlan]
	compositeStage pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult]
	smoothStage    pipeline.Stage[pipeline.SmoothInput, pipeline.SmoothResult]
	encodeStage    pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	source         ports.FrameSource
	fs             ports.FileSystem
	sink           ports.DebugSink
	logger         ports.Logger
	opts           Options
}

// New creates a new Orchestrator.
func New(
	validateStage pipeline.Stage[pipeline.RawParameters, pipeline.GenerationPlan],
	compositeStage pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult],
	smoothStage pipeline.Stage[pipeline.SmoothInput, pipeline.SmoothResult],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	source ports.FrameSource,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		validateStage:  validateStage,
		compositeStage: compositeStage,
		smoothStage:    smoothStage,
		encodeStage:    encodeStage,
		source:         source,
		fs:             fs,
		sink:           sink,
		logger:         logger,
		opts:           opts,
	}
}

// Process generates the barcode for one input file. Errors never escape:
// they are reported in the returned FileResult.
func (o *Orchestrator) Process(ctx context.Context, raw pipeline.RawParameters) FileResult {
	start := time.Now()
	result := o.process(ctx, raw)
	result.Elapsed = time.Since(start)
	return result
}

func (o *Orchestrator) process(ctx context.Context, raw pipeline.RawParameters) FileResult {
	result := FileResult{InputPath: raw.InputPath}

	o.logger.Info("Processing %s", raw.InputPath)

	// 1. Validate
	plan, err := o.validateStage.Execute(ctx, raw)
	if err != nil {
		return o.fail(result, StageValidate, err)
	}
	result.OutputPath = plan.OutputPath
	result.SmoothedPath = plan.SmoothedOutputPath
	result.Width = plan.OutputWidth
	result.Height = plan.OutputHeight

	// 2. Skip existing output
	if !raw.Overwrite && o.exists(plan.OutputPath) {
		o.logger.Info("Skipping %s: output %s already exists", raw.InputPath, plan.OutputPath)
		result.Status = StatusSkipped
		return result
	}

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(plan, "", "  "); err == nil {
			o.sink.SavePlanJSON(data)
		}
	}

	// 3. Sample and composite
	count := plan.FrameCount()
	o.logger.Debug("Sampling %d frames from %s", count, plan.InputPath)
	stream, err := o.source.Sample(ctx, plan.InputPath, count)
	if err != nil {
		return o.fail(result, StageSample, err)
	}
	composite, err := o.composite(ctx, plan, stream)
	if err != nil {
		return o.fail(result, StageComposite, err)
	}
	result.Strips = composite.Strips

	// 4. Encode and write. The output may have appeared while decoding; the
	// smoothed variant is still produced in that case.
	if !raw.Overwrite && o.exists(plan.OutputPath) {
		o.logger.Info("Skipping %s: output %s already exists", raw.InputPath, plan.OutputPath)
		result.Status = StatusSkipped
	} else if stage, err := o.writePrimary(ctx, plan, composite, &result); err != nil {
		return o.fail(result, stage, err)
	}

	// 5. Optional smoothed output. Failures here never affect the primary.
	if plan.GenerateSmoothed {
		o.writeSmoothed(ctx, plan, raw.Overwrite, composite, &result)
	}

	if result.Status != StatusSkipped {
		result.Status = StatusSucceeded
	}
	return result
}

// writePrimary encodes, writes and optionally uploads the barcode. On error
// it returns the stage that failed.
func (o *Orchestrator) writePrimary(ctx context.Context, plan pipeline.GenerationPlan, composite pipeline.CompositeResult, result *FileResult) (string, error) {
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Image:   composite.Image,
		Path:    plan.OutputPath,
		Quality: o.opts.JPEGQuality,
	})
	if err != nil {
		return StageEncode, err
	}
	if err := o.fs.WriteFile(plan.OutputPath, encoded.Data); err != nil {
		return StageWrite, fmt.Errorf("write %s: %w", plan.OutputPath, err)
	}
	o.logger.Info("Output saved to %s", plan.OutputPath)

	if o.opts.Store != nil {
		key := filepath.Base(plan.OutputPath)
		url, err := o.opts.Store.Put(ctx, key, encoded.Data, encoded.ContentType)
		if err != nil {
			return StageUpload, fmt.Errorf("upload %s: %w", plan.OutputPath, err)
		}
		result.UploadURL = url
		o.logger.Info("Uploaded %s to %s", plan.OutputPath, url)
	}
	return "", nil
}

func (o *Orchestrator) composite(ctx context.Context, plan pipeline.GenerationPlan, stream ports.FrameStream) (pipeline.CompositeResult, error) {
	defer stream.Close()

	var progress pipeline.ProgressFunc
	if o.opts.Progress != nil {
		progress = func(current, total int) {
			o.opts.Progress(plan.InputPath, current, total)
		}
	}
	return o.compositeStage.Execute(ctx, pipeline.CompositeInput{
		Plan:     plan,
		Frames:   stream,
		Progress: progress,
	})
}

func (o *Orchestrator) writeSmoothed(ctx context.Context, plan pipeline.GenerationPlan, overwrite bool, composite pipeline.CompositeResult, result *FileResult) {
	path := plan.SmoothedOutputPath
	if !overwrite && o.exists(path) {
		o.logger.Info("Skipping smoothed output: %s already exists", path)
		result.SmoothedSkipped = true
		return
	}

	smoothed, err := o.smoothStage.Execute(ctx, pipeline.SmoothInput{
		Image: composite.Image,
		Sigma: o.opts.SmoothSigma,
	})
	if err != nil {
		o.logger.Warn("Failed to write smoothed output: %s", err)
		result.SmoothErr = err
		return
	}

	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Image:   smoothed.Image,
		Path:    path,
		Quality: o.opts.JPEGQuality,
	})
	if err == nil {
		err = o.fs.WriteFile(path, encoded.Data)
	}
	if err != nil {
		o.logger.Warn("Failed to write smoothed output: %s", err)
		result.SmoothErr = err
		return
	}

	result.SmoothedWritten = true
	o.logger.Info("Smoothed output saved to %s", path)
}

func (o *Orchestrator) exists(path string) bool {
	ok, err := o.fs.Exists(path)
	return err == nil && ok
}

func (o *Orchestrator) fail(result FileResult, stage string, err error) FileResult {
	result.Stage = stage
	result.Err = err
	if pipeline.IsCancelled(err) || errors.Is(err, context.Canceled) {
		result.Status = StatusCancelled
		o.logger.Info("Generation cancelled for %s", result.InputPath)
		return result
	}
	result.Status = StatusFailed
	o.logger.Error("Failed to process %s: %s", result.InputPath, err)
	return result
}

// RunBatch processes every request with at most workers files in flight.
// Results are returned in the order of requests. A failed file does not stop
// the batch; cancelling ctx marks every file not yet finished as cancelled.
func (o *Orchestrator) RunBatch(ctx context.Context, requests []pipeline.RawParameters, workers int) []FileResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]FileResult, len(requests))

	o.logger.Info("Processing %d files with %d workers", len(requests), workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, raw := range requests {
		if err := ctx.Err(); err != nil {
			results[i] = FileResult{
				InputPath: raw.InputPath,
				Status:    StatusCancelled,
				Err:       pipeline.Cancelled(err),
			}
			continue
		}
		i, raw := i, raw
		g.Go(func() error {
			results[i] = o.Process(ctx, raw)
			return nil
		})
	}
	g.Wait()

	counts := Tally(results)
	o.logger.Info("Batch completed: %d succeeded, %d skipped, %d failed, %d cancelled",
		counts.Succeeded, counts.Skipped, counts.Failed, counts.Cancelled)
	return results
}

// Counts holds the number of results per status.
type Counts struct {
	Succeeded int
	Skipped   int
	Failed    int
	Cancelled int
}

// Tally counts results by status.
func Tally(results []FileResult) Counts {
	var c Counts
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			c.Succeeded++
		case StatusSkipped:
			c.Skipped++
		case StatusFailed:
			c.Failed++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}
