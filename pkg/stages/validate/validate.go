// Package validate implements the parameter validation stage. It turns loose
// textual parameters into an immutable GenerationPlan without decoding video.
package validate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/moviebarcode/pkg/pipeline"
	"github.com/user/moviebarcode/pkg/ports"
)

// Stage validates generation parameters.
type Stage struct {
	fs       ports.FileSystem
	prober   ports.Prober
	logger   ports.Logger
	validate *validator.Validate
}

// NewStage creates a new validate stage. The prober is only consulted when
// the output height is taken from the input video.
func NewStage(fs ports.FileSystem, prober ports.Prober, logger ports.Logger) *Stage {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Stage{
		fs:       fs,
		prober:   prober,
		logger:   logger.WithComponent("validate"),
		validate: v,
	}
}

// Execute validates raw and returns the resulting plan.
// The checks run in order: input, output, numbers, mode, and only then the
// metadata probe, so an invalid request never touches the video.
func (s *Stage) Execute(ctx context.Context, raw pipeline.RawParameters) (pipeline.GenerationPlan, error) {
	s.logger.Debug("Validating parameters for %s", raw.InputPath)

	if raw.InputPath == "" || !s.fs.Readable(raw.InputPath) {
		return pipeline.GenerationPlan{}, &pipeline.ValidationError{
			Field: "input", Value: raw.InputPath, Err: pipeline.ErrInputNotFound,
		}
	}

	outputPath, err := s.resolveOutput(raw.InputPath, raw.OutputPath)
	if err != nil {
		return pipeline.GenerationPlan{}, err
	}

	barWidth, err := parsePositive("bar_width", raw.BarWidth, pipeline.DefaultBarWidth)
	if err != nil {
		return pipeline.GenerationPlan{}, err
	}
	imageWidth, err := parsePositive("image_width", raw.ImageWidth, pipeline.DefaultImageWidth)
	if err != nil {
		return pipeline.GenerationPlan{}, err
	}

	var imageHeight int
	if !raw.UseInputHeight {
		imageHeight, err = parsePositive("image_height", raw.ImageHeight, "")
		if err != nil {
			return pipeline.GenerationPlan{}, err
		}
	}

	if imageWidth%barWidth != 0 {
		return pipeline.GenerationPlan{}, &pipeline.ValidationError{
			Field: "bar_width",
			Value: raw.BarWidth,
			Err: fmt.Errorf("%w: image width %d is not a multiple of bar width %d",
				pipeline.ErrInvalidNumericParameter, imageWidth, barWidth),
		}
	}

	mode, ok := pipeline.ParseStripMode(raw.Mode)
	if !ok {
		return pipeline.GenerationPlan{}, &pipeline.ValidationError{
			Field: "mode", Value: raw.Mode, Err: pipeline.ErrInvalidNumericParameter,
		}
	}

	if raw.UseInputHeight {
		meta, err := s.prober.Probe(ctx, raw.InputPath)
		if err != nil {
			return pipeline.GenerationPlan{}, fmt.Errorf("probe input: %w", err)
		}
		if meta.Height <= 0 {
			return pipeline.GenerationPlan{}, &pipeline.ValidationError{
				Field: "image_height", Value: strconv.Itoa(meta.Height), Err: pipeline.ErrInvalidNumericParameter,
			}
		}
		imageHeight = meta.Height
		s.logger.Debug("Using input height %d", imageHeight)
	}

	plan := pipeline.GenerationPlan{
		InputPath:        raw.InputPath,
		OutputPath:       outputPath,
		BarWidth:         barWidth,
		OutputWidth:      imageWidth,
		OutputHeight:     imageHeight,
		GenerateSmoothed: raw.GenerateSmoothed,
		Mode:             mode,
	}
	if raw.GenerateSmoothed {
		plan.SmoothedOutputPath = SmoothedPath(outputPath)
	}

	if err := s.validate.Struct(plan); err != nil {
		return pipeline.GenerationPlan{}, toValidationError(err)
	}

	s.logger.Debug("Plan: %d strips of %dx%d px, output %dx%d",
		plan.FrameCount(), plan.BarWidth, plan.OutputHeight, plan.OutputWidth, plan.OutputHeight)
	return plan, nil
}

// resolveOutput derives the output file path.
//   - empty: "<input base>.png" in the current directory
//   - existing directory: "<input base>.png" inside it
//   - anything else: used verbatim
func (s *Stage) resolveOutput(input, output string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + pipeline.DefaultExtension

	resolved := output
	switch {
	case output == "":
		resolved = name
	default:
		isDir, err := s.fs.IsDir(output)
		if err != nil {
			return "", &pipeline.ValidationError{Field: "output", Value: output, Err: pipeline.ErrInvalidOutputPath}
		}
		if isDir {
			resolved = filepath.Join(output, name)
		}
	}

	parent := filepath.Dir(resolved)
	isDir, err := s.fs.IsDir(parent)
	if err != nil || !isDir {
		return "", &pipeline.ValidationError{
			Field: "output",
			Value: output,
			Err:   fmt.Errorf("%w: directory %s does not exist", pipeline.ErrInvalidOutputPath, parent),
		}
	}

	if filepath.Clean(resolved) == filepath.Clean(input) {
		return "", &pipeline.ValidationError{
			Field: "output",
			Value: output,
			Err:   fmt.Errorf("%w: output would replace the input", pipeline.ErrInvalidOutputPath),
		}
	}

	return resolved, nil
}

// SmoothedPath returns the path of the smoothed variant of output:
// "<output without extension>_smoothed<extension>".
func SmoothedPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + pipeline.SmoothedSuffix + ext
}

func parsePositive(field, value, def string) (int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		v = def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, &pipeline.ValidationError{Field: field, Value: value, Err: pipeline.ErrInvalidNumericParameter}
	}
	return n, nil
}

// toValidationError maps the first struct tag violation to the error taxonomy.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate plan: %w", err)
	}

	fe := verrs[0]
	sentinel := pipeline.ErrInvalidNumericParameter
	switch fe.Field() {
	case "input_path":
		sentinel = pipeline.ErrInputNotFound
	case "output_path", "smoothed_output_path":
		sentinel = pipeline.ErrInvalidOutputPath
	}

	return &pipeline.ValidationError{
		Field: fe.Field(),
		Value: fmt.Sprint(fe.Value()),
		Err:   fmt.Errorf("%w: failed %q", sentinel, fe.Tag()),
	}
}
