package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("sample: %w", &DecoderError{ExitCode: 1, FramesRead: 40, Expected: 100})

	require.ErrorIs(t, err, ErrDecoderFailure)

	var de *DecoderError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 40, de.FramesRead)
	assert.Contains(t, err.Error(), "read 40 of 100 frames")
}

func TestCompositionError_MatchesSentinel(t *testing.T) {
	cause := errors.New("zero-sized frame")
	err := &CompositionError{FrameIndex: 7, Err: cause}

	assert.ErrorIs(t, err, ErrComposition)
	assert.ErrorIs(t, err, cause, "the cause is unwrapped")
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "bar_width", Value: "0", Err: ErrInvalidNumericParameter}

	assert.ErrorIs(t, err, ErrInvalidNumericParameter)
	assert.Contains(t, err.Error(), `bar_width="0"`)
}

func TestCancelled(t *testing.T) {
	err := Cancelled(context.Canceled)

	assert.True(t, IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsCancelled(ErrDecoderFailure), "decoder failure is not a cancellation")
}

func TestGenerationPlan_FrameCount(t *testing.T) {
	tests := []struct {
		width, bar, want int
	}{
		{1000, 1, 1000},
		{100, 1, 100},
		{1000, 4, 250},
		{10, 0, 0},
	}
	for _, tt := range tests {
		plan := GenerationPlan{OutputWidth: tt.width, BarWidth: tt.bar}
		assert.Equal(t, tt.want, plan.FrameCount(), "FrameCount(%d/%d)", tt.width, tt.bar)
	}
}

func TestParseStripMode(t *testing.T) {
	m, ok := ParseStripMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeResize, m, "empty mode defaults to resize")

	m, ok = ParseStripMode("average")
	assert.True(t, ok)
	assert.Equal(t, ModeAverage, m)

	_, ok = ParseStripMode("median")
	assert.False(t, ok)
}
