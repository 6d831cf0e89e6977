package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/metrics"
	"github.com/provbook/bookbuilder/internal/observability"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// namedStage pairs a stage with its report name.
type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning-kind stage errors are recorded and execution
// continues.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.recordStageError(se, bs.Recorder)
			return se
		default:
		}

		stageCtx := observability.WithStage(ctx, st.name)
		t0 := time.Now()
		err := st.fn(stageCtx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		if bs.Recorder != nil {
			bs.Recorder.ObserveStageDuration(st.name, dur)
		}

		if err == nil {
			if bs.Recorder != nil {
				bs.Recorder.IncStageResult(st.name, metrics.ResultSuccess)
			}
			observability.DebugContext(stageCtx, "stage completed",
				logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		se := asStageError(st.name, err)
		bs.Report.recordStageError(se, bs.Recorder)
		if se.Kind == StageErrorWarning {
			observability.WarnContext(stageCtx, "stage completed with warnings", logfields.Error(se.Err))
			continue
		}
		return se
	}
	return nil
}

// asStageError wraps arbitrary stage failures as fatal unless already classified.
func asStageError(stage string, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return newFatalStageError(stage, err)
}
