package site

import (
	"time"

	"github.com/provbook/bookbuilder/internal/linkcheck"
	"github.com/provbook/bookbuilder/internal/metrics"
)

// Outcome is the final classification of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// BuildReport summarizes one build for logging, history, and notification.
type BuildReport struct {
	BuildID         string                   `json:"build_id"`
	Outcome         Outcome                  `json:"outcome"`
	StartedAt       time.Time                `json:"started_at"`
	Duration        time.Duration            `json:"duration"`
	Pages           int                      `json:"pages"`
	Assets          int                      `json:"assets"`
	Minified        bool                     `json:"minified"`
	OutputDir       string                   `json:"output_dir"`
	References      []linkcheck.Warning      `json:"reference_warnings,omitempty"`
	Errors          []string                 `json:"errors,omitempty"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds,omitempty"`
}

func newBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:         buildID,
		Outcome:         OutcomeSuccess,
		StartedAt:       time.Now(),
		StageDurations:  map[string]time.Duration{},
		StageErrorKinds: map[string]string{},
	}
}

// recordStageError classifies a stage error into the report and metrics.
func (r *BuildReport) recordStageError(se *StageError, rec metrics.Recorder) {
	r.StageErrorKinds[se.Stage] = string(se.Kind)
	r.Errors = append(r.Errors, se.Error())

	switch se.Kind {
	case StageErrorWarning:
		if r.Outcome == OutcomeSuccess {
			r.Outcome = OutcomeWarning
		}
		if rec != nil {
			rec.IncStageResult(se.Stage, metrics.ResultWarning)
		}
	case StageErrorCanceled:
		r.Outcome = OutcomeCanceled
		if rec != nil {
			rec.IncStageResult(se.Stage, metrics.ResultCanceled)
		}
	default:
		r.Outcome = OutcomeFailed
		if rec != nil {
			rec.IncStageResult(se.Stage, metrics.ResultFatal)
		}
	}
}

// finish stamps the total duration and reconciles the outcome with warnings.
func (r *BuildReport) finish() {
	r.Duration = time.Since(r.StartedAt)
	if r.Outcome == OutcomeSuccess && len(r.References) > 0 {
		r.Outcome = OutcomeWarning
	}
}
