// Package site drives the build pipeline: load the content tree, verify
// references, stage the site, invoke the external renderer, and publish the
// output. The renderer itself (Hugo plus theme) is an external collaborator
// and is only ever executed, never reimplemented.
package site

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/content"
	"github.com/provbook/bookbuilder/internal/linkcheck"
	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/metrics"
	"github.com/provbook/bookbuilder/internal/observability"
)

// Options tunes a single build.
type Options struct {
	// Minify is passed through to the external renderer.
	Minify bool
	// OutputDir overrides the configured output directory when non-empty.
	OutputDir string
	// SkipRenderer stops the pipeline after staging; used by check-only flows
	// and tests running without a renderer binary.
	SkipRenderer bool
	// Recorder receives build metrics. Nil means no metrics.
	Recorder metrics.Recorder
}

// Generator owns one build pipeline over a project root.
type Generator struct {
	cfg         *config.Config
	projectRoot string
	opts        Options
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport
	Recorder  metrics.Recorder

	Tree      *content.Tree
	StageRoot string // staged site root handed to the renderer
	RenderDir string // renderer destination, swapped into the output dir
}

// NewGenerator creates a build pipeline for the given configuration.
func NewGenerator(cfg *config.Config, projectRoot string, opts Options) *Generator {
	return &Generator{cfg: cfg, projectRoot: projectRoot, opts: opts}
}

// OutputDir returns the directory the build publishes into.
func (g *Generator) OutputDir() string {
	dir := g.cfg.Output.Dir
	if g.opts.OutputDir != "" {
		dir = g.opts.OutputDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(g.projectRoot, dir)
	}
	return dir
}

func (g *Generator) contentDir() string {
	dir := g.cfg.Content.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(g.projectRoot, dir)
	}
	return dir
}

func (g *Generator) themeDir() string {
	dir := g.cfg.Theme.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(g.projectRoot, dir)
	}
	return dir
}

func (g *Generator) workDir() string {
	return filepath.Join(g.projectRoot, ".bookbuilder")
}

// Build runs the full pipeline and returns the build report. The report is
// returned even when the build fails, so callers can persist it.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	buildID := uuid.NewString()
	ctx = observability.WithBuildID(ctx, buildID)

	report := newBuildReport(buildID)
	report.Minified = g.opts.Minify
	report.OutputDir = g.OutputDir()

	bs := &BuildState{
		Generator: g,
		Report:    report,
		Recorder:  g.opts.Recorder,
	}

	observability.InfoContext(ctx, "build started", logfields.Path(g.contentDir()))

	stages := []namedStage{
		{"prepare", stagePrepare},
		{"load_content", stageLoadContent},
		{"check_references", stageCheckReferences},
		{"write_renderer_config", stageWriteRendererConfig},
		{"stage_content", stageContent},
		{"ensure_theme", stageEnsureTheme},
		{"run_renderer", stageRunRenderer},
		{"verify_output", stageVerifyOutput},
		{"publish", stagePublish},
	}

	err := runStages(ctx, bs, stages)
	report.finish()

	if bs.Recorder != nil {
		bs.Recorder.ObserveBuildDuration(report.Duration)
		bs.Recorder.IncBuildOutcome(string(report.Outcome))
		bs.Recorder.AddReferenceWarnings(len(report.References))
		bs.Recorder.SetPages(report.Pages)
	}

	if err != nil {
		observability.ErrorContext(ctx, "build failed",
			logfields.Outcome(string(report.Outcome)), logfields.Error(err))
		return report, err
	}

	observability.InfoContext(ctx, "build finished",
		logfields.Outcome(string(report.Outcome)),
		logfields.Pages(report.Pages),
		logfields.Warnings(len(report.References)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

// stageLoadContent loads the content tree.
func stageLoadContent(ctx context.Context, bs *BuildState) error {
	tree, err := content.Load(bs.Generator.contentDir())
	if err != nil {
		return err
	}
	bs.Tree = tree
	bs.Report.Pages = tree.Len()
	bs.Report.Assets = len(tree.Assets)
	return nil
}

// stageCheckReferences resolves internal links; misses become report warnings.
func stageCheckReferences(ctx context.Context, bs *BuildState) error {
	warnings, err := linkcheck.CheckTree(bs.Tree)
	if err != nil {
		return err
	}
	bs.Report.References = append(bs.Report.References, warnings...)
	return nil
}

// stageWriteRendererConfig emits the renderer configuration into the stage root.
func stageWriteRendererConfig(ctx context.Context, bs *BuildState) error {
	return writeRendererConfig(bs.StageRoot, bs.Generator.cfg)
}

// stageVerifyOutput checks internal links in the rendered HTML.
func stageVerifyOutput(ctx context.Context, bs *BuildState) error {
	if !bs.Generator.rendererEnabled() {
		return nil
	}
	warnings, err := linkcheck.VerifyRenderedSite(bs.RenderDir, bs.Generator.cfg.Site.BaseURL)
	if err != nil {
		return newWarnStageError("verify_output", err)
	}
	for _, w := range warnings {
		observability.WarnContext(ctx, "broken link in rendered output",
			logfields.Path(w.SourcePath), logfields.Target(w.Target))
	}
	bs.Report.References = append(bs.Report.References, warnings...)
	return nil
}
