package site

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/errors"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Site.Title = "Provider Development"
	cfg.Site.BaseURL = "https://example.test/"
	cfg.Theme.Name = "hugo-book"
	cfg.Theme.Dir = "themes"
	cfg.Content.Dir = "content"
	cfg.Output.Dir = "public"
	return cfg
}

func writeContentFile(t *testing.T, root, rel, contents string) {
	t.Helper()
	abs := filepath.Join(root, "content", filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(contents), 0o644))
}

func writeFixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeContentFile(t, root, "_index.md", "---\ntitle: Provider Development\n---\n\nWelcome.\n")
	writeContentFile(t, root, "guides/_index.md", "---\ntitle: Guides\nweight: 1\n---\n")
	writeContentFile(t, root, "guides/testing.md",
		"---\ntitle: Testing Providers\nweight: 1\n---\n\nSee [schemas](schemas.md).\n")
	writeContentFile(t, root, "guides/schemas.md", "---\ntitle: Schemas\nweight: 2\n---\n\nBody.\n")
	return root
}

// writeStubRenderer installs a theme placeholder and a stand-in renderer
// script that emits one page into its destination.
func writeStubRenderer(t *testing.T, root, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "themes", "hugo-book"), 0o755))

	stub := filepath.Join(root, "fake-hugo")
	script := "#!/bin/sh\n" +
		"dest=$4\n" +
		"mkdir -p \"$dest\"\n" +
		"printf '" + body + "' > \"$dest/index.html\"\n"
	require.NoError(t, os.WriteFile(stub, []byte(script), 0o755))
	t.Setenv("BOOKBUILDER_HUGO", stub)
	t.Setenv("BOOKBUILDER_SKIP_RENDER", "")
}

func TestBuildSkipRendererSucceeds(t *testing.T) {
	root := writeFixtureProject(t)
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	report, err := gen.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 4, report.Pages)
	assert.Empty(t, report.References)
	assert.NotEmpty(t, report.BuildID)
	for _, stage := range []string{"prepare", "load_content", "check_references", "stage_content"} {
		assert.Contains(t, report.StageDurations, stage)
	}
}

func TestBuildStagesContentVerbatim(t *testing.T) {
	root := writeFixtureProject(t)
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	_, err := gen.Build(context.Background())
	require.NoError(t, err)

	src, err := os.ReadFile(filepath.Join(root, "content", "guides", "testing.md"))
	require.NoError(t, err)
	staged, err := os.ReadFile(filepath.Join(root, ".bookbuilder", "stage", "content", "guides", "testing.md"))
	require.NoError(t, err)
	assert.Equal(t, src, staged)
}

func TestBuildWritesDeterministicRendererConfig(t *testing.T) {
	root := writeFixtureProject(t)
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	_, err := gen.Build(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(root, ".bookbuilder", "stage", "hugo.yaml"))
	require.NoError(t, err)

	_, err = gen.Build(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(root, ".bookbuilder", "stage", "hugo.yaml"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), "baseURL: https://example.test/")
	assert.Contains(t, string(first), "theme: hugo-book")
	assert.Contains(t, string(first), "title: Provider Development")
}

func TestBuildUnresolvedReferenceIsWarningOutcome(t *testing.T) {
	root := writeFixtureProject(t)
	writeContentFile(t, root, "guides/extra.md",
		"---\ntitle: Extra\nweight: 3\n---\n\nSee [missing](missing.md).\n")
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	report, err := gen.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.References, 1)
	assert.Equal(t, "guides/extra.md", report.References[0].SourcePath)
	assert.Equal(t, "missing.md", report.References[0].Target)
}

func TestBuildMissingTitleFailsWithPath(t *testing.T) {
	root := writeFixtureProject(t)
	writeContentFile(t, root, "guides/broken.md", "---\nweight: 9\n---\n\nNo title.\n")
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	report, err := gen.Build(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)

	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NotEmpty(t, report.Errors)
	assert.True(t, errors.IsCategory(err, errors.CategoryContent))
	assert.Contains(t, err.Error(), filepath.Join("guides", "broken.md"))

	// The stage wrapping must not hide the structured error from the CLI.
	adapter := errors.NewCLIErrorAdapter(false, nil)
	assert.Equal(t, 2, adapter.ExitCodeFor(err))
	assert.Contains(t, adapter.FormatError(err), filepath.Join("guides", "broken.md"))
}

func TestBuildOutputConflictFails(t *testing.T) {
	root := writeFixtureProject(t)
	writeContentFile(t, root, "setup.md", "---\ntitle: Setup\n---\n")
	writeContentFile(t, root, "setup/_index.md", "---\ntitle: Setup Section\n---\n")
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	_, err := gen.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestBuildCanceledContext(t *testing.T) {
	root := writeFixtureProject(t)
	gen := NewGenerator(testConfig(), root, Options{SkipRenderer: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := gen.Build(ctx)
	require.Error(t, err)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuildWithStubRendererPublishes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub renderer is a shell script")
	}
	root := writeFixtureProject(t)
	writeStubRenderer(t, root, "<html><body>ok</body></html>")

	gen := NewGenerator(testConfig(), root, Options{})

	report, err := gen.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	published, err := os.ReadFile(filepath.Join(root, "public", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(published), "ok")
}

func TestBuildIsIdempotent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub renderer is a shell script")
	}
	root := writeFixtureProject(t)
	writeStubRenderer(t, root, "<html><body>stable</body></html>")

	gen := NewGenerator(testConfig(), root, Options{})

	_, err := gen.Build(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(root, "public", "index.html"))
	require.NoError(t, err)

	_, err = gen.Build(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(root, "public", "index.html"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestOutputDirOverride(t *testing.T) {
	root := t.TempDir()
	gen := NewGenerator(testConfig(), root, Options{OutputDir: "dist"})
	assert.Equal(t, filepath.Join(root, "dist"), gen.OutputDir())

	gen = NewGenerator(testConfig(), root, Options{})
	assert.Equal(t, filepath.Join(root, "public"), gen.OutputDir())
}
