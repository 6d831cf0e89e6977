package site

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/provbook/bookbuilder/internal/errors"
	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/observability"
	"github.com/provbook/bookbuilder/internal/theme"
)

// rendererBinary returns the external renderer command name.
// BOOKBUILDER_HUGO overrides it, mainly for tests and pinned CI binaries.
func rendererBinary() string {
	if v := os.Getenv("BOOKBUILDER_HUGO"); v != "" {
		return v
	}
	return "hugo"
}

// rendererEnabled reports whether the external renderer will be invoked.
func (g *Generator) rendererEnabled() bool {
	if g.opts.SkipRenderer {
		return false
	}
	return os.Getenv("BOOKBUILDER_SKIP_RENDER") != "1"
}

// stageEnsureTheme fetches the configured theme when it is not present yet.
func stageEnsureTheme(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	dest := filepath.Join(g.themeDir(), g.cfg.Theme.Name)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if g.cfg.Theme.Repo == "" {
		if !g.rendererEnabled() {
			return nil
		}
		return errors.ThemeError(g.cfg.Theme.Name, nil).
			WithContext("reason", "theme directory missing and no theme.repo configured")
	}

	observability.InfoContext(ctx, "fetching theme", logfields.Theme(g.cfg.Theme.Name))
	if err := theme.Fetch(ctx, g.cfg.Theme, dest); err != nil {
		return err
	}

	// The themes link was created before the theme existed on first builds.
	link := filepath.Join(bs.StageRoot, "themes")
	if _, err := os.Lstat(link); os.IsNotExist(err) {
		if linkErr := os.Symlink(g.themeDir(), link); linkErr != nil {
			return errors.WorkspaceError("link themes dir", linkErr)
		}
	}
	return nil
}

// stageRunRenderer executes the external renderer against the staged site.
// Renderer and theme faults originate outside this repository; their output
// is surfaced verbatim on stderr.
func stageRunRenderer(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	if !g.rendererEnabled() {
		observability.InfoContext(ctx, "renderer skipped")
		return nil
	}

	bin := rendererBinary()
	if _, err := exec.LookPath(bin); err != nil {
		return errors.RenderError(err).WithContext("binary", bin)
	}

	args := []string{"--source", bs.StageRoot, "--destination", bs.RenderDir}
	if g.opts.Minify {
		args = append(args, "--minify")
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	observability.InfoContext(ctx, "running external renderer", logfields.Path(bs.StageRoot))
	if err := cmd.Run(); err != nil {
		return errors.RenderError(err)
	}
	return nil
}
