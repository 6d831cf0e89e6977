// Package theme acquires the external site theme. The theme is an unmodified
// dependency, normally vendored as a git submodule; Fetch clones it for
// checkouts that do not have the submodule initialized.
package theme

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/errors"
	"github.com/provbook/bookbuilder/internal/logfields"
)

// Fetch clones the configured theme repository into dest. An existing
// directory is removed first: the theme is never modified locally, so a fresh
// clone is always safe.
func Fetch(ctx context.Context, cfg config.ThemeConfig, dest string) error {
	if cfg.Repo == "" {
		return errors.ThemeError(cfg.Name, nil).
			WithContext("reason", "no theme.repo configured")
	}

	if err := os.RemoveAll(dest); err != nil {
		return errors.WorkspaceError("remove existing theme", err)
	}

	opts := &git.CloneOptions{
		URL: cfg.Repo,
	}
	if cfg.Ref != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + cfg.Ref)
		opts.SingleBranch = true
	}

	slog.Info("cloning theme", logfields.Theme(cfg.Name), slog.String("repo", cfg.Repo), logfields.Path(dest))
	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		return errors.ThemeError(cfg.Name, err).WithContext("repo", cfg.Repo)
	}
	return nil
}

// Present reports whether the theme directory exists.
func Present(dest string) bool {
	st, err := os.Stat(dest)
	return err == nil && st.IsDir()
}
