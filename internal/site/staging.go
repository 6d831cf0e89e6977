package site

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/provbook/bookbuilder/internal/errors"
)

// stagePrepare lays out a clean staging area under the project's work dir.
//
// The staged site root is what the external renderer consumes:
//
//	.bookbuilder/
//	  stage/
//	    hugo.yaml
//	    content/   (copied pages and assets)
//	    themes/    (symlink to the project themes dir)
//	  render/      (renderer destination, swapped into the output dir)
func stagePrepare(ctx context.Context, bs *BuildState) error {
	work := bs.Generator.workDir()
	bs.StageRoot = filepath.Join(work, "stage")
	bs.RenderDir = filepath.Join(work, "render")

	for _, dir := range []string{bs.StageRoot, bs.RenderDir} {
		if err := os.RemoveAll(dir); err != nil {
			return errors.WorkspaceError("clean staging dir", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(bs.StageRoot, "content"), 0o750); err != nil {
		return errors.WorkspaceError("create staging dir", err)
	}
	return nil
}

// stageContent copies the content tree verbatim into the stage root and links
// the themes directory. Bytes are copied untouched so an unchanged tree
// always stages identically.
func stageContent(ctx context.Context, bs *BuildState) error {
	srcRoot := bs.Generator.contentDir()
	dstRoot := filepath.Join(bs.StageRoot, "content")

	for _, page := range bs.Tree.Pages() {
		if err := copyFile(
			filepath.Join(srcRoot, filepath.FromSlash(page.SourcePath)),
			filepath.Join(dstRoot, filepath.FromSlash(page.SourcePath)),
		); err != nil {
			return errors.WorkspaceError("stage page", err).WithContext("path", page.SourcePath)
		}
	}
	for _, asset := range bs.Tree.Assets {
		if err := copyFile(
			filepath.Join(srcRoot, filepath.FromSlash(asset)),
			filepath.Join(dstRoot, filepath.FromSlash(asset)),
		); err != nil {
			return errors.WorkspaceError("stage asset", err).WithContext("path", asset)
		}
	}

	themeDir := bs.Generator.themeDir()
	if _, err := os.Stat(themeDir); err == nil {
		if err := os.Symlink(themeDir, filepath.Join(bs.StageRoot, "themes")); err != nil {
			// Symlinks can be unavailable (restricted mounts); fall back to a copy.
			if copyErr := copyDir(themeDir, filepath.Join(bs.StageRoot, "themes")); copyErr != nil {
				return errors.WorkspaceError("stage themes", copyErr)
			}
		}
	}

	staticDir := filepath.Join(bs.Generator.projectRoot, "static")
	if _, err := os.Stat(staticDir); err == nil {
		if err := copyDir(staticDir, filepath.Join(bs.StageRoot, "static")); err != nil {
			return errors.WorkspaceError("stage static assets", err)
		}
	}
	return nil
}

// stagePublish swaps the rendered tree into the output directory. Builds are
// idempotent, so the latest writer simply wins.
func stagePublish(ctx context.Context, bs *BuildState) error {
	if !bs.Generator.rendererEnabled() {
		return nil
	}

	outputDir := bs.Generator.OutputDir()
	if err := os.RemoveAll(outputDir); err != nil {
		return errors.WorkspaceError("clean output dir", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputDir), 0o750); err != nil {
		return errors.WorkspaceError("create output parent", err)
	}
	if err := os.Rename(bs.RenderDir, outputDir); err != nil {
		// Rename fails across filesystems; copy instead.
		if copyErr := copyDir(bs.RenderDir, outputDir); copyErr != nil {
			return errors.WorkspaceError("publish output", copyErr)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	in, err := os.Open(src) // #nosec G304 -- sources come from the loaded content tree
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 -- destination is inside our staging dir
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(src, p)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != src {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0o750)
		}
		return copyFile(p, filepath.Join(dst, rel))
	})
}
