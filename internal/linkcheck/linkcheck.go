// Package linkcheck verifies that internal references resolve to pages that
// exist at build time. Broken references are warnings, never build failures:
// work-in-progress sections legitimately link to pages that are not written
// yet.
package linkcheck

import (
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/provbook/bookbuilder/internal/content"
	"github.com/provbook/bookbuilder/internal/errors"
	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/markdown"
)

// Warning describes one broken internal reference.
type Warning struct {
	// SourcePath is the content file containing the link.
	SourcePath string
	// Target is the link destination as written.
	Target string
}

// Err converts the warning into its structured error form.
func (w Warning) Err() *errors.BookError {
	return errors.ReferenceWarning(w.SourcePath, w.Target)
}

// CheckTree extracts every link from every page body and resolves internal
// targets against the tree. It returns a warning per unresolvable target.
func CheckTree(tree *content.Tree) ([]Warning, error) {
	assets := map[string]struct{}{}
	for _, a := range tree.Assets {
		assets[a] = struct{}{}
	}

	var warnings []Warning
	for _, page := range tree.Pages() {
		links, err := markdown.ExtractLinks(page.Body)
		if err != nil {
			return nil, errors.InternalError("link extraction failed", err).
				WithContext("path", page.SourcePath)
		}

		for _, link := range links {
			target := link.Destination
			if !isInternal(target) {
				continue
			}
			if resolves(tree, assets, page, target) {
				continue
			}
			warnings = append(warnings, Warning{SourcePath: page.SourcePath, Target: target})
			slog.Warn("broken internal link",
				logfields.Path(page.SourcePath),
				logfields.Target(target))
		}
	}
	return warnings, nil
}

// isInternal reports whether a destination points inside the site.
func isInternal(dest string) bool {
	if dest == "" {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		// Unparsable destinations are treated as internal so they surface as
		// broken references instead of vanishing.
		return true
	}
	if u.Scheme != "" || u.Host != "" {
		return false
	}
	// Pure in-page anchors need no tree resolution.
	if u.Path == "" && u.Fragment != "" {
		return false
	}
	return true
}

// resolves checks whether an internal destination names an existing page or asset.
func resolves(tree *content.Tree, assets map[string]struct{}, page *content.Page, dest string) bool {
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" {
		return true
	}

	// Resolve relative destinations against the page's directory. Index pages
	// are their own directory.
	if !strings.HasPrefix(target, "/") {
		base := path.Dir(page.Path)
		if page.IsIndex {
			base = page.Path
		}
		target = path.Join(base, target)
	}
	target = strings.Trim(path.Clean("/"+target), "/")

	// Source-form cross references (`other.md`, `sub/_index.md`) resolve like
	// their output paths.
	if strings.HasSuffix(target, ".md") {
		target = strings.TrimSuffix(target, ".md")
		if path.Base(target) == "_index" {
			target = path.Dir(target)
			if target == "." {
				target = ""
			}
		}
	}

	if _, ok := tree.Lookup(target); ok {
		return true
	}
	if _, ok := assets[target]; ok {
		return true
	}
	return false
}
