package content

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/provbook/bookbuilder/internal/errors"
	"github.com/provbook/bookbuilder/internal/frontmatter"
	"github.com/provbook/bookbuilder/internal/logfields"
)

// Load walks the content root and produces the ordered page tree.
//
// Every Markdown file must carry a parsable header with a title; anything
// else is a fatal error naming the offending file. Two files resolving to the
// same output path abort the load as well.
func Load(root string) (*Tree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WorkspaceError("resolve content root", err)
	}
	if st, statErr := os.Stat(absRoot); statErr != nil || !st.IsDir() {
		return nil, errors.New(errors.CategoryFileSystem, errors.SeverityFatal, "content directory not found").
			WithContext("path", root)
	}

	tree := &Tree{
		Root:  &Node{Path: ""},
		pages: map[string]*Page{},
	}
	// Remembers which source file claimed each output path, for conflict reporting.
	claimed := map[string]string{}

	walkErr := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if !strings.HasSuffix(rel, ".md") {
			tree.Assets = append(tree.Assets, rel)
			return nil
		}

		page, pageErr := loadPage(p, rel)
		if pageErr != nil {
			return pageErr
		}

		if first, exists := claimed[page.Path]; exists {
			return errors.ContentConflictError(page.Path, first, rel)
		}
		claimed[page.Path] = rel
		tree.pages[page.Path] = page
		return nil
	})
	if walkErr != nil {
		if be, ok := walkErr.(*errors.BookError); ok {
			return nil, be
		}
		return nil, errors.WorkspaceError("walk content tree", walkErr)
	}

	buildHierarchy(tree)
	sortTree(tree.Root)

	slog.Debug("content tree loaded", logfields.Pages(tree.Len()), slog.Int("assets", len(tree.Assets)))
	return tree, nil
}

// loadPage reads and validates a single Markdown file.
func loadPage(absPath, relPath string) (*Page, error) {
	raw, err := os.ReadFile(absPath) // #nosec G304 -- path comes from walking the configured content root
	if err != nil {
		return nil, errors.WorkspaceError("read page", err).WithContext("path", relPath)
	}

	fmRaw, body, had, err := frontmatter.Split(raw)
	if err != nil {
		return nil, errors.ContentMetadataError(relPath, "unparsable metadata header", err)
	}
	if !had {
		return nil, errors.ContentMetadataError(relPath, "missing metadata header", nil)
	}

	meta, err := frontmatter.DecodeMeta(fmRaw)
	if err != nil {
		return nil, errors.ContentMetadataError(relPath, "unparsable metadata header", err)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, errors.ContentMetadataError(relPath, "missing required field: title", nil)
	}

	return &Page{
		Path:       resolveOutputPath(relPath),
		SourcePath: relPath,
		Meta:       meta,
		Body:       body,
		IsIndex:    strings.HasSuffix(relPath, "_index.md"),
	}, nil
}

// buildHierarchy attaches every page to its parent node, creating intermediate
// section nodes for directories without an index page.
func buildHierarchy(tree *Tree) {
	nodes := map[string]*Node{"": tree.Root}

	var ensure func(nodePath string) *Node
	ensure = func(nodePath string) *Node {
		if n, ok := nodes[nodePath]; ok {
			return n
		}
		n := &Node{Path: nodePath, Title: derivedTitle(nodePath)}
		nodes[nodePath] = n
		parent := ensure(parentOf(nodePath))
		parent.Children = append(parent.Children, n)
		return n
	}

	// Deterministic creation order.
	paths := make([]string, 0, len(tree.pages))
	for p := range tree.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		page := tree.pages[p]
		node := ensure(p)
		node.Page = page
		node.Title = page.Title()
	}
}

func parentOf(nodePath string) string {
	idx := strings.LastIndex(nodePath, "/")
	if idx < 0 {
		return ""
	}
	return nodePath[:idx]
}

// sortTree orders every sibling list: explicit weight ascending, pages without
// a weight after weighted ones, ties broken by title then by path.
func sortTree(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		return lessNode(n.Children[i], n.Children[j])
	})
	for _, c := range n.Children {
		sortTree(c)
	}
}

func lessNode(a, b *Node) bool {
	aw, aset := nodeWeight(a)
	bw, bset := nodeWeight(b)

	switch {
	case aset && bset && aw != bw:
		return aw < bw
	case aset != bset:
		return aset // weighted sorts before unweighted
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Path < b.Path
}

// nodeWeight returns a node's ordering weight. A section's order is the
// weight of its own index page; a section without one has no weight.
func nodeWeight(n *Node) (int, bool) {
	if n.Page == nil {
		return 0, false
	}
	return n.Page.Weight()
}

var titleCaser = cases.Title(language.English)

// derivedTitle produces a display title for a directory that has no index
// page: "getting-started" -> "Getting Started".
func derivedTitle(nodePath string) string {
	base := nodePath[strings.LastIndex(nodePath, "/")+1:]
	base = strings.ReplaceAll(base, "_", "-")
	return titleCaser.String(strings.ReplaceAll(base, "-", " "))
}
