// Package content loads a directory of Markdown pages into an ordered tree.
//
// Loading is a pure read: every build starts from a clean walk of the content
// root and recomputes the full tree, so two loads of an unchanged tree are
// identical.
package content

import (
	"path"
	"strings"

	"github.com/provbook/bookbuilder/internal/frontmatter"
)

// Page is a single content unit: one Markdown file with a metadata header.
type Page struct {
	// Path is the resolved output path relative to the content root, slash
	// separated, without extension. It determines the page URL and its place
	// in the hierarchy. `docs/_index.md` resolves to `docs`.
	Path string

	// SourcePath is the file's path relative to the content root as found on
	// disk, used in error and warning messages.
	SourcePath string

	// Meta holds the decoded header fields (title, type, weight, visibility).
	Meta frontmatter.Meta

	// Body is the raw Markdown body with the header removed.
	Body []byte

	// IsIndex is true for `_index.md` files, which stand for their directory.
	IsIndex bool
}

// Weight returns the page's ordering weight and whether it was set explicitly.
func (p *Page) Weight() (int, bool) {
	return p.Meta.Weight, p.Meta.WeightSet
}

// Title returns the page title.
func (p *Page) Title() string {
	return p.Meta.Title
}

// Node is one position in the content tree: a section or a leaf page.
type Node struct {
	// Path is the node's resolved output path ("" for the root).
	Path string

	// Page is the content backing this node. Nil for a directory that has no
	// index page of its own.
	Page *Page

	// Title is the display title: the page title, or a derived one for
	// directories without an index page.
	Title string

	// Children holds child nodes in display order.
	Children []*Node
}

// IsSection reports whether the node groups children.
func (n *Node) IsSection() bool {
	return len(n.Children) > 0 || (n.Page != nil && n.Page.IsIndex)
}

// Tree is the ordered forest of all pages, mirroring directory structure.
type Tree struct {
	Root *Node

	// pages indexes every page by resolved output path.
	pages map[string]*Page

	// Assets lists non-Markdown files (images etc.) relative to the content
	// root, in walk order. They are staged verbatim alongside the pages.
	Assets []string
}

// Lookup returns the page at the given resolved output path.
func (t *Tree) Lookup(outputPath string) (*Page, bool) {
	p, ok := t.pages[strings.Trim(outputPath, "/")]
	return p, ok
}

// Len returns the number of pages in the tree.
func (t *Tree) Len() int {
	return len(t.pages)
}

// Walk visits every node depth-first in display order, root first.
func (t *Tree) Walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(t.Root)
}

// Pages returns all pages in display order.
func (t *Tree) Pages() []*Page {
	out := make([]*Page, 0, len(t.pages))
	t.Walk(func(n *Node) {
		if n.Page != nil {
			out = append(out, n.Page)
		}
	})
	return out
}

// resolveOutputPath maps a source file path to its output path.
// `docs/getting-started.md` -> `docs/getting-started`
// `docs/_index.md`          -> `docs`
// `_index.md`               -> ``
func resolveOutputPath(sourcePath string) string {
	p := strings.TrimSuffix(sourcePath, ".md")
	if path.Base(p) == "_index" {
		p = path.Dir(p)
		if p == "." {
			return ""
		}
	}
	return p
}
