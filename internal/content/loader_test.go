package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provbook/bookbuilder/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func childTitles(n *Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.Title)
	}
	return out
}

func findChild(t *testing.T, n *Node, path string) *Node {
	t.Helper()
	for _, c := range n.Children {
		if c.Path == path {
			return c
		}
	}
	t.Fatalf("child %q not found under %q", path, n.Path)
	return nil
}

func TestLoad_SiblingOrderByWeightThenTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/_index.md", "---\ntitle: Documentation\nweight: 1\n---\n")
	writeFile(t, root, "docs/getting-started.md", "---\ntitle: Getting Started\nweight: 1\n---\n")
	writeFile(t, root, "docs/core-concepts.md", "---\ntitle: Core Concepts\nweight: 3\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)

	docs := findChild(t, tree.Root, "docs")
	assert.Equal(t, []string{"Getting Started", "Core Concepts"}, childTitles(docs))
}

func TestLoad_UnweightedPagesSortAfterWeighted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "zeta.md", "---\ntitle: Zeta\nweight: 10\n---\n")
	writeFile(t, root, "alpha.md", "---\ntitle: Alpha\n---\n")
	writeFile(t, root, "beta.md", "---\ntitle: Beta\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"Zeta", "Alpha", "Beta"}, childTitles(tree.Root))
}

func TestLoad_WeightTieBrokenByTitleThenPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "---\ntitle: Same\nweight: 2\n---\n")
	writeFile(t, root, "a.md", "---\ntitle: Same\nweight: 2\n---\n")
	writeFile(t, root, "c.md", "---\ntitle: Another\nweight: 2\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)

	paths := make([]string, 0, 3)
	for _, c := range tree.Root.Children {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"c", "a", "b"}, paths)
}

func TestLoad_MissingTitleIsFatalAndNamesFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/broken.md", "---\nweight: 2\n---\nbody\n")

	_, err := Load(root)
	require.Error(t, err)

	be, ok := err.(*errors.BookError)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryContent, be.Category)
	assert.Equal(t, "docs/broken.md", be.Path())
}

func TestLoad_MissingHeaderIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plain.md", "# No header here\n")

	_, err := Load(root)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryContent))
}

func TestLoad_UnterminatedHeaderIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "open.md", "---\ntitle: Open\nbody without closing\n")

	_, err := Load(root)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryContent))
}

func TestLoad_DuplicateOutputPathIsConflict(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/setup.md", "---\ntitle: Setup\n---\n")
	writeFile(t, root, "docs/setup/_index.md", "---\ntitle: Setup Section\n---\n")

	_, err := Load(root)
	require.Error(t, err)

	be, ok := err.(*errors.BookError)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryConflict, be.Category)
	assert.Equal(t, "docs/setup", be.Context["output_path"])
}

func TestLoad_IndexPageResolvesToDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/_index.md", "---\ntitle: Documentation\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)

	page, ok := tree.Lookup("docs")
	require.True(t, ok)
	assert.True(t, page.IsIndex)
	assert.Equal(t, "Documentation", page.Title())
}

func TestLoad_RootIndexResolvesToEmptyPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_index.md", "---\ntitle: Home\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)
	require.NotNil(t, tree.Root.Page)
	assert.Equal(t, "Home", tree.Root.Title)
}

func TestLoad_DirectoryWithoutIndexGetsDerivedTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "getting-started/install.md", "---\ntitle: Install\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)

	section := findChild(t, tree.Root, "getting-started")
	assert.Nil(t, section.Page)
	assert.Equal(t, "Getting Started", section.Title)
	assert.True(t, section.IsSection())
}

func TestLoad_NonMarkdownFilesAreAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/_index.md", "---\ntitle: Docs\n---\n")
	writeFile(t, root, "docs/images/arch.png", "not really a png")

	tree, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/images/arch.png"}, tree.Assets)
	assert.Equal(t, 1, tree.Len())
}

func TestLoad_HiddenFilesAndDirsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/_index.md", "---\ntitle: Docs\n---\n")
	writeFile(t, root, ".git/config", "ignored")
	writeFile(t, root, "docs/.hidden.md", "no header, would be fatal if read")

	tree, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
	assert.Empty(t, tree.Assets)
}

func TestLoad_MissingContentDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileSystem))
}

func TestLoad_IsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/_index.md", "---\ntitle: Docs\nweight: 1\n---\n")
	writeFile(t, root, "docs/a.md", "---\ntitle: A\nweight: 2\n---\n")
	writeFile(t, root, "docs/b.md", "---\ntitle: B\n---\n")
	writeFile(t, root, "guides/g.md", "---\ntitle: G\n---\n")

	first, err := Load(root)
	require.NoError(t, err)
	second, err := Load(root)
	require.NoError(t, err)

	var firstOrder, secondOrder []string
	first.Walk(func(n *Node) { firstOrder = append(firstOrder, n.Path) })
	second.Walk(func(n *Node) { secondOrder = append(secondOrder, n.Path) })
	assert.Equal(t, firstOrder, secondOrder)
}

func TestPages_ReturnsDisplayOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "---\ntitle: B\nweight: 1\n---\n")
	writeFile(t, root, "a.md", "---\ntitle: A\nweight: 2\n---\n")

	tree, err := Load(root)
	require.NoError(t, err)

	pages := tree.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, "b", pages[0].Path)
	assert.Equal(t, "a", pages[1].Path)
}
