package linkcheck

import (
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/provbook/bookbuilder/internal/errors"
)

// HTMLLink is a link extracted from rendered HTML output.
type HTMLLink struct {
	URL        string // The URL or path
	Tag        string // HTML tag (a, img, script, link)
	Attribute  string // Attribute containing the link (href, src)
	IsInternal bool   // True if the link is internal to the site
}

// ExtractHTMLLinks extracts all links from an HTML reader.
func ExtractHTMLLinks(r io.Reader, baseURL string) ([]HTMLLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, errors.SeverityError, "failed to parse HTML")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, errors.SeverityError, "invalid base URL").
			WithContext("base_url", baseURL)
	}

	var links []HTMLLink
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if link, ok := elementLink(n, base); ok {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL) (HTMLLink, bool) {
	var attr string
	switch n.Data {
	case "a", "link":
		attr = "href"
	case "img", "script", "video", "audio", "source":
		attr = "src"
	default:
		return HTMLLink{}, false
	}

	val := getAttr(n, attr)
	if val == "" {
		return HTMLLink{}, false
	}
	return HTMLLink{
		URL:        val,
		Tag:        n.Data,
		Attribute:  attr,
		IsInternal: isInternalURL(val, base),
	}, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isInternalURL(raw string, base *url.URL) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return u.Path != ""
	}
	return u.Host == base.Host && u.Scheme == base.Scheme
}

// VerifyRenderedSite walks every HTML file under outputDir and checks that
// internal link targets exist in the rendered tree. Like the Markdown pass,
// every miss is a warning.
func VerifyRenderedSite(outputDir, baseURL string) ([]Warning, error) {
	var warnings []Warning

	walkErr := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		f, openErr := os.Open(p) // #nosec G304 -- path comes from walking our own output dir
		if openErr != nil {
			return openErr
		}
		links, exErr := ExtractHTMLLinks(f, baseURL)
		_ = f.Close()
		if exErr != nil {
			return exErr
		}

		rel, relErr := filepath.Rel(outputDir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		for _, link := range links {
			if !link.IsInternal {
				continue
			}
			if renderedTargetExists(outputDir, rel, link.URL) {
				continue
			}
			warnings = append(warnings, Warning{SourcePath: rel, Target: link.URL})
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.WorkspaceError("verify rendered site", walkErr)
	}
	return warnings, nil
}

// renderedTargetExists checks the output tree for a link target: the path
// itself, or the directory's index.html for pretty URLs.
func renderedTargetExists(outputDir, fromRel, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return true
	}

	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(fromRel), target)
	}
	target = strings.TrimPrefix(path.Clean("/"+target), "/")

	candidates := []string{
		target,
		path.Join(target, "index.html"),
	}
	for _, c := range candidates {
		if c == "" {
			c = "index.html"
		}
		if _, statErr := os.Stat(filepath.Join(outputDir, filepath.FromSlash(c))); statErr == nil {
			return true
		}
	}
	return false
}
