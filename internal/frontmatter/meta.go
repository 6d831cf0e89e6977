package frontmatter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Meta holds the recognized header fields of a book page.
//
// Unknown fields are not an error; they are preserved in Extra so page-level
// theme parameters pass through to the renderer untouched.
type Meta struct {
	Title           string `yaml:"title"`
	Type            string `yaml:"type"`
	Weight          int    `yaml:"weight"`
	TOC             *bool  `yaml:"bookToc"`
	Hidden          bool   `yaml:"bookHidden"`
	CollapseSection bool   `yaml:"bookCollapseSection"`

	// WeightSet records whether weight was present at all; absent weights sort
	// after explicit ones.
	WeightSet bool `yaml:"-"`

	// Extra holds every header field outside the recognized set.
	Extra map[string]any `yaml:"-"`
}

var recognizedFields = map[string]struct{}{
	"title":               {},
	"type":                {},
	"weight":              {},
	"bookToc":             {},
	"bookHidden":          {},
	"bookCollapseSection": {},
}

// DecodeMeta decodes raw YAML frontmatter into Meta.
//
// Scalar fields of the wrong type (e.g. a non-integer weight) are a decode
// error, matching the hard-error policy for malformed headers.
func DecodeMeta(raw []byte) (Meta, error) {
	var meta Meta

	fields, err := ParseYAML(raw)
	if err != nil {
		return meta, fmt.Errorf("parse frontmatter: %w", err)
	}

	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("decode frontmatter fields: %w", err)
	}

	_, meta.WeightSet = fields["weight"]

	for k, v := range fields {
		if _, ok := recognizedFields[k]; ok {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = map[string]any{}
		}
		meta.Extra[k] = v
	}

	return meta, nil
}

// TOCEnabled reports whether the page's table of contents is enabled.
// The flag defaults to true when the header does not set it.
func (m Meta) TOCEnabled() bool {
	if m.TOC == nil {
		return true
	}
	return *m.TOC
}
