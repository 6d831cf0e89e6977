// Package markdown provides Markdown analysis helpers for the reference
// checker. It never renders; rendering belongs to the external site renderer.
package markdown

// LinkKind classifies how a link appears in the source.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a link-like construct extracted from a Markdown body.
type Link struct {
	Kind        LinkKind
	Destination string
}
