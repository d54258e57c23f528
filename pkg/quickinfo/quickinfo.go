// Package quickinfo describes the symbol information an analysis engine
// returns for a source offset.
package quickinfo

import (
	"context"
	"strings"

	"github.com/walteh/tshover/pkg/position"
)

// Display part kinds that carry link structure inside documentation.
const (
	KindLink     = "link"
	KindLinkName = "linkName"
	KindLinkText = "linkText"
)

// DisplayPart is one fragment of rich text. Kind decides how it is formatted,
// for example "keyword", "text" or one of the link kinds.
type DisplayPart struct {
	Text   string      `json:"text"`
	Kind   string      `json:"kind"`
	Target *LinkTarget `json:"target,omitempty"`
}

// LinkTarget is where a linkName part points to. Start is optional and, when
// present, is a one-based line/column location in File.
type LinkTarget struct {
	File  string         `json:"file"`
	Start *LineAndColumn `json:"start,omitempty"`
}

type LineAndColumn struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Tag is a documentation annotation such as @param or @see.
type Tag struct {
	Name string        `json:"name"`
	Text []DisplayPart `json:"text,omitempty"`
}

// QuickInfo is produced per query and never cached.
type QuickInfo struct {
	Kind          string        `json:"kind"`
	KindModifiers string        `json:"kindModifiers"`
	DisplayParts  []DisplayPart `json:"displayParts"`
	Documentation []DisplayPart `json:"documentation,omitempty"`
	Tags          []Tag         `json:"tags,omitempty"`
	TextSpan      position.Span `json:"textSpan"`
}

// Engine answers quick-info queries. A nil QuickInfo with a nil error means
// nothing is known about the offset. Implementations may fail or even panic.
type Engine interface {
	QuickInfoAt(ctx context.Context, file string, offset position.Offset) (*QuickInfo, error)
}

// DisplayPartsToString joins the text of every part.
func DisplayPartsToString(parts []DisplayPart) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Signature returns the joined display parts.
func (me *QuickInfo) Signature() string {
	return DisplayPartsToString(me.DisplayParts)
}

// DocumentationParts never returns nil.
func (me *QuickInfo) DocumentationParts() []DisplayPart {
	if me.Documentation == nil {
		return []DisplayPart{}
	}
	return me.Documentation
}

// TagList never returns nil.
func (me *QuickInfo) TagList() []Tag {
	if me.Tags == nil {
		return []Tag{}
	}
	return me.Tags
}
