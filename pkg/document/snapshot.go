package document

import (
	"github.com/walteh/tshover/pkg/position"
)

// Snapshot is an immutable view of a document's text at a given version.
type Snapshot struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string

	lines *position.LineIndex
}

func NewSnapshot(uri, languageID string, version int32, text string) *Snapshot {
	return &Snapshot{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
		lines:      position.NewLineIndex(text),
	}
}

// PositionToOffset clamps positions outside the document, see position.LineIndex.OffsetAt.
func (me *Snapshot) PositionToOffset(pos position.Position) position.Offset {
	return me.lines.OffsetAt(pos)
}

func (me *Snapshot) OffsetToPosition(off position.Offset) position.Position {
	return me.lines.PositionAt(off)
}

// SpanToRange converts an engine span into a document range.
func (me *Snapshot) SpanToRange(span position.Span) position.Range {
	return position.Range{
		Start: me.OffsetToPosition(span.Start),
		End:   me.OffsetToPosition(span.End()),
	}
}

// WithText returns a new snapshot of the same document holding text.
func (me *Snapshot) WithText(version int32, text string) *Snapshot {
	return NewSnapshot(me.URI, me.LanguageID, version, text)
}

// ApplyChange replaces the text covered by rng with text and returns the
// resulting snapshot. A nil range replaces the whole document.
func (me *Snapshot) ApplyChange(version int32, rng *position.Range, text string) *Snapshot {
	if rng == nil {
		return me.WithText(version, text)
	}

	start := me.lines.ByteOffset(me.PositionToOffset(rng.Start))
	end := me.lines.ByteOffset(me.PositionToOffset(rng.End))
	if end < start {
		start, end = end, start
	}

	return me.WithText(version, me.Text[:start]+text+me.Text[end:])
}
