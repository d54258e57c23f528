// Package position converts between document positions (line, UTF-16 character)
// and the UTF-16 offsets used by the TypeScript language service.
package position

import "fmt"

// Offset is a zero-based index into a document's text, counted in UTF-16 code units.
type Offset int

// Position is a zero-based line and UTF-16 character pair, matching the LSP convention.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Before reports whether p is strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Span is a contiguous region of text in offset space.
type Span struct {
	Start  Offset `json:"start"`
	Length int    `json:"length"`
}

// End returns the exclusive end offset of the span.
func (s Span) End() Offset {
	return s.Start + Offset(s.Length)
}

// Contains reports whether o falls inside the span. A zero-length span
// contains only its own start.
func (s Span) Contains(o Offset) bool {
	if s.Length == 0 {
		return o == s.Start
	}
	return o >= s.Start && o < s.End()
}

func (s Span) String() string {
	return fmt.Sprintf("[%d+%d]", s.Start, s.Length)
}
