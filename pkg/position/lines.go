package position

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// LineIndex maps between byte offsets, UTF-16 offsets and positions for a
// fixed piece of text. It is immutable once built.
type LineIndex struct {
	text string

	// utf16 offset of the first character of each line
	starts []Offset
	// byte offset of the first character of each line
	byteStarts []int
	// utf16 offset where each line's content ends, before its line break
	ends []Offset

	length Offset
}

// NewLineIndex scans text once. "\n", "\r\n" and a lone "\r" all end a line.
func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{
		text:       text,
		starts:     []Offset{0},
		byteStarts: []int{0},
	}

	var units Offset
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\r':
			idx.ends = append(idx.ends, units)
			if i+1 < len(text) && text[i+1] == '\n' {
				i += 2
				units += 2
			} else {
				i++
				units++
			}
			idx.starts = append(idx.starts, units)
			idx.byteStarts = append(idx.byteStarts, i)
			continue
		case '\n':
			idx.ends = append(idx.ends, units)
			i++
			units++
			idx.starts = append(idx.starts, units)
			idx.byteStarts = append(idx.byteStarts, i)
			continue
		}
		i += size
		units += runeUnits(r)
	}

	idx.ends = append(idx.ends, units)
	idx.length = units

	return idx
}

func runeUnits(r rune) Offset {
	if n := utf16.RuneLen(r); n > 0 {
		return Offset(n)
	}
	return 1
}

// LineCount is always at least one, even for empty text.
func (me *LineIndex) LineCount() int {
	return len(me.starts)
}

// Len returns the length of the text in UTF-16 code units.
func (me *LineIndex) Len() Offset {
	return me.length
}

// OffsetAt converts a position to an offset. Out of range positions are
// clamped: a line past the end maps to the end of the text, and a character
// past the end of its line maps to the end of that line, before the line break.
func (me *LineIndex) OffsetAt(pos Position) Offset {
	if int(pos.Line) >= len(me.starts) {
		return me.length
	}

	start := me.starts[pos.Line]
	end := me.ends[pos.Line]

	off := start + Offset(pos.Character)
	if off > end || off < start {
		return end
	}
	return off
}

// PositionAt converts an offset to a position, clamping to [0, Len()].
func (me *LineIndex) PositionAt(off Offset) Position {
	if off < 0 {
		off = 0
	}
	if off > me.length {
		off = me.length
	}

	line := sort.Search(len(me.starts), func(i int) bool {
		return me.starts[i] > off
	}) - 1

	return Position{
		Line:      uint32(line),
		Character: uint32(off - me.starts[line]),
	}
}

// ByteOffset converts a UTF-16 offset to a byte offset into the text. An
// offset that lands inside a surrogate pair resolves to the start of that rune.
func (me *LineIndex) ByteOffset(off Offset) int {
	if off <= 0 {
		return 0
	}
	if off >= me.length {
		return len(me.text)
	}

	pos := me.PositionAt(off)
	b := me.byteStarts[pos.Line]
	units := me.starts[pos.Line]

	for b < len(me.text) && units < off {
		r, size := utf8.DecodeRuneInString(me.text[b:])
		next := units + runeUnits(r)
		if next > off {
			break
		}
		units = next
		b += size
	}

	return b
}
