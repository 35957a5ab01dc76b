// Package source owns input buffers and the byte spans that every later
// stage of the pipeline uses to reference them.
//
// A span is a half-open byte range [Start, End) into a file's buffer.
// Spans are the only position representation in the pipeline; line and
// column numbers are derived at diagnostic-rendering time only.
package source

import "bytes"

// File is an immutable input: a name for diagnostics and the raw bytes.
type File struct {
	Name string
	Data []byte
}

// NewFile wraps a named input buffer.
func NewFile(name string, data []byte) *File {
	return &File{Name: name, Data: data}
}

// Span marks a location in a file by byte offset.
type Span struct {
	// Start of the range, inclusive.
	Start int
	// End of the range, exclusive.
	End int
}

// Text returns the slice of the input that the span covers.
func (s Span) Text(data []byte) string {
	return string(data[s.Start:s.End])
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Join returns the smallest span that covers both s and other.
func (s Span) Join(other Span) Span {
	r := s
	if other.Start < r.Start {
		r.Start = other.Start
	}
	if other.End > r.End {
		r.End = other.End
	}
	return r
}

// LineCol converts the span's start offset to a 1-based line and column.
// The column counts Unicode scalar values, not bytes, so that diagnostics
// align with what an editor shows.
func (s Span) LineCol(data []byte) (line, col int) {
	if s.Start > len(data) {
		return 1, 1
	}
	before := data[:s.Start]
	line = 1 + bytes.Count(before, []byte{'\n'})
	lineStart := bytes.LastIndexByte(before, '\n') + 1
	col = 1 + len(bytes.Runes(before[lineStart:]))
	return line, col
}

// Line returns the full source line containing the span's start, without
// the trailing newline, along with the byte offset at which it begins.
func (s Span) Line(data []byte) (text string, lineStart int) {
	start := s.Start
	if start > len(data) {
		start = len(data)
	}
	lineStart = bytes.LastIndexByte(data[:start], '\n') + 1
	end := bytes.IndexByte(data[lineStart:], '\n')
	if end < 0 {
		end = len(data)
	} else {
		end += lineStart
	}
	return string(data[lineStart:end]), lineStart
}
