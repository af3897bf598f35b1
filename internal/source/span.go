package source

// Span is the source-span handle threaded through AST nodes, IR values,
// and diagnostics (spec.md §3 "each [IR value] carries ... a debug span").
// It is a lightweight value (two ints) so it can be copied freely; an
// invalid Span has a negative Start or End < Start.
type Span struct {
	Start int
	End   int
}

// NoSpan is the sentinel for an unset span.
var NoSpan = Span{Start: -1, End: -1}

// IsValid reports whether the span refers to an actual source range.
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Merge returns the smallest span covering both s and other. If either is
// invalid, the other is returned unchanged.
func (s Span) Merge(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

// Buffer owns a source's text and its precomputed LineIndex, and is the
// handle a File carries so diagnostics can render positions lazily.
type Buffer struct {
	Name string
	Text string
	idx  *LineIndex
}

// NewBuffer wraps source text with a name (path or module display name)
// for diagnostic rendering.
func NewBuffer(name, text string) *Buffer {
	return &Buffer{Name: name, Text: text, idx: NewLineIndex(text)}
}

// Position converts a Span's start offset into a 1-indexed line/column pair.
func (b *Buffer) Position(s Span) (line, col int) {
	if b == nil || !s.IsValid() {
		return 0, 0
	}
	l, c := b.idx.ByteOffsetToLineColumn(s.Start)
	return l + 1, c + 1
}

// Slice returns the source text covered by the span.
func (b *Buffer) Slice(s Span) string {
	if b == nil || !s.IsValid() || s.End > len(b.Text) {
		return ""
	}
	return b.Text[s.Start:s.End]
}
