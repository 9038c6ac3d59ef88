package witch

import (
	"fmt"
	"sort"
)

// Range is a half-open byte span [Start, End) into the source buffer.
// Like the teacher's Range, it takes as little as possible to represent a
// position: two ints.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Str returns the substring of src covered by r.
func (r Range) Str(src []byte) string {
	return string(src[r.Start:r.End])
}

// Contains reports whether other is fully nested within r.
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Location is a line/column/cursor triple used for diagnostics.
type Location struct {
	Line   int
	Column int
	Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line+1, l.Column+1)
}

// LineIndex converts byte cursor offsets into line/column locations without
// rescanning the whole input for each lookup.
//
// It stores the start byte offset of each line (0-based) and finds the
// owning line by binary search over those offsets - O(log lines) per
// lookup after an O(n) build.
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}
	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	lineStart := li.lineStart[lineIdx]
	return Location{Line: lineIdx, Column: cursor - lineStart, Cursor: cursor}
}

func (li *LineIndex) RangeString(r Range) string {
	start := li.LocationAt(r.Start)
	end := li.LocationAt(r.End)
	if start == end {
		return start.String()
	}
	return fmt.Sprintf("%s..%s", start, end)
}

// Caret renders a single caret-annotated line pointing at r.Start, the way
// the CLI driver surfaces compile errors (spec.md §7).
func (li *LineIndex) Caret(r Range) string {
	loc := li.LocationAt(r.Start)
	lineStart := li.lineStart[loc.Line]
	lineEnd := len(li.input)
	for i := lineStart; i < len(li.input); i++ {
		if li.input[i] == '\n' {
			lineEnd = i
			break
		}
	}
	line := string(li.input[lineStart:lineEnd])
	pad := ""
	for i := 0; i < loc.Column; i++ {
		pad += " "
	}
	return fmt.Sprintf("%s\n%s^", line, pad)
}
