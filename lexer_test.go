package witch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []Kind
	}{
		{"integer", "42", []Kind{KindInt, KindEOF}},
		{"float", "3.14", []Kind{KindFloat, KindEOF}},
		{"string", `"hi"`, []Kind{KindString, KindEOF}},
		{"cstring", `c"hi"`, []Kind{KindCString, KindEOF}},
		{"ident", "foobar", []Kind{KindIdent, KindEOF}},
		{"arrow", "->", []Kind{KindArrow, KindEOF}},
		{"pow", "**", []Kind{KindPow, KindEOF}},
		{"dotdotdot", "...", []Kind{KindDotDotDot, KindEOF}},
		{"keywords", "fn if else return import struct enum interface new where",
			[]Kind{KindKwFn, KindKwIf, KindKwElse, KindKwReturn, KindKwImport, KindKwStruct, KindKwEnum, KindKwInterface, KindKwNew, KindKwWhere, KindEOF}},
		{"member chain", "foo.bar.baz", []Kind{KindIdent, KindDot, KindIdent, KindDot, KindIdent, KindEOF}},
		{"comparisons", "== != < > <= >=", []Kind{KindEqq, KindNeq, KindLAngle, KindRAngle, KindLte, KindGte, KindEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize([]byte(tt.src))
			require.NoError(t, err)
			kinds := make([]Kind, len(toks))
			for i, tok := range toks {
				kinds[i] = tok.Kind
			}
			assert.Equal(t, tt.expected, kinds)
		})
	}
}

// TestTokenize_SpanRoundTrip asserts spec.md §8's token span invariant: every
// token's Span.Str(src) reproduces the exact lexeme that produced it.
func TestTokenize_SpanRoundTrip(t *testing.T) {
	src := []byte(`foo = 123 + "bar" -> baz`)
	toks, err := Tokenize(src)
	require.NoError(t, err)

	expectedLexemes := []string{"foo", "=", "123", "+", `"bar"`, "->", "baz"}
	require.Equal(t, len(expectedLexemes)+1, len(toks), "expected trailing EOF token")

	for i, lexeme := range expectedLexemes {
		assert.Equal(t, lexeme, toks[i].Span.Str(src), "token %d", i)
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	_, err := Tokenize([]byte(`"unterminated`))
	require.Error(t, err)
	_, ok := err.(LexError)
	assert.True(t, ok)
}

func TestRange_Str(t *testing.T) {
	src := []byte("hello world")
	r := NewRange(6, 11)
	assert.Equal(t, "world", r.Str(src))
}

func TestRange_Contains(t *testing.T) {
	tests := []struct {
		name     string
		parent   Range
		other    Range
		expected bool
	}{
		{"fully contained range", NewRange(0, 10), NewRange(2, 8), true},
		{"identical ranges", NewRange(5, 15), NewRange(5, 15), true},
		{"other starts at same position", NewRange(0, 10), NewRange(0, 5), true},
		{"other ends at same position", NewRange(0, 10), NewRange(5, 10), true},
		{"other starts before parent", NewRange(5, 15), NewRange(3, 10), false},
		{"other ends after parent", NewRange(5, 15), NewRange(10, 20), false},
		{"other completely before parent", NewRange(10, 20), NewRange(0, 5), false},
		{"other completely after parent", NewRange(0, 10), NewRange(15, 25), false},
		{"other overlaps start boundary", NewRange(5, 15), NewRange(3, 8), false},
		{"other overlaps end boundary", NewRange(5, 15), NewRange(12, 18), false},
		{"other completely encompasses parent", NewRange(5, 15), NewRange(0, 20), false},
		{"zero-length range at start", NewRange(0, 10), NewRange(0, 0), true},
		{"zero-length range at end", NewRange(0, 10), NewRange(10, 10), true},
		{"zero-length range in middle", NewRange(0, 10), NewRange(5, 5), true},
		{"zero-length range before parent", NewRange(5, 10), NewRange(3, 3), false},
		{"zero-length range after parent", NewRange(5, 10), NewRange(12, 12), false},
		{"both zero-length at same position", NewRange(5, 5), NewRange(5, 5), true},
		{"parent zero-length, other has length", NewRange(5, 5), NewRange(5, 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.parent.Contains(tt.other),
				"Range(%d..%d).Contains(%d..%d) should be %v",
				tt.parent.Start, tt.parent.End, tt.other.Start, tt.other.End, tt.expected)
		})
	}
}

func TestLineIndex_LocationAt(t *testing.T) {
	src := []byte("abc\ndef\nghi")
	li := NewLineIndex(src)

	loc := li.LocationAt(0)
	assert.Equal(t, Location{Line: 0, Column: 0, Cursor: 0}, loc)

	loc = li.LocationAt(4)
	assert.Equal(t, Location{Line: 1, Column: 0, Cursor: 4}, loc)

	loc = li.LocationAt(9)
	assert.Equal(t, Location{Line: 2, Column: 1, Cursor: 9}, loc)
}
