package witch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"void", VVoid{}, "void"},
		{"bool true", VBool{Val: true}, "true"},
		{"bool false", VBool{Val: false}, "false"},
		{"usize", VUsize{Val: 42}, "42"},
		{"isize", VIsize{Val: -7}, "-7"},
		{"f32", VF32{Val: 1.5}, "1.5"},
		{"f64", VF64{Val: 2.5}, "2.5"},
		{"string", VString{Val: "hi"}, `"hi"`},
		{"cstring", VCString{Val: "hi"}, `c"hi"`},
		{"empty list", VList{}, "[]"},
		{"list of usize", VList{Items: []Value{VUsize{Val: 1}, VUsize{Val: 2}}}, "[1, 2]"},
		{"function", VFunction{Name: "add", Arity: 2}, "fn add/2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestEntry_Constructors(t *testing.T) {
	assert.Equal(t, Entry{Tag: EntryVoid}, VoidEntry())
	assert.Equal(t, Entry{Tag: EntryIsize, Isize: -3}, IsizeEntry(-3))
	assert.Equal(t, Entry{Tag: EntryUsize, Usize: 5}, UsizeEntry(5))
	assert.Equal(t, Entry{Tag: EntryBool, Bool: true}, BoolEntry(true))
	assert.Equal(t, Entry{Tag: EntryPointer, Pointer: Pointer{Kind: PointerHeap, Idx: 2}}, HeapEntry(2))
	assert.Equal(t, Entry{Tag: EntryPointer, Pointer: Pointer{Kind: PointerVtable, Idx: 3}}, VtableEntry(3))
	assert.Equal(t, Entry{Tag: EntryFunction, Addr: 10, Arity: 2, UpvaluesRef: 1}, FunctionEntry(10, 2, 1))
}

func TestEntry_String(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		expected string
	}{
		{"void", VoidEntry(), "void"},
		{"isize", IsizeEntry(-5), "-5"},
		{"usize", UsizeEntry(5), "5"},
		{"bool", BoolEntry(true), "true"},
		{"heap pointer", HeapEntry(3), "heap(3)"},
		{"vtable pointer", VtableEntry(4), "vtable(4)"},
		{"function", FunctionEntry(12, 2, 0), "fn@12/2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.String())
		})
	}
}
