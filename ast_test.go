package witch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperator_InfixBindingPower(t *testing.T) {
	tests := []struct {
		name      string
		op        Operator
		wantLeft  int
		wantRight int
		wantOK    bool
	}{
		{"or is lowest", OpOr, 1, 2, true},
		{"and binds tighter than or", OpAnd, 3, 4, true},
		{"eq binds tighter than and", OpEq, 5, 6, true},
		{"comparisons bind tighter than eq", OpLt, 7, 8, true},
		{"add binds tighter than comparisons", OpAdd, 9, 10, true},
		{"mul binds tighter than add", OpMul, 11, 12, true},
		{"pow is right-associative (left > right)", OpPow, 14, 13, true},
		{"bang is not infix", OpBang, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right, ok := tt.op.InfixBindingPower()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantLeft, left)
				assert.Equal(t, tt.wantRight, right)
			}
		})
	}
}

func TestOperator_String(t *testing.T) {
	tests := []struct {
		op       Operator
		expected string
	}{
		{OpAdd, "+"}, {OpSub, "-"}, {OpMul, "*"}, {OpDiv, "/"}, {OpMod, "%"},
		{OpEq, "=="}, {OpNotEq, "!="}, {OpLt, "<"}, {OpGt, ">"}, {OpLte, "<="}, {OpGte, ">="},
		{OpAnd, "&&"}, {OpOr, "||"}, {OpBang, "!"}, {OpPow, "**"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.op.String())
		})
	}
}

// TestAst_StringRoundTrip asserts every node's String() reproduces a
// textual form a reader would recognize as the source it was parsed from
// (spec.md §8: not necessarily byte-identical, but recoverable).
func TestAst_StringRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"infix", "1 + 2", "(1 + 2)"},
		{"member", "foo.bar", "foo.bar"},
		{"index", "foo[0]", "foo[0]"},
		{"call", "add(1, 2)", "add(1, 2)"},
		{"prefix", "!foo", "!foo"},
		{"list", "[1, 2, 3]", "[1, 2, 3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ast, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			stmts := Statements(ast)
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.expected, stmts[0].String())
		})
	}
}

func TestPrettyString_IncludesNodeKindAndRange(t *testing.T) {
	ast, err := Parse([]byte("1 + 2"))
	require.NoError(t, err)
	stmts := Statements(ast)
	require.Len(t, stmts, 1)

	out := PrettyString(stmts[0])
	assert.True(t, strings.Contains(out, "InfixNode"))
	assert.True(t, strings.Contains(out, "ValueNode"))
}

func TestStatements_FlattensConsListInSourceOrder(t *testing.T) {
	ast, err := Parse([]byte("a = 1\nb = 2\na + b"))
	require.NoError(t, err)
	stmts := Statements(ast)
	require.Len(t, stmts, 3)

	let1, ok := stmts[0].(*LetNode)
	require.True(t, ok)
	assert.Equal(t, "a", let1.Ident)

	let2, ok := stmts[1].(*LetNode)
	require.True(t, ok)
	assert.Equal(t, "b", let2.Ident)

	_, ok = stmts[2].(*InfixNode)
	assert.True(t, ok)
}
