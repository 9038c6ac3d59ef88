package witch

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFixture(t *testing.T, path string) Value {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	ast, err := Parse(src)
	require.NoError(t, err)

	program, err := Compile(ast)
	require.NoError(t, err)

	vm := NewVm(64)
	result, err := vm.Run(program)
	require.NoError(t, err)
	return result
}

func TestFixtures_EndToEnd(t *testing.T) {
	tests := []struct {
		path     string
		expected Value
	}{
		{"fixtures/basic.witch", VUsize{Val: 14}},
		{"fixtures/fib.witch", VUsize{Val: 55}},
		{"fixtures/lambda.witch", VUsize{Val: 5}},
		{"fixtures/closures.witch", VUsize{Val: 14}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, runFixture(t, tt.path))
		})
	}
}

func mustRun(t *testing.T, src string) Value {
	t.Helper()
	ast, err := Parse([]byte(src))
	require.NoError(t, err)
	program, err := Compile(ast)
	require.NoError(t, err)
	vm := NewVm(32)
	result, err := vm.Run(program)
	require.NoError(t, err)
	return result
}

func TestRun_Arithmetic(t *testing.T) {
	assert.Equal(t, VUsize{Val: 85}, mustRun(t, "1 + 1 - 2 + 5 * 17"))
}

func TestRun_Power(t *testing.T) {
	assert.Equal(t, VUsize{Val: 8}, mustRun(t, "2 ** 3"))
}

func TestRun_ListIndex(t *testing.T) {
	assert.Equal(t, VUsize{Val: 1}, mustRun(t, "[1, 2, 3][0]"))
}

func TestRun_IfElseAsExpression(t *testing.T) {
	assert.Equal(t, VUsize{Val: 1}, mustRun(t, "if 1 < 2 { 1 } else { 2 }"))
	assert.Equal(t, VUsize{Val: 2}, mustRun(t, "if 2 < 1 { 1 } else { 2 }"))
}

func TestRun_ComparisonAndLogic(t *testing.T) {
	assert.Equal(t, VBool{Val: true}, mustRun(t, "1 < 2 && 2 < 3"))
	assert.Equal(t, VBool{Val: false}, mustRun(t, "1 < 2 && 3 < 2"))
	assert.Equal(t, VBool{Val: true}, mustRun(t, "!(1 == 2)"))
}

func TestRun_DivisionByZero(t *testing.T) {
	ast, err := Parse([]byte("1 / 0"))
	require.NoError(t, err)
	program, err := Compile(ast)
	require.NoError(t, err)
	vm := NewVm(8)
	_, err = vm.Run(program)
	require.Error(t, err)
	rtErr, ok := err.(RuntimeError)
	require.True(t, ok)
	assert.Equal(t, RuntimeErrorDivisionByZero, rtErr.Kind)
}

func TestRun_ArityMismatch(t *testing.T) {
	ast, err := Parse([]byte("fn id(a) -> a\nid(1, 2)"))
	require.NoError(t, err)
	_, err = Compile(ast)
	require.Error(t, err)
}

func TestStack_PushPopSetGetTruncate(t *testing.T) {
	s := NewStack(4)
	s.Push(UsizeEntry(1))
	s.Push(UsizeEntry(2))
	s.Push(UsizeEntry(3))
	assert.Equal(t, 3, s.Len())

	top, err := s.Top()
	require.NoError(t, err)
	assert.Equal(t, UsizeEntry(3), top)

	v, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, UsizeEntry(2), v)

	s.Set(1, UsizeEntry(99))
	v, err = s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, UsizeEntry(99), v)

	s.Truncate(1)
	assert.Equal(t, 1, s.Len())

	_, err = s.Pop()
	require.NoError(t, err)
	_, err = s.Pop()
	assert.Error(t, err)
}

func TestStack_SetGrowsWithVoid(t *testing.T) {
	s := NewStack(0)
	s.Set(2, UsizeEntry(7))
	assert.Equal(t, 3, s.Len())
	v0, _ := s.Get(0)
	assert.Equal(t, VoidEntry(), v0)
	v2, _ := s.Get(2)
	assert.Equal(t, UsizeEntry(7), v2)
}
