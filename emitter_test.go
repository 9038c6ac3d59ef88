package witch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSrc(t *testing.T, src string) *Program {
	t.Helper()
	ast, err := Parse([]byte(src))
	require.NoError(t, err)
	program, err := Compile(ast)
	require.NoError(t, err)
	return program
}

// TestCompile_RootFunctionUsesCallAddrFastPath asserts a non-capturing,
// self-recursive root function compiles its call sites to the closure-free
// ICallAddr fast path rather than a generic ICall (compileCall).
func TestCompile_RootFunctionUsesCallAddrFastPath(t *testing.T) {
	program := compileSrc(t, "fn fib(n) -> { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }\nfib(10)")

	found := false
	for _, instr := range program.Instrs {
		if instr.Op == ICallAddr {
			found = true
		}
		assert.NotEqual(t, ICall, instr.Op, "non-capturing recursive function should never emit a generic ICall")
	}
	assert.True(t, found, "expected at least one ICallAddr instruction")
}

// TestCompile_CapturingRootFunctionUsesGenericCall asserts a root function
// that captures an outer local (closures.witch's addX shape) is called
// through the generic ICall path so its UpvaluesRef threads correctly,
// never through the closure-free ICallAddr fast path.
func TestCompile_CapturingRootFunctionUsesGenericCall(t *testing.T) {
	program := compileSrc(t, "x = 5\naddX = (y) -> { x + y }\naddX(9)")

	foundCall := false
	for _, instr := range program.Instrs {
		if instr.Op == ICall {
			foundCall = true
		}
	}
	assert.True(t, foundCall, "expected the capturing function's call site to use the generic ICall path")
}

func TestCompile_ArityMismatchOnFastPathIsCompileError(t *testing.T) {
	ast, err := Parse([]byte("fn id(a) -> a\nid(1, 2)"))
	require.NoError(t, err)
	_, err = Compile(ast)
	require.Error(t, err)
	rtErr, ok := err.(RuntimeError)
	require.True(t, ok)
	assert.Equal(t, RuntimeErrorArityMismatch, rtErr.Kind)
}

// TestCompile_IfElseLeavesExactlyOneValue asserts the blockValue fix: an
// if/else used as the sole statement of a function body does not leave a
// stray extra value (or discard its computed value in favor of a spurious
// Void) underneath the IReturn.
func TestCompile_IfElseLeavesExactlyOneValue(t *testing.T) {
	program := compileSrc(t, "fn pick(n) -> { if n < 2 { n } else { 0 - n } }\npick(1)")

	returns := 0
	for _, instr := range program.Instrs {
		if instr.Op == IReturn {
			returns++
		}
	}
	// One IReturn for pick's function body, one for the top-level program.
	assert.Equal(t, 2, returns)
}

func TestCompile_UndefinedVariableIsError(t *testing.T) {
	ast, err := Parse([]byte("doesNotExist"))
	require.NoError(t, err)
	_, err = Compile(ast)
	require.Error(t, err)
}

func TestCompile_ConstPoolDedupesNothingButCollectsLiterals(t *testing.T) {
	program := compileSrc(t, "1 + 2")
	require.Len(t, program.Consts, 2)
	assert.Equal(t, VUsize{Val: 1}, program.Consts[0])
	assert.Equal(t, VUsize{Val: 2}, program.Consts[1])
}
