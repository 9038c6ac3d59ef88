package witch

import (
	"fmt"
	"strings"
)

// Value is the tagged variant carried by literal AST nodes and produced by
// constant folding (spec.md §3). It's distinct from the VM's Entry
// (stack.go): a Value is a fully self-contained literal; an Entry is the
// compact, pointer-indirecting form the stack actually stores.
type Value interface {
	isValue()
	String() string
}

type VVoid struct{}

func (VVoid) isValue()       {}
func (VVoid) String() string { return "void" }

type VBool struct{ Val bool }

func (VBool) isValue() {}
func (v VBool) String() string {
	if v.Val {
		return "true"
	}
	return "false"
}

// VUsize is the default integer literal type: bare integer literals always
// decode to Usize. The grammar has no prefix minus, so an expression that
// starts with '-' does not parse; a negative amount is written as a
// subtraction such as `0 - n`.
type VUsize struct{ Val uint64 }

func (VUsize) isValue()       {}
func (v VUsize) String() string { return fmt.Sprintf("%d", v.Val) }

type VIsize struct{ Val int64 }

func (VIsize) isValue()       {}
func (v VIsize) String() string { return fmt.Sprintf("%d", v.Val) }

type VF32 struct{ Val float32 }

func (VF32) isValue()       {}
func (v VF32) String() string { return fmt.Sprintf("%g", v.Val) }

type VF64 struct{ Val float64 }

func (VF64) isValue()       {}
func (v VF64) String() string { return fmt.Sprintf("%g", v.Val) }

// VString is a heap-allocated, Go-native string value. VCString is its
// NUL-terminated counterpart, kept as a distinct variant so the emitter can
// choose a different heap representation without the type system
// conflating the two (spec.md §3, witch-runtime value model).
type VString struct{ Val string }

func (VString) isValue()       {}
func (v VString) String() string { return fmt.Sprintf("%q", v.Val) }

type VCString struct{ Val string }

func (VCString) isValue()       {}
func (v VCString) String() string { return fmt.Sprintf("c%q", v.Val) }

type VList struct{ Items []Value }

func (VList) isValue() {}
func (v VList) String() string {
	parts := make([]string, len(v.Items))
	for i, it := range v.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// VFunction names a compiled function by its bytecode entry address and
// arity. The VM produces it when a run's result is a function entry
// (valueFromEntry), leaving Name empty; it carries no upvalue information.
type VFunction struct {
	Name  string
	Addr  int
	Arity int
}

func (VFunction) isValue()       {}
func (v VFunction) String() string { return fmt.Sprintf("fn %s/%d", v.Name, v.Arity) }
