package witch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Equal(t *testing.T) {
	intName := "Point"
	otherName := "Vector"

	structByName := Type{Tag: TypeStruct, StructName: &intName}
	structByOtherName := Type{Tag: TypeStruct, StructName: &otherName}
	structStructural := Type{Tag: TypeStruct, Fields: []StructField{{Name: "x", Type: Usize}}}
	structStructuralSame := Type{Tag: TypeStruct, Fields: []StructField{{Name: "x", Type: Usize}}}
	structStructuralDiff := Type{Tag: TypeStruct, Fields: []StructField{{Name: "x", Type: Strng}}}

	iface := Type{Tag: TypeInterface, InterfaceName: "Shaped", Properties: map[string]Type{"x": Usize}}
	structWithField := Type{Tag: TypeStruct, Fields: []StructField{{Name: "x", Type: Usize}}}
	structMissingField := Type{Tag: TypeStruct, Fields: []StructField{{Name: "y", Type: Usize}}}

	variant := EnumVariant{Name: "Some", Discriminant: 0}
	enum := Type{Tag: TypeEnum, Variants: []EnumVariant{variant}}
	enumVariant := Type{Tag: TypeEnumVariant, Variant: &variant}

	fn1 := FunctionType([]Type{Usize, Usize}, Bool, false, nil)
	fn2 := FunctionType([]Type{Usize, Usize}, Bool, false, nil)
	fn3 := FunctionType([]Type{Usize}, Bool, false, nil)

	tests := []struct {
		name     string
		a, b     Type
		expected bool
	}{
		{"any equals everything (lhs)", Any, Usize, true},
		{"any equals everything (rhs)", Strng, Any, true},
		{"lists compare by inner type, equal", ListOf(Usize), ListOf(Usize), true},
		{"lists compare by inner type, unequal", ListOf(Usize), ListOf(Strng), false},
		{"functions compare arity+args+return, equal", fn1, fn2, true},
		{"functions compare arity+args+return, arity mismatch", fn1, fn3, false},
		{"nominal structs, same name", structByName, structByName, true},
		{"nominal structs, different name", structByName, structByOtherName, false},
		{"structural structs, matching fields", structStructural, structStructuralSame, true},
		{"structural structs, mismatched fields", structStructural, structStructuralDiff, false},
		{"interface matches struct structurally", iface, structWithField, true},
		{"struct matches interface structurally (reversed order)", structWithField, iface, true},
		{"interface does not match struct missing a property", iface, structMissingField, false},
		{"enum contains variant", enum, enumVariant, true},
		{"enum variant reversed order", enumVariant, enum, true},
		{"fallback: equal tags", Bool, Bool, true},
		{"fallback: different tags", Bool, Usize, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b), "%s.Equal(%s)", tt.a, tt.b)
		})
	}
}

func TestType_EqualIsReflexive(t *testing.T) {
	name := "Point"
	variant := EnumVariant{Name: "Ok", Discriminant: 1}
	types := []Type{
		Void, Bool, Strng, Usize, Isize, F32, F64, Any,
		ListOf(Usize),
		FunctionType([]Type{Usize}, Bool, false, nil),
		{Tag: TypeStruct, StructName: &name},
		{Tag: TypeInterface, InterfaceName: "Shaped"},
		{Tag: TypeEnum, Variants: []EnumVariant{variant}},
	}
	for _, ty := range types {
		assert.True(t, ty.Equal(ty), "%s should equal itself", ty)
	}
}

func TestType_AllowedInfixOperators(t *testing.T) {
	tests := []struct {
		name     string
		lhs, rhs Type
		expected []Operator
	}{
		{"usize-usize", Usize, Usize, []Operator{OpAdd, OpSub, OpDiv, OpMul, OpMod, OpLt, OpPow}},
		{"string-usize repetition", Strng, Usize, []Operator{OpMul}},
		{"unrelated pair", Bool, Strng, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lhs.AllowedInfixOperators(tt.rhs))
		})
	}
}

func TestType_FromStr(t *testing.T) {
	tests := []struct {
		str      string
		expected Type
	}{
		{"bool", Bool},
		{"Bool", Bool},
		{"usize", Usize},
		{"string", Strng},
		{"any", Any},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromStr(tt.str, nil))
		})
	}

	genericType := FromStr("Box", []Type{Usize})
	assert.Equal(t, TypeTypeVar, genericType.Tag)
	assert.Equal(t, "Box", genericType.Name)
	assert.Equal(t, []Type{Usize}, genericType.Inner)
}

func TestType_FromValue(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected Type
	}{
		{"usize", VUsize{Val: 1}, Usize},
		{"isize", VIsize{Val: -1}, Isize},
		{"bool", VBool{Val: true}, Bool},
		{"string", VString{Val: "a"}, Strng},
		{"empty list", VList{}, ListOf(Any)},
		{"list of usize", VList{Items: []Value{VUsize{Val: 1}}}, ListOf(Usize)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromValue(tt.value))
		})
	}
}
