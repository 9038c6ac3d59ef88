package witch

import (
	"fmt"
	"strings"
)

// TypeTag is the discriminant of the Type tagged variant (spec.md §3). Its
// ordering has no semantic meaning beyond being stable within a build; it
// backs the "otherwise, equal iff the discriminants match" fallback rule of
// §4.5's equality relation.
type TypeTag int

const (
	TypeVoid TypeTag = iota
	TypeBool
	TypeString
	TypeChar
	TypeI8
	TypeU8
	TypeI16
	TypeU16
	TypeI32
	TypeU32
	TypeI64
	TypeU64
	TypeI128
	TypeU128
	TypeIsize
	TypeUsize
	TypeF32
	TypeF64
	TypeAny
	TypeUnknown
	TypeList
	TypeFunction
	TypeStruct
	TypeInterface
	TypeEnum
	TypeEnumVariant
	TypeTypeVar
	TypeVarRef
	TypeIntersection
)

var primitiveNames = map[TypeTag]string{
	TypeVoid: "void", TypeBool: "bool", TypeString: "string", TypeChar: "char",
	TypeI8: "i8", TypeU8: "u8", TypeI16: "i16", TypeU16: "u16",
	TypeI32: "i32", TypeU32: "u32", TypeI64: "i64", TypeU64: "u64",
	TypeI128: "i128", TypeU128: "u128", TypeIsize: "isize", TypeUsize: "usize",
	TypeF32: "f32", TypeF64: "f64", TypeAny: "any", TypeUnknown: "unknown",
}

// EnumVariant is one arm of an Enum, with its stable, zero-based dense
// discriminant and optional payload types (spec.md §3/§4.5).
type EnumVariant struct {
	Name         string
	Discriminant int
	Types        []Type
}

func (v EnumVariant) equal(o EnumVariant) bool {
	return v.Name == o.Name && v.Discriminant == o.Discriminant
}

// StructMethod records a method's Type alongside the stable vtable index
// dispatch uses at runtime (spec.md §4.5/§9 "Struct methods and vtables").
type StructMethod struct {
	Type  Type
	Index int
}

// Type is the tagged variant describing witch's type system (spec.md §3).
// Like the original Rust `enum Type`, it's a value type: copying a Type
// copies its tag and the (small) set of fields relevant to that tag: unused
// fields for a given tag are left at their zero value.
type Type struct {
	Tag TypeTag

	// TypeVar / Var
	Name string

	// List / TypeVar generic args
	Inner []Type

	// Function
	Args       []Type
	Returns    *Type
	IsVariadic bool
	Generics   map[string]Type

	// Struct
	StructName   *string
	Fields       []StructField
	Methods      map[string]StructMethod
	GenericOrder []string // preserves generic declaration order for Structs

	// Interface
	InterfaceName    string
	Properties       map[string]Type
	InterfaceGeneric []GenericParam

	// Enum / EnumVariant
	Variants []EnumVariant
	Variant  *EnumVariant

	// Intersection
	Parts []Type
}

// StructField is a single (name, type) struct member. Order is preserved:
// structs are backed by lists at runtime (spec.md §3 invariant).
type StructField struct {
	Name string
	Type Type
}

func Primitive(tag TypeTag) Type { return Type{Tag: tag} }

var (
	Void    = Primitive(TypeVoid)
	Bool    = Primitive(TypeBool)
	Strng   = Primitive(TypeString)
	Char    = Primitive(TypeChar)
	Any     = Primitive(TypeAny)
	Unknown = Primitive(TypeUnknown)
	Isize   = Primitive(TypeIsize)
	Usize   = Primitive(TypeUsize)
	F32     = Primitive(TypeF32)
	F64     = Primitive(TypeF64)
)

func ListOf(inner Type) Type { return Type{Tag: TypeList, Inner: []Type{inner}} }

func (t Type) listInner() Type {
	if len(t.Inner) == 0 {
		return Unknown
	}
	return t.Inner[0]
}

func FunctionType(args []Type, returns Type, variadic bool, generics map[string]Type) Type {
	r := returns
	return Type{Tag: TypeFunction, Args: args, Returns: &r, IsVariadic: variadic, Generics: generics}
}

func TypeVar(name string, inner []Type) Type {
	return Type{Tag: TypeTypeVar, Name: name, Inner: inner}
}

func VarRef(name string) Type { return Type{Tag: TypeVarRef, Name: name} }

// FromStr maps a type literal's textual spelling to a primitive Type, or to
// a TypeVar carrying any parsed generic arguments when the name isn't
// reserved (spec.md §4.5).
func FromStr(str string, inner []Type) Type {
	switch strings.ToLower(str) {
	case "void":
		return Void
	case "bool":
		return Bool
	case "string":
		return Strng
	case "char":
		return Char
	case "any":
		return Any
	case "i8":
		return Primitive(TypeI8)
	case "u8":
		return Primitive(TypeU8)
	case "i16":
		return Primitive(TypeI16)
	case "u16":
		return Primitive(TypeU16)
	case "i32":
		return Primitive(TypeI32)
	case "u32":
		return Primitive(TypeU32)
	case "i64":
		return Primitive(TypeI64)
	case "u64":
		return Primitive(TypeU64)
	case "i128":
		return Primitive(TypeI128)
	case "u128":
		return Primitive(TypeU128)
	case "isize":
		return Isize
	case "usize":
		return Usize
	case "f32":
		return F32
	case "f64":
		return F64
	default:
		return TypeVar(str, inner)
	}
}

// FromValue infers a Type from a runtime Value, the way the original's
// `impl From<&Value> for Type` does (witch-parser/src/types.rs).
func FromValue(v Value) Type {
	switch val := v.(type) {
	case VUsize:
		return Usize
	case VIsize:
		return Isize
	case VBool:
		return Bool
	case VF32:
		return F32
	case VF64:
		return F64
	case VString:
		return Strng
	case VCString:
		return Strng
	case VList:
		if len(val.Items) == 0 {
			return ListOf(Any)
		}
		return ListOf(FromValue(val.Items[0]))
	case VFunction:
		return Unknown
	default:
		return Void
	}
}

// IsNumeric reports whether t is one of the arithmetic primitive types
// (witch-parser/src/types.rs `Type::is_numeric`).
func (t Type) IsNumeric() bool {
	switch t.Tag {
	case TypeUsize, TypeIsize, TypeU8, TypeI8, TypeU16, TypeI16,
		TypeU32, TypeI32, TypeU64, TypeI64, TypeU128, TypeI128, TypeF32, TypeF64:
		return true
	default:
		return false
	}
}

// Equal implements the §4.5 equality/compatibility relation. The first
// matching rule wins, exactly in the order spec.md lists them.
func (t Type) Equal(o Type) bool {
	// 1. Any equals everything.
	if t.Tag == TypeAny || o.Tag == TypeAny {
		return true
	}

	// 2. Lists compare by inner type.
	if t.Tag == TypeList && o.Tag == TypeList {
		return t.listInner().Equal(o.listInner())
	}

	// 3. Functions compare arity + pairwise arg/return types; generics
	// are not compared.
	if t.Tag == TypeFunction && o.Tag == TypeFunction {
		if len(t.Args) != len(o.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		return t.Returns.Equal(*o.Returns)
	}

	// 4. Structs: nominal if both named, else structural.
	if t.Tag == TypeStruct && o.Tag == TypeStruct {
		return structsEqual(t, o)
	}

	// 5. Interface <-> Struct: structural duck typing, either order.
	if t.Tag == TypeInterface && o.Tag == TypeStruct {
		return interfaceMatchesStruct(t, o)
	}
	if t.Tag == TypeStruct && o.Tag == TypeInterface {
		return interfaceMatchesStruct(o, t)
	}

	// 6. Enum <-> EnumVariant, either order.
	if t.Tag == TypeEnum && o.Tag == TypeEnumVariant {
		return enumContainsVariant(t, *o.Variant)
	}
	if t.Tag == TypeEnumVariant && o.Tag == TypeEnum {
		return enumContainsVariant(o, *t.Variant)
	}

	// 7. Otherwise, equal iff the top-level tags match.
	return t.Tag == o.Tag
}

func structsEqual(a, b Type) bool {
	if a.StructName != nil && b.StructName != nil {
		return *a.StructName == *b.StructName
	}
	for i, f := range a.Fields {
		if i >= len(b.Fields) {
			return false
		}
		if !f.Type.Equal(b.Fields[i].Type) {
			return false
		}
	}
	for name, m := range a.Methods {
		om, ok := b.Methods[name]
		if !ok || !m.Type.Equal(om.Type) {
			return false
		}
	}
	return true
}

func interfaceMatchesStruct(iface, s Type) bool {
	for name, propType := range iface.Properties {
		if m, ok := s.Methods[name]; ok {
			if !propType.Equal(m.Type) {
				return false
			}
			continue
		}
		found := false
		for _, f := range s.Fields {
			if f.Name == name && f.Type.Equal(propType) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func enumContainsVariant(e Type, variant EnumVariant) bool {
	for _, v := range e.Variants {
		if v.equal(variant) {
			return true
		}
	}
	return false
}

// HashKey returns a string canonical form consistent with Equal for the one
// case spec.md §4.5/§9 calls out as safe to hash: TypeVar (hash name +
// inner) and primitive tags. Because Any must equal everything and
// interfaces match structurally, a generic hash-based container keyed on
// arbitrary Types would be unsound; callers should only key on HashKey when
// they know they're dealing with TypeVars or primitives.
func (t Type) HashKey() string {
	if t.Tag == TypeTypeVar || t.Tag == TypeVarRef {
		parts := make([]string, len(t.Inner))
		for i, in := range t.Inner {
			parts[i] = in.HashKey()
		}
		return fmt.Sprintf("var:%s[%s]", t.Name, strings.Join(parts, ","))
	}
	return fmt.Sprintf("tag:%d", int(t.Tag))
}

// AllowedInfixOperators returns the operators typeable for the pair (lhs,
// rhs), the hook spec.md §4.5 says a type checker extends. The two seed
// rules are Usize-Usize (arithmetic + comparison) and String-Usize (string
// repetition).
func (t Type) AllowedInfixOperators(rhs Type) []Operator {
	if t.Tag == TypeUsize && rhs.Tag == TypeUsize {
		return []Operator{OpAdd, OpSub, OpDiv, OpMul, OpMod, OpLt, OpPow}
	}
	if t.Tag == TypeString && rhs.Tag == TypeUsize {
		return []Operator{OpMul}
	}
	return nil
}

func (t Type) String() string {
	if name, ok := primitiveNames[t.Tag]; ok {
		return name
	}
	switch t.Tag {
	case TypeList:
		return fmt.Sprintf("[%s]", t.listInner())
	case TypeFunction:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		variadic := ""
		if t.IsVariadic {
			variadic = "..."
		}
		ret := "unknown"
		if t.Returns != nil {
			ret = t.Returns.String()
		}
		return fmt.Sprintf("(%s%s) -> %s", strings.Join(parts, ", "), variadic, ret)
	case TypeStruct:
		if t.StructName != nil {
			return *t.StructName
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		return "struct{" + strings.Join(parts, ", ") + "}"
	case TypeInterface:
		return t.InterfaceName
	case TypeEnum:
		return "enum"
	case TypeEnumVariant:
		if t.Variant != nil {
			return t.Variant.Name
		}
		return "enum-variant"
	case TypeTypeVar, TypeVarRef:
		if len(t.Inner) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Inner))
		for i, in := range t.Inner {
			parts[i] = in.String()
		}
		return fmt.Sprintf("%s[%s]", t.Name, strings.Join(parts, ", "))
	case TypeIntersection:
		parts := make([]string, len(t.Parts))
		for i, p := range t.Parts {
			parts[i] = p.String()
		}
		return strings.Join(parts, " + ")
	default:
		return "?"
	}
}
