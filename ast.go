package witch

import (
	"fmt"
	"strings"

	"github.com/clarete/witch/ascii"
)

// Ast is the tagged-variant interface every syntax node implements, mirroring
// the teacher's AstNode shape (grammar_ast.go: one interface, one struct per
// variant, a constructor per struct) adapted to witch's node set (spec.md
// §3).
type Ast interface {
	// Range returns the byte span the node was parsed from.
	Range() Range

	// String renders the node back to a (non-reparseable, debugging-only)
	// textual form.
	String() string

	// Accept dispatches to the matching visitor method.
	Accept(AstVisitor) error
}

// AstVisitor lets callers (the emitter, a pretty-printer, tests) walk an Ast
// tree without a giant type switch at every call site.
type AstVisitor interface {
	VisitValue(*ValueNode) error
	VisitVar(*VarNode) error
	VisitList(*ListNode) error
	VisitStruct(*StructNode) error
	VisitMember(*MemberNode) error
	VisitCall(*CallNode) error
	VisitInfix(*InfixNode) error
	VisitAssignment(*AssignmentNode) error
	VisitLet(*LetNode) error
	VisitFunction(*FunctionNode) error
	VisitIf(*IfNode) error
	VisitReturn(*ReturnNode) error
	VisitStatement(*StatementNode) error
	VisitImport(*ImportNode) error
	VisitAnnotation(*AnnotationNode) error
	VisitNop(*NopNode) error
	VisitTypeDecl(*TypeDeclNode) error
	VisitPrefix(*PrefixNode) error
}

// ---- Operator ----

// Operator enumerates the binary/unary operators the expression grammar
// recognizes (spec.md §3). Each infix operator has a binding-power pair
// (see InfixBindingPower); Bang is prefix-only.
type Operator int

const (
	OpEq Operator = iota
	OpNotEq
	OpLt
	OpGt
	OpLte
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpBang
	OpPow
)

var operatorNames = map[Operator]string{
	OpEq: "==", OpNotEq: "!=", OpLt: "<", OpGt: ">", OpLte: "<=", OpGte: ">=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpAnd: "&&", OpOr: "||", OpBang: "!", OpPow: "**",
}

func (o Operator) String() string { return operatorNames[o] }

// InfixBindingPower returns op's (left, right) binding powers and whether op
// can appear as an infix operator at all (Bang cannot). The table realizes
// spec.md §4.3's precedence-ordered table, low to high:
//
//	Or < And < Eq,NotEq < Lt,Gt,Lte,Gte < Add,Sub < Mul,Div,Mod < Pow(right-assoc)
//
// Left-associative operators use (n, n+1); Pow is right-associative and uses
// (n+1, n).
func (o Operator) InfixBindingPower() (left, right int, ok bool) {
	switch o {
	case OpOr:
		return 1, 2, true
	case OpAnd:
		return 3, 4, true
	case OpEq, OpNotEq:
		return 5, 6, true
	case OpLt, OpGt, OpLte, OpGte:
		return 7, 8, true
	case OpAdd, OpSub:
		return 9, 10, true
	case OpMul, OpDiv, OpMod:
		return 11, 12, true
	case OpPow:
		return 14, 13, true
	default:
		return 0, 0, false
	}
}

// ---- Key (Member.Key) ----

// Key is the tagged variant for a Member node's accessor: a bare field name
// (`.field`), an already-resolved integer index (`[0]`), or an arbitrary
// expression (`[expr]`) when it isn't a literal Usize (spec.md §3).
type Key interface {
	isKey()
	String() string
}

type KeyString string

func (KeyString) isKey()        {}
func (k KeyString) String() string { return string(k) }

type KeyIndex int

func (KeyIndex) isKey()        {}
func (k KeyIndex) String() string { return fmt.Sprintf("%d", int(k)) }

type KeyExpr struct{ Expr Ast }

func (KeyExpr) isKey()        {}
func (k KeyExpr) String() string { return k.Expr.String() }

// ---- node base ----

type nodeBase struct{ rg Range }

func (n nodeBase) Range() Range { return n.rg }

// ---- Value ----

type ValueNode struct {
	nodeBase
	Value Value
}

func NewValueNode(v Value, rg Range) *ValueNode { return &ValueNode{nodeBase{rg}, v} }
func (n *ValueNode) String() string             { return n.Value.String() }
func (n *ValueNode) Accept(v AstVisitor) error   { return v.VisitValue(n) }

// ---- Var ----

type VarNode struct {
	nodeBase
	Name string
}

func NewVarNode(name string, rg Range) *VarNode { return &VarNode{nodeBase{rg}, name} }
func (n *VarNode) String() string               { return n.Name }
func (n *VarNode) Accept(v AstVisitor) error     { return v.VisitVar(n) }

// ---- List ----

type ListNode struct {
	nodeBase
	Items []Ast
}

func NewListNode(items []Ast, rg Range) *ListNode { return &ListNode{nodeBase{rg}, items} }
func (n *ListNode) Accept(v AstVisitor) error      { return v.VisitList(n) }
func (n *ListNode) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---- Struct ----

// StructNode is a struct literal. Ident is nil for the anonymous form
// (`new { ... }` with no type name); when it's non-nil, the literal is the
// named form `new Name { ... }` (spec.md §3/§4.3).
type StructNode struct {
	nodeBase
	Ident  *string
	Fields map[string]Ast
	// FieldOrder preserves insertion order for deterministic printing,
	// since Go maps don't (spec.md's invariant: struct field order is
	// preserved because structs are backed by lists at runtime).
	FieldOrder []string
}

func NewStructNode(ident *string, fields map[string]Ast, order []string, rg Range) *StructNode {
	return &StructNode{nodeBase{rg}, ident, fields, order}
}

func (n *StructNode) Accept(v AstVisitor) error { return v.VisitStruct(n) }
func (n *StructNode) String() string {
	name := "new"
	if n.Ident != nil {
		name = "new " + *n.Ident
	}
	parts := make([]string, 0, len(n.FieldOrder))
	for _, k := range n.FieldOrder {
		parts = append(parts, fmt.Sprintf("%s: %s", k, n.Fields[k].String()))
	}
	return fmt.Sprintf("%s { %s }", name, strings.Join(parts, ", "))
}

// ---- Member ----

type MemberNode struct {
	nodeBase
	Container Ast
	Key       Key
}

func NewMemberNode(container Ast, key Key, rg Range) *MemberNode {
	return &MemberNode{nodeBase{rg}, container, key}
}
func (n *MemberNode) Accept(v AstVisitor) error { return v.VisitMember(n) }
func (n *MemberNode) String() string {
	if s, ok := n.Key.(KeyString); ok {
		return fmt.Sprintf("%s.%s", n.Container.String(), string(s))
	}
	return fmt.Sprintf("%s[%s]", n.Container.String(), n.Key.String())
}

// ---- Call ----

type CallNode struct {
	nodeBase
	Expr Ast
	Args []Ast
}

func NewCallNode(expr Ast, args []Ast, rg Range) *CallNode {
	return &CallNode{nodeBase{rg}, expr, args}
}
func (n *CallNode) Accept(v AstVisitor) error { return v.VisitCall(n) }
func (n *CallNode) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Expr.String(), strings.Join(parts, ", "))
}

// ---- Infix ----

type InfixNode struct {
	nodeBase
	Lhs Ast
	Op  Operator
	Rhs Ast
}

func NewInfixNode(lhs Ast, op Operator, rhs Ast, rg Range) *InfixNode {
	return &InfixNode{nodeBase{rg}, lhs, op, rhs}
}
func (n *InfixNode) Accept(v AstVisitor) error { return v.VisitInfix(n) }
func (n *InfixNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Lhs.String(), n.Op, n.Rhs.String())
}

// ---- Prefix ----

// PrefixNode applies the one prefix-only operator the grammar recognizes:
// `!expr` (spec.md §3 "Bang is prefix-only"). Unlike the infix operators, a
// PrefixNode is never produced by InfixBindingPower's loop; prefixExpression
// parses it directly (parser_expr.go).
type PrefixNode struct {
	nodeBase
	Op   Operator
	Expr Ast
}

func NewPrefixNode(op Operator, expr Ast, rg Range) *PrefixNode {
	return &PrefixNode{nodeBase{rg}, op, expr}
}
func (n *PrefixNode) Accept(v AstVisitor) error { return v.VisitPrefix(n) }
func (n *PrefixNode) String() string            { return fmt.Sprintf("%s%s", n.Op, n.Expr.String()) }

// ---- Assignment ----

// AssignmentNode reassigns an existing Var or Member (spec.md §4.3: only
// those two are valid targets).
type AssignmentNode struct {
	nodeBase
	Lhs Ast
	Rhs Ast
}

func NewAssignmentNode(lhs, rhs Ast, rg Range) *AssignmentNode {
	return &AssignmentNode{nodeBase{rg}, lhs, rhs}
}
func (n *AssignmentNode) Accept(v AstVisitor) error { return v.VisitAssignment(n) }
func (n *AssignmentNode) String() string {
	return fmt.Sprintf("%s = %s", n.Lhs.String(), n.Rhs.String())
}

// ---- Let ----

// LetNode introduces a binding: `ident (: type)? = expr` at statement level,
// including the lowered form of a named `fn` declaration (spec.md §4.4).
type LetNode struct {
	nodeBase
	Ident         string
	AnnotatedType *Type
	Expr          Ast
}

func NewLetNode(ident string, annotated *Type, expr Ast, rg Range) *LetNode {
	return &LetNode{nodeBase{rg}, ident, annotated, expr}
}
func (n *LetNode) Accept(v AstVisitor) error { return v.VisitLet(n) }

// String renders the bound expression, not the Assignment{Var(ident), expr}
// wrapper `ident = expr` statements carry (spec.md's IR shape for that form):
// printing the wrapper verbatim would render "ident = ident = expr".
func (n *LetNode) String() string {
	if assign, ok := n.Expr.(*AssignmentNode); ok {
		return fmt.Sprintf("%s = %s", n.Ident, assign.Rhs.String())
	}
	return fmt.Sprintf("%s = %s", n.Ident, n.Expr.String())
}

// ---- Function ----

// FunctionArg is a single (name, type) pair in a function's parameter list.
type FunctionArg struct {
	Name string
	Type Type
}

type FunctionNode struct {
	nodeBase
	Args       []FunctionArg
	Returns    Type
	Body       Ast
	IsVariadic bool
	Generics   []GenericParam
}

// GenericParam is one entry of a function's generic parameter list
// (`[T, U]`) together with its resolved `where`-constraint, or Type{Any} by
// default (spec.md §4.3).
type GenericParam struct {
	Name       string
	Constraint Type
}

func NewFunctionNode(args []FunctionArg, returns Type, body Ast, variadic bool, generics []GenericParam, rg Range) *FunctionNode {
	return &FunctionNode{nodeBase{rg}, args, returns, body, variadic, generics}
}
func (n *FunctionNode) Accept(v AstVisitor) error { return v.VisitFunction(n) }
func (n *FunctionNode) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
	}
	variadic := ""
	if n.IsVariadic {
		variadic = "..."
	}
	return fmt.Sprintf("(%s%s) -> %s %s", strings.Join(parts, ", "), variadic, n.Returns, n.Body.String())
}

// ---- If ----

type IfNode struct {
	nodeBase
	Predicate Ast
	Then      Ast
	Else      Ast
}

func NewIfNode(predicate, then, els Ast, rg Range) *IfNode {
	if els == nil {
		els = NewNopNode(rg)
	}
	return &IfNode{nodeBase{rg}, predicate, then, els}
}
func (n *IfNode) Accept(v AstVisitor) error { return v.VisitIf(n) }
func (n *IfNode) String() string {
	return fmt.Sprintf("if %s { %s } else { %s }", n.Predicate, n.Then, n.Else)
}

// ---- Return ----

type ReturnNode struct {
	nodeBase
	Expr Ast
}

func NewReturnNode(expr Ast, rg Range) *ReturnNode { return &ReturnNode{nodeBase{rg}, expr} }
func (n *ReturnNode) Accept(v AstVisitor) error    { return v.VisitReturn(n) }
func (n *ReturnNode) String() string               { return "return " + n.Expr.String() }

// ---- Statement (cons cell) ----

// StatementNode is a cons cell forming a right-leaning linked list of
// statements, terminated by a NopNode (spec.md §3).
type StatementNode struct {
	nodeBase
	Stmt Ast
	Rest Ast
}

func NewStatementNode(stmt, rest Ast, rg Range) *StatementNode {
	return &StatementNode{nodeBase{rg}, stmt, rest}
}
func (n *StatementNode) Accept(v AstVisitor) error { return v.VisitStatement(n) }
func (n *StatementNode) String() string {
	if _, ok := n.Rest.(*NopNode); ok {
		return n.Stmt.String()
	}
	return n.Stmt.String() + "; " + n.Rest.String()
}

// Statements flattens the cons-list into a slice, in source order.
func Statements(stmt Ast) []Ast {
	var out []Ast
	for {
		s, ok := stmt.(*StatementNode)
		if !ok {
			return out
		}
		out = append(out, s.Stmt)
		stmt = s.Rest
	}
}

// ---- Import ----

type ImportNode struct {
	nodeBase
	Path string
}

func NewImportNode(path string, rg Range) *ImportNode { return &ImportNode{nodeBase{rg}, path} }
func (n *ImportNode) Accept(v AstVisitor) error       { return v.VisitImport(n) }
func (n *ImportNode) String() string                  { return "import " + n.Path }

// ---- Annotation ----

type AnnotationNode struct {
	nodeBase
	Name      string
	Statement Ast
}

func NewAnnotationNode(name string, statement Ast, rg Range) *AnnotationNode {
	return &AnnotationNode{nodeBase{rg}, name, statement}
}
func (n *AnnotationNode) Accept(v AstVisitor) error { return v.VisitAnnotation(n) }
func (n *AnnotationNode) String() string {
	return fmt.Sprintf("@%s %s", n.Name, n.Statement.String())
}

// ---- TypeDecl ----

// TypeDeclNode is the value side of a struct/enum/interface declaration: the
// declaration itself lowers to a LetNode binding the declared name to one of
// these (parser_stmt.go), exactly like a named `fn` lowers to a LetNode
// wrapping a FunctionNode (spec.md §4.4's "declarations are sugar for a
// binding" treatment, extended to type declarations).
type TypeDeclNode struct {
	nodeBase
	Decl Type
}

func NewTypeDeclNode(decl Type, rg Range) *TypeDeclNode { return &TypeDeclNode{nodeBase{rg}, decl} }
func (n *TypeDeclNode) Accept(v AstVisitor) error       { return v.VisitTypeDecl(n) }
func (n *TypeDeclNode) String() string                  { return n.Decl.String() }

// ---- Nop ----

type NopNode struct{ nodeBase }

func NewNopNode(rg Range) *NopNode          { return &NopNode{nodeBase{rg}} }
func (n *NopNode) Accept(v AstVisitor) error { return v.VisitNop(n) }
func (n *NopNode) String() string           { return "" }

// ---- pretty printer ----

// PrettyString renders node as an indented, ASCII-colored tree, the way the
// teacher's AstNode.HighlightPrettyString renders grammar ASTs
// (grammar_ast_printer.go), adapted to witch's node set and reusing the
// teacher's ascii color theme unchanged.
func PrettyString(node Ast) string {
	var b strings.Builder
	prettyNode(&b, node, 0)
	return b.String()
}

func prettyNode(b *strings.Builder, node Ast, depth int) {
	indent := strings.Repeat("  ", depth)
	label := fmt.Sprintf("%T", node)
	label = strings.TrimPrefix(label, "*witch.")
	fmt.Fprintf(b, "%s%s %s\n", indent, ascii.Color(ascii.DefaultTheme.Label, "%s", label), ascii.Color(ascii.DefaultTheme.Span, "@%s", node.Range()))
	for _, child := range children(node) {
		prettyNode(b, child, depth+1)
	}
}

// children returns the direct Ast children of node, for PrettyString's
// recursive walk.
func children(node Ast) []Ast {
	switch n := node.(type) {
	case *ListNode:
		return n.Items
	case *StructNode:
		out := make([]Ast, 0, len(n.FieldOrder))
		for _, k := range n.FieldOrder {
			out = append(out, n.Fields[k])
		}
		return out
	case *MemberNode:
		if ke, ok := n.Key.(KeyExpr); ok {
			return []Ast{n.Container, ke.Expr}
		}
		return []Ast{n.Container}
	case *CallNode:
		return append([]Ast{n.Expr}, n.Args...)
	case *InfixNode:
		return []Ast{n.Lhs, n.Rhs}
	case *AssignmentNode:
		return []Ast{n.Lhs, n.Rhs}
	case *LetNode:
		return []Ast{n.Expr}
	case *FunctionNode:
		return []Ast{n.Body}
	case *IfNode:
		return []Ast{n.Predicate, n.Then, n.Else}
	case *ReturnNode:
		return []Ast{n.Expr}
	case *StatementNode:
		return []Ast{n.Stmt, n.Rest}
	case *AnnotationNode:
		return []Ast{n.Statement}
	case *PrefixNode:
		return []Ast{n.Expr}
	default:
		return nil
	}
}
