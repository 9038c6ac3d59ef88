package witch

import "fmt"

// OpCode enumerates the instructions the minimal concrete VM understands.
// This is a deliberately small subset of a realistic bytecode emitter,
// scoped to exactly the operations the seed end-to-end fixtures exercise
// (arithmetic, comparisons, recursion, one level of closures, list
// indexing, if/else, function calls): spec.md frames the emitter as an
// external collaborator, but §8's concrete scenarios require something
// runnable, so SPEC_FULL.md commits to building this scoped slice rather
// than leaving it unimplemented.
type OpCode int

const (
	IPushConst OpCode = iota
	ILoadLocal
	IStoreLocal
	ILoadUpvalue
	IPop
	IAdd
	ISub
	IMul
	IDiv
	IMod
	ILt
	IGt
	ILte
	IGte
	IEq
	INeq
	IAnd
	IOr
	INot
	IJump
	IJumpIfFalse
	IMakeList
	IIndex
	IMakeClosure
	ICall
	ICallAddr
	IReturn
	IPow
)

var opNames = map[OpCode]string{
	IPushConst: "push_const", ILoadLocal: "load_local", IStoreLocal: "store_local",
	ILoadUpvalue: "load_upvalue", IPop: "pop", IAdd: "add", ISub: "sub", IMul: "mul",
	IDiv: "div", IMod: "mod", ILt: "lt", IGt: "gt", ILte: "lte", IGte: "gte",
	IEq: "eq", INeq: "neq", IAnd: "and", IOr: "or", INot: "not",
	IJump: "jump", IJumpIfFalse: "jump_if_false", IMakeList: "make_list",
	IIndex: "index", IMakeClosure: "make_closure", ICall: "call",
	ICallAddr: "call_addr", IReturn: "return", IPow: "pow",
}

func (o OpCode) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Instr is a single bytecode instruction. A, B and C are its (at most
// three) immediate operands; unused operands are left at zero. Real opcode
// tables (the teacher's vm.go) pack operands into a byte stream with a
// per-opcode size table; witch's instruction set is small enough that a
// struct slice serves the same purpose without the encode/decode
// bookkeeping. IMakeClosure is the one instruction that needs all three:
// A is the body's address, B its upvalue count, C its arity.
type Instr struct {
	Op OpCode
	A  int
	B  int
	C  int
}

// Program is the emitter's output: a flat instruction stream, a constant
// pool for literals whose Entry representation requires boxing, and a
// function table mapping names visible at the root scope to their fixed
// bytecode address and arity (spec.md §6 "side table mapping function
// addresses to arities").
type Program struct {
	Instrs    []Instr
	Consts    []Value
	Functions map[string]FuncInfo
}

type FuncInfo struct {
	Addr  int
	Arity int

	// UpvalueCount is only known once the function's body (and hence its
	// capture set) has finished compiling; compileCall only takes the
	// ICallAddr fast path when it's zero, since that path never builds
	// or threads a captured-upvalue environment.
	UpvalueCount int
}

// upvalueDesc records where a child scope's captured variable lives in its
// parent: either one of the parent's own locals, or one of the parent's own
// captured upvalues (chained capture), per spec.md §9's shared-by-index
// upvalue design.
type upvalueDesc struct {
	fromParentLocal bool
	index           int
}

// funcScope tracks local-variable slot assignment and upvalue resolution
// while compiling one function body (or the top-level program, treated as
// the outermost function scope).
type funcScope struct {
	parent       *funcScope
	locals       map[string]int
	nextSlot     int
	upvalues     []upvalueDesc
	upvalueIndex map[string]int
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{parent: parent, locals: map[string]int{}, upvalueIndex: map[string]int{}}
}

func (s *funcScope) isRoot() bool { return s.parent == nil }

type varRefKind int

const (
	refLocal varRefKind = iota
	refUpvalue
	refNotFound
)

// resolve looks up name starting at scope, walking outward and registering
// upvalue descriptors as needed (spec.md §9).
func (s *funcScope) resolve(name string) (varRefKind, int) {
	if idx, ok := s.locals[name]; ok {
		return refLocal, idx
	}
	if s.parent == nil {
		return refNotFound, 0
	}
	if idx, ok := s.upvalueIndex[name]; ok {
		return refUpvalue, idx
	}
	kind, idx := s.parent.resolve(name)
	switch kind {
	case refLocal:
		newIdx := len(s.upvalues)
		s.upvalues = append(s.upvalues, upvalueDesc{fromParentLocal: true, index: idx})
		s.upvalueIndex[name] = newIdx
		return refUpvalue, newIdx
	case refUpvalue:
		newIdx := len(s.upvalues)
		s.upvalues = append(s.upvalues, upvalueDesc{fromParentLocal: false, index: idx})
		s.upvalueIndex[name] = newIdx
		return refUpvalue, newIdx
	default:
		return refNotFound, 0
	}
}

// Compiler emits a Program from an Ast, the role the teacher's vm.go
// opcode-emitting helpers play for grammar bytecode, adapted to witch's
// stack/closure model.
type Compiler struct {
	instrs        []Instr
	consts        []Value
	rootFunctions map[string]FuncInfo
}

// Compile lowers a parsed program to bytecode (spec.md §6's emitter
// collaborator, scoped per SPEC_FULL.md §3).
func Compile(program Ast) (*Program, error) {
	c := &Compiler{rootFunctions: map[string]FuncInfo{}}
	root := newFuncScope(nil)
	stmts := Statements(program)
	if err := c.compileBlock(stmts, root, blockFunction); err != nil {
		return nil, err
	}
	return &Program{Instrs: c.instrs, Consts: c.consts, Functions: c.rootFunctions}, nil
}

func (c *Compiler) emit(op OpCode, operands ...int) int {
	instr := Instr{Op: op}
	if len(operands) > 0 {
		instr.A = operands[0]
	}
	if len(operands) > 1 {
		instr.B = operands[1]
	}
	if len(operands) > 2 {
		instr.C = operands[2]
	}
	c.instrs = append(c.instrs, instr)
	return len(c.instrs) - 1
}

func (c *Compiler) patchJumpTarget(instrIdx int) {
	c.instrs[instrIdx].A = len(c.instrs)
}

func (c *Compiler) constIndex(v Value) int {
	c.consts = append(c.consts, v)
	return len(c.consts) - 1
}

// blockMode controls what compileBlock guarantees about the stack once the
// statement list has been compiled.
type blockMode int

const (
	// blockFunction guarantees exactly one trailing value and consumes it
	// with an IReturn: used for function bodies and the top-level program.
	blockFunction blockMode = iota
	// blockValue guarantees exactly one trailing value but leaves it on
	// the stack: used for if/else branches compiled as an expression.
	blockValue
)

// compileBlock compiles a statement list. In both modes, every non-last
// statement that leaves a value gets it popped; blockFunction/blockValue
// additionally guarantee the block ends with exactly one value on the
// stack (pushing Void if the last statement doesn't leave one itself).
func (c *Compiler) compileBlock(stmts []Ast, scope *funcScope, mode blockMode) error {
	lastLeaves := false
	for i, stmt := range stmts {
		leaves, err := c.compileStmt(stmt, scope)
		if err != nil {
			return err
		}
		last := i == len(stmts)-1
		if !last && leaves {
			c.emit(IPop)
		}
		if last {
			lastLeaves = leaves
		}
	}
	if !lastLeaves {
		c.emit(IPushConst, c.constIndex(VVoid{}))
	}
	if mode == blockFunction {
		c.emit(IReturn)
	}
	return nil
}

// compileStmt compiles one statement, returning whether it leaves exactly
// one value on the stack for its successor (or the enclosing block's
// trailing-value rule) to consume.
func (c *Compiler) compileStmt(stmt Ast, scope *funcScope) (bool, error) {
	switch n := stmt.(type) {
	case *NopNode:
		return false, nil

	case *ImportNode:
		// Module resolution is the driver's concern (spec.md §6); the
		// emitter has nothing to lower here.
		return false, nil

	case *AnnotationNode:
		// Argument-bearing annotation dispatch is a documented
		// Non-goal; the annotated statement still compiles normally.
		return c.compileStmt(n.Statement, scope)

	case *LetNode:
		return false, c.compileLet(n, scope)

	case *ReturnNode:
		if err := c.compileExpr(n.Expr, scope); err != nil {
			return false, err
		}
		c.emit(IReturn)
		return false, nil

	case *IfNode:
		if err := c.compileIfStmt(n, scope); err != nil {
			return false, err
		}
		return true, nil

	default:
		if err := c.compileExpr(stmt, scope); err != nil {
			return false, err
		}
		return true, nil
	}
}

func (c *Compiler) compileLet(n *LetNode, scope *funcScope) error {
	slot := scope.nextSlot
	scope.locals[n.Ident] = slot
	scope.nextSlot++

	// `ident = expr` statements parse to Let{Expr: Assignment{Var(ident),
	// expr}} (spec.md's IR shape for the common binding form); the bound
	// value is the assignment's Rhs, so unwrap it rather than compiling
	// the Assignment itself as a reassignment. `fn name(...)` and bare
	// `name(...) -> ...` sugar still hand compileLet a bare FunctionNode.
	rhs := n.Expr
	if assign, ok := n.Expr.(*AssignmentNode); ok {
		rhs = assign.Rhs
	}

	if fn, ok := rhs.(*FunctionNode); ok && scope.isRoot() {
		// Reserve the root function's address before compiling its
		// body so direct self/sibling recursive calls resolve without
		// needing the closure's own (not-yet-constructed) value —
		// see the ICallAddr fast path in compileCall.
		return c.compileRootFunctionLet(fn, scope, slot, n.Ident)
	}

	return c.compileExpr(rhs, scope)
}

func (c *Compiler) compileRootFunctionLet(fn *FunctionNode, scope *funcScope, slot int, name string) error {
	jumpIdx := c.emit(IJump, 0)
	bodyAddr := len(c.instrs)
	c.rootFunctions[name] = FuncInfo{Addr: bodyAddr, Arity: len(fn.Args)}

	child := newFuncScope(scope)
	for _, a := range fn.Args {
		child.locals[a.Name] = child.nextSlot
		child.nextSlot++
	}
	if err := c.compileBlock(functionBodyStatements(fn.Body), child, blockFunction); err != nil {
		return err
	}
	c.patchJumpTarget(jumpIdx)

	for _, uv := range child.upvalues {
		if uv.fromParentLocal {
			c.emit(ILoadLocal, uv.index)
		} else {
			c.emit(ILoadUpvalue, uv.index)
		}
	}
	c.emit(IMakeClosure, bodyAddr, len(child.upvalues), len(fn.Args))
	c.rootFunctions[name] = FuncInfo{Addr: bodyAddr, Arity: len(fn.Args), UpvalueCount: len(child.upvalues)}
	_ = slot
	return nil
}

// functionBodyStatements normalizes a FunctionNode's body into a flat
// statement list: block bodies are already a Statement cons-list, lambda
// bodies are a single ReturnNode.
func functionBodyStatements(body Ast) []Ast {
	if _, ok := body.(*StatementNode); ok {
		return Statements(body)
	}
	return []Ast{body}
}

// compileIfStmt compiles `if`/`else` as an expression: both branches are
// compiled in blockValue mode so each leaves exactly one value (Void if a
// branch's last statement doesn't produce one), and a missing else branch
// compiles to a bare Void push so the two arms of the jump always agree on
// stack shape.
func (c *Compiler) compileIfStmt(n *IfNode, scope *funcScope) error {
	if err := c.compileExpr(n.Predicate, scope); err != nil {
		return err
	}
	jumpIfFalse := c.emit(IJumpIfFalse, 0)

	if err := c.compileBlock(functionBodyStatements(n.Then), scope, blockValue); err != nil {
		return err
	}
	jumpToEnd := c.emit(IJump, 0)

	c.patchJumpTarget(jumpIfFalse)
	if _, ok := n.Else.(*NopNode); ok {
		c.emit(IPushConst, c.constIndex(VVoid{}))
	} else if err := c.compileBlock(functionBodyStatements(n.Else), scope, blockValue); err != nil {
		return err
	}
	c.patchJumpTarget(jumpToEnd)
	return nil
}

// compileExpr compiles an expression so it leaves exactly one value pushed.
func (c *Compiler) compileExpr(expr Ast, scope *funcScope) error {
	switch n := expr.(type) {
	case *ValueNode:
		c.emit(IPushConst, c.constIndex(n.Value))
		return nil

	case *VarNode:
		return c.compileVarLoad(n.Name, scope)

	case *ListNode:
		for _, item := range n.Items {
			if err := c.compileExpr(item, scope); err != nil {
				return err
			}
		}
		c.emit(IMakeList, len(n.Items))
		return nil

	case *MemberNode:
		if err := c.compileExpr(n.Container, scope); err != nil {
			return err
		}
		switch key := n.Key.(type) {
		case KeyIndex:
			c.emit(IPushConst, c.constIndex(VUsize{Val: uint64(key)}))
		case KeyExpr:
			if err := c.compileExpr(key.Expr, scope); err != nil {
				return err
			}
		default:
			return TypeError{Message: fmt.Sprintf("unsupported member key in minimal VM: %v", key)}
		}
		c.emit(IIndex)
		return nil

	case *CallNode:
		return c.compileCall(n, scope)

	case *InfixNode:
		if err := c.compileExpr(n.Lhs, scope); err != nil {
			return err
		}
		if err := c.compileExpr(n.Rhs, scope); err != nil {
			return err
		}
		return c.emitInfix(n.Op)

	case *PrefixNode:
		if err := c.compileExpr(n.Expr, scope); err != nil {
			return err
		}
		if n.Op != OpBang {
			return TypeError{Message: "unsupported prefix operator in minimal VM"}
		}
		c.emit(INot)
		return nil

	case *AssignmentNode:
		return c.compileAssignment(n, scope)

	case *FunctionNode:
		return c.compileFunctionLiteral(n, scope)

	case *TypeDeclNode:
		// Struct/enum/interface declarations are compile-time only in
		// the minimal VM; no struct/enum values are constructed by the
		// seed fixtures (SPEC_FULL.md §3).
		c.emit(IPushConst, c.constIndex(VVoid{}))
		return nil

	case *NopNode:
		c.emit(IPushConst, c.constIndex(VVoid{}))
		return nil

	default:
		return TypeError{Message: fmt.Sprintf("unsupported expression in minimal VM: %T", expr)}
	}
}

func (c *Compiler) compileVarLoad(name string, scope *funcScope) error {
	kind, idx := scope.resolve(name)
	switch kind {
	case refLocal:
		c.emit(ILoadLocal, idx)
		return nil
	case refUpvalue:
		c.emit(ILoadUpvalue, idx)
		return nil
	default:
		return TypeError{Message: fmt.Sprintf("undefined variable %q", name)}
	}
}

func (c *Compiler) compileAssignment(n *AssignmentNode, scope *funcScope) error {
	varNode, ok := n.Lhs.(*VarNode)
	if !ok {
		return TypeError{Message: "assignment to non-variable targets is unsupported in the minimal VM"}
	}
	if err := c.compileExpr(n.Rhs, scope); err != nil {
		return err
	}
	kind, idx := scope.resolve(varNode.Name)
	if kind != refLocal {
		return TypeError{Message: fmt.Sprintf("cannot assign to %q: not a local in this scope", varNode.Name)}
	}
	c.emit(IStoreLocal, idx)
	c.emit(IPushConst, c.constIndex(VVoid{}))
	return nil
}

// compileCall fast-paths calls to a statically known, non-capturing
// root-scope function by its fixed address, sidestepping the self-reference
// bootstrapping problem a closure-value call would hit for recursive
// functions (see compileRootFunctionLet). A root function that itself
// captures an upvalue still needs its closure's UpvaluesRef threaded
// through a real call, so that case (and every other callee) is compiled as
// a generic value-call through ICall.
func (c *Compiler) compileCall(n *CallNode, scope *funcScope) error {
	if v, ok := n.Expr.(*VarNode); ok {
		if info, ok := c.rootFunctions[v.Name]; ok && info.UpvalueCount == 0 {
			if len(n.Args) != info.Arity {
				return RuntimeError{Kind: RuntimeErrorArityMismatch, Message: fmt.Sprintf("%s expects %d args, got %d", v.Name, info.Arity, len(n.Args))}
			}
			for _, arg := range n.Args {
				if err := c.compileExpr(arg, scope); err != nil {
					return err
				}
			}
			c.emit(ICallAddr, info.Addr, info.Arity)
			return nil
		}
	}

	if err := c.compileExpr(n.Expr, scope); err != nil {
		return err
	}
	for _, arg := range n.Args {
		if err := c.compileExpr(arg, scope); err != nil {
			return err
		}
	}
	c.emit(ICall, len(n.Args))
	return nil
}

func (c *Compiler) compileFunctionLiteral(fn *FunctionNode, scope *funcScope) error {
	jumpIdx := c.emit(IJump, 0)
	bodyAddr := len(c.instrs)

	child := newFuncScope(scope)
	for _, a := range fn.Args {
		child.locals[a.Name] = child.nextSlot
		child.nextSlot++
	}
	if err := c.compileBlock(functionBodyStatements(fn.Body), child, blockFunction); err != nil {
		return err
	}
	c.patchJumpTarget(jumpIdx)

	for _, uv := range child.upvalues {
		if uv.fromParentLocal {
			c.emit(ILoadLocal, uv.index)
		} else {
			c.emit(ILoadUpvalue, uv.index)
		}
	}
	c.emit(IMakeClosure, bodyAddr, len(child.upvalues), len(fn.Args))
	return nil
}

func (c *Compiler) emitInfix(op Operator) error {
	switch op {
	case OpAdd:
		c.emit(IAdd)
	case OpSub:
		c.emit(ISub)
	case OpMul:
		c.emit(IMul)
	case OpDiv:
		c.emit(IDiv)
	case OpMod:
		c.emit(IMod)
	case OpLt:
		c.emit(ILt)
	case OpGt:
		c.emit(IGt)
	case OpLte:
		c.emit(ILte)
	case OpGte:
		c.emit(IGte)
	case OpEq:
		c.emit(IEq)
	case OpNotEq:
		c.emit(INeq)
	case OpAnd:
		c.emit(IAnd)
	case OpOr:
		c.emit(IOr)
	case OpPow:
		c.emit(IPow)
	default:
		return TypeError{Message: fmt.Sprintf("unsupported infix operator in minimal VM: %s", op)}
	}
	return nil
}
