package witch

import "fmt"

// HeapObj is the tagged variant for boxed, non-primitive values the stack
// can only reference through a Pointer entry (spec.md §4.6: "compound
// values live on the heap and are referenced via Pointer::Heap(i)").
type HeapObj interface{ isHeapObj() }

type HeapList struct{ Items []Entry }

func (HeapList) isHeapObj() {}

type HeapString struct{ Val string }

func (HeapString) isHeapObj() {}

type HeapFloat struct{ Val float64 }

func (HeapFloat) isHeapObj() {}

// upvalueEnv is one captured-environment snapshot, addressed by index from
// an Entry.Function's UpvaluesRef field so multiple closures sharing the
// same capture set reference the same slice (spec.md §9).
type upvalueEnv []Entry

// callFrame is the VM's call-stack record. LocalsBase is the absolute Stack
// index where this call's local slot 0 lives; TruncateTo is where IReturn
// tears the frame down to (it differs from LocalsBase by one when a callee
// Entry occupies the slot directly below the args, as in a generic ICall;
// a direct ICallAddr call has no callee slot, so the two coincide).
type callFrame struct {
	ReturnAddr  int
	LocalsBase  int
	TruncateTo  int
	UpvaluesRef int
}

// Vm is the stack-based interpreter spec.md §6 names: `new()` /
// `run(bytecode) -> Value`. It owns its Stack, heap, and call frames
// exclusively for the lifetime of a Run (spec.md §5).
type Vm struct {
	stack     *Stack
	heap      []HeapObj
	upvalues  []upvalueEnv
	frames    []callFrame
	trace     bool
}

// NewVm constructs a Vm with a stack of the given initial capacity
// (Config.VMStackInitialCapacity in config.go).
func NewVm(stackCapacity int) *Vm {
	return &Vm{stack: NewStack(stackCapacity)}
}

// SetTrace toggles per-instruction tracing to stdout (Config.VMTrace in
// config.go), mirroring the teacher's -debug style knobs.
func (vm *Vm) SetTrace(on bool) { vm.trace = on }

// Run executes a compiled Program to completion and returns its final
// value (spec.md §6). The program's implicit top-level frame has
// ReturnAddr -1; reaching IReturn on that frame ends execution instead of
// jumping, unifying "function returns" and "program completes".
func (vm *Vm) Run(p *Program) (Value, error) {
	vm.frames = []callFrame{{ReturnAddr: -1, LocalsBase: 0, TruncateTo: 0}}
	pc := 0

	for {
		if pc < 0 || pc >= len(p.Instrs) {
			return nil, newRuntimeError(RuntimeErrorUnsupportedOp, "program counter %d out of range", pc)
		}
		instr := p.Instrs[pc]
		if vm.trace {
			fmt.Printf("pc=%-4d %-14s a=%-4d b=%-4d stack=%d\n", pc, instr.Op, instr.A, instr.B, vm.stack.Len())
		}

		switch instr.Op {
		case IPushConst:
			e, err := vm.entryFromConst(p.Consts[instr.A])
			if err != nil {
				return nil, err
			}
			vm.stack.Push(e)

		case ILoadLocal:
			frame := vm.topFrame()
			e, err := vm.stack.Get(frame.LocalsBase + instr.A)
			if err != nil {
				return nil, err
			}
			vm.stack.Push(e)

		case IStoreLocal:
			e, err := vm.stack.Pop()
			if err != nil {
				return nil, err
			}
			frame := vm.topFrame()
			vm.stack.Set(frame.LocalsBase+instr.A, e)

		case ILoadUpvalue:
			frame := vm.topFrame()
			env := vm.upvalues[frame.UpvaluesRef]
			vm.stack.Push(env[instr.A])

		case IPop:
			if _, err := vm.stack.Pop(); err != nil {
				return nil, err
			}

		case IAdd, ISub, IMul, IDiv, IMod, IPow, ILt, IGt, ILte, IGte, IEq, INeq, IAnd, IOr:
			if err := vm.binaryOp(instr.Op); err != nil {
				return nil, err
			}

		case INot:
			e, err := vm.stack.Pop()
			if err != nil {
				return nil, err
			}
			if e.Tag != EntryBool {
				return nil, newRuntimeError(RuntimeErrorUnsupportedOp, "! applied to non-bool entry")
			}
			vm.stack.Push(BoolEntry(!e.Bool))

		case IJump:
			pc = instr.A
			continue

		case IJumpIfFalse:
			e, err := vm.stack.Pop()
			if err != nil {
				return nil, err
			}
			if e.Tag != EntryBool {
				return nil, newRuntimeError(RuntimeErrorUnsupportedOp, "if predicate is not a bool")
			}
			if !e.Bool {
				pc = instr.A
				continue
			}

		case IMakeList:
			items := make([]Entry, instr.A)
			for i := instr.A - 1; i >= 0; i-- {
				e, err := vm.stack.Pop()
				if err != nil {
					return nil, err
				}
				items[i] = e
			}
			idx := vm.allocHeap(HeapList{Items: items})
			vm.stack.Push(HeapEntry(idx))

		case IIndex:
			idxEntry, err := vm.stack.Pop()
			if err != nil {
				return nil, err
			}
			containerEntry, err := vm.stack.Pop()
			if err != nil {
				return nil, err
			}
			e, err := vm.indexInto(containerEntry, idxEntry)
			if err != nil {
				return nil, err
			}
			vm.stack.Push(e)

		case IMakeClosure:
			env := make(upvalueEnv, instr.B)
			for i := instr.B - 1; i >= 0; i-- {
				e, err := vm.stack.Pop()
				if err != nil {
					return nil, err
				}
				env[i] = e
			}
			ref := len(vm.upvalues)
			vm.upvalues = append(vm.upvalues, env)
			vm.stack.Push(FunctionEntry(instr.A, instr.C, ref))

		case ICall:
			target, err := vm.call(instr.A, pc+1)
			if err != nil {
				return nil, err
			}
			pc = target
			continue

		case ICallAddr:
			base := vm.stack.Len() - instr.B
			vm.frames = append(vm.frames, callFrame{
				ReturnAddr: pc + 1,
				LocalsBase: base,
				TruncateTo: base,
			})
			pc = instr.A
			continue

		case IReturn:
			retVal, err := vm.stack.Pop()
			if err != nil {
				return nil, err
			}
			frame := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack.Truncate(frame.TruncateTo)
			vm.stack.Push(retVal)
			if frame.ReturnAddr < 0 {
				return vm.valueFromEntry(retVal)
			}
			pc = frame.ReturnAddr
			continue

		default:
			return nil, newRuntimeError(RuntimeErrorUnsupportedOp, "unknown opcode %s", instr.Op)
		}

		pc++
	}
}

func (vm *Vm) topFrame() callFrame {
	return vm.frames[len(vm.frames)-1]
}

// call implements ICall's indirect-callee convention: stack holds
// [..., calleeEntry, arg0, ..., argN-1]; argc is N. It returns the
// callee's bytecode address for the caller to jump to.
func (vm *Vm) call(argc int, returnAddr int) (int, error) {
	calleeIdx := vm.stack.Len() - argc - 1
	callee, err := vm.stack.Get(calleeIdx)
	if err != nil {
		return 0, err
	}
	if callee.Tag != EntryFunction {
		return 0, newRuntimeError(RuntimeErrorUnsupportedOp, "call target is not a function")
	}
	if callee.Arity != argc {
		return 0, newRuntimeError(RuntimeErrorArityMismatch, "function expects %d args, got %d", callee.Arity, argc)
	}
	vm.frames = append(vm.frames, callFrame{
		ReturnAddr:  returnAddr,
		LocalsBase:  calleeIdx + 1,
		TruncateTo:  calleeIdx,
		UpvaluesRef: callee.UpvaluesRef,
	})
	return callee.Addr, nil
}

func (vm *Vm) binaryOp(op OpCode) error {
	rhs, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	lhs, err := vm.stack.Pop()
	if err != nil {
		return err
	}

	switch op {
	case IAdd, ISub, IMul, IDiv, IMod, IPow, ILt, IGt, ILte, IGte:
		return vm.numericOp(op, lhs, rhs)
	case IEq:
		vm.stack.Push(BoolEntry(entriesEqual(lhs, rhs)))
		return nil
	case INeq:
		vm.stack.Push(BoolEntry(!entriesEqual(lhs, rhs)))
		return nil
	case IAnd:
		if lhs.Tag != EntryBool || rhs.Tag != EntryBool {
			return newRuntimeError(RuntimeErrorUnsupportedOp, "&& requires bool operands")
		}
		vm.stack.Push(BoolEntry(lhs.Bool && rhs.Bool))
		return nil
	case IOr:
		if lhs.Tag != EntryBool || rhs.Tag != EntryBool {
			return newRuntimeError(RuntimeErrorUnsupportedOp, "|| requires bool operands")
		}
		vm.stack.Push(BoolEntry(lhs.Bool || rhs.Bool))
		return nil
	default:
		return newRuntimeError(RuntimeErrorUnsupportedOp, "unsupported binary op %s", op)
	}
}

// numericOp implements arithmetic/comparison over the Usize/Isize entries
// the seed fixtures exercise (spec.md §4.5's (Usize, Usize) allowed-op
// table). Mixed-sign arithmetic and floats are out of scope for the
// minimal VM (SPEC_FULL.md §3).
func (vm *Vm) numericOp(op OpCode, lhs, rhs Entry) error {
	if lhs.Tag == EntryUsize && rhs.Tag == EntryUsize {
		a, b := lhs.Usize, rhs.Usize
		switch op {
		case IAdd:
			vm.stack.Push(UsizeEntry(a + b))
		case ISub:
			if b > a {
				return newRuntimeError(RuntimeErrorUnsupportedOp, "usize subtraction underflow: %d - %d", a, b)
			}
			vm.stack.Push(UsizeEntry(a - b))
		case IMul:
			vm.stack.Push(UsizeEntry(a * b))
		case IDiv:
			if b == 0 {
				return newRuntimeError(RuntimeErrorDivisionByZero, "division by zero")
			}
			vm.stack.Push(UsizeEntry(a / b))
		case IMod:
			if b == 0 {
				return newRuntimeError(RuntimeErrorDivisionByZero, "modulo by zero")
			}
			vm.stack.Push(UsizeEntry(a % b))
		case IPow:
			vm.stack.Push(UsizeEntry(uintPow(a, b)))
		case ILt:
			vm.stack.Push(BoolEntry(a < b))
		case IGt:
			vm.stack.Push(BoolEntry(a > b))
		case ILte:
			vm.stack.Push(BoolEntry(a <= b))
		case IGte:
			vm.stack.Push(BoolEntry(a >= b))
		}
		return nil
	}

	if lhs.Tag == EntryIsize && rhs.Tag == EntryIsize {
		a, b := lhs.Isize, rhs.Isize
		switch op {
		case IAdd:
			vm.stack.Push(IsizeEntry(a + b))
		case ISub:
			vm.stack.Push(IsizeEntry(a - b))
		case IMul:
			vm.stack.Push(IsizeEntry(a * b))
		case IDiv:
			if b == 0 {
				return newRuntimeError(RuntimeErrorDivisionByZero, "division by zero")
			}
			vm.stack.Push(IsizeEntry(a / b))
		case IPow:
			if b < 0 {
				return newRuntimeError(RuntimeErrorUnsupportedOp, "negative exponent %d is unsupported for isize **", b)
			}
			vm.stack.Push(IsizeEntry(intPow(a, b)))
		case IMod:
			if b == 0 {
				return newRuntimeError(RuntimeErrorDivisionByZero, "modulo by zero")
			}
			vm.stack.Push(IsizeEntry(a % b))
		case ILt:
			vm.stack.Push(BoolEntry(a < b))
		case IGt:
			vm.stack.Push(BoolEntry(a > b))
		case ILte:
			vm.stack.Push(BoolEntry(a <= b))
		case IGte:
			vm.stack.Push(BoolEntry(a >= b))
		}
		return nil
	}

	return newRuntimeError(RuntimeErrorUnsupportedOp, "unsupported operand types for %s", op)
}

// uintPow/intPow implement ** by repeated squaring rather than pulling in
// math.Pow's float round-trip, keeping Usize/Isize exponentiation exact.
func uintPow(base, exp uint64) uint64 {
	result := uint64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func entriesEqual(a, b Entry) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case EntryVoid:
		return true
	case EntryBool:
		return a.Bool == b.Bool
	case EntryUsize:
		return a.Usize == b.Usize
	case EntryIsize:
		return a.Isize == b.Isize
	case EntryPointer:
		return a.Pointer == b.Pointer
	case EntryFunction:
		return a.Addr == b.Addr && a.UpvaluesRef == b.UpvaluesRef
	default:
		return false
	}
}

func (vm *Vm) allocHeap(obj HeapObj) int {
	vm.heap = append(vm.heap, obj)
	return len(vm.heap) - 1
}

func (vm *Vm) indexInto(container, idx Entry) (Entry, error) {
	if container.Tag != EntryPointer || container.Pointer.Kind != PointerHeap {
		return Entry{}, newRuntimeError(RuntimeErrorUnsupportedOp, "index target is not a list")
	}
	if container.Pointer.Idx < 0 || container.Pointer.Idx >= len(vm.heap) {
		return Entry{}, newRuntimeError(RuntimeErrorHeapOutOfRange, "heap index %d out of range", container.Pointer.Idx)
	}
	list, ok := vm.heap[container.Pointer.Idx].(HeapList)
	if !ok {
		return Entry{}, newRuntimeError(RuntimeErrorUnsupportedOp, "index target is not a list")
	}

	var i int
	switch idx.Tag {
	case EntryUsize:
		i = int(idx.Usize)
	case EntryIsize:
		i = int(idx.Isize)
	default:
		return Entry{}, newRuntimeError(RuntimeErrorUnsupportedOp, "list index must be numeric")
	}
	if i < 0 || i >= len(list.Items) {
		return Entry{}, newRuntimeError(RuntimeErrorHeapOutOfRange, "list index %d out of range (len %d)", i, len(list.Items))
	}
	return list.Items[i], nil
}

// entryFromConst boxes a constant-pool Value into a Stack Entry, allocating
// on the heap when the value isn't one of the primitive cases Entry can
// represent directly (spec.md §4.6: "the Entry<->Value mapping is total
// only for the primitive cases").
func (vm *Vm) entryFromConst(v Value) (Entry, error) {
	switch val := v.(type) {
	case VVoid:
		return VoidEntry(), nil
	case VBool:
		return BoolEntry(val.Val), nil
	case VUsize:
		return UsizeEntry(val.Val), nil
	case VIsize:
		return IsizeEntry(val.Val), nil
	case VString:
		return HeapEntry(vm.allocHeap(HeapString{Val: val.Val})), nil
	case VCString:
		return HeapEntry(vm.allocHeap(HeapString{Val: val.Val})), nil
	case VF32:
		return HeapEntry(vm.allocHeap(HeapFloat{Val: float64(val.Val)})), nil
	case VF64:
		return HeapEntry(vm.allocHeap(HeapFloat{Val: val.Val})), nil
	default:
		return Entry{}, newRuntimeError(RuntimeErrorUnsupportedOp, "unsupported constant type %T", v)
	}
}

// valueFromEntry converts the VM's final result Entry back to a Value for
// the driver to print (spec.md §6's `run(bytecode) -> Value`).
func (vm *Vm) valueFromEntry(e Entry) (Value, error) {
	switch e.Tag {
	case EntryVoid:
		return VVoid{}, nil
	case EntryBool:
		return VBool{Val: e.Bool}, nil
	case EntryUsize:
		return VUsize{Val: e.Usize}, nil
	case EntryIsize:
		return VIsize{Val: e.Isize}, nil
	case EntryFunction:
		return VFunction{Addr: e.Addr, Arity: e.Arity}, nil
	case EntryPointer:
		if e.Pointer.Kind != PointerHeap || e.Pointer.Idx < 0 || e.Pointer.Idx >= len(vm.heap) {
			return nil, newRuntimeError(RuntimeErrorHeapOutOfRange, "heap index %d out of range", e.Pointer.Idx)
		}
		switch obj := vm.heap[e.Pointer.Idx].(type) {
		case HeapList:
			items := make([]Value, len(obj.Items))
			for i, it := range obj.Items {
				v, err := vm.valueFromEntry(it)
				if err != nil {
					return nil, err
				}
				items[i] = v
			}
			return VList{Items: items}, nil
		case HeapString:
			return VString{Val: obj.Val}, nil
		case HeapFloat:
			return VF64{Val: obj.Val}, nil
		default:
			return nil, newRuntimeError(RuntimeErrorUnsupportedOp, "unrecognized heap object")
		}
	default:
		return nil, newRuntimeError(RuntimeErrorUnsupportedOp, "unrecognized entry tag")
	}
}
