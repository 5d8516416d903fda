// Package interpreter walks a decoded module's instruction stream directly,
// dispatching one opcode at a time against a Store. There is no compiled
// intermediate form: Block and If continuations are resolved by scanning
// forward over the instruction slice at branch time, the way a debugger
// single-stepping real bytecode would, and a branch to a Loop resumes at the
// Loop instruction index recorded in its label.
package interpreter

import (
	"fmt"

	"github.com/ggreif/wasminspect/api"
	"github.com/ggreif/wasminspect/internal/moremath"
	"github.com/ggreif/wasminspect/internal/wasm"
)

// Signal is what Step reports after running one instruction: keep
// stepping, pause for a breakpoint, or the call stack has fully unwound.
type Signal int

const (
	SignalNext Signal = iota
	SignalBreakpoint
	SignalEnd
)

// Interceptor is the executor's sole extension point: a debugger or tracer
// observes every call and every instruction step without the executor
// knowing it exists. The zero value (via NopInterceptor) observes nothing.
type Interceptor interface {
	// InvokeFunc is called just before control transfers into fn, on both
	// direct and indirect calls.
	InvokeFunc(fn *wasm.FunctionInstance)
	// BeforeStep is called before each instruction executes. Returning true
	// pauses execution: Step reports SignalBreakpoint without
	// having run the instruction, and the same instruction runs first on
	// the next step.
	BeforeStep(pc wasm.ProgramCounter) bool
}

// NopInterceptor observes nothing and never pauses, the default used by Run.
type NopInterceptor struct{}

func (NopInterceptor) InvokeFunc(*wasm.FunctionInstance)   {}
func (NopInterceptor) BeforeStep(wasm.ProgramCounter) bool { return false }

var _ Interceptor = NopInterceptor{}

// Executor runs a single call stack against a Store. Its program counter
// and stack are exported so a caller driving it instruction-by-instruction
// (a debugger's step command) can inspect state between steps.
type Executor struct {
	PC    wasm.ProgramCounter
	Stack *wasm.Stack
}

// NewExecutor starts a fresh call stack at frame, whose body begins at pc.
func NewExecutor(frame wasm.CallFrame, pc wasm.ProgramCounter) *Executor {
	stack := wasm.NewStack()
	stack.PushFrame(frame)
	return &Executor{PC: pc, Stack: stack}
}

func (e *Executor) currentFuncInstructions(store *wasm.Store) []wasm.Instruction {
	fn := store.FuncAtExecAddr(e.PC.ExecAddr)
	return fn.Defined.Instructions
}

// Step runs exactly one instruction.
func (e *Executor) Step(store *wasm.Store, interceptor Interceptor) (Signal, error) {
	if interceptor.BeforeStep(e.PC) {
		return SignalBreakpoint, nil
	}
	fn := store.FuncAtExecAddr(e.PC.ExecAddr)
	inst := fn.Defined.Instructions[e.PC.InstIndex]
	module := fn.Defined.Module

	signal, err := e.executeInst(&inst, module, store, interceptor)
	if err != nil {
		return 0, err
	}
	if e.Stack.IsOverTopLevel() {
		return SignalEnd, nil
	}
	return signal, nil
}

func (e *Executor) executeInst(inst *wasm.Instruction, module wasm.ModuleIndex, store *wasm.Store, interceptor Interceptor) (Signal, error) {
	e.PC.InstIndex++

	switch inst.Opcode {
	case wasm.OpUnreachable:
		return 0, wasm.TrapUnreachableExecuted()
	case wasm.OpNop:
		return SignalNext, nil

	case wasm.OpBlock:
		e.Stack.PushLabel(wasm.Label{Kind: wasm.LabelBlock, Arity: inst.BlockType.Arity})
		return SignalNext, nil

	case wasm.OpLoop:
		e.Stack.PushLabel(wasm.Label{Kind: wasm.LabelLoop, Arity: inst.BlockType.Arity, LoopStartInst: e.PC.InstIndex - 1})
		return SignalNext, nil

	case wasm.OpIf:
		cond, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		e.Stack.PushLabel(wasm.Label{Kind: wasm.LabelIf, Arity: inst.BlockType.Arity})
		if cond.IsI32Zero() {
			if err := e.skipToElseOrEnd(store); err != nil {
				return 0, err
			}
		}
		return SignalNext, nil

	case wasm.OpElse:
		return e.branch(0, store)

	case wasm.OpEnd:
		return e.end(store)

	case wasm.OpBr:
		return e.branch(inst.RelativeDepth, store)

	case wasm.OpBrIf:
		cond, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		if !cond.IsI32Zero() {
			return e.branch(inst.RelativeDepth, store)
		}
		return SignalNext, nil

	case wasm.OpBrTable:
		v, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		i := v.U32()
		depth := inst.BrTableDefault
		if int(i) < len(inst.BrTable) {
			depth = inst.BrTable[i]
		}
		return e.branch(depth, store)

	case wasm.OpReturn:
		return e.doReturn(store)

	case wasm.OpCall:
		frame, err := e.Stack.CurrentFrame()
		if err != nil {
			return 0, err
		}
		addr := wasm.FuncAddr{Module: frame.Module, Index: inst.FunctionIndex}
		return e.invoke(addr, store, interceptor)

	case wasm.OpCallIndirect:
		frame, err := e.Stack.CurrentFrame()
		if err != nil {
			return 0, err
		}
		mi, _ := store.Module(frame.Module)
		want := mi.Types[inst.TypeIndex]
		idxVal, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		tbl, err := store.Table(wasm.TableAddr{Module: frame.Module, Index: inst.TableIndex})
		if err != nil {
			return 0, err
		}
		funcAddr, err := tbl.GetAt(int(idxVal.U32()))
		if err != nil {
			return 0, err
		}
		fn, _, err := store.Func(funcAddr)
		if err != nil {
			return 0, err
		}
		if !fn.FuncType().Equal(want) {
			return 0, wasm.TrapIndirectCallMismatch(fn.FuncName(), want, fn.FuncType())
		}
		return e.invoke(funcAddr, store, interceptor)

	case wasm.OpDrop:
		_, err := e.Stack.PopValue()
		return SignalNext, err

	case wasm.OpSelect:
		cond, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		v2, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		v1, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		if cond.IsI32Zero() {
			e.Stack.PushValue(v2)
		} else {
			e.Stack.PushValue(v1)
		}
		return SignalNext, nil

	case wasm.OpLocalGet:
		v, err := e.Stack.GetLocal(inst.Index)
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(v)
		return SignalNext, nil

	case wasm.OpLocalSet:
		v, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		return SignalNext, e.Stack.SetLocal(inst.Index, v)

	case wasm.OpLocalTee:
		v, err := e.Stack.PeekValue()
		if err != nil {
			return 0, err
		}
		return SignalNext, e.Stack.SetLocal(inst.Index, v)

	case wasm.OpGlobalGet:
		g, err := store.Global(wasm.GlobalAddr{Module: module, Index: inst.Index})
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(g.Get())
		return SignalNext, nil

	case wasm.OpGlobalSet:
		v, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		g, err := store.Global(wasm.GlobalAddr{Module: module, Index: inst.Index})
		if err != nil {
			return 0, err
		}
		if !g.Mutable {
			return 0, fmt.Errorf("global.set on immutable global %d", inst.Index)
		}
		if v.Type != g.Value.Type {
			return 0, wasm.TrapUnexpectedValueType(g.Value.Type, v.Type)
		}
		g.Set(v)
		return SignalNext, nil

	case wasm.OpI32Load:
		return e.load32(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI32(addr)
			return wasm.I32(v), err
		})
	case wasm.OpI64Load:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI64(addr)
			return wasm.I64(v), err
		})
	case wasm.OpF32Load:
		return e.load32(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadF32Bits(addr)
			return wasm.F32FromBits(v), err
		})
	case wasm.OpF64Load:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadF64Bits(addr)
			return wasm.F64FromBits(v), err
		})

	case wasm.OpI32Load8S:
		return e.load32(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI8(addr)
			return wasm.I32(int32(v)), err
		})
	case wasm.OpI32Load8U:
		return e.load32(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadU8(addr)
			return wasm.U32(uint32(v)), err
		})
	case wasm.OpI32Load16S:
		return e.load32(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI16(addr)
			return wasm.I32(int32(v)), err
		})
	case wasm.OpI32Load16U:
		return e.load32(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadU16(addr)
			return wasm.U32(uint32(v)), err
		})

	case wasm.OpI64Load8S:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI8(addr)
			return wasm.I64(int64(v)), err
		})
	case wasm.OpI64Load8U:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadU8(addr)
			return wasm.U64(uint64(v)), err
		})
	case wasm.OpI64Load16S:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI16(addr)
			return wasm.I64(int64(v)), err
		})
	case wasm.OpI64Load16U:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadU16(addr)
			return wasm.U64(uint64(v)), err
		})
	case wasm.OpI64Load32S:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadI32(addr)
			return wasm.I64(int64(v)), err
		})
	case wasm.OpI64Load32U:
		return e.load64(inst, store, func(m *wasm.MemoryInstance, addr int) (wasm.Value, error) {
			v, err := m.LoadU32(addr)
			return wasm.U64(uint64(v)), err
		})

	case wasm.OpI32Store:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI32(addr, v.I32())
		})
	case wasm.OpI64Store:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI64(addr, v.I64())
		})
	case wasm.OpF32Store:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI32(addr, int32(v.F32Bits()))
		})
	case wasm.OpF64Store:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI64(addr, int64(v.F64Bits()))
		})
	case wasm.OpI32Store8:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI32Narrow(addr, v.I32(), 1)
		})
	case wasm.OpI32Store16:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI32Narrow(addr, v.I32(), 2)
		})
	case wasm.OpI64Store8:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI64Narrow(addr, v.I64(), 1)
		})
	case wasm.OpI64Store16:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI64Narrow(addr, v.I64(), 2)
		})
	case wasm.OpI64Store32:
		return e.store(inst, store, func(m *wasm.MemoryInstance, addr int, v wasm.Value) error {
			return m.StoreI64Narrow(addr, v.I64(), 4)
		})

	case wasm.OpMemorySize:
		mem, err := e.memory(store)
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.I32(int32(mem.PageCount())))
		return SignalNext, nil

	case wasm.OpMemoryGrow:
		delta, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		mem, err := e.memory(store)
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.I32(mem.Grow(delta.U32())))
		return SignalNext, nil

	case wasm.OpI32Const:
		e.Stack.PushValue(wasm.I32(inst.I32Value))
		return SignalNext, nil
	case wasm.OpI64Const:
		e.Stack.PushValue(wasm.I64(inst.I64Value))
		return SignalNext, nil
	case wasm.OpF32Const:
		e.Stack.PushValue(wasm.F32FromBits(inst.F32Bits))
		return SignalNext, nil
	case wasm.OpF64Const:
		e.Stack.PushValue(wasm.F64FromBits(inst.F64Bits))
		return SignalNext, nil

	case wasm.OpI32Eqz:
		return e.testop32(func(v int32) bool { return v == 0 })
	case wasm.OpI32Eq:
		return e.relop32(func(a, b int32) bool { return a == b })
	case wasm.OpI32Ne:
		return e.relop32(func(a, b int32) bool { return a != b })
	case wasm.OpI32LtS:
		return e.relop32(func(a, b int32) bool { return a < b })
	case wasm.OpI32LtU:
		return e.relopU32(func(a, b uint32) bool { return a < b })
	case wasm.OpI32GtS:
		return e.relop32(func(a, b int32) bool { return a > b })
	case wasm.OpI32GtU:
		return e.relopU32(func(a, b uint32) bool { return a > b })
	case wasm.OpI32LeS:
		return e.relop32(func(a, b int32) bool { return a <= b })
	case wasm.OpI32LeU:
		return e.relopU32(func(a, b uint32) bool { return a <= b })
	case wasm.OpI32GeS:
		return e.relop32(func(a, b int32) bool { return a >= b })
	case wasm.OpI32GeU:
		return e.relopU32(func(a, b uint32) bool { return a >= b })

	case wasm.OpI64Eqz:
		return e.testop64(func(v int64) bool { return v == 0 })
	case wasm.OpI64Eq:
		return e.relop64(func(a, b int64) bool { return a == b })
	case wasm.OpI64Ne:
		return e.relop64(func(a, b int64) bool { return a != b })
	case wasm.OpI64LtS:
		return e.relop64(func(a, b int64) bool { return a < b })
	case wasm.OpI64LtU:
		return e.relopU64(func(a, b uint64) bool { return a < b })
	case wasm.OpI64GtS:
		return e.relop64(func(a, b int64) bool { return a > b })
	case wasm.OpI64GtU:
		return e.relopU64(func(a, b uint64) bool { return a > b })
	case wasm.OpI64LeS:
		return e.relop64(func(a, b int64) bool { return a <= b })
	case wasm.OpI64LeU:
		return e.relopU64(func(a, b uint64) bool { return a <= b })
	case wasm.OpI64GeS:
		return e.relop64(func(a, b int64) bool { return a >= b })
	case wasm.OpI64GeU:
		return e.relopU64(func(a, b uint64) bool { return a >= b })

	case wasm.OpF32Eq:
		return e.relopF32(func(a, b float32) bool { return a == b })
	case wasm.OpF32Ne:
		return e.relopF32(func(a, b float32) bool { return a != b })
	case wasm.OpF32Lt:
		return e.relopF32(func(a, b float32) bool { return a < b })
	case wasm.OpF32Gt:
		return e.relopF32(func(a, b float32) bool { return a > b })
	case wasm.OpF32Le:
		return e.relopF32(func(a, b float32) bool { return a <= b })
	case wasm.OpF32Ge:
		return e.relopF32(func(a, b float32) bool { return a >= b })

	case wasm.OpF64Eq:
		return e.relopF64(func(a, b float64) bool { return a == b })
	case wasm.OpF64Ne:
		return e.relopF64(func(a, b float64) bool { return a != b })
	case wasm.OpF64Lt:
		return e.relopF64(func(a, b float64) bool { return a < b })
	case wasm.OpF64Gt:
		return e.relopF64(func(a, b float64) bool { return a > b })
	case wasm.OpF64Le:
		return e.relopF64(func(a, b float64) bool { return a <= b })
	case wasm.OpF64Ge:
		return e.relopF64(func(a, b float64) bool { return a >= b })

	case wasm.OpI32Clz:
		return e.unop32(func(v int32) int32 { return int32(leadingZeros32(uint32(v))) })
	case wasm.OpI32Ctz:
		return e.unop32(func(v int32) int32 { return int32(trailingZeros32(uint32(v))) })
	case wasm.OpI32Popcnt:
		return e.unop32(func(v int32) int32 { return int32(popcount32(uint32(v))) })
	case wasm.OpI32Add:
		return e.binopU32(func(a, b uint32) uint32 { return a + b })
	case wasm.OpI32Sub:
		return e.binopU32(func(a, b uint32) uint32 { return a - b })
	case wasm.OpI32Mul:
		return e.binopU32(func(a, b uint32) uint32 { return a * b })
	case wasm.OpI32DivS:
		return e.tryBinop32(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			if a == -2147483648 && b == -1 {
				return 0, wasm.TrapIntOverflow()
			}
			return a / b, nil
		})
	case wasm.OpI32DivU:
		return e.tryBinopU32(func(a, b uint32) (uint32, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			return a / b, nil
		})
	case wasm.OpI32RemS:
		return e.tryBinop32(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			if a == -2147483648 && b == -1 {
				return 0, nil
			}
			return a % b, nil
		})
	case wasm.OpI32RemU:
		return e.tryBinopU32(func(a, b uint32) (uint32, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			return a % b, nil
		})
	case wasm.OpI32And:
		return e.binopU32(func(a, b uint32) uint32 { return a & b })
	case wasm.OpI32Or:
		return e.binopU32(func(a, b uint32) uint32 { return a | b })
	case wasm.OpI32Xor:
		return e.binopU32(func(a, b uint32) uint32 { return a ^ b })
	case wasm.OpI32Shl:
		return e.binopU32(func(a, b uint32) uint32 { return a << (b % 32) })
	case wasm.OpI32ShrS:
		return e.binop32(func(a, b int32) int32 { return a >> (uint32(b) % 32) })
	case wasm.OpI32ShrU:
		return e.binopU32(func(a, b uint32) uint32 { return a >> (b % 32) })
	case wasm.OpI32Rotl:
		return e.binopU32(rotl32)
	case wasm.OpI32Rotr:
		return e.binopU32(rotr32)

	case wasm.OpI64Clz:
		return e.unop64(func(v int64) int64 { return int64(leadingZeros64(uint64(v))) })
	case wasm.OpI64Ctz:
		return e.unop64(func(v int64) int64 { return int64(trailingZeros64(uint64(v))) })
	case wasm.OpI64Popcnt:
		return e.unop64(func(v int64) int64 { return int64(popcount64(uint64(v))) })
	case wasm.OpI64Add:
		return e.binopU64(func(a, b uint64) uint64 { return a + b })
	case wasm.OpI64Sub:
		return e.binopU64(func(a, b uint64) uint64 { return a - b })
	case wasm.OpI64Mul:
		return e.binopU64(func(a, b uint64) uint64 { return a * b })
	case wasm.OpI64DivS:
		return e.tryBinop64(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			if a == -9223372036854775808 && b == -1 {
				return 0, wasm.TrapIntOverflow()
			}
			return a / b, nil
		})
	case wasm.OpI64DivU:
		return e.tryBinopU64(func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			return a / b, nil
		})
	case wasm.OpI64RemS:
		return e.tryBinop64(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			if a == -9223372036854775808 && b == -1 {
				return 0, nil
			}
			return a % b, nil
		})
	case wasm.OpI64RemU:
		return e.tryBinopU64(func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, wasm.TrapDivByZero()
			}
			return a % b, nil
		})
	case wasm.OpI64And:
		return e.binopU64(func(a, b uint64) uint64 { return a & b })
	case wasm.OpI64Or:
		return e.binopU64(func(a, b uint64) uint64 { return a | b })
	case wasm.OpI64Xor:
		return e.binopU64(func(a, b uint64) uint64 { return a ^ b })
	case wasm.OpI64Shl:
		return e.binopU64(func(a, b uint64) uint64 { return a << (b % 64) })
	case wasm.OpI64ShrS:
		return e.binop64(func(a, b int64) int64 { return a >> (uint64(b) % 64) })
	case wasm.OpI64ShrU:
		return e.binopU64(func(a, b uint64) uint64 { return a >> (b % 64) })
	case wasm.OpI64Rotl:
		return e.binopU64(rotl64)
	case wasm.OpI64Rotr:
		return e.binopU64(rotr64)

	case wasm.OpF32Abs:
		return e.unopF32(f32Abs)
	case wasm.OpF32Neg:
		return e.unopF32(func(v float32) float32 { return -v })
	case wasm.OpF32Ceil:
		return e.unopF32(f32Ceil)
	case wasm.OpF32Floor:
		return e.unopF32(f32Floor)
	case wasm.OpF32Trunc:
		return e.unopF32(f32Trunc)
	case wasm.OpF32Nearest:
		return e.unopF32(func(v float32) float32 { return moremath.WasmCompatNearestF32(v) })
	case wasm.OpF32Sqrt:
		return e.unopF32(f32Sqrt)
	case wasm.OpF32Add:
		return e.binopF32(func(a, b float32) float32 { return a + b })
	case wasm.OpF32Sub:
		return e.binopF32(func(a, b float32) float32 { return a - b })
	case wasm.OpF32Mul:
		return e.binopF32(func(a, b float32) float32 { return a * b })
	case wasm.OpF32Div:
		return e.binopF32(func(a, b float32) float32 { return a / b })
	case wasm.OpF32Min:
		return e.binopF32(func(a, b float32) float32 { return moremath.WasmCompatMinF32(a, b) })
	case wasm.OpF32Max:
		return e.binopF32(func(a, b float32) float32 { return moremath.WasmCompatMaxF32(a, b) })
	case wasm.OpF32Copysign:
		return e.binopF32(f32Copysign)

	case wasm.OpF64Abs:
		return e.unopF64(f64Abs)
	case wasm.OpF64Neg:
		return e.unopF64(func(v float64) float64 { return -v })
	case wasm.OpF64Ceil:
		return e.unopF64(f64Ceil)
	case wasm.OpF64Floor:
		return e.unopF64(f64Floor)
	case wasm.OpF64Trunc:
		return e.unopF64(f64Trunc)
	case wasm.OpF64Nearest:
		return e.unopF64(func(v float64) float64 { return moremath.WasmCompatNearestF64(v) })
	case wasm.OpF64Sqrt:
		return e.unopF64(f64Sqrt)
	case wasm.OpF64Add:
		return e.binopF64(func(a, b float64) float64 { return a + b })
	case wasm.OpF64Sub:
		return e.binopF64(func(a, b float64) float64 { return a - b })
	case wasm.OpF64Mul:
		return e.binopF64(func(a, b float64) float64 { return a * b })
	case wasm.OpF64Div:
		return e.binopF64(func(a, b float64) float64 { return a / b })
	case wasm.OpF64Min:
		return e.binopF64(func(a, b float64) float64 { return moremath.WasmCompatMin(a, b) })
	case wasm.OpF64Max:
		return e.binopF64(func(a, b float64) float64 { return moremath.WasmCompatMax(a, b) })
	case wasm.OpF64Copysign:
		return e.binopF64(f64Copysign)

	case wasm.OpI32WrapI64:
		v, err := e.popI64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.I32(int32(v)))
		return SignalNext, nil
	case wasm.OpI32TruncF32S:
		return e.truncF32ToI32(false)
	case wasm.OpI32TruncF32U:
		return e.truncF32ToI32(true)
	case wasm.OpI32TruncF64S:
		return e.truncF64ToI32(false)
	case wasm.OpI32TruncF64U:
		return e.truncF64ToI32(true)
	case wasm.OpI64ExtendI32S:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.I64(int64(v)))
		return SignalNext, nil
	case wasm.OpI64ExtendI32U:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.U64(uint64(uint32(v))))
		return SignalNext, nil
	case wasm.OpI64TruncF32S:
		return e.truncF32ToI64(false)
	case wasm.OpI64TruncF32U:
		return e.truncF32ToI64(true)
	case wasm.OpI64TruncF64S:
		return e.truncF64ToI64(false)
	case wasm.OpI64TruncF64U:
		return e.truncF64ToI64(true)
	case wasm.OpF32ConvertI32S:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F32(float32(v)))
		return SignalNext, nil
	case wasm.OpF32ConvertI32U:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F32(float32(uint32(v))))
		return SignalNext, nil
	case wasm.OpF32ConvertI64S:
		v, err := e.popI64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F32(float32(v)))
		return SignalNext, nil
	case wasm.OpF32ConvertI64U:
		v, err := e.popI64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F32(float32(uint64(v))))
		return SignalNext, nil
	case wasm.OpF32DemoteF64:
		v, err := e.popF64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F32(float32(v)))
		return SignalNext, nil
	case wasm.OpF64ConvertI32S:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F64(float64(v)))
		return SignalNext, nil
	case wasm.OpF64ConvertI32U:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F64(float64(uint32(v))))
		return SignalNext, nil
	case wasm.OpF64ConvertI64S:
		v, err := e.popI64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F64(float64(v)))
		return SignalNext, nil
	case wasm.OpF64ConvertI64U:
		v, err := e.popI64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F64(float64(uint64(v))))
		return SignalNext, nil
	case wasm.OpF64PromoteF32:
		v, err := e.popF32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F64(float64(v)))
		return SignalNext, nil

	case wasm.OpI32ReinterpretF32:
		v, err := e.popF32Bits()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.I32(int32(v)))
		return SignalNext, nil
	case wasm.OpI64ReinterpretF64:
		v, err := e.popF64Bits()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.I64(int64(v)))
		return SignalNext, nil
	case wasm.OpF32ReinterpretI32:
		v, err := e.popI32()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F32FromBits(uint32(v)))
		return SignalNext, nil
	case wasm.OpF64ReinterpretI64:
		v, err := e.popI64()
		if err != nil {
			return 0, err
		}
		e.Stack.PushValue(wasm.F64FromBits(uint64(v)))
		return SignalNext, nil
	}

	return 0, fmt.Errorf("unhandled opcode %d", inst.Opcode)
}

// end implements the End opcode's two distinct paths: reaching the end of a
// function body (no open block labels) pops the frame and either resumes
// the caller or signals the whole call has finished; reaching the end of a
// nested block just closes its label, leaving its result values in place
// (spec §4.3 End, supplemented from the ground-truth executor).
func (e *Executor) end(store *wasm.Store) (Signal, error) {
	if e.Stack.IsFuncTopLevel() {
		frame, err := e.Stack.CurrentFrame()
		if err != nil {
			return 0, err
		}
		retPC := frame.RetPC
		fn := store.FuncAtExecAddr(e.PC.ExecAddr)
		arity := len(fn.FuncType().Results)
		results := make([]wasm.Value, arity)
		for i := arity - 1; i >= 0; i-- {
			v, err := e.Stack.PopValue()
			if err != nil {
				return 0, err
			}
			results[i] = v
		}
		if _, err := e.Stack.PopFrame(); err != nil {
			return 0, err
		}
		for _, v := range results {
			e.Stack.PushValue(v)
		}
		if retPC != nil {
			e.PC = *retPC
			return SignalNext, nil
		}
		return SignalEnd, nil
	}

	var drained []wasm.Value
	for {
		v, err := e.Stack.PopValue()
		if err != nil {
			break
		}
		drained = append(drained, v)
	}
	if _, err := e.Stack.PopLabel(); err != nil {
		return 0, err
	}
	for i := len(drained) - 1; i >= 0; i-- {
		e.Stack.PushValue(drained[i])
	}
	return SignalNext, nil
}

// branch implements Br, BrIf, BrTable and Else (as a branch to depth 0):
// it drains arity result values, discards everything down through the
// targeted label, restores the results, then jumps to the label's
// continuation. A depth that names no open label at all means there is
// nothing left to branch out of but the function itself, which is an
// implicit return (spec §4.3 Br).
func (e *Executor) branch(depth uint32, store *wasm.Store) (Signal, error) {
	label, idx, err := e.Stack.NthLabelFromTop(depth)
	if err != nil {
		return e.doReturn(store)
	}

	var results []wasm.Value
	for i := uint32(0); i < label.Arity; i++ {
		v, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		results = append(results, v)
	}

	e.Stack.TruncateTo(idx)

	for i := len(results) - 1; i >= 0; i-- {
		e.Stack.PushValue(results[i])
	}

	if label.Kind == wasm.LabelLoop {
		e.PC.InstIndex = label.LoopStartInst
		return SignalNext, nil
	}

	if err := e.skipToMatchingEnd(store, int(depth)+1); err != nil {
		return 0, err
	}
	return SignalNext, nil
}

// skipToElseOrEnd advances the program counter past a not-taken If's
// then-branch, stopping just after a matching Else (depth 1) or on a
// matching End, tracking nested Block/Loop/If opens the same way a matching
// parenthesis scanner would (spec §4.3 If, supplemented from the
// ground-truth executor; skipToMatchingEnd counts nesting depth the same
// way, since both scan the same nesting structure).
func (e *Executor) skipToElseOrEnd(store *wasm.Store) error {
	insts := e.currentFuncInstructions(store)
	depth := 1
	for {
		inst := insts[e.PC.InstIndex]
		switch inst.Opcode {
		case wasm.OpEnd:
			depth--
		case wasm.OpBlock, wasm.OpIf, wasm.OpLoop:
			depth++
		case wasm.OpElse:
			if depth == 1 {
				e.PC.InstIndex++
				return nil
			}
		}
		if depth == 0 {
			return nil
		}
		e.PC.InstIndex++
	}
}

// skipToMatchingEnd advances the program counter past startDepth nested
// Ends, used when a branch targets a Block or If: execution resumes right
// after that construct's own End.
func (e *Executor) skipToMatchingEnd(store *wasm.Store, startDepth int) error {
	insts := e.currentFuncInstructions(store)
	depth := startDepth
	for {
		inst := insts[e.PC.InstIndex]
		switch inst.Opcode {
		case wasm.OpEnd:
			depth--
		case wasm.OpBlock, wasm.OpIf, wasm.OpLoop:
			depth++
		}
		e.PC.InstIndex++
		if depth == 0 {
			return nil
		}
	}
}

// doReturn unwinds the current frame's value stack, pops the frame itself
// and resumes the caller, or reports SignalEnd if there was no caller
// (spec §4.3 Return).
func (e *Executor) doReturn(store *wasm.Store) (Signal, error) {
	frame, err := e.Stack.CurrentFrame()
	if err != nil {
		return 0, err
	}
	retPC := frame.RetPC
	fn := store.FuncAtExecAddr(e.PC.ExecAddr)
	arity := len(fn.FuncType().Results)
	results := make([]wasm.Value, arity)
	for i := arity - 1; i >= 0; i-- {
		v, err := e.Stack.PopValue()
		if err != nil {
			return 0, err
		}
		results[i] = v
	}
	for {
		if err := e.Stack.PopWhile(func(wasm.Value) bool { return true }); err != nil {
			return 0, err
		}
		if _, _, err := e.Stack.NthLabelFromTop(0); err != nil {
			break
		}
		if _, err := e.Stack.PopLabel(); err != nil {
			return 0, err
		}
	}
	if _, err := e.Stack.PopFrame(); err != nil {
		return 0, err
	}
	for _, v := range results {
		e.Stack.PushValue(v)
	}
	if retPC != nil {
		e.PC = *retPC
		return SignalNext, nil
	}
	return SignalEnd, nil
}

// invoke performs a direct or indirect call to addr: it drains the callee's
// declared parameter count off the stack regardless of whether every pop
// actually matched a value (so a mismatched call still leaves the stack
// balanced) and only afterward reports whether the arguments were well
// typed, mirroring the ground-truth executor's drain-then-trap behavior
// (spec §4.3 Call, CallIndirect; supplemented feature, see design notes).
func (e *Executor) invoke(addr wasm.FuncAddr, store *wasm.Store, interceptor Interceptor) (Signal, error) {
	fn, execAddr, err := store.Func(addr)
	if err != nil {
		return 0, err
	}

	params := fn.FuncType().Params
	args := make([]wasm.Value, 0, len(params))
	mismatch := false
	for range params {
		v, err := e.Stack.PopValue()
		if err != nil {
			mismatch = true
			continue
		}
		args = append(args, v)
	}
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	if !mismatch {
		for i, v := range args {
			if v.Type != params[i] {
				mismatch = true
			}
		}
	}
	if mismatch {
		got := make([]api.ValueType, len(args))
		for i, v := range args {
			got[i] = v.Type
		}
		return 0, wasm.TrapDirectCallMismatch(fn.FuncName(), params, got)
	}

	interceptor.InvokeFunc(fn)

	if fn.Host != nil {
		var results []wasm.Value
		if err := fn.Host.Body(args, &results, store, addr.Module); err != nil {
			return 0, wasm.ErrHostExecution(err)
		}
		for _, v := range results {
			e.Stack.PushValue(v)
		}
		return SignalNext, nil
	}

	locals := make([]wasm.Value, len(args)+len(fn.Defined.LocalTypes))
	copy(locals, args)
	for i, t := range fn.Defined.LocalTypes {
		locals[len(args)+i] = zeroValue(t)
	}
	retPC := e.PC
	e.Stack.PushFrame(wasm.CallFrame{
		FuncExecAddr: execAddr,
		Module:       fn.Defined.Module,
		Locals:       locals,
		RetPC:        &retPC,
	})
	e.PC = wasm.ProgramCounter{ExecAddr: execAddr, InstIndex: 0}
	return SignalNext, nil
}

func zeroValue(t api.ValueType) wasm.Value {
	switch t {
	case api.ValueTypeI32:
		return wasm.I32(0)
	case api.ValueTypeI64:
		return wasm.I64(0)
	case api.ValueTypeF32:
		return wasm.F32(0)
	default:
		return wasm.F64(0)
	}
}

func (e *Executor) memory(store *wasm.Store) (*wasm.MemoryInstance, error) {
	frame, err := e.Stack.CurrentFrame()
	if err != nil {
		return nil, err
	}
	return store.Memory(wasm.MemoryAddr{Module: frame.Module, Index: 0})
}
