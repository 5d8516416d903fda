package wasm

// evalConstExpr evaluates a constant expression: the single instruction
// used to initialize a global, a table's element segment offset, or a
// memory's data segment offset. The WebAssembly 1.0 grammar for these
// restricts them to one of the four *.const instructions or a global.get of
// an imported, immutable global; a decoder that hands the executor anything
// else has already produced a module that could never have validated, so
// this panics rather than returning a Trap (spec §4.5, supplemented from
// the ground-truth executor's eval_const_expr).
func evalConstExpr(s *Store, mi *ModuleInstance, instr *Instruction) (Value, error) {
	switch instr.Opcode {
	case OpI32Const:
		return I32(instr.I32Value), nil
	case OpI64Const:
		return I64(instr.I64Value), nil
	case OpF32Const:
		return F32FromBits(instr.F32Bits), nil
	case OpF64Const:
		return F64FromBits(instr.F64Bits), nil
	case OpGlobalGet:
		if instr.Index >= uint32(mi.ImportedGlobalCount) {
			panic("constant expression referenced a non-imported global")
		}
		g, err := s.Global(GlobalAddr{Module: mi.SelfIndex, Index: instr.Index})
		if err != nil {
			return Value{}, err
		}
		if g.Mutable {
			panic("constant expression referenced a mutable global")
		}
		return g.Get(), nil
	default:
		panic("not a constant expression opcode")
	}
}
