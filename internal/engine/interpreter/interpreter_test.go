package interpreter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ggreif/wasminspect/api"
	"github.com/ggreif/wasminspect/internal/wasm"
)

func mustLoad(t *testing.T, m *wasm.Module) (*wasm.Store, wasm.ModuleIndex) {
	t.Helper()
	s := wasm.NewStore()
	idx, err := s.LoadModule("main", m, nil)
	require.NoError(t, err)
	return s, idx
}

// valueComparer lets cmp.Diff compare wasm.Value slices despite its
// unexported bits field: two Values are equal iff their tag and raw bits
// match, which is exactly what == already does on the struct.
var valueComparer = cmp.Comparer(func(a, b wasm.Value) bool { return a == b })

func requireValuesEqual(t *testing.T, want, got []wasm.Value) {
	t.Helper()
	if diff := cmp.Diff(want, got, valueComparer); diff != "" {
		t.Fatalf("result values mismatch (-want +got):\n%s", diff)
	}
}

func TestRunAdd(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{{
			Instructions: []wasm.Instruction{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpLocalGet, Index: 1},
				{Opcode: wasm.OpI32Add},
				{Opcode: wasm.OpEnd},
			},
		}},
		ExportSection: map[string]*wasm.Export{"add": {Kind: wasm.ExportKindFunc, Index: 0}},
	}
	s, _ := mustLoad(t, m)
	addr, err := s.ExportedFunc("main", "add")
	require.NoError(t, err)

	results, err := Run(s, addr, []wasm.Value{wasm.I32(3), wasm.I32(4)})
	require.NoError(t, err)
	requireValuesEqual(t, []wasm.Value{wasm.I32(7)}, results)
}

func TestRunFactorialRecursive(t *testing.T) {
	// n == 0 ? 1 : n * factorial(n - 1)
	instrs := []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Index: 0},                    // 0
		{Opcode: wasm.OpI32Eqz},                                // 1
		{Opcode: wasm.OpIf, BlockType: wasm.BlockType{Arity: 1}}, // 2
		{Opcode: wasm.OpI32Const, I32Value: 1},                 // 3
		{Opcode: wasm.OpElse},                                  // 4
		{Opcode: wasm.OpLocalGet, Index: 0},                    // 5
		{Opcode: wasm.OpLocalGet, Index: 0},                    // 6
		{Opcode: wasm.OpI32Const, I32Value: 1},                 // 7
		{Opcode: wasm.OpI32Sub},                                // 8
		{Opcode: wasm.OpCall, FunctionIndex: 0},                // 9
		{Opcode: wasm.OpI32Mul},                                // 10
		{Opcode: wasm.OpEnd},                                   // 11 (closes if)
		{Opcode: wasm.OpEnd},                                   // 12 (closes function)
	}
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection:     []*wasm.Code{{Instructions: instrs}},
		ExportSection:   map[string]*wasm.Export{"factorial": {Kind: wasm.ExportKindFunc, Index: 0}},
	}
	s, _ := mustLoad(t, m)
	addr, err := s.ExportedFunc("main", "factorial")
	require.NoError(t, err)

	results, err := Run(s, addr, []wasm.Value{wasm.I32(5)})
	require.NoError(t, err)
	requireValuesEqual(t, []wasm.Value{wasm.I32(120)}, results)
}

func TestRunMemoryStoreOutOfBoundsTrap(t *testing.T) {
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{{
			Instructions: []wasm.Instruction{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpI32Const, I32Value: 1},
				{Opcode: wasm.OpI32Store, MemArg: wasm.MemArg{Offset: 0}},
				{Opcode: wasm.OpEnd},
			},
		}},
		MemorySection: []*wasm.MemoryType{{Min: 1}},
		ExportSection: map[string]*wasm.Export{"store_at": {Kind: wasm.ExportKindFunc, Index: 0}},
	}
	s, _ := mustLoad(t, m)
	addr, err := s.ExportedFunc("main", "store_at")
	require.NoError(t, err)

	// one page is 65536 bytes; an i32 store at 65533 reaches byte 65537.
	_, err = Run(s, addr, []wasm.Value{wasm.I32(65533)})
	require.Error(t, err)
	var trap *wasm.Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, wasm.TrapMemoryOutOfBounds, trap.Kind)
}

func TestRunCallIndirectSuccessAndMismatch(t *testing.T) {
	doubleType := &wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	mismatchedType := &wasm.FunctionType{Results: []api.ValueType{api.ValueTypeI32}}
	callerType := &wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}

	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{doubleType, mismatchedType, callerType},
		FunctionSection: []uint32{0, 1, 2},
		CodeSection: []*wasm.Code{
			{Instructions: []wasm.Instruction{ // func 0: double
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpI32Const, I32Value: 2},
				{Opcode: wasm.OpI32Mul},
				{Opcode: wasm.OpEnd},
			}},
			{Instructions: []wasm.Instruction{ // func 1: wrong arity for the call site
				{Opcode: wasm.OpI32Const, I32Value: 99},
				{Opcode: wasm.OpEnd},
			}},
			{Instructions: []wasm.Instruction{ // func 2: caller(arg, tableIndex)
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpLocalGet, Index: 1},
				{Opcode: wasm.OpCallIndirect, TypeIndex: 0, TableIndex: 0},
				{Opcode: wasm.OpEnd},
			}},
		},
		TableSection: []*wasm.TableType{{Min: 2}},
		ElementSegments: []*wasm.ElementSegment{
			{TableIndex: 0, Offset: &wasm.Instruction{Opcode: wasm.OpI32Const, I32Value: 0}, Init: []uint32{0, 1}},
		},
		ExportSection: map[string]*wasm.Export{"call_it": {Kind: wasm.ExportKindFunc, Index: 2}},
	}
	s, _ := mustLoad(t, m)
	addr, err := s.ExportedFunc("main", "call_it")
	require.NoError(t, err)

	results, err := Run(s, addr, []wasm.Value{wasm.I32(7), wasm.I32(0)})
	require.NoError(t, err)
	requireValuesEqual(t, []wasm.Value{wasm.I32(14)}, results)

	_, err = Run(s, addr, []wasm.Value{wasm.I32(7), wasm.I32(1)})
	require.Error(t, err)
	var trap *wasm.Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, wasm.TrapIndirectCallTypeMismatch, trap.Kind)
}

func TestRunBranchOutOfNestedBlocks(t *testing.T) {
	instrs := []wasm.Instruction{
		{Opcode: wasm.OpBlock, BlockType: wasm.BlockType{Arity: 1}}, // outer, label depth 2 from the Br site
		{Opcode: wasm.OpBlock, BlockType: wasm.BlockType{Arity: 0}}, // middle, depth 1
		{Opcode: wasm.OpBlock, BlockType: wasm.BlockType{Arity: 0}}, // inner, depth 0
		{Opcode: wasm.OpI32Const, I32Value: 42},
		{Opcode: wasm.OpBr, RelativeDepth: 2},
		{Opcode: wasm.OpEnd}, // closes inner
		{Opcode: wasm.OpEnd}, // closes middle
		{Opcode: wasm.OpEnd}, // closes outer, leaving 42 as its result
		{Opcode: wasm.OpEnd}, // closes the function
	}
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection:     []*wasm.Code{{Instructions: instrs}},
		ExportSection:   map[string]*wasm.Export{"branch_42": {Kind: wasm.ExportKindFunc, Index: 0}},
	}
	s, _ := mustLoad(t, m)
	addr, err := s.ExportedFunc("main", "branch_42")
	require.NoError(t, err)

	results, err := Run(s, addr, nil)
	require.NoError(t, err)
	requireValuesEqual(t, []wasm.Value{wasm.I32(42)}, results)
}

func TestRunMemoryGrowSuccessThenFailure(t *testing.T) {
	max := uint32(2)
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.Code{{
			Instructions: []wasm.Instruction{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpMemoryGrow},
				{Opcode: wasm.OpEnd},
			},
		}},
		MemorySection: []*wasm.MemoryType{{Min: 1, Max: &max}},
		ExportSection: map[string]*wasm.Export{"grow_mem": {Kind: wasm.ExportKindFunc, Index: 0}},
	}
	s, _ := mustLoad(t, m)
	addr, err := s.ExportedFunc("main", "grow_mem")
	require.NoError(t, err)

	results, err := Run(s, addr, []wasm.Value{wasm.I32(1)})
	require.NoError(t, err)
	requireValuesEqual(t, []wasm.Value{wasm.I32(1)}, results) // previous page count

	results, err = Run(s, addr, []wasm.Value{wasm.I32(1)})
	require.NoError(t, err)
	requireValuesEqual(t, []wasm.Value{wasm.I32(-1)}, results) // exceeds max, grow fails
}
