package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ggreif/wasminspect/api"
)

func TestStoreLoadHostModule(t *testing.T) {
	s := NewStore()
	hm := &HostModule{
		Functions: map[string]*HostFunction{
			"double": {
				Type: &FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}},
				Body: func(args []Value, results *[]Value, store *Store, mod ModuleIndex) error {
					*results = []Value{I32(args[0].I32() * 2)}
					return nil
				},
			},
		},
	}
	idx := s.LoadHostModule("env", hm)
	mi, ok := s.Module(idx)
	require.True(t, ok)
	require.True(t, mi.Host)

	addr, err := s.ExportedFunc("env", "double")
	require.NoError(t, err)
	fn, _, err := s.Func(addr)
	require.NoError(t, err)
	require.NotNil(t, fn.Host)
}

func TestStoreLoadModuleOwnFuncsAndExports(t *testing.T) {
	s := NewStore()
	m := &Module{
		TypeSection:     []*FunctionType{{Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []*Code{{
			Instructions: []Instruction{
				{Opcode: OpI32Const, I32Value: 42},
				{Opcode: OpEnd},
			},
		}},
		ExportSection: map[string]*Export{
			"answer": {Kind: ExportKindFunc, Index: 0},
		},
	}
	idx, err := s.LoadModule("main", m, nil)
	require.NoError(t, err)

	addr, err := s.ExportedFunc("main", "answer")
	require.NoError(t, err)
	require.Equal(t, idx, addr.Module)

	fn, execAddr, err := s.Func(addr)
	require.NoError(t, err)
	require.Nil(t, fn.Host)
	require.Same(t, fn, s.FuncAtExecAddr(execAddr))
}

func TestStoreLoadModuleWithImportBindings(t *testing.T) {
	s := NewStore()
	hostIdx := s.LoadHostModule("env", &HostModule{
		Globals: map[string]*GlobalInstance{
			"base": NewGlobalInstance(I32(100), false),
		},
	})
	hostMi, _ := s.Module(hostIdx)
	importedAddr := hostMi.GlobalAddrs[0]

	m := &Module{
		TypeSection: nil,
		GlobalSection: []*GlobalDecl{
			{Type: &GlobalType{ValueType: api.ValueTypeI32, Mutable: false}, Init: &Instruction{Opcode: OpGlobalGet, Index: 0}},
		},
		ExportSection: map[string]*Export{
			"derived": {Kind: ExportKindGlobal, Index: 1},
		},
	}
	idx, err := s.LoadModule("main", m, &ImportBindings{Globals: []int{importedAddr}})
	require.NoError(t, err)

	mi, _ := s.Module(idx)
	g, err := s.Global(GlobalAddr{Module: idx, Index: 1})
	require.NoError(t, err)
	require.Equal(t, I32(100), g.Get())
	require.Equal(t, 1, mi.ImportedGlobalCount)
}

func TestStoreLoadModuleElementAndDataSegments(t *testing.T) {
	s := NewStore()
	m := &Module{
		TypeSection:     []*FunctionType{{}},
		FunctionSection: []uint32{0},
		CodeSection:     []*Code{{Instructions: []Instruction{{Opcode: OpEnd}}}},
		TableSection:    []*TableType{{Min: 4}},
		MemorySection:   []*MemoryType{{Min: 1}},
		ElementSegments: []*ElementSegment{
			{TableIndex: 0, Offset: &Instruction{Opcode: OpI32Const, I32Value: 1}, Init: []uint32{0}},
		},
		DataSegments: []*DataSegment{
			{MemoryIndex: 0, Offset: &Instruction{Opcode: OpI32Const, I32Value: 0}, Init: []byte{0xde, 0xad}},
		},
	}
	idx, err := s.LoadModule("main", m, nil)
	require.NoError(t, err)

	tbl, err := s.Table(TableAddr{Module: idx, Index: 0})
	require.NoError(t, err)
	fa, err := tbl.GetAt(1)
	require.NoError(t, err)
	require.Equal(t, FuncAddr{Module: idx, Index: 0}, fa)

	mem, err := s.Memory(MemoryAddr{Module: idx, Index: 0})
	require.NoError(t, err)
	b, err := mem.LoadU8(0)
	require.NoError(t, err)
	require.Equal(t, uint8(0xde), b)
}

func TestStoreExportedFuncNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.ExportedFunc("nope", "nope")
	require.Error(t, err)
}

func TestArgTypesMatch(t *testing.T) {
	params := []api.ValueType{api.ValueTypeI32, api.ValueTypeF64}
	require.True(t, argTypesMatch([]Value{I32(1), F64(2)}, params))
	require.False(t, argTypesMatch([]Value{I32(1)}, params))
	require.False(t, argTypesMatch([]Value{I32(1), I32(2)}, params))
}
