package wasm

import "github.com/ggreif/wasminspect/api"

// Store owns every instance the executor can touch: functions, tables,
// memories and globals live in flat, store-global vectors shared across all
// loaded modules. A ModuleInstance's local index spaces are just views into
// these vectors, built once at load time so the executor never re-resolves
// an import indirection on the hot path.
type Store struct {
	Modules       []*ModuleInstance
	modulesByName map[string]ModuleIndex

	Functions []*FunctionInstance
	Tables    []*TableInstance
	Memories  []*MemoryInstance
	Globals   []*GlobalInstance
}

// NewStore returns an empty store ready to load host and defined modules.
func NewStore() *Store {
	return &Store{modulesByName: map[string]ModuleIndex{}}
}

// ImportBindings resolves a defined module's import section to store-global
// exec addresses, one slice per import kind, in import order. Matching
// import names to an exporter is the linker's job (spec §1 Non-goals); the
// Store only needs the result.
type ImportBindings struct {
	Funcs    []int
	Tables   []int
	Memories []int
	Globals  []int
}

// HostModule is the embedder-supplied set of native values a host module
// exports, keyed by export name.
type HostModule struct {
	Functions map[string]*HostFunction
	Memories  map[string]*MemoryInstance
	Tables    map[string]*TableInstance
	Globals   map[string]*GlobalInstance
}

func (s *Store) register(mi *ModuleInstance) ModuleIndex {
	s.Modules = append(s.Modules, mi)
	idx := ModuleIndex(len(s.Modules))
	mi.SelfIndex = idx
	if mi.Name != "" {
		s.modulesByName[mi.Name] = idx
	}
	return idx
}

// LoadHostModule registers a native module, assigning each of its exports a
// fresh store-global slot.
func (s *Store) LoadHostModule(name string, hm *HostModule) ModuleIndex {
	mi := newModuleInstance(name, true)
	for exportName, fn := range hm.Functions {
		addr := len(s.Functions)
		s.Functions = append(s.Functions, &FunctionInstance{Host: fn})
		local := uint32(len(mi.FuncAddrs))
		mi.FuncAddrs = append(mi.FuncAddrs, addr)
		mi.Exports[exportName] = Export{Kind: ExportKindFunc, Index: local}
	}
	for exportName, mem := range hm.Memories {
		addr := len(s.Memories)
		s.Memories = append(s.Memories, mem)
		local := uint32(len(mi.MemoryAddrs))
		mi.MemoryAddrs = append(mi.MemoryAddrs, addr)
		mi.Exports[exportName] = Export{Kind: ExportKindMemory, Index: local}
	}
	for exportName, tbl := range hm.Tables {
		addr := len(s.Tables)
		s.Tables = append(s.Tables, tbl)
		local := uint32(len(mi.TableAddrs))
		mi.TableAddrs = append(mi.TableAddrs, addr)
		mi.Exports[exportName] = Export{Kind: ExportKindTable, Index: local}
	}
	for exportName, g := range hm.Globals {
		addr := len(s.Globals)
		s.Globals = append(s.Globals, g)
		local := uint32(len(mi.GlobalAddrs))
		mi.GlobalAddrs = append(mi.GlobalAddrs, addr)
		mi.Exports[exportName] = Export{Kind: ExportKindGlobal, Index: local}
	}
	return s.register(mi)
}

// LoadModule instantiates a decoded module: it appends its own functions,
// tables and memories to the store, prepends the already-resolved import
// bindings to each local index space, evaluates global initializers and
// applies element and data segments. The caller (the linker, spec §1
// Non-goals) is responsible for producing bindings that satisfy every entry
// of m.ImportSection.
func (s *Store) LoadModule(name string, m *Module, bindings *ImportBindings) (ModuleIndex, error) {
	if bindings == nil {
		bindings = &ImportBindings{}
	}
	mi := newModuleInstance(name, false)
	mi.Types = m.TypeSection
	mi.FuncAddrs = append(mi.FuncAddrs, bindings.Funcs...)
	mi.TableAddrs = append(mi.TableAddrs, bindings.Tables...)
	mi.MemoryAddrs = append(mi.MemoryAddrs, bindings.Memories...)
	mi.GlobalAddrs = append(mi.GlobalAddrs, bindings.Globals...)
	mi.ImportedGlobalCount = len(bindings.Globals)

	idx := s.register(mi)

	// own functions: FunctionSection[i] is the type index, CodeSection[i] is
	// the matching body, both indexed in declaration order.
	for i, typeIdx := range m.FunctionSection {
		code := m.CodeSection[i]
		fn := &FunctionInstance{Defined: &DefinedFunction{
			Module:       idx,
			Type:         m.TypeSection[typeIdx],
			LocalTypes:   code.LocalTypes,
			Instructions: code.Instructions,
		}}
		addr := len(s.Functions)
		s.Functions = append(s.Functions, fn)
		mi.FuncAddrs = append(mi.FuncAddrs, addr)
	}

	// own tables
	for _, tt := range m.TableSection {
		addr := len(s.Tables)
		s.Tables = append(s.Tables, NewTableInstance(tt.Min, tt.Max))
		mi.TableAddrs = append(mi.TableAddrs, addr)
	}

	// own memories
	for _, mt := range m.MemorySection {
		addr := len(s.Memories)
		s.Memories = append(s.Memories, NewMemoryInstance(mt.Min, mt.Max))
		mi.MemoryAddrs = append(mi.MemoryAddrs, addr)
	}

	// own globals: initializers may reference only imported globals,
	// already resolved and present at the front of mi.GlobalAddrs.
	for _, gd := range m.GlobalSection {
		v, err := evalConstExpr(s, mi, gd.Init)
		if err != nil {
			return 0, err
		}
		addr := len(s.Globals)
		s.Globals = append(s.Globals, NewGlobalInstance(v, gd.Type.Mutable))
		mi.GlobalAddrs = append(mi.GlobalAddrs, addr)
	}

	for name, exp := range m.ExportSection {
		mi.Exports[name] = *exp
	}
	mi.Start = m.StartFunction

	for _, seg := range m.ElementSegments {
		off, err := evalConstExpr(s, mi, seg.Offset)
		if err != nil {
			return 0, err
		}
		data := make([]FuncAddr, len(seg.Init))
		for i, fidx := range seg.Init {
			data[i] = FuncAddr{Module: idx, Index: fidx}
		}
		tbl, err := s.Table(TableAddr{Module: idx, Index: seg.TableIndex})
		if err != nil {
			return 0, err
		}
		if err := tbl.Initialize(int(off.I32()), data); err != nil {
			return 0, err
		}
	}

	for _, seg := range m.DataSegments {
		off, err := evalConstExpr(s, mi, seg.Offset)
		if err != nil {
			return 0, err
		}
		mem, err := s.Memory(MemoryAddr{Module: idx, Index: seg.MemoryIndex})
		if err != nil {
			return 0, err
		}
		if err := mem.Store(int(off.I32()), seg.Init); err != nil {
			return 0, err
		}
	}

	return idx, nil
}

// Module looks up a loaded module by index.
func (s *Store) Module(idx ModuleIndex) (*ModuleInstance, bool) {
	if idx == 0 || int(idx) > len(s.Modules) {
		return nil, false
	}
	return s.Modules[idx-1], true
}

// ModuleByName looks up a loaded module's index by the name it was
// registered under.
func (s *Store) ModuleByName(name string) (ModuleIndex, bool) {
	idx, ok := s.modulesByName[name]
	return idx, ok
}

// Func resolves a local function address to its instance and store-global
// exec address.
func (s *Store) Func(addr FuncAddr) (*FunctionInstance, int, error) {
	mi, ok := s.Module(addr.Module)
	if !ok || int(addr.Index) >= len(mi.FuncAddrs) {
		return nil, 0, TrapUndefined(addr.Index)
	}
	execAddr := mi.FuncAddrs[addr.Index]
	return s.Functions[execAddr], execAddr, nil
}

// FuncAtExecAddr fetches a function instance directly by store-global
// index, used by the executor's program counter which caches exec
// addresses to avoid re-resolving a FuncAddr on every step.
func (s *Store) FuncAtExecAddr(execAddr int) *FunctionInstance {
	return s.Functions[execAddr]
}

// Table resolves a local table address to its instance.
func (s *Store) Table(addr TableAddr) (*TableInstance, error) {
	mi, ok := s.Module(addr.Module)
	if !ok || int(addr.Index) >= len(mi.TableAddrs) {
		return nil, TrapUndefined(addr.Index)
	}
	return s.Tables[mi.TableAddrs[addr.Index]], nil
}

// Memory resolves a local memory address to its instance.
func (s *Store) Memory(addr MemoryAddr) (*MemoryInstance, error) {
	mi, ok := s.Module(addr.Module)
	if !ok || int(addr.Index) >= len(mi.MemoryAddrs) {
		return nil, TrapUndefined(addr.Index)
	}
	return s.Memories[mi.MemoryAddrs[addr.Index]], nil
}

// Global resolves a local global address to its instance.
func (s *Store) Global(addr GlobalAddr) (*GlobalInstance, error) {
	mi, ok := s.Module(addr.Module)
	if !ok || int(addr.Index) >= len(mi.GlobalAddrs) {
		return nil, TrapUndefined(addr.Index)
	}
	return s.Globals[mi.GlobalAddrs[addr.Index]], nil
}

// ExportedFunc resolves a module name and export name pair to a FuncAddr,
// the entry point used to start running a function from outside the
// executor (spec §6, simple invocation).
func (s *Store) ExportedFunc(moduleName, funcName string) (FuncAddr, error) {
	idx, ok := s.ModuleByName(moduleName)
	if !ok {
		return FuncAddr{}, ErrEntryFunctionNotFound(moduleName + "." + funcName)
	}
	mi, _ := s.Module(idx)
	addr, ok := mi.ExportedFuncAddr(funcName)
	if !ok {
		return FuncAddr{}, ErrEntryFunctionNotFound(moduleName + "." + funcName)
	}
	return addr, nil
}

// argTypesMatch reports whether args' value types match params exactly
// (spec §4.3, supplemented from the ground-truth executor's
// simple_invoke_func). Neither Run nor the executor calls it;
// Executor.invoke performs its own drain-then-trap comparison.
func argTypesMatch(args []Value, params []api.ValueType) bool {
	if len(args) != len(params) {
		return false
	}
	for i, p := range params {
		if args[i].Type != p {
			return false
		}
	}
	return true
}
