package wasm

// ModuleInstance maps a module's local index spaces (func/table/mem/global)
// to store-global exec addresses, plus its export table, optional start
// function, and type table. The same struct represents both a defined
// module and a host module: a host module simply has no imports, so every
// entry in its index spaces is "own".
type ModuleInstance struct {
	Name string
	Host bool

	// SelfIndex is this module's own ModuleIndex, filled in by the Store at
	// registration time so exported addresses can name their owner.
	SelfIndex ModuleIndex

	// FuncAddrs[i] is the store-global index (Store.Functions) that local
	// function index i resolves to, imports first. Likewise for the other
	// three index spaces.
	FuncAddrs   []int
	TableAddrs  []int
	MemoryAddrs []int
	GlobalAddrs []int

	Types   []*FunctionType
	Exports map[string]Export

	// ImportedGlobalCount bounds which globals a defined global's
	// initializer may reference via global.get: only imported globals,
	// never another locally declared one (spec §4.5).
	ImportedGlobalCount int

	Start *uint32 // local function index, nil if none
}

func newModuleInstance(name string, host bool) *ModuleInstance {
	return &ModuleInstance{Name: name, Host: host, Exports: map[string]Export{}}
}

// ExportedFuncAddr resolves an exported name to a FuncAddr in this module's
// own local index space.
func (m *ModuleInstance) ExportedFuncAddr(name string) (FuncAddr, bool) {
	e, ok := m.Exports[name]
	if !ok || e.Kind != ExportKindFunc {
		return FuncAddr{}, false
	}
	return FuncAddr{Module: m.SelfIndex, Index: e.Index}, true
}
