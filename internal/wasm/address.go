package wasm

// ModuleIndex is an opaque, nonzero identifier assigned by the Store when a
// module is loaded. Zero is never issued and marks an unresolved address.
type ModuleIndex uint32

// FuncAddr identifies a function by its position in a module's local index
// space. Resolving it through the Store yields the global store slot (the
// "exec address") of the FunctionInstance it refers to, walking the
// module's import/own split if the local index is an import.
type FuncAddr struct {
	Module ModuleIndex
	Index  uint32
}

// TableAddr identifies a table by its position in a module's local index
// space, analogous to FuncAddr.
type TableAddr struct {
	Module ModuleIndex
	Index  uint32
}

// MemoryAddr identifies a memory by its position in a module's local index
// space, analogous to FuncAddr.
type MemoryAddr struct {
	Module ModuleIndex
	Index  uint32
}

// GlobalAddr identifies a global by its position in a module's local index
// space, analogous to FuncAddr.
type GlobalAddr struct {
	Module ModuleIndex
	Index  uint32
}
