package wasm

import "github.com/ggreif/wasminspect/api"

// Module is the fully decoded input the core consumes. Producing one from
// a .wasm binary is the decoder's job (spec §1 Non-goals); the core only
// ever reads this structure.
type Module struct {
	TypeSection     []*FunctionType
	ImportSection   []*Import
	FunctionSection []uint32 // type index per defined function, imports excluded
	TableSection    []*TableType
	MemorySection   []*MemoryType
	GlobalSection   []*GlobalDecl
	ExportSection   map[string]*Export
	StartFunction   *uint32 // local function index, imports included
	ElementSegments []*ElementSegment
	CodeSection     []*Code
	DataSegments    []*DataSegment
}

// ImportKind classifies what an Import resolves to.
type ImportKind int

const (
	ImportKindFunc ImportKind = iota
	ImportKindTable
	ImportKindMemory
	ImportKindGlobal
)

// Import names an external dependency along with the type it must satisfy.
type Import struct {
	Module, Name string
	Kind         ImportKind
	FuncType     *FunctionType // ImportKindFunc
	TableType    *TableType    // ImportKindTable
	MemoryType   *MemoryType   // ImportKindMemory
	GlobalType   *GlobalType   // ImportKindGlobal
}

// TableType declares a table's size bounds.
type TableType struct {
	Min uint32
	Max *uint32
}

// MemoryType declares a memory's size bounds, in pages.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// GlobalType declares a global's value type and mutability.
type GlobalType struct {
	ValueType api.ValueType
	Mutable   bool
}

// GlobalDecl is a defined (non-imported) global: its type plus the
// constant expression that produces its initial value.
type GlobalDecl struct {
	Type *GlobalType
	Init *Instruction
}

// ExportKind classifies what an Export refers to.
type ExportKind int

const (
	ExportKindFunc ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
)

// Export names a local index space entry as visible to other modules.
type Export struct {
	Kind  ExportKind
	Index uint32
}

// ElementSegment initializes a region of a table with function indices,
// at instantiation time.
type ElementSegment struct {
	TableIndex uint32
	Offset     *Instruction // constant expression
	Init       []uint32     // local function indices
}

// DataSegment initializes a region of a memory with bytes, at
// instantiation time.
type DataSegment struct {
	MemoryIndex uint32
	Offset      *Instruction // constant expression
	Init        []byte
}

// Code is a defined function's body: its additional local types (beyond
// parameters, which come from its FunctionType) and instruction stream.
type Code struct {
	LocalTypes   []api.ValueType
	Instructions []Instruction
}
