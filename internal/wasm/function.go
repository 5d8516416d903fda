package wasm

import "github.com/ggreif/wasminspect/api"

// HostFunc is the callback signature a host module's function instance
// invokes. It appends its return values to results; any error aborts the
// executor's call with a wrapped WasmError.HostExecutionError.
type HostFunc func(args []Value, results *[]Value, store *Store, caller ModuleIndex) error

// DefinedFunction is a function whose body lives in a module's own code
// section.
type DefinedFunction struct {
	Module       ModuleIndex
	Name         string
	Type         *FunctionType
	LocalTypes   []api.ValueType // declared locals beyond the parameters
	Instructions []Instruction
}

// HostFunction is a function whose body is a native Go callback supplied
// by the embedder.
type HostFunction struct {
	Name string
	Type *FunctionType
	Body HostFunc
}

// FunctionInstance is either a DefinedFunction or a HostFunction. Exactly
// one of the two fields is non-nil.
type FunctionInstance struct {
	Defined *DefinedFunction
	Host    *HostFunction
}

// FuncType returns the instance's signature regardless of variant.
func (f *FunctionInstance) FuncType() *FunctionType {
	if f.Defined != nil {
		return f.Defined.Type
	}
	return f.Host.Type
}

// FuncName returns the instance's name regardless of variant, used in
// trap messages.
func (f *FunctionInstance) FuncName() string {
	if f.Defined != nil {
		return f.Defined.Name
	}
	return f.Host.Name
}

// ModuleOf returns the owning module's index, or 0 for a host function
// (host functions aren't addressed relative to a module index; callers
// resolve them directly by store-global index).
func (f *FunctionInstance) ModuleOf() ModuleIndex {
	if f.Defined != nil {
		return f.Defined.Module
	}
	return 0
}
