package wasm

// TableInstance is a resizable vector of optional function addresses.
// Created empty (every slot nil); populated by element segments during
// instantiation via Initialize.
type TableInstance struct {
	Elements []*FuncAddr
	Max      *uint32
}

// NewTableInstance allocates a table of the given initial length, every
// slot uninitialized, optionally capped at max.
func NewTableInstance(initial uint32, max *uint32) *TableInstance {
	return &TableInstance{Elements: make([]*FuncAddr, initial), Max: max}
}

// Len returns the current number of slots in the table.
func (t *TableInstance) Len() int { return len(t.Elements) }

// Initialize writes data into the table starting at offset, as done by an
// element segment during module instantiation.
func (t *TableInstance) Initialize(offset int, data []FuncAddr) error {
	end := offset + len(data)
	if end > len(t.Elements) {
		return TrapTableOOB(end, len(t.Elements))
	}
	for i, addr := range data {
		a := addr
		t.Elements[offset+i] = &a
	}
	return nil
}

// GetAt returns the function address stored at index, trapping
// TrapTableUninitialized if the slot was never initialized or
// TrapTableOutOfBounds if index is beyond the table's length.
func (t *TableInstance) GetAt(index int) (FuncAddr, error) {
	if index < 0 || index >= len(t.Elements) {
		return FuncAddr{}, TrapTableOOB(index, len(t.Elements))
	}
	addr := t.Elements[index]
	if addr == nil {
		return FuncAddr{}, TrapTableUninit(index)
	}
	return *addr, nil
}
