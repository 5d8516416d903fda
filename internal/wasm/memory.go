package wasm

import (
	"github.com/ggreif/wasminspect/internal/u32"
	"github.com/ggreif/wasminspect/internal/u64"
)

// PageSize is the size in bytes of one unit of linear memory growth.
const PageSize = 65536

// MemoryInstance is a page-granular byte buffer. len(Data) is always a
// multiple of PageSize, and MinPages <= current pages <= MaxPages (if set).
type MemoryInstance struct {
	Data     []byte
	MinPages uint32
	MaxPages *uint32 // nil means unbounded (up to the implementation limit)
}

// NewMemoryInstance allocates a zeroed memory of min pages, capped at max
// if given.
func NewMemoryInstance(min uint32, max *uint32) *MemoryInstance {
	return &MemoryInstance{
		Data:     make([]byte, int(min)*PageSize),
		MinPages: min,
		MaxPages: max,
	}
}

// PageCount returns the current size of the memory in pages.
func (m *MemoryInstance) PageCount() uint32 {
	return uint32(len(m.Data) / PageSize)
}

// Grow attempts to add delta pages. On success it returns the page count
// before growth; on failure (would exceed MaxPages) it returns -1 and
// leaves the memory unchanged. There is no partial growth.
func (m *MemoryInstance) Grow(delta uint32) int32 {
	before := m.PageCount()
	after := before + delta
	if m.MaxPages != nil && after > *m.MaxPages {
		return -1
	}
	// Guard against uint32 wraparound turning a too-large request into a
	// plausible-looking one.
	if after < before {
		return -1
	}
	m.Data = append(m.Data, make([]byte, int(delta)*PageSize)...)
	return int32(before)
}

func (m *MemoryInstance) checkBounds(effective, size int) error {
	if effective < 0 || effective+size > len(m.Data) {
		return TrapMemoryOOB(effective, size, len(m.Data))
	}
	return nil
}

// Store writes buf at the given effective address, trapping if it would
// run past the end of memory.
func (m *MemoryInstance) Store(effective int, buf []byte) error {
	if err := m.checkBounds(effective, len(buf)); err != nil {
		return err
	}
	copy(m.Data[effective:], buf)
	return nil
}

// LoadBytes reads size bytes at the given effective address, trapping if
// it would run past the end of memory.
func (m *MemoryInstance) LoadBytes(effective, size int) ([]byte, error) {
	if err := m.checkBounds(effective, size); err != nil {
		return nil, err
	}
	return m.Data[effective : effective+size], nil
}

// LoadI32 reads a plain little-endian i32 at effective.
func (m *MemoryInstance) LoadI32(effective int) (int32, error) {
	b, err := m.LoadBytes(effective, 4)
	if err != nil {
		return 0, err
	}
	return int32(u32.Uint32(b)), nil
}

// LoadI64 reads a plain little-endian i64 at effective.
func (m *MemoryInstance) LoadI64(effective int) (int64, error) {
	b, err := m.LoadBytes(effective, 8)
	if err != nil {
		return 0, err
	}
	return int64(u64.Uint64(b)), nil
}

// LoadU32 reads a plain little-endian u32 at effective, for i64.load32_u.
func (m *MemoryInstance) LoadU32(effective int) (uint32, error) {
	return m.LoadF32Bits(effective)
}

// LoadF32Bits reads the raw 32-bit pattern of an f32 at effective.
func (m *MemoryInstance) LoadF32Bits(effective int) (uint32, error) {
	b, err := m.LoadBytes(effective, 4)
	if err != nil {
		return 0, err
	}
	return u32.Uint32(b), nil
}

// LoadF64Bits reads the raw 64-bit pattern of an f64 at effective.
func (m *MemoryInstance) LoadF64Bits(effective int) (uint64, error) {
	b, err := m.LoadBytes(effective, 8)
	if err != nil {
		return 0, err
	}
	return u64.Uint64(b), nil
}

// LoadI8 reads a single signed byte, for sign-extending narrow loads.
func (m *MemoryInstance) LoadI8(effective int) (int8, error) {
	b, err := m.LoadBytes(effective, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// LoadU8 reads a single unsigned byte, for zero-extending narrow loads.
func (m *MemoryInstance) LoadU8(effective int) (uint8, error) {
	b, err := m.LoadBytes(effective, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// LoadI16 reads a signed little-endian 16-bit value.
func (m *MemoryInstance) LoadI16(effective int) (int16, error) {
	b, err := m.LoadBytes(effective, 2)
	if err != nil {
		return 0, err
	}
	return int16(uint16(b[0]) | uint16(b[1])<<8), nil
}

// LoadU16 reads an unsigned little-endian 16-bit value.
func (m *MemoryInstance) LoadU16(effective int) (uint16, error) {
	b, err := m.LoadBytes(effective, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// StoreI32 writes v as 4 little-endian bytes.
func (m *MemoryInstance) StoreI32(effective int, v int32) error {
	return m.Store(effective, u32.LeBytes(uint32(v)))
}

// StoreI64 writes v as 8 little-endian bytes.
func (m *MemoryInstance) StoreI64(effective int, v int64) error {
	return m.Store(effective, u64.LeBytes(uint64(v)))
}

// StoreI32Narrow writes the low width bytes of v, for i32.store8/16.
func (m *MemoryInstance) StoreI32Narrow(effective int, v int32, width int) error {
	return m.Store(effective, u32.LeBytes(uint32(v))[:width])
}

// StoreI64Narrow writes the low width bytes of v, for i64.store8/16/32.
func (m *MemoryInstance) StoreI64Narrow(effective int, v int64, width int) error {
	return m.Store(effective, u64.LeBytes(uint64(v))[:width])
}
