package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLoadRoundTrip(t *testing.T) {
	mem := NewMemoryInstance(1, nil)
	require.NoError(t, mem.StoreI32(0, -123))
	v, err := mem.LoadI32(0)
	require.NoError(t, err)
	require.Equal(t, int32(-123), v)

	require.NoError(t, mem.StoreI64(8, 1<<40))
	v64, err := mem.LoadI64(8)
	require.NoError(t, err)
	require.Equal(t, int64(1<<40), v64)
}

func TestMemoryNarrowStore(t *testing.T) {
	mem := NewMemoryInstance(1, nil)
	require.NoError(t, mem.StoreI32Narrow(0, 0x1234, 1))
	b, err := mem.LoadU8(0)
	require.NoError(t, err)
	require.Equal(t, uint8(0x34), b)
}

func TestMemoryOutOfBoundsAtPageBoundary(t *testing.T) {
	mem := NewMemoryInstance(1, nil)
	// one page is 65536 bytes; an i32 store at 65533 reaches byte 65537.
	err := mem.StoreI32(65533, 1)
	require.Error(t, err)
	var trap *Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, TrapMemoryOutOfBounds, trap.Kind)
}

func TestMemoryGrow(t *testing.T) {
	max := uint32(2)
	mem := NewMemoryInstance(1, &max)
	require.Equal(t, int32(1), mem.Grow(1))
	require.Equal(t, uint32(2), mem.PageCount())
	require.Equal(t, int32(-1), mem.Grow(1))
	require.Equal(t, uint32(2), mem.PageCount())
}

func TestMemoryGrowUnbounded(t *testing.T) {
	mem := NewMemoryInstance(0, nil)
	require.Equal(t, int32(0), mem.Grow(3))
	require.Equal(t, uint32(3), mem.PageCount())
}
