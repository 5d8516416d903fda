package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableInitializeAndGet(t *testing.T) {
	tbl := NewTableInstance(4, nil)
	require.NoError(t, tbl.Initialize(1, []FuncAddr{{Module: 1, Index: 2}, {Module: 1, Index: 3}}))

	addr, err := tbl.GetAt(1)
	require.NoError(t, err)
	require.Equal(t, FuncAddr{Module: 1, Index: 2}, addr)

	_, err = tbl.GetAt(0)
	require.Error(t, err)
	var trap *Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, TrapTableUninitialized, trap.Kind)
}

func TestTableGetAtOutOfBounds(t *testing.T) {
	tbl := NewTableInstance(2, nil)
	_, err := tbl.GetAt(5)
	require.Error(t, err)
	var trap *Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, TrapTableOutOfBounds, trap.Kind)
}

func TestTableInitializeOutOfBounds(t *testing.T) {
	tbl := NewTableInstance(2, nil)
	err := tbl.Initialize(1, []FuncAddr{{Index: 0}, {Index: 1}})
	require.Error(t, err)
}
