package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalGetSet(t *testing.T) {
	g := NewGlobalInstance(I32(10), true)
	require.Equal(t, I32(10), g.Get())
	g.Set(I32(20))
	require.Equal(t, I32(20), g.Get())
	require.True(t, g.Mutable)
}

func TestGlobalImmutable(t *testing.T) {
	g := NewGlobalInstance(F64(1.5), false)
	require.False(t, g.Mutable)
	require.Equal(t, 1.5, g.Get().F64())
}
