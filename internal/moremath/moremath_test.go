package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatMin(t *testing.T) {
	require.Equal(t, WasmCompatMin(-1.1, 123), -1.1)
	require.Equal(t, WasmCompatMin(-1.1, math.Inf(1)), -1.1)
	require.Equal(t, WasmCompatMin(math.Inf(-1), 123), math.Inf(-1))

	// NaN cannot be compared with themselves, so we have to use IsNaN.
	require.True(t, math.IsNaN(WasmCompatMin(math.NaN(), 1.0)))
	require.True(t, math.IsNaN(WasmCompatMin(1.0, math.NaN())))
	require.True(t, math.IsNaN(WasmCompatMin(math.Inf(-1), math.NaN())))
	require.True(t, math.IsNaN(WasmCompatMin(math.Inf(1), math.NaN())))
	require.True(t, math.IsNaN(WasmCompatMin(math.NaN(), math.NaN())))
}

func TestWasmCompatMax(t *testing.T) {
	require.Equal(t, WasmCompatMax(-1.1, 123.1), 123.1)
	require.Equal(t, WasmCompatMax(-1.1, math.Inf(1)), math.Inf(1))
	require.Equal(t, WasmCompatMax(math.Inf(-1), 123.1), 123.1)

	require.True(t, math.IsNaN(WasmCompatMax(math.NaN(), 1.0)))
	require.True(t, math.IsNaN(WasmCompatMax(1.0, math.NaN())))
	require.True(t, math.IsNaN(WasmCompatMax(math.Inf(-1), math.NaN())))
	require.True(t, math.IsNaN(WasmCompatMax(math.Inf(1), math.NaN())))
	require.True(t, math.IsNaN(WasmCompatMax(math.NaN(), math.NaN())))
}

func TestWasmCompatMinF32MaxF32(t *testing.T) {
	require.True(t, math.IsNaN(float64(WasmCompatMinF32(float32(math.NaN()), 1))))
	require.True(t, math.IsNaN(float64(WasmCompatMaxF32(1, float32(math.NaN())))))
	require.Equal(t, float32(-1.5), WasmCompatMinF32(-1.5, 2))
	require.Equal(t, float32(2), WasmCompatMaxF32(-1.5, 2))
}

func TestWasmCompatNearestF32(t *testing.T) {
	require.Equal(t, float32(-2.0), WasmCompatNearestF32(-1.5))
	// Ties round to even, not away from zero like math.Round.
	require.Equal(t, float32(-4.0), WasmCompatNearestF32(-4.5))
	require.Equal(t, float32(4.0), WasmCompatNearestF32(4.5))
	require.Equal(t, float32(2.0), WasmCompatNearestF32(2.0))
	require.True(t, math.IsNaN(float64(WasmCompatNearestF32(float32(math.NaN())))))
}

func TestWasmCompatNearestF64(t *testing.T) {
	require.Equal(t, -4.0, WasmCompatNearestF64(-4.5))
	require.Equal(t, 4.0, WasmCompatNearestF64(4.5))
	require.Equal(t, 0.0, WasmCompatNearestF64(0))
	require.True(t, math.IsInf(WasmCompatNearestF64(math.Inf(1)), 1))
}
