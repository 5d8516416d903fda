// Package moremath supplies floating-point helpers whose semantics differ
// from the Go standard library just enough to matter for WebAssembly:
// NaN propagation in min/max and round-half-to-even in nearest.
package moremath

import "math"

// WasmCompatMin is math.Min, except either operand being NaN returns NaN
// even when the other is an infinity.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax is math.Max, except either operand being NaN returns NaN
// even when the other is an infinity.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatMinF32 is the float32 counterpart of WasmCompatMin.
func WasmCompatMinF32(x, y float32) float32 {
	return float32(WasmCompatMin(float64(x), float64(y)))
}

// WasmCompatMaxF32 is the float32 counterpart of WasmCompatMax.
func WasmCompatMaxF32(x, y float32) float32 {
	return float32(WasmCompatMax(float64(x), float64(y)))
}

// WasmCompatNearestF32 rounds to the nearest integral value, ties to even,
// which is f32.nearest's definition and differs from math.Round (ties away
// from zero).
func WasmCompatNearestF32(f float32) float32 {
	return float32(wasmCompatNearest(float64(f)))
}

// WasmCompatNearestF64 is the float64 version of WasmCompatNearestF32.
func WasmCompatNearestF64(f float64) float64 {
	return wasmCompatNearest(f)
}

func wasmCompatNearest(f float64) float64 {
	// math.Round doesn't match wasm's tie-breaking rule: wasm rounds .5 to
	// the nearest even integer, math.Round always rounds away from zero.
	if math.IsNaN(f) || math.IsInf(f, 0) || f == math.Trunc(f) {
		return f
	}
	floor, ceil := math.Floor(f), math.Ceil(f)
	distToFloor, distToCeil := f-floor, ceil-f
	switch {
	case distToFloor < distToCeil:
		return floor
	case distToCeil < distToFloor:
		return ceil
	case math.Mod(floor, 2) == 0:
		return floor
	default:
		return ceil
	}
}
