package interpreter

import (
	"math"
	"math/bits"

	"github.com/ggreif/wasminspect/internal/wasm"
)

func leadingZeros32(v uint32) int  { return bits.LeadingZeros32(v) }
func trailingZeros32(v uint32) int { return bits.TrailingZeros32(v) }
func popcount32(v uint32) int      { return bits.OnesCount32(v) }
func leadingZeros64(v uint64) int  { return bits.LeadingZeros64(v) }
func trailingZeros64(v uint64) int { return bits.TrailingZeros64(v) }
func popcount64(v uint64) int      { return bits.OnesCount64(v) }

func rotl32(a, b uint32) uint32 { return bits.RotateLeft32(a, int(b%32)) }
func rotr32(a, b uint32) uint32 { return bits.RotateLeft32(a, -int(b%32)) }
func rotl64(a, b uint64) uint64 { return bits.RotateLeft64(a, int(b%64)) }
func rotr64(a, b uint64) uint64 { return bits.RotateLeft64(a, -int(b%64)) }

func f32Abs(v float32) float32 { return math.Float32frombits(math.Float32bits(v) &^ (1 << 31)) }
func f64Abs(v float64) float64 { return math.Float64frombits(math.Float64bits(v) &^ (1 << 63)) }

func f32Ceil(v float32) float32     { return float32(math.Ceil(float64(v))) }
func f32Floor(v float32) float32    { return float32(math.Floor(float64(v))) }
func f32Trunc(v float32) float32    { return float32(math.Trunc(float64(v))) }
func f32Sqrt(v float32) float32     { return float32(math.Sqrt(float64(v))) }
func f32Copysign(a, b float32) float32 {
	return float32(math.Copysign(float64(a), float64(b)))
}

func f64Ceil(v float64) float64       { return math.Ceil(v) }
func f64Floor(v float64) float64      { return math.Floor(v) }
func f64Trunc(v float64) float64      { return math.Trunc(v) }
func f64Sqrt(v float64) float64       { return math.Sqrt(v) }
func f64Copysign(a, b float64) float64 { return math.Copysign(a, b) }

func (e *Executor) popI32() (int32, error) {
	v, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	return v.I32(), nil
}

func (e *Executor) popI64() (int64, error) {
	v, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	return v.I64(), nil
}

func (e *Executor) popF32() (float32, error) {
	v, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	return v.F32(), nil
}

func (e *Executor) popF64() (float64, error) {
	v, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	return v.F64(), nil
}

func (e *Executor) popF32Bits() (uint32, error) {
	v, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	return v.F32Bits(), nil
}

func (e *Executor) popF64Bits() (uint64, error) {
	v, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	return v.F64Bits(), nil
}

func (e *Executor) unop32(f func(int32) int32) (Signal, error) {
	v, err := e.popI32()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.I32(f(v)))
	return SignalNext, nil
}

func (e *Executor) unop64(f func(int64) int64) (Signal, error) {
	v, err := e.popI64()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.I64(f(v)))
	return SignalNext, nil
}

func (e *Executor) unopF32(f func(float32) float32) (Signal, error) {
	v, err := e.popF32()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.F32(f(v)))
	return SignalNext, nil
}

func (e *Executor) unopF64(f func(float64) float64) (Signal, error) {
	v, err := e.popF64()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.F64(f(v)))
	return SignalNext, nil
}

func (e *Executor) binop32(f func(a, b int32) int32) (Signal, error) {
	b, err := e.popI32()
	if err != nil {
		return 0, err
	}
	a, err := e.popI32()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.I32(f(a, b)))
	return SignalNext, nil
}

func (e *Executor) binopU32(f func(a, b uint32) uint32) (Signal, error) {
	b, err := e.popI32()
	if err != nil {
		return 0, err
	}
	a, err := e.popI32()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.U32(f(uint32(a), uint32(b))))
	return SignalNext, nil
}

func (e *Executor) binop64(f func(a, b int64) int64) (Signal, error) {
	b, err := e.popI64()
	if err != nil {
		return 0, err
	}
	a, err := e.popI64()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.I64(f(a, b)))
	return SignalNext, nil
}

func (e *Executor) binopU64(f func(a, b uint64) uint64) (Signal, error) {
	b, err := e.popI64()
	if err != nil {
		return 0, err
	}
	a, err := e.popI64()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.U64(f(uint64(a), uint64(b))))
	return SignalNext, nil
}

func (e *Executor) binopF32(f func(a, b float32) float32) (Signal, error) {
	b, err := e.popF32()
	if err != nil {
		return 0, err
	}
	a, err := e.popF32()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.F32(f(a, b)))
	return SignalNext, nil
}

func (e *Executor) binopF64(f func(a, b float64) float64) (Signal, error) {
	b, err := e.popF64()
	if err != nil {
		return 0, err
	}
	a, err := e.popF64()
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.F64(f(a, b)))
	return SignalNext, nil
}

func (e *Executor) tryBinop32(f func(a, b int32) (int32, error)) (Signal, error) {
	b, err := e.popI32()
	if err != nil {
		return 0, err
	}
	a, err := e.popI32()
	if err != nil {
		return 0, err
	}
	r, err := f(a, b)
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.I32(r))
	return SignalNext, nil
}

func (e *Executor) tryBinopU32(f func(a, b uint32) (uint32, error)) (Signal, error) {
	b, err := e.popI32()
	if err != nil {
		return 0, err
	}
	a, err := e.popI32()
	if err != nil {
		return 0, err
	}
	r, err := f(uint32(a), uint32(b))
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.U32(r))
	return SignalNext, nil
}

func (e *Executor) tryBinop64(f func(a, b int64) (int64, error)) (Signal, error) {
	b, err := e.popI64()
	if err != nil {
		return 0, err
	}
	a, err := e.popI64()
	if err != nil {
		return 0, err
	}
	r, err := f(a, b)
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.I64(r))
	return SignalNext, nil
}

func (e *Executor) tryBinopU64(f func(a, b uint64) (uint64, error)) (Signal, error) {
	b, err := e.popI64()
	if err != nil {
		return 0, err
	}
	a, err := e.popI64()
	if err != nil {
		return 0, err
	}
	r, err := f(uint64(a), uint64(b))
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(wasm.U64(r))
	return SignalNext, nil
}

func (e *Executor) testop32(f func(int32) bool) (Signal, error) {
	return e.unop32(func(v int32) int32 {
		if f(v) {
			return 1
		}
		return 0
	})
}

func (e *Executor) testop64(f func(int64) bool) (Signal, error) {
	v, err := e.popI64()
	if err != nil {
		return 0, err
	}
	r := int32(0)
	if f(v) {
		r = 1
	}
	e.Stack.PushValue(wasm.I32(r))
	return SignalNext, nil
}

func (e *Executor) relop32(f func(a, b int32) bool) (Signal, error) {
	return e.binop32(func(a, b int32) int32 {
		if f(a, b) {
			return 1
		}
		return 0
	})
}

func (e *Executor) relopU32(f func(a, b uint32) bool) (Signal, error) {
	return e.binopU32(func(a, b uint32) uint32 {
		if f(a, b) {
			return 1
		}
		return 0
	})
}

func (e *Executor) relop64(f func(a, b int64) bool) (Signal, error) {
	b, err := e.popI64()
	if err != nil {
		return 0, err
	}
	a, err := e.popI64()
	if err != nil {
		return 0, err
	}
	r := int32(0)
	if f(a, b) {
		r = 1
	}
	e.Stack.PushValue(wasm.I32(r))
	return SignalNext, nil
}

func (e *Executor) relopU64(f func(a, b uint64) bool) (Signal, error) {
	b, err := e.popI64()
	if err != nil {
		return 0, err
	}
	a, err := e.popI64()
	if err != nil {
		return 0, err
	}
	r := int32(0)
	if f(uint64(a), uint64(b)) {
		r = 1
	}
	e.Stack.PushValue(wasm.I32(r))
	return SignalNext, nil
}

func (e *Executor) relopF32(f func(a, b float32) bool) (Signal, error) {
	b, err := e.popF32()
	if err != nil {
		return 0, err
	}
	a, err := e.popF32()
	if err != nil {
		return 0, err
	}
	r := int32(0)
	if f(a, b) {
		r = 1
	}
	e.Stack.PushValue(wasm.I32(r))
	return SignalNext, nil
}

func (e *Executor) relopF64(f func(a, b float64) bool) (Signal, error) {
	b, err := e.popF64()
	if err != nil {
		return 0, err
	}
	a, err := e.popF64()
	if err != nil {
		return 0, err
	}
	r := int32(0)
	if f(a, b) {
		r = 1
	}
	e.Stack.PushValue(wasm.I32(r))
	return SignalNext, nil
}

func (e *Executor) truncF32ToI32(unsigned bool) (Signal, error) {
	v, err := e.popF32()
	if err != nil {
		return 0, err
	}
	return e.pushTruncated32(float64(v), unsigned)
}

func (e *Executor) truncF64ToI32(unsigned bool) (Signal, error) {
	v, err := e.popF64()
	if err != nil {
		return 0, err
	}
	return e.pushTruncated32(v, unsigned)
}

func (e *Executor) pushTruncated32(v float64, unsigned bool) (Signal, error) {
	if math.IsNaN(v) {
		return 0, wasm.TrapInvalidConversion()
	}
	t := math.Trunc(v)
	if unsigned {
		if t < 0 || t > math.MaxUint32 {
			return 0, wasm.TrapInvalidConversion()
		}
		e.Stack.PushValue(wasm.U32(uint32(t)))
	} else {
		if t < math.MinInt32 || t > math.MaxInt32 {
			return 0, wasm.TrapInvalidConversion()
		}
		e.Stack.PushValue(wasm.I32(int32(t)))
	}
	return SignalNext, nil
}

func (e *Executor) truncF32ToI64(unsigned bool) (Signal, error) {
	v, err := e.popF32()
	if err != nil {
		return 0, err
	}
	return e.pushTruncated64(float64(v), unsigned)
}

func (e *Executor) truncF64ToI64(unsigned bool) (Signal, error) {
	v, err := e.popF64()
	if err != nil {
		return 0, err
	}
	return e.pushTruncated64(v, unsigned)
}

func (e *Executor) pushTruncated64(v float64, unsigned bool) (Signal, error) {
	if math.IsNaN(v) {
		return 0, wasm.TrapInvalidConversion()
	}
	t := math.Trunc(v)
	if unsigned {
		if t < 0 || t >= math.MaxUint64 {
			return 0, wasm.TrapInvalidConversion()
		}
		e.Stack.PushValue(wasm.U64(uint64(t)))
	} else {
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, wasm.TrapInvalidConversion()
		}
		e.Stack.PushValue(wasm.I64(int64(t)))
	}
	return SignalNext, nil
}

func (e *Executor) load32(inst *wasm.Instruction, store *wasm.Store, f func(*wasm.MemoryInstance, int) (wasm.Value, error)) (Signal, error) {
	base, err := e.popI32()
	if err != nil {
		return 0, err
	}
	mem, err := e.memory(store)
	if err != nil {
		return 0, err
	}
	v, err := f(mem, int(base)+int(inst.MemArg.Offset))
	if err != nil {
		return 0, err
	}
	e.Stack.PushValue(v)
	return SignalNext, nil
}

func (e *Executor) load64(inst *wasm.Instruction, store *wasm.Store, f func(*wasm.MemoryInstance, int) (wasm.Value, error)) (Signal, error) {
	return e.load32(inst, store, f)
}

func (e *Executor) store(inst *wasm.Instruction, store *wasm.Store, f func(*wasm.MemoryInstance, int, wasm.Value) error) (Signal, error) {
	val, err := e.Stack.PopValue()
	if err != nil {
		return 0, err
	}
	base, err := e.popI32()
	if err != nil {
		return 0, err
	}
	mem, err := e.memory(store)
	if err != nil {
		return 0, err
	}
	if err := f(mem, int(base)+int(inst.MemArg.Offset), val); err != nil {
		return 0, err
	}
	return SignalNext, nil
}
