package interpreter

import "github.com/ggreif/wasminspect/internal/wasm"

// Run invokes the function at addr to completion, driving a fresh Executor
// with NopInterceptor and returning its result values once the call stack
// fully unwinds. This is the entry point an embedder uses to call an
// exported function directly, as opposed to single-stepping through a
// debugger (spec §6, grounded on the ground-truth executor's
// simple_invoke_func).
func Run(store *wasm.Store, addr wasm.FuncAddr, args []wasm.Value) ([]wasm.Value, error) {
	fn, execAddr, err := store.Func(addr)
	if err != nil {
		return nil, err
	}

	if fn.Host != nil {
		var results []wasm.Value
		if err := fn.Host.Body(args, &results, store, addr.Module); err != nil {
			return nil, wasm.ErrHostExecution(err)
		}
		return results, nil
	}

	locals := make([]wasm.Value, len(args)+len(fn.Defined.LocalTypes))
	copy(locals, args)
	for i, t := range fn.Defined.LocalTypes {
		locals[len(args)+i] = zeroValue(t)
	}
	frame := wasm.CallFrame{
		FuncExecAddr: execAddr,
		Module:       fn.Defined.Module,
		Locals:       locals,
		RetPC:        nil,
	}
	pc := wasm.ProgramCounter{ExecAddr: execAddr, InstIndex: 0}
	executor := NewExecutor(frame, pc)
	interceptor := NopInterceptor{}

	resultTypes := fn.FuncType().Results
	for {
		signal, err := executor.Step(store, interceptor)
		if err != nil {
			return nil, err
		}
		switch signal {
		case SignalNext, SignalBreakpoint:
			continue
		case SignalEnd:
			results := make([]wasm.Value, len(resultTypes))
			for i := len(resultTypes) - 1; i >= 0; i-- {
				v, err := executor.Stack.PopValue()
				if err != nil {
					return nil, wasm.ErrReturnValue(err)
				}
				results[i] = v
			}
			return results, nil
		}
	}
}
