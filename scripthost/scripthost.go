package scripthost

import (
	"context"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// Func is a resolved script function. Arguments and the result cross
// the boundary as i64 values.
type Func func(ctx context.Context, args ...int64) (int64, error)

// FuncSource resolves function references ("pkg.func") from handler
// properties to callable functions. The dispatcher invokes resolved
// functions when the referenced event fires.
type FuncSource interface {
	Resolve(ref string) (Func, error)
	Close(ctx context.Context) error
}

// WasmHost resolves function references against the exports of a
// WebAssembly module.
type WasmHost struct {
	runtime wazero.Runtime
	module  api.Module
}

var _ FuncSource = (*WasmHost)(nil)

// NewWasmHost compiles and instantiates a core wasm module. Handler
// references resolve against the module's exported functions.
func NewWasmHost(ctx context.Context, wasmBytes []byte) (*WasmHost, error) {
	r := wazero.NewRuntime(ctx)
	mod, err := r.Instantiate(ctx, wasmBytes)
	if err != nil {
		r.Close(ctx)
		return nil, errors.Load("instantiate script module", err)
	}
	return &WasmHost{runtime: r, module: mod}, nil
}

// Resolve looks up ref among the module's exports. The full reference
// is tried first, then the bare function name after the last dot, so
// "app.double" matches either an "app.double" or a "double" export.
func (h *WasmHost) Resolve(ref string) (Func, error) {
	fn := h.module.ExportedFunction(ref)
	if fn == nil {
		if dot := strings.LastIndexByte(ref, '.'); dot >= 0 {
			fn = h.module.ExportedFunction(ref[dot+1:])
		}
	}
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseScript, "function", ref)
	}

	return func(ctx context.Context, args ...int64) (int64, error) {
		params := make([]uint64, len(args))
		for i, a := range args {
			params[i] = api.EncodeI64(a)
		}
		results, err := fn.Call(ctx, params...)
		if err != nil {
			return 0, errors.Wrap(errors.PhaseScript, errors.KindInvalidData, err, "call "+ref)
		}
		if len(results) == 0 {
			return 0, nil
		}
		return int64(results[0]), nil
	}, nil
}

// Close releases the wasm runtime and its instances.
func (h *WasmHost) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// StaticSource is a FuncSource backed by a plain map, for programmatic
// handlers and tests.
type StaticSource map[string]Func

var _ FuncSource = StaticSource(nil)

func (s StaticSource) Resolve(ref string) (Func, error) {
	fn, ok := s[ref]
	if !ok {
		return nil, errors.NotFound(errors.PhaseScript, "function", ref)
	}
	return fn, nil
}

func (s StaticSource) Close(context.Context) error {
	return nil
}
