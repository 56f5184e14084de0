// Package wasmhandler runs action handlers compiled to WebAssembly.
//
// A handler is one exported function taking an i64 per action parameter and
// returning an i32 status, where zero means success. Names are passed as
// their 64-bit value, booleans as 0 or 1. Strings and byte slices cannot be
// passed. The module may import env.print(ptr, len i32) to write a slice of
// its memory to the action console.
package wasmhandler

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/registry"
)

// Handler is one instantiated module and the export that runs the action.
type Handler struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
	fn      api.Function
	export  string

	mu      sync.Mutex // a module instance runs one call at a time
	current registry.ActionContext
}

// New compiles and instantiates wasm and looks up export.
func New(ctx context.Context, wasm []byte, export string) (*Handler, error) {
	h := &Handler{ctx: ctx, export: export}
	r := wazero.NewRuntime(ctx)

	fail := func(err error) (*Handler, error) {
		r.Close(ctx)
		return nil, err
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return fail(fmt.Errorf("failed to instantiate wasi: %w", err))
	}

	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			data, ok := m.Memory().Read(ptr, length)
			if !ok || h.current == nil {
				return
			}
			h.current.Print(string(data))
		}).
		Export("print").
		Instantiate(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to instantiate env module: %w", err))
	}

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return fail(fmt.Errorf("failed to compile module: %w", err))
	}

	config := wazero.NewModuleConfig().WithStartFunctions("_initialize")
	module, err := r.InstantiateModule(ctx, compiled, config)
	if err != nil {
		return fail(fmt.Errorf("failed to instantiate module: %w", err))
	}

	fn := module.ExportedFunction(export)
	if fn == nil {
		return fail(fmt.Errorf("module does not export %q", export))
	}
	def := fn.Definition()
	if results := def.ResultTypes(); len(results) != 1 || results[0] != api.ValueTypeI32 {
		return fail(fmt.Errorf("export %q must return a single i32 status", export))
	}
	for i, t := range def.ParamTypes() {
		if t != api.ValueTypeI64 {
			return fail(fmt.Errorf("export %q parameter %d must be i64, got %s", export, i, api.ValueTypeName(t)))
		}
	}

	h.runtime = r
	h.module = module
	h.fn = fn
	return h, nil
}

// Bind returns a registry.Handler for an action with the given schema.
func (h *Handler) Bind(params []codec.Param) (registry.Handler, error) {
	if want := len(h.fn.Definition().ParamTypes()); want != len(params) {
		return nil, fmt.Errorf("%w: export %q takes %d parameters, schema has %d", core.ErrInvalidSchema, h.export, want, len(params))
	}
	for _, p := range params {
		if p.Type == codec.TypeString || p.Type == codec.TypeBytes {
			return nil, fmt.Errorf("%w: parameter %q of type %s cannot be passed to wasm", core.ErrInvalidSchema, p.Name, p.Type)
		}
	}
	return h.call, nil
}

func (h *Handler) call(ctx registry.ActionContext, args registry.Args) (any, error) {
	stack := make([]uint64, len(args))
	for i, arg := range args {
		v, err := toI64(arg)
		if err != nil {
			return nil, err
		}
		stack[i] = v
	}

	h.mu.Lock()
	h.current = ctx
	results, err := h.fn.Call(h.ctx, stack...)
	h.current = nil
	h.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("wasm %s: %w", h.export, err)
	}
	if status := api.DecodeI32(results[0]); status != 0 {
		return nil, fmt.Errorf("wasm %s returned status %d", h.export, status)
	}
	return nil, nil
}

func toI64(arg any) (uint64, error) {
	switch v := arg.(type) {
	case core.Name:
		return uint64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case int32:
		return api.EncodeI64(int64(v)), nil
	case int64:
		return api.EncodeI64(v), nil
	}
	return 0, fmt.Errorf("cannot pass %T to wasm", arg)
}

// Close releases the module and its runtime.
func (h *Handler) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}
