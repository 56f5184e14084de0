package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/examples/tvg"
	"github.com/govm-net/actions/registry"
	"github.com/govm-net/actions/runtime"
	"github.com/govm-net/actions/wasmhandler"
)

// dispatchOptions holds the flags of the dispatch command.
type dispatchOptions struct {
	action      string
	args        []string
	authorizers []string
	config      string
	wasmFile    string
	wasmExport  string
	wasmParams  []string
}

func newDispatchCmd() *cobra.Command {
	var o dispatchOptions

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Dispatch one action",
		Long: `Dispatch one action to a local runtime and print its outcome.
Without --wasm the tvg contract serves the action. With --wasm the action is
served by an export of the module, its schema given by --param name:type.
Example: actionctl dispatch -a hi --arg alice --auth alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(cmd, &o)
		},
	}

	cmd.Flags().StringVarP(&o.action, "action", "a", "", "Action name (required)")
	cmd.Flags().StringArrayVar(&o.args, "arg", nil, "Action argument in schema order, repeatable")
	cmd.Flags().StringSliceVar(&o.authorizers, "auth", nil, "Authorizing account, repeatable")
	cmd.Flags().StringVarP(&o.config, "config", "c", "", "Runtime config file")
	cmd.Flags().StringVar(&o.wasmFile, "wasm", "", "WebAssembly module serving the action")
	cmd.Flags().StringVar(&o.wasmExport, "export", "", "Export of the module, defaults to the action name")
	cmd.Flags().StringSliceVar(&o.wasmParams, "param", []string{"nm:name"}, "Parameter of the wasm action as name:type")
	cmd.MarkFlagRequired("action")
	return cmd
}

func runDispatch(cmd *cobra.Command, o *dispatchOptions) error {
	action, err := core.ParseName(o.action)
	if err != nil {
		return fmt.Errorf("action: %w", err)
	}
	auth, err := core.ParseAuthorizers(o.authorizers...)
	if err != nil {
		return fmt.Errorf("authorizer: %w", err)
	}

	config := runtime.DefaultConfig()
	if o.config != "" {
		if config, err = runtime.LoadConfig(o.config); err != nil {
			return err
		}
	}

	reg := registry.New()
	if o.wasmFile != "" {
		closeWasm, err := registerWasm(cmd.Context(), reg, action, o)
		if err != nil {
			return err
		}
		defer closeWasm()
	} else if err := tvg.RegisterTvg(reg, &tvg.Tvg{}); err != nil {
		return err
	}

	rt, err := runtime.New(config, reg)
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}
	defer rt.Close()

	w, err := reg.MakeWrapper(action)
	if err != nil {
		return err
	}
	inv, err := w.ParseInvocation(o.args, auth...)
	if err != nil {
		return err
	}

	result, err := rt.Apply(runtime.Transaction{Actions: []registry.Invocation{inv}})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	outcome, receipt := result.Outcomes[0], result.Receipts[0]
	fmt.Fprintf(out, "Action %s dispatched to %s\n", outcome.Action, outcome.Receiver)
	fmt.Fprintf(out, "Sequence: %d\n", receipt.GlobalSequence)
	fmt.Fprintf(out, "Digest: %s\n", hex.EncodeToString(outcome.Digest[:]))
	if outcome.Console != "" {
		fmt.Fprintf(out, "Console: %s\n", outcome.Console)
	}
	return nil
}

func registerWasm(ctx context.Context, reg *registry.Registry, action core.Name, o *dispatchOptions) (func(), error) {
	params, err := parseParams(o.wasmParams)
	if err != nil {
		return nil, err
	}
	code, err := os.ReadFile(o.wasmFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}

	export := o.wasmExport
	if export == "" {
		export = action.String()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h, err := wasmhandler.New(ctx, code, export)
	if err != nil {
		return nil, err
	}
	closeFn := func() { h.Close(ctx) }

	handler, err := h.Bind(params)
	if err == nil {
		err = reg.Register(action, params, handler)
	}
	if err != nil {
		closeFn()
		return nil, err
	}
	return closeFn, nil
}

func parseParams(specs []string) ([]codec.Param, error) {
	params := make([]codec.Param, 0, len(specs))
	for _, spec := range specs {
		name, typ, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("parameter %q must be name:type", spec)
		}
		p := codec.Param{Name: name, Type: codec.Type(typ)}
		if !p.Type.Valid() {
			return nil, fmt.Errorf("parameter %q has unknown type %q", name, typ)
		}
		params = append(params, p)
	}
	return params, nil
}
