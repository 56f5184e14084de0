package registry

import (
	"fmt"
	"slices"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
)

// Invocation is one call to dispatch: the action, its packed arguments and
// the identities that signed the transaction.
type Invocation struct {
	Action      core.Name
	Payload     []byte
	Authorizers core.Authorizers
}

// Wrapper builds well-formed invocations of one registered action without
// the caller restating its name or parameter layout.
type Wrapper struct {
	desc *Descriptor
}

// Identifier returns the wrapped action name.
func (w *Wrapper) Identifier() core.Name {
	return w.desc.Action
}

// Params returns a copy of the wrapped action's schema.
func (w *Wrapper) Params() []codec.Param {
	return slices.Clone(w.desc.Params)
}

// Invocation packs args in schema order. Each argument must hold the exact Go
// type of its parameter.
func (w *Wrapper) Invocation(args []any, authorizers ...core.Name) (Invocation, error) {
	payload, err := codec.Encode(w.desc.Params, args)
	if err != nil {
		return Invocation{}, fmt.Errorf("build %s invocation: %w", w.desc.Action, err)
	}
	return Invocation{
		Action:      w.desc.Action,
		Payload:     payload,
		Authorizers: core.NewAuthorizers(authorizers...),
	}, nil
}

// ParseInvocation is like Invocation but takes the text form of each
// argument.
func (w *Wrapper) ParseInvocation(args []string, authorizers ...core.Name) (Invocation, error) {
	if len(args) != len(w.desc.Params) {
		return Invocation{}, fmt.Errorf("build %s invocation: want %d arguments, got %d", w.desc.Action, len(w.desc.Params), len(args))
	}
	values := make([]any, len(args))
	for i, p := range w.desc.Params {
		v, err := codec.ParseArg(p.Type, args[i])
		if err != nil {
			return Invocation{}, fmt.Errorf("build %s invocation: argument %q: %w", w.desc.Action, p.Name, err)
		}
		values[i] = v
	}
	return w.Invocation(values, authorizers...)
}
