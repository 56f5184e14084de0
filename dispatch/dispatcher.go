// Package dispatch turns one inbound action invocation into exactly one
// handler call or one reported failure.
//
// Every invocation runs the same four steps in order: resolve the action in
// the registry, decode the payload against its schema, check that every
// required identity signed the transaction, and invoke the handler. The first
// failing step ends the dispatch; later steps are skipped and nothing is
// retried. Rolling back side effects of a failed transaction is left to the
// calling runtime.
package dispatch

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/registry"
)

// Outcome describes a completed dispatch.
type Outcome struct {
	Receiver    core.Name
	Action      core.Name
	Args        registry.Args
	Authorizers core.Authorizers
	Return      any
	Console     string
	Digest      [32]byte
	Trace       []State
}

// Observer is notified once per dispatch with its final state.
type Observer interface {
	Observe(action core.Name, final State, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(action core.Name, final State, err error)

func (f ObserverFunc) Observe(action core.Name, final State, err error) {
	f(action, final, err)
}

// Dispatcher runs invocations addressed to one contract.
type Dispatcher struct {
	receiver  core.Name
	registry  *registry.Registry
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, o)
	}
}

// New creates a dispatcher for the contract account receiver.
func New(receiver core.Name, reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		receiver: receiver,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Receiver returns the contract account this dispatcher serves.
func (d *Dispatcher) Receiver() core.Name {
	return d.receiver
}

// Registry returns the registry actions are resolved from.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Dispatch runs one invocation. The registry is sealed on the first call.
func (d *Dispatcher) Dispatch(inv registry.Invocation) (*Outcome, error) {
	d.registry.Seal()

	trace := []State{StateReceived}
	logger := d.logger.With("receiver", d.receiver, "action", inv.Action)

	fail := func(err error) (*Outcome, error) {
		stage := trace[len(trace)-1]
		trace = append(trace, StateFailed)
		logger.Warn("action failed", "stage", stage, "kind", core.Kind(err), "error", err)
		d.notify(inv.Action, StateFailed, err)
		return nil, &Error{Action: inv.Action, Stage: stage, Trace: trace, Err: err}
	}

	desc, err := d.registry.Resolve(inv.Action)
	if err != nil {
		return fail(err)
	}
	trace = append(trace, StateResolved)

	decoded, err := codec.Decode(desc.Params, inv.Payload)
	if err != nil {
		return fail(err)
	}
	args := registry.Args(decoded)
	trace = append(trace, StateDecoded)

	if err := authorize(desc, args, inv.Authorizers); err != nil {
		return fail(err)
	}
	trace = append(trace, StateAuthorized)

	ctx := &actionContext{
		receiver:    d.receiver,
		action:      inv.Action,
		authorizers: inv.Authorizers,
		logger:      logger,
	}
	ret, err := invoke(desc.Handler, ctx, args)
	trace = append(trace, StateInvoked)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", core.ErrHandlerExecution, err))
	}
	trace = append(trace, StateCompleted)

	out := &Outcome{
		Receiver:    d.receiver,
		Action:      inv.Action,
		Args:        args,
		Authorizers: inv.Authorizers,
		Return:      ret,
		Console:     ctx.console.String(),
		Digest:      Digest(d.receiver, inv),
		Trace:       trace,
	}
	logger.Info("action completed", "authorizers", inv.Authorizers, "console", out.Console)
	d.notify(inv.Action, StateCompleted, nil)
	return out, nil
}

// authorize checks required identities in schema order so the reported
// identity does not depend on how the caller ordered its authorizers.
func authorize(desc *registry.Descriptor, args registry.Args, have core.Authorizers) error {
	for _, need := range desc.RequiredAuthorizers(args) {
		if !have.Has(need) {
			return fmt.Errorf("%w: %s requires %s, signed by %s", core.ErrMissingAuthorization, desc.Action, need, have)
		}
	}
	return nil
}

// invoke calls the handler and turns a panic into an error.
func invoke(h registry.Handler, ctx *actionContext, args registry.Args) (ret any, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case *core.AbortError:
				ret, err = nil, v
			case error:
				ret, err = nil, fmt.Errorf("panic: %w", v)
			default:
				ret, err = nil, fmt.Errorf("panic: %v", v)
			}
		}
	}()
	return h(ctx, args)
}

func (d *Dispatcher) notify(action core.Name, final State, err error) {
	for _, o := range d.observers {
		o.Observe(action, final, err)
	}
}

// Digest returns the sha256 of receiver, action and payload, identifying an
// action within a transaction.
func Digest(receiver core.Name, inv registry.Invocation) [32]byte {
	h := sha256.New()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(receiver))
	binary.LittleEndian.PutUint64(buf[8:], uint64(inv.Action))
	h.Write(buf[:])
	h.Write(inv.Payload)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
