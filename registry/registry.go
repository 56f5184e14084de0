// Package registry holds the closed set of actions a contract exposes.
//
// A Registry maps each action name to exactly one Descriptor: the parameter
// schema, the identities that must authorize a call and the handler to run.
// It is filled once at startup, usually by generated Register<Contract>
// functions, and sealed before the first dispatch. After sealing it is
// read-only and safe to share.
package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
)

// ActionContext is what a handler sees of the running dispatch.
type ActionContext interface {
	// Receiver returns the contract account the action is dispatched to
	Receiver() core.Name
	// Action returns the name of the running action
	Action() core.Name
	// Authorizers returns the identities that signed the transaction
	Authorizers() core.Authorizers
	// HasAuth reports whether n signed the transaction
	HasAuth(n core.Name) bool
	// RequireAuth aborts the action unless n signed the transaction
	RequireAuth(n core.Name)
	// Print appends to the action console returned in the outcome
	Print(args ...any)
	// Logger returns a logger scoped to the running action
	Logger() *slog.Logger
}

// Handler runs one action with arguments decoded against its schema.
type Handler func(ctx ActionContext, args Args) (any, error)

// Descriptor binds an action name to its schema and handler.
type Descriptor struct {
	Action      core.Name
	Params      []codec.Param
	Authorizers []int // indexes into Params, in schema order
	Handler     Handler
}

// RequiredAuthorizers returns the identities that must authorize a call
// with the given decoded arguments, in schema order.
func (d *Descriptor) RequiredAuthorizers(args Args) []core.Name {
	out := make([]core.Name, 0, len(d.Authorizers))
	for _, idx := range d.Authorizers {
		out = append(out, args.Name(idx))
	}
	return out
}

// AuthorizerParams returns the names of the parameters holding required
// authorizers.
func (d *Descriptor) AuthorizerParams() []string {
	out := make([]string, 0, len(d.Authorizers))
	for _, idx := range d.Authorizers {
		out = append(out, d.Params[idx].Name)
	}
	return out
}

func (d *Descriptor) clone() *Descriptor {
	return &Descriptor{
		Action:      d.Action,
		Params:      slices.Clone(d.Params),
		Authorizers: slices.Clone(d.Authorizers),
		Handler:     d.Handler,
	}
}

// RegisterOption customises a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	authorizers []string
	explicit    bool
}

// WithAuthorizers names the parameters whose values must be among the
// transaction authorizers. Without it every name-typed parameter is required.
// Passing no names declares an action that needs no authorization.
func WithAuthorizers(params ...string) RegisterOption {
	return func(o *registerOptions) {
		o.authorizers = params
		o.explicit = true
	}
}

// Registry stores the descriptors of one contract.
type Registry struct {
	mu      sync.RWMutex
	actions map[core.Name]*Descriptor
	order   []core.Name
	sealed  bool
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		actions: make(map[core.Name]*Descriptor),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an action. The first registration of a name stays
// authoritative; later ones fail with core.ErrDuplicateAction.
func (r *Registry) Register(action core.Name, params []codec.Param, handler Handler, opts ...RegisterOption) error {
	desc, err := newDescriptor(action, params, handler, opts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", core.ErrRegistrySealed, action)
	}
	if _, exists := r.actions[action]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateAction, action)
	}

	r.actions[action] = desc
	r.order = append(r.order, action)
	r.logger.Debug("registered action", "action", action, "params", params, "authorizers", desc.AuthorizerParams())
	return nil
}

func newDescriptor(action core.Name, params []codec.Param, handler Handler, opts []RegisterOption) (*Descriptor, error) {
	if action.IsEmpty() {
		return nil, fmt.Errorf("%w: action name is empty", core.ErrInvalidSchema)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: %s has no handler", core.ErrInvalidSchema, action)
	}

	seen := make(map[string]int, len(params))
	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: %s parameter %d has no name", core.ErrInvalidSchema, action, i)
		}
		if !p.Type.Valid() {
			return nil, fmt.Errorf("%w: %s parameter %q has unsupported type %q", core.ErrInvalidSchema, action, p.Name, p.Type)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s parameter %q declared twice", core.ErrInvalidSchema, action, p.Name)
		}
		seen[p.Name] = i
	}

	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	var auth []int
	if o.explicit {
		for _, name := range o.authorizers {
			idx, ok := seen[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s authorizer %q is not a parameter", core.ErrInvalidSchema, action, name)
			}
			if params[idx].Type != codec.TypeName {
				return nil, fmt.Errorf("%w: %s authorizer %q must be of type name", core.ErrInvalidSchema, action, name)
			}
			if !slices.Contains(auth, idx) {
				auth = append(auth, idx)
			}
		}
		slices.Sort(auth)
	} else {
		for i, p := range params {
			if p.Type == codec.TypeName {
				auth = append(auth, i)
			}
		}
	}

	return &Descriptor{
		Action:      action,
		Params:      slices.Clone(params),
		Authorizers: auth,
		Handler:     handler,
	}, nil
}

// Resolve returns a copy of the descriptor registered for action. Changing
// the copy does not affect the registry.
func (r *Registry) Resolve(action core.Name) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAction, action)
	}
	return desc.clone(), nil
}

// MakeWrapper returns the invocation builder for a registered action.
func (r *Registry) MakeWrapper(action core.Name) (*Wrapper, error) {
	desc, err := r.Resolve(action)
	if err != nil {
		return nil, err
	}
	return &Wrapper{desc: desc}, nil
}

// Seal stops further registrations. It is idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		r.sealed = true
		r.logger.Debug("registry sealed", "actions", len(r.order))
	}
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Actions returns the registered action names in registration order.
func (r *Registry) Actions() []core.Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Descriptors returns copies of the registered descriptors in registration
// order.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.order))
	for _, action := range r.order {
		out = append(out, r.actions[action].clone())
	}
	return out
}
