package dispatch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/registry"
)

var (
	tvg   = core.MustParseName("tvg")
	hi    = core.MustParseName("hi")
	bye   = core.MustParseName("bye")
	alice = core.MustParseName("alice")
	bob   = core.MustParseName("bob")
)

type hiContract struct {
	calls []core.Name
}

func (c *hiContract) handle(ctx registry.ActionContext, args registry.Args) (any, error) {
	nm := args.Name(0)
	c.calls = append(c.calls, nm)
	ctx.Print("hi ", nm)
	return nil, nil
}

func setup(t *testing.T, opts ...Option) (*Dispatcher, *hiContract, *registry.Wrapper) {
	t.Helper()
	c := &hiContract{}
	reg := registry.New()
	require.NoError(t, reg.Register(hi, []codec.Param{{Name: "nm", Type: codec.TypeName}}, c.handle))
	w, err := reg.MakeWrapper(hi)
	require.NoError(t, err)
	return New(tvg, reg, opts...), c, w
}

func TestDispatchHiCompleted(t *testing.T) {
	d, c, w := setup(t)
	inv, err := w.Invocation([]any{alice}, alice)
	require.NoError(t, err)

	out, err := d.Dispatch(inv)
	require.NoError(t, err)
	assert.Equal(t, []core.Name{alice}, c.calls)
	assert.Equal(t, tvg, out.Receiver)
	assert.Equal(t, hi, out.Action)
	assert.Equal(t, registry.Args{alice}, out.Args)
	assert.Equal(t, "hi alice", out.Console)
	assert.Equal(t, Digest(tvg, inv), out.Digest)
	assert.Equal(t, []State{StateReceived, StateResolved, StateDecoded, StateAuthorized, StateInvoked, StateCompleted}, out.Trace)
}

func TestDispatchMissingAuthorization(t *testing.T) {
	d, c, w := setup(t)
	inv, err := w.Invocation([]any{alice}, bob)
	require.NoError(t, err)

	out, err := d.Dispatch(inv)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, core.ErrMissingAuthorization)
	assert.Empty(t, c.calls)

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, StateDecoded, derr.Stage)
	assert.Equal(t, []State{StateReceived, StateResolved, StateDecoded, StateFailed}, derr.Trace)
}

func TestDispatchNoAuthorizers(t *testing.T) {
	d, c, w := setup(t)
	inv, err := w.Invocation([]any{alice})
	require.NoError(t, err)

	_, err = d.Dispatch(inv)
	assert.ErrorIs(t, err, core.ErrMissingAuthorization)
	assert.Empty(t, c.calls)
}

func TestDispatchUnknownAction(t *testing.T) {
	d, c, _ := setup(t)
	payload, err := codec.Encode([]codec.Param{{Name: "nm", Type: codec.TypeName}}, []any{alice})
	require.NoError(t, err)

	_, err = d.Dispatch(registry.Invocation{Action: bye, Payload: payload, Authorizers: core.Authorizers{alice}})
	assert.ErrorIs(t, err, core.ErrUnknownAction)
	assert.Empty(t, c.calls)

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, bye, derr.Action)
	assert.Equal(t, StateReceived, derr.Stage)
}

func TestDispatchMalformedPayload(t *testing.T) {
	d, c, w := setup(t)
	inv, err := w.Invocation([]any{alice}, alice)
	require.NoError(t, err)

	short := inv
	short.Payload = inv.Payload[:4]
	long := inv
	long.Payload = append(append([]byte{}, inv.Payload...), 0x01)

	for _, bad := range []registry.Invocation{short, long} {
		_, err := d.Dispatch(bad)
		assert.ErrorIs(t, err, core.ErrMalformedPayload)

		var derr *Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, StateResolved, derr.Stage)
	}
	assert.Empty(t, c.calls)
}

func TestDispatchHandlerFailure(t *testing.T) {
	cause := errors.New("out of stock")
	reg := registry.New()
	params := []codec.Param{{Name: "nm", Type: codec.TypeName}}
	require.NoError(t, reg.Register(core.MustParseName("fail"), params, func(registry.ActionContext, registry.Args) (any, error) {
		return nil, cause
	}))
	require.NoError(t, reg.Register(core.MustParseName("abort"), params, func(ctx registry.ActionContext, args registry.Args) (any, error) {
		core.Require(args.Name(0) == bob, "only bob")
		return nil, nil
	}))
	require.NoError(t, reg.Register(core.MustParseName("crash"), params, func(registry.ActionContext, registry.Args) (any, error) {
		panic("boom")
	}))
	require.NoError(t, reg.Register(core.MustParseName("needbob"), params, func(ctx registry.ActionContext, args registry.Args) (any, error) {
		ctx.RequireAuth(bob)
		return nil, nil
	}))
	d := New(tvg, reg)

	for _, action := range reg.Actions() {
		w, err := reg.MakeWrapper(action)
		require.NoError(t, err)
		inv, err := w.Invocation([]any{alice}, alice)
		require.NoError(t, err)

		_, err = d.Dispatch(inv)
		assert.ErrorIs(t, err, core.ErrHandlerExecution, action.String())

		var derr *Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, StateInvoked, derr.Stage)
		assert.Equal(t, []State{StateReceived, StateResolved, StateDecoded, StateAuthorized, StateInvoked, StateFailed}, derr.Trace)
	}

	w, err := reg.MakeWrapper(core.MustParseName("fail"))
	require.NoError(t, err)
	inv, err := w.Invocation([]any{alice}, alice)
	require.NoError(t, err)
	_, err = d.Dispatch(inv)
	assert.ErrorIs(t, err, cause)
}

func TestDispatchReturnValue(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.MustParseName("echo"), []codec.Param{
		{Name: "who", Type: codec.TypeName},
		{Name: "memo", Type: codec.TypeString},
	}, func(ctx registry.ActionContext, args registry.Args) (any, error) {
		return args.Text(1), nil
	}))
	d := New(tvg, reg)

	w, err := reg.MakeWrapper(core.MustParseName("echo"))
	require.NoError(t, err)
	inv, err := w.Invocation([]any{alice, "memo text"}, bob, alice)
	require.NoError(t, err)

	out, err := d.Dispatch(inv)
	require.NoError(t, err)
	assert.Equal(t, "memo text", out.Return)
}

func TestDispatchActionWithoutAuthorizersStillChecks(t *testing.T) {
	reg := registry.New()
	called := 0
	require.NoError(t, reg.Register(core.MustParseName("ping"), nil, func(registry.ActionContext, registry.Args) (any, error) {
		called++
		return nil, nil
	}))
	d := New(tvg, reg)

	out, err := d.Dispatch(registry.Invocation{Action: core.MustParseName("ping")})
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Contains(t, out.Trace, StateAuthorized)
}

func TestDispatchSealsRegistry(t *testing.T) {
	d, _, w := setup(t)
	inv, err := w.Invocation([]any{alice}, alice)
	require.NoError(t, err)
	_, err = d.Dispatch(inv)
	require.NoError(t, err)

	err = d.Registry().Register(bye, nil, func(registry.ActionContext, registry.Args) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, core.ErrRegistrySealed)
}

func TestDispatchIgnoresChangedDescriptor(t *testing.T) {
	d, c, w := setup(t)
	d.Registry().Seal()

	desc, err := d.Registry().Resolve(hi)
	require.NoError(t, err)
	desc.Authorizers = nil
	desc.Handler = func(registry.ActionContext, registry.Args) (any, error) { return "hijacked", nil }

	inv, err := w.Invocation([]any{alice}, bob)
	require.NoError(t, err)
	_, err = d.Dispatch(inv)
	assert.ErrorIs(t, err, core.ErrMissingAuthorization)
	assert.Empty(t, c.calls)
}

func TestHandlerErrorKeepsHandlerKind(t *testing.T) {
	var kinds []string
	reg := registry.New()
	require.NoError(t, reg.Register(core.MustParseName("cosign"), []codec.Param{{Name: "nm", Type: codec.TypeName}},
		func(registry.ActionContext, registry.Args) (any, error) {
			return nil, fmt.Errorf("co-signer: %w", core.ErrMissingAuthorization)
		}))
	d := New(tvg, reg, WithObserver(ObserverFunc(func(_ core.Name, _ State, err error) {
		kinds = append(kinds, core.Kind(err))
	})))

	w, err := reg.MakeWrapper(core.MustParseName("cosign"))
	require.NoError(t, err)
	inv, err := w.Invocation([]any{alice}, alice)
	require.NoError(t, err)

	_, err = d.Dispatch(inv)
	assert.ErrorIs(t, err, core.ErrHandlerExecution)
	assert.ErrorIs(t, err, core.ErrMissingAuthorization)

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, StateInvoked, derr.Stage)
	assert.Equal(t, []string{"handler_execution"}, kinds)
}

func TestObserver(t *testing.T) {
	type seen struct {
		action core.Name
		final  State
		kind   string
	}
	var got []seen
	obs := ObserverFunc(func(action core.Name, final State, err error) {
		got = append(got, seen{action, final, core.Kind(err)})
	})
	d, _, w := setup(t, WithObserver(obs))

	ok, err := w.Invocation([]any{alice}, alice)
	require.NoError(t, err)
	denied, err := w.Invocation([]any{alice}, bob)
	require.NoError(t, err)

	_, _ = d.Dispatch(ok)
	_, _ = d.Dispatch(denied)
	_, _ = d.Dispatch(registry.Invocation{Action: bye})

	assert.Equal(t, []seen{
		{hi, StateCompleted, "ok"},
		{hi, StateFailed, "missing_authorization"},
		{bye, StateFailed, "unknown_action"},
	}, got)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authorized", StateAuthorized.String())
	assert.Equal(t, "state(42)", State(42).String())
}
