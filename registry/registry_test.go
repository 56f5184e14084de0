package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/core"
)

var (
	hiName   = core.MustParseName("hi")
	byeName  = core.MustParseName("bye")
	hiParams = []codec.Param{{Name: "nm", Type: codec.TypeName}}
)

func noop(ActionContext, Args) (any, error) { return nil, nil }

func TestRegisterAndResolve(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(hiName, hiParams, noop))

	desc, err := reg.Resolve(hiName)
	require.NoError(t, err)
	assert.Equal(t, hiName, desc.Action)
	assert.Equal(t, hiParams, desc.Params)
	assert.Equal(t, []int{0}, desc.Authorizers)
	assert.Equal(t, []string{"nm"}, desc.AuthorizerParams())

	_, err = reg.Resolve(byeName)
	assert.ErrorIs(t, err, core.ErrUnknownAction)
}

func TestRegisterDuplicateKeepsFirst(t *testing.T) {
	reg := New()
	first := func(ActionContext, Args) (any, error) { return "first", nil }
	second := func(ActionContext, Args) (any, error) { return "second", nil }

	require.NoError(t, reg.Register(hiName, hiParams, first))
	err := reg.Register(hiName, nil, second)
	assert.ErrorIs(t, err, core.ErrDuplicateAction)

	desc, err := reg.Resolve(hiName)
	require.NoError(t, err)
	assert.Equal(t, hiParams, desc.Params)
	ret, err := desc.Handler(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", ret)
}

func TestRegisterInvalidSchema(t *testing.T) {
	tests := []struct {
		name    string
		action  core.Name
		params  []codec.Param
		handler Handler
		opts    []RegisterOption
	}{
		{"empty action", 0, hiParams, noop, nil},
		{"nil handler", hiName, hiParams, nil, nil},
		{"unknown type", hiName, []codec.Param{{Name: "x", Type: "float64"}}, noop, nil},
		{"unnamed param", hiName, []codec.Param{{Type: codec.TypeName}}, noop, nil},
		{"duplicate param", hiName, []codec.Param{{Name: "a", Type: codec.TypeName}, {Name: "a", Type: codec.TypeName}}, noop, nil},
		{"authorizer not a param", hiName, hiParams, noop, []RegisterOption{WithAuthorizers("who")}},
		{"authorizer not a name", hiName, []codec.Param{{Name: "memo", Type: codec.TypeString}}, noop, []RegisterOption{WithAuthorizers("memo")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			err := reg.Register(tt.action, tt.params, tt.handler, tt.opts...)
			assert.ErrorIs(t, err, core.ErrInvalidSchema)
			assert.Empty(t, reg.Actions())
		})
	}
}

func TestExplicitAuthorizers(t *testing.T) {
	reg := New()
	params := []codec.Param{
		{Name: "from", Type: codec.TypeName},
		{Name: "to", Type: codec.TypeName},
		{Name: "memo", Type: codec.TypeString},
	}
	require.NoError(t, reg.Register(core.MustParseName("transfer"), params, noop, WithAuthorizers("from")))
	require.NoError(t, reg.Register(core.MustParseName("ping"), params, noop, WithAuthorizers()))

	desc, err := reg.Resolve(core.MustParseName("transfer"))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, desc.Authorizers)

	args := Args{core.MustParseName("alice"), core.MustParseName("bob"), "memo"}
	assert.Equal(t, []core.Name{core.MustParseName("alice")}, desc.RequiredAuthorizers(args))

	desc, err = reg.Resolve(core.MustParseName("ping"))
	require.NoError(t, err)
	assert.Empty(t, desc.Authorizers)
}

func TestSeal(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(hiName, hiParams, noop))
	assert.False(t, reg.Sealed())

	reg.Seal()
	reg.Seal()
	assert.True(t, reg.Sealed())

	err := reg.Register(byeName, nil, noop)
	assert.ErrorIs(t, err, core.ErrRegistrySealed)

	_, err = reg.Resolve(hiName)
	assert.NoError(t, err)
}

func TestActionsOrder(t *testing.T) {
	reg := New()
	names := []core.Name{core.MustParseName("zeta"), core.MustParseName("alpha"), core.MustParseName("mid")}
	for _, n := range names {
		require.NoError(t, reg.Register(n, nil, noop))
	}
	assert.Equal(t, names, reg.Actions())

	descs := reg.Descriptors()
	require.Len(t, descs, 3)
	for i, d := range descs {
		assert.Equal(t, names[i], d.Action)
	}
}

func TestRegisterCopiesParams(t *testing.T) {
	reg := New()
	params := []codec.Param{{Name: "nm", Type: codec.TypeName}}
	require.NoError(t, reg.Register(hiName, params, noop))
	params[0].Name = "changed"

	desc, err := reg.Resolve(hiName)
	require.NoError(t, err)
	assert.Equal(t, "nm", desc.Params[0].Name)
}

func TestResolveReturnsCopy(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(hiName, hiParams, noop))
	reg.Seal()

	desc, err := reg.Resolve(hiName)
	require.NoError(t, err)
	desc.Authorizers = nil
	desc.Params[0].Type = codec.TypeString
	desc.Handler = nil

	for _, d := range reg.Descriptors() {
		d.Authorizers[0] = 7
	}

	again, err := reg.Resolve(hiName)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, again.Authorizers)
	assert.Equal(t, hiParams, again.Params)
	assert.NotNil(t, again.Handler)
}
