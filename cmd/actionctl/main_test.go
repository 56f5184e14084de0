package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tvgSource = `package tvg

import (
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/registry"
)

type Tvg struct{}

func (c *Tvg) Hi(ctx registry.ActionContext, nm core.Name) error {
	ctx.Print("Hello, ", nm)
	return nil
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tvg.go")
	require.NoError(t, os.WriteFile(path, []byte(tvgSource), 0o644))
	return path
}

func TestABICommand(t *testing.T) {
	src := writeSource(t)

	out, err := execute(t, "abi", "-f", src, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "version: actions/1.0")
	assert.Contains(t, out, "name: hi")
	assert.Contains(t, out, "- nm")

	_, err = execute(t, "abi", "-f", src, "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestGenCommand(t *testing.T) {
	src := writeSource(t)

	out, err := execute(t, "gen", "-f", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 1 actions of Tvg")

	generated, err := os.ReadFile(filepath.Join(filepath.Dir(src), "tvg.actions.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "func RegisterTvg(reg *registry.Registry, c *Tvg) error {")
}

func TestDispatchCommand(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "runtime.yaml")
	require.NoError(t, os.WriteFile(config, []byte(
		"receiver: tvg\njournal_type: db\njournal_params:\n  db_path: "+filepath.Join(dir, "journal.db")+"\n"), 0o644))

	out, err := execute(t, "dispatch", "-a", "hi", "--arg", "alice", "--auth", "alice", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "Action hi dispatched to tvg")
	assert.Contains(t, out, "Sequence: 1")
	assert.Contains(t, out, "Console: Hello, alice")
	assert.FileExists(t, filepath.Join(dir, "journal.db"))
}

func TestDispatchCommandFlagsDoNotLeak(t *testing.T) {
	out, err := execute(t, "dispatch", "-a", "hi", "--arg", "alice", "--auth", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Console: Hello, alice")

	out, err = execute(t, "dispatch", "-a", "hi", "--arg", "bob", "--auth", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Console: Hello, bob")
	assert.NotContains(t, out, "alice")

	_, err = execute(t, "dispatch", "-a", "hi", "--auth", "bob")
	assert.ErrorContains(t, err, "want 1 arguments, got 0")
}

func TestDispatchCommandBadAction(t *testing.T) {
	_, err := execute(t, "dispatch", "-a", "Hi")
	assert.ErrorContains(t, err, "action: invalid name")
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"nm:name", "amount:uint64"})
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "amount", params[1].Name)

	_, err = parseParams([]string{"nm"})
	assert.Error(t, err)
	_, err = parseParams([]string{"nm:float"})
	assert.Error(t, err)
}
