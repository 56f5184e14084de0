package abi

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/govm-net/actions/codec"
	"github.com/govm-net/actions/registry"
)

// ManifestVersion is written into every manifest.
const ManifestVersion = "actions/1.0"

// Manifest is the published declaration table of a contract: every action,
// its parameter layout and the parameters that must authorize it.
type Manifest struct {
	Version  string           `json:"version" yaml:"version"`
	Contract string           `json:"contract,omitempty" yaml:"contract,omitempty"`
	Actions  []ManifestAction `json:"actions" yaml:"actions"`
}

// ManifestAction describes one action.
type ManifestAction struct {
	Name        string        `json:"name" yaml:"name"`
	Params      []codec.Param `json:"params" yaml:"params"`
	Authorizers []string      `json:"authorizers" yaml:"authorizers"`
}

// Manifest returns the manifest of an extracted contract.
func (c *Contract) Manifest() *Manifest {
	m := &Manifest{Version: ManifestVersion, Contract: c.TypeName}
	for _, a := range c.Actions {
		m.Actions = append(m.Actions, ManifestAction{
			Name:        a.Name,
			Params:      nonNil(a.Params),
			Authorizers: nonNil(a.RequiredAuthorizers()),
		})
	}
	return m
}

// ManifestFromRegistry returns the manifest of everything registered in reg.
func ManifestFromRegistry(contract string, reg *registry.Registry) *Manifest {
	m := &Manifest{Version: ManifestVersion, Contract: contract}
	for _, d := range reg.Descriptors() {
		m.Actions = append(m.Actions, ManifestAction{
			Name:        d.Action.String(),
			Params:      nonNil(slices.Clone(d.Params)),
			Authorizers: nonNil(d.AuthorizerParams()),
		})
	}
	return m
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// JSON renders the manifest as indented JSON.
func (m *Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// YAML renders the manifest as YAML.
func (m *Manifest) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// ParseManifest decodes a manifest written as YAML or JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %q", m.Version)
	}
	return &m, nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// Verify checks that reg serves exactly the actions of m with the same
// parameter layout and authorizers. All mismatches are reported together.
func (m *Manifest) Verify(reg *registry.Registry) error {
	actual := ManifestFromRegistry(m.Contract, reg)
	declared := make(map[string]ManifestAction, len(m.Actions))
	for _, a := range m.Actions {
		declared[a.Name] = a
	}

	var problems []string
	for _, got := range actual.Actions {
		want, ok := declared[got.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("action %s is registered but not declared", got.Name))
			continue
		}
		delete(declared, got.Name)
		if !slices.Equal(nonNil(want.Params), got.Params) {
			problems = append(problems, fmt.Sprintf("action %s: declared params %v, registered %v", got.Name, want.Params, got.Params))
		}
		if !slices.Equal(nonNil(want.Authorizers), got.Authorizers) {
			problems = append(problems, fmt.Sprintf("action %s: declared authorizers %v, registered %v", got.Name, want.Authorizers, got.Authorizers))
		}
	}
	for _, a := range m.Actions {
		if _, missing := declared[a.Name]; missing {
			problems = append(problems, fmt.Sprintf("action %s is declared but not registered", a.Name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("manifest mismatch:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
