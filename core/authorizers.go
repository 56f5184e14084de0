package core

import (
	"slices"
	"strings"
)

// Authorizers is the set of identities that signed the enclosing transaction.
// The order given by the caller is kept so that logs and receipts are
// reproducible; membership tests never depend on it.
type Authorizers []Name

// NewAuthorizers builds an authorizer set, dropping duplicates.
func NewAuthorizers(names ...Name) Authorizers {
	out := make(Authorizers, 0, len(names))
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// ParseAuthorizers parses the text form of each name.
func ParseAuthorizers(names ...string) (Authorizers, error) {
	parsed := make([]Name, 0, len(names))
	for _, s := range names {
		n, err := ParseName(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, n)
	}
	return NewAuthorizers(parsed...), nil
}

// Has reports whether n is one of the authorizers.
func (a Authorizers) Has(n Name) bool {
	return slices.Contains(a, n)
}

func (a Authorizers) String() string {
	parts := make([]string, len(a))
	for i, n := range a {
		parts[i] = n.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
