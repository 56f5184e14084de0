// Package core defines the identifiers and errors shared by the action
// registry, the dispatcher and the contracts that run on top of them.
package core

import (
	"fmt"
	"strings"
)

// NameMaxLen is the longest text form a Name can take.
const NameMaxLen = 13

const nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"

// Name is a ledger account or action name packed into 64 bits.
// Each of the first 12 characters takes 5 bits, the 13th takes the low 4 bits.
type Name uint64

// ParseName converts the text form of a name into a Name.
// Only the characters ".12345a-z" are allowed, the 13th character is limited
// to ".12345a-j" and trailing dots are rejected so that every Name has exactly
// one text form.
func ParseName(s string) (Name, error) {
	if len(s) > NameMaxLen {
		return 0, fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, s, NameMaxLen)
	}
	if strings.HasSuffix(s, ".") {
		return 0, fmt.Errorf("%w: %q has trailing dots", ErrInvalidName, s)
	}

	var value uint64
	for i := 0; i < len(s); i++ {
		sym, ok := charToSymbol(s[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q contains invalid character %q", ErrInvalidName, s, s[i])
		}
		if i < 12 {
			value |= uint64(sym&0x1f) << (64 - 5*(i+1))
			continue
		}
		if sym > 0x0f {
			return 0, fmt.Errorf("%w: 13th character of %q must be in [.1-5a-j]", ErrInvalidName, s)
		}
		value |= uint64(sym & 0x0f)
	}
	return Name(value), nil
}

// MustParseName is like ParseName but panics on invalid input.
// It is meant for package-level declarations of well-known names.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func charToSymbol(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 6, true
	case c >= '1' && c <= '5':
		return c - '1' + 1, true
	case c == '.':
		return 0, true
	}
	return 0, false
}

// String returns the canonical text form of the name.
func (n Name) String() string {
	var buf [NameMaxLen]byte
	tmp := uint64(n)
	for i := 0; i < NameMaxLen; i++ {
		if i == 0 {
			buf[12-i] = nameCharmap[tmp&0x0f]
			tmp >>= 4
			continue
		}
		buf[12-i] = nameCharmap[tmp&0x1f]
		tmp >>= 5
	}
	return strings.TrimRight(string(buf[:]), ".")
}

// IsEmpty reports whether n is the zero name.
func (n Name) IsEmpty() bool {
	return n == 0
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	v, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
