// Package codec implements the binary layout used for action payloads.
//
// Values are packed back to back in parameter order: integers little-endian,
// names as their 64-bit value, bool as a single 0/1 byte, strings and byte
// slices prefixed by a LEB128 varuint32 length. There is no framing beyond
// that, so a payload is valid for a schema only if it is consumed exactly.
package codec

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/govm-net/actions/core"
)

// Type names a parameter type as it appears in manifests and generated code.
type Type string

const (
	TypeName   Type = "name"
	TypeBool   Type = "bool"
	TypeUint8  Type = "uint8"
	TypeUint16 Type = "uint16"
	TypeUint32 Type = "uint32"
	TypeUint64 Type = "uint64"
	TypeInt32  Type = "int32"
	TypeInt64  Type = "int64"
	TypeString Type = "string"
	TypeBytes  Type = "bytes"
)

// ErrTypeMismatch is returned when a Go value does not match the declared type.
var ErrTypeMismatch = errors.New("argument type mismatch")

var goTypes = map[Type]string{
	TypeName:   "core.Name",
	TypeBool:   "bool",
	TypeUint8:  "uint8",
	TypeUint16: "uint16",
	TypeUint32: "uint32",
	TypeUint64: "uint64",
	TypeInt32:  "int32",
	TypeInt64:  "int64",
	TypeString: "string",
	TypeBytes:  "[]byte",
}

// Valid reports whether t is a supported parameter type.
func (t Type) Valid() bool {
	_, ok := goTypes[t]
	return ok
}

// GoType returns the Go spelling of t used by generated code.
func (t Type) GoType() string {
	return goTypes[t]
}

// TypeFromGo maps a Go type expression back to its parameter type.
func TypeFromGo(expr string) (Type, bool) {
	for t, g := range goTypes {
		if g == expr {
			return t, true
		}
	}
	return "", false
}

// Param is one entry of an action's parameter schema.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

func (p Param) String() string {
	return string(p.Type) + " " + p.Name
}

// ParseArg converts the text form of an argument into the Go value expected
// for t. It backs command line and manifest driven invocations.
func ParseArg(t Type, s string) (any, error) {
	switch t {
	case TypeName:
		return core.ParseName(s)
	case TypeBool:
		return strconv.ParseBool(s)
	case TypeUint8:
		v, err := strconv.ParseUint(s, 10, 8)
		return uint8(v), err
	case TypeUint16:
		v, err := strconv.ParseUint(s, 10, 16)
		return uint16(v), err
	case TypeUint32:
		v, err := strconv.ParseUint(s, 10, 32)
		return uint32(v), err
	case TypeUint64:
		return strconv.ParseUint(s, 10, 64)
	case TypeInt32:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case TypeInt64:
		return strconv.ParseInt(s, 10, 64)
	case TypeString:
		return s, nil
	case TypeBytes:
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unsupported type %q", t)
}
