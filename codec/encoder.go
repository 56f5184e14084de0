package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/govm-net/actions/core"
)

// Encoder appends values in payload layout.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded payload.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) WriteName(n core.Name) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(n))
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) WriteUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) WriteUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteVaruint32 writes v as LEB128.
func (e *Encoder) WriteVaruint32(v uint32) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

func (e *Encoder) WriteString(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("string of %d bytes exceeds length prefix", len(s))
	}
	e.WriteVaruint32(uint32(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

func (e *Encoder) WriteBytes(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("byte slice of %d bytes exceeds length prefix", len(b))
	}
	e.WriteVaruint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
	return nil
}

// Write appends v, which must hold exactly the Go type of t.
func (e *Encoder) Write(t Type, v any) error {
	switch t {
	case TypeName:
		if n, ok := v.(core.Name); ok {
			e.WriteName(n)
			return nil
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			e.WriteBool(b)
			return nil
		}
	case TypeUint8:
		if n, ok := v.(uint8); ok {
			e.WriteUint8(n)
			return nil
		}
	case TypeUint16:
		if n, ok := v.(uint16); ok {
			e.WriteUint16(n)
			return nil
		}
	case TypeUint32:
		if n, ok := v.(uint32); ok {
			e.WriteUint32(n)
			return nil
		}
	case TypeUint64:
		if n, ok := v.(uint64); ok {
			e.WriteUint64(n)
			return nil
		}
	case TypeInt32:
		if n, ok := v.(int32); ok {
			e.WriteInt32(n)
			return nil
		}
	case TypeInt64:
		if n, ok := v.(int64); ok {
			e.WriteInt64(n)
			return nil
		}
	case TypeString:
		if s, ok := v.(string); ok {
			return e.WriteString(s)
		}
	case TypeBytes:
		if b, ok := v.([]byte); ok {
			return e.WriteBytes(b)
		}
	default:
		return fmt.Errorf("unsupported type %q", t)
	}
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, t.GoType(), v)
}

// Encode packs args against params.
func Encode(params []Param, args []any) ([]byte, error) {
	if len(args) != len(params) {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrTypeMismatch, len(params), len(args))
	}
	enc := NewEncoder()
	for i, p := range params {
		if err := enc.Write(p.Type, args[i]); err != nil {
			return nil, fmt.Errorf("argument %q: %w", p.Name, err)
		}
	}
	return enc.Bytes(), nil
}
