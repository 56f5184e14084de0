package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/govm-net/actions/core"
)

var (
	errShortPayload = errors.New("unexpected end of payload")
	errBadBool      = errors.New("bool byte must be 0 or 1")
	errBadVaruint   = errors.New("varuint32 overflows 32 bits")
)

// Decoder reads values in payload layout from a byte slice.
type Decoder struct {
	data []byte
	pos  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, errShortPayload
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadName() (core.Name, error) {
	v, err := d.ReadUint64()
	return core.Name(v), err
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errBadBool
}

func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadVaruint32 reads a LEB128 value of at most five bytes.
func (d *Decoder) ReadVaruint32() (uint32, error) {
	var v uint64
	for shift := 0; shift < 35; shift += 7 {
		b, err := d.ReadUint8()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if v > 0xffffffff {
				return 0, errBadVaruint
			}
			return uint32(v), nil
		}
	}
	return 0, errBadVaruint
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadVaruint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(d.Remaining()) {
		return nil, errShortPayload
	}
	b, _ := d.take(int(n))
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	return string(b), err
}

// Read reads one value of type t.
func (d *Decoder) Read(t Type) (any, error) {
	switch t {
	case TypeName:
		return d.ReadName()
	case TypeBool:
		return d.ReadBool()
	case TypeUint8:
		return d.ReadUint8()
	case TypeUint16:
		return d.ReadUint16()
	case TypeUint32:
		return d.ReadUint32()
	case TypeUint64:
		return d.ReadUint64()
	case TypeInt32:
		return d.ReadInt32()
	case TypeInt64:
		return d.ReadInt64()
	case TypeString:
		return d.ReadString()
	case TypeBytes:
		return d.ReadBytes()
	}
	return nil, fmt.Errorf("unsupported type %q", t)
}

// Decode unpacks data against params. The payload must be consumed exactly;
// on any error no values are returned.
func Decode(params []Param, data []byte) ([]any, error) {
	dec := NewDecoder(data)
	args := make([]any, len(params))
	for i, p := range params {
		v, err := dec.Read(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q (%s): %w", core.ErrMalformedPayload, p.Name, p.Type, err)
		}
		args[i] = v
	}
	if rest := dec.Remaining(); rest > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d parameters", core.ErrMalformedPayload, rest, len(params))
	}
	return args, nil
}
