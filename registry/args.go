package registry

import (
	"github.com/govm-net/actions/core"
)

// Args holds decoded arguments in schema order. The dispatcher only hands a
// handler Args that match its schema, so the typed accessors panic on a type
// mismatch the same way a failed type assertion would.
type Args []any

func (a Args) Name(i int) core.Name { return a[i].(core.Name) }
func (a Args) Bool(i int) bool      { return a[i].(bool) }
func (a Args) Uint8(i int) uint8    { return a[i].(uint8) }
func (a Args) Uint16(i int) uint16  { return a[i].(uint16) }
func (a Args) Uint32(i int) uint32  { return a[i].(uint32) }
func (a Args) Uint64(i int) uint64  { return a[i].(uint64) }
func (a Args) Int32(i int) int32    { return a[i].(int32) }
func (a Args) Int64(i int) int64    { return a[i].(int64) }
func (a Args) Text(i int) string    { return a[i].(string) }
func (a Args) Bytes(i int) []byte   { return a[i].([]byte) }
