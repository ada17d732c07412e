package typedesc

import (
	"encoding/binary"
	"math"
	"reflect"
)

// codec copies one Go value to and from its little-endian encoding. The
// encoding of a value occupies exactly its Go size.
type codec struct {
	kind   reflect.Kind
	size   uintptr
	elem   *codec       // arrays
	length int          // arrays
	fields []fieldCodec // structs
}

type fieldCodec struct {
	index  int
	offset uintptr
	codec  *codec
}

func (c *codec) encode(buf []byte, v reflect.Value) {
	switch c.kind {
	case reflect.Bool:
		if v.Bool() {
			buf[0] = 1
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		putUint(buf[:c.size], uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		putUint(buf[:c.size], v.Uint())
	case reflect.Float32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.Float()))
	case reflect.Array:
		step := c.elem.size
		for i := 0; i < c.length; i++ {
			c.elem.encode(buf[uintptr(i)*step:], v.Index(i))
		}
	case reflect.Struct:
		for _, f := range c.fields {
			f.codec.encode(buf[f.offset:], v.Field(f.index))
		}
	}
}

// decode sets v, which must be settable, from buf.
func (c *codec) decode(buf []byte, v reflect.Value) {
	switch c.kind {
	case reflect.Bool:
		v.SetBool(buf[0] != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(signExtend(getUint(buf[:c.size]), c.size))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(getUint(buf[:c.size]))
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(buf)))
	case reflect.Array:
		step := c.elem.size
		for i := 0; i < c.length; i++ {
			c.elem.decode(buf[uintptr(i)*step:], v.Index(i))
		}
	case reflect.Struct:
		for _, f := range c.fields {
			f.codec.decode(buf[f.offset:], v.Field(f.index))
		}
	}
}

func putUint(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint(b []byte) uint64 {
	var v uint64
	for i := range b {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func signExtend(v uint64, size uintptr) int64 {
	if size >= 8 {
		return int64(v)
	}
	shift := 64 - 8*size
	return int64(v<<shift) >> shift
}
