package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/robert-malhotra/h5stream/internal/message"
)

// ErrUnsupported is returned for datatypes outside the supported classes.
var ErrUnsupported = errors.New("unsupported datatype")

// Class identifies the kind of a datatype.
type Class uint8

const (
	Integer Class = iota
	Float
	Compound
	Enum
	Array
)

func (c Class) String() string {
	switch c {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Compound:
		return "compound"
	case Enum:
		return "enum"
	case Array:
		return "array"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Type describes the layout of one element.
type Type struct {
	Class  Class
	Size   uint32
	Signed bool // Integer only

	Members []Member     // Compound
	Values  []EnumMember // Enum
	Base    *Type        // Enum and Array element type
	Dims    []uint32     // Array
}

// Member is a named field of a compound type.
type Member struct {
	Name   string
	Offset uint32
	Type   *Type
}

// EnumMember is a named enum value.
type EnumMember struct {
	Name  string
	Value int64
}

// IntType returns an integer type of size bytes.
func IntType(size uint32, signed bool) *Type {
	return &Type{Class: Integer, Size: size, Signed: signed}
}

// FloatType returns an IEEE float type of size bytes.
func FloatType(size uint32) *Type {
	return &Type{Class: Float, Size: size}
}

// CompoundType returns a compound type of the given total size.
func CompoundType(size uint32, members ...Member) *Type {
	return &Type{Class: Compound, Size: size, Members: members}
}

// EnumType returns an enum over an integer base type.
func EnumType(base *Type, values ...EnumMember) *Type {
	return &Type{Class: Enum, Size: base.Size, Base: base, Values: values}
}

// ArrayType returns a fixed-size array of base.
func ArrayType(base *Type, dims ...uint32) *Type {
	n := uint32(1)
	for _, d := range dims {
		n *= d
	}
	return &Type{Class: Array, Size: n * base.Size, Base: base, Dims: dims}
}

// Zero returns the encoding of the all-zero element.
func (t *Type) Zero() []byte {
	return make([]byte, t.Size)
}

// Equal reports whether t and o describe the same layout.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Class != o.Class || t.Size != o.Size {
		return false
	}
	switch t.Class {
	case Integer:
		return t.Signed == o.Signed
	case Compound:
		if len(t.Members) != len(o.Members) {
			return false
		}
		for i := range t.Members {
			a, b := t.Members[i], o.Members[i]
			if a.Name != b.Name || a.Offset != b.Offset || !a.Type.Equal(b.Type) {
				return false
			}
		}
		return true
	case Enum:
		if !t.Base.Equal(o.Base) || len(t.Values) != len(o.Values) {
			return false
		}
		for i := range t.Values {
			if t.Values[i] != o.Values[i] {
				return false
			}
		}
		return true
	case Array:
		if len(t.Dims) != len(o.Dims) {
			return false
		}
		for i := range t.Dims {
			if t.Dims[i] != o.Dims[i] {
				return false
			}
		}
		return t.Base.Equal(o.Base)
	}
	return true
}

// String renders the type compactly, e.g. "compound{id:uint32@0,pos:float64@8}".
func (t *Type) String() string {
	switch t.Class {
	case Integer:
		if t.Signed {
			return fmt.Sprintf("int%d", t.Size*8)
		}
		return fmt.Sprintf("uint%d", t.Size*8)
	case Float:
		return fmt.Sprintf("float%d", t.Size*8)
	case Compound:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = fmt.Sprintf("%s:%s@%d", m.Name, m.Type, m.Offset)
		}
		return "compound{" + strings.Join(parts, ",") + "}"
	case Enum:
		parts := make([]string, len(t.Values))
		for i, v := range t.Values {
			parts[i] = fmt.Sprintf("%s=%d", v.Name, v.Value)
		}
		return fmt.Sprintf("enum<%s>{%s}", t.Base, strings.Join(parts, ","))
	case Array:
		dims := make([]string, len(t.Dims))
		for i, d := range t.Dims {
			dims[i] = fmt.Sprint(d)
		}
		return fmt.Sprintf("[%s]%s", strings.Join(dims, "]["), t.Base)
	}
	return t.Class.String()
}

// Message converts t to a datatype header message.
func (t *Type) Message() *message.Datatype {
	switch t.Class {
	case Integer:
		return message.NewFixedPointDatatype(t.Size, t.Signed)
	case Float:
		return message.NewFloatDatatype(t.Size)
	case Compound:
		members := make([]message.CompoundMember, len(t.Members))
		for i, m := range t.Members {
			members[i] = message.CompoundMember{Name: m.Name, ByteOffset: m.Offset, Type: m.Type.Message()}
		}
		return message.NewCompoundDatatype(t.Size, members)
	case Enum:
		names := make([]string, len(t.Values))
		values := make([][]byte, len(t.Values))
		for i, v := range t.Values {
			names[i] = v.Name
			values[i] = encodeInt(v.Value, t.Base.Size)
		}
		return message.NewEnumDatatype(t.Base.Message(), names, values)
	case Array:
		return message.NewArrayDatatype(t.Dims, t.Base.Message())
	}
	return nil
}

// FromMessage converts a datatype header message.
func FromMessage(dt *message.Datatype) (*Type, error) {
	if dt == nil {
		return nil, fmt.Errorf("%w: nil datatype", ErrUnsupported)
	}
	if dt.ByteOrder != message.OrderLE && (dt.Class == message.ClassFixedPoint || dt.Class == message.ClassFloatPoint) {
		return nil, fmt.Errorf("%w: big-endian %s", ErrUnsupported, dt.Class)
	}

	switch dt.Class {
	case message.ClassFixedPoint:
		switch dt.Size {
		case 1, 2, 4, 8:
			return IntType(dt.Size, dt.Signed), nil
		}
		return nil, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, dt.Size)

	case message.ClassFloatPoint:
		if dt.Size != 4 && dt.Size != 8 {
			return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, dt.Size)
		}
		return FloatType(dt.Size), nil

	case message.ClassCompound:
		members := make([]Member, len(dt.Members))
		for i, m := range dt.Members {
			mt, err := FromMessage(m.Type)
			if err != nil {
				return nil, fmt.Errorf("compound member %q: %w", m.Name, err)
			}
			members[i] = Member{Name: m.Name, Offset: m.ByteOffset, Type: mt}
		}
		return CompoundType(dt.Size, members...), nil

	case message.ClassEnum:
		base, err := FromMessage(dt.Base)
		if err != nil {
			return nil, fmt.Errorf("enum base: %w", err)
		}
		if base.Class != Integer {
			return nil, fmt.Errorf("%w: enum over %s", ErrUnsupported, base.Class)
		}
		values := make([]EnumMember, len(dt.EnumNames))
		for i, name := range dt.EnumNames {
			values[i] = EnumMember{Name: name, Value: decodeInt(dt.EnumValues[i], base.Signed)}
		}
		return EnumType(base, values...), nil

	case message.ClassArray:
		base, err := FromMessage(dt.Base)
		if err != nil {
			return nil, fmt.Errorf("array base: %w", err)
		}
		return ArrayType(base, dt.Dims...), nil
	}
	return nil, fmt.Errorf("%w: class %s", ErrUnsupported, dt.Class)
}

// GoType returns a Go type with the same in-memory layout as t, where one
// exists. Compound members become exported struct fields; enums become
// their base integer type.
func GoType(t *Type) (reflect.Type, error) {
	switch t.Class {
	case Integer, Enum:
		it := t
		if t.Class == Enum {
			it = t.Base
		}
		return intGoType(it.Size, it.Signed)
	case Float:
		if t.Size == 4 {
			return reflect.TypeOf(float32(0)), nil
		}
		return reflect.TypeOf(float64(0)), nil
	case Array:
		elem, err := GoType(t.Base)
		if err != nil {
			return nil, err
		}
		for i := len(t.Dims) - 1; i >= 0; i-- {
			elem = reflect.ArrayOf(int(t.Dims[i]), elem)
		}
		return elem, nil
	case Compound:
		return compoundGoType(t)
	}
	return nil, fmt.Errorf("%w: class %s", ErrUnsupported, t.Class)
}

func intGoType(size uint32, signed bool) (reflect.Type, error) {
	switch size {
	case 1:
		if signed {
			return reflect.TypeOf(int8(0)), nil
		}
		return reflect.TypeOf(uint8(0)), nil
	case 2:
		if signed {
			return reflect.TypeOf(int16(0)), nil
		}
		return reflect.TypeOf(uint16(0)), nil
	case 4:
		if signed {
			return reflect.TypeOf(int32(0)), nil
		}
		return reflect.TypeOf(uint32(0)), nil
	case 8:
		if signed {
			return reflect.TypeOf(int64(0)), nil
		}
		return reflect.TypeOf(uint64(0)), nil
	}
	return nil, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, size)
}

// compoundGoType builds a struct whose field offsets match the compound
// exactly. Every gap, including trailing padding, becomes an explicit XPad
// byte array so the struct's encoding/binary size equals the compound size.
func compoundGoType(t *Type) (reflect.Type, error) {
	if len(t.Members) == 0 {
		return nil, fmt.Errorf("%w: compound type has no members", ErrUnsupported)
	}

	var fields []reflect.StructField
	used := make(map[string]bool)
	pos := uintptr(0)
	pad := 0
	addPad := func(n uintptr) {
		name := fmt.Sprintf("XPad%d", pad)
		for used[name] {
			pad++
			name = fmt.Sprintf("XPad%d", pad)
		}
		used[name] = true
		fields = append(fields, reflect.StructField{
			Name: name,
			Type: reflect.ArrayOf(int(n), reflect.TypeOf(byte(0))),
		})
		pad++
	}

	for _, m := range t.Members {
		ft, err := GoType(m.Type)
		if err != nil {
			return nil, fmt.Errorf("compound member %q: %w", m.Name, err)
		}
		off := uintptr(m.Offset)
		if off < pos || off%uintptr(ft.Align()) != 0 {
			return nil, fmt.Errorf("%w: member %q at offset %d is misaligned for %s", ErrUnsupported, m.Name, m.Offset, ft)
		}
		if off > pos {
			addPad(off - pos)
		}
		name := exportName(m.Name)
		for used[name] {
			name += "_"
		}
		used[name] = true
		fields = append(fields, reflect.StructField{Name: name, Type: ft})
		pos = off + ft.Size()
	}
	if end := uintptr(t.Size); pos < end {
		addPad(end - pos)
	}

	st := reflect.StructOf(fields)
	if st.Size() != uintptr(t.Size) {
		return nil, fmt.Errorf("%w: compound of %d bytes maps to %d-byte struct", ErrUnsupported, t.Size, st.Size())
	}
	return st, nil
}

// exportName converts a member name to a valid exported Go field name.
func exportName(name string) string {
	if len(name) == 0 {
		return "Field"
	}

	runes := []rune(name)

	// Capitalize first letter
	if runes[0] >= 'a' && runes[0] <= 'z' {
		runes[0] = runes[0] - 'a' + 'A'
	}

	// Replace invalid characters with underscores
	for i := range runes {
		r := runes[i]
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_') {
			runes[i] = '_'
		}
	}
	if runes[0] == '_' || (runes[0] >= '0' && runes[0] <= '9') {
		return "F" + string(runes)
	}
	return string(runes)
}

func encodeInt(v int64, size uint32) []byte {
	b := binary.LittleEndian.AppendUint64(nil, uint64(v))
	return b[:size]
}

func decodeInt(b []byte, signed bool) int64 {
	var u uint64
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	if signed && len(b) < 8 {
		shift := 64 - 8*uint(len(b))
		return int64(u<<shift) >> shift
	}
	return int64(u)
}
