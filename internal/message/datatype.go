package message

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// DatatypeClass represents the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0  // Integers
	ClassFloatPoint DatatypeClass = 1  // Floating-point
	ClassTime       DatatypeClass = 2  // Time (rarely used)
	ClassString     DatatypeClass = 3  // Fixed-length strings
	ClassBitfield   DatatypeClass = 4  // Bitfields
	ClassOpaque     DatatypeClass = 5  // Opaque data
	ClassCompound   DatatypeClass = 6  // Compound types (structs)
	ClassReference  DatatypeClass = 7  // References to objects/regions
	ClassEnum       DatatypeClass = 8  // Enumerated types
	ClassVarLen     DatatypeClass = 9  // Variable-length data
	ClassArray      DatatypeClass = 10 // Fixed-size arrays
)

func (c DatatypeClass) String() string {
	switch c {
	case ClassFixedPoint:
		return "integer"
	case ClassFloatPoint:
		return "float"
	case ClassString:
		return "string"
	case ClassCompound:
		return "compound"
	case ClassEnum:
		return "enum"
	case ClassArray:
		return "array"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ByteOrder represents the byte order of numeric types.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// Datatype represents a datatype message (type 0x0003).
type Datatype struct {
	Class   DatatypeClass
	Version uint8
	Size    uint32

	// Fixed-point and floating-point.
	ByteOrder ByteOrder
	Signed    bool

	// Compound.
	Members []CompoundMember

	// Enum and array element type.
	Base *Datatype

	// Enum members; each value is Base.Size bytes.
	EnumNames  []string
	EnumValues [][]byte

	// Array dimensions.
	Dims []uint32

	// String padding and character set (class bits 0-3 and 4-7).
	StringPad uint8
	CharSet   uint8
}

// CompoundMember represents a member of a compound datatype.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// Equal reports whether two datatypes describe the same layout.
func (m *Datatype) Equal(o *Datatype) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Class != o.Class || m.Size != o.Size {
		return false
	}
	switch m.Class {
	case ClassFixedPoint:
		return m.Signed == o.Signed && m.ByteOrder == o.ByteOrder
	case ClassFloatPoint:
		return m.ByteOrder == o.ByteOrder
	case ClassString:
		return m.StringPad == o.StringPad && m.CharSet == o.CharSet
	case ClassCompound:
		if len(m.Members) != len(o.Members) {
			return false
		}
		for i := range m.Members {
			a, b := m.Members[i], o.Members[i]
			if a.Name != b.Name || a.ByteOffset != b.ByteOffset || !a.Type.Equal(b.Type) {
				return false
			}
		}
		return true
	case ClassEnum:
		if !m.Base.Equal(o.Base) || len(m.EnumNames) != len(o.EnumNames) {
			return false
		}
		for i := range m.EnumNames {
			if m.EnumNames[i] != o.EnumNames[i] || !bytes.Equal(m.EnumValues[i], o.EnumValues[i]) {
				return false
			}
		}
		return true
	case ClassArray:
		if len(m.Dims) != len(o.Dims) {
			return false
		}
		for i := range m.Dims {
			if m.Dims[i] != o.Dims[i] {
				return false
			}
		}
		return m.Base.Equal(o.Base)
	}
	return true
}

// DecodeDatatype decodes one datatype, consuming exactly its encoded length.
func DecodeDatatype(d *binary.Decoder) (*Datatype, error) {
	head := d.Uint8()
	bits := uint32(d.Uint8()) | uint32(d.Uint8())<<8 | uint32(d.Uint8())<<16
	dt := &Datatype{
		Class:   DatatypeClass(head & 0x0F),
		Version: head >> 4,
		Size:    d.Uint32(),
	}
	if err := decodeErr(d); err != nil {
		return nil, err
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = bits&0x08 != 0
		d.Skip(4) // bit offset, bit precision

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		d.Skip(12)

	case ClassString:
		dt.StringPad = uint8(bits & 0x0F)
		dt.CharSet = uint8(bits>>4) & 0x0F

	case ClassCompound:
		n := int(bits & 0xFFFF)
		dt.Members = make([]CompoundMember, 0, n)
		for i := 0; i < n; i++ {
			m, err := decodeCompoundMember(d, dt.Version, dt.Size)
			if err != nil {
				return nil, fmt.Errorf("compound member %d: %w", i, err)
			}
			dt.Members = append(dt.Members, m)
		}

	case ClassEnum:
		base, err := DecodeDatatype(d)
		if err != nil {
			return nil, fmt.Errorf("enum base: %w", err)
		}
		dt.Base = base
		n := int(bits & 0xFFFF)
		dt.EnumNames = make([]string, n)
		for i := range dt.EnumNames {
			start := d.Pos()
			dt.EnumNames[i] = d.CString()
			if dt.Version < 3 {
				d.Skip(pad8(d.Pos()-start) - (d.Pos() - start))
			}
		}
		dt.EnumValues = make([][]byte, n)
		for i := range dt.EnumValues {
			dt.EnumValues[i] = append([]byte(nil), d.Bytes(int(base.Size))...)
		}

	case ClassArray:
		ndims := int(d.Uint8())
		if dt.Version < 3 {
			d.Skip(3)
		}
		dt.Dims = make([]uint32, ndims)
		for i := range dt.Dims {
			dt.Dims[i] = d.Uint32()
		}
		if dt.Version < 3 {
			d.Skip(4 * ndims) // permutation indices
		}
		base, err := DecodeDatatype(d)
		if err != nil {
			return nil, fmt.Errorf("array base: %w", err)
		}
		dt.Base = base

	default:
		return nil, fmt.Errorf("%w: datatype %s", ErrUnsupportedClass, dt.Class)
	}
	return dt, decodeErr(d)
}

func decodeCompoundMember(d *binary.Decoder, version uint8, size uint32) (CompoundMember, error) {
	var m CompoundMember

	start := d.Pos()
	m.Name = d.CString()
	if version < 3 {
		// Names are padded to a multiple of eight bytes.
		d.Skip(pad8(d.Pos()-start) - (d.Pos() - start))
	}

	switch version {
	case 1:
		m.ByteOffset = d.Uint32()
		d.Skip(1 + 3 + 4 + 4 + 16) // dimensionality, reserved, permutation, reserved, dims
	case 2:
		m.ByteOffset = d.Uint32()
	default:
		m.ByteOffset = uint32(d.UintN(memberOffsetSize(size)))
	}
	if err := decodeErr(d); err != nil {
		return m, err
	}

	t, err := DecodeDatatype(d)
	if err != nil {
		return m, err
	}
	m.Type = t
	return m, nil
}

// memberOffsetSize returns the width of a v3 compound member offset: the
// fewest bytes that can hold the compound's total size.
func memberOffsetSize(compoundSize uint32) int {
	switch {
	case compoundSize < 1<<8:
		return 1
	case compoundSize < 1<<16:
		return 2
	case compoundSize < 1<<24:
		return 3
	default:
		return 4
	}
}

func pad8(n int) int {
	return (n + 7) &^ 7
}
