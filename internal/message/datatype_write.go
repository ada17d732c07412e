package message

import (
	"github.com/robert-malhotra/h5stream/internal/binary"
)

// Encode writes the datatype. Atomic classes use version 1; compound, enum
// and array use version 3, which drops the v1/v2 name padding.
func (m *Datatype) Encode(w *binary.Writer) {
	version := uint8(1)
	switch m.Class {
	case ClassCompound, ClassEnum, ClassArray:
		version = 3
	}
	w.WriteUint8(uint8(m.Class) | version<<4)
	w.WriteUintN(uint64(m.classBits()), 3)
	w.WriteUint32(m.Size)

	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		w.WriteUint16(0)
		w.WriteUint16(uint16(m.Size * 8))

	case ClassFloatPoint:
		writeIEEEProperties(w, m.Size)

	case ClassCompound:
		offsetSize := memberOffsetSize(m.Size)
		for _, member := range m.Members {
			w.WriteCString(member.Name)
			w.WriteUintN(uint64(member.ByteOffset), offsetSize)
			member.Type.Encode(w)
		}

	case ClassEnum:
		m.Base.Encode(w)
		for _, name := range m.EnumNames {
			w.WriteCString(name)
		}
		for _, v := range m.EnumValues {
			w.WriteBytes(v)
		}

	case ClassArray:
		w.WriteUint8(uint8(len(m.Dims)))
		for _, d := range m.Dims {
			w.WriteUint32(d)
		}
		m.Base.Encode(w)
	}
}

func (m *Datatype) classBits() uint32 {
	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		bits := uint32(m.ByteOrder)
		if m.Signed {
			bits |= 0x08
		}
		return bits
	case ClassFloatPoint:
		// Byte order, implied-MSB mantissa normalization, sign bit position.
		return uint32(m.ByteOrder) | 2<<4 | (m.Size*8-1)<<8
	case ClassString:
		return uint32(m.StringPad&0x0F) | uint32(m.CharSet&0x0F)<<4
	case ClassCompound:
		return uint32(len(m.Members))
	case ClassEnum:
		return uint32(len(m.EnumNames))
	}
	return 0
}

// writeIEEEProperties writes the 12-byte IEEE 754 float description:
// bit offset, precision, exponent location/size, mantissa location/size,
// exponent bias.
func writeIEEEProperties(w *binary.Writer, size uint32) {
	switch size {
	case 4:
		w.WriteUint16(0)
		w.WriteUint16(32)
		w.WriteBytes([]byte{23, 8, 0, 23})
		w.WriteUint32(127)
	case 8:
		w.WriteUint16(0)
		w.WriteUint16(64)
		w.WriteBytes([]byte{52, 11, 0, 52})
		w.WriteUint32(1023)
	default:
		w.WriteZeros(12)
	}
}

// NewFixedPointDatatype creates a little-endian integer datatype.
func NewFixedPointDatatype(size uint32, signed bool) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Version: 1, Size: size, Signed: signed}
}

// NewFloatDatatype creates a little-endian IEEE float datatype (4 or 8 bytes).
func NewFloatDatatype(size uint32) *Datatype {
	return &Datatype{Class: ClassFloatPoint, Version: 1, Size: size}
}

// NewStringDatatype creates a fixed-length, NUL-terminated ASCII string type.
func NewStringDatatype(size uint32) *Datatype {
	return &Datatype{Class: ClassString, Version: 1, Size: size}
}

// NewCompoundDatatype creates a compound datatype of the given total size.
func NewCompoundDatatype(size uint32, members []CompoundMember) *Datatype {
	return &Datatype{Class: ClassCompound, Version: 3, Size: size, Members: members}
}

// NewEnumDatatype creates an enum over an integer base type. values[i] is
// the little-endian encoding of names[i] in base.Size bytes.
func NewEnumDatatype(base *Datatype, names []string, values [][]byte) *Datatype {
	return &Datatype{
		Class:      ClassEnum,
		Version:    3,
		Size:       base.Size,
		Base:       base,
		EnumNames:  names,
		EnumValues: values,
	}
}

// NewArrayDatatype creates a fixed-size array of base.
func NewArrayDatatype(dims []uint32, base *Datatype) *Datatype {
	n := uint32(1)
	for _, d := range dims {
		n *= d
	}
	return &Datatype{Class: ClassArray, Version: 3, Size: n * base.Size, Dims: dims, Base: base}
}
