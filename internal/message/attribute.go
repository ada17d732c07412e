package message

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// Attribute represents an attribute message (type 0x000C).
type Attribute struct {
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// NewStringAttribute creates a scalar fixed-length string attribute.
func NewStringAttribute(name, value string) *Attribute {
	data := append([]byte(value), 0)
	return &Attribute{
		Name:      name,
		Datatype:  NewStringDatatype(uint32(len(data))),
		Dataspace: NewScalarDataspace(),
		Data:      data,
	}
}

// StringValue returns the attribute as a string if it is a fixed-length
// string, trimming NUL padding.
func (m *Attribute) StringValue() (string, bool) {
	if m.Datatype == nil || m.Datatype.Class != ClassString {
		return "", false
	}
	b := m.Data
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return string(b), true
}

// Encode writes a version 3 attribute message.
func (m *Attribute) Encode(w *binary.Writer) {
	cfg := w.Config()
	w.WriteUint8(3)
	w.WriteUint8(0)
	w.WriteUint16(uint16(len(m.Name) + 1))
	w.WriteUint16(uint16(Size(m.Datatype, cfg)))
	w.WriteUint16(uint16(Size(m.Dataspace, cfg)))
	w.WriteUint8(0) // ASCII
	w.WriteCString(m.Name)
	m.Datatype.Encode(w)
	m.Dataspace.Encode(w)
	w.WriteBytes(m.Data)
}

func decodeAttribute(d *binary.Decoder) (*Attribute, error) {
	version := d.Uint8()
	d.Skip(1) // reserved (v1) or flags (v2/v3)
	nameSize := int(d.Uint16())
	dtSize := int(d.Uint16())
	dsSize := int(d.Uint16())
	if err := decodeErr(d); err != nil {
		return nil, err
	}

	var padded bool
	switch version {
	case 1:
		padded = true
	case 3:
		d.Skip(1) // name encoding
	default:
		return nil, fmt.Errorf("%w: attribute version %d", ErrUnsupportedVersion, version)
	}

	field := func(n int) []byte {
		if padded {
			b := d.Bytes(n)
			d.Skip(pad8(n) - n)
			return b
		}
		return d.Bytes(n)
	}

	m := &Attribute{}
	name := field(nameSize)
	if len(name) > 0 && name[len(name)-1] == 0 {
		name = name[:len(name)-1]
	}
	m.Name = string(name)

	dtBytes := field(dtSize)
	dsBytes := field(dsSize)
	if err := decodeErr(d); err != nil {
		return nil, err
	}

	dt, err := DecodeDatatype(binary.NewDecoder(dtBytes, d.Config()))
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}
	ds, err := decodeDataspace(binary.NewDecoder(dsBytes, d.Config()))
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}
	m.Datatype = dt
	m.Dataspace = ds

	n := int(ds.NumElements()) * int(dt.Size)
	m.Data = append([]byte(nil), d.Bytes(n)...)
	return m, decodeErr(d)
}
