package typedesc

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/h5stream/hdf5"
)

// Kind is the category of a record type.
type Kind uint8

const (
	// Compound records are structs.
	Compound Kind = iota + 1
	// Enum records are named integers with a value table, or bools.
	Enum
)

func (k Kind) String() string {
	switch k {
	case Compound:
		return "compound"
	case Enum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field is a top-level member of a compound record.
type Field struct {
	Name     string
	GoName   string
	Offset   uint32
	Size     uint32
	Datatype *hdf5.Datatype
}

// Descriptor is the immutable description of one record type. Descriptors
// are shared; callers must not modify them.
type Descriptor struct {
	// Name is the dataset name: the Go type name, or TypeName() when the
	// type implements TypeNamer.
	Name string

	// GoType is the described type.
	GoType reflect.Type

	Kind Kind

	// Size is the encoded record size in bytes, equal to the Go size.
	Size uint32

	// Fields lists the members of compound records in declaration order.
	Fields []Field

	// Enum lists the named values of enum records.
	Enum []EnumValue

	// Datatype is the HDF5 datatype records are stored as.
	Datatype *hdf5.Datatype

	codec *codec
}

// QualifiedName returns the package-qualified Go type name, e.g.
// "github.com/acme/sensors.Reading".
func (d *Descriptor) QualifiedName() string {
	if pkg := d.GoType.PkgPath(); pkg != "" && d.GoType.Name() != "" {
		return pkg + "." + d.GoType.Name()
	}
	return d.GoType.String()
}

// Encode returns the encoding of rec, which must be a value of GoType or a
// non-nil pointer to one.
func (d *Descriptor) Encode(rec any) ([]byte, error) {
	v, err := d.value(rec)
	if err != nil {
		return nil, err
	}
	return d.EncodeValue(v)
}

// EncodeValue is Encode for a reflect.Value of GoType.
func (d *Descriptor) EncodeValue(v reflect.Value) ([]byte, error) {
	if !v.IsValid() || v.Type() != d.GoType {
		return nil, fmt.Errorf("%w: want %v", ErrTypeMismatch, d.GoType)
	}
	buf := make([]byte, d.Size)
	d.codec.encode(buf, v)
	return buf, nil
}

// Decode sets *rec from the encoding in data. rec must be a non-nil
// pointer to GoType.
func (d *Descriptor) Decode(data []byte, rec any) error {
	v := reflect.ValueOf(rec)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Type().Elem() != d.GoType {
		return fmt.Errorf("%w: want *%v, got %T", ErrTypeMismatch, d.GoType, rec)
	}
	if len(data) < int(d.Size) {
		return fmt.Errorf("%w: %d bytes for %d-byte %s", ErrShortBuffer, len(data), d.Size, d.Name)
	}
	d.codec.decode(data, v.Elem())
	return nil
}

// Zero returns the encoding of the zero record.
func (d *Descriptor) Zero() []byte {
	return make([]byte, d.Size)
}

// EnumName returns the name of enum value v.
func (d *Descriptor) EnumName(v int64) (string, bool) {
	for _, e := range d.Enum {
		if e.Value == v {
			return e.Name, true
		}
	}
	return "", false
}

// Equal reports whether d and o describe the same layout under the same name.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	if d.Name != o.Name || d.Kind != o.Kind || d.Size != o.Size ||
		len(d.Fields) != len(o.Fields) || len(d.Enum) != len(o.Enum) {
		return false
	}
	for i := range d.Fields {
		a, b := d.Fields[i], o.Fields[i]
		if a.Name != b.Name || a.Offset != b.Offset || a.Size != b.Size || !a.Datatype.Equal(b.Datatype) {
			return false
		}
	}
	for i := range d.Enum {
		if d.Enum[i] != o.Enum[i] {
			return false
		}
	}
	return d.Datatype.Equal(o.Datatype)
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", d.Name, d.Kind, d.Size)
}

// value unwraps rec into a value of GoType.
func (d *Descriptor) value(rec any) (reflect.Value, error) {
	v := reflect.ValueOf(rec)
	if v.Kind() == reflect.Pointer && v.Type().Elem() == d.GoType {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil *%v", ErrTypeMismatch, d.GoType)
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != d.GoType {
		return reflect.Value{}, fmt.Errorf("%w: want %v, got %T", ErrTypeMismatch, d.GoType, rec)
	}
	return v, nil
}
