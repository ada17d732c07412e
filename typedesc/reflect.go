package typedesc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/robert-malhotra/h5stream/hdf5"
)

// tagName is the struct tag that renames or skips members.
const tagName = "h5"

// member is an exported, non-skipped struct field.
type member struct {
	name  string
	field reflect.StructField
}

// members returns the fields of struct type t that become compound members.
func members(t reflect.Type) ([]member, error) {
	var out []member
	names := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Name == "_" {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup(tagName); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if names[name] {
			return nil, fmt.Errorf("%w: %v has two members named %q", ErrUnsupportedType, t, name)
		}
		names[name] = true
		out = append(out, member{name: name, field: f})
	}
	return out, nil
}

// compile builds the datatype and codec of t. path names the member being
// compiled, for error messages. The caller holds r.mu.
func (r *Registry) compile(t reflect.Type, path string) (*hdf5.Datatype, *codec, error) {
	c := &codec{kind: t.Kind(), size: t.Size()}

	switch k := t.Kind(); {
	case k == reflect.Bool:
		return hdf5.Enum(hdf5.Int(1, true), toMembers(boolValues)...), c, nil

	case isInteger(k):
		base := hdf5.Int(uint32(t.Size()), isSigned(k))
		values, ok, err := r.enumValuesLocked(t)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			return hdf5.Enum(base, toMembers(values)...), c, nil
		}
		return base, c, nil

	case k == reflect.Float32, k == reflect.Float64:
		return hdf5.Float(uint32(t.Size())), c, nil

	case k == reflect.Array:
		if t.Len() == 0 {
			return nil, nil, fmt.Errorf("%w: %s: zero-length array", ErrUnsupportedType, path)
		}
		elem, ec, err := r.compile(t.Elem(), path+"[]")
		if err != nil {
			return nil, nil, err
		}
		c.elem, c.length = ec, t.Len()

		// [N][M]T is one N x M array rather than an array of arrays.
		dims := []uint32{uint32(t.Len())}
		if elem.Class == hdf5.ClassArray {
			dims = append(dims, elem.Dims...)
			elem = elem.Base
		}
		return hdf5.Array(elem, dims...), c, nil

	case k == reflect.Struct:
		ms, err := members(t)
		if err != nil {
			return nil, nil, err
		}
		if len(ms) == 0 {
			return nil, nil, fmt.Errorf("%w: %s: struct %v has no exported fields", ErrUnsupportedType, path, t)
		}
		var hm []hdf5.Member
		for _, m := range ms {
			dt, fc, err := r.compile(m.field.Type, path+"."+m.name)
			if err != nil {
				return nil, nil, err
			}
			hm = append(hm, hdf5.Member{Name: m.name, Offset: uint32(m.field.Offset), Type: dt})
			c.fields = append(c.fields, fieldCodec{index: m.field.Index[0], offset: m.field.Offset, codec: fc})
		}
		return hdf5.Compound(uint32(t.Size()), hm...), c, nil
	}

	return nil, nil, fmt.Errorf("%w: %s has kind %v", ErrUnsupportedType, path, t.Kind())
}

// enumValuesLocked returns the value table of integer type t, if it has
// one, and records t as read by the current build. The caller holds r.mu.
func (r *Registry) enumValuesLocked(t reflect.Type) ([]EnumValue, bool, error) {
	r.pending = append(r.pending, t)
	if values, ok := r.enums[t]; ok {
		return values, true, nil
	}
	values, ok := declaredEnumValues(t)
	if !ok {
		return nil, false, nil
	}
	if err := validateEnum(t, values); err != nil {
		return nil, false, err
	}
	return values, true, nil
}

// typeName returns the dataset name of record type t.
func typeName(t reflect.Type) (string, error) {
	if v, ok := implementer(t, typeNamerType); ok {
		if name := v.(TypeNamer).TypeName(); name != "" {
			return name, nil
		}
	}
	if t.Name() == "" {
		return "", fmt.Errorf("%w: %v", ErrAnonymousType, t)
	}
	return t.Name(), nil
}

func toMembers(values []EnumValue) []hdf5.EnumMember {
	out := make([]hdf5.EnumMember, len(values))
	for i, v := range values {
		out[i] = hdf5.EnumMember{Name: v.Name, Value: v.Value}
	}
	return out
}
