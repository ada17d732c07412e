package typedesc

import (
	"fmt"
	"math"
	"reflect"
)

// EnumValue is one named value of an enum type.
type EnumValue struct {
	Name  string
	Value int64
}

// Enumerator is implemented by named integer types that describe their
// complete set of named values. EnumValues is called on the zero value.
//
//	type Color uint8
//
//	func (Color) EnumValues() []typedesc.EnumValue {
//	    return []typedesc.EnumValue{{"RED", 0}, {"GREEN", 1}, {"BLUE", 2}}
//	}
type Enumerator interface {
	EnumValues() []EnumValue
}

// TypeNamer overrides the dataset name of a record type. Anonymous struct
// types must implement it.
type TypeNamer interface {
	TypeName() string
}

var (
	enumeratorType = reflect.TypeOf((*Enumerator)(nil)).Elem()
	typeNamerType  = reflect.TypeOf((*TypeNamer)(nil)).Elem()
)

// boolValues is the value table of bool members.
var boolValues = []EnumValue{{Name: "FALSE", Value: 0}, {Name: "TRUE", Value: 1}}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// implementer returns a value of t (or *t) that implements iface.
func implementer(t, iface reflect.Type) (any, bool) {
	if t.Implements(iface) {
		return reflect.Zero(t).Interface(), true
	}
	if reflect.PointerTo(t).Implements(iface) {
		return reflect.New(t).Interface(), true
	}
	return nil, false
}

// declaredEnumValues returns the values t declares through Enumerator.
func declaredEnumValues(t reflect.Type) ([]EnumValue, bool) {
	v, ok := implementer(t, enumeratorType)
	if !ok {
		return nil, false
	}
	return v.(Enumerator).EnumValues(), true
}

// validateEnum checks that values is a usable value table for t.
func validateEnum(t reflect.Type, values []EnumValue) error {
	if !isInteger(t.Kind()) {
		return fmt.Errorf("%w: %v is not an integer type", ErrInvalidEnum, t)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: %v has no values", ErrInvalidEnum, t)
	}

	lo, hi := intRange(t)
	names := make(map[string]bool, len(values))
	seen := make(map[int64]bool, len(values))
	for _, v := range values {
		if v.Name == "" {
			return fmt.Errorf("%w: %v has an unnamed value", ErrInvalidEnum, t)
		}
		if names[v.Name] {
			return fmt.Errorf("%w: %v repeats name %q", ErrInvalidEnum, t, v.Name)
		}
		if seen[v.Value] {
			return fmt.Errorf("%w: %v repeats value %d", ErrInvalidEnum, t, v.Value)
		}
		if v.Value < lo || (hi >= 0 && v.Value > hi) {
			return fmt.Errorf("%w: %v value %s=%d out of range", ErrInvalidEnum, t, v.Name, v.Value)
		}
		names[v.Name] = true
		seen[v.Value] = true
	}
	return nil
}

// intRange returns the representable range of integer type t. hi is -1
// when every non-negative int64 fits.
func intRange(t reflect.Type) (lo, hi int64) {
	bits := t.Bits()
	if isSigned(t.Kind()) {
		if bits == 64 {
			return math.MinInt64, math.MaxInt64
		}
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	if bits == 64 {
		return 0, -1
	}
	return 0, 1<<bits - 1
}
