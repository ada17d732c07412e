package typedesc

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry builds and caches descriptors. It is safe for concurrent use.
// A descriptor is built on the first Resolve of its type and returned
// unchanged by every later call.
type Registry struct {
	mu    sync.Mutex
	descs map[reflect.Type]*Descriptor
	enums map[reflect.Type][]EnumValue

	// used holds every integer type a cached descriptor was built from.
	used map[reflect.Type]bool

	// pending collects the integer types read by the build in progress.
	// They join used only if the build succeeds.
	pending []reflect.Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descs: make(map[reflect.Type]*Descriptor),
		enums: make(map[reflect.Type][]EnumValue),
		used:  make(map[reflect.Type]bool),
	}
}

// Default is the registry used by the package-level functions.
var Default = NewRegistry()

// Resolve returns the descriptor of t, building it on first use.
func (r *Registry) Resolve(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.descs[t]; ok {
		return d, nil
	}
	r.pending = r.pending[:0]
	d, err := r.build(t)
	if err != nil {
		return nil, err
	}
	for _, u := range r.pending {
		r.used[u] = true
	}
	r.descs[t] = d
	return d, nil
}

// ResolveValue returns the descriptor of rec's type. A pointer resolves to
// the type it points to.
func (r *Registry) ResolveValue(rec any) (*Descriptor, error) {
	t := reflect.TypeOf(rec)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.Resolve(t)
}

// MustRegister resolves the type of every record and panics on the first
// failure. It is meant for package initialization, so unsupported record
// types fail at startup rather than at the first write.
func (r *Registry) MustRegister(recs ...any) {
	for _, rec := range recs {
		if _, err := r.ResolveValue(rec); err != nil {
			panic(fmt.Sprintf("typedesc: %v", err))
		}
	}
}

// RegisterEnum declares the value table of integer type t, for types that
// cannot implement Enumerator. It must be called before any descriptor
// that uses t is built.
func (r *Registry) RegisterEnum(t reflect.Type, values ...EnumValue) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidEnum)
	}
	if err := validateEnum(t, values); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.used[t] {
		return fmt.Errorf("%w: %v", ErrAlreadyResolved, t)
	}
	r.enums[t] = append([]EnumValue(nil), values...)
	return nil
}

// Len returns the number of cached descriptors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.descs)
}

// Names returns the names of the cached descriptors, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.descs))
	for _, d := range r.descs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// build reflects t into a new descriptor. The caller holds r.mu.
func (r *Registry) build(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{GoType: t, Size: uint32(t.Size())}

	switch k := t.Kind(); {
	case k == reflect.Struct:
		d.Kind = Compound
	case k == reflect.Bool:
		d.Kind = Enum
		d.Enum = boolValues
	case isInteger(k):
		values, ok, err := r.enumValuesLocked(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %v is neither a struct nor an enum", ErrUnsupportedType, t)
		}
		d.Kind = Enum
		d.Enum = values
	default:
		return nil, fmt.Errorf("%w: %v is neither a struct nor an enum", ErrUnsupportedType, t)
	}

	name, err := typeName(t)
	if err != nil {
		return nil, err
	}
	d.Name = name

	dt, c, err := r.compile(t, name)
	if err != nil {
		return nil, err
	}
	d.Datatype, d.codec = dt, c

	if d.Kind == Compound {
		for i, m := range dt.Members {
			d.Fields = append(d.Fields, Field{
				Name:     m.Name,
				GoName:   t.Field(c.fields[i].index).Name,
				Offset:   m.Offset,
				Size:     m.Type.Size,
				Datatype: m.Type,
			})
		}
	}
	return d, nil
}

// Resolve resolves t in the Default registry.
func Resolve(t reflect.Type) (*Descriptor, error) {
	return Default.Resolve(t)
}

// For resolves T in the Default registry.
func For[T any]() (*Descriptor, error) {
	return Default.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

// MustRegister registers record types in the Default registry.
func MustRegister(recs ...any) {
	Default.MustRegister(recs...)
}

// RegisterEnum declares an enum value table in the Default registry.
func RegisterEnum(t reflect.Type, values ...EnumValue) error {
	return Default.RegisterEnum(t, values...)
}
