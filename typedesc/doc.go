// Package typedesc maps Go record types onto HDF5 datatypes.
//
// A Descriptor is built once per Go type by a Registry, the first time the
// type is resolved, and never changes afterwards. Structs become compound
// datatypes whose member offsets are the Go in-memory field offsets, so a
// record is encoded by copying each field to its offset in little-endian
// order. Named integer types with a declared value table become enums.
//
// Supported member types:
//
//	bool                           enum over int8 {FALSE: 0, TRUE: 1}
//	int8 ... int64, uint8 ... uint64, int, uint
//	float32, float64
//	named integers with EnumValues  enum over the integer type
//	[N]T                           array of T
//	struct                         nested compound
//
// Strings, slices, maps, pointers, interfaces, channels, functions, complex
// numbers and uintptr are rejected with ErrUnsupportedType.
//
// Struct tags control member names:
//
//	type Sample struct {
//	    Time   int64   `h5:"t"`  // member "t"
//	    Value  float64          // member "Value"
//	    Cached float64 `h5:"-"`  // not a member, encoded as zero
//	}
package typedesc
