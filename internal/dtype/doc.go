// Package dtype defines the datatype model shared by the public API and the
// on-disk datatype message.
//
// A [Type] describes the fixed-size, little-endian layout of one dataset
// element. Supported classes:
//
//	Class    | Description
//	---------|-----------------------------------------------
//	Integer  | signed or unsigned, 1, 2, 4 or 8 bytes
//	Float    | IEEE 754, 4 or 8 bytes
//	Compound | named members at explicit byte offsets
//	Enum     | named values over an integer base type
//	Array    | fixed-size, possibly multi-dimensional array
//
// # Conversion
//
// [Type.Message] and [FromMessage] convert to and from the datatype header
// message. [GoType] derives a Go type with the same layout and explicit
// padding fields, so encoding/binary can decode elements into it.
package dtype
