// Package object reads and writes HDF5 version 2 object headers.
//
// Every HDF5 object (group or dataset) has an object header holding its
// metadata as a list of header messages. A version 2 header is laid out as:
//
//	"OHDR" | version (2) | flags | chunk#0 size | messages | checksum
//
// where the chunk#0 size counts message bytes only and the trailing
// checksum is lookup3 over everything before it.
//
// # Reserved headers
//
// [Encode] can pad a header to a fixed chunk size with NIL messages. Dataset
// headers are written this way so that later changes to fixed-width fields
// (the current extent, the chunk index address) can be rewritten in place
// without moving the object.
//
// # Usage
//
//	header, err := object.Read(reader, addr)
//	space := header.Dataspace()
//	layout := header.DataLayout()
//
// Or use generic message access:
//
//	msg := header.GetMessage(message.TypeDataspace)
//	allAttrs := header.GetMessages(message.TypeAttribute)
//
// # Errors
//
//   - [ErrInvalidHeader]: Header format not recognized
//   - [ErrUnsupportedVersion]: Header version not supported
//   - [ErrChecksumMismatch]: Header checksum verification failed
//   - [ErrHeaderOverflow]: Messages do not fit the reserved chunk
package object
