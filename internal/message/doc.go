// Package message encodes and decodes HDF5 object header messages.
//
// Object headers hold a sequence of typed messages describing an object.
// This package covers the messages a growable chunked dataset and its
// parent group need:
//
//   - Dataspace (0x0001): current and maximum dimensions. See [Dataspace].
//   - Link info (0x0002) and group info (0x000A): mark an object as a
//     new-style group. See [LinkInfo], [GroupInfo].
//   - Datatype (0x0003): element type, including compound, enum and array
//     classes. See [Datatype].
//   - Fill value (0x0005): value of unwritten elements. See [FillValue].
//   - Link (0x0006): hard link from a group to a child. See [Link].
//   - Data layout (0x0008): chunked storage with a v1 B-tree index.
//     See [DataLayout].
//   - Attribute (0x000C): named string attributes. See [Attribute].
//
// Other message types decode to [Unknown] and are carried along untouched.
//
// Every writable message implements [Encoder]; object headers size messages
// by encoding them.
//
//	w := binary.NewWriter(cfg)
//	msg.Encode(w)
//	size := w.Len()
package message
