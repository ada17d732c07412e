// Package alloc hands out file space for HDF5 writing.
//
// Every structure a growing file needs (object headers, B-tree nodes, raw
// data chunks) is placed at the current end-of-file address, which then
// advances. Nothing is ever freed: headers that outgrow their block are
// rewritten elsewhere and the old block is left as dead space.
//
//	a := alloc.New(sbSize)
//	hdr := a.Alloc(alloc.Header, 256)
//	chunk := a.AllocAligned(alloc.Chunk, 8*elemSize, 8)
//
// Per-kind statistics ([Stats]) let callers report how much of the file is
// metadata versus raw data.
package alloc
