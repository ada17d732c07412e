// Package layout reads and writes the raw data of one-dimensional chunked
// datasets.
//
// A chunked dataset stores its elements in fixed-size chunks, each a
// separate block in the file, indexed by a version 1 B-tree (see package
// btree). Chunks are allocated lazily: a chunk exists only once an element
// inside it has been written, and any element in an unallocated chunk
// reads back as the dataset's fill value.
//
// # Reading
//
//	c, err := layout.NewChunked(reader, layoutMsg, fill)
//	data, err := c.ReadRange(start, count, extent)
//
// # Writing
//
// [ChunkWriter] writes single elements. Writing into a chunk that does not
// exist yet allocates it, fills it with the fill value and appends it to the
// index. Chunks may only be created in increasing order.
package layout
