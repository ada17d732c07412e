// Package btree implements the version 1 B-tree used to index the chunks of
// a chunked dataset.
//
// A v1 chunk B-tree node (signature "TREE", node type 1) holds up to 2K
// children separated by keys. Each key records a chunk's size, filter mask
// and its offset in every dataset dimension plus a trailing zero for the
// element dimension. Leaf children are chunk addresses; internal children
// are addresses of lower nodes.
//
// # Reading
//
//   - [ReadChunkIndex] walks a tree and flattens it into a [ChunkIndex]
//   - [ChunkIndex.FindChunk] locates the chunk covering a coordinate
//
// # Appending
//
// [Appender] grows a tree whose chunks arrive in increasing offset order,
// which is the only order a dataset growing along its first dimension
// produces. It keeps the rightmost node of every level in memory, splits
// into a new right sibling when a node fills, and adds a new root when the
// old root splits. Nodes are always allocated at full size so they can be
// rewritten in place.
package btree
