// Package superblock reads and writes HDF5 version 2 and 3 superblocks.
//
// The superblock is the entry point of every HDF5 file. Versions 2 and 3
// share one layout:
//
//	Offset  Size  Description
//	0       8     Signature (89 48 44 46 0D 0A 1A 0A)
//	8       1     Version (2 or 3)
//	9       1     Size of offsets
//	10      1     Size of lengths
//	11      1     File consistency flags
//	12      O     Base address
//	12+O    O     Superblock extension address
//	12+2O   O     End-of-file address
//	12+3O   O     Root group object header address
//	12+4O   4     Checksum (lookup3)
//
// A growing file rewrites the superblock after every committed change so
// that the end-of-file address always covers the allocated space.
//
// Older version 0/1 superblocks (symbol-table root groups) are rejected
// with [ErrUnsupportedVersion].
package superblock
