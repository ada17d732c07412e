// Package stream appends records to a growable one-dimensional dataset.
//
// A Stream owns exactly one dataset. Every successful Append grows it by
// one element at the end:
//
//	L := s.Len()
//	ds.Extend(L + 1)
//	ds.WriteSlab(L, record)
//
// Previously written elements are never moved or rewritten. The stream
// tracks the length in memory; the dataset belongs to the stream alone, so
// the counter always equals the length stored in the file. After a failed
// append the stream is broken and refuses further appends with ErrBroken.
package stream
