package superblock

import (
	"io"

	binpkg "github.com/robert-malhotra/h5stream/internal/binary"
)

// Encode serializes the superblock, checksum included.
func (sb *Superblock) Encode() []byte {
	w := binpkg.NewWriter(sb.Config())

	w.WriteBytes(Signature)
	version := sb.Version
	if version < 2 {
		version = 2
	}
	w.WriteUint8(version)
	w.WriteUint8(sb.OffsetSize)
	w.WriteUint8(sb.LengthSize)
	w.WriteUint8(sb.FileConsistencyFlags)

	w.WriteOffset(sb.BaseAddress)
	w.WriteOffset(sb.ExtensionAddress)
	w.WriteOffset(sb.EOFAddress)
	w.WriteOffset(sb.RootGroupAddress)

	w.AppendChecksum()
	return w.Bytes()
}

// Write stores the superblock at its file offset.
func (sb *Superblock) Write(dst io.WriterAt) error {
	_, err := dst.WriteAt(sb.Encode(), sb.FileOffset)
	return err
}
