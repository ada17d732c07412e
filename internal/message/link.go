package message

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// LinkType represents the type of link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link represents a link message (type 0x0006). Only hard links carry an
// object address; other link kinds are decoded far enough to be skipped.
type Link struct {
	LinkType      LinkType
	Name          string
	ObjectAddress uint64
}

func (m *Link) Type() Type { return TypeLink }

// IsHard returns true if this is a hard link.
func (m *Link) IsHard() bool {
	return m.LinkType == LinkTypeHard
}

// NewHardLink creates a hard link to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{LinkType: LinkTypeHard, Name: name, ObjectAddress: addr}
}

// Encode writes a version 1 hard link message.
func (m *Link) Encode(w *binary.Writer) {
	width, code := lengthWidth(len(m.Name))
	w.WriteUint8(1)
	w.WriteUint8(code)
	w.WriteUintN(uint64(len(m.Name)), width)
	w.WriteBytes([]byte(m.Name))
	w.WriteOffset(m.ObjectAddress)
}

func decodeLink(d *binary.Decoder) (*Link, error) {
	if v := d.Uint8(); v != 1 {
		if err := decodeErr(d); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: link version %d", ErrUnsupportedVersion, v)
	}
	flags := d.Uint8()

	m := &Link{}
	if flags&0x08 != 0 {
		m.LinkType = LinkType(d.Uint8())
	}
	if flags&0x04 != 0 {
		d.Skip(8) // creation order
	}
	if flags&0x10 != 0 {
		d.Skip(1) // character set
	}
	n := int(d.UintN(1 << (flags & 0x03)))
	m.Name = string(d.Bytes(n))

	if m.LinkType == LinkTypeHard {
		m.ObjectAddress = d.Offset()
	}
	return m, decodeErr(d)
}

// lengthWidth returns the byte width of a link name length field and the
// flag bits that announce it.
func lengthWidth(n int) (int, uint8) {
	switch {
	case n <= 0xFF:
		return 1, 0
	case n <= 0xFFFF:
		return 2, 1
	case n <= 0xFFFFFFFF:
		return 4, 2
	default:
		return 8, 3
	}
}
