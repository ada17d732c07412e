package message

import (
	"github.com/robert-malhotra/h5stream/internal/binary"
)

// LinkInfo represents a link info message (type 0x0002). Its presence
// marks an object header as a group that stores links compactly.
type LinkInfo struct {
	Flags             uint8
	MaxCreationIndex  uint64
	FractalHeapAddr   uint64
	NameIndexAddr     uint64
	CreationIndexAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo creates a link info message with no dense storage.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{
		FractalHeapAddr: binary.Undefined,
		NameIndexAddr:   binary.Undefined,
	}
}

// Encode writes a version 0 link info message.
func (m *LinkInfo) Encode(w *binary.Writer) {
	w.WriteUint8(0)
	w.WriteUint8(m.Flags)
	if m.Flags&0x01 != 0 {
		w.WriteUint64(m.MaxCreationIndex)
	}
	w.WriteOffset(m.FractalHeapAddr)
	w.WriteOffset(m.NameIndexAddr)
	if m.Flags&0x02 != 0 {
		w.WriteOffset(m.CreationIndexAddr)
	}
}

func decodeLinkInfo(d *binary.Decoder) (*LinkInfo, error) {
	d.Skip(1) // version
	m := &LinkInfo{Flags: d.Uint8()}
	if m.Flags&0x01 != 0 {
		m.MaxCreationIndex = d.Uint64()
	}
	m.FractalHeapAddr = d.Offset()
	m.NameIndexAddr = d.Offset()
	if m.Flags&0x02 != 0 {
		m.CreationIndexAddr = d.Offset()
	}
	return m, decodeErr(d)
}

// GroupInfo represents a group info message (type 0x000A).
type GroupInfo struct {
	Flags           uint8
	MaxCompactLinks uint16
	MinDenseLinks   uint16
	EstNumEntries   uint16
	EstLinkNameLen  uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// NewGroupInfo creates a group info message with library defaults.
func NewGroupInfo() *GroupInfo {
	return &GroupInfo{}
}

// Encode writes a version 0 group info message.
func (m *GroupInfo) Encode(w *binary.Writer) {
	w.WriteUint8(0)
	w.WriteUint8(m.Flags)
	if m.Flags&0x01 != 0 {
		w.WriteUint16(m.MaxCompactLinks)
		w.WriteUint16(m.MinDenseLinks)
	}
	if m.Flags&0x02 != 0 {
		w.WriteUint16(m.EstNumEntries)
		w.WriteUint16(m.EstLinkNameLen)
	}
}

func decodeGroupInfo(d *binary.Decoder) (*GroupInfo, error) {
	d.Skip(1) // version
	m := &GroupInfo{Flags: d.Uint8()}
	if m.Flags&0x01 != 0 {
		m.MaxCompactLinks = d.Uint16()
		m.MinDenseLinks = d.Uint16()
	}
	if m.Flags&0x02 != 0 {
		m.EstNumEntries = d.Uint16()
		m.EstLinkNameLen = d.Uint16()
	}
	return m, decodeErr(d)
}
