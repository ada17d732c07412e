package message

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// Space allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// Fill value write times.
const (
	FillOnAlloc uint8 = 0
	FillNever   uint8 = 1
	FillIfSet   uint8 = 2
)

// FillValue represents a fill value message (type 0x0005).
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	Defined        bool
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

// NewFillValue returns a version 3 fill value message holding value,
// allocated incrementally as chunked datasets are.
func NewFillValue(value []byte) *FillValue {
	return &FillValue{
		Version:        3,
		SpaceAllocTime: AllocIncremental,
		FillWriteTime:  FillIfSet,
		Defined:        true,
		Value:          value,
	}
}

// Encode writes a version 3 fill value message.
func (m *FillValue) Encode(w *binary.Writer) {
	flags := m.SpaceAllocTime&0x03 | (m.FillWriteTime&0x03)<<2
	if m.Defined {
		flags |= 0x20
	} else {
		flags |= 0x10
	}
	w.WriteUint8(3)
	w.WriteUint8(flags)
	if m.Defined {
		w.WriteUint32(uint32(len(m.Value)))
		w.WriteBytes(m.Value)
	}
}

func decodeFillValue(d *binary.Decoder) (*FillValue, error) {
	fv := &FillValue{Version: d.Uint8()}

	switch fv.Version {
	case 1, 2:
		fv.SpaceAllocTime = d.Uint8()
		fv.FillWriteTime = d.Uint8()
		fv.Defined = d.Uint8() != 0
		if fv.Defined && d.Remaining() >= 4 {
			size := int(d.Uint32())
			fv.Value = append([]byte(nil), d.Bytes(size)...)
		}
	case 3:
		flags := d.Uint8()
		fv.SpaceAllocTime = flags & 0x03
		fv.FillWriteTime = (flags >> 2) & 0x03
		if flags&0x20 != 0 {
			fv.Defined = true
			size := int(d.Uint32())
			fv.Value = append([]byte(nil), d.Bytes(size)...)
		}
	default:
		if err := decodeErr(d); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fill value version %d", ErrUnsupportedVersion, fv.Version)
	}
	return fv, decodeErr(d)
}
