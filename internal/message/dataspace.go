package message

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// DataspaceType represents the type of dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0 // Single element
	DataspaceSimple DataspaceType = 1 // Regular N-dimensional array
	DataspaceNull   DataspaceType = 2 // No data
)

// Unlimited marks a dimension with no maximum size.
const Unlimited = binary.Undefined

// Dataspace represents a dataspace message (type 0x0001).
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil means same as Dimensions
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int {
	return len(m.Dimensions)
}

// NumElements returns the total number of elements in the dataspace.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceNull:
		return 0
	case DataspaceScalar:
		return 1
	}
	if len(m.Dimensions) == 0 {
		return 0
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		n *= d
	}
	return n
}

// IsUnlimited reports whether dimension i has no maximum.
func (m *Dataspace) IsUnlimited(i int) bool {
	return m.MaxDims != nil && i < len(m.MaxDims) && m.MaxDims[i] == Unlimited
}

// NewSimpleDataspace creates a simple dataspace. maxDims may be nil.
func NewSimpleDataspace(dims, maxDims []uint64) *Dataspace {
	return &Dataspace{
		Version:    2,
		SpaceType:  DataspaceSimple,
		Dimensions: dims,
		MaxDims:    maxDims,
	}
}

// NewScalarDataspace creates a scalar dataspace.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}

// Encode writes a version 2 dataspace message.
func (m *Dataspace) Encode(w *binary.Writer) {
	var flags uint8
	if m.MaxDims != nil {
		flags |= 0x01
	}
	w.WriteUint8(2)
	w.WriteUint8(uint8(len(m.Dimensions)))
	w.WriteUint8(flags)
	w.WriteUint8(uint8(m.SpaceType))
	for _, d := range m.Dimensions {
		w.WriteLength(d)
	}
	for _, d := range m.MaxDims {
		w.WriteLength(d)
	}
}

func decodeDataspace(d *binary.Decoder) (*Dataspace, error) {
	ds := &Dataspace{Version: d.Uint8()}
	rank := int(d.Uint8())
	flags := d.Uint8()

	switch ds.Version {
	case 1:
		d.Skip(5)
		ds.SpaceType = DataspaceSimple
		if rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(d.Uint8())
	default:
		if err := decodeErr(d); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupportedVersion, ds.Version)
	}

	if ds.SpaceType == DataspaceSimple && rank > 0 {
		ds.Dimensions = make([]uint64, rank)
		for i := range ds.Dimensions {
			ds.Dimensions[i] = d.Length()
		}
		if flags&0x01 != 0 {
			ds.MaxDims = make([]uint64, rank)
			for i := range ds.MaxDims {
				ds.MaxDims[i] = d.Length()
			}
		}
	}
	return ds, decodeErr(d)
}
