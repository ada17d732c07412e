package hdf5

import (
	"github.com/robert-malhotra/h5stream/internal/dtype"
	"github.com/robert-malhotra/h5stream/internal/message"
)

// Datatype describes the layout of one dataset element.
type Datatype = dtype.Type

// Member is a named field of a compound datatype.
type Member = dtype.Member

// EnumMember is a named value of an enum datatype.
type EnumMember = dtype.EnumMember

// Class identifies the kind of a datatype.
type Class = dtype.Class

// Datatype classes.
const (
	ClassInteger  = dtype.Integer
	ClassFloat    = dtype.Float
	ClassCompound = dtype.Compound
	ClassEnum     = dtype.Enum
	ClassArray    = dtype.Array
)

// Unlimited is the maximum length of a growable dataset.
const Unlimited = message.Unlimited

// Int returns a little-endian integer datatype of size bytes.
func Int(size uint32, signed bool) *Datatype { return dtype.IntType(size, signed) }

// Float returns an IEEE float datatype of 4 or 8 bytes.
func Float(size uint32) *Datatype { return dtype.FloatType(size) }

// Compound returns a compound datatype of the given total size.
func Compound(size uint32, members ...Member) *Datatype { return dtype.CompoundType(size, members...) }

// Enum returns an enum datatype over an integer base.
func Enum(base *Datatype, members ...EnumMember) *Datatype { return dtype.EnumType(base, members...) }

// Array returns a fixed-size array datatype.
func Array(base *Datatype, dims ...uint32) *Datatype { return dtype.ArrayType(base, dims...) }
