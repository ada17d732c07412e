package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
)

// Type represents an HDF5 header message type.
type Type uint16

// Header message types.
const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeDataLayout               Type = 0x0008
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
)

var (
	// ErrTruncated is returned when a message body ends early.
	ErrTruncated = errors.New("message truncated")

	// ErrUnsupportedVersion is returned for message versions this package
	// cannot decode.
	ErrUnsupportedVersion = errors.New("unsupported message version")

	// ErrUnsupportedClass is returned for datatype or layout classes this
	// package cannot decode or encode.
	ErrUnsupportedClass = errors.New("unsupported class")
)

// Message is implemented by every header message.
type Message interface {
	Type() Type
}

// Encoder is implemented by messages that can be written.
type Encoder interface {
	Message
	Encode(w *binary.Writer)
}

// Size returns the encoded size of msg.
func Size(msg Encoder, cfg binary.Config) int {
	w := binary.NewWriter(cfg)
	msg.Encode(w)
	return w.Len()
}

// Parse decodes a message body.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	d := binary.NewDecoder(data, cfg)

	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = decodeDataspace(d)
	case TypeLinkInfo:
		msg, err = decodeLinkInfo(d)
	case TypeDatatype:
		msg, err = DecodeDatatype(d)
	case TypeFillValue:
		msg, err = decodeFillValue(d)
	case TypeLink:
		msg, err = decodeLink(d)
	case TypeDataLayout:
		msg, err = decodeDataLayout(d)
	case TypeGroupInfo:
		msg, err = decodeGroupInfo(d)
	case TypeAttribute:
		msg, err = decodeAttribute(d)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return msg, nil
}

// Unknown carries an undecoded message body.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Encode writes the body back unchanged.
func (m *Unknown) Encode(w *binary.Writer) { w.WriteBytes(m.data) }

// decodeErr folds a decoder's sticky error into ErrTruncated.
func decodeErr(d *binary.Decoder) error {
	if err := d.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return nil
}
