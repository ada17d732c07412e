package object

import (
	"errors"

	"github.com/robert-malhotra/h5stream/internal/message"
)

// SignatureV2 opens every version 2 object header.
var SignatureV2 = []byte{'O', 'H', 'D', 'R'}

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
	ErrHeaderOverflow     = errors.New("object header messages exceed reserved size")
)

// Header represents a parsed HDF5 object header.
type Header struct {
	// Version is the object header version (always 2).
	Version uint8

	// Address is the file address where this header was found.
	Address uint64

	// Flags contains the header flags byte.
	Flags uint8

	// ChunkSize is the size of chunk#0 in bytes, messages and padding only.
	ChunkSize int

	// Messages contains all non-NIL header messages in file order.
	Messages []message.Message
}

// GetMessage returns the first message of the given type, or nil if not found.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

// Dataspace returns the dataspace message if present.
func (h *Header) Dataspace() *message.Dataspace {
	msg, _ := h.GetMessage(message.TypeDataspace).(*message.Dataspace)
	return msg
}

// Datatype returns the datatype message if present.
func (h *Header) Datatype() *message.Datatype {
	msg, _ := h.GetMessage(message.TypeDatatype).(*message.Datatype)
	return msg
}

// DataLayout returns the data layout message if present.
func (h *Header) DataLayout() *message.DataLayout {
	msg, _ := h.GetMessage(message.TypeDataLayout).(*message.DataLayout)
	return msg
}

// FillValue returns the fill value message if present.
func (h *Header) FillValue() *message.FillValue {
	msg, _ := h.GetMessage(message.TypeFillValue).(*message.FillValue)
	return msg
}

// Links returns the link messages of a compact group.
func (h *Header) Links() []*message.Link {
	var links []*message.Link
	for _, msg := range h.GetMessages(message.TypeLink) {
		if l, ok := msg.(*message.Link); ok {
			links = append(links, l)
		}
	}
	return links
}

// Attributes returns the attribute messages.
func (h *Header) Attributes() []*message.Attribute {
	var attrs []*message.Attribute
	for _, msg := range h.GetMessages(message.TypeAttribute) {
		if a, ok := msg.(*message.Attribute); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool {
	return h.GetMessage(message.TypeLinkInfo) != nil || h.GetMessage(message.TypeSymbolTable) != nil
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.Dataspace() != nil && h.Datatype() != nil && h.DataLayout() != nil
}
