package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/message"
)

/*
Version 2 Object Header Layout:
Offset  Size  Description
0       4     Signature ("OHDR")
4       1     Version (2)
5       1     Flags
              Bit 0-1: Size of chunk#0 size field (1 << value bytes)
              Bit 2: Track attribute creation order
              Bit 4: Store non-default attribute storage phase change values
              Bit 5: Store access, modification, change, birth times
6       var   Times (16 bytes, if flag bit 5 set)
var     var   Attribute phase change values (4 bytes, if flag bit 4 set)
var     1-8   Size of chunk#0
var     var   Header messages
var     4     Checksum

Each message:
0       1     Message type
1       2     Size of message data
3       1     Flags
4       var   Creation order (2 bytes, if header flag bit 2 set)
var     var   Message data
*/

// Read parses the version 2 object header at address and verifies its
// checksum. Continuation blocks are not followed.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	lead, err := r.ReadAt(address, 6)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	if !bytes.Equal(lead[:4], SignatureV2) {
		if lead[0] == 1 {
			return nil, fmt.Errorf("%w: version 1 header at %d", ErrUnsupportedVersion, address)
		}
		return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
	}
	if lead[4] != 2 {
		return nil, fmt.Errorf("%w: expected version 2, got %d", ErrUnsupportedVersion, lead[4])
	}

	flags := lead[5]
	prefix := 6
	if flags&0x20 != 0 {
		prefix += 16
	}
	if flags&0x10 != 0 {
		prefix += 4
	}
	sizeFieldSize := 1 << (flags & 0x03)

	field, err := r.ReadAt(address+uint64(prefix), sizeFieldSize)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	chunkSize := int(binary.DecodeUint(field))
	prefix += sizeFieldSize

	block, err := r.ReadAt(address, prefix+chunkSize+4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	if !binary.VerifyLookup3(block) {
		return nil, fmt.Errorf("%w at address %d", ErrChecksumMismatch, address)
	}

	hdr := &Header{
		Version:   2,
		Address:   address,
		Flags:     flags,
		ChunkSize: chunkSize,
	}

	msgs, err := readMessages(block[prefix:prefix+chunkSize], r.Config(), flags&0x04 != 0)
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	hdr.Messages = msgs
	return hdr, nil
}

func readMessages(chunk []byte, cfg binary.Config, trackCreationOrder bool) ([]message.Message, error) {
	headerSize := 4
	if trackCreationOrder {
		headerSize += 2
	}

	d := binary.NewDecoder(chunk, cfg)
	var msgs []message.Message
	// A tail shorter than a message header is a gap, not a message.
	for d.Remaining() >= headerSize {
		typ := message.Type(d.Uint8())
		size := int(d.Uint16())
		d.Skip(1) // flags
		if trackCreationOrder {
			d.Skip(2)
		}
		data := d.Bytes(size)
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}

		switch typ {
		case message.TypeNIL:
			continue
		case message.TypeObjectHeaderContinuation:
			return nil, fmt.Errorf("%w: continuation blocks", ErrUnsupportedVersion)
		}

		msg, err := message.Parse(typ, data, cfg)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
