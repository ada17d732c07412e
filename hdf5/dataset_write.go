package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/message"
	"github.com/robert-malhotra/h5stream/internal/object"
)

// Extend grows the dataset to n elements. New elements read as the fill
// value until written. Shrinking returns ErrShrink.
func (d *Dataset) Extend(n uint64) error {
	f := d.file
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}
	cur := d.space.Dimensions[0]
	if n < cur {
		return fmt.Errorf("%w: %s from %d to %d", ErrShrink, d.name, cur, n)
	}
	if n == cur {
		return nil
	}

	d.space.Dimensions[0] = n
	if err := d.writeHeader(); err != nil {
		d.space.Dimensions[0] = cur
		return err
	}
	return f.commit()
}

// WriteSlab writes whole encoded elements starting at offset. The range
// must lie inside the current extent.
func (d *Dataset) WriteSlab(offset uint64, data []byte) error {
	f := d.file
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}
	if d.chunks == nil {
		return ErrReadOnly
	}

	size := uint64(d.dtype.Size)
	if uint64(len(data))%size != 0 {
		return fmt.Errorf("%s: %d bytes is not a whole number of %d-byte elements", d.name, len(data), size)
	}
	count := uint64(len(data)) / size
	if extent := d.space.Dimensions[0]; offset > extent || count > extent-offset {
		return fmt.Errorf("%w: [%d, %d) of %d in %s", ErrOutOfRange, offset, offset+count, extent, d.name)
	}

	indexChanged := false
	for i := uint64(0); i < count; i++ {
		created, err := d.chunks.WriteElement(offset+i, data[i*size:(i+1)*size])
		if err != nil {
			return fmt.Errorf("writing %s[%d]: %w", d.name, offset+i, err)
		}
		indexChanged = indexChanged || created
	}

	if indexChanged && d.layout.IndexAddress != d.chunks.IndexAddress() {
		d.layout.IndexAddress = d.chunks.IndexAddress()
		if err := d.writeHeader(); err != nil {
			return err
		}
	}
	return f.commit()
}

// messages returns the dataset's header messages in file order.
func (d *Dataset) messages() []message.Encoder {
	msgs := []message.Encoder{d.space, d.dtypeMsg, d.fill, d.layout}
	for _, a := range d.attrs {
		msgs = append(msgs, a)
	}
	return msgs
}

// writeHeader rewrites the object header in place. The caller holds f.mu.
func (d *Dataset) writeHeader() error {
	cfg := d.file.superblock.Config()
	if err := object.Write(d.file.file, d.addr, cfg, d.messages(), d.chunkSize); err != nil {
		return fmt.Errorf("writing %s header: %w", d.name, err)
	}
	return nil
}
