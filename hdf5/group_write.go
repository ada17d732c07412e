package hdf5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/layout"
	"github.com/robert-malhotra/h5stream/internal/message"
	"github.com/robert-malhotra/h5stream/internal/object"
)

// CreateGrowableDataset creates a one-dimensional chunked dataset with
// length zero and unlimited maximum length. It returns ErrExists if name is
// already linked in the group.
func (g *Group) CreateGrowableDataset(name string, dt *Datatype, opts ...DatasetOption) (*Dataset, error) {
	f := g.file
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if g.findLink(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}
	if dt == nil || dt.Size == 0 {
		return nil, fmt.Errorf("%w: dataset %s has an empty datatype", ErrUnsupported, name)
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.chunkLen > MaxChunkLen {
		return nil, fmt.Errorf("%w: %d elements exceeds %d", ErrChunkLen, options.chunkLen, MaxChunkLen)
	}
	if size := uint64(options.chunkLen) * uint64(dt.Size); size > maxChunkBytes {
		return nil, fmt.Errorf("%w: %d elements of %d bytes exceed %d bytes", ErrChunkLen, options.chunkLen, dt.Size, uint64(maxChunkBytes))
	}
	fill := options.fill
	if fill == nil {
		fill = dt.Zero()
	}
	if len(fill) != int(dt.Size) {
		return nil, fmt.Errorf("fill value is %d bytes, datatype is %d", len(fill), dt.Size)
	}

	cfg := f.superblock.Config()
	ds := &Dataset{
		file:     f,
		name:     name,
		dtype:    dt,
		dtypeMsg: dt.Message(),
		space:    message.NewSimpleDataspace([]uint64{0}, []uint64{message.Unlimited}),
		fill:     message.NewFillValue(fill),
		layout:   message.NewChunkedLayout([]uint32{options.chunkLen}, dt.Size),
	}
	for _, a := range options.attributes {
		ds.attrs = append(ds.attrs, message.NewStringAttribute(a.name, a.value))
	}
	ds.chunks = layout.NewChunkWriter(f.file, f.allocator, cfg, options.chunkLen, dt.Size, fill)

	// Dataset headers never grow: every later change rewrites fixed-width
	// fields, so the exact size is reserved once.
	ds.chunkSize = object.MessagesSize(cfg, ds.messages())
	ds.addr = f.allocator.Alloc(alloc.Header, uint64(object.EncodedSize(ds.chunkSize)))
	if err := ds.writeHeader(); err != nil {
		return nil, err
	}

	g.links = append(g.links, message.NewHardLink(name, ds.addr))
	if err := g.writeHeader(); err != nil {
		g.links = g.links[:len(g.links)-1]
		return nil, err
	}
	if err := f.commit(); err != nil {
		return nil, err
	}

	g.datasets[name] = ds
	return ds, nil
}

// writeHeader rewrites the group's object header, relocating it when the
// links no longer fit. The caller holds f.mu.
func (g *Group) writeHeader() error {
	f := g.file
	cfg := f.superblock.Config()

	msgs := []message.Encoder{message.NewLinkInfo(), message.NewGroupInfo()}
	for _, l := range g.links {
		msgs = append(msgs, l)
	}

	used := object.MessagesSize(cfg, msgs)
	if g.addr == binary.Undefined || used > g.chunkSize {
		// Relocate with headroom so the next few links fit in place.
		g.chunkSize = max(object.MinGroupChunkSize, used+used/2)
		g.addr = f.allocator.Alloc(alloc.Header, uint64(object.EncodedSize(g.chunkSize)))
	}
	if err := object.Write(f.file, g.addr, cfg, msgs, g.chunkSize); err != nil {
		return fmt.Errorf("writing group header: %w", err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
