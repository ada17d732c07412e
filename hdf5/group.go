package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5stream/internal/message"
)

// Group represents an HDF5 group. Only the root group is supported; its
// links are stored compactly in its object header.
type Group struct {
	file      *File
	addr      uint64 // Object header address
	chunkSize int    // Reserved message bytes in the current header
	links     []*message.Link

	// Datasets opened or created through this group, by name.
	datasets map[string]*Dataset
}

// Name returns the group name.
func (g *Group) Name() string {
	return "/"
}

// Path returns the full path to this group.
func (g *Group) Path() string {
	return "/"
}

// Members returns the names of all links in creation order.
func (g *Group) Members() []string {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()

	names := make([]string, len(g.links))
	for i, l := range g.links {
		names[i] = l.Name
	}
	return names
}

// Has reports whether a link with the given name exists.
func (g *Group) Has(name string) bool {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()
	return g.findLink(name) != nil
}

// Dataset opens the dataset linked under name.
func (g *Group) Dataset(name string) (*Dataset, error) {
	g.file.mu.Lock()
	defer g.file.mu.Unlock()

	if err := g.file.check(); err != nil {
		return nil, err
	}
	if ds, ok := g.datasets[name]; ok {
		return ds, nil
	}

	link := g.findLink(name)
	if link == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !link.IsHard() {
		return nil, fmt.Errorf("%w: %s is not a hard link", ErrUnsupported, name)
	}

	ds, err := g.file.openDatasetAt(link.ObjectAddress, name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	g.datasets[name] = ds
	return ds, nil
}

// Datasets opens every dataset in the group, in creation order.
func (g *Group) Datasets() ([]*Dataset, error) {
	var out []*Dataset
	for _, name := range g.Members() {
		ds, err := g.Dataset(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

func (g *Group) findLink(name string) *message.Link {
	for _, l := range g.links {
		if l.Name == name {
			return l
		}
	}
	return nil
}
