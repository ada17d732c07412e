package writer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/robert-malhotra/h5stream/config"
	"github.com/robert-malhotra/h5stream/hdf5"
	"github.com/robert-malhotra/h5stream/stream"
	"github.com/robert-malhotra/h5stream/typedesc"
)

// Writer owns one HDF5 file and one stream per record type written to it.
type Writer struct {
	mu      sync.Mutex
	name    string
	path    string
	file    *hdf5.File
	closed  bool
	streams map[reflect.Type]*stream.Stream
	byName  map[string]reflect.Type
	order   []*stream.Stream

	chunkLen uint32
	registry *typedesc.Registry
	log      *slog.Logger
	metrics  *metrics
}

// New creates or truncates <dir>/<name>_<suffix>.<ext> and returns a
// writer with no datasets.
func New(name string, opts ...Option) (*Writer, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	o.resolve()

	if o.superblockVersion != 2 && o.superblockVersion != 3 {
		return nil, fmt.Errorf("%w: %d", config.ErrInvalidSuperblock, o.superblockVersion)
	}
	if o.suffix == "" {
		return nil, config.ErrEmptySuffix
	}
	if o.ext == "" {
		return nil, config.ErrEmptyExtension
	}
	if o.chunkLen > hdf5.MaxChunkLen {
		return nil, fmt.Errorf("%w: %d", config.ErrInvalidChunkLen, o.chunkLen)
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(o.dir, fmt.Sprintf("%s_%s.%s", name, o.suffix, o.ext))
	f, err := hdf5.Create(path,
		hdf5.WithSuperblockVersion(o.superblockVersion),
		hdf5.WithSync(o.sync),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	o.logger.Debug("writer opened", "path", path, "chunk_len", o.chunkLen)

	return &Writer{
		name:     name,
		path:     path,
		file:     f,
		streams:  make(map[reflect.Type]*stream.Stream),
		byName:   make(map[string]reflect.Type),
		chunkLen: o.chunkLen,
		registry: o.registry,
		log:      o.logger,
		metrics:  m,
	}, nil
}

// Write appends rec to the dataset of its type, creating the dataset on
// the first record of that type. A pointer is written as the value it
// points to.
func (w *Writer) Write(rec any) error {
	t := reflect.TypeOf(rec)
	if t == nil {
		return ErrNilRecord
	}
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(rec).IsNil() {
			return ErrNilRecord
		}
		t = t.Elem()
	}
	return w.write(t, rec)
}

// Append is Write with the record type fixed at compile time.
func Append[T any](w *Writer, rec T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch t.Kind() {
	case reflect.Interface:
		return w.Write(rec)
	case reflect.Pointer:
		if reflect.ValueOf(rec).IsNil() {
			return ErrNilRecord
		}
		t = t.Elem()
	}
	return w.write(t, rec)
}

func (w *Writer) write(t reflect.Type, rec any) error {
	s, err := w.streamFor(t)
	if err != nil {
		return err
	}

	data, err := s.Descriptor().Encode(rec)
	if err != nil {
		err = fmt.Errorf("%s: %w", s.Name(), err)
		w.metrics.failed(s.Name())
		w.log.Error("encoding record failed", "dataset", s.Name(), "error", err)
		return err
	}
	if err := s.AppendRaw(data); err != nil {
		w.metrics.failed(s.Name())
		w.log.Error("append failed", "dataset", s.Name(), "error", err)
		return err
	}
	w.metrics.appended(s.Name(), len(data))
	return nil
}

// streamFor returns the stream of t, creating it on first use. Lookup and
// creation happen under one lock, so concurrent first writes of a type
// create one stream.
func (w *Writer) streamFor(t reflect.Type) (*stream.Stream, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if s, ok := w.streams[t]; ok {
		return s, nil
	}

	desc, err := w.registry.Resolve(t)
	if err != nil {
		return nil, err
	}
	if other, ok := w.byName[desc.Name]; ok {
		return nil, fmt.Errorf("%w: %s is used by %v, cannot store %v", ErrCollision, desc.Name, other, t)
	}

	s, err := stream.New(w.file.Root(), desc, stream.WithChunkLen(w.chunkLen))
	if err != nil {
		if stream.IsExists(err) {
			err = fmt.Errorf("%w: %w", ErrCollision, err)
		}
		w.log.Error("creating dataset failed", "dataset", desc.Name, "go_type", desc.QualifiedName(), "error", err)
		return nil, err
	}

	w.streams[t] = s
	w.byName[desc.Name] = t
	w.order = append(w.order, s)
	w.metrics.created(desc.Name)
	w.log.Info("dataset created",
		"dataset", desc.Name,
		"go_type", desc.QualifiedName(),
		"kind", desc.Kind.String(),
		"chunk_len", w.chunkLen,
	)
	return s, nil
}

// Stream returns the stream of t, if one was created.
func (w *Writer) Stream(t reflect.Type) (*stream.Stream, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.streams[t]
	return s, ok
}

// Len returns the number of records written of rec's type.
func (w *Writer) Len(rec any) uint64 {
	t := reflect.TypeOf(rec)
	if t == nil {
		return 0
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := w.Stream(t); ok {
		return s.Len()
	}
	return 0
}

// Types returns the dataset names in creation order.
func (w *Writer) Types() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, len(w.order))
	for i, s := range w.order {
		names[i] = s.Name()
	}
	return names
}

// Name returns the name the writer was created with.
func (w *Writer) Name() string {
	return w.name
}

// Path returns the file path.
func (w *Writer) Path() string {
	return w.path
}

// Flush syncs the file to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.file.Flush()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var records uint64
	for _, s := range w.order {
		records += s.Len()
	}

	if err := w.file.Close(); err != nil {
		w.log.Error("closing writer failed", "path", w.path, "error", err)
		return fmt.Errorf("closing %s: %w", w.path, err)
	}

	attrs := []any{"path", w.path, "datasets", len(w.order), "records", records}
	if info, err := os.Stat(w.path); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size())))
	}
	w.log.Info("writer closed", attrs...)
	return nil
}

// IsCollision reports whether err is a dataset name collision.
func IsCollision(err error) bool {
	return errors.Is(err, ErrCollision)
}
