package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/robert-malhotra/h5stream/config"
	"github.com/robert-malhotra/h5stream/hdf5"
	"github.com/robert-malhotra/h5stream/typedesc"
)

type Point struct {
	X, Y float64
}

type Sample struct {
	Seq   uint64
	Value float32
	Tint  Color
}

type Color uint8

func (Color) EnumValues() []typedesc.EnumValue {
	return []typedesc.EnumValue{{Name: "RED", Value: 0}, {Name: "GREEN", Value: 1}}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestWriter creates a writer in a temp dir with its own registry.
func newTestWriter(t *testing.T, opts ...Option) *Writer {
	t.Helper()
	base := []Option{
		WithDir(t.TempDir()),
		WithRegistry(typedesc.NewRegistry()),
		WithLogger(discard()),
	}
	w, err := New("demo", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

// readAll opens path and decodes every record of dataset name.
func readAll[T any](t *testing.T, path, name string) []T {
	t.Helper()
	f, err := hdf5.Open(path)
	require.NoError(t, err)
	defer f.Close()

	ds, err := f.Root().Dataset(name)
	require.NoError(t, err)
	data, err := ds.Read()
	require.NoError(t, err)

	desc, err := typedesc.NewRegistry().Resolve(reflect.TypeOf((*T)(nil)).Elem())
	require.NoError(t, err)
	require.True(t, ds.Datatype().Equal(desc.Datatype), "stored %s, want %s", ds.Datatype(), desc.Datatype)

	out := make([]T, ds.Len())
	for i := range out {
		require.NoError(t, desc.Decode(data[i*int(desc.Size):], &out[i]))
	}
	return out
}

func TestFreshFile(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	assert.Equal(t, "demo", w.Name())
	assert.Equal(t, "demo_DxData.h5", filepath.Base(w.Path()))
	require.NoError(t, w.Write(Point{X: 1, Y: 2}))
	require.NoError(t, w.Close())

	f, err := hdf5.Open(w.Path())
	require.NoError(t, err)
	assert.Equal(t, []string{"Point"}, f.Root().Members())
	ds, err := f.Root().Dataset("Point")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ds.Len())
	assert.Equal(t, hdf5.Unlimited, ds.MaxLen())
	assert.Equal(t, uint32(8), ds.ChunkLen())
	require.NoError(t, f.Close())

	assert.Equal(t, []Point{{1, 2}}, readAll[Point](t, w.Path(), "Point"))
}

func TestTruncatesExistingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "demo_DxData.h5")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("junk"), 4096), 0o644))

	w, err := New("demo", WithDir(dir), WithRegistry(typedesc.NewRegistry()), WithLogger(discard()))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := hdf5.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Empty(t, f.Root().Members())
}

func TestTypeIsolationAndMonotonicity(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	for i := 0; i < 30; i++ {
		require.NoError(t, w.Write(Point{X: float64(i)}))
		if i%3 == 0 {
			require.NoError(t, w.Write(Sample{Seq: uint64(i)}))
		}
		assert.Equal(t, uint64(i+1), w.Len(Point{}))
	}
	assert.Equal(t, uint64(30), w.Len(Point{}))
	assert.Equal(t, uint64(10), w.Len(&Sample{}))
	assert.Equal(t, uint64(0), w.Len(Color(0)))
	assert.Equal(t, uint64(0), w.Len(nil))
	assert.Equal(t, []string{"Point", "Sample"}, w.Types())
	require.NoError(t, w.Close())

	points := readAll[Point](t, w.Path(), "Point")
	samples := readAll[Sample](t, w.Path(), "Sample")
	require.Len(t, points, 30)
	require.Len(t, samples, 10)
	for i, s := range samples {
		assert.Equal(t, uint64(i*3), s.Seq)
	}
}

func TestOrderPreservation(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	want := []Sample{{1, 1.5, 1}, {2, 2.5, 0}, {3, 3.5, 1}}
	for _, s := range want {
		require.NoError(t, Append(w, s))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, want, readAll[Sample](t, w.Path(), "Sample"))
}

func TestDescriptorResolvedOnce(t *testing.T) {
	t.Parallel()
	reg := typedesc.NewRegistry()
	w := newTestWriter(t, WithRegistry(reg))

	require.NoError(t, w.Write(Point{}))
	require.NoError(t, w.Write(&Point{}))
	assert.Equal(t, 1, reg.Len())

	s, ok := w.Stream(reflect.TypeOf((*Point)(nil)).Elem())
	require.True(t, ok)
	d, err := reg.Resolve(reflect.TypeOf((*Point)(nil)).Elem())
	require.NoError(t, err)
	assert.Same(t, d, s.Descriptor())
	assert.Equal(t, uint64(2), s.Len())

	_, ok = w.Stream(reflect.TypeOf((*Sample)(nil)).Elem())
	assert.False(t, ok)
}

func TestCollision(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	require.NoError(t, w.Write(Point{1, 2}))

	type Point struct {
		Lat, Lon float32
		Alt      int16
	}
	err := w.Write(Point{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollision)
	assert.True(t, IsCollision(err))

	// The first Point dataset is untouched and still usable.
	require.NoError(t, w.Write(outerPoint(3, 4)))
	assert.Equal(t, []string{"Point"}, w.Types())
	require.NoError(t, w.Close())

	got := readAll[outerPointType](t, w.Path(), "Point")
	assert.Equal(t, []outerPointType{{1, 2}, {3, 4}}, got)
}

type outerPointType = Point

func outerPoint(x, y float64) Point { return Point{X: x, Y: y} }

func TestEnumAndBoolRecords(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	require.NoError(t, w.Write(Color(1)))
	require.NoError(t, w.Write(Color(0)))
	require.NoError(t, w.Write(true))
	require.NoError(t, w.Close())

	assert.Equal(t, []Color{1, 0}, readAll[Color](t, w.Path(), "Color"))
	assert.Equal(t, []bool{true}, readAll[bool](t, w.Path(), "bool"))
}

func TestWriteErrors(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	assert.ErrorIs(t, w.Write(nil), ErrNilRecord)
	assert.ErrorIs(t, w.Write((*Point)(nil)), ErrNilRecord)
	assert.ErrorIs(t, w.Write("text"), typedesc.ErrUnsupportedType)
	assert.ErrorIs(t, w.Write(struct{ A int32 }{1}), typedesc.ErrAnonymousType)
	assert.Empty(t, w.Types(), "failed creations are not cached")

	var rec any = Point{5, 6}
	require.NoError(t, Append(w, rec))
	assert.Equal(t, uint64(1), w.Len(Point{}))
}

func TestAppendPointer(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	p := Point{1, 2}
	require.NoError(t, Append(w, &p))
	require.NoError(t, w.Write(&Point{3, 4}))
	assert.ErrorIs(t, Append(w, (*Point)(nil)), ErrNilRecord)
	assert.Equal(t, []string{"Point"}, w.Types())
	assert.Equal(t, uint64(2), w.Len(Point{}))

	require.NoError(t, w.Close())
	assert.Equal(t, []Point{{1, 2}, {3, 4}}, readAll[Point](t, w.Path(), "Point"))
}

func TestClosed(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)
	require.NoError(t, w.Write(Point{}))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(Point{}), ErrClosed)
	assert.ErrorIs(t, w.Write(Sample{}), ErrClosed)
	assert.ErrorIs(t, w.Flush(), ErrClosed)
	assert.Equal(t, uint64(1), w.Len(Point{}))
}

func TestNewErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	for _, name := range []string{"", "a/b", `a\b`} {
		_, err := New(name, WithDir(dir))
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}

	_, err := New("x", WithDir(dir), WithSuperblockVersion(1))
	assert.ErrorIs(t, err, config.ErrInvalidSuperblock)
	_, err = New("x", WithDir(dir), WithSuffix(""))
	assert.ErrorIs(t, err, config.ErrEmptySuffix)
	_, err = New("x", WithDir(dir), WithExtension(""))
	assert.ErrorIs(t, err, config.ErrEmptyExtension)
	_, err = New("x", WithDir(dir), WithChunkLen(hdf5.MaxChunkLen+1))
	assert.ErrorIs(t, err, config.ErrInvalidChunkLen)
	assert.ErrorIs(t, err, hdf5.ErrChunkLen)
	_, err = New("x", WithDir(filepath.Join(dir, "missing")))
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	w, err := New("run",
		WithDir(dir),
		WithSuffix("Trace"),
		WithExtension("hdf5"),
		WithChunkLen(32),
		WithSuperblockVersion(2),
		WithSync(true),
		WithRegistry(typedesc.NewRegistry()),
		WithLogger(discard()),
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run_Trace.hdf5"), w.Path())
	require.NoError(t, w.Write(Point{}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	f, err := hdf5.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 2, f.Version())
	ds, err := f.Root().Dataset("Point")
	require.NoError(t, err)
	assert.Equal(t, uint32(32), ds.ChunkLen())
	goType, _ := ds.Attr("go_type")
	assert.Equal(t, "github.com/robert-malhotra/h5stream/writer.Point", goType)
}

func TestWithConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Suffix = "Cfg"
	cfg.Dataset.ChunkLen = 4
	cfg.File.SuperblockVersion = 2
	cfg.Log.Level = "error"

	w, err := New("conf", WithConfig(cfg), WithRegistry(typedesc.NewRegistry()))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "conf_Cfg.h5"), w.Path())
	assert.True(t, w.log.Handler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, w.log.Handler().Enabled(context.Background(), slog.LevelInfo))

	require.NoError(t, w.Write(Point{}))
	s, ok := w.Stream(reflect.TypeOf((*Point)(nil)).Elem())
	require.True(t, ok)
	assert.Equal(t, uint32(4), s.Dataset().ChunkLen())
	require.NoError(t, w.Close())

	// Options after WithConfig override it.
	w2, err := New("conf2", WithConfig(cfg), WithChunkLen(16), WithLogger(discard()),
		WithRegistry(typedesc.NewRegistry()))
	require.NoError(t, err)
	defer w2.Close()
	require.NoError(t, w2.Write(Point{}))
	s, _ = w2.Stream(reflect.TypeOf((*Point)(nil)).Elem())
	assert.Equal(t, uint32(16), s.Dataset().ChunkLen())
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()
	w := newTestWriter(t)

	const goroutines, perG = 8, 40
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				assert.NoError(t, w.Write(Sample{Seq: uint64(g*perG + i)}))
				if i%4 == 0 {
					assert.NoError(t, w.Write(Point{X: float64(g)}))
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*perG), w.Len(Sample{}))
	assert.Equal(t, uint64(goroutines*perG/4), w.Len(Point{}))
	assert.Len(t, w.Types(), 2)
	require.NoError(t, w.Close())

	// Every record arrives exactly once; per-goroutine order is kept.
	samples := readAll[Sample](t, w.Path(), "Sample")
	require.Len(t, samples, goroutines*perG)
	seen := make(map[uint64]bool)
	last := make(map[uint64]int64)
	for g := uint64(0); g < uint64(goroutines); g++ {
		last[g] = -1
	}
	for _, s := range samples {
		assert.False(t, seen[s.Seq], "duplicate %d", s.Seq)
		seen[s.Seq] = true
		g := s.Seq / perG
		assert.Greater(t, int64(s.Seq), last[g])
		last[g] = int64(s.Seq)
	}
}

func TestLogging(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	w := newTestWriter(t, WithLogger(logger))

	require.NoError(t, w.Write(Point{}))
	require.NoError(t, w.Write(Point{}))
	require.NoError(t, w.Close())

	out := buf.String()
	assert.Contains(t, out, "msg=\"dataset created\" dataset=Point go_type=github.com/robert-malhotra/h5stream/writer.Point kind=compound chunk_len=8")
	assert.Contains(t, out, "msg=\"writer closed\"")
	assert.Contains(t, out, "datasets=1 records=2 size=")
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	w := newTestWriter(t, WithMeterProvider(mp))

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(Point{}))
	}
	require.NoError(t, w.Write(Sample{}))
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(Point{}), ErrClosed)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(3), sumFor(t, rm, metricRecordsAppended, "Point"))
	assert.Equal(t, int64(1), sumFor(t, rm, metricRecordsAppended, "Sample"))
	assert.Equal(t, int64(3*16), sumFor(t, rm, metricBytesAppended, "Point"))
	assert.Equal(t, int64(1), sumFor(t, rm, metricDatasetsCreated, "Point"))
	assert.Equal(t, int64(1), sumFor(t, rm, metricDatasetsCreated, "Sample"))
}

func TestAppendErrorMetric(t *testing.T) {
	t.Parallel()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	w := newTestWriter(t, WithMeterProvider(mp))

	require.NoError(t, w.Write(Point{}))
	s, ok := w.Stream(reflect.TypeOf((*Point)(nil)).Elem())
	require.True(t, ok)

	// Closing the file underneath the stream makes the next append fail.
	require.NoError(t, w.file.Close())
	err := w.Write(Point{})
	assert.ErrorIs(t, err, hdf5.ErrClosed)
	assert.Error(t, s.Err())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), sumFor(t, rm, metricAppendErrors, "Point"))
}

func TestEncodeErrorMetric(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	w := newTestWriter(t, WithMeterProvider(mp), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	require.NoError(t, w.Write(Point{}))
	err := w.write(reflect.TypeOf((*Point)(nil)).Elem(), Sample{})
	assert.ErrorIs(t, err, typedesc.ErrTypeMismatch)
	assert.Equal(t, uint64(1), w.Len(Point{}))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), sumFor(t, rm, metricAppendErrors, "Point"))
	assert.Contains(t, buf.String(), `msg="encoding record failed" dataset=Point`)
}

// sumFor returns the value of counter name for dataset.
func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name, dataset string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is %T", name, m.Data)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key(attrDataset)); ok && v.AsString() == dataset {
					return dp.Value
				}
			}
		}
	}
	t.Fatalf("no %s data point for %s", name, dataset)
	return 0
}

func ExampleWriter() {
	dir, err := os.MkdirTemp("", "h5stream")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	w, err := New("demo", WithDir(dir), WithLogger(discard()))
	if err != nil {
		panic(err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(Point{X: float64(i), Y: float64(i * i)}); err != nil {
			panic(err)
		}
	}
	fmt.Println(w.Types(), w.Len(Point{}))
	if err := w.Close(); err != nil {
		panic(err)
	}
	// Output: [Point] 3
}
