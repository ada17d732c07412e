package hdf5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/h5stream/internal/alloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.h5")
}

func TestCreateEmptyFile(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	assert.True(t, f.IsWritable())
	assert.Equal(t, 3, f.Version())
	assert.Empty(t, f.Root().Members())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.IsWritable())
	assert.Equal(t, 3, r.Version())
	assert.Empty(t, r.Root().Members())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(info.Size()), r.Size(), "EOF address should match file size")
}

func TestSuperblockVersion2(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, WithSuperblockVersion(2))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 2, r.Version())
}

func TestCreateTruncatesExistingFile(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(4096))
}

func TestCreateInMissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "x.h5"))
	assert.Error(t, err)
}

func TestOpenNotHDF5(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("definitely not an HDF5 file at all"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNotHDF5)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.h5"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClosedFile(t *testing.T) {
	f, err := Create(tempPath(t))
	require.NoError(t, err)
	ds, err := f.Root().CreateGrowableDataset("d", Int(4, true))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "second close is a no-op")

	assert.ErrorIs(t, f.Flush(), ErrClosed)
	assert.ErrorIs(t, ds.Extend(1), ErrClosed)
	assert.ErrorIs(t, ds.WriteSlab(0, make([]byte, 4)), ErrClosed)
	_, err = ds.Read()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Root().Dataset("d")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Root().CreateGrowableDataset("e", Int(4, true))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReadOnlyFile(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateGrowableDataset("d", Int(4, true))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	ds, err := r.Root().Dataset("d")
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Extend(1), ErrReadOnly)
	assert.ErrorIs(t, ds.WriteSlab(0, nil), ErrReadOnly)
	_, err = r.Root().CreateGrowableDataset("e", Int(4, true))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.NoError(t, r.Flush(), "flushing a read-only file is a no-op")
}

func TestFileIsValidAfterEveryCommit(t *testing.T) {
	path := tempPath(t)
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	ds, err := f.Root().CreateGrowableDataset("d", Int(8, true), WithChunkLen(2))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, ds.Extend(uint64(i+1)))
		require.NoError(t, ds.WriteSlab(uint64(i), le64(int64(i))))

		// A reader opened mid-stream sees every committed element.
		r, err := Open(path)
		require.NoError(t, err)
		got, err := r.Root().Dataset("d")
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), got.Len())
		data, err := got.Read()
		require.NoError(t, err)
		assert.Equal(t, le64(int64(i)), data[i*8:])
		require.NoError(t, r.Close())
	}
}

func TestAllocStats(t *testing.T) {
	f, err := Create(tempPath(t))
	require.NoError(t, err)
	defer f.Close()

	before := f.AllocStats()
	ds, err := f.Root().CreateGrowableDataset("d", Int(4, true), WithChunkLen(4))
	require.NoError(t, err)
	require.NoError(t, ds.Extend(1))
	require.NoError(t, ds.WriteSlab(0, le32(1)))

	after := f.AllocStats()
	assert.Greater(t, after.Allocations, before.Allocations)
	assert.Equal(t, uint64(16), after.KindBytes(alloc.Chunk), "one 4x4-byte chunk")
}
