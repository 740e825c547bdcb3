package matstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/hetmat/pkg/sparse"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	m := sparse.FromCOO(3, 4, []sparse.Coord{
		{Row: 0, Col: 1, Val: 0.5},
		{Row: 2, Col: 3, Val: -1.25},
	})
	require.NoError(t, s.Put("CbG", 0.4, m))

	got, ok, err := s.Get("CbG", 0.4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, m.EqualApprox(got, 0))

	rows, cols := got.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 2, got.NNZ())
}

func TestStoreMiss(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("CbG", 0.4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreKeysByExponent(t *testing.T) {
	s := openTestStore(t)

	m4 := sparse.FromCOO(2, 2, []sparse.Coord{{Row: 0, Col: 0, Val: 4}})
	m6 := sparse.FromCOO(2, 2, []sparse.Coord{{Row: 0, Col: 0, Val: 6}})
	require.NoError(t, s.Put("CbG", 0.4, m4))
	require.NoError(t, s.Put("CbG", 0.6, m6))

	got, ok, err := s.Get("CbG", 0.4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4.0, got.At(0, 0))

	got, ok, err = s.Get("CbG", 0.6)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 6.0, got.At(0, 0))

	// Different abbreviation misses.
	_, ok, err = s.Get("GbC", 0.4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreOverwrite(t *testing.T) {
	s := openTestStore(t)

	first := sparse.FromCOO(2, 2, []sparse.Coord{{Row: 0, Col: 1, Val: 1}})
	second := sparse.FromCOO(2, 2, []sparse.Coord{{Row: 1, Col: 0, Val: 2}})
	require.NoError(t, s.Put("Gr>G", 0.4, first))
	require.NoError(t, s.Put("Gr>G", 0.4, second))

	got, ok, err := s.Get("Gr>G", 0.4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, second.EqualApprox(got, 0))
}

func TestStoreEmptyMatrix(t *testing.T) {
	s := openTestStore(t)

	m := sparse.FromCOO(5, 5, nil)
	require.NoError(t, s.Put("DaG", 0, m))

	got, ok, err := s.Get("DaG", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, got.NNZ())
	rows, cols := got.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 5, cols)
}

func TestDecodeMatrixRejectsBadInput(t *testing.T) {
	_, err := decodeMatrix(nil)
	assert.Error(t, err)

	_, err = decodeMatrix([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	assert.Error(t, err, "unknown codec version")
}

func TestStorePersistsToDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	m := sparse.FromCOO(2, 2, []sparse.Coord{{Row: 1, Col: 1, Val: 3}})
	require.NoError(t, s.Put("CtD", 0.4, m))
	require.NoError(t, s.Close())

	s, err = Open(Options{DataDir: dir})
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get("CtD", 0.4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.0, got.At(1, 1))
}
