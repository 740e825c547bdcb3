// Package matstore persists degree-weighted matrices in BadgerDB so
// repeated extraction runs over the same network skip the adjacency
// rebuild and reweighting. Entries are keyed by metaedge abbreviation
// plus dampening exponent; a run with a different exponent never sees
// another run's matrices.
//
// Example:
//
//	store, err := matstore.Open(matstore.Options{DataDir: "./cache"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	if m, ok, _ := store.Get("CbG", 0.4); ok {
//		// reuse m
//	}
package matstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/hetmat/pkg/sparse"
)

// Key prefix for weighted-matrix entries; single byte, matching the
// fixed-width key layout badger indexes cheaply.
const prefixWeighted = byte(0x01)

// codecVersion guards the binary CSR layout; bump on format changes so
// stale caches miss instead of decoding garbage.
const codecVersion = uint32(1)

// Options configures the matrix store.
type Options struct {
	// DataDir is the directory for badger's data files. Required
	// unless InMemory is set.
	DataDir string

	// InMemory runs badger without persistence. Useful for tests.
	InMemory bool
}

// Store is a persistent cache of degree-weighted matrices.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) a matrix store.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.DataDir).WithLogger(nil)
	if opts.InMemory {
		bopts = bopts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("matstore: opening badger at %q: %w", opts.DataDir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// key packs (abbrev, w) into a badger key. The exponent is formatted,
// not bit-packed, so keys stay greppable in debugging tools.
func key(abbrev string, w float64) []byte {
	k := []byte{prefixWeighted}
	k = append(k, abbrev...)
	k = append(k, 0x00)
	k = append(k, strconv.FormatFloat(w, 'g', -1, 64)...)
	return k
}

// Get loads the cached matrix for (abbrev, w). ok is false on a cache
// miss; errors are reserved for storage or decoding failures.
func (s *Store) Get(abbrev string, w float64) (m *sparse.Matrix, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(abbrev, w))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeMatrix(val)
			if err != nil {
				return err
			}
			m, ok = decoded, true
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("matstore: get %q: %w", abbrev, err)
	}
	return m, ok, nil
}

// Put stores the matrix under (abbrev, w), replacing any previous entry.
func (s *Store) Put(abbrev string, w float64, m *sparse.Matrix) error {
	data, err := encodeMatrix(m)
	if err != nil {
		return fmt.Errorf("matstore: encode %q: %w", abbrev, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(abbrev, w), data)
	})
	if err != nil {
		return fmt.Errorf("matstore: put %q: %w", abbrev, err)
	}
	return nil
}

// encodeMatrix serializes CSR arrays in a compact fixed-width binary
// layout: version, dims, nnz, then rowPtr/colInd/vals.
func encodeMatrix(m *sparse.Matrix) ([]byte, error) {
	rows, cols, rowPtr, colInd, vals := m.Raw()

	var buf bytes.Buffer
	write := func(v any) error { return binary.Write(&buf, binary.LittleEndian, v) }

	if err := write(codecVersion); err != nil {
		return nil, err
	}
	if err := write(int64(rows)); err != nil {
		return nil, err
	}
	if err := write(int64(cols)); err != nil {
		return nil, err
	}
	if err := write(int64(len(vals))); err != nil {
		return nil, err
	}
	for _, p := range rowPtr {
		if err := write(int64(p)); err != nil {
			return nil, err
		}
	}
	for _, j := range colInd {
		if err := write(int64(j)); err != nil {
			return nil, err
		}
	}
	for _, v := range vals {
		if err := write(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// decodeMatrix is the inverse of encodeMatrix.
func decodeMatrix(data []byte) (*sparse.Matrix, error) {
	buf := bytes.NewReader(data)
	read := func(v any) error { return binary.Read(buf, binary.LittleEndian, v) }

	var version uint32
	if err := read(&version); err != nil {
		return nil, err
	}
	if version != codecVersion {
		return nil, fmt.Errorf("unsupported matrix codec version %d", version)
	}

	var rows, cols, nnz int64
	if err := read(&rows); err != nil {
		return nil, err
	}
	if err := read(&cols); err != nil {
		return nil, err
	}
	if err := read(&nnz); err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 || nnz < 0 {
		return nil, fmt.Errorf("corrupt matrix header %d x %d nnz %d", rows, cols, nnz)
	}

	rowPtr := make([]int, rows+1)
	for i := range rowPtr {
		var p int64
		if err := read(&p); err != nil {
			return nil, err
		}
		rowPtr[i] = int(p)
	}
	colInd := make([]int, nnz)
	for i := range colInd {
		var j int64
		if err := read(&j); err != nil {
			return nil, err
		}
		colInd[i] = int(j)
	}
	vals := make([]float64, nnz)
	for i := range vals {
		if err := read(&vals[i]); err != nil {
			return nil, err
		}
	}
	return sparse.FromRaw(int(rows), int(cols), rowPtr, colInd, vals), nil
}
