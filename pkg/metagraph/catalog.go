package metagraph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CatalogEntry is one record of a precomputed metapath catalog, the
// JSON format produced by earlier published feature sets. When a
// catalog is supplied it substitutes enumeration entirely and is
// trusted verbatim; entries are not re-derived or re-filtered.
type CatalogEntry struct {
	Abbreviation      string   `json:"abbreviation"`
	Length            int      `json:"length"`
	Edges             []string `json:"edges"`
	EdgeAbbreviations []string `json:"edge_abbreviations"`
	StandardAbbrevs   []string `json:"standard_edge_abbreviations"`
}

// LoadCatalog decodes a metapath catalog from r and converts each entry
// into a Metapath. Entry order is preserved. Fails when an entry's
// edge abbreviations cannot be parsed or do not chain.
func LoadCatalog(r io.Reader) ([]*Metapath, error) {
	var entries []CatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding metapath catalog: %w", err)
	}

	paths := make([]*Metapath, 0, len(entries))
	for _, e := range entries {
		mp, err := FromEdgeAbbrevs(e.EdgeAbbreviations)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", e.Abbreviation, err)
		}
		// The catalog is authoritative for naming.
		mp.Abbrev = e.Abbreviation
		if e.Length > 0 {
			mp.Length = e.Length
		}
		if len(e.Edges) == len(mp.Edges) {
			mp.EdgeNames = e.Edges
		}
		if len(e.StandardAbbrevs) == len(mp.Edges) {
			mp.StandardEdgeAbbrevs = e.StandardAbbrevs
		}
		paths = append(paths, mp)
	}
	return paths, nil
}

// LoadCatalogFile reads a metapath catalog from a JSON file.
func LoadCatalogFile(path string) ([]*Metapath, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metapath catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// WriteCatalog encodes metapaths in catalog format, so an enumerated
// set can be pinned and reused by later runs.
func WriteCatalog(w io.Writer, paths []*Metapath) error {
	entries := make([]CatalogEntry, len(paths))
	for i, mp := range paths {
		entries[i] = CatalogEntry{
			Abbreviation:      mp.Abbrev,
			Length:            mp.Length,
			Edges:             mp.EdgeNames,
			EdgeAbbreviations: mp.EdgeAbbrevs,
			StandardAbbrevs:   mp.StandardEdgeAbbrevs,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
