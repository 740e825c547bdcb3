// Package load reads node and edge tables in the neo4j import CSV
// convention and writes the result tables (features, degrees, permuted
// edges, permutation statistics) back out as CSV.
//
// Node tables need an ":ID" and a ":LABEL" column; edge tables need
// ":START_ID", ":END_ID" and ":TYPE". Colon-stripped header variants
// ("id", "label", "start_id", "end_id", "type", case-insensitive) are
// accepted too, and extra columns are ignored; the core never sees
// them.
package load

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/orneryd/hetmat/pkg/hetmat"
	"github.com/orneryd/hetmat/pkg/permute"
)

// normalizeHeader strips the neo4j colon decoration from a column name:
// ":ID" → "id", "name:STRING" → "name", "label" → "label".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	parts := strings.SplitN(h, ":", 2)
	if parts[0] != "" {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[1]
	}
	return h
}

// columnIndex locates required columns in a normalized header row.
func columnIndex(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := idx[n]; !dup {
			idx[n] = i
		}
	}
	for _, n := range names {
		if _, ok := idx[n]; !ok {
			return nil, fmt.Errorf("load: missing required column %q", n)
		}
	}
	return idx, nil
}

// Nodes reads a node table. Rows with an empty id or label are skipped,
// mirroring the dropna step of table preparation.
func Nodes(r io.Reader) ([]hetmat.Node, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("load: reading node header: %w", err)
	}
	idx, err := columnIndex(header, "id", "label")
	if err != nil {
		return nil, err
	}

	var nodes []hetmat.Node
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load: reading node row: %w", err)
		}
		id, kind := rec[idx["id"]], rec[idx["label"]]
		if id == "" || kind == "" {
			continue
		}
		nodes = append(nodes, hetmat.Node{ID: hetmat.NodeID(id), Kind: kind})
	}
	return nodes, nil
}

// Edges reads an edge table. Rows missing an endpoint or type are
// skipped.
func Edges(r io.Reader) ([]hetmat.Edge, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("load: reading edge header: %w", err)
	}
	idx, err := columnIndex(header, "start_id", "end_id", "type")
	if err != nil {
		return nil, err
	}

	var edges []hetmat.Edge
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load: reading edge row: %w", err)
		}
		start, end, typ := rec[idx["start_id"]], rec[idx["end_id"]], rec[idx["type"]]
		if start == "" || end == "" || typ == "" {
			continue
		}
		edges = append(edges, hetmat.Edge{
			Start: hetmat.NodeID(start),
			End:   hetmat.NodeID(end),
			Type:  typ,
		})
	}
	return edges, nil
}

// NodesFile reads a node table from a CSV file.
func NodesFile(path string) ([]hetmat.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: opening node table: %w", err)
	}
	defer f.Close()
	return Nodes(f)
}

// EdgesFile reads an edge table from a CSV file.
func EdgesFile(path string) ([]hetmat.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: opening edge table: %w", err)
	}
	defer f.Close()
	return Edges(f)
}

// PermuteEdges converts loaded edges into the permutation engine's raw
// edge rows.
func PermuteEdges(edges []hetmat.Edge) []permute.Edge {
	out := make([]permute.Edge, len(edges))
	for i, e := range edges {
		out[i] = permute.Edge{Start: string(e.Start), End: string(e.End), Type: e.Type}
	}
	return out
}
