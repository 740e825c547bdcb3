package hetmat

import (
	"github.com/orneryd/hetmat/pkg/metagraph"
	"github.com/orneryd/hetmat/pkg/sparse"
)

// FeatureTable is the long-format result of a counting pass: one row
// per (start, end) node pair in the requested selection, one numeric
// column per metapath.
//
// Row order is the Cartesian product of start × end identifiers in
// resolution order (start-major); column order follows the request.
type FeatureTable struct {
	// StartColumn and EndColumn name the id columns, e.g. "compound_id".
	StartColumn string
	EndColumn   string

	// StartIDs and EndIDs are the resolved selections, in order.
	StartIDs []NodeID
	EndIDs   []NodeID

	// Columns holds the metapath abbreviations in request order.
	Columns []string

	// Values is indexed [row][column]; row r pairs
	// StartIDs[r / len(EndIDs)] with EndIDs[r % len(EndIDs)].
	Values [][]float64
}

// Rows returns the number of (start, end) pairs.
func (t *FeatureTable) Rows() int {
	return len(t.StartIDs) * len(t.EndIDs)
}

// Pair returns the (start, end) identifiers of a row.
func (t *FeatureTable) Pair(row int) (NodeID, NodeID) {
	return t.StartIDs[row/len(t.EndIDs)], t.EndIDs[row%len(t.EndIDs)]
}

// assemble restricts each product matrix to the start and end indices
// and unpivots the blocks into a feature table.
func (g *Graph) assemble(mps []*metagraph.Metapath, products []*sparse.Matrix, startIdx, endIdx []int) *FeatureTable {
	t := &FeatureTable{
		StartColumn: g.idColumnFor(startIdx, "start_id"),
		EndColumn:   g.idColumnFor(endIdx, "end_id"),
		StartIDs:    g.idsFor(startIdx),
		EndIDs:      g.idsFor(endIdx),
	}

	rows := len(startIdx) * len(endIdx)
	t.Values = make([][]float64, rows)
	for r := range t.Values {
		t.Values[r] = make([]float64, len(mps))
	}

	for c, mp := range mps {
		t.Columns = append(t.Columns, mp.Abbrev)
		block := products[c].Slice(startIdx, endIdx)
		for si := range startIdx {
			for ei := range endIdx {
				t.Values[si*len(endIdx)+ei][c] = block.At(si, ei)
			}
		}
	}
	return t
}

// idsFor maps dense indices back to node identifiers.
func (g *Graph) idsFor(indices []int) []NodeID {
	ids := make([]NodeID, len(indices))
	for i, idx := range indices {
		ids[i] = g.nodes[idx].ID
	}
	return ids
}

// idColumnFor names the id column after the metanode kind of the
// selection's first node, falling back for empty selections.
func (g *Graph) idColumnFor(indices []int, fallback string) string {
	if len(indices) == 0 {
		return fallback
	}
	return idColumn(g.nodes[indices[0]].Kind)
}
