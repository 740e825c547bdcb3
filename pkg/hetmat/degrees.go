package hetmat

import (
	"fmt"
	"sort"
)

// DegreeTable holds degree features: one row per (start, end) pair, one
// integer column per metaedge incident to either the start or the end
// metanode kind, columns sorted lexicographically. A metaedge incident
// at its far end appears under its inverse abbreviation, so the column
// always reads outward from the node it describes.
type DegreeTable struct {
	StartColumn string
	EndColumn   string
	StartIDs    []NodeID
	EndIDs      []NodeID
	Columns     []string
	// Values is indexed [row][column], rows in start-major Cartesian
	// order like FeatureTable.
	Values [][]int64
}

// Rows returns the number of (start, end) pairs.
func (t *DegreeTable) Rows() int {
	return len(t.StartIDs) * len(t.EndIDs)
}

// Pair returns the (start, end) identifiers of a row.
func (t *DegreeTable) Pair(row int) (NodeID, NodeID) {
	return t.StartIDs[row/len(t.EndIDs)], t.EndIDs[row%len(t.EndIDs)]
}

// degreeColumn is one metaedge's per-node degree vector bound to the
// row (start) or column (end) axis of the table.
type degreeColumn struct {
	name    string
	onStart bool
	perNode []float64 // indexed by dense node index
}

// ExtractDegrees builds the degree feature table for the start and end
// selections. For every metaedge touching the start metanode kind, each
// row carries the start node's degree along it; likewise for the end
// kind on the end axis.
func (g *Graph) ExtractDegrees(start, end Selector) (*DegreeTable, error) {
	startIdx, err := g.resolveSelector(start)
	if err != nil {
		return nil, err
	}
	endIdx, err := g.resolveSelector(end)
	if err != nil {
		return nil, err
	}
	if len(startIdx) == 0 || len(endIdx) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrInvalidSelector)
	}

	startKind := g.nodes[startIdx[0]].Kind
	endKind := g.nodes[endIdx[0]].Kind

	// Column names stay unique: when start and end kinds coincide the
	// end-axis binding wins, matching the original table layout.
	seen := make(map[string]int)
	var cols []degreeColumn
	add := func(name string, onStart bool, perNode []float64) {
		col := degreeColumn{name: name, onStart: onStart, perNode: perNode}
		if i, ok := seen[name]; ok {
			cols[i] = col
			return
		}
		seen[name] = len(cols)
		cols = append(cols, col)
	}

	for _, me := range g.metaedges {
		a := g.adj[me.Abbrev()]
		outDeg := a.RowSums()
		inDeg := a.ColSums()

		if me.Start == startKind {
			add(me.Abbrev(), true, outDeg)
		}
		if me.End == startKind {
			add(me.Inverse().Abbrev(), true, inDeg)
		}
		if me.Start == endKind {
			add(me.Abbrev(), false, outDeg)
		}
		if me.End == endKind {
			add(me.Inverse().Abbrev(), false, inDeg)
		}
	}

	sort.Slice(cols, func(i, j int) bool { return cols[i].name < cols[j].name })

	t := &DegreeTable{
		StartColumn: idColumn(startKind),
		EndColumn:   idColumn(endKind),
		StartIDs:    g.idsFor(startIdx),
		EndIDs:      g.idsFor(endIdx),
	}
	for _, c := range cols {
		t.Columns = append(t.Columns, c.name)
	}

	t.Values = make([][]int64, len(startIdx)*len(endIdx))
	for si, sIdx := range startIdx {
		for ei, eIdx := range endIdx {
			row := make([]int64, len(cols))
			for c, col := range cols {
				if col.onStart {
					row[c] = int64(col.perNode[sIdx])
				} else {
					row[c] = int64(col.perNode[eIdx])
				}
			}
			t.Values[si*len(endIdx)+ei] = row
		}
	}
	return t, nil
}
