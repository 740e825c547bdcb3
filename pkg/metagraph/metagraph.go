// Package metagraph models the schema level of a heterogeneous network
// as a small directed multigraph (metanodes as vertices, metaedges as
// arcs) and enumerates metapaths over it.
//
// The metagraph holds an arena of traversable metaedge orientations
// (every metaedge plus its inverse) and adjacency lists keyed by
// metanode kind, so path enumeration is an exhaustive bounded-depth
// search using indices rather than pointers. Schema graphs are tens of
// types at most, so no pruning beyond the length bound is applied.
//
// Example:
//
//	mg := metagraph.New([]schema.Metaedge{cbg, bcD})
//	paths := mg.ExtractMetapaths("Compound", "Disease", 4)
//	for _, mp := range paths {
//		fmt.Println(mp.Abbrev, mp.Length)
//	}
package metagraph

import (
	"fmt"

	"github.com/orneryd/hetmat/pkg/schema"
)

// Metapath is an ordered sequence of metaedges whose consecutive
// endpoints share a metanode kind. Abbrev is the canonical identifier:
// the traversal-order concatenation of metaedge abbreviations with the
// shared metanode abbreviations written once, e.g. "CbGr>GaD".
type Metapath struct {
	// Abbrev is the canonical metapath identifier.
	Abbrev string
	// Length is the number of metaedges.
	Length int
	// Edges holds the metaedges in traversal order (inverted
	// orientations where the path walks a directed metaedge backward).
	Edges []schema.Metaedge
	// EdgeAbbrevs holds each metaedge's abbreviation as traversed.
	EdgeAbbrevs []string
	// StandardEdgeAbbrevs holds each metaedge's canonical forward-form
	// abbreviation, for matching externally supplied catalogs.
	StandardEdgeAbbrevs []string
	// EdgeNames holds each metaedge in arrow notation, e.g.
	// "Compound - binds - Gene".
	EdgeNames []string
	// NodeAbbrevs holds the Length+1 metanode abbreviations visited, in
	// order. Used by path (DWPC) semantics to detect revisited types.
	NodeAbbrevs []string
}

// Metagraph is the schema-level multigraph. Construct with New; the
// structure is immutable afterwards and safe for concurrent readers.
type Metagraph struct {
	// arena holds every traversable orientation: each undirected
	// metaedge and its reversed orientation, each directed metaedge and
	// its inverse. Index order follows the input metaedge order, with
	// each inverse immediately after its forward form.
	arena []schema.Metaedge
	// adjacency maps a metanode kind to arena indices starting there.
	adjacency map[string][]int
	// kinds maps each metanode kind to its abbreviation.
	kinds map[string]string
}

// New builds a metagraph from the network's metaedges (canonical
// orientations only; inverses are derived). Undirected self-symmetric
// duplicates are avoided: an undirected metaedge between the same kind
// on both ends contributes a single orientation.
func New(metaedges []schema.Metaedge) *Metagraph {
	mg := &Metagraph{
		adjacency: make(map[string][]int),
		kinds:     make(map[string]string),
	}
	for _, me := range metaedges {
		mg.add(me)
		inv := me.Inverse()
		if inv.Abbrev() == me.Abbrev() && inv.Start == me.Start {
			continue // undirected self-edge; one orientation suffices
		}
		mg.add(inv)
	}
	return mg
}

func (mg *Metagraph) add(me schema.Metaedge) {
	i := len(mg.arena)
	mg.arena = append(mg.arena, me)
	mg.adjacency[me.Start] = append(mg.adjacency[me.Start], i)
	mg.kinds[me.Start] = me.StartAbbrev
	mg.kinds[me.End] = me.EndAbbrev
}

// KindAbbrev returns the abbreviation for a metanode kind, or "" when
// the kind does not appear in the schema.
func (mg *Metagraph) KindAbbrev(kind string) string {
	return mg.kinds[kind]
}

// HasKind reports whether the metanode kind appears in the schema.
func (mg *Metagraph) HasKind(kind string) bool {
	_, ok := mg.kinds[kind]
	return ok
}

// Metaedges returns every traversable metaedge orientation in arena
// order. The slice is shared; callers must not mutate it.
func (mg *Metagraph) Metaedges() []schema.Metaedge {
	return mg.arena
}

// ExtractMetapaths enumerates every metapath from startKind to endKind
// of length 1..maxLength, then discards the degenerate length-1 paths
// (a direct start→end edge is the prediction target, not a feature).
//
// Enumeration is breadth-first by length, extending partial paths in
// arena order, so the result ordering is deterministic: ascending
// length, then input metaedge order. Re-running on the same schema
// yields an identical sequence.
func (mg *Metagraph) ExtractMetapaths(startKind, endKind string, maxLength int) []*Metapath {
	type partial struct {
		kind  string
		edges []int
	}

	frontier := []partial{{kind: startKind}}
	var found [][]int

	for depth := 1; depth <= maxLength; depth++ {
		next := make([]partial, 0, len(frontier))
		for _, p := range frontier {
			for _, i := range mg.adjacency[p.kind] {
				edges := make([]int, len(p.edges), len(p.edges)+1)
				copy(edges, p.edges)
				edges = append(edges, i)

				me := mg.arena[i]
				if me.End == endKind && depth > 1 {
					found = append(found, edges)
				}
				next = append(next, partial{kind: me.End, edges: edges})
			}
		}
		frontier = next
	}

	paths := make([]*Metapath, 0, len(found))
	for _, edges := range found {
		mes := make([]schema.Metaedge, len(edges))
		for j, i := range edges {
			mes[j] = mg.arena[i]
		}
		paths = append(paths, newMetapath(mes))
	}
	return paths
}

// newMetapath assembles a Metapath from metaedges in traversal order.
func newMetapath(edges []schema.Metaedge) *Metapath {
	mp := &Metapath{
		Length: len(edges),
		Edges:  edges,
	}
	for j, me := range edges {
		abbrev := me.Abbrev()
		mp.EdgeAbbrevs = append(mp.EdgeAbbrevs, abbrev)
		mp.StandardEdgeAbbrevs = append(mp.StandardEdgeAbbrevs, me.StandardAbbrev())
		mp.EdgeNames = append(mp.EdgeNames, me.String())
		mp.NodeAbbrevs = append(mp.NodeAbbrevs, me.StartAbbrev)
		if j == len(edges)-1 {
			mp.NodeAbbrevs = append(mp.NodeAbbrevs, me.EndAbbrev)
		}

		if j == 0 {
			mp.Abbrev = abbrev
		} else {
			// Shared metanode abbreviation is written once; drop this
			// metaedge's leading start-abbreviation run.
			mp.Abbrev += abbrev[len(me.StartAbbrev):]
		}
	}
	return mp
}

// FromEdgeAbbrevs reconstructs a Metapath from per-edge abbreviations
// alone (no metanode kind names), as supplied by precomputed catalogs.
// Consecutive metaedges must share an endpoint abbreviation.
func FromEdgeAbbrevs(edgeAbbrevs []string) (*Metapath, error) {
	if len(edgeAbbrevs) == 0 {
		return nil, fmt.Errorf("metagraph: empty metapath")
	}
	edges := make([]schema.Metaedge, len(edgeAbbrevs))
	for j, abbrev := range edgeAbbrevs {
		parts, err := schema.ParseAbbrev(abbrev)
		if err != nil {
			return nil, err
		}
		edges[j] = schema.Metaedge{
			StartAbbrev: parts.Start,
			PredAbbrev:  parts.Pred,
			EndAbbrev:   parts.End,
			Direction:   parts.Direction,
		}
		if j > 0 && edges[j-1].EndAbbrev != parts.Start {
			return nil, fmt.Errorf("metagraph: metaedges %q and %q do not share an endpoint",
				edgeAbbrevs[j-1], abbrev)
		}
	}
	return newMetapath(edges), nil
}
