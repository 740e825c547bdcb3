// Package hetmat holds the matrix-formatted representation of a
// heterogeneous network and extracts metapath-based features from it:
// degree-weighted path counts (DWPC), degree-weighted walk counts
// (DWWC) and degree features, for machine-learning pipelines that score
// node pairs.
//
// A Graph is built once from node and edge tables. Construction assigns
// every node a stable dense index, recovers the type schema from the
// edge-type vocabulary, builds one sparse adjacency matrix per
// metaedge (plus free transposes for directed metaedges) and caches one
// degree-weighted matrix per metaedge. All of it is immutable
// afterwards, so the parallel counting phase shares matrices by
// reference without locking.
//
// Example:
//
//	g, err := hetmat.NewGraph(nodes, edges, hetmat.Options{
//		StartKind: "Compound",
//		EndKind:   "Disease",
//		MaxLength: 4,
//		W:         0.4,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	features, err := g.ExtractDWPC(ctx, nil,
//		hetmat.SelectKind("Compound"), hetmat.SelectKind("Disease"), 4)
package hetmat

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/orneryd/hetmat/pkg/matstore"
	"github.com/orneryd/hetmat/pkg/metagraph"
	"github.com/orneryd/hetmat/pkg/schema"
	"github.com/orneryd/hetmat/pkg/sparse"
)

// Common errors.
var (
	// ErrUnknownNode reports an edge endpoint absent from the node set.
	ErrUnknownNode = errors.New("hetmat: edge references unknown node")
	// ErrInvalidSelector reports a node selection that is neither a
	// known metanode kind, a list of known identifiers, nor a list of
	// valid indices.
	ErrInvalidSelector = errors.New("hetmat: invalid node selector")
	// ErrUnknownMetapath reports a requested metapath abbreviation not
	// present in the graph's metapath set.
	ErrUnknownMetapath = errors.New("hetmat: unknown metapath")
	// ErrUnknownMetaedge reports a metapath step whose metaedge has no
	// adjacency matrix in this network.
	ErrUnknownMetaedge = errors.New("hetmat: unknown metaedge")
)

// NodeID is the opaque, globally unique node identifier.
type NodeID string

// Node is one row of the node table. Extra attributes in source tables
// are ignored by the core.
type Node struct {
	ID   NodeID
	Kind string // metanode kind, e.g. "Compound"
}

// Edge is one row of the edge table. Type is the full edge-type string,
// e.g. "binds_CbG".
type Edge struct {
	Start NodeID
	End   NodeID
	Type  string
}

// Options configures graph construction.
type Options struct {
	// StartKind and EndKind are the metanode kinds metapaths originate
	// from and terminate at.
	StartKind string
	EndKind   string

	// MaxLength bounds metapath enumeration. Zero means 4.
	MaxLength int

	// W is the degree dampening exponent in [0, 1]. Zero leaves the
	// adjacency matrices unweighted.
	W float64

	// Catalog, when non-nil, substitutes metapath enumeration entirely
	// with a precomputed metapath set (trusted verbatim); StartKind,
	// EndKind and MaxLength are ignored for metapath selection.
	Catalog []*metagraph.Metapath

	// Store, when non-nil, persists degree-weighted matrices keyed by
	// (metaedge, W) so repeated runs skip the rebuild.
	Store *matstore.Store

	// Quiet suppresses construction progress logging.
	Quiet bool
}

// Graph is the matrix-formatted heterogeneous network. Construct with
// NewGraph; immutable afterwards and safe for concurrent use.
type Graph struct {
	nodes     []Node
	indexByID map[NodeID]int
	kindIdx   map[string][]int // metanode kind → dense indices, input order

	metaedges []schema.Metaedge // canonical orientation, vocabulary order
	typeNames []string          // raw edge-type string per metaedge
	mg        *metagraph.Metagraph

	w        float64
	adj      map[string]*sparse.Matrix // metaedge abbrev → adjacency
	weighted map[string]*sparse.Matrix // metaedge abbrev → degree-weighted

	metapaths     map[string]*metagraph.Metapath
	metapathOrder []string
}

// NewGraph builds the matrix representation: node indexing, schema
// recovery from the edge-type vocabulary, adjacency matrices, the
// degree-weighted matrix cache and the metapath set.
func NewGraph(nodes []Node, edges []Edge, opts Options) (*Graph, error) {
	if opts.MaxLength == 0 {
		opts.MaxLength = 4
	}
	logf := log.Printf
	if opts.Quiet {
		logf = func(string, ...any) {}
	}

	g := &Graph{
		indexByID: make(map[NodeID]int, len(nodes)),
		kindIdx:   make(map[string][]int),
		w:         opts.W,
		adj:       make(map[string]*sparse.Matrix),
		weighted:  make(map[string]*sparse.Matrix),
		metapaths: make(map[string]*metagraph.Metapath),
	}

	g.nodes = make([]Node, len(nodes))
	copy(g.nodes, nodes)
	for i, n := range g.nodes {
		if _, dup := g.indexByID[n.ID]; dup {
			return nil, fmt.Errorf("hetmat: duplicate node id %q", n.ID)
		}
		g.indexByID[n.ID] = i
		g.kindIdx[n.Kind] = append(g.kindIdx[n.Kind], i)
	}

	logf("hetmat: recovering schema from %d edges", len(edges))
	byType, typeOrder, err := g.groupEdges(edges)
	if err != nil {
		return nil, err
	}
	if err := g.buildMetaedges(byType, typeOrder); err != nil {
		return nil, err
	}
	g.mg = metagraph.New(g.metaedges)

	logf("hetmat: generating adjacency matrices for %d metaedges", len(g.metaedges))
	if err := g.buildAdjacency(byType); err != nil {
		return nil, err
	}

	logf("hetmat: weighting matrices by degree with dampening exponent %v", g.w)
	if err := g.buildWeighted(opts.Store); err != nil {
		return nil, err
	}

	var paths []*metagraph.Metapath
	if opts.Catalog != nil {
		paths = opts.Catalog
	} else {
		paths = g.mg.ExtractMetapaths(opts.StartKind, opts.EndKind, opts.MaxLength)
	}
	for _, mp := range paths {
		g.metapaths[mp.Abbrev] = mp
		g.metapathOrder = append(g.metapathOrder, mp.Abbrev)
	}
	logf("hetmat: %d metapaths ready", len(g.metapathOrder))

	return g, nil
}

// groupEdges resolves the edge-type vocabulary to packed abbreviations
// and buckets edges per type. A vocabulary where every type carries an
// "_ABBREV" suffix is parsed; one where no type does treats each type
// name as its own abbreviation; mixing the two is a parse error.
func (g *Graph) groupEdges(edges []Edge) (map[string][]Edge, []string, error) {
	byType := make(map[string][]Edge)
	var order []string
	withSuffix, withoutSuffix := 0, 0
	for _, e := range edges {
		if _, seen := byType[e.Type]; !seen {
			order = append(order, e.Type)
			if strings.Contains(e.Type, "_") {
				withSuffix++
			} else {
				withoutSuffix++
			}
		}
		byType[e.Type] = append(byType[e.Type], e)
	}
	if withSuffix > 0 && withoutSuffix > 0 {
		return nil, nil, fmt.Errorf("%w: edge-type vocabulary mixes abbreviated and bare names",
			schema.ErrParse)
	}
	return byType, order, nil
}

// buildMetaedges recovers one canonical metaedge per edge type, using a
// sample edge's endpoints to resolve the metanode kinds.
func (g *Graph) buildMetaedges(byType map[string][]Edge, typeOrder []string) error {
	for _, t := range typeOrder {
		var et schema.EdgeType
		if strings.Contains(t, "_") {
			parsed, err := schema.ParseEdgeType(t)
			if err != nil {
				return err
			}
			et = parsed
		} else {
			if _, err := schema.ParseAbbrev(t); err != nil {
				return err
			}
			et = schema.EdgeType{Name: t, Abbrev: t}
		}
		parts, err := schema.ParseAbbrev(et.Abbrev)
		if err != nil {
			return err
		}

		sample := byType[t][0]
		si, ok := g.indexByID[sample.Start]
		if !ok {
			return fmt.Errorf("%w: %q in edge type %q", ErrUnknownNode, sample.Start, t)
		}
		ei, ok := g.indexByID[sample.End]
		if !ok {
			return fmt.Errorf("%w: %q in edge type %q", ErrUnknownNode, sample.End, t)
		}

		g.typeNames = append(g.typeNames, t)
		g.metaedges = append(g.metaedges, schema.Metaedge{
			Start:       g.nodes[si].Kind,
			End:         g.nodes[ei].Kind,
			Name:        et.Name,
			StartAbbrev: parts.Start,
			PredAbbrev:  parts.Pred,
			EndAbbrev:   parts.End,
			Direction:   parts.Direction,
		})
	}
	return nil
}

// buildAdjacency constructs one sparse boolean matrix per metaedge,
// indexed over the full node set. Undirected metaedges set both (i, j)
// and (j, i); directed metaedges additionally register their exact
// transpose under the inverse abbreviation without rescanning edges.
func (g *Graph) buildAdjacency(byType map[string][]Edge) error {
	n := len(g.nodes)
	for i, me := range g.metaedges {
		typeEdges := byType[g.typeNames[i]]
		entries := make([]sparse.Coord, 0, 2*len(typeEdges))
		for _, e := range typeEdges {
			si, ok := g.indexByID[e.Start]
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownNode, e.Start)
			}
			ei, ok := g.indexByID[e.End]
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownNode, e.End)
			}
			entries = append(entries, sparse.Coord{Row: si, Col: ei, Val: 1})
			if !me.Directed() {
				entries = append(entries, sparse.Coord{Row: ei, Col: si, Val: 1})
			}
		}
		a := sparse.FromCOO(n, n, entries)
		g.adj[me.Abbrev()] = a
		if me.Directed() {
			g.adj[me.Inverse().Abbrev()] = a.Transpose()
		}
	}
	return nil
}

// buildWeighted fills the degree-weighted matrix cache, one matrix per
// adjacency entry. With a matrix store attached, cached matrices are
// loaded instead of recomputed and fresh ones are persisted.
func (g *Graph) buildWeighted(store *matstore.Store) error {
	for abbrev, a := range g.adj {
		directed := strings.ContainsAny(abbrev, "<>")

		if store != nil {
			if m, ok, err := store.Get(abbrev, g.w); err != nil {
				return fmt.Errorf("hetmat: loading weighted matrix %q: %w", abbrev, err)
			} else if ok {
				g.weighted[abbrev] = m
				continue
			}
		}

		m := sparse.WeightByDegree(a, g.w, directed)
		g.weighted[abbrev] = m

		if store != nil {
			if err := store.Put(abbrev, g.w, m); err != nil {
				return fmt.Errorf("hetmat: storing weighted matrix %q: %w", abbrev, err)
			}
		}
	}
	return nil
}

// NodeCount returns the total number of nodes across all kinds.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Metagraph returns the recovered schema graph.
func (g *Graph) Metagraph() *metagraph.Metagraph {
	return g.mg
}

// Metaedges returns the canonical metaedges in vocabulary order. The
// slice is shared; callers must not mutate it.
func (g *Graph) Metaedges() []schema.Metaedge {
	return g.metaedges
}

// Metapaths returns the graph's metapaths in enumeration (or catalog)
// order.
func (g *Graph) Metapaths() []*metagraph.Metapath {
	out := make([]*metagraph.Metapath, len(g.metapathOrder))
	for i, ab := range g.metapathOrder {
		out[i] = g.metapaths[ab]
	}
	return out
}

// Adjacency returns the adjacency matrix registered for a metaedge
// abbreviation, with ok reporting whether one exists.
func (g *Graph) Adjacency(abbrev string) (*sparse.Matrix, bool) {
	m, ok := g.adj[abbrev]
	return m, ok
}

// Weighted returns the cached degree-weighted matrix for a metaedge
// abbreviation.
func (g *Graph) Weighted(abbrev string) (*sparse.Matrix, bool) {
	m, ok := g.weighted[abbrev]
	return m, ok
}
