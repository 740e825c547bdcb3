package hetmat

import (
	"context"
	"fmt"
	"strings"

	"github.com/orneryd/hetmat/pkg/metagraph"
	"github.com/orneryd/hetmat/pkg/parallel"
	"github.com/orneryd/hetmat/pkg/sparse"
)

// Selector picks a subset of nodes: all nodes of a metanode kind, an
// explicit identifier list, or an explicit dense-index list. Exactly
// one field may be set; anything else is ErrInvalidSelector.
type Selector struct {
	Kind    string
	IDs     []NodeID
	Indices []int
}

// SelectKind selects every node of a metanode kind.
func SelectKind(kind string) Selector { return Selector{Kind: kind} }

// SelectIDs selects nodes by identifier, in the given order.
func SelectIDs(ids ...NodeID) Selector { return Selector{IDs: ids} }

// SelectIndices selects nodes by dense index, in the given order.
func SelectIndices(indices ...int) Selector { return Selector{Indices: indices} }

// resolveSelector validates a selector and returns the dense indices it
// names, in resolution order.
func (g *Graph) resolveSelector(sel Selector) ([]int, error) {
	set := 0
	if sel.Kind != "" {
		set++
	}
	if sel.IDs != nil {
		set++
	}
	if sel.Indices != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of kind, ids or indices must be given", ErrInvalidSelector)
	}

	switch {
	case sel.Kind != "":
		idxs, ok := g.kindIdx[sel.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: unknown metanode kind %q", ErrInvalidSelector, sel.Kind)
		}
		return idxs, nil
	case sel.IDs != nil:
		idxs := make([]int, len(sel.IDs))
		for i, id := range sel.IDs {
			idx, ok := g.indexByID[id]
			if !ok {
				return nil, fmt.Errorf("%w: unknown node id %q", ErrInvalidSelector, id)
			}
			idxs[i] = idx
		}
		return idxs, nil
	default:
		for _, idx := range sel.Indices {
			if idx < 0 || idx >= len(g.nodes) {
				return nil, fmt.Errorf("%w: index %d outside %d nodes", ErrInvalidSelector, idx, len(g.nodes))
			}
		}
		return sel.Indices, nil
	}
}

// metapathsFor resolves requested metapath abbreviations in request
// order; nil means every metapath the graph holds, in stored order.
func (g *Graph) metapathsFor(abbrevs []string) ([]*metagraph.Metapath, error) {
	if abbrevs == nil {
		return g.Metapaths(), nil
	}
	out := make([]*metagraph.Metapath, len(abbrevs))
	for i, ab := range abbrevs {
		mp, ok := g.metapaths[ab]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetapath, ab)
		}
		out[i] = mp
	}
	return out, nil
}

// matricesFor resolves a metapath's metaedge sequence to the ordered
// weighted matrices to multiply. A step traversing an undirected
// metaedge from its far end resolves to the same symmetric matrix via
// the inverse abbreviation; directed metaedges have both orientations
// registered at build time.
func (g *Graph) matricesFor(mp *metagraph.Metapath) ([]*sparse.Matrix, error) {
	ms := make([]*sparse.Matrix, len(mp.Edges))
	for i, me := range mp.Edges {
		if m, ok := g.weighted[me.Abbrev()]; ok {
			ms[i] = m
			continue
		}
		if m, ok := g.weighted[me.Inverse().Abbrev()]; ok && !me.Directed() {
			ms[i] = m
			continue
		}
		return nil, fmt.Errorf("%w: %q in metapath %q", ErrUnknownMetaedge, me.Abbrev(), mp.Abbrev)
	}
	return ms, nil
}

// countWalks computes the raw chain product of the metapath's weighted
// matrices in traversal order: the degree-weighted walk count (DWWC).
// Intermediate nodes may repeat.
func countWalks(ms []*sparse.Matrix) *sparse.Matrix {
	product := ms[0]
	for _, m := range ms[1:] {
		product = product.Mul(m)
	}
	return product
}

// countPaths computes the degree-weighted path count (DWPC): after each
// step, if the node type just reached was already visited earlier in
// the metapath, the running product's diagonal is zeroed to suppress
// walks that return through an already-used node of that type. This is
// the standard approximation for this feature family (exact for
// revisits through the shared type's own square sub-block) and is
// kept as documented even for types revisited more than once.
func countPaths(ms []*sparse.Matrix, nodeAbbrevs []string) *sparse.Matrix {
	visited := map[string]bool{nodeAbbrevs[0]: true}
	var product *sparse.Matrix
	owned := false

	for i, m := range ms {
		if i == 0 {
			product = m
		} else {
			product = product.Mul(m)
			owned = true
		}

		reached := nodeAbbrevs[i+1]
		if visited[reached] {
			if !owned {
				// Never zero a shared weighted matrix.
				product = product.Clone()
				owned = true
			}
			product.ZeroDiagonal()
		}
		visited[reached] = true
	}
	return product
}

// count runs one metapath's chain multiplication under the requested
// semantics. This is the unit of parallel work.
func (g *Graph) count(mp *metagraph.Metapath, paths bool) (*sparse.Matrix, error) {
	ms, err := g.matricesFor(mp)
	if err != nil {
		return nil, err
	}
	if paths {
		return countPaths(ms, mp.NodeAbbrevs), nil
	}
	return countWalks(ms), nil
}

// extract fans the requested metapaths across workers and assembles the
// restricted products into a feature table.
func (g *Graph) extract(ctx context.Context, abbrevs []string, start, end Selector, workers int, paths bool) (*FeatureTable, error) {
	mps, err := g.metapathsFor(abbrevs)
	if err != nil {
		return nil, err
	}
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

	jobs := make([]parallel.Job[*sparse.Matrix], len(mps))
	for i, mp := range mps {
		mp := mp
		jobs[i] = parallel.Job[*sparse.Matrix]{
			Label: mp.Abbrev,
			Run: func() (*sparse.Matrix, error) {
				return g.count(mp, paths)
			},
		}
	}
	products, err := parallel.Run(ctx, jobs, workers, false)
	if err != nil {
		return nil, err
	}

	return g.assemble(mps, products, startIdx, endIdx), nil
}

// ExtractDWPC computes degree-weighted path counts for the requested
// metapaths (nil = all) between the start and end selections, fanning
// out one metapath per worker task. Results preserve request order.
func (g *Graph) ExtractDWPC(ctx context.Context, metapaths []string, start, end Selector, workers int) (*FeatureTable, error) {
	return g.extract(ctx, metapaths, start, end, workers, true)
}

// ExtractDWWC computes degree-weighted walk counts: the same chain
// products without diagonal zeroing, so repeated nodes are allowed.
func (g *Graph) ExtractDWWC(ctx context.Context, metapaths []string, start, end Selector, workers int) (*FeatureTable, error) {
	return g.extract(ctx, metapaths, start, end, workers, false)
}

// idColumn derives the table column name for a node kind, e.g.
// "compound_id".
func idColumn(kind string) string {
	return strings.ToLower(kind) + "_id"
}
