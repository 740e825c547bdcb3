package hetmat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyNodes and toyEdges build the small three-type network used across
// the package tests: two A nodes, three B nodes and two C nodes, with
// an undirected A-B metaedge and a directed B→C metaedge.
func toyNodes() []Node {
	return []Node{
		{ID: "a0", Kind: "Alpha"},
		{ID: "a1", Kind: "Alpha"},
		{ID: "b0", Kind: "Beta"},
		{ID: "b1", Kind: "Beta"},
		{ID: "b2", Kind: "Beta"},
		{ID: "c0", Kind: "Gamma"},
		{ID: "c1", Kind: "Gamma"},
	}
}

func toyEdges() []Edge {
	return []Edge{
		{Start: "a0", End: "b0", Type: "bond_AbB"},
		{Start: "a0", End: "b1", Type: "bond_AbB"},
		{Start: "a1", End: "b1", Type: "bond_AbB"},
		{Start: "b0", End: "c0", Type: "flow_Bf>C"},
		{Start: "b1", End: "c1", Type: "flow_Bf>C"},
		{Start: "b2", End: "c0", Type: "flow_Bf>C"},
	}
}

func toyGraph(t *testing.T, w float64) *Graph {
	t.Helper()
	g, err := NewGraph(toyNodes(), toyEdges(), Options{
		StartKind: "Alpha",
		EndKind:   "Gamma",
		MaxLength: 2,
		W:         w,
		Quiet:     true,
	})
	require.NoError(t, err)
	return g
}

func TestNewGraphSchema(t *testing.T) {
	g := toyGraph(t, 0)

	assert.Equal(t, 7, g.NodeCount())

	mes := g.Metaedges()
	require.Len(t, mes, 2)
	assert.Equal(t, "AbB", mes[0].Abbrev())
	assert.Equal(t, "Alpha", mes[0].Start)
	assert.Equal(t, "Beta", mes[0].End)
	assert.False(t, mes[0].Directed())
	assert.Equal(t, "Bf>C", mes[1].Abbrev())
	assert.True(t, mes[1].Directed())

	assert.True(t, g.Metagraph().HasKind("Gamma"))
	assert.Equal(t, "B", g.Metagraph().KindAbbrev("Beta"))
}

func TestNewGraphAdjacency(t *testing.T) {
	g := toyGraph(t, 0)

	ab, ok := g.Adjacency("AbB")
	require.True(t, ok)
	// Undirected: both orientations stored.
	assert.Equal(t, 1.0, ab.At(0, 2)) // a0 → b0
	assert.Equal(t, 1.0, ab.At(2, 0)) // b0 → a0
	assert.Equal(t, 0.0, ab.At(1, 2)) // a1 and b0 unlinked

	bc, ok := g.Adjacency("Bf>C")
	require.True(t, ok)
	assert.Equal(t, 1.0, bc.At(2, 5)) // b0 → c0
	assert.Equal(t, 0.0, bc.At(5, 2)) // directed: no reverse entry

	// The inverse orientation gets its transpose registered.
	cb, ok := g.Adjacency("C<fB")
	require.True(t, ok)
	assert.Equal(t, 1.0, cb.At(5, 2))
	assert.True(t, cb.EqualApprox(bc.Transpose(), 0))
}

func TestNewGraphWeightedZeroExponent(t *testing.T) {
	g := toyGraph(t, 0)
	a, _ := g.Adjacency("AbB")
	w, ok := g.Weighted("AbB")
	require.True(t, ok)
	assert.True(t, a.EqualApprox(w, 0), "w = 0 must reproduce the adjacency matrix")
}

func TestNewGraphMetapathEnumeration(t *testing.T) {
	g := toyGraph(t, 0)
	mps := g.Metapaths()
	require.Len(t, mps, 1, "exactly one metapath of length 2")
	assert.Equal(t, "AbBf>C", mps[0].Abbrev)
	assert.Equal(t, 2, mps[0].Length)
}

func TestNewGraphDuplicateNode(t *testing.T) {
	nodes := append(toyNodes(), Node{ID: "a0", Kind: "Alpha"})
	_, err := NewGraph(nodes, toyEdges(), Options{Quiet: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestNewGraphUnknownEndpoint(t *testing.T) {
	edges := append(toyEdges(), Edge{Start: "a0", End: "missing", Type: "bond_AbB"})
	_, err := NewGraph(toyNodes(), edges, Options{Quiet: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownNode))
}

func TestNewGraphMixedVocabulary(t *testing.T) {
	edges := []Edge{
		{Start: "a0", End: "b0", Type: "bond_AbB"},
		{Start: "b0", End: "c0", Type: "BfC"}, // bare abbreviation
	}
	_, err := NewGraph(toyNodes(), edges, Options{Quiet: true})
	require.Error(t, err)
}

func TestNewGraphBareAbbrevVocabulary(t *testing.T) {
	// A vocabulary with no "_" suffixes treats each type name as its own
	// packed abbreviation.
	edges := []Edge{
		{Start: "a0", End: "b0", Type: "AbB"},
		{Start: "b0", End: "c0", Type: "Bf>C"},
	}
	g, err := NewGraph(toyNodes(), edges, Options{
		StartKind: "Alpha", EndKind: "Gamma", MaxLength: 2, Quiet: true,
	})
	require.NoError(t, err)
	mps := g.Metapaths()
	require.Len(t, mps, 1)
	assert.Equal(t, "AbBf>C", mps[0].Abbrev)
}

func TestNewGraphWithCatalog(t *testing.T) {
	base := toyGraph(t, 0)
	catalog := base.Metapaths()

	g, err := NewGraph(toyNodes(), toyEdges(), Options{
		Catalog: catalog,
		Quiet:   true,
	})
	require.NoError(t, err)
	mps := g.Metapaths()
	require.Len(t, mps, 1)
	assert.Equal(t, "AbBf>C", mps[0].Abbrev)
}
