package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEdgeType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		edge   EdgeType
		wantOK bool
	}{
		{"undirected", "binds_CbG", EdgeType{Name: "binds", Abbrev: "CbG"}, true},
		{"directed forward", "regulates_Gr>G", EdgeType{Name: "regulates", Abbrev: "Gr>G"}, true},
		{"directed backward", "regulates_G<rG", EdgeType{Name: "regulates", Abbrev: "G<rG"}, true},
		{"underscores in name", "PROCESS_OF_PpoP", EdgeType{Name: "PROCESS_OF", Abbrev: "PpoP"}, true},
		{"multi-letter abbrevs", "treats_CDtrDS", EdgeType{Name: "treats", Abbrev: "CDtrDS"}, true},
		{"no separator", "binds", EdgeType{}, false},
		{"trailing separator", "binds_", EdgeType{}, false},
		{"bad suffix", "binds_cbg", EdgeType{}, false},
		{"empty", "", EdgeType{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEdgeType(tt.input)
			if !tt.wantOK {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse), "expected ErrParse, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.edge, got)
		})
	}
}

func TestParseAbbrev(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		parts  AbbrevParts
		wantOK bool
	}{
		{"undirected", "CbG", AbbrevParts{Start: "C", Pred: "b", End: "G", Direction: Both}, true},
		{"forward", "Gr>G", AbbrevParts{Start: "G", Pred: "r", End: "G", Direction: Forward}, true},
		{"backward", "G<rG", AbbrevParts{Start: "G", Pred: "r", End: "G", Direction: Backward}, true},
		{"multi-letter runs", "CDreg>CD", AbbrevParts{Start: "CD", Pred: "reg", End: "CD", Direction: Forward}, true},
		{"missing pred", "CG", AbbrevParts{}, false},
		{"missing end", "Cb", AbbrevParts{}, false},
		{"missing start", "bG", AbbrevParts{}, false},
		{"two direction markers", "G>r>G", AbbrevParts{}, false},
		{"mixed markers", "G<r>G", AbbrevParts{}, false},
		{"second lowercase run", "CbGaD", AbbrevParts{}, false},
		{"illegal character", "C2G", AbbrevParts{}, false},
		{"empty", "", AbbrevParts{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAbbrev(tt.input)
			if !tt.wantOK {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse), "expected ErrParse, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.parts, got)
		})
	}
}

func TestMetaedgeAbbrev(t *testing.T) {
	undirected := Metaedge{
		Start: "Compound", End: "Gene", Name: "binds",
		StartAbbrev: "C", PredAbbrev: "b", EndAbbrev: "G",
		Direction: Both,
	}
	assert.Equal(t, "CbG", undirected.Abbrev())
	assert.Equal(t, "CbG", undirected.StandardAbbrev())
	assert.False(t, undirected.Directed())

	forward := Metaedge{
		Start: "Gene", End: "Gene", Name: "regulates",
		StartAbbrev: "G", PredAbbrev: "r", EndAbbrev: "G",
		Direction: Forward,
	}
	assert.Equal(t, "Gr>G", forward.Abbrev())
	assert.Equal(t, "Gr>G", forward.StandardAbbrev())
	assert.True(t, forward.Directed())

	backward := forward.Inverse()
	assert.Equal(t, Backward, backward.Direction)
	assert.Equal(t, "G<rG", backward.Abbrev())
	// The standard form of a backward traversal is the forward original.
	assert.Equal(t, "Gr>G", backward.StandardAbbrev())
}

func TestMetaedgeInverse(t *testing.T) {
	me := Metaedge{
		Start: "Compound", End: "Gene", Name: "binds",
		StartAbbrev: "C", PredAbbrev: "b", EndAbbrev: "G",
		Direction: Both,
	}
	inv := me.Inverse()
	assert.Equal(t, "Gene", inv.Start)
	assert.Equal(t, "Compound", inv.End)
	assert.Equal(t, "GbC", inv.Abbrev())
	assert.Equal(t, Both, inv.Direction)

	// Inverting twice round-trips, for directed metaedges too.
	fwd := Metaedge{
		Start: "Gene", End: "Gene", Name: "regulates",
		StartAbbrev: "G", PredAbbrev: "r", EndAbbrev: "G",
		Direction: Forward,
	}
	assert.Equal(t, fwd, fwd.Inverse().Inverse())
}

func TestMetaedgeString(t *testing.T) {
	tests := []struct {
		name string
		me   Metaedge
		want string
	}{
		{
			"undirected",
			Metaedge{Start: "Compound", End: "Gene", Name: "binds", Direction: Both},
			"Compound - binds - Gene",
		},
		{
			"forward",
			Metaedge{Start: "Gene", End: "Gene", Name: "regulates", Direction: Forward},
			"Gene > regulates > Gene",
		},
		{
			"backward",
			Metaedge{Start: "Gene", End: "Gene", Name: "regulates", Direction: Backward},
			"Gene < regulates < Gene",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.me.String())
		})
	}
}
