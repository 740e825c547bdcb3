// Package schema models the type level of a heterogeneous network:
// metanodes (node types), metaedges (typed, directed-or-undirected
// relations between metanodes) and the packed abbreviation convention
// that edge-type vocabularies use to encode all three.
//
// Edge types are formatted as:
//
//	{EDGE_NAME}_{START_ABBREV}{edge_abbrev}{END_ABBREV}
//
// where the uppercase runs abbreviate the endpoint metanodes, the
// lowercase run abbreviates the predicate, and an optional '>' or '<'
// marks a directed relation. Examples:
//
//	binds_CbG        Compound-binds-Gene, undirected
//	regulates_Gr>G   Gene-regulates-Gene, directed forward
//	PROCESS_OF_PpoP  underscores before the final '_' stay in the name
//
// The packed-string parse is deliberately confined to ParseAbbrev and
// ParseEdgeType; callers never pick characters apart themselves.
//
// Example:
//
//	et, err := schema.ParseEdgeType("binds_CbG")
//	// et.Name == "binds", et.Abbrev == "CbG"
//
//	p, err := schema.ParseAbbrev("Gr>G")
//	// p.Start == "G", p.Pred == "r", p.End == "G", p.Direction == forward
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse reports an edge-type string or packed abbreviation that does
// not match the expected convention.
var ErrParse = errors.New("schema: unrecognized edge type format")

// Direction describes how a metaedge may be traversed.
type Direction string

const (
	// Forward metaedges are traversed start → end only.
	Forward Direction = "forward"
	// Backward marks the inverse of a forward metaedge.
	Backward Direction = "backward"
	// Both marks an undirected metaedge.
	Both Direction = "both"
)

// EdgeType is a parsed edge-type string: the human-readable predicate
// name plus the packed abbreviation suffix.
type EdgeType struct {
	// Name is everything before the final '_' (underscores kept intact).
	Name string
	// Abbrev is the packed suffix, e.g. "CbG" or "Gr>G".
	Abbrev string
}

// AbbrevParts is a packed abbreviation split into its factors.
type AbbrevParts struct {
	Start     string // uppercase run abbreviating the start metanode
	Pred      string // lowercase run abbreviating the predicate
	End       string // uppercase run abbreviating the end metanode
	Direction Direction
}

// ParseEdgeType splits an edge-type string into its name and packed
// abbreviation. The abbreviation is everything after the final '_'; the
// name keeps any earlier underscores (PROCESS_OF_PpoP → "PROCESS_OF").
//
// Returns ErrParse when the string has no '_' separator or the suffix is
// not a valid packed abbreviation.
func ParseEdgeType(s string) (EdgeType, error) {
	i := strings.LastIndex(s, "_")
	if i < 0 || i == len(s)-1 {
		return EdgeType{}, fmt.Errorf("%w: %q has no abbreviation suffix", ErrParse, s)
	}
	abbrev := s[i+1:]
	if _, err := ParseAbbrev(abbrev); err != nil {
		return EdgeType{}, err
	}
	return EdgeType{Name: s[:i], Abbrev: abbrev}, nil
}

// ParseAbbrev splits a packed abbreviation into subject, predicate and
// object abbreviations plus direction.
//
//	"CbG"     → (C, b, G, both)
//	"Gr>G"    → (G, r, G, forward)
//	"G<rG"    → (G, r, G, backward)
//	"CDreg>CD" → (CD, reg, CD, forward)
//
// The string must contain exactly two uppercase runs separated by one
// lowercase run, with at most one direction marker; anything else
// returns ErrParse.
func ParseAbbrev(abbrev string) (AbbrevParts, error) {
	var parts AbbrevParts
	parts.Direction = Both

	onStart := true
	markers := 0
	for _, r := range abbrev {
		switch {
		case r == '>':
			if markers > 0 {
				return AbbrevParts{}, fmt.Errorf("%w: %q has multiple direction markers", ErrParse, abbrev)
			}
			markers++
			parts.Direction = Forward
		case r == '<':
			if markers > 0 {
				return AbbrevParts{}, fmt.Errorf("%w: %q has multiple direction markers", ErrParse, abbrev)
			}
			markers++
			parts.Direction = Backward
		case r >= 'A' && r <= 'Z':
			if onStart {
				parts.Start += string(r)
			} else {
				parts.End += string(r)
			}
		case r >= 'a' && r <= 'z':
			if !onStart && parts.End != "" {
				// A second lowercase run after the end abbreviation began.
				return AbbrevParts{}, fmt.Errorf("%w: %q mixes node and edge abbreviations", ErrParse, abbrev)
			}
			onStart = false
			parts.Pred += string(r)
		default:
			return AbbrevParts{}, fmt.Errorf("%w: %q contains %q", ErrParse, abbrev, r)
		}
	}

	if parts.Start == "" || parts.Pred == "" || parts.End == "" {
		return AbbrevParts{}, fmt.Errorf("%w: %q is missing a node or edge abbreviation", ErrParse, abbrev)
	}
	return parts, nil
}

// Metaedge is a schema-level edge type: a typed, directed-or-undirected
// relation between two metanodes. A directed metaedge implicitly defines
// an inverse metaedge (Inverse) whose adjacency matrix is the transpose
// of its own.
//
// Example:
//
//	me := schema.Metaedge{
//		Start: "Gene", End: "Gene", Name: "regulates",
//		StartAbbrev: "G", PredAbbrev: "r", EndAbbrev: "G",
//		Direction: schema.Forward,
//	}
//	me.Abbrev()            // "Gr>G"
//	me.Inverse().Abbrev()  // "G<rG"
type Metaedge struct {
	// Start and End are metanode kinds, e.g. "Compound".
	Start string
	End   string
	// Name is the predicate name, e.g. "binds".
	Name string

	StartAbbrev string
	PredAbbrev  string
	EndAbbrev   string

	Direction Direction
}

// Abbrev returns the packed abbreviation for the metaedge as traversed,
// e.g. "CbG", "Gr>G" or "G<rG".
func (m Metaedge) Abbrev() string {
	switch m.Direction {
	case Forward:
		return m.StartAbbrev + m.PredAbbrev + ">" + m.EndAbbrev
	case Backward:
		return m.StartAbbrev + "<" + m.PredAbbrev + m.EndAbbrev
	default:
		return m.StartAbbrev + m.PredAbbrev + m.EndAbbrev
	}
}

// StandardAbbrev returns the abbreviation of the metaedge's canonical
// forward form: a Backward metaedge reports its inverse's abbreviation.
// Used to match externally supplied metapath catalogs, which record
// every constituent edge in forward orientation.
func (m Metaedge) StandardAbbrev() string {
	if m.Direction == Backward {
		return m.Inverse().Abbrev()
	}
	return m.Abbrev()
}

// Inverse returns the metaedge traversed in the opposite direction.
// For undirected metaedges the inverse has the same abbreviation and an
// identical (symmetric) adjacency matrix; for directed metaedges the
// inverse swaps endpoints and flips Forward ↔ Backward.
func (m Metaedge) Inverse() Metaedge {
	inv := Metaedge{
		Start:       m.End,
		End:         m.Start,
		Name:        m.Name,
		StartAbbrev: m.EndAbbrev,
		PredAbbrev:  m.PredAbbrev,
		EndAbbrev:   m.StartAbbrev,
		Direction:   m.Direction,
	}
	switch m.Direction {
	case Forward:
		inv.Direction = Backward
	case Backward:
		inv.Direction = Forward
	}
	return inv
}

// Directed reports whether the metaedge has a traversal direction.
func (m Metaedge) Directed() bool {
	return m.Direction != Both
}

// String returns the metaedge in arrow notation, e.g.
// "Compound - binds - Gene" or "Gene > regulates > Gene".
func (m Metaedge) String() string {
	sep := " - "
	switch m.Direction {
	case Forward:
		sep = " > "
	case Backward:
		sep = " < "
	}
	return m.Start + sep + m.Name + sep + m.End
}
