package load

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/orneryd/hetmat/pkg/hetmat"
	"github.com/orneryd/hetmat/pkg/permute"
)

// WriteFeatureTable writes a feature table as CSV: id columns first,
// then one column per metapath in request order.
func WriteFeatureTable(w io.Writer, t *hetmat.FeatureTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{t.StartColumn, t.EndColumn}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("load: writing feature header: %w", err)
	}

	row := make([]string, len(header))
	for r := 0; r < t.Rows(); r++ {
		start, end := t.Pair(r)
		row[0], row[1] = string(start), string(end)
		for c, v := range t.Values[r] {
			row[2+c] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("load: writing feature row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDegreeTable writes a degree table as CSV, columns already in
// lexicographic order.
func WriteDegreeTable(w io.Writer, t *hetmat.DegreeTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{t.StartColumn, t.EndColumn}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("load: writing degree header: %w", err)
	}

	row := make([]string, len(header))
	for r := 0; r < t.Rows(); r++ {
		start, end := t.Pair(r)
		row[0], row[1] = string(start), string(end)
		for c, v := range t.Values[r] {
			row[2+c] = strconv.FormatInt(v, 10)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("load: writing degree row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdges writes permuted edges with the neo4j import headers, the
// same columns the edge table came in with.
func WriteEdges(w io.Writer, edges []permute.Edge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{":START_ID", ":END_ID", ":TYPE"}); err != nil {
		return fmt.Errorf("load: writing edge header: %w", err)
	}
	for _, e := range edges {
		if err := cw.Write([]string{e.Start, e.End, e.Type}); err != nil {
			return fmt.Errorf("load: writing edge row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStats writes permutation window statistics as CSV, one row per
// reporting window.
func WriteStats(w io.Writer, stats []permute.WindowStat) error {
	cw := csv.NewWriter(w)
	header := []string{
		"etype", "cumulative_attempts", "attempts", "complete", "unchanged",
		"self_loop", "duplicate", "undirected_duplicate", "excluded",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("load: writing stats header: %w", err)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, s := range stats {
		row := []string{
			s.EdgeType,
			strconv.Itoa(s.CumulativeAttempts),
			strconv.Itoa(s.Attempts),
			f(s.Complete),
			f(s.Unchanged),
			f(s.SelfLoop),
			f(s.Duplicate),
			f(s.UndirectedDuplicate),
			f(s.Excluded),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("load: writing stats row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
