// Package permute implements degree-preserving randomization of a
// heterogeneous network's edges (the XSwap / configuration-model
// double-edge swap), used to build null-model networks for comparing
// observed metapath features against chance.
//
// A swap picks two distinct edges (a→b, c→d) and proposes the
// recombination (a→d, c→b). The swap is accepted only when BOTH
// recombined edges are simultaneously valid: no self-loop, not already
// present, not present reversed when the network is undirected, and not
// in the caller's exclusion set. Swaps are atomic pairs: one failing
// check rejects the whole swap and both edges stay unchanged. Every
// node keeps its exact in- and out-degree throughout.
//
// Each swap attempt reads and writes the evolving edge set, so the
// procedure is inherently sequential within one edge type; the
// whole-graph variant permutes independent edge types concurrently
// since they mutate disjoint edge sets.
//
// Example:
//
//	out, stats, err := permute.Edges(edges, permute.Options{
//		Multiplier: 10,
//		Seed:       42,
//	})
package permute

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/orneryd/hetmat/pkg/parallel"
)

var (
	// ErrDuplicateEdge reports a permutation input containing a
	// duplicate (start, end) pair. The algorithm's membership set
	// assumes simple edge sets; violated input is a precondition
	// failure, not a recoverable condition.
	ErrDuplicateEdge = errors.New("permute: duplicate (start, end) pair in input edges")

	// ErrMixedEdgeTypes reports Edges invoked on an edge set spanning
	// more than one edge type. Use Graph to permute a full network.
	ErrMixedEdgeTypes = errors.New("permute: edge set contains multiple edge types")
)

// Edge is one row of a raw edge table.
type Edge struct {
	Start string
	End   string
	Type  string
}

// Options configures one permutation run.
type Options struct {
	// Directed controls whether reversed duplicates are allowed. When
	// false, a candidate edge matching an existing edge's reverse
	// orientation is rejected.
	Directed bool

	// Multiplier governs the number of swap attempts:
	// attempts = ⌊len(edges) × Multiplier⌋. Zero means 10, enough for
	// the edge set to mix in practice.
	Multiplier float64

	// Excluded lists edges that must never appear in the output, e.g.
	// held-out test edges. Matching is by (start, end) pair.
	Excluded []Edge

	// Seed fixes the random source. The same seed and input produce
	// byte-identical permuted output and identical statistics.
	Seed int64
}

// WindowStat is one reporting window of swap diagnostics. Statistics
// are emitted at ~10 evenly spaced checkpoints across the attempts plus
// a final checkpoint, giving a bounded-size time series for judging
// convergence rather than a full audit log.
type WindowStat struct {
	// EdgeType is set by Graph; empty for single-type runs.
	EdgeType string
	// CumulativeAttempts is the attempt index at the checkpoint.
	CumulativeAttempts int
	// Attempts is the number of attempts inside this window.
	Attempts int
	// Complete is the fraction of all attempts finished.
	Complete float64
	// Unchanged is the fraction of original edges still present.
	Unchanged float64
	// Per-attempt rejection rates within the window, by reason.
	SelfLoop            float64
	Duplicate           float64
	UndirectedDuplicate float64
	Excluded            float64
}

// pair is a directed (start, end) endpoint pair, the membership-set key.
type pair struct {
	start, end string
}

// Edges permutes a single edge type's edge set, preserving every node's
// degree. The output has the same length and edge type as the input.
// Returns ErrDuplicateEdge or ErrMixedEdgeTypes on violated
// preconditions; a rejected swap is normal behavior and is counted in
// the returned statistics, never retried as a distinct attempt.
func Edges(edges []Edge, opts Options) ([]Edge, []WindowStat, error) {
	if len(edges) == 0 {
		return nil, nil, nil
	}

	edgeType := edges[0].Type
	if len(edges) == 1 {
		// A swap needs two distinct edges; a single edge can only stay
		// as it is.
		return []Edge{edges[0]}, nil, nil
	}
	list := make([]pair, len(edges))
	set := make(map[pair]struct{}, len(edges))
	for i, e := range edges {
		if e.Type != edgeType {
			return nil, nil, fmt.Errorf("%w: %q and %q", ErrMixedEdgeTypes, edgeType, e.Type)
		}
		p := pair{e.Start, e.End}
		if _, dup := set[p]; dup {
			return nil, nil, fmt.Errorf("%w: (%s, %s)", ErrDuplicateEdge, e.Start, e.End)
		}
		list[i] = p
		set[p] = struct{}{}
	}

	original := make(map[pair]struct{}, len(set))
	for p := range set {
		original[p] = struct{}{}
	}

	excluded := make(map[pair]struct{}, len(opts.Excluded))
	for _, e := range opts.Excluded {
		excluded[pair{e.Start, e.End}] = struct{}{}
	}

	multiplier := opts.Multiplier
	if multiplier == 0 {
		multiplier = 10
	}
	attempts := int(float64(len(edges)) * multiplier)
	rng := rand.New(rand.NewSource(opts.Seed))

	checkpoints := checkpointSchedule(attempts)
	stats := make([]WindowStat, 0, len(checkpoints))

	var selfLoops, duplicates, undirDups, excludedHits int
	windowStart := -1 // previous checkpoint index

	for i := 0; i < attempts; i++ {
		// Two distinct edges, uniform without replacement within the pair.
		i0 := rng.Intn(len(list))
		i1 := i0
		for i1 == i0 {
			i1 = rng.Intn(len(list))
		}
		e0, e1 := list[i0], list[i1]
		swapped := [2]pair{{e0.start, e1.end}, {e1.start, e0.end}}

		valid := true
		for _, cand := range swapped {
			if cand.start == cand.end {
				selfLoops++
				valid = false
				break
			}
			if _, exists := set[cand]; exists {
				duplicates++
				valid = false
				break
			}
			if !opts.Directed {
				if _, exists := set[pair{cand.end, cand.start}]; exists {
					undirDups++
					valid = false
					break
				}
			}
			if _, hit := excluded[cand]; hit {
				excludedHits++
				valid = false
				break
			}
		}

		if valid {
			// List and membership set mutate together; the set is
			// always the exact content of the list.
			delete(set, e0)
			delete(set, e1)
			list[i0] = swapped[0]
			list[i1] = swapped[1]
			set[swapped[0]] = struct{}{}
			set[swapped[1]] = struct{}{}
		}

		if isCheckpoint(checkpoints, i) {
			window := i - windowStart
			unchanged := 0
			for p := range original {
				if _, still := set[p]; still {
					unchanged++
				}
			}
			stats = append(stats, WindowStat{
				CumulativeAttempts:  i,
				Attempts:            window,
				Complete:            float64(i+1) / float64(attempts),
				Unchanged:           float64(unchanged) / float64(len(edges)),
				SelfLoop:            float64(selfLoops) / float64(window),
				Duplicate:           float64(duplicates) / float64(window),
				UndirectedDuplicate: float64(undirDups) / float64(window),
				Excluded:            float64(excludedHits) / float64(window),
			})
			windowStart = i
			selfLoops, duplicates, undirDups, excludedHits = 0, 0, 0, 0
		}
	}

	out := make([]Edge, len(list))
	for i, p := range list {
		out[i] = Edge{Start: p.start, End: p.end, Type: edgeType}
	}
	return out, stats, nil
}

// checkpointSchedule returns the ascending attempt indices at which
// window statistics are emitted: every attempts/10 steps plus the final
// attempt.
func checkpointSchedule(attempts int) []int {
	if attempts <= 0 {
		return nil
	}
	step := attempts / 10
	if step < 1 {
		step = 1
	}
	var at []int
	for i := step; i < attempts; i += step {
		at = append(at, i)
	}
	if len(at) == 0 || at[len(at)-1] != attempts-1 {
		at = append(at, attempts-1)
	}
	return at
}

// isCheckpoint reports whether i is in the ascending schedule.
func isCheckpoint(at []int, i int) bool {
	for _, c := range at {
		if c == i {
			return true
		}
		if c > i {
			return false
		}
	}
	return false
}

// Graph permutes every edge type of a network independently and
// concatenates the results in first-appearance type order. Each type
// derives its own deterministic seed, opts.Seed + that type's edge
// count, so types do not share correlated randomness. Direction is
// recovered from the edge-type abbreviation ('>' or '<' marks a
// directed type).
//
// Types mutate disjoint edge sets, so they are permuted concurrently
// across the given number of workers; output order stays deterministic.
func Graph(ctx context.Context, edges []Edge, opts Options, workers int) ([]Edge, []WindowStat, error) {
	var typeOrder []string
	byType := make(map[string][]Edge)
	for _, e := range edges {
		if _, seen := byType[e.Type]; !seen {
			typeOrder = append(typeOrder, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], e)
	}

	type result struct {
		edges []Edge
		stats []WindowStat
	}
	jobs := make([]parallel.Job[result], len(typeOrder))
	for i, et := range typeOrder {
		et := et
		typeEdges := byType[et]
		jobs[i] = parallel.Job[result]{
			Label: et,
			Run: func() (result, error) {
				typeOpts := opts
				typeOpts.Directed = strings.ContainsAny(et, "<>")
				typeOpts.Seed = opts.Seed + int64(len(typeEdges))
				permuted, stats, err := Edges(typeEdges, typeOpts)
				if err != nil {
					return result{}, err
				}
				for j := range stats {
					stats[j].EdgeType = et
				}
				return result{edges: permuted, stats: stats}, nil
			},
		}
	}

	results, err := parallel.Run(ctx, jobs, workers, true)
	if err != nil {
		return nil, nil, err
	}

	var outEdges []Edge
	var outStats []WindowStat
	for _, r := range results {
		outEdges = append(outEdges, r.edges...)
		outStats = append(outStats, r.stats...)
	}
	return outEdges, outStats, nil
}
