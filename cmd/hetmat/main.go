// Package main provides the hetmat CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/hetmat/pkg/config"
	"github.com/orneryd/hetmat/pkg/hetmat"
	"github.com/orneryd/hetmat/pkg/load"
	"github.com/orneryd/hetmat/pkg/matstore"
	"github.com/orneryd/hetmat/pkg/metagraph"
	"github.com/orneryd/hetmat/pkg/permute"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "hetmat",
		Short: "hetmat - Metapath feature extraction for heterogeneous networks",
		Long: `hetmat computes machine-learning features over heterogeneous
(multi-typed) networks:

  • Degree-weighted path counts (DWPC) and walk counts (DWWC)
    for every metapath between a start and end node type
  • Degree feature tables per metaedge
  • Degree-preserving edge permutation (XSwap) for null models

Node and edge tables use the neo4j import CSV convention
(:ID/:LABEL and :START_ID/:END_ID/:TYPE).`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hetmat v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newDegreesCmd())
	rootCmd.AddCommand(newMetapathsCmd())
	rootCmd.AddCommand(newPermuteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addRunFlags registers the flags shared by commands that build a graph.
func addRunFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Nodes, "nodes", cfg.Nodes, "node table CSV")
	cmd.Flags().StringVar(&cfg.Edges, "edges", cfg.Edges, "edge table CSV")
	cmd.Flags().StringVar(&cfg.StartKind, "start", cfg.StartKind, "start metanode kind")
	cmd.Flags().StringVar(&cfg.EndKind, "end", cfg.EndKind, "end metanode kind")
	cmd.Flags().IntVar(&cfg.MaxLength, "max-length", cfg.MaxLength, "maximum metapath length")
	cmd.Flags().Float64Var(&cfg.W, "w", cfg.W, "degree dampening exponent [0,1]")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel workers")
	cmd.Flags().StringVar(&cfg.Metapaths, "metapaths", cfg.Metapaths, "precomputed metapath catalog (JSON)")
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "weighted-matrix cache directory")
}

// buildGraph loads the tables and constructs the matrix-formatted graph
// according to the run configuration.
func buildGraph(cfg config.Config) (*hetmat.Graph, func(), error) {
	nodes, err := load.NodesFile(cfg.Nodes)
	if err != nil {
		return nil, nil, err
	}
	edges, err := load.EdgesFile(cfg.Edges)
	if err != nil {
		return nil, nil, err
	}

	opts := hetmat.Options{
		StartKind: cfg.StartKind,
		EndKind:   cfg.EndKind,
		MaxLength: cfg.MaxLength,
		W:         cfg.W,
	}

	cleanup := func() {}
	if cfg.CacheDir != "" {
		store, err := matstore.Open(matstore.Options{DataDir: cfg.CacheDir})
		if err != nil {
			return nil, nil, err
		}
		opts.Store = store
		cleanup = func() { store.Close() }
	}

	if cfg.Metapaths != "" {
		catalog, err := metagraph.LoadCatalogFile(cfg.Metapaths)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts.Catalog = catalog
	}

	g, err := hetmat.NewGraph(nodes, edges, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return g, cleanup, nil
}

// openOutput returns the output writer for --out, defaulting to stdout.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %q: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func newExtractCmd() *cobra.Command {
	cfg := config.Default()
	var metric, out string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract DWPC or DWWC features for all metapaths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, cfg)
			if err != nil {
				return err
			}
			g, cleanup, err := buildGraph(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			start := hetmat.SelectKind(cfg.StartKind)
			end := hetmat.SelectKind(cfg.EndKind)

			var table *hetmat.FeatureTable
			switch metric {
			case "dwpc":
				table, err = g.ExtractDWPC(context.Background(), nil, start, end, cfg.Workers)
			case "dwwc":
				table, err = g.ExtractDWWC(context.Background(), nil, start, end, cfg.Workers)
			default:
				return fmt.Errorf("unknown metric %q (want dwpc or dwwc)", metric)
			}
			if err != nil {
				return err
			}

			w, done, err := openOutput(out)
			if err != nil {
				return err
			}
			defer done()
			return load.WriteFeatureTable(w, table)
		},
	}
	addRunFlags(cmd, &cfg)
	cmd.Flags().StringVar(&metric, "metric", "dwpc", "feature metric: dwpc or dwwc")
	cmd.Flags().StringVar(&out, "out", "", "output CSV path (default stdout)")
	return cmd
}

func newDegreesCmd() *cobra.Command {
	cfg := config.Default()
	var out string

	cmd := &cobra.Command{
		Use:   "degrees",
		Short: "Extract the degree feature table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, cfg)
			if err != nil {
				return err
			}
			g, cleanup, err := buildGraph(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			table, err := g.ExtractDegrees(
				hetmat.SelectKind(cfg.StartKind), hetmat.SelectKind(cfg.EndKind))
			if err != nil {
				return err
			}

			w, done, err := openOutput(out)
			if err != nil {
				return err
			}
			defer done()
			return load.WriteDegreeTable(w, table)
		},
	}
	addRunFlags(cmd, &cfg)
	cmd.Flags().StringVar(&out, "out", "", "output CSV path (default stdout)")
	return cmd
}

func newMetapathsCmd() *cobra.Command {
	cfg := config.Default()
	var out string

	cmd := &cobra.Command{
		Use:   "metapaths",
		Short: "Enumerate metapaths and export them as a catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, cfg)
			if err != nil {
				return err
			}
			g, cleanup, err := buildGraph(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			w, done, err := openOutput(out)
			if err != nil {
				return err
			}
			defer done()
			return metagraph.WriteCatalog(w, g.Metapaths())
		},
	}
	addRunFlags(cmd, &cfg)
	cmd.Flags().StringVar(&out, "out", "", "catalog JSON path (default stdout)")
	return cmd
}

func newPermuteCmd() *cobra.Command {
	cfg := config.Default()
	var out, statsOut string

	cmd := &cobra.Command{
		Use:   "permute",
		Short: "Permute the network's edges, preserving every node's degree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, cfg)
			if err != nil {
				return err
			}
			edges, err := load.EdgesFile(cfg.Edges)
			if err != nil {
				return err
			}

			opts := permute.Options{
				Multiplier: cfg.Permute.Multiplier,
				Seed:       cfg.Permute.Seed,
			}
			if cfg.Permute.Excluded != "" {
				excluded, err := load.EdgesFile(cfg.Permute.Excluded)
				if err != nil {
					return err
				}
				opts.Excluded = load.PermuteEdges(excluded)
			}

			permuted, stats, err := permute.Graph(
				context.Background(), load.PermuteEdges(edges), opts, cfg.Workers)
			if err != nil {
				return err
			}

			w, done, err := openOutput(out)
			if err != nil {
				return err
			}
			if err := load.WriteEdges(w, permuted); err != nil {
				done()
				return err
			}
			done()

			if statsOut != "" {
				sw, sdone, err := openOutput(statsOut)
				if err != nil {
					return err
				}
				defer sdone()
				return load.WriteStats(sw, stats)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Edges, "edges", cfg.Edges, "edge table CSV")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel workers (one per edge type)")
	cmd.Flags().Float64Var(&cfg.Permute.Multiplier, "multiplier", cfg.Permute.Multiplier, "swap attempts per edge")
	cmd.Flags().Int64Var(&cfg.Permute.Seed, "seed", cfg.Permute.Seed, "random seed")
	cmd.Flags().StringVar(&cfg.Permute.Excluded, "excluded", cfg.Permute.Excluded, "edge table of pairs to exclude")
	cmd.Flags().StringVar(&out, "out", "", "permuted edge CSV path (default stdout)")
	cmd.Flags().StringVar(&statsOut, "stats-out", "", "permutation statistics CSV path")
	return cmd
}

// mergeConfig layers sources lowest to highest precedence: defaults,
// the --config file with HETMAT_* env overrides, then explicit flags.
func mergeConfig(cmd *cobra.Command, flagCfg config.Config) (config.Config, error) {
	if cfgPath == "" {
		if err := flagCfg.Validate(); err != nil {
			return config.Config{}, err
		}
		return flagCfg, nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	// Flags the user set explicitly win over the file.
	merged := cfg
	if cmd.Flags().Changed("nodes") {
		merged.Nodes = flagCfg.Nodes
	}
	if cmd.Flags().Changed("edges") {
		merged.Edges = flagCfg.Edges
	}
	if cmd.Flags().Changed("start") {
		merged.StartKind = flagCfg.StartKind
	}
	if cmd.Flags().Changed("end") {
		merged.EndKind = flagCfg.EndKind
	}
	if cmd.Flags().Changed("max-length") {
		merged.MaxLength = flagCfg.MaxLength
	}
	if cmd.Flags().Changed("w") {
		merged.W = flagCfg.W
	}
	if cmd.Flags().Changed("workers") {
		merged.Workers = flagCfg.Workers
	}
	if cmd.Flags().Changed("metapaths") {
		merged.Metapaths = flagCfg.Metapaths
	}
	if cmd.Flags().Changed("cache-dir") {
		merged.CacheDir = flagCfg.CacheDir
	}
	if cmd.Flags().Changed("multiplier") {
		merged.Permute.Multiplier = flagCfg.Permute.Multiplier
	}
	if cmd.Flags().Changed("seed") {
		merged.Permute.Seed = flagCfg.Permute.Seed
	}
	if cmd.Flags().Changed("excluded") {
		merged.Permute.Excluded = flagCfg.Permute.Excluded
	}
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}
