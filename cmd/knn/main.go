// Command knn finds the k best neighbors of every point in a CSV dataset,
// exhaustively or with tree-accelerated pruning.
package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrevorS/neighbor"
)

type options struct {
	reference    string
	query        string
	k            int
	naive        bool
	single       bool
	leafSize     int
	tree         string
	metric       string
	minkowskiP   float64
	furthest     bool
	neighborsOut string
	distancesOut string
	verbose      bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "knn",
		Short: "k-nearest (or furthest) neighbor search over CSV point sets",
		Long: `knn reads a reference point set (and optionally a separate query set)
from CSV and writes, for every query point, the indices and distances of
its k best neighbors under the chosen metric and ordering.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.reference, "reference", "r", "", "reference point set CSV (required)")
	flags.StringVarP(&opts.query, "query", "q", "", "query point set CSV (defaults to self-search over the reference set)")
	flags.IntVarP(&opts.k, "k", "k", 1, "number of neighbors per query point")
	flags.BoolVar(&opts.naive, "naive", false, "exhaustive search, no pruning (overrides --single)")
	flags.BoolVar(&opts.single, "single", false, "single-tree search instead of dual-tree")
	flags.IntVar(&opts.leafSize, "leaf-size", 20, "leaf size for internally built trees")
	flags.StringVar(&opts.tree, "tree", "auto", "tree kind: auto, kdtree, balltree")
	flags.StringVar(&opts.metric, "metric", "euclidean", "metric: euclidean, sqeuclidean, manhattan, chebyshev, minkowski, cosine")
	flags.Float64Var(&opts.minkowskiP, "minkowski-p", 3, "exponent for --metric minkowski")
	flags.BoolVar(&opts.furthest, "furthest", false, "search for furthest instead of nearest neighbors")
	flags.StringVar(&opts.neighborsOut, "neighbors-out", "neighbors.csv", "output CSV of neighbor indices, one row per query point")
	flags.StringVar(&opts.distancesOut, "distances-out", "distances.csv", "output CSV of neighbor distances, one row per query point")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cobra.CheckErr(rootCmd.MarkFlagRequired("reference"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	metric, err := metricByName(opts.metric, opts.minkowskiP)
	if err != nil {
		return err
	}

	reference, err := loadCSV(opts.reference)
	if err != nil {
		return fmt.Errorf("loading reference set: %w", err)
	}
	logger.Debug("loaded reference set", "rows", reference.Rows, "dims", reference.Dims)

	cfg := neighbor.DefaultConfig()
	cfg.Metric = metric
	cfg.Naive = opts.naive
	cfg.SingleMode = opts.single
	cfg.LeafSize = opts.leafSize
	cfg.Tree = neighbor.TreeKind(opts.tree)
	if opts.furthest {
		cfg.Sort = neighbor.FurthestNeighborSort{}
	}

	var ns *neighbor.NeighborSearch
	if opts.query == "" {
		ns, err = neighbor.New(reference, cfg)
	} else {
		var query neighbor.Dataset
		query, err = loadCSV(opts.query)
		if err != nil {
			return fmt.Errorf("loading query set: %w", err)
		}
		logger.Debug("loaded query set", "rows", query.Rows, "dims", query.Dims)
		ns, err = neighbor.NewWithQuery(reference, query, cfg)
	}
	if err != nil {
		return err
	}

	start := time.Now()
	indices, distances, err := ns.Search(opts.k)
	if err != nil {
		return err
	}
	logger.Info("search complete",
		"k", opts.k,
		"queries", len(indices),
		"prunes", ns.Prunes(),
		"elapsed", time.Since(start).String())

	if err := writeIndexCSV(opts.neighborsOut, indices); err != nil {
		return fmt.Errorf("writing %s: %w", opts.neighborsOut, err)
	}
	if err := writeDistanceCSV(opts.distancesOut, distances); err != nil {
		return fmt.Errorf("writing %s: %w", opts.distancesOut, err)
	}
	logger.Info("results written", "neighbors", opts.neighborsOut, "distances", opts.distancesOut)
	return nil
}

func metricByName(name string, minkowskiP float64) (neighbor.DistanceMetric, error) {
	switch name {
	case "euclidean":
		return neighbor.EuclideanMetric{}, nil
	case "sqeuclidean":
		return neighbor.SquaredEuclideanMetric{}, nil
	case "manhattan":
		return neighbor.ManhattanMetric{}, nil
	case "chebyshev":
		return neighbor.ChebyshevMetric{}, nil
	case "minkowski":
		if minkowskiP < 1 {
			return nil, fmt.Errorf("--minkowski-p must be >= 1, got %g", minkowskiP)
		}
		return neighbor.MinkowskiMetric{P: minkowskiP}, nil
	case "cosine":
		return neighbor.CosineMetric{}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

func loadCSV(path string) (neighbor.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return neighbor.Dataset{}, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return neighbor.Dataset{}, err
	}

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return neighbor.Dataset{}, fmt.Errorf("row %d, column %d: %w", i+1, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return neighbor.DatasetFromRows(rows)
}

func writeIndexCSV(path string, rows [][]int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := make([]string, 0, 8)
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.Itoa(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeDistanceCSV(path string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := make([]string, 0, 8)
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
