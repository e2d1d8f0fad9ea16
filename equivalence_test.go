package neighbor

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// runStrategies runs naive, single-tree, and dual-tree search with the
// same configuration and requires identical results. Naive is the
// correctness baseline; all strategies evaluate the metric on the same
// point pairs, so distances match exactly and random continuous data has
// no ties to make index comparison ambiguous.
func runStrategies(t *testing.T, ref Dataset, query *Dataset, cfg Config, k int) {
	t.Helper()

	build := func(c Config) *NeighborSearch {
		var ns *NeighborSearch
		var err error
		if query == nil {
			ns, err = New(ref, c)
		} else {
			ns, err = NewWithQuery(ref, *query, c)
		}
		require.NoError(t, err)
		return ns
	}

	naiveCfg := cfg
	naiveCfg.Naive = true
	naiveCfg.Tree = ""
	wantN, wantD, err := build(naiveCfg).Search(k)
	require.NoError(t, err)

	singleCfg := cfg
	singleCfg.SingleMode = true
	gotN, gotD, err := build(singleCfg).Search(k)
	require.NoError(t, err)
	require.Equal(t, wantD, gotD, "single-tree distances diverge from naive")
	require.Equal(t, wantN, gotN, "single-tree indices diverge from naive")

	gotN, gotD, err = build(cfg).Search(k)
	require.NoError(t, err)
	require.Equal(t, wantD, gotD, "dual-tree distances diverge from naive")
	require.Equal(t, wantN, gotN, "dual-tree indices diverge from naive")
}

func TestStrategyEquivalence(t *testing.T) {
	metrics := []struct {
		name   string
		metric DistanceMetric
		trees  []TreeKind
	}{
		{"euclidean", EuclideanMetric{}, []TreeKind{TreeKDTree, TreeBallTree}},
		{"sqeuclidean", SquaredEuclideanMetric{}, []TreeKind{TreeKDTree}},
		{"manhattan", ManhattanMetric{}, []TreeKind{TreeKDTree, TreeBallTree}},
		{"chebyshev", ChebyshevMetric{}, []TreeKind{TreeKDTree, TreeBallTree}},
		{"minkowski3", MinkowskiMetric{P: 3}, []TreeKind{TreeKDTree, TreeBallTree}},
	}
	sorts := []struct {
		name string
		sort SortPolicy
	}{
		{"nearest", NearestNeighborSort{}},
		{"furthest", FurthestNeighborSort{}},
	}

	r := rand.New(rand.NewSource(42))
	ref := randomDataset(t, r, 60, 3)
	query := randomDataset(t, r, 25, 3)

	for _, m := range metrics {
		for _, s := range sorts {
			for _, tree := range m.trees {
				for _, k := range []int{1, 5} {
					cfg := Config{
						Metric:   m.metric,
						Sort:     s.sort,
						LeafSize: 4,
						Tree:     tree,
					}
					name := fmt.Sprintf("%s/%s/%s/k=%d", m.name, s.name, tree, k)
					t.Run("self/"+name, func(t *testing.T) {
						runStrategies(t, ref, nil, cfg, k)
					})
					t.Run("query/"+name, func(t *testing.T) {
						runStrategies(t, ref, &query, cfg, k)
					})
				}
			}
		}
	}
}

func TestStrategyEquivalence_Mahalanobis(t *testing.T) {
	cov := mat.NewSymDense(3, []float64{
		2, 0.3, 0,
		0.3, 1, 0.2,
		0, 0.2, 1.5,
	})
	metric, err := NewMahalanobisMetric(cov)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(43))
	ref := randomDataset(t, r, 50, 3)
	query := randomDataset(t, r, 20, 3)

	cfg := Config{Metric: metric, Sort: NearestNeighborSort{}, LeafSize: 4, Tree: TreeBallTree}
	runStrategies(t, ref, nil, cfg, 3)
	runStrategies(t, ref, &query, cfg, 3)
}

func TestStrategyEquivalence_PrebuiltTrees(t *testing.T) {
	r := rand.New(rand.NewSource(44))
	ref := randomDataset(t, r, 50, 2)
	query := randomDataset(t, r, 20, 2)
	metric := EuclideanMetric{}

	for _, kindName := range []string{"kdtree", "balltree"} {
		t.Run(kindName, func(t *testing.T) {
			var refTree, queryTree SpatialTree
			var err error
			if kindName == "kdtree" {
				refTree, err = NewKDTree(ref, metric, 4)
				require.NoError(t, err)
				queryTree, err = NewKDTree(query, metric, 4)
			} else {
				refTree, err = NewBallTree(ref, metric, 4)
				require.NoError(t, err)
				queryTree, err = NewBallTree(query, metric, 4)
			}
			require.NoError(t, err)

			naiveCfg := Config{Metric: metric, Naive: true}
			ns, err := NewWithQuery(ref, query, naiveCfg)
			require.NoError(t, err)
			wantN, wantD, err := ns.Search(3)
			require.NoError(t, err)

			// Reference tree supplied, query tree built internally.
			cfg := Config{Metric: metric, LeafSize: 4, ReferenceTree: refTree}
			ns, err = NewWithQuery(ref, query, cfg)
			require.NoError(t, err)
			gotN, gotD, err := ns.Search(3)
			require.NoError(t, err)
			require.Equal(t, wantD, gotD)
			require.Equal(t, wantN, gotN)

			// Both trees supplied.
			cfg.QueryTree = queryTree
			ns, err = NewWithQuery(ref, query, cfg)
			require.NoError(t, err)
			gotN, gotD, err = ns.Search(3)
			require.NoError(t, err)
			require.Equal(t, wantD, gotD)
			require.Equal(t, wantN, gotN)

			// Supplied reference tree in single-tree mode.
			cfg = Config{Metric: metric, SingleMode: true, ReferenceTree: refTree}
			ns, err = NewWithQuery(ref, query, cfg)
			require.NoError(t, err)
			gotN, gotD, err = ns.Search(3)
			require.NoError(t, err)
			require.Equal(t, wantD, gotD)
			require.Equal(t, wantN, gotN)
		})
	}
}

// Searches reusing the same prebuilt reference tree across engines must
// not interfere: only the per-node Stat scratch is touched, and each run
// resets it.
func TestPrebuiltTreeReuseAcrossEngines(t *testing.T) {
	r := rand.New(rand.NewSource(45))
	ref := randomDataset(t, r, 40, 2)
	tree, err := NewKDTree(ref, EuclideanMetric{}, 4)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ReferenceTree = tree
	a, err := New(ref, cfg)
	require.NoError(t, err)
	b, err := New(ref, cfg)
	require.NoError(t, err)

	an1, ad1, err := a.Search(3)
	require.NoError(t, err)
	_, _, err = b.Search(5)
	require.NoError(t, err)
	an2, ad2, err := a.Search(3)
	require.NoError(t, err)

	require.Equal(t, ad1, ad2)
	require.Equal(t, an1, an2)
}
