package neighbor

import "fmt"

// Config controls how a NeighborSearch is built and executed.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Metric is the distance function used to compare points.
	// Default: EuclideanMetric.
	Metric DistanceMetric

	// Sort is the ordering policy: nearest (default) or furthest, or any
	// custom monotone ordering.
	Sort SortPolicy

	// Naive forces exhaustive O(|query|*|reference|) search with no
	// pruning. Overrides SingleMode. Correctness baseline.
	Naive bool

	// SingleMode uses single-tree search (a reference tree descended once
	// per query point) instead of the default dual-tree search.
	SingleMode bool

	// LeafSize is the maximum number of points in a leaf of internally
	// built trees. Ignored for prebuilt trees. Default: 20.
	LeafSize int

	// Tree selects the kind of internally built trees. TreeAuto (the
	// default) picks a kind compatible with the metric.
	Tree TreeKind

	// ReferenceTree optionally supplies a prebuilt tree over the
	// reference set. The tree must have been built with Metric over the
	// same points. The engine never mutates a supplied tree except for
	// the per-node Stat scratch bound, which dual-tree search resets on
	// every run.
	ReferenceTree SpatialTree

	// QueryTree optionally supplies a prebuilt tree over the query set.
	// Used only by dual-tree search with a separate query set; same
	// caveats as ReferenceTree.
	QueryTree SpatialTree
}

// DefaultConfig returns a Config with reasonable defaults: Euclidean
// metric, nearest-neighbor ordering, dual-tree search over
// automatically selected trees.
func DefaultConfig() Config {
	return Config{
		Metric:   EuclideanMetric{},
		Sort:     NearestNeighborSort{},
		LeafSize: 20,
		Tree:     TreeAuto,
	}
}

// NeighborSearch performs k-best proximity search of a query set against
// a reference set. All state is engine-private and traversal is
// single-threaded; a NeighborSearch must not be shared across goroutines
// while Search is running.
type NeighborSearch struct {
	refSet     Dataset
	querySet   Dataset
	selfSearch bool

	naive      bool
	singleMode bool

	metric DistanceMetric
	sort   SortPolicy

	refTree   SpatialTree
	queryTree SpatialTree // nil unless dual-tree search

	prunes int
}

// New creates a self-search engine: the reference set is also the query
// set, and a point is never reported as its own neighbor.
func New(reference Dataset, cfg Config) (*NeighborSearch, error) {
	return newSearch(reference, reference, true, cfg)
}

// NewWithQuery creates an engine searching reference for the neighbors
// of every point in query. The two sets must have the same
// dimensionality. Do not pass the same set twice — use [New] for
// self-search, which activates the skip-self rule.
func NewWithQuery(reference, query Dataset, cfg Config) (*NeighborSearch, error) {
	if query.Dims != reference.Dims {
		return nil, fmt.Errorf("neighbor: query dimensionality %d does not match reference %d",
			query.Dims, reference.Dims)
	}
	return newSearch(reference, query, false, cfg)
}

func newSearch(reference, query Dataset, selfSearch bool, cfg Config) (*NeighborSearch, error) {
	applyDefaults(&cfg)
	if err := checkDataset(reference, "reference"); err != nil {
		return nil, err
	}
	if err := checkDataset(query, "query"); err != nil {
		return nil, err
	}

	ns := &NeighborSearch{
		refSet:     reference,
		querySet:   query,
		selfSearch: selfSearch,
		naive:      cfg.Naive,
		singleMode: cfg.SingleMode && !cfg.Naive,
		metric:     cfg.Metric,
		sort:       cfg.Sort,
	}

	if err := checkPrebuiltTree(cfg.ReferenceTree, reference, "reference"); err != nil {
		return nil, err
	}

	if cfg.Naive {
		// Naive mode works directly on the datasets. A prebuilt reference
		// tree is only coherent here when the whole point set sits in its
		// root leaf.
		if cfg.ReferenceTree != nil && !cfg.ReferenceTree.NodeDataArray()[0].IsLeaf {
			return nil, fmt.Errorf("neighbor: naive search requires a prebuilt reference tree to be a single leaf node")
		}
		return ns, nil
	}

	kind, err := prebuiltOrResolvedKind(cfg)
	if err != nil {
		return nil, err
	}

	ns.refTree = cfg.ReferenceTree
	if ns.refTree == nil {
		ns.refTree, err = buildTree(kind, reference, cfg.Metric, cfg.LeafSize)
		if err != nil {
			return nil, err
		}
	}

	if ns.singleMode {
		return ns, nil
	}

	// Dual-tree search: in self mode the reference tree plays both roles.
	if selfSearch {
		ns.queryTree = ns.refTree
		return ns, nil
	}
	if cfg.QueryTree != nil {
		if err := checkPrebuiltTree(cfg.QueryTree, query, "query"); err != nil {
			return nil, err
		}
		ns.queryTree = cfg.QueryTree
		return ns, nil
	}
	if kind == "" {
		return nil, fmt.Errorf("neighbor: cannot build a query tree matching reference tree of type %T", cfg.ReferenceTree)
	}
	ns.queryTree, err = buildTree(kind, query, cfg.Metric, cfg.LeafSize)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Sort == nil {
		cfg.Sort = NearestNeighborSort{}
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 20
	}
	if cfg.Tree == "" {
		cfg.Tree = TreeAuto
	}
}

func checkDataset(ds Dataset, role string) error {
	if ds.Rows < 1 || ds.Dims < 1 || len(ds.Data) != ds.Rows*ds.Dims {
		return fmt.Errorf("neighbor: invalid %s dataset (%d rows x %d dims, %d values)",
			role, ds.Rows, ds.Dims, len(ds.Data))
	}
	return nil
}

func checkPrebuiltTree(t SpatialTree, ds Dataset, role string) error {
	if t == nil {
		return nil
	}
	if t.NumPoints() != ds.Rows || t.NumFeatures() != ds.Dims {
		return fmt.Errorf("neighbor: prebuilt %s tree covers %dx%d points, dataset is %dx%d",
			role, t.NumPoints(), t.NumFeatures(), ds.Rows, ds.Dims)
	}
	return nil
}

// prebuiltOrResolvedKind returns the tree kind internal builds must use.
// Prebuilt trees dictate the kind (dual-tree bounds require both trees to
// be the same concrete type); otherwise Config.Tree is resolved against
// the metric. An empty kind with a non-nil error-free return means the
// prebuilt trees are of a custom implementation.
func prebuiltOrResolvedKind(cfg Config) (TreeKind, error) {
	if cfg.ReferenceTree == nil && cfg.QueryTree == nil {
		return resolveTreeKind(cfg.Tree, cfg.Metric)
	}
	if cfg.ReferenceTree != nil && cfg.QueryTree != nil {
		rk, qk := treeKindOf(cfg.ReferenceTree), treeKindOf(cfg.QueryTree)
		if rk != qk {
			return "", fmt.Errorf("neighbor: reference tree (%T) and query tree (%T) must be the same kind",
				cfg.ReferenceTree, cfg.QueryTree)
		}
		return rk, nil
	}
	if cfg.ReferenceTree != nil {
		return treeKindOf(cfg.ReferenceTree), nil
	}
	return treeKindOf(cfg.QueryTree), nil
}

// Search finds, for every query point, the k best reference points under
// the configured ordering policy. It returns one row per query point in
// original input order; columns 0..k-1 are sorted best-to-worst. Slots
// for which no candidate exists (only possible in self-search with
// k = |reference|) hold index -1 and the policy's worst distance.
//
// Search may be called repeatedly; each call runs from scratch.
func (ns *NeighborSearch) Search(k int) (neighbors [][]int, distances [][]float64, err error) {
	if k < 1 {
		return nil, nil, fmt.Errorf("neighbor: k must be >= 1, got %d", k)
	}
	if k > ns.refSet.Rows {
		return nil, nil, fmt.Errorf("neighbor: k = %d exceeds the %d reference points", k, ns.refSet.Rows)
	}

	ns.prunes = 0
	cs := newCandidateSet(ns.querySet.Rows, k, ns.sort)

	switch {
	case ns.naive:
		ns.searchNaive(cs)
	case ns.singleMode:
		ns.searchSingleTree(cs)
	default:
		ns.searchDualTree(cs)
	}

	return ns.assembleResults(cs)
}

// assembleResults translates candidate rows back to original query order.
// Dual-tree search indexes rows by query-tree position, so they are
// remapped through the query tree's permutation; the other strategies
// already work in original order. Reference indices were translated at
// base-case time through the reference permutation.
func (ns *NeighborSearch) assembleResults(cs *candidateSet) ([][]int, [][]float64, error) {
	if ns.queryTree == nil {
		return cs.neighbors, cs.distances, nil
	}
	oldFromNew := ns.queryTree.IdxArray()
	neighbors := make([][]int, ns.querySet.Rows)
	distances := make([][]float64, ns.querySet.Rows)
	for pos := range cs.neighbors {
		neighbors[oldFromNew[pos]] = cs.neighbors[pos]
		distances[oldFromNew[pos]] = cs.distances[pos]
	}
	return neighbors, distances, nil
}

// Prunes returns the number of nodes and node pairs skipped during the
// most recent Search. Diagnostic only.
func (ns *NeighborSearch) Prunes() int { return ns.prunes }

// ReferenceTree returns the reference tree, or nil in naive mode.
func (ns *NeighborSearch) ReferenceTree() SpatialTree { return ns.refTree }

// QueryTree returns the query tree used by dual-tree search, or nil. In
// self-search mode it is the reference tree.
func (ns *NeighborSearch) QueryTree() SpatialTree { return ns.queryTree }
