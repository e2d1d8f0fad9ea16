// Package neighbor implements generalized proximity search: for every
// point in a query set, it finds the k points in a reference set with the
// best distance under a pluggable ordering policy (nearest, furthest, or
// any monotone variant) and a pluggable distance metric.
//
// Basic usage:
//
//	ref, err := neighbor.DatasetFromRows(points)
//	ns, err := neighbor.New(ref, neighbor.DefaultConfig())
//	indices, distances, err := ns.Search(5)
//	// indices[i] / distances[i] are the 5 best neighbors of point i,
//	// sorted best-to-worst. In self-search mode a point is never its
//	// own neighbor.
//
// Use [NewWithQuery] to search a reference set with a separate query set.
//
// # Search strategies
//
// Three strategies are available through [Config]. The default is
// dual-tree search, which recurses jointly over a query tree and a
// reference tree and prunes whole node pairs using conservative distance
// bounds. Single-tree search (Config.SingleMode) descends the reference
// tree once per query point. Naive search (Config.Naive, overrides
// SingleMode) compares every pair exhaustively and serves as the
// correctness baseline.
//
// # Trees and metrics
//
// Tree-accelerated strategies need a spatial tree whose bounding regions
// are valid for the metric. KD-trees require metrics that decompose along
// coordinate axes (Euclidean, SquaredEuclidean, Manhattan, Chebyshev,
// Minkowski); ball trees require the triangle inequality and additionally
// accept [MahalanobisMetric]. Config.Tree defaults to TreeAuto, which
// picks a compatible kind for the configured metric. Metrics that fit
// neither tree (Cosine, arbitrary DistanceFunc) can still be used with
// naive search.
package neighbor
