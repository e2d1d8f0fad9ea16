package neighbor

// NodeData describes a single node in a spatial tree.
//
// Stat is a scratch scalar owned by whichever search is currently using
// the node as a query node: dual-tree search stores its per-node pruning
// bound there and resets it on every run. It is the only field a search
// mutates on a tree it did not build.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	Radius           float64 // ball tree radius; 0 for KD-tree
	Stat             float64
}

// SpatialTree is the interface the search engine needs from a spatial
// partitioning tree: navigation, the index permutation produced at build
// time, and conservative distance bounds between points, nodes, and
// nodes of another tree of the same kind.
//
// Trees are stored as arrays of nodes addressed by index, with node 0 as
// the root and node i's children at the indices returned by ChildNodes.
// All bound methods return values in true distance space (the space of
// Metric().Distance).
type SpatialTree interface {
	// Data returns the flat row-major point data owned by the tree,
	// in original (unpermuted) point order.
	Data() []float64

	// NumPoints returns the number of points in the tree.
	NumPoints() int

	// NumFeatures returns the dimensionality of each point.
	NumFeatures() int

	// IdxArray returns the permutation mapping tree-order positions back
	// to original point indices (oldFromNew).
	IdxArray() []int

	// NodeDataArray returns the node metadata. Mutations of Stat entries
	// are visible to subsequent calls.
	NodeDataArray() []NodeData

	// NumNodes returns the size of the node address space; every
	// reachable node index is below it.
	NumNodes() int

	// ChildNodes returns the left and right child node indices.
	// Behavior is undefined for leaf nodes.
	ChildNodes(node int) (left, right int)

	// Metric returns the metric the tree was built with.
	Metric() DistanceMetric

	// MinDistPoint returns a lower bound on the distance between point
	// and any point inside node.
	MinDistPoint(node int, point []float64) float64

	// MaxDistPoint returns an upper bound on the distance between point
	// and any point inside node.
	MaxDistPoint(node int, point []float64) float64

	// MinDistDual returns a lower bound on the distance between any
	// point in node and any point in otherNode of other. The other tree
	// must be the same concrete kind as the receiver.
	MinDistDual(node int, other SpatialTree, otherNode int) float64

	// MaxDistDual returns an upper bound on the distance between any
	// point in node and any point in otherNode of other. The other tree
	// must be the same concrete kind as the receiver.
	MaxDistDual(node int, other SpatialTree, otherNode int) float64
}
