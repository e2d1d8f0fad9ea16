package neighbor

import "math"

// SortPolicy decides which of two candidate distances ranks ahead and
// supplies the conservative bounds pruning relies on. Implementations
// must be pruning-safe: the Best* methods may understate but never
// overstate how good the true best case between the operands is.
type SortPolicy interface {
	// WorstDistance returns the sentinel value no real distance can be
	// worse than. Empty candidate slots and query-node bounds start here.
	WorstDistance() float64

	// IsBetter reports whether a should rank ahead of b.
	IsBetter(a, b float64) bool

	// BestPointToNode returns the best distance any point inside node
	// could possibly achieve to point.
	BestPointToNode(t SpatialTree, node int, point []float64) float64

	// BestNodeToNode returns the best distance achievable between any
	// point in queryNode and any point in refNode.
	BestNodeToNode(queryTree SpatialTree, queryNode int, refTree SpatialTree, refNode int) float64
}

// NearestNeighborSort ranks smaller distances ahead: the classic
// k-nearest-neighbor ordering.
type NearestNeighborSort struct{}

func (NearestNeighborSort) WorstDistance() float64 { return math.Inf(1) }

func (NearestNeighborSort) IsBetter(a, b float64) bool { return a < b }

func (NearestNeighborSort) BestPointToNode(t SpatialTree, node int, point []float64) float64 {
	return t.MinDistPoint(node, point)
}

func (NearestNeighborSort) BestNodeToNode(queryTree SpatialTree, queryNode int, refTree SpatialTree, refNode int) float64 {
	return queryTree.MinDistDual(queryNode, refTree, refNode)
}

// FurthestNeighborSort ranks larger distances ahead, turning the engine
// into a k-furthest-neighbor search.
type FurthestNeighborSort struct{}

func (FurthestNeighborSort) WorstDistance() float64 { return 0 }

func (FurthestNeighborSort) IsBetter(a, b float64) bool { return a > b }

func (FurthestNeighborSort) BestPointToNode(t SpatialTree, node int, point []float64) float64 {
	return t.MaxDistPoint(node, point)
}

func (FurthestNeighborSort) BestNodeToNode(queryTree SpatialTree, queryNode int, refTree SpatialTree, refNode int) float64 {
	return queryTree.MaxDistDual(queryNode, refTree, refNode)
}
