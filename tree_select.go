package neighbor

import "fmt"

// TreeKind selects the spatial tree built for tree-accelerated search.
type TreeKind string

const (
	TreeAuto     TreeKind = "auto"
	TreeKDTree   TreeKind = "kdtree"
	TreeBallTree TreeKind = "balltree"
)

// KDTreeValidMetric reports whether the metric supports KD-tree
// acceleration. KD-trees require metrics that decompose along coordinate
// axes: Euclidean, SquaredEuclidean, Manhattan, Chebyshev, Minkowski.
func KDTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, SquaredEuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// BallTreeValidMetric reports whether the metric supports ball tree
// acceleration. Ball trees work with any metric satisfying the triangle
// inequality, which excludes SquaredEuclidean (use a KD-tree for that)
// and Cosine.
func BallTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric, *MahalanobisMetric:
		return true
	default:
		return false
	}
}

// resolveTreeKind turns TreeAuto into a concrete tree kind compatible
// with the metric, and validates user-forced kinds against it.
func resolveTreeKind(kind TreeKind, m DistanceMetric) (TreeKind, error) {
	switch kind {
	case TreeAuto:
		if KDTreeValidMetric(m) {
			return TreeKDTree, nil
		}
		if BallTreeValidMetric(m) {
			return TreeBallTree, nil
		}
		return "", fmt.Errorf("neighbor: metric %T supports no tree kind; use naive search", m)
	case TreeKDTree:
		if !KDTreeValidMetric(m) {
			return "", fmt.Errorf("neighbor: metric %T is not supported by KD-trees", m)
		}
		return TreeKDTree, nil
	case TreeBallTree:
		if !BallTreeValidMetric(m) {
			return "", fmt.Errorf("neighbor: metric %T is not supported by ball trees", m)
		}
		return TreeBallTree, nil
	default:
		return "", fmt.Errorf("neighbor: invalid tree kind %q", kind)
	}
}

// buildTree constructs a tree of the resolved kind over the dataset.
func buildTree(kind TreeKind, ds Dataset, m DistanceMetric, leafSize int) (SpatialTree, error) {
	switch kind {
	case TreeKDTree:
		return NewKDTree(ds, m, leafSize)
	case TreeBallTree:
		return NewBallTree(ds, m, leafSize)
	default:
		return nil, fmt.Errorf("neighbor: invalid tree kind %q", kind)
	}
}

// treeKindOf reports the concrete kind of a prebuilt tree, or "" for an
// unknown implementation.
func treeKindOf(t SpatialTree) TreeKind {
	switch t.(type) {
	case *KDTree:
		return TreeKDTree
	case *BallTree:
		return TreeBallTree
	default:
		return ""
	}
}
