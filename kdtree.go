package neighbor

import (
	"fmt"
	"math"
	"sort"
)

// KDTree is a KD-tree spatial index over axis-aligned bounding boxes.
// Points are kept in a flat row-major array in original order and
// reordered logically via an index permutation array.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
//
// KD-tree bounds are only valid for metrics that decompose along
// coordinate axes; see KDTreeValidMetric.
type KDTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int       // number of points
	dims     int       // dimensionality
	leafSize int
	metric   DistanceMetric
	idxArray []int      // permutation: tree-order position → original index
	nodes    []NodeData // one entry per tree node
	// nodeBoundsMin[node*dims + j] = min value of feature j in node
	nodeBoundsMin []float64
	// nodeBoundsMax[node*dims + j] = max value of feature j in node
	nodeBoundsMax []float64
	numNodes      int // one past the highest initialized node index
}

// NewKDTree builds a KD-tree over the dataset. leafSize controls the max
// points per leaf node. The dataset is copied; the caller's data is never
// reordered.
func NewKDTree(ds Dataset, metric DistanceMetric, leafSize int) (*KDTree, error) {
	if !KDTreeValidMetric(metric) {
		return nil, fmt.Errorf("neighbor: metric %T is not supported by KD-trees", metric)
	}
	if leafSize < 1 {
		leafSize = 1
	}

	dataCopy := make([]float64, len(ds.Data))
	copy(dataCopy, ds.Data)
	idxArray := make([]int, ds.Rows)
	for i := range idxArray {
		idxArray[i] = i
	}

	// Pre-allocate tree arrays. A complete binary tree with n leaves of
	// size leafSize needs at most 2*ceil(n/leafSize) nodes, but the
	// median split may not be perfectly balanced, so use a generous
	// upper bound.
	maxNodes := kdMaxNodes(ds.Rows, leafSize)

	t := &KDTree{
		data:          dataCopy,
		n:             ds.Rows,
		dims:          ds.Dims,
		leafSize:      leafSize,
		metric:        metric,
		idxArray:      idxArray,
		nodes:         make([]NodeData, maxNodes),
		nodeBoundsMin: make([]float64, maxNodes*ds.Dims),
		nodeBoundsMax: make([]float64, maxNodes*ds.Dims),
	}

	t.buildNode(0, 0, ds.Rows)

	return t, nil
}

// kdMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	// Depth of tree: ceil(log2(ceil(n/leafSize))) + 1.
	// Number of nodes in a complete binary tree of depth d = 2^(d+1) - 1.
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	v := 1
	for v < leaves {
		v *= 2
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2 // +2 for safety margin
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	// Grow arrays if needed (shouldn't happen with good upper bound).
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, t.dims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, t.dims)...)
	}
	if nodeID+1 > t.numNodes {
		t.numNodes = nodeID + 1
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}

	// Find dimension with greatest spread.
	splitDim := 0
	maxSpread := -1.0
	for d := 0; d < t.dims; d++ {
		spread := t.nodeBoundsMax[nodeID*t.dims+d] - t.nodeBoundsMin[nodeID*t.dims+d]
		if spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	// Sort by the split dimension and split at the median.
	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false}

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds computes min/max per dimension for points idxArray[start:end].
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < t.dims; d++ {
			v := t.data[ptIdx*t.dims+d]
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given dimension.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	data := t.data
	sort.Slice(sub, func(i, j int) bool {
		return data[sub[i]*dims+dim] < data[sub[j]*dims+dim]
	})
}

// --- SpatialTree interface ---

func (t *KDTree) Data() []float64           { return t.data }
func (t *KDTree) NumPoints() int            { return t.n }
func (t *KDTree) NumFeatures() int          { return t.dims }
func (t *KDTree) IdxArray() []int           { return t.idxArray }
func (t *KDTree) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }
func (t *KDTree) NumNodes() int             { return t.numNodes }
func (t *KDTree) Metric() DistanceMetric    { return t.metric }

func (t *KDTree) ChildNodes(node int) (left, right int) {
	return 2*node + 1, 2*node + 2
}

// MinDistPoint returns a lower bound on the distance from point to any
// point in node: the gap between the point and the node's bounding box,
// aggregated according to the metric.
func (t *KDTree) MinDistPoint(node int, point []float64) float64 {
	return t.metric.RdistToDist(t.boxRdistPoint(node, point, false))
}

// MaxDistPoint returns an upper bound on the distance from point to any
// point in node: the distance to the farthest corner of the bounding box.
func (t *KDTree) MaxDistPoint(node int, point []float64) float64 {
	return t.metric.RdistToDist(t.boxRdistPoint(node, point, true))
}

// MinDistDual returns a lower bound on the distance between any point in
// node and any point in otherNode of other, which must be a *KDTree.
func (t *KDTree) MinDistDual(node int, other SpatialTree, otherNode int) float64 {
	o, ok := other.(*KDTree)
	if !ok {
		panic("neighbor: KDTree dual bounds require the other tree to be a *KDTree")
	}
	return t.metric.RdistToDist(t.boxRdistDual(node, o, otherNode, false))
}

// MaxDistDual returns an upper bound on the distance between any point in
// node and any point in otherNode of other, which must be a *KDTree.
func (t *KDTree) MaxDistDual(node int, other SpatialTree, otherNode int) float64 {
	o, ok := other.(*KDTree)
	if !ok {
		panic("neighbor: KDTree dual bounds require the other tree to be a *KDTree")
	}
	return t.metric.RdistToDist(t.boxRdistDual(node, o, otherNode, true))
}

// boxRdistPoint computes the reduced-distance bound between a point and a
// node's bounding box: per-dimension nearest gap (or farthest edge when
// upper is set), aggregated according to the metric.
func (t *KDTree) boxRdistPoint(node int, point []float64, upper bool) float64 {
	dims := t.dims
	base := node * dims
	p := metricP(t.metric)

	var rdist float64
	for j := 0; j < dims; j++ {
		lo := t.nodeBoundsMin[base+j]
		hi := t.nodeBoundsMax[base+j]
		var d float64
		if upper {
			d = math.Max(hi-point[j], point[j]-lo)
		} else if point[j] < lo {
			d = lo - point[j]
		} else if point[j] > hi {
			d = point[j] - hi
		}
		if math.IsInf(p, 1) {
			rdist = math.Max(rdist, d)
		} else {
			rdist += math.Pow(d, p)
		}
	}
	return rdist
}

// boxRdistDual computes the reduced-distance bound between two bounding
// boxes: per-dimension gap between the boxes (or widest span when upper
// is set), aggregated according to the metric.
func (t *KDTree) boxRdistDual(node int, o *KDTree, otherNode int, upper bool) float64 {
	dims := t.dims
	base1 := node * dims
	base2 := otherNode * dims
	p := metricP(t.metric)

	var rdist float64
	for j := 0; j < dims; j++ {
		var d float64
		if upper {
			d = math.Max(t.nodeBoundsMax[base1+j]-o.nodeBoundsMin[base2+j],
				o.nodeBoundsMax[base2+j]-t.nodeBoundsMin[base1+j])
		} else {
			d1 := t.nodeBoundsMin[base1+j] - o.nodeBoundsMax[base2+j]
			d2 := o.nodeBoundsMin[base2+j] - t.nodeBoundsMax[base1+j]
			d = math.Max(d1, math.Max(d2, 0))
		}
		if math.IsInf(p, 1) {
			rdist = math.Max(rdist, d)
		} else {
			rdist += math.Pow(d, p)
		}
	}
	return rdist
}

// metricP returns the Minkowski exponent used to aggregate per-dimension
// box gaps into a reduced distance.
func metricP(m DistanceMetric) float64 {
	switch v := m.(type) {
	case EuclideanMetric, SquaredEuclideanMetric:
		return 2.0
	case ManhattanMetric:
		return 1.0
	case MinkowskiMetric:
		return v.P
	case ChebyshevMetric:
		return math.Inf(1)
	default:
		return 2.0 // fallback; Euclidean-like
	}
}
