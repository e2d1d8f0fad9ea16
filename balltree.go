package neighbor

import (
	"fmt"
	"math"
	"sort"
)

// BallTree is a ball tree spatial index. Each node stores a centroid and
// radius defining the smallest enclosing ball for its points, so its
// bounds follow from the triangle inequality alone and any true metric
// works, including parametrized metrics like MahalanobisMetric.
//
// The tree is stored as a complete binary tree in array form: node i has
// children at 2*i+1 and 2*i+2. Centroid-to-centroid distances within one
// tree are precomputed so same-tree dual bounds are O(1).
type BallTree struct {
	data     []float64 // flat row-major point data (n * dims)
	n        int       // number of points
	dims     int       // dimensionality
	leafSize int
	metric   DistanceMetric
	idxArray []int      // permutation: tree-order position → original index
	nodes    []NodeData // one entry per tree node; Radius is used
	// centroids[node*dims .. (node+1)*dims) = centroid of node
	centroids []float64
	// centroidDists[i*numNodesAlloc + j] = metric.Distance(centroid_i, centroid_j)
	centroidDists []float64
	numNodes      int // one past the highest initialized node index
	numNodesAlloc int // allocated width of centroidDists
}

// NewBallTree builds a ball tree over the dataset. leafSize controls the
// max points per leaf node. The dataset is copied; the caller's data is
// never reordered.
func NewBallTree(ds Dataset, metric DistanceMetric, leafSize int) (*BallTree, error) {
	if !BallTreeValidMetric(metric) {
		return nil, fmt.Errorf("neighbor: metric %T is not supported by ball trees", metric)
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

	maxNodes := kdMaxNodes(ds.Rows, leafSize) // same upper bound as the KD-tree
	t := &BallTree{
		data:          dataCopy,
		n:             ds.Rows,
		dims:          ds.Dims,
		leafSize:      leafSize,
		metric:        metric,
		idxArray:      idxArray,
		nodes:         make([]NodeData, maxNodes),
		centroids:     make([]float64, maxNodes*ds.Dims),
		numNodesAlloc: maxNodes,
	}

	t.buildNode(0, 0, ds.Rows)
	t.precomputeCentroidDists()

	return t, nil
}

// buildNode recursively builds the ball tree for points in idxArray[start:end].
func (t *BallTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.centroids = append(t.centroids, make([]float64, t.dims)...)
		t.numNodesAlloc = len(t.nodes)
	}
	if nodeID+1 > t.numNodes {
		t.numNodes = nodeID + 1
	}

	t.computeCentroid(nodeID, start, end)

	// Radius: max distance from centroid to any point in this node.
	centroid := t.centroids[nodeID*t.dims : (nodeID+1)*t.dims]
	var radius float64
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		pt := t.data[ptIdx*t.dims : (ptIdx+1)*t.dims]
		d := t.metric.Distance(centroid, pt)
		if d > radius {
			radius = d
		}
	}

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true, Radius: radius}
		return
	}

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false, Radius: radius}

	// Split along the dimension with greatest spread at the median.
	splitDim := t.findSpreadDim(start, end)
	t.sortByDim(start, end, splitDim)
	mid := start + count/2

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeCentroid computes the mean of points idxArray[start:end] and stores
// it in the centroids array.
func (t *BallTree) computeCentroid(nodeID, start, end int) {
	base := nodeID * t.dims
	count := float64(end - start)
	for d := 0; d < t.dims; d++ {
		t.centroids[base+d] = 0
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < t.dims; d++ {
			t.centroids[base+d] += t.data[ptIdx*t.dims+d]
		}
	}
	for d := 0; d < t.dims; d++ {
		t.centroids[base+d] /= count
	}
}

// findSpreadDim returns the dimension with the greatest spread among
// points in idxArray[start:end].
func (t *BallTree) findSpreadDim(start, end int) int {
	bestDim := 0
	bestSpread := -1.0
	for d := 0; d < t.dims; d++ {
		minVal := math.Inf(1)
		maxVal := math.Inf(-1)
		for i := start; i < end; i++ {
			v := t.data[t.idxArray[i]*t.dims+d]
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
		spread := maxVal - minVal
		if spread > bestSpread {
			bestSpread = spread
			bestDim = d
		}
	}
	return bestDim
}

// sortByDim sorts idxArray[start:end] by the given dimension.
func (t *BallTree) sortByDim(start, end, dim int) {
	sub := t.idxArray[start:end]
	dims := t.dims
	data := t.data
	sort.Slice(sub, func(i, j int) bool {
		return data[sub[i]*dims+dim] < data[sub[j]*dims+dim]
	})
}

// precomputeCentroidDists builds the pairwise centroid distance matrix.
func (t *BallTree) precomputeCentroidDists() {
	nn := t.numNodesAlloc
	t.centroidDists = make([]float64, nn*nn)
	for i := 0; i < t.numNodes; i++ {
		ci := t.centroids[i*t.dims : (i+1)*t.dims]
		for j := i + 1; j < t.numNodes; j++ {
			cj := t.centroids[j*t.dims : (j+1)*t.dims]
			d := t.metric.Distance(ci, cj)
			t.centroidDists[i*nn+j] = d
			t.centroidDists[j*nn+i] = d
		}
	}
}

// --- SpatialTree interface ---

func (t *BallTree) Data() []float64           { return t.data }
func (t *BallTree) NumPoints() int            { return t.n }
func (t *BallTree) NumFeatures() int          { return t.dims }
func (t *BallTree) IdxArray() []int           { return t.idxArray }
func (t *BallTree) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }
func (t *BallTree) NumNodes() int             { return t.numNodes }
func (t *BallTree) Metric() DistanceMetric    { return t.metric }

func (t *BallTree) ChildNodes(node int) (left, right int) {
	return 2*node + 1, 2*node + 2
}

// MinDistPoint returns max(0, d(point, centroid) - radius).
func (t *BallTree) MinDistPoint(node int, point []float64) float64 {
	centroid := t.centroids[node*t.dims : (node+1)*t.dims]
	dist := t.metric.Distance(point, centroid) - t.nodes[node].Radius
	if dist < 0 {
		dist = 0
	}
	return dist
}

// MaxDistPoint returns d(point, centroid) + radius.
func (t *BallTree) MaxDistPoint(node int, point []float64) float64 {
	centroid := t.centroids[node*t.dims : (node+1)*t.dims]
	return t.metric.Distance(point, centroid) + t.nodes[node].Radius
}

// MinDistDual returns max(0, d(c1, c2) - r1 - r2). The other tree must be
// a *BallTree built with the same metric; when it is the receiver itself,
// the precomputed centroid distances are used.
func (t *BallTree) MinDistDual(node int, other SpatialTree, otherNode int) float64 {
	o, ok := other.(*BallTree)
	if !ok {
		panic("neighbor: BallTree dual bounds require the other tree to be a *BallTree")
	}
	dist := t.centroidDist(o, node, otherNode) - t.nodes[node].Radius - o.nodes[otherNode].Radius
	if dist < 0 {
		dist = 0
	}
	return dist
}

// MaxDistDual returns d(c1, c2) + r1 + r2.
func (t *BallTree) MaxDistDual(node int, other SpatialTree, otherNode int) float64 {
	o, ok := other.(*BallTree)
	if !ok {
		panic("neighbor: BallTree dual bounds require the other tree to be a *BallTree")
	}
	return t.centroidDist(o, node, otherNode) + t.nodes[node].Radius + o.nodes[otherNode].Radius
}

func (t *BallTree) centroidDist(o *BallTree, node, otherNode int) float64 {
	if o == t {
		return t.centroidDists[node*t.numNodesAlloc+otherNode]
	}
	c1 := t.centroids[node*t.dims : (node+1)*t.dims]
	c2 := o.centroids[otherNode*t.dims : (otherNode+1)*t.dims]
	return t.metric.Distance(c1, c2)
}
