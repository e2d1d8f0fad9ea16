package neighbor

import (
	"math/rand"
	"testing"
)

func TestKDTree_Construction_BasicProperties(t *testing.T) {
	// 6 points in 2D
	ds, err := DatasetFromRows([][]float64{
		{0, 0},
		{1, 0},
		{2, 0},
		{0, 3},
		{1, 3},
		{2, 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	tree, err := NewKDTree(ds, EuclideanMetric{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.NumPoints() != ds.Rows {
		t.Errorf("NumPoints() = %d, want %d", tree.NumPoints(), ds.Rows)
	}
	if tree.NumFeatures() != ds.Dims {
		t.Errorf("NumFeatures() = %d, want %d", tree.NumFeatures(), ds.Dims)
	}
	if tree.NumNodes() < 1 {
		t.Errorf("NumNodes() = %d, want >= 1", tree.NumNodes())
	}
	checkPermutation(t, tree.IdxArray(), ds.Rows)
}

func TestKDTree_Construction_LeafSize1(t *testing.T) {
	ds, _ := NewDataset([]float64{0, 0, 1, 1, 2, 2, 3, 3}, 4, 2)
	tree, err := NewKDTree(ds, EuclideanMetric{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With leafSize=1, every leaf has exactly 1 point.
	for _, node := range walkNodes(tree) {
		nd := tree.NodeDataArray()[node]
		if nd.IsLeaf && (nd.IdxEnd-nd.IdxStart) != 1 {
			t.Errorf("leaf has %d points, want 1", nd.IdxEnd-nd.IdxStart)
		}
	}
}

func TestKDTree_Construction_LeafSizeLargerThanN(t *testing.T) {
	ds, _ := NewDataset([]float64{1, 2, 3, 4}, 2, 2)
	tree, err := NewKDTree(ds, EuclideanMetric{}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All points fit in the root leaf.
	if !tree.NodeDataArray()[0].IsLeaf {
		t.Error("root should be a leaf when leafSize > n")
	}
}

func TestKDTree_Construction_SinglePoint(t *testing.T) {
	ds, _ := NewDataset([]float64{5, 5}, 1, 2)
	tree, err := NewKDTree(ds, EuclideanMetric{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := tree.NodeDataArray()[0]
	if !root.IsLeaf || root.IdxStart != 0 || root.IdxEnd != 1 {
		t.Errorf("root = %+v, want single-point leaf", root)
	}
}

func TestKDTree_RejectsIncompatibleMetric(t *testing.T) {
	ds, _ := NewDataset([]float64{0, 0, 1, 1}, 2, 2)
	if _, err := NewKDTree(ds, CosineMetric{}, 2); err == nil {
		t.Error("expected error for cosine metric, got nil")
	}
}

func TestKDTree_DoesNotMutateCallerData(t *testing.T) {
	data := []float64{3, 1, 0, 2, 5, 4}
	orig := append([]float64(nil), data...)
	ds, _ := NewDataset(data, 6, 1)
	if _, err := NewKDTree(ds, EuclideanMetric{}, 1); err != nil {
		t.Fatal(err)
	}
	for i := range data {
		if data[i] != orig[i] {
			t.Fatalf("caller data mutated at %d: %v -> %v", i, orig[i], data[i])
		}
	}
}

// Point-to-node bounds must bracket the true extremes for every node.
func TestKDTree_PointBoundsAreConservative(t *testing.T) {
	metrics := map[string]DistanceMetric{
		"euclidean":   EuclideanMetric{},
		"sqeuclidean": SquaredEuclideanMetric{},
		"manhattan":   ManhattanMetric{},
		"chebyshev":   ChebyshevMetric{},
		"minkowski3":  MinkowskiMetric{P: 3},
	}
	for name, metric := range metrics {
		t.Run(name, func(t *testing.T) {
			r := rand.New(rand.NewSource(7))
			ds := randomDataset(t, r, 50, 3)
			tree, err := NewKDTree(ds, metric, 4)
			if err != nil {
				t.Fatal(err)
			}
			for trial := 0; trial < 10; trial++ {
				point := []float64{r.Float64() * 12, r.Float64() * 12, r.Float64() * 12}
				for _, node := range walkNodes(tree) {
					trueMin, trueMax := nodeExtremes(tree, node, point)
					if lo := tree.MinDistPoint(node, point); lo > trueMin+1e-9 {
						t.Fatalf("node %d: MinDistPoint = %v exceeds true min %v", node, lo, trueMin)
					}
					if hi := tree.MaxDistPoint(node, point); hi < trueMax-1e-9 {
						t.Fatalf("node %d: MaxDistPoint = %v below true max %v", node, hi, trueMax)
					}
				}
			}
		})
	}
}

// Node-to-node bounds must bracket the true extremes across two trees.
func TestKDTree_DualBoundsAreConservative(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	metric := EuclideanMetric{}
	a, err := NewKDTree(randomDataset(t, r, 40, 2), metric, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewKDTree(randomDataset(t, r, 30, 2), metric, 3)
	if err != nil {
		t.Fatal(err)
	}

	for _, na := range walkNodes(a) {
		for _, nb := range walkNodes(b) {
			trueMin, trueMax := dualExtremes(a, na, b, nb)
			if lo := a.MinDistDual(na, b, nb); lo > trueMin+1e-9 {
				t.Fatalf("nodes (%d,%d): MinDistDual = %v exceeds true min %v", na, nb, lo, trueMin)
			}
			if hi := a.MaxDistDual(na, b, nb); hi < trueMax-1e-9 {
				t.Fatalf("nodes (%d,%d): MaxDistDual = %v below true max %v", na, nb, hi, trueMax)
			}
		}
	}
}

// dualExtremes brute-forces true min/max distances between two nodes'
// point sets.
func dualExtremes(a SpatialTree, na int, b SpatialTree, nb int) (minDist, maxDist float64) {
	nda := a.NodeDataArray()[na]
	idxA, dataA, dims := a.IdxArray(), a.Data(), a.NumFeatures()
	first := true
	for i := nda.IdxStart; i < nda.IdxEnd; i++ {
		pt := dataA[idxA[i]*dims : (idxA[i]+1)*dims]
		lo, hi := nodeExtremes(b, nb, pt)
		if first || lo < minDist {
			minDist = lo
		}
		if first || hi > maxDist {
			maxDist = hi
		}
		first = false
	}
	return minDist, maxDist
}
