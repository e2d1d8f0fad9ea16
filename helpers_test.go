package neighbor

import (
	"math/rand"
	"testing"
)

// randomDataset generates rows points in [0, 10)^dims.
func randomDataset(t *testing.T, r *rand.Rand, rows, dims int) Dataset {
	t.Helper()
	data := make([]float64, rows*dims)
	for i := range data {
		data[i] = r.Float64() * 10
	}
	ds, err := NewDataset(data, rows, dims)
	if err != nil {
		t.Fatalf("building random dataset: %v", err)
	}
	return ds
}

// walkNodes returns every reachable node index of the tree, root first.
func walkNodes(tr SpatialTree) []int {
	var out []int
	var visit func(node int)
	visit = func(node int) {
		out = append(out, node)
		if tr.NodeDataArray()[node].IsLeaf {
			return
		}
		left, right := tr.ChildNodes(node)
		visit(left)
		visit(right)
	}
	visit(0)
	return out
}

// nodeExtremes brute-forces the true min and max distance from point to
// the points covered by the node.
func nodeExtremes(tr SpatialTree, node int, point []float64) (minDist, maxDist float64) {
	nd := tr.NodeDataArray()[node]
	idx := tr.IdxArray()
	data := tr.Data()
	dims := tr.NumFeatures()
	m := tr.Metric()
	for i := nd.IdxStart; i < nd.IdxEnd; i++ {
		pt := data[idx[i]*dims : (idx[i]+1)*dims]
		d := m.Distance(point, pt)
		if i == nd.IdxStart || d < minDist {
			minDist = d
		}
		if i == nd.IdxStart || d > maxDist {
			maxDist = d
		}
	}
	return minDist, maxDist
}

// checkPermutation fails the test unless idx is a permutation of 0..n-1.
func checkPermutation(t *testing.T, idx []int, n int) {
	t.Helper()
	if len(idx) != n {
		t.Fatalf("permutation length = %d, want %d", len(idx), n)
	}
	seen := make(map[int]bool, n)
	for _, v := range idx {
		if v < 0 || v >= n {
			t.Errorf("permutation contains out-of-range index %d", v)
		}
		if seen[v] {
			t.Errorf("permutation contains duplicate index %d", v)
		}
		seen[v] = true
	}
}
