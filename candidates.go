package neighbor

// candidateSet holds the per-query sorted neighbor rows for one search
// run: for each query index, exactly k (reference index, distance) pairs
// sorted best-to-worst, padded with (-1, WorstDistance) sentinels until k
// real candidates exist.
type candidateSet struct {
	sort      SortPolicy
	neighbors [][]int
	distances [][]float64
}

func newCandidateSet(queries, k int, sort SortPolicy) *candidateSet {
	c := &candidateSet{
		sort:      sort,
		neighbors: make([][]int, queries),
		distances: make([][]float64, queries),
	}
	worst := sort.WorstDistance()
	for qi := 0; qi < queries; qi++ {
		nb := make([]int, k)
		ds := make([]float64, k)
		for j := 0; j < k; j++ {
			nb[j] = -1
			ds[j] = worst
		}
		c.neighbors[qi] = nb
		c.distances[qi] = ds
	}
	return c
}

// insert places (refIndex, dist) into query row qi if it beats the
// current worst entry, shifting worse entries one slot toward the tail
// and discarding the old tail. O(k) worst case.
func (c *candidateSet) insert(qi, refIndex int, dist float64) {
	d := c.distances[qi]
	k := len(d)
	if !c.sort.IsBetter(dist, d[k-1]) {
		return
	}
	pos := k - 1
	for pos > 0 && c.sort.IsBetter(dist, d[pos-1]) {
		pos--
	}
	n := c.neighbors[qi]
	for i := k - 1; i > pos; i-- {
		d[i] = d[i-1]
		n[i] = n[i-1]
	}
	d[pos] = dist
	n[pos] = refIndex
}

// tail returns the current worst (k-th best) distance held for query qi.
func (c *candidateSet) tail(qi int) float64 {
	d := c.distances[qi]
	return d[len(d)-1]
}

// worstTail returns the policy-worst tail across query rows [lo, hi),
// the exact refreshed bound for a query leaf covering those rows.
func (c *candidateSet) worstTail(lo, hi int) float64 {
	w := c.tail(lo)
	for qi := lo + 1; qi < hi; qi++ {
		if t := c.tail(qi); c.sort.IsBetter(w, t) {
			w = t
		}
	}
	return w
}
