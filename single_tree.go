package neighbor

// searchSingleTree descends the reference tree once per query point,
// pruning subtrees whose best-case distance cannot beat the query's
// current k-th candidate.
func (ns *NeighborSearch) searchSingleTree(cs *candidateSet) {
	for qi := 0; qi < ns.querySet.Rows; qi++ {
		best := ns.sort.WorstDistance()
		ns.singleRecurse(cs, qi, ns.querySet.Row(qi), 0, &best)
	}
}

// singleRecurse processes one reference node for query point qi. best
// tracks the query's current k-th candidate distance and tightens as
// leaves are processed, which is why the more promising child is visited
// first.
func (ns *NeighborSearch) singleRecurse(cs *candidateSet, qi int, point []float64, node int, best *float64) {
	t := ns.refTree
	nd := t.NodeDataArray()[node]

	if nd.IsLeaf {
		idx := t.IdxArray()
		data := t.Data()
		dims := t.NumFeatures()
		for i := nd.IdxStart; i < nd.IdxEnd; i++ {
			ri := idx[i]
			if ns.selfSearch && ri == qi {
				continue
			}
			cs.insert(qi, ri, ns.metric.Distance(point, data[ri*dims:(ri+1)*dims]))
		}
		*best = cs.tail(qi)
		return
	}

	left, right := t.ChildNodes(node)
	leftBound := ns.sort.BestPointToNode(t, left, point)
	rightBound := ns.sort.BestPointToNode(t, right, point)

	// More promising child first; on equal bounds the first child wins.
	first, second := left, right
	firstBound, secondBound := leftBound, rightBound
	if ns.sort.IsBetter(rightBound, leftBound) {
		first, second = right, left
		firstBound, secondBound = rightBound, leftBound
	}

	if ns.sort.IsBetter(firstBound, *best) {
		ns.singleRecurse(cs, qi, point, first, best)
	} else {
		ns.prunes++
	}
	if ns.sort.IsBetter(secondBound, *best) {
		ns.singleRecurse(cs, qi, point, second, best)
	} else {
		ns.prunes++
	}
}
