package neighbor

// searchDualTree recurses jointly over the query tree and the reference
// tree. Every query node carries a bound (NodeData.Stat) that is always
// at least as bad, per the policy, as the worst current k-th candidate
// among the query points in its subtree; a (query node, reference node)
// pair whose best-case distance cannot beat that bound is pruned whole.
func (ns *NeighborSearch) searchDualTree(cs *candidateSet) {
	worst := ns.sort.WorstDistance()
	qnodes := ns.queryTree.NodeDataArray()
	for i := range qnodes {
		qnodes[i].Stat = worst
	}
	ns.dualRecurse(cs, 0, 0)
}

func (ns *NeighborSearch) dualRecurse(cs *candidateSet, qnode, rnode int) {
	qt, rt := ns.queryTree, ns.refTree
	qnodes := qt.NodeDataArray()

	bound := ns.sort.BestNodeToNode(qt, qnode, rt, rnode)
	if !ns.sort.IsBetter(bound, qnodes[qnode].Stat) {
		ns.prunes++
		return
	}

	qLeaf := qnodes[qnode].IsLeaf
	rLeaf := rt.NodeDataArray()[rnode].IsLeaf

	switch {
	case qLeaf && rLeaf:
		ns.dualBaseCase(cs, qnode, rnode)
	case qLeaf:
		left, right := rt.ChildNodes(rnode)
		ns.dualRecurseOrdered(cs, qnode, left, right)
	case rLeaf:
		left, right := qt.ChildNodes(qnode)
		ns.dualRecurse(cs, left, rnode)
		ns.dualRecurse(cs, right, rnode)
		ns.liftChildBounds(qnode, left, right)
	default:
		qLeft, qRight := qt.ChildNodes(qnode)
		rLeft, rRight := rt.ChildNodes(rnode)
		ns.dualRecurseOrdered(cs, qLeft, rLeft, rRight)
		ns.dualRecurseOrdered(cs, qRight, rLeft, rRight)
		ns.liftChildBounds(qnode, qLeft, qRight)
	}
}

// dualRecurseOrdered visits the reference child with the better
// node-to-node bound first, so the query subtree's candidates tighten
// before the less promising child is considered. On equal bounds the
// first child is visited first.
func (ns *NeighborSearch) dualRecurseOrdered(cs *candidateSet, qnode, r1, r2 int) {
	b1 := ns.sort.BestNodeToNode(ns.queryTree, qnode, ns.refTree, r1)
	b2 := ns.sort.BestNodeToNode(ns.queryTree, qnode, ns.refTree, r2)
	if ns.sort.IsBetter(b2, b1) {
		r1, r2 = r2, r1
	}
	ns.dualRecurse(cs, qnode, r1)
	ns.dualRecurse(cs, qnode, r2)
}

// liftChildBounds refreshes a parent query node's bound after both of its
// children have been visited. The parent covers the union of the child
// subtrees, so its exact bound is the policy-worse of the two child
// bounds; assigning that can only tighten the parent, never loosen it
// past correctness.
func (ns *NeighborSearch) liftChildBounds(parent, left, right int) {
	qnodes := ns.queryTree.NodeDataArray()
	w := qnodes[left].Stat
	if ns.sort.IsBetter(w, qnodes[right].Stat) {
		w = qnodes[right].Stat
	}
	qnodes[parent].Stat = w
}

// dualBaseCase exhaustively compares every point pair between a query
// leaf and a reference leaf, then recomputes the query leaf's bound from
// its updated candidate rows. Candidate rows are indexed by query-tree
// position here; reference indices are translated through the reference
// permutation immediately.
func (ns *NeighborSearch) dualBaseCase(cs *candidateSet, qnode, rnode int) {
	qt, rt := ns.queryTree, ns.refTree
	qn := qt.NodeDataArray()[qnode]
	rn := rt.NodeDataArray()[rnode]
	qIdx, rIdx := qt.IdxArray(), rt.IdxArray()
	qData, rData := qt.Data(), rt.Data()
	dims := qt.NumFeatures()

	for qi := qn.IdxStart; qi < qn.IdxEnd; qi++ {
		qOrig := qIdx[qi]
		point := qData[qOrig*dims : (qOrig+1)*dims]
		for ri := rn.IdxStart; ri < rn.IdxEnd; ri++ {
			rOrig := rIdx[ri]
			if ns.selfSearch && rOrig == qOrig {
				continue
			}
			cs.insert(qi, rOrig, ns.metric.Distance(point, rData[rOrig*dims:(rOrig+1)*dims]))
		}
	}

	qt.NodeDataArray()[qnode].Stat = cs.worstTail(qn.IdxStart, qn.IdxEnd)
}
