package neighbor

// searchNaive compares every query point against every reference point.
// No trees, no bounds; this is the correctness baseline for the other
// strategies.
func (ns *NeighborSearch) searchNaive(cs *candidateSet) {
	for qi := 0; qi < ns.querySet.Rows; qi++ {
		point := ns.querySet.Row(qi)
		for ri := 0; ri < ns.refSet.Rows; ri++ {
			if ns.selfSearch && ri == qi {
				continue
			}
			cs.insert(qi, ri, ns.metric.Distance(point, ns.refSet.Row(ri)))
		}
	}
}
