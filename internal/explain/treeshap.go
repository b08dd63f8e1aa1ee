package explain

import "maternal-risk/internal/model"

// Exact per-feature attribution for tree ensembles, following the
// path-dependent Tree SHAP recursion (Lundberg et al.). Cost is
// polynomial in tree depth and leaf count, cheap enough for the hot
// request path.

type pathElem struct {
	feature      int
	zeroFraction float64
	oneFraction  float64
	pweight      float64
}

// ensembleShap sums exact attributions across all trees for one class.
// The ensemble prediction is the average of tree outputs, so each
// tree's attribution is weighted by 1/numTrees. phi has one slot per
// model feature; the sum of phi equals f(x) minus the ensemble's
// expected output.
func ensembleShap(e *model.TreeEnsemble, x []float64, class int) []float64 {
	phi := make([]float64, e.NumFeatures)
	weight := 1 / float64(len(e.Trees))
	for ti := range e.Trees {
		treeShap(&e.Trees[ti], weight, x, class, phi)
	}
	return phi
}

func treeShap(t *model.Tree, weight float64, x []float64, class int, phi []float64) {
	var recurse func(nodeIdx int, parentPath []pathElem, zeroFraction, oneFraction float64, parentFeature int)
	recurse = func(nodeIdx int, parentPath []pathElem, zeroFraction, oneFraction float64, parentFeature int) {
		path := make([]pathElem, len(parentPath), len(parentPath)+1)
		copy(path, parentPath)
		path = extendPath(path, zeroFraction, oneFraction, parentFeature)

		node := &t.Nodes[nodeIdx]
		if node.IsLeaf() {
			leaf := node.Value[class] * weight
			for i := 1; i < len(path); i++ {
				w := unwoundPathSum(path, i)
				phi[path[i].feature] += w * (path[i].oneFraction - path[i].zeroFraction) * leaf
			}
			return
		}

		var hot, cold int
		if x[node.Feature] <= node.Threshold {
			hot, cold = node.Left, node.Right
		} else {
			hot, cold = node.Right, node.Left
		}
		hotZero := t.Nodes[hot].Cover / node.Cover
		coldZero := t.Nodes[cold].Cover / node.Cover

		// undo an earlier split on this feature along the path
		incomingZero, incomingOne := 1.0, 1.0
		pathIndex := -1
		for i := range path {
			if path[i].feature == node.Feature {
				pathIndex = i
				break
			}
		}
		if pathIndex >= 0 {
			incomingZero = path[pathIndex].zeroFraction
			incomingOne = path[pathIndex].oneFraction
			path = unwindPath(path, pathIndex)
		}

		recurse(hot, path, hotZero*incomingZero, incomingOne, node.Feature)
		recurse(cold, path, coldZero*incomingZero, 0, node.Feature)
	}
	recurse(0, nil, 1, 1, -1)
}

// extendPath grows the active path by one split, updating the
// permutation weights of every prefix length.
func extendPath(path []pathElem, zeroFraction, oneFraction float64, feature int) []pathElem {
	d := len(path)
	path = append(path, pathElem{
		feature:      feature,
		zeroFraction: zeroFraction,
		oneFraction:  oneFraction,
	})
	if d == 0 {
		path[0].pweight = 1
	}
	for i := d - 1; i >= 0; i-- {
		path[i+1].pweight += oneFraction * path[i].pweight * float64(i+1) / float64(d+1)
		path[i].pweight = zeroFraction * path[i].pweight * float64(d-i) / float64(d+1)
	}
	return path
}

// unwindPath removes the split at pathIndex, restoring the weights the
// path had before that split was extended onto it.
func unwindPath(path []pathElem, pathIndex int) []pathElem {
	ud := len(path) - 1
	oneFraction := path[pathIndex].oneFraction
	zeroFraction := path[pathIndex].zeroFraction
	nextOnePortion := path[ud].pweight

	for i := ud - 1; i >= 0; i-- {
		if oneFraction != 0 {
			tmp := path[i].pweight
			path[i].pweight = nextOnePortion * float64(ud+1) / (float64(i+1) * oneFraction)
			nextOnePortion = tmp - path[i].pweight*zeroFraction*float64(ud-i)/float64(ud+1)
		} else {
			path[i].pweight = path[i].pweight * float64(ud+1) / (zeroFraction * float64(ud-i))
		}
	}
	for i := pathIndex; i < ud; i++ {
		path[i].feature = path[i+1].feature
		path[i].zeroFraction = path[i+1].zeroFraction
		path[i].oneFraction = path[i+1].oneFraction
	}
	return path[:ud]
}

// unwoundPathSum computes the total permutation weight the path would
// carry if the split at pathIndex were removed, without mutating it.
func unwoundPathSum(path []pathElem, pathIndex int) float64 {
	ud := len(path) - 1
	oneFraction := path[pathIndex].oneFraction
	zeroFraction := path[pathIndex].zeroFraction
	nextOnePortion := path[ud].pweight
	total := 0.0

	if oneFraction != 0 {
		for i := ud - 1; i >= 0; i-- {
			tmp := nextOnePortion * float64(ud+1) / (float64(i+1) * oneFraction)
			total += tmp
			nextOnePortion = path[i].pweight - tmp*zeroFraction*(float64(ud-i)/float64(ud+1))
		}
	} else {
		for i := ud - 1; i >= 0; i-- {
			total += path[i].pweight / (zeroFraction * (float64(ud-i) / float64(ud+1)))
		}
	}
	return total
}
