package model

import "fmt"

// TreeNode is one node of a fitted decision tree. Feature is -1 on
// leaves; Value holds the leaf's class distribution. Cover is the
// training sample weight that reached the node, needed for exact
// tree attribution.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Cover     float64   `json:"cover"`
	Value     []float64 `json:"value,omitempty"`
}

// IsLeaf reports whether the node is a leaf.
func (n *TreeNode) IsLeaf() bool {
	return n.Feature < 0
}

// Tree is one fitted decision tree stored as a node array; index 0 is
// the root.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Leaf returns the leaf distribution the row lands in.
func (t *Tree) Leaf(row []float64) []float64 {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// TreeEnsemble is a fitted forest of probability trees. The ensemble
// probability is the average of leaf distributions, one per tree.
type TreeEnsemble struct {
	Trees       []Tree `json:"trees"`
	NumClasses  int    `json:"num_classes"`
	NumFeatures int    `json:"num_features"`
}

// PredictProba returns the uncalibrated class distribution for a
// scaled feature row.
func (e *TreeEnsemble) PredictProba(row []float64) ([]float64, error) {
	if len(row) != e.NumFeatures {
		return nil, fmt.Errorf("ensemble expects %d features, got %d", e.NumFeatures, len(row))
	}
	if len(e.Trees) == 0 {
		return nil, fmt.Errorf("ensemble has no trees")
	}
	probs := make([]float64, e.NumClasses)
	for ti := range e.Trees {
		leaf := e.Trees[ti].Leaf(row)
		if len(leaf) != e.NumClasses {
			return nil, fmt.Errorf("tree %d leaf has %d classes, ensemble has %d", ti, len(leaf), e.NumClasses)
		}
		for c, v := range leaf {
			probs[c] += v
		}
	}
	n := float64(len(e.Trees))
	for c := range probs {
		probs[c] /= n
	}
	return probs, nil
}

// Validate checks the structural integrity of every tree.
func (e *TreeEnsemble) Validate() error {
	if e.NumClasses < 2 {
		return fmt.Errorf("ensemble must have at least 2 classes, has %d", e.NumClasses)
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	for ti, tree := range e.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, node := range tree.Nodes {
			if node.IsLeaf() {
				if len(node.Value) != e.NumClasses {
					return fmt.Errorf("tree %d node %d: leaf has %d classes, want %d", ti, ni, len(node.Value), e.NumClasses)
				}
				continue
			}
			if node.Feature >= e.NumFeatures {
				return fmt.Errorf("tree %d node %d: split feature %d out of range", ti, ni, node.Feature)
			}
			if node.Left <= ni || node.Left >= len(tree.Nodes) ||
				node.Right <= ni || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}
