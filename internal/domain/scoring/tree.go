package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/titlerace/internal/domain/features"
	"github.com/okian/titlerace/internal/domain/scaler"
)

// TreeNode is one node of a dumped regression tree. A node with Leaf set is
// terminal; otherwise inputs with feature < Threshold go to Yes, the rest to No.
type TreeNode struct {
	Feature   string   `json:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Yes       int      `json:"yes,omitempty"`
	No        int      `json:"no,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty"`
}

// TreeModel is the file layout read by LoadTreeEnsembleScorer.
type TreeModel struct {
	BaseScore float64 `json:"base_score"`
	Trees     []struct {
		Nodes []TreeNode `json:"nodes"`
	} `json:"trees"`
}

type node struct {
	feature   features.Feature
	threshold float64
	yes, no   int
	leaf      float64
	terminal  bool
}

// TreeEnsembleScorer evaluates additive regression trees and maps the summed
// margin through a sigmoid. Training is done elsewhere; only the dump is read.
type TreeEnsembleScorer struct {
	name       string
	baseScore  float64
	trees      [][]node
	splitCount map[string]float64
}

// NewTreeEnsembleScorer validates m and binds its split features by name.
// Children must point forward in their tree, which rules out cycles.
func NewTreeEnsembleScorer(name string, m TreeModel) (*TreeEnsembleScorer, error) {
	if len(m.Trees) == 0 {
		return nil, fmt.Errorf("%w: tree scorer %s has no trees", ErrInvalidModel, name)
	}
	s := &TreeEnsembleScorer{
		name:       name,
		baseScore:  m.BaseScore,
		trees:      make([][]node, 0, len(m.Trees)),
		splitCount: make(map[string]float64),
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("%w: tree scorer %s: tree %d is empty", ErrInvalidModel, name, t)
		}
		nodes := make([]node, len(tree.Nodes))
		for i, n := range tree.Nodes {
			if n.Leaf != nil {
				nodes[i] = node{leaf: *n.Leaf, terminal: true}
				continue
			}
			f, ok := features.Lookup(n.Feature)
			if !ok {
				return nil, fmt.Errorf("%w: tree scorer %s: tree %d node %d splits on unknown feature %q",
					features.ErrFeatureOrderMismatch, name, t, i, n.Feature)
			}
			if n.Yes <= i || n.No <= i || n.Yes >= len(tree.Nodes) || n.No >= len(tree.Nodes) {
				return nil, fmt.Errorf("%w: tree scorer %s: tree %d node %d has bad children", ErrInvalidModel, name, t, i)
			}
			nodes[i] = node{feature: f, threshold: n.Threshold, yes: n.Yes, no: n.No}
			s.splitCount[n.Feature]++
		}
		s.trees = append(s.trees, nodes)
	}
	return s, nil
}

// LoadTreeEnsembleScorer reads a TreeModel JSON file.
func LoadTreeEnsembleScorer(name, path string) (*TreeEnsembleScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var m TreeModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidModel, path, err)
	}
	return NewTreeEnsembleScorer(name, m)
}

func (s *TreeEnsembleScorer) Name() string { return s.name }

func (s *TreeEnsembleScorer) Predict(ctx context.Context, v scaler.Scaled) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	margin := s.baseScore
	for _, tree := range s.trees {
		i := 0
		for !tree[i].terminal {
			n := tree[i]
			if v.At(n.feature) < n.threshold {
				i = n.yes
			} else {
				i = n.no
			}
		}
		margin += tree[i].leaf
	}
	return sigmoid(margin), nil
}

// Importance is each feature's share of all splits.
func (s *TreeEnsembleScorer) Importance() map[string]float64 {
	raw := make(map[string]float64, features.Count)
	for _, name := range features.Names() {
		raw[name] = s.splitCount[name]
	}
	return normalize(raw)
}
