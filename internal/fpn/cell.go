package fpn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// FPNCell is one pass over the pyramid graph: every fusion node runs in
// order, each appending its output to the running feature list.
type FPNCell[B tensor.Backend] struct {
	graph  []graphNode
	fnodes []*FNode[B]
}

// NewFPNCell creates one pyramid cell from the configuration.
func NewFPNCell[B tensor.Backend](name string, cfg Config, backend B) *FPNCell[B] {
	graph := bifpnGraph(cfg.MinLevel, cfg.MaxLevel)

	cell := &FPNCell[B]{graph: graph}
	for i, node := range graph {
		cell.fnodes = append(cell.fnodes, NewFNode(
			fmt.Sprintf("%s.fnode%d", name, i),
			node.level-cfg.MinLevel,
			node.inputOffsets,
			cfg,
			backend,
		))
	}
	return cell
}

// SetTraining propagates the training flag to every node.
func (c *FPNCell[B]) SetTraining(training bool) {
	for _, f := range c.fnodes {
		f.SetTraining(training)
	}
}

// Forward runs all fusion nodes and returns the extended feature list.
func (c *FPNCell[B]) Forward(feats []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	for _, f := range c.fnodes {
		feats = f.Forward(feats)
	}
	return feats
}

// Parameters returns the parameters of every node.
func (c *FPNCell[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, f := range c.fnodes {
		params = append(params, f.Parameters()...)
	}
	return params
}

// FPNCells stacks repeated pyramid cells. After each cell the per-level
// outputs are gathered from the most recent node of every level and become
// the inputs of the next cell.
type FPNCells[B tensor.Backend] struct {
	cfg   Config
	graph []graphNode
	cells []*FPNCell[B]
}

// NewFPNCells creates the stacked pyramid. The configuration must be valid.
func NewFPNCells[B tensor.Backend](cfg Config, backend B) (*FPNCells[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cells := &FPNCells[B]{
		cfg:   cfg,
		graph: bifpnGraph(cfg.MinLevel, cfg.MaxLevel),
	}
	for rep := 0; rep < cfg.CellRepeats; rep++ {
		cells.cells = append(cells.cells, NewFPNCell(fmt.Sprintf("cell_%d", rep), cfg, backend))
	}
	return cells, nil
}

// SetTraining propagates the training flag to every cell.
func (s *FPNCells[B]) SetTraining(training bool) {
	for _, c := range s.cells {
		c.SetTraining(training)
	}
}

// Forward runs every cell over the input features (one per level, finest
// first) and returns one fused feature per level.
func (s *FPNCells[B]) Forward(feats []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	if len(feats) != s.cfg.NumLevels() {
		panic(fmt.Sprintf("fpn: expected %d input features, got %d", s.cfg.NumLevels(), len(feats)))
	}

	for _, cell := range s.cells {
		cellFeats := cell.Forward(feats)

		// Gather the latest feature produced for each level.
		feats = feats[:0:0]
		for level := s.cfg.MinLevel; level <= s.cfg.MaxLevel; level++ {
			for i := len(s.graph) - 1; i >= 0; i-- {
				if s.graph[i].level == level {
					feats = append(feats, cellFeats[s.cfg.NumLevels()+i])
					break
				}
			}
		}
	}

	return feats
}

// Parameters returns the parameters of every cell.
func (s *FPNCells[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, c := range s.cells {
		params = append(params, c.Parameters()...)
	}
	return params
}
