package fpn

// graphNode describes one fusion node of the pyramid graph: the level it
// produces and the offsets of its inputs in the running feature list.
//
// The feature list starts with one entry per level (the backbone features,
// offsets 0..numLevels-1) and every node appends its output, so offsets of
// later nodes can reference earlier node outputs.
type graphNode struct {
	level        int
	inputOffsets []int
}

// bifpnGraph builds the bidirectional pyramid topology: a top-down pass from
// the coarsest level to the finest, then a bottom-up pass back. Each pass
// fuses the running feature of a level with the latest feature of the
// neighboring level; the bottom-up pass additionally re-reads every earlier
// feature of its own level.
func bifpnGraph(minLevel, maxLevel int) []graphNode {
	numLevels := maxLevel - minLevel + 1

	// nodeIDs[level] lists the offsets of all features produced for that
	// level so far, in creation order.
	nodeIDs := make(map[int][]int, numLevels)
	for i := 0; i < numLevels; i++ {
		nodeIDs[minLevel+i] = []int{i}
	}
	lastID := func(level int) int {
		ids := nodeIDs[level]
		return ids[len(ids)-1]
	}

	var nodes []graphNode
	nextID := numLevels

	// Top-down path.
	for level := maxLevel - 1; level >= minLevel; level-- {
		nodes = append(nodes, graphNode{
			level:        level,
			inputOffsets: []int{lastID(level), lastID(level + 1)},
		})
		nodeIDs[level] = append(nodeIDs[level], nextID)
		nextID++
	}

	// Bottom-up path.
	for level := minLevel + 1; level <= maxLevel; level++ {
		offsets := append([]int{}, nodeIDs[level]...)
		offsets = append(offsets, lastID(level-1))
		nodes = append(nodes, graphNode{
			level:        level,
			inputOffsets: offsets,
		})
		nodeIDs[level] = append(nodeIDs[level], nextID)
		nextID++
	}

	return nodes
}
