package native

import (
	"math"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// node holds the adjacency lists of one slot, one list per level.
type node struct {
	links [][]uint32
}

func (n *node) level() int { return len(n.links) - 1 }

func (ix *Index) vector(slot uint32) []byte {
	off := int(slot) * ix.stride
	return ix.vectors[off : off+ix.stride]
}

func (ix *Index) randomLevel() int {
	return int(math.Floor(-math.Log(1-ix.rng.Float64()) * ix.ml))
}

func (ix *Index) maxLinks(level int) int {
	if level == 0 {
		return ix.mmax0
	}
	return ix.mmax
}

// insertSlot links an already stored vector into the graph.
func (ix *Index) insertSlot(slot uint32, level int) {
	ix.nodes[slot] = node{links: make([][]uint32, level+1)}

	if !ix.hasEntry {
		ix.entry, ix.maxLevel, ix.hasEntry = slot, level, true
		return
	}

	q := ix.vector(slot)
	ep := candidate{slot: ix.entry, dist: ix.dist(q, ix.vector(ix.entry))}

	for l := ix.maxLevel; l > level; l-- {
		ep = ix.greedyClosest(q, ep, l)
	}

	efc := int(ix.expansionAdd.Load())
	for l := min(level, ix.maxLevel); l >= 0; l-- {
		found := ix.searchLayer(q, ep, efc, l, nil)
		ep = found[0]

		neighbours := ix.selectNeighbours(found, ix.mmax)
		links := make([]uint32, len(neighbours))
		for i, c := range neighbours {
			links[i] = c.slot
		}
		ix.nodes[slot].links[l] = links

		for _, c := range neighbours {
			ix.link(c.slot, slot, l)
		}
	}

	if level > ix.maxLevel {
		ix.entry, ix.maxLevel = slot, level
	}
}

// greedyClosest walks level l from ep towards q until no neighbour improves.
func (ix *Index) greedyClosest(q []byte, ep candidate, l int) candidate {
	for changed := true; changed; {
		changed = false
		links := ix.nodes[ep.slot].links
		if l >= len(links) {
			return ep
		}
		for _, n := range links[l] {
			if d := ix.dist(q, ix.vector(n)); d < ep.dist {
				ep = candidate{slot: n, dist: d}
				changed = true
			}
		}
	}
	return ep
}

// searchLayer returns up to ef accepted candidates of level l, nearest
// first. Rejected slots are traversed but never returned; a nil accept
// admits every slot.
func (ix *Index) searchLayer(q []byte, ep candidate, ef int, l int, accept func(uint32) bool) []candidate {
	var visited bitset.BitSet
	visited.Set(uint(ep.slot))

	candidates := newCandidateQueue(false, ef)
	results := newCandidateQueue(true, ef+1)

	bound := float32(math.Inf(1))
	if accept == nil || accept(ep.slot) {
		results.push(ep)
		bound = ep.dist
	}
	candidates.push(ep)

	for candidates.Len() > 0 {
		c := candidates.pop()
		if c.dist > bound && results.Len() >= ef {
			break
		}

		links := ix.nodes[c.slot].links
		if l >= len(links) {
			continue
		}

		for _, n := range links[l] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			d := ix.dist(q, ix.vector(n))
			if results.Len() >= ef && d >= bound {
				continue
			}

			next := candidate{slot: n, dist: d}
			candidates.push(next)

			if accept != nil && !accept(n) {
				continue
			}
			results.push(next)
			if results.Len() > ef {
				results.pop()
			}
			bound = results.top().dist
		}
	}

	return results.drainAscending()
}

// selectNeighbours applies the diversity heuristic to candidates sorted
// nearest first, then tops up with pruned candidates.
func (ix *Index) selectNeighbours(sorted []candidate, m int) []candidate {
	if len(sorted) <= m {
		return sorted
	}

	selected := make([]candidate, 0, m)
	pruned := make([]candidate, 0, len(sorted))

	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		keep := true
		for _, s := range selected {
			if ix.dist(ix.vector(s.slot), ix.vector(c.slot)) < c.dist {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c)
		} else {
			pruned = append(pruned, c)
		}
	}

	for i := 0; len(selected) < m && i < len(pruned); i++ {
		selected = append(selected, pruned[i])
	}

	return selected
}

// link adds a back edge from slot to target and shrinks the list when it
// exceeds the level's degree bound.
func (ix *Index) link(slot, target uint32, l int) {
	n := &ix.nodes[slot]
	n.links[l] = append(n.links[l], target)

	limit := ix.maxLinks(l)
	if len(n.links[l]) <= limit {
		return
	}

	base := ix.vector(slot)
	scored := make([]candidate, len(n.links[l]))
	for i, id := range n.links[l] {
		scored[i] = candidate{slot: id, dist: ix.dist(base, ix.vector(id))}
	}
	slices.SortFunc(scored, func(a, b candidate) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	kept := ix.selectNeighbours(scored, limit)
	links := n.links[l][:0]
	for _, c := range kept {
		links = append(links, c.slot)
	}
	n.links[l] = links
}
