package pathfinding

import "github.com/go-gl/mathgl/mgl64"

// NodeState is the classification of a node, either fixed at build time
// (Blocked) or assigned while a search runs.
type NodeState uint8

const (
	StateUnvisited NodeState = iota
	StateOpen
	StateClosed
	StateBlocked
	StateOnPath
)

func (s NodeState) String() string {
	switch s {
	case StateUnvisited:
		return "unvisited"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateBlocked:
		return "blocked"
	case StateOnPath:
		return "on_path"
	default:
		return "unknown"
	}
}

// Node is one lattice cell. Neighbors holds arena indices into the owning Grid.
type Node struct {
	Index     int
	X         int
	Z         int
	Position  mgl64.Vec3
	Blocked   bool
	Neighbors []int
}

const noParent = -1

// SearchState holds the per-search scratch annotations for every node of a
// Grid, indexed by node index. One state must not be shared by two searches
// running at the same time.
type SearchState struct {
	State  []NodeState
	Parent []int
	G      []float64
	H      []float64
	F      []float64

	blocked []bool
}

func NewSearchState(g *Grid) *SearchState {
	n := g.Len()
	st := &SearchState{
		State:   make([]NodeState, n),
		Parent:  make([]int, n),
		G:       make([]float64, n),
		H:       make([]float64, n),
		F:       make([]float64, n),
		blocked: make([]bool, n),
	}
	for i := range g.nodes {
		st.blocked[i] = g.nodes[i].Blocked
	}
	st.Reset()
	return st
}

// Reset returns every non-blocked node to StateUnvisited and clears the
// parent and cost annotations. Blocked nodes are left alone.
func (st *SearchState) Reset() {
	for i := range st.State {
		if st.blocked[i] {
			st.State[i] = StateBlocked
		} else {
			st.State[i] = StateUnvisited
		}
		st.Parent[i] = noParent
		st.G[i] = 0
		st.H[i] = 0
		st.F[i] = 0
	}
}

// Len reports how many nodes the state covers.
func (st *SearchState) Len() int {
	return len(st.State)
}

// ParentOf returns the node idx was reached through, if any.
func (st *SearchState) ParentOf(idx int) (int, bool) {
	if idx < 0 || idx >= len(st.Parent) || st.Parent[idx] == noParent {
		return 0, false
	}
	return st.Parent[idx], true
}

// Count returns how many nodes are currently in state s.
func (st *SearchState) Count(s NodeState) int {
	n := 0
	for _, v := range st.State {
		if v == s {
			n++
		}
	}
	return n
}

func (st *SearchState) fits(g *Grid) bool {
	return st != nil && len(st.State) == g.Len()
}
