package pathfinding

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Result is the outcome of a search. Path runs from the node after start up
// to and including goal; Nodes holds the matching node indices.
type Result struct {
	Found    bool
	Path     []mgl64.Vec3
	Nodes    []int
	Cost     float64
	Expanded int
}

// Options defines parameters for the search.
type Options struct {
	Costs         Costs
	HeuristicKind HeuristicKind
	Heuristic     Heuristic
	Capacity      int
	MaxExpansions int
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithCosts sets the cardinal and diagonal step costs.
func WithCosts(cardinal, diagonal float64) Option {
	return func(o *Options) { o.Costs = Costs{Cardinal: cardinal, Diagonal: diagonal} }
}

// WithHeuristicKind selects a built-in heuristic.
func WithHeuristicKind(k HeuristicKind) Option {
	return func(o *Options) { o.HeuristicKind = k }
}

// WithHeuristic overrides the heuristic with a custom function.
func WithHeuristic(h Heuristic) Option {
	return func(o *Options) { o.Heuristic = h }
}

// WithCapacity sizes the open set. It must be at least the number of nodes
// that can be queued at once; the grid's node count is always enough.
func WithCapacity(n int) Option {
	return func(o *Options) { o.Capacity = n }
}

// WithMaxExpansions caps how many nodes are expanded before the search gives
// up with ErrBudgetExhausted. Zero means no cap.
func WithMaxExpansions(n int) Option {
	return func(o *Options) { o.MaxExpansions = n }
}

// Search runs A* from start to goal over g. When st is nil a fresh state is
// allocated, otherwise st is reset and reused; either way it holds the node
// classifications of this search when Search returns.
//
// An unreachable or blocked goal is not an error: the result has Found set
// to false. A full or empty open set is a bookkeeping defect and panics.
func Search(g *Grid, st *SearchState, start, goal int, options ...Option) (Result, error) {
	if g == nil {
		return Result{}, fmt.Errorf("pathfinding: search: nil grid: %w", ErrInvalidGrid)
	}
	if g.Node(start) == nil || g.Node(goal) == nil {
		return Result{}, fmt.Errorf("pathfinding: search %d -> %d of %d nodes: %w", start, goal, g.Len(), ErrNodeOutOfRange)
	}

	opts := Options{
		Costs:         DefaultCosts(g.Spacing),
		HeuristicKind: Octile,
		Capacity:      g.Len(),
	}
	for _, o := range options {
		o(&opts)
	}
	heuristic := opts.Heuristic
	if heuristic == nil {
		heuristic = opts.HeuristicKind.Func(opts.Costs, g.Spacing)
	}

	if st == nil {
		st = NewSearchState(g)
	} else if !st.fits(g) {
		return Result{}, fmt.Errorf("pathfinding: search: state covers %d nodes, grid has %d: %w", st.Len(), g.Len(), ErrStateMismatch)
	} else {
		st.Reset()
	}

	if g.nodes[goal].Blocked {
		return Result{}, nil
	}

	goalPos := g.nodes[goal].Position
	open := NewNodeHeap(opts.Capacity, st.F)

	st.G[start] = 0
	st.H[start] = heuristic(g.nodes[start].Position, goalPos)
	st.F[start] = st.H[start]
	st.mark(start, StateOpen)
	mustInsert(open, start)

	found := false
	expanded := 0
	for open.Len() > 0 {
		current := mustExtract(open)
		if current == goal {
			found = true
			break
		}
		if opts.MaxExpansions > 0 && expanded >= opts.MaxExpansions {
			return Result{Expanded: expanded}, fmt.Errorf("pathfinding: search after %d expansions: %w", expanded, ErrBudgetExhausted)
		}
		st.mark(current, StateClosed)
		expanded++

		for _, nb := range g.nodes[current].Neighbors {
			state := st.State[nb]
			if state == StateBlocked || state == StateClosed {
				continue
			}

			step := opts.Costs.Diagonal
			if g.IsCardinal(current, nb) {
				step = opts.Costs.Cardinal
			}
			tentative := st.G[current] + step

			switch state {
			case StateOpen:
				if tentative < st.G[nb] {
					st.G[nb] = tentative
					st.F[nb] = tentative + st.H[nb]
					st.Parent[nb] = current
					mustDecrease(open, nb)
				}
			case StateUnvisited:
				st.Parent[nb] = current
				st.G[nb] = tentative
				st.H[nb] = heuristic(g.nodes[nb].Position, goalPos)
				st.F[nb] = st.G[nb] + st.H[nb]
				st.State[nb] = StateOpen
				mustInsert(open, nb)
			}
		}
	}

	if !found {
		return Result{Expanded: expanded}, nil
	}
	return reconstructPath(g, st, start, goal, expanded), nil
}

func reconstructPath(g *Grid, st *SearchState, start, goal, expanded int) Result {
	nodes := make([]int, 0, 32)
	for n := goal; n != start && n != noParent; n = st.Parent[n] {
		st.State[n] = StateOnPath
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	path := make([]mgl64.Vec3, len(nodes))
	for i, n := range nodes {
		path[i] = g.nodes[n].Position
	}
	return Result{
		Found:    true,
		Path:     path,
		Nodes:    nodes,
		Cost:     st.G[goal],
		Expanded: expanded,
	}
}

// mark sets a search classification; blocked nodes keep theirs.
func (st *SearchState) mark(i int, s NodeState) {
	if st.State[i] == StateBlocked {
		return
	}
	st.State[i] = s
}

func mustInsert(h *NodeHeap, node int) {
	if err := h.Insert(node); err != nil {
		panic(err)
	}
}

func mustExtract(h *NodeHeap) int {
	node, err := h.ExtractMin()
	if err != nil {
		panic(err)
	}
	return node
}

func mustDecrease(h *NodeHeap, node int) {
	if err := h.DecreaseKey(node); err != nil {
		panic(err)
	}
}
