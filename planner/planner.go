// Package planner answers path queries between world positions on a
// terrain grid and keeps the node classification of the latest search for
// debug views.
package planner

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/terrainpath/config"
	"github.com/milk9111/terrainpath/pathfinding"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrOutOfBounds = errors.New("position outside grid")

// Config controls how a Planner searches and reports.
type Config struct {
	// Logger receives diagnostics. Defaults to log.Default().
	Logger *log.Logger
	// Registerer receives the planner metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer

	// Costs default to travelled world distance when zero.
	Costs         pathfinding.Costs
	Heuristic     pathfinding.HeuristicKind
	MaxExpansions int
}

// Planner is safe for concurrent use. Every query runs on its own search
// state over the shared, read-only grid.
type Planner struct {
	grid    *pathfinding.Grid
	options []pathfinding.Option
	logger  *log.Logger
	metrics *metrics

	mu   sync.Mutex
	last Snapshot
}

// Snapshot is the outcome of the most recent search.
type Snapshot struct {
	States      []pathfinding.NodeState
	Start, Goal int
	Result      pathfinding.Result
	Err         error
}

// Count returns how many nodes are in state s.
func (s Snapshot) Count(state pathfinding.NodeState) int {
	n := 0
	for _, v := range s.States {
		if v == state {
			n++
		}
	}
	return n
}

func New(grid *pathfinding.Grid, cfg Config) (*Planner, error) {
	if grid == nil {
		return nil, fmt.Errorf("planner: nil grid: %w", pathfinding.ErrInvalidGrid)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	costs := cfg.Costs
	if costs == (pathfinding.Costs{}) {
		costs = pathfinding.DefaultCosts(grid.Spacing)
	}
	if costs.Cardinal < 0 || costs.Diagonal < 0 {
		return nil, fmt.Errorf("planner: negative step costs %+v", costs)
	}

	p := &Planner{
		grid: grid,
		options: []pathfinding.Option{
			pathfinding.WithCosts(costs.Cardinal, costs.Diagonal),
			pathfinding.WithHeuristicKind(cfg.Heuristic),
			pathfinding.WithMaxExpansions(cfg.MaxExpansions),
		},
		logger:  logger,
		metrics: newMetrics(cfg.Registerer),
	}
	p.last = Snapshot{
		States: pathfinding.NewSearchState(grid).State,
		Start:  -1,
		Goal:   -1,
	}
	return p, nil
}

// FromSpec builds the spec's grid and a planner using its search settings.
// Logger and Registerer are taken from cfg.
func FromSpec(spec *config.Spec, cfg Config) (*Planner, error) {
	grid, err := spec.BuildGrid()
	if err != nil {
		return nil, err
	}
	cfg.Costs = spec.Costs()
	cfg.Heuristic = spec.HeuristicKind()
	cfg.MaxExpansions = spec.Search.MaxExpansions
	return New(grid, cfg)
}

func (p *Planner) Grid() *pathfinding.Grid { return p.grid }

// FindPath searches from the node under start to the node under goal. Only
// the X and Z components of the positions are used.
//
// A blocked or unreachable goal yields a result with Found false and no
// error. Positions off the grid fail with ErrOutOfBounds.
func (p *Planner) FindPath(start, goal mgl64.Vec3) (pathfinding.Result, error) {
	snap, err := p.Query(start, goal)
	return snap.Result, err
}

// Query is FindPath returning the classifications of this very search,
// unaffected by searches running concurrently.
func (p *Planner) Query(start, goal mgl64.Vec3) (Snapshot, error) {
	from, ok := p.grid.NodeAt(start.X(), start.Z())
	if !ok {
		p.metrics.searches.WithLabelValues(OutcomeOutOfBounds).Inc()
		return Snapshot{Start: -1, Goal: -1}, fmt.Errorf("planner: start %v: %w", start, ErrOutOfBounds)
	}
	to, ok := p.grid.NodeAt(goal.X(), goal.Z())
	if !ok {
		p.metrics.searches.WithLabelValues(OutcomeOutOfBounds).Inc()
		return Snapshot{Start: from, Goal: -1}, fmt.Errorf("planner: goal %v: %w", goal, ErrOutOfBounds)
	}
	return p.Run(from, to)
}

// Search runs a query between two node indices.
func (p *Planner) Search(from, to int) (pathfinding.Result, error) {
	snap, err := p.Run(from, to)
	return snap.Result, err
}

// Run is Search returning the classifications of this search.
func (p *Planner) Run(from, to int) (Snapshot, error) {
	st := pathfinding.NewSearchState(p.grid)
	if n := p.grid.Node(to); n != nil && n.Blocked {
		p.metrics.searches.WithLabelValues(OutcomeBlockedGoal).Inc()
		return p.record(Snapshot{States: st.State, Start: from, Goal: to}), nil
	}

	began := time.Now()
	res, err := pathfinding.Search(p.grid, st, from, to, p.options...)
	p.metrics.duration.Observe(time.Since(began).Seconds())
	p.metrics.expanded.Observe(float64(res.Expanded))

	switch {
	case errors.Is(err, pathfinding.ErrBudgetExhausted):
		p.metrics.searches.WithLabelValues(OutcomeBudget).Inc()
		p.logger.Printf("planner: search %d -> %d gave up after %d expansions", from, to, res.Expanded)
	case err != nil:
		p.logger.Printf("planner: search %d -> %d: %v", from, to, err)
		return Snapshot{Start: from, Goal: to, Result: res, Err: err}, err
	case res.Found:
		p.metrics.searches.WithLabelValues(OutcomeFound).Inc()
		p.metrics.pathLen.Observe(float64(len(res.Nodes)))
	default:
		p.metrics.searches.WithLabelValues(OutcomeNoPath).Inc()
	}

	return p.record(Snapshot{States: st.State, Start: from, Goal: to, Result: res, Err: err}), err
}

// record keeps a copy of snap as the latest search and hands snap back.
func (p *Planner) record(snap Snapshot) Snapshot {
	kept := snap.clone()
	p.mu.Lock()
	p.last = kept
	p.mu.Unlock()
	return snap
}

// Snapshot returns a copy of the latest search's classifications. Before
// any search every node is unvisited or blocked. Under concurrent use the
// latest search is whichever finished last; use Query or Run to get the
// classifications of a particular search.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.clone()
}

func (s Snapshot) clone() Snapshot {
	s.States = append([]pathfinding.NodeState(nil), s.States...)
	s.Result.Path = append([]mgl64.Vec3(nil), s.Result.Path...)
	s.Result.Nodes = append([]int(nil), s.Result.Nodes...)
	return s
}
