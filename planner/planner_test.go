package planner

import (
	"bytes"
	"errors"
	"log"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/terrainpath/config"
	"github.com/milk9111/terrainpath/pathfinding"
	"github.com/milk9111/terrainpath/terrain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pondGrid is a 5x5 grid with 10 unit spacing on flat ground at height 20
// with a pond under the far corner node.
func pondGrid(t *testing.T) *pathfinding.Grid {
	t.Helper()
	g, err := pathfinding.BuildGrid(terrain.Func{
		Height: func(x, z float64) float64 {
			if x >= 35 && z >= 35 {
				return 0
			}
			return 20
		},
		Step: 1,
	}, pathfinding.DefaultGridOptions(50, 50))
	require.NoError(t, err)
	return g
}

func newPlanner(t *testing.T, cfg Config) (*Planner, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	if cfg.Logger == nil {
		cfg.Logger = log.New(&buf, "", 0)
	}
	p, err := New(pondGrid(t), cfg)
	require.NoError(t, err)
	return p, &buf
}

func TestFindPath(t *testing.T) {
	p, _ := newPlanner(t, Config{})

	res, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{34, 0, 34})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.InDelta(t, 3*10*math.Sqrt2, res.Cost, 1e-9)
	assert.Equal(t, []mgl64.Vec3{{10, 20, 10}, {20, 20, 20}, {30, 20, 30}}, res.Path)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.searches.WithLabelValues(OutcomeFound)))

	snap := p.Snapshot()
	assert.Equal(t, 0, snap.Start)
	assert.Equal(t, res.Nodes[len(res.Nodes)-1], snap.Goal)
	assert.Equal(t, res, snap.Result)
	assert.Equal(t, 3, snap.Count(pathfinding.StateOnPath))
	assert.Equal(t, 1, snap.Count(pathfinding.StateBlocked))
}

func TestFindPathOutOfBounds(t *testing.T) {
	p, _ := newPlanner(t, Config{})

	cases := []struct {
		name        string
		start, goal mgl64.Vec3
	}{
		{"goal_past_edge", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{50, 0, 0}},
		{"start_negative", mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{10, 0, 10}},
		{"goal_nan", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{math.NaN(), 0, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := p.FindPath(c.start, c.goal)
			assert.True(t, errors.Is(err, ErrOutOfBounds), "got %v", err)
		})
	}
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(p.metrics.searches.WithLabelValues(OutcomeOutOfBounds)))
	assert.Equal(t, -1, p.Snapshot().Start, "rejected queries leave the snapshot alone")
}

func TestFindPathBlockedGoal(t *testing.T) {
	p, _ := newPlanner(t, Config{})

	res, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{45, 0, 45})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Path)

	snap := p.Snapshot()
	assert.Equal(t, pathfinding.StateBlocked, snap.States[snap.Goal])
	assert.Zero(t, snap.Count(pathfinding.StateClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.searches.WithLabelValues(OutcomeBlockedGoal)))
}

func TestFindPathBudget(t *testing.T) {
	p, logs := newPlanner(t, Config{MaxExpansions: 1})

	res, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{30, 0, 0})
	assert.True(t, errors.Is(err, pathfinding.ErrBudgetExhausted), "got %v", err)
	assert.False(t, res.Found)
	assert.Contains(t, logs.String(), "planner: search 0 -> 3 gave up after 1 expansions")
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.searches.WithLabelValues(OutcomeBudget)))

	snap := p.Snapshot()
	assert.True(t, errors.Is(snap.Err, pathfinding.ErrBudgetExhausted))
	assert.Equal(t, 1, snap.Count(pathfinding.StateClosed))
}

func TestSearchInvalidIndex(t *testing.T) {
	p, logs := newPlanner(t, Config{})
	_, err := p.Search(0, 99)
	assert.True(t, errors.Is(err, pathfinding.ErrNodeOutOfRange), "got %v", err)
	assert.Contains(t, logs.String(), "planner: search 0 -> 99")
}

func TestSnapshotIsACopy(t *testing.T) {
	p, _ := newPlanner(t, Config{})

	before := p.Snapshot()
	assert.Equal(t, -1, before.Start)
	assert.Equal(t, 24, before.Count(pathfinding.StateUnvisited))

	_, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{20, 0, 0})
	require.NoError(t, err)

	snap := p.Snapshot()
	snap.States[0] = pathfinding.StateOnPath
	snap.Result.Nodes[0] = 99
	again := p.Snapshot()
	assert.Equal(t, pathfinding.StateClosed, again.States[0])
	assert.NotEqual(t, 99, again.Result.Nodes[0])
}

func TestCustomCostsAndHeuristic(t *testing.T) {
	p, _ := newPlanner(t, Config{
		Costs:     pathfinding.Costs{Cardinal: 1, Diagonal: 1.41},
		Heuristic: pathfinding.Manhattan,
	})
	res, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{30, 0, 30})
	require.NoError(t, err)
	assert.InDelta(t, 3*1.41, res.Cost, 1e-9)

	_, err = New(pondGrid(t), Config{Costs: pathfinding.Costs{Cardinal: -1}})
	assert.Error(t, err)
	_, err = New(nil, Config{})
	assert.True(t, errors.Is(err, pathfinding.ErrInvalidGrid))
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, _ := newPlanner(t, Config{Registerer: reg})

	_, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{20, 0, 20})
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "terrainpath_searches_total")
	assert.Contains(t, names, "terrainpath_search_duration_seconds")
	assert.Contains(t, names, "terrainpath_search_expanded_nodes")
	assert.Contains(t, names, "terrainpath_path_nodes")
}

func TestConcurrentFindPath(t *testing.T) {
	p, _ := newPlanner(t, Config{})
	want, err := p.FindPath(mgl64.Vec3{0, 0, 40}, mgl64.Vec3{40, 0, 0})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]pathfinding.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.FindPath(mgl64.Vec3{0, 0, 40}, mgl64.Vec3{40, 0, 0})
			_ = p.Snapshot()
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		assert.Equal(t, want, res)
	}
}

func TestFromSpec(t *testing.T) {
	spec, err := config.Parse([]byte(`
grid: {width: 50, length: 50, spacing: 10}
search: {cardinal_cost: 1, heuristic: euclidean}
terrain: {kind: flat, height: 20}
`))
	require.NoError(t, err)
	p, err := FromSpec(spec, Config{Logger: log.New(&bytes.Buffer{}, "", 0)})
	require.NoError(t, err)
	assert.Equal(t, 25, p.Grid().Len())

	res, err := p.FindPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{40, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 4, res.Cost, 1e-9)
}

func TestQueryReturnsOwnStates(t *testing.T) {
	p, _ := newPlanner(t, Config{})
	goals := []mgl64.Vec3{{40, 0, 0}, {0, 0, 40}, {30, 0, 30}, {10, 0, 0}}

	var wg sync.WaitGroup
	mismatched := make([]int, 8)
	for w := range mismatched {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 40; i++ {
				snap, err := p.Query(mgl64.Vec3{0, 0, 0}, goals[(w+i)%len(goals)])
				if err != nil || !snap.Result.Found {
					mismatched[w]++
					continue
				}
				if snap.Count(pathfinding.StateOnPath) != len(snap.Result.Nodes) {
					mismatched[w]++
					continue
				}
				for _, n := range snap.Result.Nodes {
					if snap.States[n] != pathfinding.StateOnPath {
						mismatched[w]++
						break
					}
				}
			}
		}(w)
	}
	wg.Wait()

	for w, n := range mismatched {
		assert.Zero(t, n, "worker %d", w)
	}
}

func TestQueryOutOfBounds(t *testing.T) {
	p, _ := newPlanner(t, Config{})
	snap, err := p.Query(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 99})
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, 0, snap.Start)
	assert.Equal(t, -1, snap.Goal)
	assert.Nil(t, snap.States)
}
