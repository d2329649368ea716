package main

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/terrainpath/config"
	"github.com/milk9111/terrainpath/pathfinding"
	"github.com/milk9111/terrainpath/planner"
	"github.com/milk9111/terrainpath/walker"
)

const tickSeconds = 1.0 / 60

// Viewer shows the node classification of the latest search. Left click
// picks the start node, right click the goal.
type Viewer struct {
	specPath string
	cellSize float64
	speed    float64
	logger   *log.Logger

	planner *planner.Planner
	snap    planner.Snapshot
	watcher *config.Watcher
	agent   *walker.Walker

	start, goal int
	status      string
}

func NewViewer(specPath string, cellSize, speed float64, logger *log.Logger) (*Viewer, error) {
	v := &Viewer{
		specPath: specPath,
		cellSize: cellSize,
		speed:    speed,
		logger:   logger,
		start:    -1,
		goal:     -1,
	}
	spec, err := v.load()
	if err != nil {
		return nil, err
	}
	if dirs := watchDirs(spec); len(dirs) > 0 {
		w, err := config.NewWatcher(config.DefaultQuiet, dirs...)
		if err != nil {
			logger.Printf("pathview: watch %v: %v", dirs, err)
		} else {
			v.watcher = w
		}
	}
	return v, nil
}

func (v *Viewer) load() (*config.Spec, error) {
	spec, err := config.Load(v.specPath)
	if err != nil {
		return nil, err
	}
	p, err := planner.FromSpec(spec, planner.Config{Logger: v.logger})
	if err != nil {
		return nil, err
	}
	v.planner = p
	v.snap = p.Snapshot()
	v.agent = nil
	g := p.Grid()
	v.status = fmt.Sprintf("%dx%d nodes, %d blocked", g.Width, g.Length, g.BlockedCount())
	return spec, nil
}

// watchDirs lists the on-disk directories holding the spec and its terrain.
func watchDirs(spec *config.Spec) []string {
	var dirs []string
	if spec.Dir() != "" {
		dirs = append(dirs, spec.Dir())
	}
	if src, ok := spec.Terrain.SourcePath(spec.Dir()); ok {
		if d := filepath.Dir(src); d != spec.Dir() {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func (v *Viewer) Close() error {
	if v.watcher == nil {
		return nil
	}
	return v.watcher.Close()
}

func (v *Viewer) Update() error {
	v.pollReload()

	g := v.planner.Grid()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if i, ok := v.nodeUnderCursor(g); ok {
			v.start = i
			v.replan()
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		if i, ok := v.nodeUnderCursor(g); ok {
			v.goal = i
			v.replan()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if _, err := v.load(); err != nil {
			v.logger.Printf("pathview: reload %s: %v", v.specPath, err)
		}
		v.replan()
	}

	if v.agent != nil {
		v.agent.Step(tickSeconds)
	}
	return nil
}

func (v *Viewer) pollReload() {
	if v.watcher == nil {
		return
	}
	select {
	case batch, ok := <-v.watcher.Changes():
		if !ok || len(batch) == 0 {
			return
		}
		if _, err := v.load(); err != nil {
			v.logger.Printf("pathview: reload after %d changes (first %s): %v", len(batch), batch[0].Path, err)
			return
		}
		v.replan()
	case err, ok := <-v.watcher.Errors():
		if ok {
			v.logger.Printf("pathview: watcher: %v", err)
		}
	default:
	}
}

func (v *Viewer) nodeUnderCursor(g *pathfinding.Grid) (int, bool) {
	cx, cy := ebiten.CursorPosition()
	wx := float64(cx) / v.cellSize * g.Spacing
	wz := float64(cy) / v.cellSize * g.Spacing
	return g.NodeAt(wx, wz)
}

func (v *Viewer) replan() {
	g := v.planner.Grid()
	if g.Node(v.start) == nil || g.Node(v.goal) == nil {
		return
	}
	res, err := v.planner.Search(v.start, v.goal)
	v.snap = v.planner.Snapshot()
	switch {
	case err != nil:
		v.status = err.Error()
	case !res.Found:
		v.status = fmt.Sprintf("no path, %d expanded", res.Expanded)
	default:
		v.status = fmt.Sprintf("cost %.1f, %d nodes, %d expanded", res.Cost, len(res.Nodes), res.Expanded)
	}

	v.agent = walker.New(g.Node(v.start).Position, v.speed, g.Spacing/3)
	v.agent.Follow(res.Path)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	g := v.planner.Grid()
	size := float32(v.cellSize)
	gap := float32(0)
	if size > 4 {
		gap = 1
	}

	for i, s := range v.snap.States {
		n := g.Node(i)
		x, y := float32(n.X)*size, float32(n.Z)*size
		vector.FillRect(screen, x, y, size-gap, size-gap, stateColor(s), false)
	}
	v.markNode(screen, g, v.start, startColor)
	v.markNode(screen, g, v.goal, goalColor)

	path := v.snap.Result.Path
	if g.Node(v.start) != nil && len(path) > 0 {
		px, py := v.toScreen(g, g.Node(v.start).Position)
		for _, p := range path {
			x, y := v.toScreen(g, p)
			vector.StrokeLine(screen, px, py, x, y, 2, pathColor, true)
			px, py = x, y
		}
	}

	if v.agent != nil {
		x, y := v.toScreen(g, v.agent.Position())
		vector.FillCircle(screen, x, y, size/3, agentColor, true)
	}

	ebitenutil.DebugPrint(screen, v.status)
}

func (v *Viewer) markNode(screen *ebiten.Image, g *pathfinding.Grid, i int, clr color.RGBA) {
	n := g.Node(i)
	if n == nil {
		return
	}
	size := float32(v.cellSize)
	vector.StrokeRect(screen, float32(n.X)*size, float32(n.Z)*size, size, size, 2, clr, false)
}

// toScreen maps a world position onto the screen; node positions land in
// the centre of their cell.
func (v *Viewer) toScreen(g *pathfinding.Grid, p mgl64.Vec3) (float32, float32) {
	scale := v.cellSize / g.Spacing
	half := v.cellSize / 2
	return float32(p.X()*scale + half), float32(p.Z()*scale + half)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	g := v.planner.Grid()
	return int(float64(g.Width) * v.cellSize), int(float64(g.Length) * v.cellSize)
}
