package pathfinding

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/terrainpath/terrain"
)

const (
	DefaultSpacing    = 10.0
	DefaultWaterLevel = 5.0
	DefaultMinIncline = 50.0
)

// Rect is an axis-aligned rectangle on the world X/Z plane.
type Rect struct {
	X      float64
	Z      float64
	Width  float64
	Length float64
}

func (r Rect) Contains(x, z float64) bool {
	return x >= r.X && z >= r.Z && x < r.X+r.Width && z < r.Z+r.Length
}

// GridOptions describes the world area a Grid covers and how nodes are
// classified. WaterLevel and MinIncline are compared against the terrain
// height and incline angle (degrees) sampled at each node.
type GridOptions struct {
	WorldWidth  float64
	WorldLength float64
	Spacing     float64
	WaterLevel  float64
	MinIncline  float64
}

func DefaultGridOptions(worldWidth, worldLength float64) GridOptions {
	return GridOptions{
		WorldWidth:  worldWidth,
		WorldLength: worldLength,
		Spacing:     DefaultSpacing,
		WaterLevel:  DefaultWaterLevel,
		MinIncline:  DefaultMinIncline,
	}
}

// Grid is a fixed-resolution lattice of nodes over a rectangular world
// area. It is immutable once built; search annotations live in SearchState.
type Grid struct {
	Width   int
	Length  int
	Spacing float64
	Area    Rect

	nodes []Node
}

// direction offsets in lattice cells: N, S, E, W, NE, NW, SE, SW
var neighborOffsets = [8][2]int{
	{0, -1}, {0, 1}, {1, 0}, {-1, 0},
	{1, -1}, {-1, -1}, {1, 1}, {-1, 1},
}

// BuildGrid samples the terrain at every lattice point, classifies each node
// and links it to its in-bounds neighbors.
func BuildGrid(t terrain.Oracle, opts GridOptions) (*Grid, error) {
	if t == nil {
		return nil, fmt.Errorf("pathfinding: build grid: nil terrain: %w", ErrInvalidGrid)
	}
	if !(opts.Spacing > 0) {
		return nil, fmt.Errorf("pathfinding: build grid: spacing %v: %w", opts.Spacing, ErrInvalidGrid)
	}
	width := int(opts.WorldWidth / opts.Spacing)
	length := int(opts.WorldLength / opts.Spacing)
	if width <= 0 || length <= 0 {
		return nil, fmt.Errorf("pathfinding: build grid: %vx%v world at spacing %v has no nodes: %w",
			opts.WorldWidth, opts.WorldLength, opts.Spacing, ErrInvalidGrid)
	}

	g := &Grid{
		Width:   width,
		Length:  length,
		Spacing: opts.Spacing,
		Area:    Rect{Width: float64(width) * opts.Spacing, Length: float64(length) * opts.Spacing},
		nodes:   make([]Node, width*length),
	}

	for z := 0; z < length; z++ {
		for x := 0; x < width; x++ {
			i := x + z*width
			wx := float64(x) * opts.Spacing
			wz := float64(z) * opts.Spacing
			y := t.HeightAt(wx, wz)
			n := &g.nodes[i]
			n.Index = i
			n.X = x
			n.Z = z
			n.Position = mgl64.Vec3{wx, y, wz}
			switch {
			case y < opts.WaterLevel:
				n.Blocked = true
			case terrain.InclineAngle(t.SlopeNormalAt(wx, wz)) < opts.MinIncline:
				n.Blocked = true
			}
		}
	}

	g.link()
	return g, nil
}

func (g *Grid) link() {
	for i := range g.nodes {
		n := &g.nodes[i]
		n.Neighbors = make([]int, 0, len(neighborOffsets))
		for _, d := range neighborOffsets {
			nx := n.X + d[0]
			nz := n.Z + d[1]
			if nx < 0 || nz < 0 || nx >= g.Width || nz >= g.Length {
				continue
			}
			n.Neighbors = append(n.Neighbors, nx+nz*g.Width)
		}
	}
}

// Len returns the number of nodes in the table.
func (g *Grid) Len() int {
	return len(g.nodes)
}

// Node returns the node at arena index i, or nil when i is out of range.
func (g *Grid) Node(i int) *Node {
	if i < 0 || i >= len(g.nodes) {
		return nil
	}
	return &g.nodes[i]
}

// NodeAt converts a world position to a node index. It reports false when
// the position falls outside the lattice.
func (g *Grid) NodeAt(worldX, worldZ float64) (int, bool) {
	col := math.Floor(worldX / g.Spacing)
	row := math.Floor(worldZ / g.Spacing)
	if !(col >= 0 && col < float64(g.Width)) || !(row >= 0 && row < float64(g.Length)) {
		return 0, false
	}
	i := int(col) + int(row)*g.Width
	if i < 0 || i >= len(g.nodes) {
		return 0, false
	}
	return i, true
}

// NodeAtCell returns the index of lattice cell (x, z).
func (g *Grid) NodeAtCell(x, z int) (int, bool) {
	if x < 0 || z < 0 || x >= g.Width || z >= g.Length {
		return 0, false
	}
	return x + z*g.Width, true
}

// IsCardinal reports whether a and b share a lattice row or column.
func (g *Grid) IsCardinal(a, b int) bool {
	na, nb := &g.nodes[a], &g.nodes[b]
	return na.X == nb.X || na.Z == nb.Z
}

// Blocked reports whether node i was classified as untraversable.
func (g *Grid) Blocked(i int) bool {
	return g.nodes[i].Blocked
}

// BlockedCount returns how many nodes were classified as untraversable.
func (g *Grid) BlockedCount() int {
	n := 0
	for i := range g.nodes {
		if g.nodes[i].Blocked {
			n++
		}
	}
	return n
}
