package pathfinding

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Heuristic estimates the remaining cost between two node positions.
type Heuristic func(from, to mgl64.Vec3) float64

// HeuristicKind selects one of the built-in heuristics at runtime.
type HeuristicKind int

const (
	Octile HeuristicKind = iota
	Manhattan
	Euclidean
)

func (k HeuristicKind) String() string {
	switch k {
	case Octile:
		return "octile"
	case Manhattan:
		return "manhattan"
	case Euclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("heuristic(%d)", int(k))
	}
}

func ParseHeuristic(s string) (HeuristicKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "octile", "diagonal":
		return Octile, nil
	case "manhattan":
		return Manhattan, nil
	case "euclidean":
		return Euclidean, nil
	}
	return Octile, fmt.Errorf("pathfinding: unknown heuristic %q", s)
}

// Costs are the movement costs of one lattice step.
type Costs struct {
	Cardinal float64
	Diagonal float64
}

// DefaultCosts charges the spacing per cardinal step and spacing·√2 per
// diagonal step, so cost equals travelled world distance.
func DefaultCosts(spacing float64) Costs {
	return Costs{Cardinal: spacing, Diagonal: spacing * math.Sqrt2}
}

// Func builds the heuristic for the given step costs and lattice spacing.
// World distances on the X/Z plane are converted to cost units.
//
// Manhattan overestimates diagonal shortcuts on an 8-connected lattice, so
// it does not guarantee optimal paths. Euclidean is scaled by the cheapest
// cost per unit distance and never overestimates. Octile is exact on an
// unobstructed lattice.
func (k HeuristicKind) Func(c Costs, spacing float64) Heuristic {
	if !(spacing > 0) {
		spacing = 1
	}
	cardinal := c.Cardinal / spacing
	diagonal := c.Diagonal / spacing
	switch k {
	case Manhattan:
		return func(from, to mgl64.Vec3) float64 {
			dx, dz := planarDelta(from, to)
			return cardinal * (dx + dz)
		}
	case Euclidean:
		rate := math.Min(cardinal, diagonal/math.Sqrt2)
		return func(from, to mgl64.Vec3) float64 {
			dx, dz := planarDelta(from, to)
			return rate * math.Hypot(dx, dz)
		}
	default:
		// a diagonal step never costs more than the two cardinal steps it replaces
		diag := math.Min(diagonal, 2*cardinal)
		return func(from, to mgl64.Vec3) float64 {
			dx, dz := planarDelta(from, to)
			lo, hi := math.Min(dx, dz), math.Max(dx, dz)
			return cardinal*(hi-lo) + diag*lo
		}
	}
}

func planarDelta(a, b mgl64.Vec3) (float64, float64) {
	return math.Abs(a.X() - b.X()), math.Abs(a.Z() - b.Z())
}
