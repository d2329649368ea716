// Package terrain provides the height and slope oracles a pathfinding grid
// is built from.
package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Oracle answers height and surface-normal queries at world X/Z positions.
type Oracle interface {
	HeightAt(x, z float64) float64
	SlopeNormalAt(x, z float64) mgl64.Vec3
}

// Up is the surface normal of level ground.
var Up = mgl64.Vec3{0, 1, 0}

// InclineAngle rates how walkable a surface is, in degrees: 90 for level
// ground, 0 for a sheer wall. It is acos(nx² + nz²) of the unit normal,
// which falls faster than the slope rises: a 45° slope rates 60. A zero
// normal is treated as level ground.
func InclineAngle(normal mgl64.Vec3) float64 {
	l := normal.Len()
	if l == 0 {
		return 90
	}
	n := normal.Mul(1 / l)
	h := n.X()*n.X() + n.Z()*n.Z()
	h = math.Max(0, math.Min(1, h))
	return mgl64.RadToDeg(math.Acos(h))
}

// Flat is level ground at a fixed height.
type Flat struct {
	Height float64
}

func (f Flat) HeightAt(x, z float64) float64         { return f.Height }
func (f Flat) SlopeNormalAt(x, z float64) mgl64.Vec3 { return Up }

// Func adapts a height function. Normals are estimated by central
// differences over Step world units (1 when unset).
type Func struct {
	Height func(x, z float64) float64
	Step   float64
}

func (f Func) HeightAt(x, z float64) float64 {
	return f.Height(x, z)
}

func (f Func) SlopeNormalAt(x, z float64) mgl64.Vec3 {
	return NormalFromHeights(f.Height, x, z, f.Step)
}

// NormalFromHeights estimates the unit surface normal of a height function
// at (x, z) using central differences.
func NormalFromHeights(height func(x, z float64) float64, x, z, step float64) mgl64.Vec3 {
	if !(step > 0) {
		step = 1
	}
	dx := (height(x+step, z) - height(x-step, z)) / (2 * step)
	dz := (height(x, z+step) - height(x, z-step)) / (2 * step)
	return mgl64.Vec3{-dx, 1, -dz}.Normalize()
}
