// Package walker moves a physics body along a planned path. World X and Z
// map onto the physics plane; height is carried from the waypoints.
package walker

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

const arriveEpsilon = 1e-6

type Walker struct {
	Speed float64

	space  *cp.Space
	body   *cp.Body
	height float64
	path   []mgl64.Vec3
	next   int
}

// New places a round body of the given radius at start.
func New(start mgl64.Vec3, speed, radius float64) *Walker {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})

	const mass = 1.0
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: start.X(), Y: start.Z()})
	space.AddBody(body)
	space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))

	return &Walker{
		Speed:  speed,
		space:  space,
		body:   body,
		height: start.Y(),
	}
}

// Follow replaces the waypoints.
func (w *Walker) Follow(path []mgl64.Vec3) {
	w.path = append(w.path[:0], path...)
	w.next = 0
	w.body.SetVelocityVector(cp.Vector{})
}

// Step advances the simulation by dt seconds, steering toward the next
// waypoint without overshooting it.
func (w *Walker) Step(dt float64) {
	if dt <= 0 {
		return
	}
	if w.Done() {
		w.body.SetVelocityVector(cp.Vector{})
		w.space.Step(dt)
		return
	}

	target := w.path[w.next]
	delta := cp.Vector{X: target.X(), Y: target.Z()}.Sub(w.body.Position())
	dist := delta.Length()
	speed := w.Speed
	if dist/dt < speed {
		speed = dist / dt
	}
	if dist > 0 {
		w.body.SetVelocityVector(delta.Mult(speed / dist))
	}
	w.space.Step(dt)

	pos := w.body.Position()
	if pos.Sub(cp.Vector{X: target.X(), Y: target.Z()}).Length() < arriveEpsilon {
		w.height = target.Y()
		w.next++
	}
}

func (w *Walker) Position() mgl64.Vec3 {
	pos := w.body.Position()
	return mgl64.Vec3{pos.X, w.height, pos.Y}
}

// Remaining is the number of waypoints not yet reached.
func (w *Walker) Remaining() int {
	return len(w.path) - w.next
}

func (w *Walker) Done() bool {
	return w.next >= len(w.path)
}
