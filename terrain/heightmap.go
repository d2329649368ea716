package terrain

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Heightmap is a triangulated height mesh sampled from a grid of vertex
// heights. Vertex (i, j) sits at world (i*Scale.X, h, j*Scale.Z); each cell
// is split along its upper-left to lower-right diagonal.
type Heightmap struct {
	Scale mgl64.Vec3

	cols    int
	rows    int
	heights []float64
}

// NewHeightmap builds a mesh from raw vertex heights in row-major order.
// Heights are multiplied by scale.Y.
func NewHeightmap(cols, rows int, heights []float64, scale mgl64.Vec3) (*Heightmap, error) {
	if cols < 2 || rows < 2 {
		return nil, fmt.Errorf("terrain: heightmap needs at least 2x2 vertices, got %dx%d", cols, rows)
	}
	if len(heights) != cols*rows {
		return nil, fmt.Errorf("terrain: heightmap has %d heights, want %d", len(heights), cols*rows)
	}
	if !(scale.X() > 0) || !(scale.Z() > 0) {
		return nil, fmt.Errorf("terrain: heightmap scale %v must be positive on X and Z", scale)
	}
	hm := &Heightmap{
		Scale:   scale,
		cols:    cols,
		rows:    rows,
		heights: make([]float64, len(heights)),
	}
	for i, h := range heights {
		hm.heights[i] = h * scale.Y()
	}
	return hm, nil
}

// HeightmapFromImage reads vertex heights from the red channel of img. The
// 8-bit value is halved, so an unscaled map spans 0 to 127.5.
func HeightmapFromImage(img image.Image, scale mgl64.Vec3) (*Heightmap, error) {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	heights := make([]float64, 0, cols*rows)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			heights = append(heights, float64(r>>8)/2)
		}
	}
	return NewHeightmap(cols, rows, heights, scale)
}

// DecodeHeightmap decodes a PNG, BMP or TIFF heightmap.
func DecodeHeightmap(data []byte, scale mgl64.Vec3) (*Heightmap, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("terrain: decode heightmap: %w", err)
	}
	hm, err := HeightmapFromImage(img, scale)
	if err != nil {
		return nil, fmt.Errorf("terrain: %s heightmap: %w", format, err)
	}
	return hm, nil
}

func LoadHeightmap(path string, scale mgl64.Vec3) (*Heightmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: load heightmap %s: %w", path, err)
	}
	return DecodeHeightmap(data, scale)
}

// Width is the world extent of the mesh along X.
func (hm *Heightmap) Width() float64 {
	return float64(hm.cols-1) * hm.Scale.X()
}

// Length is the world extent of the mesh along Z.
func (hm *Heightmap) Length() float64 {
	return float64(hm.rows-1) * hm.Scale.Z()
}

// Outside reports whether (x, z) lies off the mesh.
func (hm *Heightmap) Outside(x, z float64) bool {
	return !(x >= 0 && x < hm.Width()) || !(z >= 0 && z < hm.Length())
}

func (hm *Heightmap) vertex(i, j int) mgl64.Vec3 {
	return mgl64.Vec3{float64(i) * hm.Scale.X(), hm.heights[i+j*hm.cols], float64(j) * hm.Scale.Z()}
}

// triangle returns the three vertices of the mesh triangle under (x, z) and
// the position inside its cell, both in [0, 1).
func (hm *Heightmap) triangle(x, z float64) (tri [3]mgl64.Vec3, upper bool, fx, fz float64) {
	i := min(int(x/hm.Scale.X()), hm.cols-2)
	j := min(int(z/hm.Scale.Z()), hm.rows-2)
	fx = x/hm.Scale.X() - float64(i)
	fz = z/hm.Scale.Z() - float64(j)

	ul := hm.vertex(i, j)
	ur := hm.vertex(i+1, j)
	ll := hm.vertex(i, j+1)
	lr := hm.vertex(i+1, j+1)

	if fx >= fz {
		return [3]mgl64.Vec3{ul, ur, lr}, true, fx, fz
	}
	return [3]mgl64.Vec3{ul, lr, ll}, false, fx, fz
}

// HeightAt interpolates the mesh height. Positions off the mesh have
// height 0.
func (hm *Heightmap) HeightAt(x, z float64) float64 {
	if hm.Outside(x, z) {
		return 0
	}
	t, upper, fx, fz := hm.triangle(x, z)
	if upper {
		return t[0].Y() + (t[1].Y()-t[0].Y())*fx + (t[2].Y()-t[1].Y())*fz
	}
	return t[0].Y() + (t[1].Y()-t[2].Y())*fx + (t[2].Y()-t[0].Y())*fz
}

// SlopeNormalAt returns the unit normal of the mesh triangle under (x, z).
// Positions off the mesh are level.
func (hm *Heightmap) SlopeNormalAt(x, z float64) mgl64.Vec3 {
	if hm.Outside(x, z) {
		return Up
	}
	t, _, _, _ := hm.triangle(x, z)
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.Y() < 0 {
		n = n.Mul(-1)
	}
	return n.Normalize()
}
