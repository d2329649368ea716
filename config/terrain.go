package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/terrainpath/terrain"
)

const (
	KindFlat      = "flat"
	KindHeightmap = "heightmap"
	KindScript    = "script"
)

type TerrainSpec struct {
	Kind   string    `yaml:"kind" json:"kind" jsonschema:"enum=flat,enum=heightmap,enum=script,description=Terrain source"`
	Height float64   `yaml:"height" json:"height,omitempty" jsonschema:"description=Ground height of flat terrain"`
	Source string    `yaml:"source" json:"source,omitempty" jsonschema:"description=Heightmap image or tengo script relative to the spec file"`
	Scale  []float64 `yaml:"scale,flow" json:"scale,omitempty" jsonschema:"description=Heightmap vertex spacing on X and Z and height multiplier on Y,minItems=3,maxItems=3"`
	Step   float64   `yaml:"step" json:"step,omitempty" jsonschema:"description=Sampling distance for script normals,minimum=0"`
}

func (t TerrainSpec) validate() error {
	switch t.Kind {
	case KindFlat:
		return nil
	case KindHeightmap, KindScript:
		if t.Source == "" {
			return fmt.Errorf("terrain.source is required for %s terrain", t.Kind)
		}
	default:
		return fmt.Errorf("unknown terrain.kind %q", t.Kind)
	}
	if len(t.Scale) != 0 && len(t.Scale) != 3 {
		return fmt.Errorf("terrain.scale needs 3 components, got %d", len(t.Scale))
	}
	if t.Step < 0 {
		return fmt.Errorf("terrain.step %v must not be negative", t.Step)
	}
	return nil
}

// ScaleVec is the heightmap scale, one unit per axis when unset.
func (t TerrainSpec) ScaleVec() mgl64.Vec3 {
	if len(t.Scale) != 3 {
		return mgl64.Vec3{1, 1, 1}
	}
	return mgl64.Vec3{t.Scale[0], t.Scale[1], t.Scale[2]}
}

// Oracle builds the terrain. Relative sources are looked up under dir, then
// the working directory, then the embedded scripts.
func (t TerrainSpec) Oracle(dir string) (terrain.Oracle, error) {
	switch t.Kind {
	case KindFlat:
		return terrain.Flat{Height: t.Height}, nil
	case KindHeightmap:
		data, err := readSource(dir, t.Source)
		if err != nil {
			return nil, err
		}
		hm, err := terrain.DecodeHeightmap(data, t.ScaleVec())
		if err != nil {
			return nil, fmt.Errorf("config: heightmap %s: %w", t.Source, err)
		}
		return hm, nil
	case KindScript:
		data, err := readSource(dir, t.Source)
		if err != nil {
			return nil, err
		}
		step := t.Step
		if step == 0 {
			step = 1
		}
		s, err := terrain.NewScript(data, step)
		if err != nil {
			return nil, fmt.Errorf("config: script %s: %w", t.Source, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("config: unknown terrain kind %q: %w", t.Kind, ErrInvalidSpec)
}

// SourcePath returns the on-disk location of the terrain source, or false
// when it only exists embedded.
func (t TerrainSpec) SourcePath(dir string) (string, bool) {
	for _, p := range sourceCandidates(dir, t.Source) {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func sourceCandidates(dir, src string) []string {
	if src == "" {
		return nil
	}
	if filepath.IsAbs(src) {
		return []string{src}
	}
	if dir != "" {
		return []string{filepath.Join(dir, src), src}
	}
	return []string{src}
}

func readSource(dir, src string) ([]byte, error) {
	for _, p := range sourceCandidates(dir, src) {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", p, err)
		}
	}
	data, err := FS.ReadFile(scriptPath(src))
	if err != nil {
		return nil, fmt.Errorf("config: terrain source %s: %w", src, err)
	}
	return data, nil
}
