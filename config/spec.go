// Package config loads the YAML description of a terrain, its traversal
// grid and the search settings used over it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/milk9111/terrainpath/pathfinding"
	"github.com/milk9111/terrainpath/terrain"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("invalid spec")

type Spec struct {
	Grid    GridSpec    `yaml:"grid" json:"grid" jsonschema:"description=Traversal grid laid over the terrain"`
	Search  SearchSpec  `yaml:"search" json:"search" jsonschema:"description=A* settings"`
	Terrain TerrainSpec `yaml:"terrain" json:"terrain" jsonschema:"description=Height and slope source"`

	// dir resolves relative terrain sources; empty for embedded specs.
	dir string
}

type GridSpec struct {
	Width      float64 `yaml:"width" json:"width" jsonschema:"description=World extent along X,minimum=0"`
	Length     float64 `yaml:"length" json:"length" jsonschema:"description=World extent along Z,minimum=0"`
	Spacing    float64 `yaml:"spacing" json:"spacing" jsonschema:"description=World distance between neighbouring nodes,minimum=0"`
	WaterLevel float64 `yaml:"water_level" json:"water_level" jsonschema:"description=Nodes below this height are blocked"`
	MinIncline float64 `yaml:"min_incline" json:"min_incline" jsonschema:"description=Nodes whose incline in degrees is below this are blocked,minimum=0,maximum=90"`
}

type SearchSpec struct {
	Heuristic     string  `yaml:"heuristic" json:"heuristic,omitempty" jsonschema:"enum=octile,enum=manhattan,enum=euclidean,description=Remaining cost estimate"`
	CardinalCost  float64 `yaml:"cardinal_cost" json:"cardinal_cost,omitempty" jsonschema:"description=Cost of a straight step; defaults to the spacing,minimum=0"`
	DiagonalCost  float64 `yaml:"diagonal_cost" json:"diagonal_cost,omitempty" jsonschema:"description=Cost of a diagonal step; defaults to the cardinal cost times sqrt 2,minimum=0"`
	MaxExpansions int     `yaml:"max_expansions" json:"max_expansions,omitempty" jsonschema:"description=Expansion budget per search; zero is unlimited,minimum=0"`
}

// Default returns the settings of the embedded default spec.
func Default() Spec {
	return Spec{
		Grid: GridSpec{
			Width:      640,
			Length:     640,
			Spacing:    pathfinding.DefaultSpacing,
			WaterLevel: pathfinding.DefaultWaterLevel,
			MinIncline: pathfinding.DefaultMinIncline,
		},
		Search: SearchSpec{
			Heuristic: pathfinding.Octile.String(),
		},
		Terrain: TerrainSpec{
			Kind:   KindScript,
			Source: "hills.tengo",
			Step:   1,
		},
	}
}

// Load reads the spec at path, falling back to the embedded copy with the
// same name. An empty path loads the embedded default.
func Load(path string) (*Spec, error) {
	data, dir, err := read(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	spec.dir = dir
	return spec, nil
}

// Parse decodes a spec on top of the defaults and validates it. Unknown
// keys are rejected.
func Parse(data []byte) (*Spec, error) {
	spec := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *Spec) Validate() error {
	var errs []error
	g := s.Grid
	if !(g.Spacing > 0) {
		errs = append(errs, fmt.Errorf("grid.spacing %v must be positive", g.Spacing))
	}
	if !(g.Width > 0) || !(g.Length > 0) {
		errs = append(errs, fmt.Errorf("grid size %vx%v must be positive", g.Width, g.Length))
	} else if g.Spacing > 0 && (g.Width < g.Spacing || g.Length < g.Spacing) {
		errs = append(errs, fmt.Errorf("grid %vx%v is smaller than one %v cell", g.Width, g.Length, g.Spacing))
	}
	if g.MinIncline < 0 || g.MinIncline > 90 {
		errs = append(errs, fmt.Errorf("grid.min_incline %v outside 0..90", g.MinIncline))
	}
	if _, err := pathfinding.ParseHeuristic(s.Search.Heuristic); err != nil {
		errs = append(errs, err)
	}
	if s.Search.CardinalCost < 0 || s.Search.DiagonalCost < 0 {
		errs = append(errs, fmt.Errorf("search costs must not be negative"))
	}
	if s.Search.MaxExpansions < 0 {
		errs = append(errs, fmt.Errorf("search.max_expansions %d must not be negative", s.Search.MaxExpansions))
	}
	if err := s.Terrain.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w: %w", ErrInvalidSpec, errors.Join(errs...))
	}
	return nil
}

func (s *Spec) ToGridOptions() pathfinding.GridOptions {
	return pathfinding.GridOptions{
		WorldWidth:  s.Grid.Width,
		WorldLength: s.Grid.Length,
		Spacing:     s.Grid.Spacing,
		WaterLevel:  s.Grid.WaterLevel,
		MinIncline:  s.Grid.MinIncline,
	}
}

// Costs returns the step costs, defaulting to travelled world distance.
func (s *Spec) Costs() pathfinding.Costs {
	c := pathfinding.DefaultCosts(s.Grid.Spacing)
	if s.Search.CardinalCost > 0 {
		c.Cardinal = s.Search.CardinalCost
		c.Diagonal = s.Search.CardinalCost * math.Sqrt2
	}
	if s.Search.DiagonalCost > 0 {
		c.Diagonal = s.Search.DiagonalCost
	}
	return c
}

func (s *Spec) HeuristicKind() pathfinding.HeuristicKind {
	k, _ := pathfinding.ParseHeuristic(s.Search.Heuristic)
	return k
}

// SearchOptions converts the search settings into options for
// pathfinding.Search.
func (s *Spec) SearchOptions() []pathfinding.Option {
	c := s.Costs()
	return []pathfinding.Option{
		pathfinding.WithCosts(c.Cardinal, c.Diagonal),
		pathfinding.WithHeuristicKind(s.HeuristicKind()),
		pathfinding.WithMaxExpansions(s.Search.MaxExpansions),
	}
}

// BuildGrid samples the spec's terrain into a grid.
func (s *Spec) BuildGrid() (*pathfinding.Grid, error) {
	oracle, err := s.Terrain.Oracle(s.dir)
	if err != nil {
		return nil, err
	}
	g, err := pathfinding.BuildGrid(oracle, s.ToGridOptions())
	if err != nil {
		return nil, fmt.Errorf("config: build grid: %w", err)
	}
	if sc, ok := oracle.(*terrain.Script); ok {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("config: build grid: %w", err)
		}
	}
	return g, nil
}

// Dir is the directory relative terrain sources are resolved against.
func (s *Spec) Dir() string { return s.dir }
