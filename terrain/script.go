package terrain

import (
	"fmt"
	"os"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
)

// heightDispatchScript is appended to every terrain script; the script must
// define `height := func(x, z) { ... }`.
const heightDispatchScript = `
__h = height(__x, __z)
`

// Script is a terrain whose height is computed by a tengo script. Normals
// are estimated from neighbouring heights. A Script is safe for concurrent
// use; calls are serialized.
type Script struct {
	Step float64

	mu       sync.Mutex
	compiled *tengo.Compiled
	err      error
	failures int
}

// NewScript compiles src. Step is the finite-difference distance used for
// normals.
func NewScript(src []byte, step float64) (*Script, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), heightDispatchScript...))
	_ = script.Add("__x", 0.0)
	_ = script.Add("__z", 0.0)
	_ = script.Add("__h", 0.0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("terrain: compile script: %w", err)
	}
	s := &Script{Step: step, compiled: compiled}

	// surface missing `height` or runtime errors now rather than mid-build
	if _, err := s.eval(0, 0); err != nil {
		return nil, err
	}
	return s, nil
}

func LoadScript(path string, step float64) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: load script %s: %w", path, err)
	}
	s, err := NewScript(src, step)
	if err != nil {
		return nil, fmt.Errorf("terrain: script %s: %w", path, err)
	}
	return s, nil
}

func (s *Script) eval(x, z float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.compiled.Set("__x", x); err != nil {
		return 0, err
	}
	if err := s.compiled.Set("__z", z); err != nil {
		return 0, err
	}
	if err := s.compiled.Run(); err != nil {
		return 0, fmt.Errorf("terrain: run script at (%v, %v): %w", x, z, err)
	}
	return s.compiled.Get("__h").Float(), nil
}

// HeightAt runs the script. A failing script reports height 0; the first
// failure is kept for Err.
func (s *Script) HeightAt(x, z float64) float64 {
	h, err := s.eval(x, z)
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.failures++
		s.mu.Unlock()
		return 0
	}
	return h
}

// Err returns the first error the script raised while sampling, or nil.
func (s *Script) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return fmt.Errorf("terrain: %d samples failed: %w", s.failures, s.err)
}

func (s *Script) SlopeNormalAt(x, z float64) mgl64.Vec3 {
	return NormalFromHeights(s.HeightAt, x, z, s.Step)
}
