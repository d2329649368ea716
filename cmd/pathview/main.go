package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	specPath := flag.String("spec", "", "terrain spec YAML; empty uses the embedded default")
	cellSize := flag.Float64("cell", 10, "screen pixels per grid node")
	speed := flag.Float64("speed", 60, "agent speed in world units per second")
	flag.Parse()

	v, err := NewViewer(*specPath, *cellSize, *speed, log.Default())
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("pathview")

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
