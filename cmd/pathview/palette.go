package main

import (
	"image/color"

	"github.com/milk9111/terrainpath/pathfinding"
	"golang.org/x/image/colornames"
)

var stateColors = map[pathfinding.NodeState]color.RGBA{
	pathfinding.StateUnvisited: colornames.Green,
	pathfinding.StateOpen:      colornames.Lightgreen,
	pathfinding.StateClosed:    colornames.Lightblue,
	pathfinding.StateBlocked:   colornames.Red,
	pathfinding.StateOnPath:    colornames.Yellow,
}

var (
	startColor = colornames.White
	goalColor  = colornames.Magenta
	agentColor = colornames.Orange
	pathColor  = colornames.Gold
)

func stateColor(s pathfinding.NodeState) color.RGBA {
	if c, ok := stateColors[s]; ok {
		return c
	}
	return colornames.Black
}
