// Package level describes static level layouts.
//
// A Layout is consumed once when a physics world is built; the world copies
// every coordinate into its own entities, so a Layout can be reused across
// sessions.
package level

import (
	"errors"
	"fmt"
)

// ErrEmptyLayout indicates a layout without platforms. The goal is placed on
// the last platform, so at least one is required.
var ErrEmptyLayout = errors.New("layout has no platforms")

// Point is a world coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Layout lists platform and hazard anchors in declaration order.
//
// Platform points are top-left corners. Hazard points are the midbottom of
// the hazard sprite.
type Layout struct {
	Platforms []Point
	Hazards   []Point
}

// Validate reports whether the layout can build a world.
func (l Layout) Validate() error {
	if len(l.Platforms) == 0 {
		return ErrEmptyLayout
	}
	return nil
}

// String summarizes the layout for logging.
func (l Layout) String() string {
	return fmt.Sprintf("Layout(platforms=%d, hazards=%d)", len(l.Platforms), len(l.Hazards))
}

// Default returns the stock level. Platforms stay above y=400 because the
// water overlay covers the bottom of the screen.
func Default() Layout {
	return Layout{
		Platforms: []Point{
			{100, 350}, {400, 300}, {700, 250}, {1000, 300},
			{1300, 250}, {1700, 175}, {1900, 300}, {2220, 350},
		},
		Hazards: []Point{
			{450, 300}, {780, 250}, {1010, 300},
		},
	}
}
