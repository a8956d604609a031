package physics

// Rect is an axis-aligned rectangle in screen pixels; Y grows downward.
type Rect struct {
	X, Y, W, H float64
}

// Size is a width and height in pixels.
type Size struct {
	W, H float64
}

// RectFromMidBottom returns a rect of size s whose bottom centre is (x, y).
func RectFromMidBottom(x, y float64, s Size) Rect {
	return Rect{X: x - s.W/2, Y: y - s.H, W: s.W, H: s.H}
}

// RectFromMidTop returns a rect of size s whose top centre is (x, y).
func RectFromMidTop(x, y float64, s Size) Rect {
	return Rect{X: x - s.W/2, Y: y, W: s.W, H: s.H}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the x coordinate of the horizontal centre.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// Overlaps reports whether r and o share a region of positive area.
// Touching edges do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right() && r.Right() > o.Left() &&
		r.Top() < o.Bottom() && r.Bottom() > o.Top()
}
