package physics

import (
	"math"
	"strconv"
)

// BannerKind selects how a banner is styled.
type BannerKind uint8

const (
	BannerNone BannerKind = iota
	BannerCountdown
	BannerSuccess
	BannerFailure
)

// Banner is centred overlay text.
type Banner struct {
	Kind BannerKind
	Text string
}

// Drawable is one sprite placement.
type Drawable struct {
	Kind   EntityKind
	Bounds Rect
	Image  SpriteID
}

// View is a read-only snapshot of everything the compositor draws, in
// draw order within each slice.
type View struct {
	Phase      Phase
	Outcome    Outcome
	Pipes      []Drawable
	Platforms  []Drawable
	Hazards    []Drawable
	Goal       Drawable
	Avatar     Drawable
	Invincible bool
	Lives      int
	Score      int
	Banner     Banner
}

func drawables(es []Entity) []Drawable {
	out := make([]Drawable, len(es))
	for i := range es {
		out[i] = Drawable{Kind: es[i].Kind, Bounds: es[i].Bounds(), Image: es[i].CurrentImage()}
	}
	return out
}

// View snapshots the world as of the last Step.
func (w *World) View() View {
	v := View{
		Phase:     w.phase,
		Outcome:   w.outcome,
		Pipes:     drawables(w.pipes),
		Platforms: drawables(w.platforms),
		Hazards:   drawables(w.hazards),
		Goal: Drawable{
			Kind:   w.goal.Kind,
			Bounds: w.goal.Bounds(),
			Image:  w.goal.CurrentImage(),
		},
		Avatar: Drawable{
			Kind:   KindAvatar,
			Bounds: w.avatar.Bounds(),
			Image:  w.avatar.CurrentImage(),
		},
		Invincible: w.avatar.Invincible,
		Lives:      w.lives,
		Score:      w.score,
	}

	switch w.phase {
	case PhaseCountdown:
		left := w.tuning.CountdownDuration - w.now.Sub(w.started)
		secs := int(math.Ceil(left.Seconds()))
		if secs < 1 {
			secs = 1
		}
		v.Banner = Banner{Kind: BannerCountdown, Text: strconv.Itoa(secs)}
	case PhaseTerminal:
		if w.outcome == OutcomeSuccess {
			v.Banner = Banner{Kind: BannerSuccess, Text: "Congratulations!"}
		} else {
			v.Banner = Banner{Kind: BannerFailure, Text: "Game Over"}
		}
	}
	return v
}
