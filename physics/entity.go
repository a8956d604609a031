package physics

import "time"

// EntityKind tags the variant of an Entity.
type EntityKind uint8

const (
	KindPlatform EntityKind = iota
	KindPipe
	KindHazard
	KindGoal
	KindAvatar
)

func (k EntityKind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindPipe:
		return "pipe"
	case KindHazard:
		return "hazard"
	case KindGoal:
		return "goal"
	case KindAvatar:
		return "avatar"
	}
	return "unknown"
}

// SpriteID names an image supplied by the asset loader.
type SpriteID string

const (
	SpriteGround  SpriteID = "ground"
	SpritePipe    SpriteID = "pipe"
	SpriteHazard1 SpriteID = "piranha_1"
	SpriteHazard2 SpriteID = "piranha_2"
	SpriteGoal    SpriteID = "castle"
	SpriteWalk1   SpriteID = "walk_1"
	SpriteWalk2   SpriteID = "walk_2"
	SpriteWalk3   SpriteID = "walk_3"
	SpriteJump    SpriteID = "jump"
	SpriteDeath   SpriteID = "death"
	SpriteWater   SpriteID = "water"
)

var (
	hazardFrames = []SpriteID{SpriteHazard1, SpriteHazard2}
	walkFrames   = []SpriteID{SpriteWalk1, SpriteWalk2, SpriteWalk3}
)

// Entity is a scrolling world object.
type Entity struct {
	Kind EntityKind
	Rect Rect

	frames []SpriteID
	frame  float64
	step   float64
}

func newEntity(kind EntityKind, r Rect, step float64) Entity {
	e := Entity{Kind: kind, Rect: r, step: step}
	switch kind {
	case KindPlatform:
		e.frames = []SpriteID{SpriteGround}
	case KindPipe:
		e.frames = []SpriteID{SpritePipe}
	case KindHazard:
		e.frames = hazardFrames
	case KindGoal:
		e.frames = []SpriteID{SpriteGoal}
	}
	return e
}

// Update advances the looping animation. Single-frame entities are static.
func (e *Entity) Update() {
	if len(e.frames) < 2 {
		return
	}
	e.frame += e.step
	if e.frame >= float64(len(e.frames)) {
		e.frame = 0
	}
}

// FrameIndex returns the current animation frame.
func (e *Entity) FrameIndex() int {
	return int(e.frame)
}

// CurrentImage returns the sprite for the current animation frame.
func (e *Entity) CurrentImage() SpriteID {
	if len(e.frames) == 0 {
		return ""
	}
	return e.frames[int(e.frame)%len(e.frames)]
}

// Bounds returns the entity rectangle.
func (e *Entity) Bounds() Rect {
	return e.Rect
}

// Avatar is the player character.
type Avatar struct {
	Rect Rect
	// Velocity is the vertical accumulator; negative moves up.
	Velocity   float64
	Grounded   bool
	Invincible bool
	Dead       bool

	lastHit time.Time
	walk    float64
	step    float64
}

func (a *Avatar) animate() {
	if !a.Grounded {
		return
	}
	a.walk += a.step
	if a.walk >= float64(len(walkFrames)) {
		a.walk = 0
	}
}

// CurrentImage selects the death pose, the airborne pose or a walk frame.
func (a Avatar) CurrentImage() SpriteID {
	switch {
	case a.Dead:
		return SpriteDeath
	case !a.Grounded:
		return SpriteJump
	}
	return walkFrames[int(a.walk)%len(walkFrames)]
}

// Bounds returns the avatar rectangle.
func (a Avatar) Bounds() Rect {
	return a.Rect
}
