package physics

import "errors"

// ErrInvalidTuning indicates gameplay constants that cannot build a world.
var ErrInvalidTuning = errors.New("invalid physics tuning")
