package compositor

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/opd-ai/screamjump/physics"
	"github.com/sirupsen/logrus"
)

// SpriteProvider supplies images by sprite identifier.
type SpriteProvider interface {
	Sprite(id physics.SpriteID) (image.Image, bool)
}

// SpriteSet is an in-memory SpriteProvider.
type SpriteSet map[physics.SpriteID]image.Image

// Sprite implements SpriteProvider.
func (s SpriteSet) Sprite(id physics.SpriteID) (image.Image, bool) {
	img, ok := s[id]
	return img, ok && img != nil
}

// AllSprites lists every sprite the compositor may request.
var AllSprites = []physics.SpriteID{
	physics.SpriteGround, physics.SpritePipe,
	physics.SpriteHazard1, physics.SpriteHazard2,
	physics.SpriteGoal,
	physics.SpriteWalk1, physics.SpriteWalk2, physics.SpriteWalk3,
	physics.SpriteJump, physics.SpriteDeath,
	physics.SpriteWater,
}

// LoadSprites reads <id>.png for every known sprite from dir. Missing files
// are skipped and fall back to flat colours when rendering.
func LoadSprites(dir string) (SpriteSet, error) {
	set := SpriteSet{}
	for _, id := range AllSprites {
		path := filepath.Join(dir, string(id)+".png")
		img, err := loadPNG(path)
		if os.IsNotExist(err) {
			logrus.WithFields(logrus.Fields{
				"function": "LoadSprites",
				"sprite":   id,
			}).Debug("Sprite missing, using fallback")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load sprite %s: %w", id, err)
		}
		set[id] = img
	}

	logrus.WithFields(logrus.Fields{
		"function": "LoadSprites",
		"dir":      dir,
		"loaded":   len(set),
		"known":    len(AllSprites),
	}).Info("Sprites loaded")
	return set, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
