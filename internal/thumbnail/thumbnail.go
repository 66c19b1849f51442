package thumbnail

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

const thumbSuffix = ".thumb.jpg"

// Generator derives bounded-dimension previews beside original image files.
// Originals are immutable once stored, so a derivative never needs
// invalidating: compute once, then serve the cached file.
type Generator struct {
	maxDim int
}

// NewGenerator returns a generator bounding previews to maxDim pixels.
func NewGenerator(maxDim int) *Generator {
	if maxDim <= 0 {
		maxDim = 400
	}
	return &Generator{maxDim: maxDim}
}

// Ensure returns the path of the cached preview for origPath, generating it
// on first request. Decode or encode failures surface to the caller, which
// is expected to fall back to serving the original bytes.
func (g *Generator) Ensure(origPath string) (string, error) {
	thumbPath := origPath + thumbSuffix

	if _, err := os.Stat(thumbPath); err == nil {
		return thumbPath, nil
	}

	img, err := imaging.Open(origPath)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, g.maxDim, g.maxDim, imaging.Lanczos)

	if err := imaging.Save(thumb, thumbPath); err != nil {
		os.Remove(thumbPath)
		return "", fmt.Errorf("save thumbnail: %w", err)
	}

	return thumbPath, nil
}
