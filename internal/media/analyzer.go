package media

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"memewall/internal/logging"
)

// Analysis is the display metadata derived from one image.
type Analysis struct {
	AspectRatio float64
	Variants    map[string]string
	Thumbnail   string
}

// Analyzer derives the aspect ratio and responsive variants of local images.
type Analyzer struct {
	renderer        Renderer
	legacyThumbnail bool
}

// NewAnalyzer creates an Analyzer. With legacyThumbnail set, every analysis
// also carries a 3x3 inline placeholder.
func NewAnalyzer(renderer Renderer, legacyThumbnail bool) *Analyzer {
	return &Analyzer{renderer: renderer, legacyThumbnail: legacyThumbnail}
}

// Analyze inspects the image at path. Degenerate dimensions give a non-finite
// aspect ratio and no variants rather than an error.
func (a *Analyzer) Analyze(ctx context.Context, path string) (Analysis, error) {
	start := time.Now()

	ratio, err := AspectRatio(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("aspect ratio: %w", err)
	}

	markup, err := a.renderer.Render(ctx, path)
	if err != nil {
		return Analysis{}, fmt.Errorf("render variants: %w", err)
	}

	result := Analysis{
		AspectRatio: ratio,
		Variants:    ExtractVariants(markup),
	}

	if a.legacyThumbnail {
		thumb, err := Thumbnail3x3(path)
		if err != nil {
			return Analysis{}, fmt.Errorf("thumbnail: %w", err)
		}
		result.Thumbnail = thumb
	}

	logging.Debug("Analyzed %s: ratio=%.4f variants=%d in %v",
		filepath.Base(path), ratio, len(result.Variants), time.Since(start))
	return result, nil
}
