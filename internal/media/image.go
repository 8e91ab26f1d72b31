package media

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"memewall/internal/logging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension caps the longest side handed to the pure Go resizer.
	MaxImageDimension = 4096

	// MaxImagePixels caps the decoded pixel count (about 80MB as RGBA).
	MaxImagePixels = 20_000_000
)

// ErrUnsupportedFormat is returned when a renderer cannot encode the
// requested output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Dimensions holds image width and height in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads the image header without decoding pixel data.
func GetImageDimensions(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image header %s: %w", path, err)
	}

	return Dimensions{Width: config.Width, Height: config.Height}, nil
}

// Ratio returns width divided by height. A zero height gives +Inf, or NaN
// when the width is zero as well.
func (d Dimensions) Ratio() float64 {
	return float64(d.Width) / float64(d.Height)
}

// AspectRatio reads the image header at path and returns its Ratio.
// Degenerate dimensions are not an error.
func AspectRatio(path string) (float64, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		return 0, err
	}
	return dims.Ratio(), nil
}

// LoadImageConstrained decodes an image with EXIF orientation applied,
// downscaling it first when it exceeds maxDimension on either side or
// maxPixels in total.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	tw, th := constrain(w, h, maxDimension, maxPixels)
	if tw == w && th == h {
		return img, nil
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, w, h, tw, th)
	return imaging.Resize(img, tw, th, imaging.Lanczos), nil
}

func constrain(w, h, maxDimension, maxPixels int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}

	if w > maxDimension || h > maxDimension {
		if w > h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}

	if w*h > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(w*h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}

	return max(w, 1), max(h, 1)
}
