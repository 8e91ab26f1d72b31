package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/gif"

	"github.com/disintegration/imaging"
)

// ThumbnailSize is the edge length of the legacy placeholder thumbnail.
const ThumbnailSize = 3

// Thumbnail3x3 downsamples an image to 3x3 pixels and returns it as an inline
// GIF data URI, used as a blurred placeholder while the real image loads.
func Thumbnail3x3(path string) (string, error) {
	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return "", err
	}

	thumb := imaging.Resize(img, ThumbnailSize, ThumbnailSize, imaging.Box)

	var buf bytes.Buffer
	if err := gif.Encode(&buf, thumb, nil); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	return "data:image/gif;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
