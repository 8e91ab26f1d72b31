package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"html"
	"image"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"memewall/internal/logging"

	"github.com/disintegration/imaging"
)

// Defaults for VariantOptions.
var (
	DefaultFormats = []string{"webp"}
	DefaultWidths  = []int{320, 640, 1280}
)

const (
	// DefaultQuality is the encoder quality for lossy formats.
	DefaultQuality = 80
	// DefaultSizes is the sizes attribute written on each source.
	DefaultSizes = "100vw"
)

// Renderer writes responsive width variants of an image and returns a
// <picture> fragment referencing them.
type Renderer interface {
	Render(ctx context.Context, file string) (string, error)
}

// VariantOptions configures a Renderer.
type VariantOptions struct {
	// Formats lists output formats by extension, in source order. The
	// source image's own format is not added implicitly.
	Formats []string
	// Widths are the target widths in pixels.
	Widths []int
	// OutputDir receives the variant files.
	OutputDir string
	// URLPrefix is prepended to variant file names in the markup.
	URLPrefix string
	Quality   int
	Sizes     string
}

func (o VariantOptions) withDefaults() VariantOptions {
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	formats := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		f = strings.ToLower(strings.TrimPrefix(f, "."))
		if f == "jpg" {
			f = "jpeg"
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	o.Formats = formats

	if len(o.Widths) == 0 {
		o.Widths = DefaultWidths
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Sizes == "" {
		o.Sizes = DefaultSizes
	}
	o.URLPrefix = strings.TrimRight(o.URLPrefix, "/")
	return o
}

// TargetWidths returns the widths to render for a source of the given width:
// configured widths above the source are dropped and the source width itself
// is always included. The result is ascending and free of duplicates.
func TargetWidths(source int, widths []int) []int {
	if source <= 0 {
		return nil
	}
	out := []int{source}
	for _, w := range widths {
		if w > 0 && w < source && !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	slices.Sort(out)
	return out
}

// encodeFunc writes one variant of the source image to dst.
type encodeFunc func(dst, format string, width int) error

func renderVariants(ctx context.Context, src string, dims Dimensions, opts VariantOptions, encode encodeFunc) (string, error) {
	widths := TargetWidths(dims.Width, opts.Widths)
	if len(widths) == 0 || dims.Height <= 0 {
		logging.Warn("Image %s has degenerate dimensions %dx%d, no variants rendered", filepath.Base(src), dims.Width, dims.Height)
		return "", nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create variant dir: %w", err)
	}

	key, err := variantKey(src)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<picture>")

	var fallback string
	for _, format := range opts.Formats {
		candidates := make([]string, 0, len(widths))
		for _, w := range widths {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			name := fmt.Sprintf("%s-%d.%s", key, w, format)
			dst := filepath.Join(opts.OutputDir, name)
			if _, err := os.Stat(dst); err == nil {
				logging.Debug("Variant cache hit: %s", name)
			} else if err := encode(dst, format, w); err != nil {
				return "", fmt.Errorf("render %s at %dpx: %w", format, w, err)
			}

			u := opts.URLPrefix + "/" + name
			candidates = append(candidates, fmt.Sprintf("%s %dw", u, w))
			fallback = u
		}

		fmt.Fprintf(&b, `<source type="image/%s" srcset="%s" sizes="%s">`,
			format, html.EscapeString(strings.Join(candidates, ", ")), html.EscapeString(opts.Sizes))
	}

	largest := widths[len(widths)-1]
	height := dims.Height * largest / dims.Width
	fmt.Fprintf(&b, `<img alt="" src="%s" width="%d" height="%d" loading="lazy" decoding="async">`,
		html.EscapeString(fallback), largest, height)
	b.WriteString("</picture>")

	return b.String(), nil
}

// variantKey names the variants of one source. It changes when the source
// file is replaced, so stale variants are not reused.
func variantKey(src string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d:%d", filepath.Base(src), info.Size(), info.ModTime().UnixNano())))
	return fmt.Sprintf("%s-%x", stem, sum[:4]), nil
}

var srcsetPattern = regexp.MustCompile(`srcset="([^"]*)"`)

// ExtractVariants collects the srcset attributes of a rendered fragment,
// keyed by the file extension of each attribute's first candidate URL.
func ExtractVariants(markup string) map[string]string {
	variants := make(map[string]string)
	for _, m := range srcsetPattern.FindAllStringSubmatch(markup, -1) {
		value := html.UnescapeString(m[1])
		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}
		ext := strings.TrimPrefix(path.Ext(fields[0]), ".")
		if ext == "" {
			continue
		}
		variants[ext] = value
	}
	return variants
}

// ImagingRenderer renders variants in pure Go with disintegration/imaging.
// It can write jpeg and png; webp needs VipsRenderer.
type ImagingRenderer struct {
	opts VariantOptions
}

// NewImagingRenderer creates a pure Go renderer.
func NewImagingRenderer(opts VariantOptions) *ImagingRenderer {
	return &ImagingRenderer{opts: opts.withDefaults()}
}

var imagingFormats = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
}

// Render writes the missing variants of file and returns the picture markup.
func (r *ImagingRenderer) Render(ctx context.Context, file string) (string, error) {
	for _, f := range r.opts.Formats {
		if _, ok := imagingFormats[f]; !ok {
			return "", fmt.Errorf("imaging renderer: %w: %s", ErrUnsupportedFormat, f)
		}
	}

	dims, err := GetImageDimensions(file)
	if err != nil {
		return "", err
	}

	var src image.Image
	return renderVariants(ctx, file, dims, r.opts, func(dst, format string, width int) error {
		if src == nil {
			img, err := LoadImageConstrained(file, MaxImageDimension, MaxImagePixels)
			if err != nil {
				return err
			}
			src = img
		}

		var buf bytes.Buffer
		resized := imaging.Resize(src, width, 0, imaging.Lanczos)
		if err := imaging.Encode(&buf, resized, imagingFormats[format], imaging.JPEGQuality(r.opts.Quality)); err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
		return writeFileAtomic(dst, buf.Bytes())
	})
}

func writeFileAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".variant-*")
	if err != nil {
		return fmt.Errorf("create temp variant: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write variant: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close variant: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename variant: %w", err)
	}
	return nil
}
