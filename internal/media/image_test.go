package media

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage writes a gradient test image to path
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / max(width, 1)),
				G: uint8((y * 255) / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}

	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{"Small JPEG", 100, 100, "jpeg"},
		{"Small PNG", 200, 150, "png"},
		{"Wide image", 1920, 1080, "jpeg"},
		{"Tall image", 1080, 1920, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, filename, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(filename)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if dims.Width != tt.width {
				t.Errorf("Width = %d, want %d", dims.Width, tt.width)
			}
			if dims.Height != tt.height {
				t.Errorf("Height = %d, want %d", dims.Height, tt.height)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	tmpDir := t.TempDir()

	notImage := filepath.Join(tmpDir, "not-image.jpg")
	if err := os.WriteFile(notImage, []byte("This is not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	for name, path := range map[string]string{
		"Nonexistent file":   filepath.Join(tmpDir, "missing.jpg"),
		"Invalid image file": notImage,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := GetImageDimensions(path); err == nil {
				t.Error("Expected error but got none")
			}
		})
	}
}

func TestAspectRatio(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		width, height int
		want          float64
	}{
		{400, 200, 2},
		{200, 400, 0.5},
		{300, 300, 1},
		{640, 480, 640.0 / 480.0},
	}

	for _, tt := range tests {
		path := filepath.Join(tmpDir, "ratio.png")
		createTestImage(t, path, tt.width, tt.height, "png")

		got, err := AspectRatio(path)
		if err != nil {
			t.Fatalf("AspectRatio(%dx%d) error: %v", tt.width, tt.height, err)
		}
		if got != tt.want {
			t.Errorf("AspectRatio(%dx%d) = %v, want %v", tt.width, tt.height, got, tt.want)
		}
	}
}

func TestRatioDegenerate(t *testing.T) {
	if got := (Dimensions{Width: 10, Height: 0}).Ratio(); !math.IsInf(got, 1) {
		t.Errorf("10x0 ratio = %v, want +Inf", got)
	}
	if got := (Dimensions{}).Ratio(); !math.IsNaN(got) {
		t.Errorf("0x0 ratio = %v, want NaN", got)
	}
}

func TestConstrain(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		maxDim, maxPix int
		wantW, wantH   int
	}{
		{"within limits", 800, 600, 1600, 10_000_000, 800, 600},
		{"wide", 3200, 1600, 1600, 10_000_000, 1600, 800},
		{"tall", 1600, 3200, 1600, 10_000_000, 800, 1600},
		{"pixels", 2000, 2000, 5000, 1_000_000, 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := constrain(tt.w, tt.h, tt.maxDim, tt.maxPix)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("constrain = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLoadImageConstrained(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "large.jpg")
	createTestImage(t, path, 2400, 1200, "jpeg")

	img, err := LoadImageConstrained(path, 1200, 10_000_000)
	if err != nil {
		t.Fatalf("LoadImageConstrained failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 600 {
		t.Errorf("bounds = %dx%d, want 1200x600", b.Dx(), b.Dy())
	}
}
