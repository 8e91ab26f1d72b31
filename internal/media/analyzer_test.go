package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/gif"
	"path/filepath"
	"strings"
	"testing"
)

type stubRenderer struct {
	markup string
	err    error
	calls  []string
}

func (s *stubRenderer) Render(_ context.Context, path string) (string, error) {
	s.calls = append(s.calls, path)
	return s.markup, s.err
}

func TestAnalyze(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "meme.jpg")
	createTestImage(t, path, 600, 300, "jpeg")

	r := &stubRenderer{markup: `<picture><source srcset="/img/m-320.webp 320w, /img/m-600.webp 600w"><img src="/img/m-600.webp"></picture>`}
	a := NewAnalyzer(r, false)

	got, err := a.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if got.AspectRatio != 2 {
		t.Errorf("AspectRatio = %v, want 2", got.AspectRatio)
	}
	if got.Variants["webp"] != "/img/m-320.webp 320w, /img/m-600.webp 600w" {
		t.Errorf("Variants = %v", got.Variants)
	}
	if got.Thumbnail != "" {
		t.Errorf("Thumbnail = %q, want empty when legacy mode is off", got.Thumbnail)
	}
	if len(r.calls) != 1 || r.calls[0] != path {
		t.Errorf("renderer calls = %v", r.calls)
	}
}

func TestAnalyzeLegacyThumbnail(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "meme.png")
	createTestImage(t, path, 90, 60, "png")

	a := NewAnalyzer(&stubRenderer{}, true)
	got, err := a.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if len(got.Variants) != 0 {
		t.Errorf("Variants = %v, want none from empty markup", got.Variants)
	}
	if !strings.HasPrefix(got.Thumbnail, "data:image/gif;base64,") {
		t.Fatalf("Thumbnail = %q", got.Thumbnail)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "meme.png")
	createTestImage(t, path, 10, 10, "png")

	renderErr := errors.New("renderer exploded")
	a := NewAnalyzer(&stubRenderer{err: renderErr}, false)
	if _, err := a.Analyze(context.Background(), path); !errors.Is(err, renderErr) {
		t.Errorf("Analyze error = %v, want wrapped renderer error", err)
	}

	a = NewAnalyzer(&stubRenderer{}, false)
	if _, err := a.Analyze(context.Background(), filepath.Join(tmpDir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestThumbnail3x3(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "meme.jpg")
	createTestImage(t, path, 300, 200, "jpeg")

	uri, err := Thumbnail3x3(path)
	if err != nil {
		t.Fatalf("Thumbnail3x3 error: %v", err)
	}

	const prefix = "data:image/gif;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri = %q, want %s prefix", uri, prefix)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid gif: %v", err)
	}
	if cfg.Width != ThumbnailSize || cfg.Height != ThumbnailSize {
		t.Errorf("thumbnail = %dx%d, want %dx%d", cfg.Width, cfg.Height, ThumbnailSize, ThumbnailSize)
	}
}

func TestThumbnail3x3Error(t *testing.T) {
	if _, err := Thumbnail3x3(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}
