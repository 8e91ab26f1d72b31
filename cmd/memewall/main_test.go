package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"memewall/internal/export"
	"memewall/internal/facets"
	"memewall/internal/mediastore"
	"memewall/internal/records"
	"memewall/internal/sheet"
	"memewall/internal/startup"
)

const testCSV = "Timestamp,Title,Text (translated into English),Upload file,Meme content type,People / Individuals,Meme template type,Language,Country\n" +
	"3/15/2022 12:34:56,Tractor,Farmers again,https://drive.google.com/open?id=abc,\"Tractors, Farmers\",Putin,Drake,Ukrainian,Ukraine\n" +
	",,,,,,,,\n"

type cliEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	mediaDir   string
	textfile   string
}

// setupCLIEnv writes a config file pointing every directory into a temp dir
// and mocks the spreadsheet and Drive endpoints.
func setupCLIEnv(t *testing.T, sheetID string) *cliEnv {
	t.Helper()

	for _, key := range []string{
		"LOG_LEVEL", "MEMEWALL_LOG_LEVEL", "MEMEWALL_SHEET_ID", "MEMEWALL_MEDIA_DIR",
		"MEMEWALL_IMAGE_DIR", "MEMEWALL_OUTPUT_DIR", "MEMEWALL_IMAGE_RENDERER",
		"MEMEWALL_IMAGE_FORMATS", "MEMEWALL_IMAGE_WIDTHS", "MEMEWALL_METRICS_TEXTFILE",
	} {
		t.Setenv(key, "")
	}

	base := t.TempDir()
	// os.Chdir plus restore-on-cleanup: the Go 1.21 equivalent of t.Chdir.
	if wd, err := os.Getwd(); err != nil {
		t.Fatal(err)
	} else {
		if err := os.Chdir(base); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	env := &cliEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "public"),
		mediaDir:   filepath.Join(base, "public", "media"),
		textfile:   filepath.Join(base, "metrics", "memewall.prom"),
	}

	cfg := fmt.Sprintf(`[sheet]
id = %q
tab_id = "0"

[media]
dir = %q

[images]
renderer = "imaging"
formats = ["jpeg"]
widths = [20]
dir = %q

[output]
dir = %q
metrics_textfile = %q

[logging]
level = "error"
no_color = true
`, sheetID, env.mediaDir, filepath.Join(base, "public", "img"), env.outputDir, env.textfile)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	return env
}

func (e *cliEnv) mockSources(t *testing.T, sheetStatus int) {
	t.Helper()

	rows := sheet.NewClient(sheet.Config{SheetID: "sheet1", TabID: "0"}, nil)
	httpmock.RegisterResponder("GET", rows.ExportURL(),
		httpmock.NewStringResponder(sheetStatus, testCSV))

	fetcher := mediastore.NewFetcher(mediastore.Config{}, nil)
	httpmock.RegisterResponder("GET", fetcher.DownloadURL("abc"),
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(http.StatusOK, testPNG(t, 40, 20))
			resp.Header.Set("Content-Type", "image/png")
			return resp, nil
		})
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	env := setupCLIEnv(t, "sheet1")
	env.mockSources(t, http.StatusOK)

	if _, err := runCLI(t, "--config", env.configPath, "build"); err != nil {
		t.Fatalf("build: %v", err)
	}

	paths := export.PathsIn(env.outputDir)
	ds, err := export.ReadDataset(paths.Dataset)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if len(ds.Memes) != 1 {
		t.Fatalf("memes = %d, want 1", len(ds.Memes))
	}
	m := ds.Memes[0]
	if m.MediaPath != "/media/abc.png" {
		t.Errorf("MediaPath = %q", m.MediaPath)
	}
	if m.AspectRatio != 2 {
		t.Errorf("AspectRatio = %v, want 2", m.AspectRatio)
	}
	if !strings.Contains(m.Variants["jpeg"], "40w") {
		t.Errorf("jpeg variants = %q", m.Variants["jpeg"])
	}
	if len(ds.Countries) != 1 || ds.Countries[0].Value != "Ukraine" {
		t.Errorf("countries = %+v", ds.Countries)
	}

	var index []export.IndexEntry
	data, err := os.ReadFile(paths.Index)
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if err := json.Unmarshal(data, &index); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(index) != 1 || index[0].Title != "Tractor" {
		t.Errorf("index = %+v", index)
	}

	if _, err := os.Stat(filepath.Join(env.mediaDir, "abc.png")); err != nil {
		t.Errorf("media not stored: %v", err)
	}

	prom, err := os.ReadFile(env.textfile)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(prom), `memewall_pipeline_runs_total{status="success"}`) {
		t.Error("textfile missing successful run counter")
	}
}

func TestBuildCommandFailureWritesNoDataset(t *testing.T) {
	env := setupCLIEnv(t, "sheet1")
	env.mockSources(t, http.StatusInternalServerError)

	if _, err := runCLI(t, "--config", env.configPath, "build"); err == nil {
		t.Fatal("expected build to fail")
	}
	if _, err := os.Stat(export.PathsIn(env.outputDir).Dataset); !os.IsNotExist(err) {
		t.Errorf("dataset written after failed run: %v", err)
	}
	prom, err := os.ReadFile(env.textfile)
	if err != nil {
		t.Fatalf("textfile not written after failed run: %v", err)
	}
	if !strings.Contains(string(prom), `memewall_pipeline_runs_total{status="error"}`) {
		t.Error("textfile missing failed run counter")
	}
}

func TestBuildRequiresSheetID(t *testing.T) {
	env := setupCLIEnv(t, "")

	_, err := runCLI(t, "--config", env.configPath, "build")
	if err == nil || !strings.Contains(err.Error(), "sheet.id") {
		t.Fatalf("err = %v, want sheet.id error", err)
	}
	if n := httpmock.GetTotalCallCount(); n != 0 {
		t.Errorf("made %d requests without a sheet", n)
	}
}

func TestRootPrintsFacetJSON(t *testing.T) {
	env := setupCLIEnv(t, "sheet1")
	env.mockSources(t, http.StatusOK)

	out, err := runCLI(t, "--config", env.configPath, "countries")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got []facets.Facet
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got) != 1 || got[0].Value != "Ukraine" || got[0].Count != 1 {
		t.Errorf("facets = %+v", got)
	}
	if _, err := os.Stat(export.PathsIn(env.outputDir).Dataset); !os.IsNotExist(err) {
		t.Error("printing a facet must not write the dataset")
	}
}

func TestRootPrintsMemesForUnknownArgument(t *testing.T) {
	env := setupCLIEnv(t, "sheet1")
	env.mockSources(t, http.StatusOK)

	for _, args := range [][]string{
		{"--config", env.configPath},
		{"--config", env.configPath, "bogus"},
	} {
		out, err := runCLI(t, args...)
		if err != nil {
			t.Fatalf("run %v: %v", args, err)
		}
		var memes []records.Meme
		if err := json.Unmarshal([]byte(out), &memes); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if len(memes) != 1 || memes[0].DriveID != "abc" {
			t.Errorf("args %v: memes = %+v", args, memes)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "memewall "+startup.Version) {
		t.Errorf("version output = %q", out)
	}

	out, err = runCLI(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var info startup.BuildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info.Version != startup.Version {
		t.Errorf("Version = %q", info.Version)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLIEnv(t, "sheet1")
	if err := os.WriteFile(env.configPath, []byte("[images]\nrenderer = \"gpu\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "--config", env.configPath, "build")
	if err == nil || !strings.Contains(err.Error(), "images.renderer") {
		t.Fatalf("err = %v, want renderer validation error", err)
	}
}

func TestFacetArg(t *testing.T) {
	tests := []struct {
		args   []string
		want   facets.Category
		wantOK bool
	}{
		{nil, "", false},
		{[]string{"memeTypes"}, facets.CategoryMemeTypes, true},
		{[]string{"templateTypes"}, facets.CategoryTemplateTypes, true},
		{[]string{"languages", "extra"}, facets.CategoryLanguages, true},
		{[]string{"memes"}, "", false},
	}

	for _, tt := range tests {
		got, ok := facetArg(tt.args)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("facetArg(%v) = %q, %v; want %q, %v", tt.args, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRenderFacetTable(t *testing.T) {
	values := []facets.Facet{
		{Value: "Drake", Count: 3, Group: "Reaction"},
		{Value: "Wojak", Count: 1, Group: "Other"},
	}

	grouped := renderFacetTable(facets.CategoryTemplateTypes, values)
	for _, want := range []string{"templateTypes", "Group", "Drake", "Reaction", "2 values, 4 tagged memes"} {
		if !strings.Contains(grouped, want) {
			t.Errorf("grouped table missing %q:\n%s", want, grouped)
		}
	}

	plain := renderFacetTable(facets.CategoryCountries, []facets.Facet{{Value: "Ukraine", Count: 2}})
	if strings.Contains(plain, "Group") {
		t.Errorf("ungrouped table has a group column:\n%s", plain)
	}
	if !strings.Contains(plain, "Ukraine") {
		t.Errorf("table missing value:\n%s", plain)
	}
}

func TestServerOptions(t *testing.T) {
	cfg := startup.Default()
	cfg.Media.Dir = "/srv/media"
	cfg.Images.Dir = "/srv/img"
	cfg.Output.Dir = "/srv/public"

	opts := serverOptions(&cfg)
	if opts.DatasetPath != filepath.Join("/srv/public", export.DatasetFile) {
		t.Errorf("DatasetPath = %q", opts.DatasetPath)
	}
	if len(opts.Static) != 2 {
		t.Fatalf("static dirs = %+v, want media and images", opts.Static)
	}
	if opts.Logging.MediaPrefix != "/media/" || !opts.Logging.SkipMediaFiles {
		t.Errorf("logging = %+v", opts.Logging)
	}

	cfg.Images.URLPrefix = "https://cdn.example.com/img"
	opts = serverOptions(&cfg)
	if len(opts.Static) != 1 || opts.Static[0].Dir != "/srv/media" {
		t.Errorf("CDN-hosted images should not be served locally: %+v", opts.Static)
	}
}
