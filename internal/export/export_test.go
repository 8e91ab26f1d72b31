package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memewall/internal/facets"
	"memewall/internal/pipeline"
	"memewall/internal/records"
)

func meme(title string, ratio float64, memeTypes ...string) records.Meme {
	var m records.Meme
	m.Title = title
	m.TextTranslatedIntoEnglish = title + " in English"
	m.Timestamp = time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	m.MemeTypes = memeTypes
	m.Filename = strings.ToLower(title) + ".jpg"
	m.MediaPath = "/media/" + m.Filename
	m.AspectRatio = records.AspectRatio(ratio)
	m.Variants = map[string]string{}
	return m
}

func sampleDataset() *pipeline.Dataset {
	memes := []records.Meme{
		meme("Tractor", 1.5, "Tractor", "Farm"),
		meme("Broken", math.Inf(1)),
	}
	return &pipeline.Dataset{Memes: memes, Set: facets.Aggregate(memes, facets.Hierarchies{})}
}

func TestIndex(t *testing.T) {
	idx := Index(sampleDataset().Memes)
	if len(idx) != 2 {
		t.Fatalf("len = %d, want 2", len(idx))
	}
	if idx[0].Title != "Tractor" || idx[0].MediaPath != "/media/tractor.jpg" || idx[0].MediaAspectRatio != 1.5 {
		t.Errorf("idx[0] = %+v", idx[0])
	}
	if idx[1].MemeTypes == nil {
		t.Error("nil memeTypes should become an empty slice")
	}
}

func TestIndexJSON(t *testing.T) {
	data, err := json.Marshal(Index(sampleDataset().Memes))
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"title":"Tractor","textTranslatedIntoEnglish":"Tractor in English","mediaPath":"/media/tractor.jpg","mediaAspectRatio":1.5,"memeTypes":["Tractor","Farm"]},` +
		`{"title":"Broken","textTranslatedIntoEnglish":"Broken in English","mediaPath":"/media/broken.jpg","mediaAspectRatio":null,"memeTypes":[]}]`
	if string(data) != want {
		t.Errorf("json =\n%s\nwant\n%s", data, want)
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths := PathsIn(dir)

	if err := Write(paths, sampleDataset()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	raw, err := os.ReadFile(paths.Dataset)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "{\n  \"memes\": [") {
		t.Errorf("dataset not indented: %.40q", raw)
	}

	ds, err := ReadDataset(paths.Dataset)
	if err != nil {
		t.Fatalf("ReadDataset error: %v", err)
	}
	if len(ds.Memes) != 2 || ds.Memes[0].Title != "Tractor" {
		t.Errorf("memes = %+v", ds.Memes)
	}
	if !math.IsNaN(float64(ds.Memes[1].AspectRatio)) {
		t.Errorf("null ratio decoded as %v, want NaN", ds.Memes[1].AspectRatio)
	}
	if len(ds.MemeTypes) != 2 {
		t.Errorf("memeTypes facets = %+v", ds.MemeTypes)
	}

	idx, err := os.ReadFile(paths.Index)
	if err != nil {
		t.Fatal(err)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(idx, &entries); err != nil {
		t.Fatalf("index decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("index entries = %d", len(entries))
	}

	// No temp files are left behind.
	files, _ := os.ReadDir(dir)
	if len(files) != 2 {
		var names []string
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Errorf("output dir = %v", names)
	}
}

func TestWriteSkipsEmptyIndexPath(t *testing.T) {
	dir := t.TempDir()
	if err := Write(Paths{Dataset: filepath.Join(dir, "d.json")}, sampleDataset()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexFile)); !os.IsNotExist(err) {
		t.Errorf("index written without a path: %v", err)
	}
}

func TestWriteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(path, map[string]int{"a": 1}, false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{\"a\":1}\n" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	if err := WriteJSON(path, math.Inf(1), false); err == nil {
		t.Fatal("expected marshal error for +Inf")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed write left a file")
	}
}

func TestWriteIndexFailureKeepsPreviousDataset(t *testing.T) {
	dir := t.TempDir()
	p := PathsIn(dir)
	if err := os.WriteFile(p.Dataset, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A regular file where the index directory should be.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	p.Index = filepath.Join(blocker, IndexFile)

	if err := Write(p, sampleDataset()); err == nil {
		t.Fatal("expected index error")
	}

	data, err := os.ReadFile(p.Dataset)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous" {
		t.Errorf("dataset replaced despite failed index: %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteNilDataset(t *testing.T) {
	if err := Write(PathsIn(t.TempDir()), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadDatasetErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadDataset(filepath.Join(dir, "missing.json")); !os.IsNotExist(err) {
		t.Errorf("missing file error = %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := ReadDataset(bad); err == nil {
		t.Error("expected decode error")
	}

	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(empty, []byte("{}"), 0o644)
	ds, err := ReadDataset(empty)
	if err != nil || ds.Memes == nil {
		t.Errorf("empty dataset = %+v, %v", ds, err)
	}
}
