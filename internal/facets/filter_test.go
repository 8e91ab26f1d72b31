package facets

import (
	"testing"

	"memewall/internal/records"
)

func filterMemes() []records.Meme {
	mk := func(title, text string, memeTypes, people []string) records.Meme {
		var m records.Meme
		m.Title = title
		m.TextTranslatedIntoEnglish = text
		m.MemeTypes = memeTypes
		m.People = people
		return m
	}
	return []records.Meme{
		mk("Tractor pulls tank", "A farmer", []string{"Tractor", "Tank"}, nil),
		mk("Ghost", "Ghost of KYIV", []string{"Hero"}, []string{"Pilot"}),
		mk("Straße", "", []string{"Tank"}, []string{"Putin"}),
	}
}

func titlesOf(memes []records.Meme) []string {
	out := make([]string, len(memes))
	for i, m := range memes {
		out[i] = m.Title
	}
	return out
}

func TestFilter(t *testing.T) {
	memes := filterMemes()

	tests := []struct {
		name   string
		c      Category
		values []string
		want   []string
	}{
		{"any of", CategoryMemeTypes, []string{"Tank", "Hero"}, []string{"Tractor pulls tank", "Ghost", "Straße"}},
		{"single", CategoryMemeTypes, []string{"Tractor"}, []string{"Tractor pulls tank"}},
		{"exact only", CategoryMemeTypes, []string{"tank"}, []string{}},
		{"people", CategoryPeople, []string{"Putin"}, []string{"Straße"}},
		{"no values keeps all", CategoryPeople, nil, []string{"Tractor pulls tank", "Ghost", "Straße"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titlesOf(Filter(memes, tt.c, tt.values))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Filter = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSearch(t *testing.T) {
	memes := filterMemes()

	tests := []struct {
		term string
		want int
	}{
		{"tank", 2},    // title and memeTypes, case-insensitive
		{"kyiv", 1},    // English text
		{"PILOT", 1},   // people
		{"STRASSE", 1}, // full case folding
		{"  ", 3},      // blank keeps all
		{"nothing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := Search(memes, tt.term); len(got) != tt.want {
				t.Errorf("Search(%q) = %v, want %d results", tt.term, titlesOf(got), tt.want)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name string
		want Category
		ok   bool
	}{
		{"memeType", CategoryMemeTypes, true},
		{"person", CategoryPeople, true},
		{"countries", CategoryCountries, true},
		{"templateType", CategoryTemplateTypes, true},
		{"colour", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFilter(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFilter(%q) = %q, %v", tt.name, got, ok)
		}
	}
}
