package facets

import (
	"reflect"
	"testing"

	"memewall/internal/glossary"
	"memewall/internal/records"
)

func meme(memeTypes, people, languages, countries, templateTypes []string) records.Meme {
	var m records.Meme
	m.MemeTypes = memeTypes
	m.People = people
	m.Languages = languages
	m.Countries = countries
	m.TemplateTypes = templateTypes
	return m
}

func values(fs []Facet) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Value
	}
	return out
}

func countOf(fs []Facet, value string) int {
	for _, f := range fs {
		if f.Value == value {
			return f.Count
		}
	}
	return -1
}

func TestAggregateCountsRecordsNotTokens(t *testing.T) {
	memes := []records.Meme{
		meme([]string{"Cat", "Dog", "Cat"}, nil, nil, nil, nil),
		meme([]string{"Cat"}, nil, nil, nil, nil),
		meme([]string{}, nil, nil, nil, nil),
	}

	set := Aggregate(memes, Hierarchies{})

	if got := values(set.MemeTypes); !reflect.DeepEqual(got, []string{"Cat", "Dog"}) {
		t.Errorf("memeTypes = %v, want [Cat Dog]", got)
	}
	if got := countOf(set.MemeTypes, "Cat"); got != 2 {
		t.Errorf("count(Cat) = %d, want 2", got)
	}
	if got := countOf(set.MemeTypes, "Dog"); got != 1 {
		t.Errorf("count(Dog) = %d, want 1", got)
	}
}

func TestAggregateCountInvariant(t *testing.T) {
	memes := []records.Meme{
		meme(nil, []string{"Putin", "Zelensky"}, []string{"English"}, []string{"Ukraine"}, nil),
		meme(nil, []string{"Zelensky"}, []string{"Ukrainian", "English"}, []string{"Ukraine", "Poland"}, nil),
		meme(nil, []string{"Biden", ""}, []string{}, []string{"USA"}, nil),
	}

	set := Aggregate(memes, Hierarchies{})

	for _, c := range Categories {
		for _, f := range set.Get(c) {
			want := 0
			for _, m := range memes {
				for _, v := range c.Values(m) {
					if v == f.Value {
						want++
						break
					}
				}
			}
			if f.Count != want {
				t.Errorf("%s: count(%q) = %d, want %d", c, f.Value, f.Count, want)
			}
			if f.Value == "" {
				t.Errorf("%s: empty value aggregated", c)
			}
		}
	}

	if got := values(set.People); !reflect.DeepEqual(got, []string{"Biden", "Putin", "Zelensky"}) {
		t.Errorf("people = %v", got)
	}
	// Ungrouped categories sort by plain value order, so "USA" precedes
	// "Ukraine".
	if got := values(set.Countries); !reflect.DeepEqual(got, []string{"Poland", "USA", "Ukraine"}) {
		t.Errorf("countries = %v", got)
	}
}

func TestAggregateGroups(t *testing.T) {
	h := Hierarchies{
		MemeTypes: glossary.Hierarchy{Groups: []glossary.Group{
			{Name: "Military", Members: []string{"Tractor", "Javelin"}},
			{Name: "Culture", Members: []string{"Javelin", "Folk"}},
		}},
		TemplateTypes: glossary.Hierarchy{Groups: []glossary.Group{
			{Name: "Classic", Members: []string{"Drake"}},
		}},
	}
	memes := []records.Meme{
		meme([]string{"Tractor", "Javelin", "Unknown"}, nil, nil, nil, []string{"Drake", "Other"}),
		meme([]string{"Folk"}, nil, nil, nil, []string{"Other", "Distracted boyfriend"}),
	}

	set := Aggregate(memes, h)

	wantGroups := map[string]string{
		"Tractor": "Military",
		"Javelin": "Military",
		"Folk":    "Culture",
		"Unknown": glossary.OtherGroup,
	}
	for _, f := range set.MemeTypes {
		if f.Group != wantGroups[f.Value] {
			t.Errorf("group(%q) = %q, want %q", f.Value, f.Group, wantGroups[f.Value])
		}
	}

	if got := values(set.TemplateTypes); !reflect.DeepEqual(got, []string{"Distracted boyfriend", "Drake"}) {
		t.Errorf("templateTypes = %v, want Other excluded", got)
	}
	if set.TemplateTypes[0].Group != glossary.OtherGroup || set.TemplateTypes[1].Group != "Classic" {
		t.Errorf("templateTypes groups = %+v", set.TemplateTypes)
	}

	for _, f := range set.People {
		if f.Group != "" {
			t.Errorf("people facet %q has group %q", f.Value, f.Group)
		}
	}

	wantOrders := map[string][]string{
		"memeTypes":     {"Military", "Culture"},
		"templateTypes": {"Classic"},
	}
	if !reflect.DeepEqual(set.GroupOrders, wantOrders) {
		t.Errorf("GroupOrders = %v, want %v", set.GroupOrders, wantOrders)
	}
}

func TestAggregateSortStripsLeadingQuote(t *testing.T) {
	memes := []records.Meme{
		meme([]string{"Zebra", "“Bravo”", "'Charlie'", "alpha", "\"Delta\""}, nil, nil, nil, nil),
	}

	set := Aggregate(memes, Hierarchies{})

	want := []string{"alpha", "“Bravo”", "'Charlie'", "\"Delta\"", "Zebra"}
	if got := values(set.MemeTypes); !reflect.DeepEqual(got, want) {
		t.Errorf("memeTypes = %v, want %v", got, want)
	}
}

func TestAggregateEmpty(t *testing.T) {
	set := Aggregate(nil, Hierarchies{})
	for _, c := range Categories {
		fs := set.Get(c)
		if fs == nil || len(fs) != 0 {
			t.Errorf("%s = %#v, want empty non-nil slice", c, fs)
		}
	}
	if len(set.GroupOrders["memeTypes"]) != 0 {
		t.Errorf("GroupOrders = %v", set.GroupOrders)
	}
}

func TestSortKey(t *testing.T) {
	tests := []struct {
		in    string
		strip bool
		want  string
	}{
		{`"Quoted"`, true, `Quoted"`},
		{"“Curly”", true, "Curly”"},
		{"'single'", true, "single'"},
		{"‘single’", true, "single’"},
		{`""double`, true, `"double`},
		{`"Quoted"`, false, `"Quoted"`},
		{"plain", true, "plain"},
	}

	for _, tt := range tests {
		if got := SortKey(tt.in, tt.strip); got != tt.want {
			t.Errorf("SortKey(%q, %v) = %q, want %q", tt.in, tt.strip, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(string(c))
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, ok)
		}
	}
	if _, ok := ParseCategory("memes"); ok {
		t.Error("ParseCategory(memes) should fail")
	}
}
