package facets

import (
	"sort"
	"strings"

	"memewall/internal/glossary"
	"memewall/internal/records"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Category names a filterable record field. The string values match the keys
// of the exported dataset.
type Category string

const (
	// CategoryMemeTypes is the meme content type field.
	CategoryMemeTypes Category = "memeTypes"
	// CategoryPeople is the people/individuals field.
	CategoryPeople Category = "people"
	// CategoryLanguages is the language field.
	CategoryLanguages Category = "languages"
	// CategoryCountries is the country field.
	CategoryCountries Category = "countries"
	// CategoryTemplateTypes is the meme template type field.
	CategoryTemplateTypes Category = "templateTypes"
)

// Categories lists every category in dataset order.
var Categories = []Category{
	CategoryMemeTypes,
	CategoryPeople,
	CategoryLanguages,
	CategoryCountries,
	CategoryTemplateTypes,
}

// ParseCategory returns the category with the given name.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Values returns the record field backing a category.
func (c Category) Values(m records.Meme) []string {
	switch c {
	case CategoryMemeTypes:
		return m.MemeTypes
	case CategoryPeople:
		return m.People
	case CategoryLanguages:
		return m.Languages
	case CategoryCountries:
		return m.Countries
	case CategoryTemplateTypes:
		return m.TemplateTypes
	default:
		return nil
	}
}

// Grouped reports whether the category carries hierarchy groups.
func (c Category) Grouped() bool {
	return c == CategoryMemeTypes || c == CategoryTemplateTypes
}

// Facet is one distinct value of a category.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Group string `json:"group,omitempty"`
}

// Hierarchies supplies the hierarchy for the grouped categories.
type Hierarchies struct {
	MemeTypes     glossary.Hierarchy
	TemplateTypes glossary.Hierarchy
}

// Set is the aggregation result for one pipeline run.
type Set struct {
	MemeTypes     []Facet             `json:"memeTypes"`
	People        []Facet             `json:"people"`
	Languages     []Facet             `json:"languages"`
	Countries     []Facet             `json:"countries"`
	TemplateTypes []Facet             `json:"templateTypes"`
	GroupOrders   map[string][]string `json:"groupOrders"`
}

// Get returns the facets of one category.
func (s Set) Get(c Category) []Facet {
	switch c {
	case CategoryMemeTypes:
		return s.MemeTypes
	case CategoryPeople:
		return s.People
	case CategoryLanguages:
		return s.Languages
	case CategoryCountries:
		return s.Countries
	case CategoryTemplateTypes:
		return s.TemplateTypes
	default:
		return nil
	}
}

// Aggregate computes every category's facets from the final meme set.
func Aggregate(memes []records.Meme, h Hierarchies) Set {
	return Set{
		MemeTypes:     aggregate(memes, CategoryMemeTypes, &h.MemeTypes, nil),
		People:        aggregate(memes, CategoryPeople, nil, nil),
		Languages:     aggregate(memes, CategoryLanguages, nil, nil),
		Countries:     aggregate(memes, CategoryCountries, nil, nil),
		TemplateTypes: aggregate(memes, CategoryTemplateTypes, &h.TemplateTypes, map[string]bool{glossary.OtherGroup: true}),
		GroupOrders: map[string][]string{
			string(CategoryMemeTypes):     h.MemeTypes.Order(),
			string(CategoryTemplateTypes): h.TemplateTypes.Order(),
		},
	}
}

func aggregate(memes []records.Meme, c Category, h *glossary.Hierarchy, exclude map[string]bool) []Facet {
	counts := make(map[string]int)
	var order []string

	for _, m := range memes {
		seen := make(map[string]bool)
		for _, v := range c.Values(m) {
			if v == "" || exclude[v] || seen[v] {
				continue
			}
			seen[v] = true
			if _, ok := counts[v]; !ok {
				order = append(order, v)
			}
			counts[v]++
		}
	}

	out := make([]Facet, 0, len(order))
	for _, v := range order {
		f := Facet{Value: v, Count: counts[v]}
		if h != nil {
			f.Group = h.GroupOf(v)
		}
		out = append(out, f)
	}

	sortFacets(out, c.Grouped())
	return out
}

// leadingQuotes are ignored at the start of a value when sorting grouped
// categories, so quoted titles sort with their first word.
var leadingQuotes = []string{`"`, "“", "'", "‘"}

// SortKey returns the string a facet value is compared by.
func SortKey(value string, stripQuotes bool) string {
	if !stripQuotes {
		return value
	}
	for _, q := range leadingQuotes {
		if strings.HasPrefix(value, q) {
			return strings.TrimPrefix(value, q)
		}
	}
	return value
}

// sortFacets orders grouped categories with an English collator over their
// quote-stripped keys. Other categories keep plain value order.
func sortFacets(fs []Facet, grouped bool) {
	if !grouped {
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Value < fs[j].Value })
		return
	}

	col := collate.New(language.English)
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := SortKey(fs[i].Value, true), SortKey(fs[j].Value, true)
		if c := col.CompareString(a, b); c != 0 {
			return c < 0
		}
		return fs[i].Value < fs[j].Value
	})
}
