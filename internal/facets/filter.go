package facets

import (
	"strings"

	"memewall/internal/records"

	"golang.org/x/text/cases"
)

// filterAliases maps the singular filter names used by the wall's controls
// to their categories.
var filterAliases = map[string]Category{
	"memeType":     CategoryMemeTypes,
	"person":       CategoryPeople,
	"language":     CategoryLanguages,
	"country":      CategoryCountries,
	"templateType": CategoryTemplateTypes,
}

// ParseFilter accepts a category name or its singular filter alias.
func ParseFilter(name string) (Category, bool) {
	if c, ok := filterAliases[name]; ok {
		return c, true
	}
	return ParseCategory(name)
}

// Filter returns the memes whose category field contains any of values.
// No values keeps every meme. Matching is exact.
func Filter(memes []records.Meme, c Category, values []string) []records.Meme {
	if len(values) == 0 {
		return memes
	}
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}

	out := make([]records.Meme, 0, len(memes))
	for _, m := range memes {
		for _, v := range c.Values(m) {
			if want[v] {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Search returns the memes whose title, English text or any facet value
// contains term, ignoring case. A blank term keeps every meme.
func Search(memes []records.Meme, term string) []records.Meme {
	term = strings.TrimSpace(term)
	if term == "" {
		return memes
	}
	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]records.Meme, 0, len(memes))
	for _, m := range memes {
		if matches(m, needle, fold) {
			out = append(out, m)
		}
	}
	return out
}

func matches(m records.Meme, needle string, fold cases.Caser) bool {
	if strings.Contains(fold.String(m.Title), needle) ||
		strings.Contains(fold.String(m.TextTranslatedIntoEnglish), needle) {
		return true
	}
	for _, c := range Categories {
		for _, v := range c.Values(m) {
			if strings.Contains(fold.String(v), needle) {
				return true
			}
		}
	}
	return false
}
