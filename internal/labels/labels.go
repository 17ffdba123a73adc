// Package labels serves the UI strings in English and Albanian. Strings
// are edited in a headless CMS as flat {key, en, sq, group} records; the
// package classifies them, assembles a per-language catalog and resolves
// lookups against hardcoded defaults when the CMS has nothing.
package labels

import "strings"

type Lang string

const (
	EN Lang = "en"
	SQ Lang = "sq"

	DefaultLang = EN
)

// Languages lists the supported languages in display order.
var Languages = []Lang{EN, SQ}

// ParseLang accepts exactly the supported language codes.
func ParseLang(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case EN:
		return EN, true
	case SQ:
		return SQ, true
	}
	return "", false
}

// Record is one translation document as stored in the CMS.
type Record struct {
	Key   string `json:"key"`
	EN    string `json:"en"`
	SQ    string `json:"sq"`
	Group string `json:"group"`
}

// Text returns the record's value for lang.
func (r Record) Text(lang Lang) string {
	if lang == SQ {
		return r.SQ
	}
	return r.EN
}

const (
	groupCategories = "categories"
	groupFilters    = "filters"
)

// Entry is a classified record: exactly one of Generic, CategoryLabel or
// FilterLabel.
type Entry interface {
	record() Record
}

// Generic is a top-level UI string.
type Generic struct{ Record }

// CategoryLabel names a category id.
type CategoryLabel struct{ Record }

// FilterLabel names a filter option.
type FilterLabel struct{ Record }

func (e Generic) record() Record       { return e.Record }
func (e CategoryLabel) record() Record { return e.Record }
func (e FilterLabel) record() Record   { return e.Record }

// Classify tags a record by its group. Unknown or missing groups are
// Generic.
func Classify(r Record) Entry {
	switch r.Group {
	case groupCategories:
		return CategoryLabel{r}
	case groupFilters:
		return FilterLabel{r}
	default:
		return Generic{r}
	}
}

// Table holds one language's strings.
type Table struct {
	Flat       map[string]string `json:"flat"`
	Categories map[string]string `json:"categories"`
	Filters    map[string]string `json:"filters"`
}

func newTable() *Table {
	return &Table{Flat: map[string]string{}, Categories: map[string]string{}, Filters: map[string]string{}}
}

// Catalog maps each language to its table.
type Catalog map[Lang]*Table

// Assemble classifies every record and files its non-empty values under
// each language. Later records with the same key win.
func Assemble(records []Record) Catalog {
	cat := Catalog{}
	for _, lang := range Languages {
		cat[lang] = newTable()
	}
	for _, r := range records {
		if r.Key == "" {
			continue
		}
		entry := Classify(r)
		for _, lang := range Languages {
			text := entry.record().Text(lang)
			if text == "" {
				continue
			}
			t := cat[lang]
			switch entry.(type) {
			case CategoryLabel:
				t.Categories[r.Key] = text
			case FilterLabel:
				t.Filters[r.Key] = text
			case Generic:
				t.Flat[r.Key] = text
			}
		}
	}
	return cat
}

// Len is the number of strings across all languages.
func (c Catalog) Len() int {
	n := 0
	for _, t := range c {
		n += len(t.Flat) + len(t.Categories) + len(t.Filters)
	}
	return n
}

func (c Catalog) table(lang Lang) *Table {
	if c == nil {
		return nil
	}
	return c[lang]
}
