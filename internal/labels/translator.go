package labels

// Translator resolves strings for one language against a catalog snapshot.
// Lookups try the catalog, then the built-in defaults for the language,
// then the caller's fallback, then the key itself.
type Translator struct {
	lang    Lang
	catalog Catalog
}

func NewTranslator(lang Lang, catalog Catalog) *Translator {
	if _, ok := ParseLang(string(lang)); !ok {
		lang = DefaultLang
	}
	return &Translator{lang: lang, catalog: catalog}
}

func (t *Translator) Lang() Lang { return t.lang }

// Text looks up a top-level string.
func (t *Translator) Text(key string, fallback ...string) string {
	return t.resolve(key, fallback, func(tb *Table) map[string]string { return tb.Flat })
}

// Category looks up the display name of a category id.
func (t *Translator) Category(id string, fallback ...string) string {
	return t.resolve(id, fallback, func(tb *Table) map[string]string { return tb.Categories })
}

// Filter looks up the display name of a filter option.
func (t *Translator) Filter(key string, fallback ...string) string {
	return t.resolve(key, fallback, func(tb *Table) map[string]string { return tb.Filters })
}

func (t *Translator) resolve(key string, fallback []string, pick func(*Table) map[string]string) string {
	for _, c := range []Catalog{t.catalog, defaults} {
		if tb := c.table(t.lang); tb != nil {
			if v := pick(tb)[key]; v != "" {
				return v
			}
		}
	}
	for _, f := range fallback {
		if f != "" {
			return f
		}
	}
	return key
}
