package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/view"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

// HistoryQuery is the state of the history page as carried in its URL.
type HistoryQuery struct {
	Criteria view.Criteria
	Sort     view.Sort
	Page     int
}

// ParseHistoryQuery reads q, type, category, range, start, end, sort,
// order and page. Unknown values normalize to their defaults.
func ParseHistoryQuery(q url.Values, now time.Time, loc *time.Location) HistoryQuery {
	page, err := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	if err != nil || page < 1 {
		page = 1
	}
	c := view.Criteria{
		Type:        strings.TrimSpace(q.Get("type")),
		Category:    sanitizeInput(q.Get("category")),
		Search:      stripControl(q.Get("q")),
		Range:       view.DateRange(strings.TrimSpace(q.Get("range"))),
		CustomStart: strings.TrimSpace(q.Get("start")),
		CustomEnd:   strings.TrimSpace(q.Get("end")),
		Now:         now,
		Location:    loc,
	}
	return HistoryQuery{
		Criteria: c.Normalize(),
		Sort: view.Sort{
			Field: view.SortField(strings.TrimSpace(q.Get("sort"))),
			Order: view.SortOrder(strings.TrimSpace(q.Get("order"))),
		}.Normalize(),
		Page: page,
	}
}

// Values encodes the query back, omitting defaults. Page 1 is omitted too,
// so links built from a changed filter or sort land on the first page.
func (h HistoryQuery) Values() url.Values {
	v := url.Values{}
	c := h.Criteria
	if c.Search != "" {
		v.Set("q", c.Search)
	}
	if c.Type != "" && c.Type != view.All {
		v.Set("type", c.Type)
	}
	if c.Category != "" && c.Category != view.All {
		v.Set("category", c.Category)
	}
	if c.Range != "" && c.Range != view.RangeAll {
		v.Set("range", string(c.Range))
	}
	if c.Range == view.RangeCustom {
		if c.CustomStart != "" {
			v.Set("start", c.CustomStart)
		}
		if c.CustomEnd != "" {
			v.Set("end", c.CustomEnd)
		}
	}
	if h.Sort != view.DefaultSort && h.Sort.Field != "" {
		v.Set("sort", string(h.Sort.Field))
		v.Set("order", string(h.Sort.Order))
	}
	if h.Page > 1 {
		v.Set("page", strconv.Itoa(h.Page))
	}
	return v
}

// URL renders the query as a /transactions link.
func (h HistoryQuery) URL() string {
	if enc := h.Values().Encode(); enc != "" {
		return "/transactions?" + enc
	}
	return "/transactions"
}

// WithPage links to another page of the same view.
func (h HistoryQuery) WithPage(page int) HistoryQuery {
	h.Page = page
	return h
}

// Toggled links to the view sorted by field, back on page 1.
func (h HistoryQuery) Toggled(field view.SortField) HistoryQuery {
	h.Sort = h.Sort.Toggle(field)
	h.Page = 1
	return h
}

// RequestBodyParser reads a JSON or form-encoded body once.
type RequestBodyParser struct {
	jsonData map[string]any
	formData url.Values
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		p.err = fmt.Errorf("read body: %w", err)
		return p
	}
	trimmed := strings.TrimSpace(string(body))
	switch {
	case trimmed == "":
		p.formData = url.Values{}
	case strings.HasPrefix(trimmed, "{"):
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
		}
	default:
		if p.formData, err = url.ParseQuery(trimmed); err != nil {
			p.err = fmt.Errorf("decode form body: %w", err)
		}
	}
	return p
}

func (p *RequestBodyParser) Err() error { return p.err }

// Has reports whether the body carries key at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData.Has(key)
}

// Get returns the sanitized value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	return sanitizeInput(p.formData.Get(key))
}

func (p *RequestBodyParser) IsJSON() bool { return p.jsonData != nil }

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(stripControl(s))
}

// stripControl drops control characters other than tab and newlines.
// Search text goes through it untrimmed: spaces are part of the needle.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// wantsJSON reports whether the caller asked for JSON rather than HTML.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") &&
		r.Header.Get("HX-Request") == ""
}
