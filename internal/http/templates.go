package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"path"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fintrack/internal/core"
	"fintrack/internal/labels"
	"fintrack/internal/view"
)

// Page templates; each is parsed together with the layout and partials.
const (
	pageIndex        = "index.html"
	pageTransactions = "transactions.html"
	pageEdit         = "edit.html"
	pageNotFound     = "not_found.html"
)

var sharedTemplates = []string{"templates/layout.html", "templates/partials.html"}

// renderer holds one parsed template set per page.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(fsys fs.FS) (*renderer, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, sharedTemplates...)
	if err != nil {
		return nil, fmt.Errorf("parse shared templates: %w", err)
	}
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageIndex, pageTransactions, pageEdit, pageNotFound} {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone templates for %s: %w", name, err)
		}
		if _, err := t.ParseFS(fsys, path.Join("templates", name)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// page renders a whole page through the layout.
func (r *renderer) page(name string, data any) ([]byte, error) {
	return r.execute(name, "layout", data)
}

// partial renders one named block of a page's template set.
func (r *renderer) partial(page, block string, data any) ([]byte, error) {
	return r.execute(page, block, data)
}

func (r *renderer) execute(page, block string, data any) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown template %s", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return nil, fmt.Errorf("render %s/%s: %w", page, block, err)
	}
	return buf.Bytes(), nil
}

var templateFuncs = template.FuncMap{
	"money":    formatMoney,
	"rate":     formatRate,
	"date":     formatDate,
	"percent":  percentOf,
	"trendMax": trendMax,
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"row":      func(v any, tx core.Transaction) rowData { return rowData{View: v, Tx: tx} },
}

// rowData pairs a transaction with the page it is rendered on.
type rowData struct {
	View any
	Tx   core.Transaction
}

// formatMoney groups digits the way lang expects and appends the code.
func formatMoney(lang labels.Lang, amount decimal.Decimal, code string) string {
	p := message.NewPrinter(lang.Tag())
	return p.Sprintf("%v %s", number.Decimal(amount.InexactFloat64(), number.Scale(2)), code)
}

// formatRate shows a rate with four fraction digits, or a dash when unknown.
func formatRate(lang labels.Lang, rate decimal.Decimal) string {
	if rate.IsZero() {
		return "-"
	}
	p := message.NewPrinter(lang.Tag())
	return p.Sprint(number.Decimal(rate.InexactFloat64(), number.Scale(4)))
}

func formatDate(lang labels.Lang, t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	if lang == labels.SQ {
		return t.Format("02.01.2006")
	}
	return t.Format("Jan 02, 2006")
}

// percentOf is v as a percentage of max, for chart bar widths.
func percentOf(v, max decimal.Decimal) string {
	if !max.IsPositive() {
		return "0"
	}
	return v.Div(max).Mul(decimal.NewFromInt(100)).Round(1).String()
}

func trendMax(months []view.MonthTotal) decimal.Decimal {
	m := decimal.Zero
	for _, mt := range months {
		m = decimal.Max(m, mt.Income, mt.Expense)
	}
	return m
}

// layoutData is what every page needs: labels, language switching and the
// header currency selector.
type layoutData struct {
	T            *labels.Translator
	Lang         labels.Lang
	Languages    []labels.Lang
	Path         string
	query        url.Values
	BaseCurrency string
	BaseChoices  []string
	Categories   []core.Category
	Location     *time.Location
}

// LangURL links to the current page in another language.
func (d layoutData) LangURL(lang labels.Lang) string {
	q := url.Values{}
	for k, v := range d.query {
		q[k] = v
	}
	q.Set("lang", string(lang))
	return d.Path + "?" + q.Encode()
}

// CategoryName is the display name of a category id: the translated label,
// then the stored label, then the id itself.
func (d layoutData) CategoryName(id string) string {
	stored := ""
	for _, c := range d.Categories {
		if c.ID == id {
			stored = c.Label
			break
		}
	}
	return d.T.Category(id, stored, id)
}

// TypeName is the translated name of a transaction type.
func (d layoutData) TypeName(t core.TxType) string {
	return d.T.Text(string(t))
}
