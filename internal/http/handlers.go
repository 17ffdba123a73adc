package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/labels"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/view"
)

type formView struct {
	layoutData
	Form       TransactionForm
	Errors     FieldErrors
	Currencies []string
	Action     string
	Editing    bool
}

type indexView struct {
	layoutData
	Entry      formView
	Recent     []core.Transaction
	SpentToday decimal.Decimal
	LiveRates  []view.LiveRate
}

type historyView struct {
	layoutData
	view.History
	Query       HistoryQuery
	Ranges      []view.DateRange
	Types       []string
	MaxCategory decimal.Decimal
	MaxMonth    decimal.Decimal
}

// ClearURL drops every filter but keeps the sort.
func (h historyView) ClearURL() string {
	return HistoryQuery{Sort: h.Query.Sort, Page: 1}.URL()
}

// lang resolves the request language. A failure to persist a ?lang choice
// is logged; the request still uses the chosen language.
func (s *Server) lang(r *http.Request) labels.Lang {
	query, accept := r.URL.Query().Get("lang"), r.Header.Get("Accept-Language")
	if s.language == nil {
		if lang, ok := labels.ParseLang(query); ok {
			return lang
		}
		return labels.Negotiate(accept)
	}
	lang, err := s.language.Resolve(r.Context(), query, accept)
	if err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Persisting language preference failed", err, log.OpPersist,
			log.NewFields().With(log.FieldLanguage, lang))
	}
	return lang
}

func (s *Server) layout(r *http.Request) layoutData {
	lang := s.lang(r)
	q := r.URL.Query()
	q.Del("lang")
	return layoutData{
		T:            s.labels.Translator(lang),
		Lang:         lang,
		Languages:    labels.Languages,
		Path:         r.URL.Path,
		query:        q,
		BaseCurrency: s.store.BaseCurrency(),
		BaseChoices:  rates.BaseChoices,
		Categories:   s.store.Categories(),
		Location:     s.loc,
	}
}

func (s *Server) currencyChoices(r *http.Request) []string {
	if s.currencies == nil {
		return rates.FallbackCurrencies
	}
	return s.currencies.Currencies(r.Context())
}

func (s *Server) newFormView(r *http.Request, ld layoutData, form TransactionForm, errs FieldErrors) formView {
	return formView{
		layoutData: ld,
		Form:       form,
		Errors:     errs,
		Currencies: s.currencyChoices(r),
		Action:     "/transactions",
	}
}

// handleIndex renders the entry view.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ld := s.layout(r)
	txs, rt, base := s.store.View()
	now := s.now().In(s.loc)

	data := indexView{
		layoutData: ld,
		Entry:      s.newFormView(r, ld, defaultForm(base, now), nil),
		Recent:     view.Recent(txs),
		SpentToday: view.SpentToday(txs, rt, base, now),
		LiveRates:  view.LiveRates(rt, base),
	}
	s.renderPage(w, r, http.StatusOK, pageIndex, data)
}

func (s *Server) buildHistory(r *http.Request) (HistoryQuery, view.History) {
	q := ParseHistoryQuery(r.URL.Query(), s.now(), s.loc)
	txs, rt, base := s.store.View()
	h := view.BuildHistory(view.HistoryInput{
		Transactions: txs,
		Rates:        rt,
		Base:         base,
		Criteria:     q.Criteria,
		Sort:         q.Sort,
		Page:         q.Page,
		PageSize:     s.pageSize,
	})
	q.Page = h.Page.Page
	return q, h
}

// handleHistory renders the history view, or just its results block for
// htmx requests.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q, h := s.buildHistory(r)
	data := historyView{
		layoutData: s.layout(r),
		History:    h,
		Query:      q,
		Ranges:     []view.DateRange{view.RangeAll, view.RangeThisMonth, view.RangeLast30Days, view.RangeCustom},
		Types:      []string{view.All, string(core.Income), string(core.Expense)},
		MaxMonth:   trendMax(h.Analytics.Monthly),
	}
	if len(h.Analytics.Categories) > 0 {
		data.MaxCategory = h.Analytics.Categories[0].Value
	}
	if r.Header.Get("HX-Request") != "" {
		s.renderPartial(w, r, http.StatusOK, pageTransactions, "history-results", data)
		return
	}
	s.renderPage(w, r, http.StatusOK, pageTransactions, data)
}

type historyJSON struct {
	Transactions []core.Transaction `json:"transactions"`
	Page         int                `json:"page"`
	PageSize     int                `json:"pageSize"`
	TotalPages   int                `json:"totalPages"`
	Total        int                `json:"total"`
	BaseCurrency string             `json:"baseCurrency"`
	Summary      view.Summary       `json:"summary"`
	Analytics    view.Analytics     `json:"analytics"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}

// handleHistoryJSON serves the history view as JSON.
func (s *Server) handleHistoryJSON(w http.ResponseWriter, r *http.Request) {
	_, h := s.buildHistory(r)
	NewHTMXResponse().JSON(historyJSON{
		Transactions: h.Page.Items,
		Page:         h.Page.Page,
		PageSize:     h.Page.PageSize,
		TotalPages:   h.Page.TotalPages,
		Total:        h.Page.Total,
		BaseCurrency: h.Base,
		Summary:      h.Summary,
		Analytics:    h.Analytics,
		GeneratedAt:  s.now().UTC(),
	}).Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		NewHTMXResponse().Status(http.StatusNotFound).JSON(map[string]string{"error": "not found"}).Write(w)
		return
	}
	s.renderPage(w, r, http.StatusNotFound, pageNotFound, s.layout(r))
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	body, err := s.templates.page(page, data)
	s.writeHTML(w, r, status, body, err)
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, status int, page, block string, data any) {
	body, err := s.templates.partial(page, block, data)
	s.writeHTML(w, r, status, body, err)
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, status int, body []byte, err error) {
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).
			LogError(r.Context(), "Template render failed", err, log.OpRender, nil)
		InternalServerError("Internal Server Error").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(body).Write(w)
}
