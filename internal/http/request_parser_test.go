package http

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/view"
)

func TestParseHistoryQuery(t *testing.T) {
	q := url.Values{
		"q":        {"  rent\x00 "},
		"type":     {"income"},
		"category": {"salary"},
		"range":    {"custom"},
		"start":    {"2025-01-01"},
		"end":      {"2025-02-01"},
		"sort":     {"amount"},
		"order":    {"asc"},
		"page":     {"3"},
	}
	h := ParseHistoryQuery(q, testNow, time.UTC)
	assert.Equal(t, "  rent ", h.Criteria.Search, "control characters dropped, spaces kept")
	assert.Equal(t, "income", h.Criteria.Type)
	assert.Equal(t, view.RangeCustom, h.Criteria.Range)
	assert.Equal(t, view.Sort{Field: view.SortByAmount, Order: view.Asc}, h.Sort)
	assert.Equal(t, 3, h.Page)
	assert.Equal(t, q.Get("start"), h.Values().Get("start"))
}

func TestParseHistoryQuery_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"garbage", "type=both&range=forever&sort=name&order=up&page=zero"},
		{"negative page", "page=-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			h := ParseHistoryQuery(q, testNow, time.UTC)
			assert.Equal(t, view.All, h.Criteria.Type)
			assert.Equal(t, view.RangeAll, h.Criteria.Range)
			assert.Equal(t, view.DefaultSort, h.Sort)
			assert.Equal(t, 1, h.Page)
			assert.Equal(t, "/transactions", h.URL())
		})
	}
}

func TestParseHistoryQuery_SearchKeepsSpaces(t *testing.T) {
	h := ParseHistoryQuery(url.Values{"q": {" "}}, testNow, time.UTC)
	assert.Equal(t, " ", h.Criteria.Search)
	assert.True(t, h.Criteria.Active())
	assert.Equal(t, "/transactions?q=+", h.URL())

	txs := []core.Transaction{
		{ID: 1, Description: "Rent payment", Category: "rent", Type: core.Expense, Date: testNow},
		{ID: 2, Description: "Parental leave", Category: "leave", Type: core.Expense, Date: testNow},
		{ID: 3, Description: "Groceries", Category: "food", Type: core.Expense, Date: testNow},
	}
	h = ParseHistoryQuery(url.Values{"q": {"rent "}}, testNow, time.UTC)
	got := view.FilterAndSort(txs, h.Criteria, h.Sort)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	h = ParseHistoryQuery(url.Values{"q": {" "}}, testNow, time.UTC)
	assert.Len(t, view.FilterAndSort(txs, h.Criteria, h.Sort), 2, "a lone space only matches text containing one")
}

func TestHistoryQuery_Links(t *testing.T) {
	q, _ := url.ParseQuery("q=coffee&type=expense&page=2")
	h := ParseHistoryQuery(q, testNow, time.UTC)

	assert.Equal(t, "/transactions?page=2&q=coffee&type=expense", h.URL())
	assert.Equal(t, "/transactions?page=4&q=coffee&type=expense", h.WithPage(4).URL())
	assert.Equal(t, "/transactions?q=coffee&type=expense", h.WithPage(1).URL())

	// toggling the active field flips the order; any toggle returns to page 1
	assert.Equal(t, "/transactions?order=asc&q=coffee&sort=date&type=expense", h.Toggled(view.SortByDate).URL())
	assert.Equal(t, "/transactions?order=desc&q=coffee&sort=amount&type=expense", h.Toggled(view.SortByAmount).URL())

	// custom bounds are only carried for the custom range
	q, _ = url.ParseQuery("range=this-month&start=2025-01-01")
	assert.Equal(t, "/transactions?range=this-month", ParseHistoryQuery(q, testNow, time.UTC).URL())
}

func TestRequestBodyParser(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader("amount=12.5&description=+Lunch%01+&empty="))
		p := NewRequestBodyParser(httptest.NewRecorder(), r)
		require.NoError(t, p.Err())
		assert.False(t, p.IsJSON())
		assert.Equal(t, "12.5", p.Get("amount"))
		assert.Equal(t, "Lunch", p.Get("description"))
		assert.True(t, p.Has("empty"))
		assert.False(t, p.Has("currency"))
	})

	t.Run("json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount": 0.1, "currency": "eur", "flag": true, "nested": {}}`))
		p := NewRequestBodyParser(httptest.NewRecorder(), r)
		require.NoError(t, p.Err())
		assert.True(t, p.IsJSON())
		assert.Equal(t, "0.1", p.Get("amount"), "numbers keep their literal text")
		assert.Equal(t, "eur", p.Get("currency"))
		assert.Equal(t, "true", p.Get("flag"))
		assert.Equal(t, "", p.Get("nested"))
		assert.True(t, p.Has("nested"))
	})

	t.Run("malformed json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":`))
		p := NewRequestBodyParser(httptest.NewRecorder(), r)
		assert.ErrorContains(t, p.Err(), "decode json body")
	})

	t.Run("too large", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader("description="+strings.Repeat("x", maxBodyBytes)))
		p := NewRequestBodyParser(httptest.NewRecorder(), r)
		assert.ErrorContains(t, p.Err(), "read body")
	})
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.False(t, wantsJSON(r))
	r.Header.Set("Accept", "application/json")
	assert.True(t, wantsJSON(r))
	r.Header.Set("HX-Request", "true")
	assert.False(t, wantsJSON(r))
}
