package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/labels"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

var testNow = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

type fakeRates struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRates) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type fakeCurrencies []string

func (f fakeCurrencies) Currencies(context.Context) []string { return f }

type testEnv struct {
	srv   *Server
	store *store.Store
	rates *fakeRates
	kv    *storage.Memory
	logs  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logs := &bytes.Buffer{}
	logger := log.New(log.Config{Output: logs})
	kv := storage.NewMemory()
	st, err := store.Open(ctx, kv, store.WithClock(func() time.Time { return testNow }), store.WithLogger(logger))
	require.NoError(t, err)
	pref, err := labels.OpenPreference(ctx, kv)
	require.NoError(t, err)

	fr := &fakeRates{}
	srv, err := NewServer(":0", Deps{
		Store:      st,
		Rates:      fr,
		Currencies: fakeCurrencies{"ALL", "EUR", "GBP", "USD"},
		Language:   pref,
		Logger:     logger,
		Location:   time.UTC,
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return &testEnv{srv: srv, store: st, rates: fr, kv: kv, logs: logs}
}

func (e *testEnv) do(method, target string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "192.0.2.10:4321"
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postForm(target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	headers = append(headers, "Content-Type", "application/x-www-form-urlencoded")
	return e.do(http.MethodPost, target, strings.NewReader(form.Encode()), headers...)
}

func (e *testEnv) seed(t *testing.T, n int) []core.Transaction {
	t.Helper()
	var out []core.Transaction
	for i := 1; i <= n; i++ {
		typ := core.Expense
		if i%5 == 0 {
			typ = core.Income
		}
		tx, err := e.store.AddTransaction(context.Background(), core.Transaction{
			Amount:      decimal.NewFromInt(int64(i * 10)),
			Currency:    "EUR",
			Category:    "food",
			Description: "item " + string(rune('a'+i-1)),
			Type:        typ,
			Date:        testNow.AddDate(0, 0, -i),
		})
		require.NoError(t, err)
		out = append(out, tx)
	}
	return out
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Master Your Money")
	assert.Contains(t, body, `name="amount"`)
	assert.Contains(t, body, `value="2025-06-10"`, "date defaults to today")
	assert.Contains(t, body, "No transactions yet")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/does/not/exist", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Page not found")

	rr = env.do(http.MethodGet, "/nope", nil, "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rr.Body.String())

	rr = env.do(http.MethodGet, "/transactions/abc/edit", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateTransaction_ValidationReportsEveryField(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/transactions", strings.NewReader(`{}`), "Content-Type", "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var got struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got.Errors, 6)
	for _, field := range formFields {
		assert.Equal(t, "This field is required", got.Errors[field], field)
	}
	assert.Empty(t, env.store.Transactions())
}

func TestCreateTransaction_InlineErrors(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{
		"amount":      {"abc"},
		"currency":    {"EUR"},
		"category":    {"food"},
		"description": {""},
		"type":        {"expense"},
		"date":        {"2025-06-10"},
	}
	rr := env.postForm("/transactions", form, "HX-Request", "true")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="transaction-form"`)
	assert.NotContains(t, body, "<html", "htmx gets the form partial only")
	assert.Contains(t, body, "Enter an amount greater than zero")
	assert.Contains(t, body, "This field is required")
	assert.Contains(t, body, `value="abc"`, "submitted values are kept")
	assert.Empty(t, env.store.Transactions())
}

func TestCreateTransaction_HTMX(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{
		"amount":      {"12,50"},
		"currency":    {"usd"},
		"category":    {"food"},
		"description": {"Lunch"},
		"type":        {"expense"},
		"date":        {"2025-06-10"},
	}
	rr := env.postForm("/transactions", form, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)

	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, EventTransactionCreated)
	assert.Contains(t, trigger, EventFormReset)
	assert.Contains(t, trigger, `"type":"success"`)
	assert.Contains(t, rr.Body.String(), `id="transaction-form"`)

	txs := env.store.Transactions()
	require.Len(t, txs, 1)
	assert.True(t, decimal.RequireFromString("12.5").Equal(txs[0].Amount))
	assert.Equal(t, "USD", txs[0].Currency)
	assert.Equal(t, "Lunch", txs[0].Description)
	assert.True(t, testNow.Equal(txs[0].Date), "today keeps the time of day")
}

func TestCreateTransaction_JSONAndPlainForm(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/transactions",
		strings.NewReader(`{"amount":99.9,"currency":"EUR","category":"salary","description":"Bonus","type":"income","date":"2025-05-01"}`),
		"Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, rr.Code)
	var tx core.Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
	assert.NotZero(t, tx.ID)
	assert.Equal(t, core.Income, tx.Type)
	assert.True(t, decimal.RequireFromString("99.9").Equal(tx.Amount))
	assert.True(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC).Equal(tx.Date))

	rr = env.postForm("/transactions", url.Values{
		"amount": {"5"}, "currency": {"EUR"}, "category": {"food"},
		"description": {"Coffee"}, "type": {"expense"}, "date": {"2025-06-09"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Len(t, env.store.Transactions(), 2)
}

func TestHistory_Pagination(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 10)

	rr := env.do(http.MethodGet, "/transactions?page=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Showing 8 to 10 of 10")
	assert.Contains(t, body, `<a href="/transactions">Previous</a>`, "page 1 link drops the page parameter")

	rr = env.do(http.MethodGet, "/transactions?page=99", nil)
	assert.Contains(t, rr.Body.String(), "Showing 8 to 10 of 10", "out of range pages clamp to the last")

	rr = env.do(http.MethodGet, "/transactions?page=2&type=income", nil, "HX-Request", "true")
	body = rr.Body.String()
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, `id="history-results"`)
	assert.Contains(t, body, "Showing 1 to 2 of 2", "a filter narrowing the list lands on a valid page")
	assert.Contains(t, body, "Clear Filters")
}

func TestHistory_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 10)

	rr := env.do(http.MethodGet, "/api/transactions?sort=amount&order=desc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got historyJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 2, got.TotalPages)
	require.Len(t, got.Transactions, 7)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Transactions[0].Amount))
	// income: 50 + 100, expense: the other eight of 10..100
	assert.True(t, decimal.NewFromInt(150).Equal(got.Summary.TotalIncome))
	assert.True(t, decimal.NewFromInt(400).Equal(got.Summary.TotalExpense))
	assert.True(t, decimal.NewFromInt(-250).Equal(got.Summary.Balance))
	assert.Equal(t, "EUR", got.BaseCurrency)

	rr = env.do(http.MethodGet, "/api/transactions?q=ITEM%20C", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Total)
}

func TestUpdateTransaction(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seed(t, 2)
	id := seeded[0].ID
	target := "/transactions/" + itoa(id)

	rr := env.do(http.MethodGet, target+"/edit", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Edit Transaction")
	assert.Contains(t, rr.Body.String(), `value="10"`)

	rr = env.do(http.MethodPut, target, strings.NewReader(`{"amount":"20"}`), "Content-Type", "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	got, err := env.store.Transaction(id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(got.Amount))
	assert.Equal(t, seeded[0].Description, got.Description, "fields not sent are untouched")
	assert.True(t, seeded[0].Date.Equal(got.Date), "date is untouched")

	// the edit form posts every field, the date only as a day
	form := formFor(got, time.UTC)
	rr = env.postForm(target, url.Values{
		"amount":      {"30"},
		"currency":    {form.Currency},
		"category":    {form.Category},
		"description": {form.Description},
		"type":        {form.Type},
		"date":        {form.Date},
	})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	got, err = env.store.Transaction(id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(got.Amount))
	assert.True(t, seeded[0].Date.Equal(got.Date), "same day keeps the time of day")

	rr = env.postForm(target, url.Values{"date": {"2025-01-15"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	got, err = env.store.Transaction(id)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 15, 15, 0, 0, 0, time.UTC).Equal(got.Date), "new day keeps the stored clock time")

	rr = env.do(http.MethodPut, target, strings.NewReader(`{"amount":"-3"}`), "Content-Type", "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "amount")

	rr = env.postForm(target, url.Values{"description": {"Renamed"}}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/transactions", rr.Header().Get("HX-Redirect"))
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventTransactionUpdated)

	rr = env.do(http.MethodPut, "/transactions/424242", strings.NewReader(`{"amount":"1"}`), "Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodPut, target, strings.NewReader(`{}`), "Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransactionMutationsLogOnce(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/transactions",
		strings.NewReader(`{"amount":"5","currency":"EUR","category":"food","description":"Tea","type":"expense","date":"2025-06-10"}`),
		"Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, rr.Code)
	var tx core.Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
	target := "/transactions/" + itoa(tx.ID)

	rr = env.do(http.MethodPut, target, strings.NewReader(`{"amount":"6"}`), "Content-Type", "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(http.MethodDelete, target, nil, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)

	logs := env.logs.String()
	assert.Equal(t, 1, strings.Count(logs, `msg="Transaction created"`))
	assert.Equal(t, 1, strings.Count(logs, `msg="Transaction updated"`))
	assert.Equal(t, 1, strings.Count(logs, `msg="Transaction deleted"`))
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seed(t, 3)
	target := "/transactions/" + itoa(seeded[1].ID)

	rr := env.do(http.MethodDelete, target, nil, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventTransactionDeleted)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "Transaction deleted")
	assert.Len(t, env.store.Transactions(), 2)

	rr = env.do(http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	before := len(env.store.Categories())

	rr := env.postForm("/categories", url.Values{"label": {"Pet  Care"}}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<option value="pet-care" selected>Pet  Care</option>`)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventCategoriesChanged)
	assert.Len(t, env.store.Categories(), before+1)

	rr = env.postForm("/categories", url.Values{"label": {"pet care"}}, "Accept", "application/json")
	assert.Equal(t, http.StatusOK, rr.Code, "existing id is not created again")
	assert.Len(t, env.store.Categories(), before+1)

	rr = env.postForm("/categories", url.Values{"label": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(http.MethodDelete, "/categories/pet-care", nil, "HX-Request", "true")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, env.store.Categories(), before)
}

func TestSetCurrency(t *testing.T) {
	env := newTestEnv(t)

	rr := env.postForm("/currency", url.Values{"currency": {"usd"}}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("HX-Refresh"))
	assert.Equal(t, "USD", env.store.BaseCurrency())
	assert.Equal(t, 1, env.rates.calls)

	env.rates.err = errors.New("upstream down")
	rr = env.postForm("/currency", url.Values{"currency": {"GBP"}}, "Accept", "application/json")
	assert.Equal(t, http.StatusOK, rr.Code, "a failed rate refresh does not fail the request")
	assert.Equal(t, "GBP", env.store.BaseCurrency())

	rr = env.postForm("/currency", url.Values{"currency": {"pounds"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "GBP", env.store.BaseCurrency())
}

func TestLanguageSelection(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/", nil, "Accept-Language", "sq-AL,sq;q=0.9")
	assert.Contains(t, rr.Body.String(), "Shto Transaksion", "Accept-Language when nothing is stored")

	rr = env.do(http.MethodGet, "/?lang=en", nil, "Accept-Language", "sq")
	assert.Contains(t, rr.Body.String(), "Add Transaction")

	rr = env.do(http.MethodGet, "/transactions", nil, "Accept-Language", "sq")
	assert.Contains(t, rr.Body.String(), "Add Transaction", "the ?lang choice is persisted")

	raw, err := env.kv.Get(context.Background(), labels.LanguageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"language":"en"},"version":0}`, string(raw))
}

func TestRateLimitOnlyMutations(t *testing.T) {
	env := newTestEnv(t)
	for range 70 {
		env.do(http.MethodGet, "/healthz", nil)
	}
	rr := env.postForm("/categories", url.Values{"label": {"x"}})
	assert.NotEqual(t, http.StatusTooManyRequests, rr.Code)

	for range 60 {
		env.postForm("/categories", url.Values{"label": {"x"}})
	}
	rr = env.postForm("/categories", url.Values{"label": {"x"}})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestNewServer_RequiresStore(t *testing.T) {
	_, err := NewServer(":0", Deps{})
	assert.Error(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
