package view

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// TrendMonths is how many month groups the trend keeps.
	TrendMonths = 6
	// RecentCount is how many transactions the entry view lists.
	RecentCount = 5
)

// LiveRateCurrencies are shown on the entry view, minus the base currency.
var LiveRateCurrencies = []string{"USD", "EUR", "ALL", "GBP"}

// Summary totals a transaction set in the base currency.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
}

// CategoryTotal is one slice of the expenses-by-category chart.
type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// MonthTotal is one bar pair of the income-vs-expense chart.
type MonthTotal struct {
	Name    string          `json:"name"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Analytics bundles both charts.
type Analytics struct {
	Categories []CategoryTotal `json:"categories"`
	Monthly    []MonthTotal    `json:"monthly"`
}

// LiveRate is one row of the live rates panel.
type LiveRate struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Summarize returns income, expense and balance in base currency.
// Balance is exactly TotalIncome - TotalExpense.
func Summarize(txs []core.Transaction, rates core.RateTable, base string) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.ToBase(rates, base))
		case core.Expense:
			expense = expense.Add(tx.ToBase(rates, base))
		}
	}
	return Summary{TotalIncome: income, TotalExpense: expense, Balance: income.Sub(expense)}
}

// CategoryBreakdown groups expenses by category and sorts the groups by
// descending total. Ties keep first-seen order.
func CategoryBreakdown(txs []core.Transaction, rates core.RateTable, base string) []CategoryTotal {
	out := []CategoryTotal{}
	index := map[string]int{}
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		amount := tx.ToBase(rates, base)
		if i, ok := index[tx.Category]; ok {
			out[i].Value = out[i].Value.Add(amount)
			continue
		}
		index[tx.Category] = len(out)
		out = append(out, CategoryTotal{Name: tx.Category, Value: amount})
	}
	slices.SortStableFunc(out, func(a, b CategoryTotal) int {
		return b.Value.Cmp(a.Value)
	})
	return out
}

// MonthlyTrend groups every transaction by abbreviated month name in loc,
// summing income and expense separately. Groups stay in first-seen order
// and only the last TrendMonths groups are kept, so unsorted input gives
// an unsorted window. Months of different years share a group.
func MonthlyTrend(txs []core.Transaction, rates core.RateTable, base string, loc *time.Location) []MonthTotal {
	if loc == nil {
		loc = time.Local
	}
	out := []MonthTotal{}
	index := map[string]int{}
	for _, tx := range txs {
		name := tx.Date.In(loc).Format("Jan")
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, MonthTotal{Name: name, Income: decimal.Zero, Expense: decimal.Zero})
		}
		amount := tx.ToBase(rates, base)
		if tx.Type == core.Income {
			out[i].Income = out[i].Income.Add(amount)
		} else {
			out[i].Expense = out[i].Expense.Add(amount)
		}
	}
	if len(out) > TrendMonths {
		out = out[len(out)-TrendMonths:]
	}
	return out
}

// Analyze computes both charts over the same set.
func Analyze(txs []core.Transaction, rates core.RateTable, base string, loc *time.Location) Analytics {
	return Analytics{
		Categories: CategoryBreakdown(txs, rates, base),
		Monthly:    MonthlyTrend(txs, rates, base, loc),
	}
}

// SpentToday sums, in base currency, the expenses dated on now's calendar day.
func SpentToday(txs []core.Transaction, rates core.RateTable, base string, now time.Time) decimal.Decimal {
	y, m, d := now.Date()
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		ty, tm, td := tx.Date.In(now.Location()).Date()
		if ty == y && tm == m && td == d {
			total = total.Add(tx.ToBase(rates, base))
		}
	}
	return total
}

// Recent returns the first RecentCount transactions in store order.
func Recent(txs []core.Transaction) []core.Transaction {
	if len(txs) > RecentCount {
		txs = txs[:RecentCount]
	}
	return slices.Clone(txs)
}

// LiveRates lists LiveRateCurrencies except base with their table rate,
// zero when the table has none.
func LiveRates(rates core.RateTable, base string) []LiveRate {
	out := make([]LiveRate, 0, len(LiveRateCurrencies))
	for _, code := range LiveRateCurrencies {
		if code == base {
			continue
		}
		rate, ok := rates[code]
		if !ok {
			rate = decimal.Zero
		}
		out = append(out, LiveRate{Currency: code, Rate: rate})
	}
	return out
}
