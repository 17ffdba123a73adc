// Package view derives what the history and entry pages show from the raw
// transaction list: filtering, sorting, pagination and aggregates. Every
// function here is pure; "now" and the viewer's location come in through
// the criteria.
package view

import (
	"slices"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Filter values meaning "no restriction".
const All = "all"

type DateRange string

const (
	RangeAll        DateRange = "all"
	RangeThisMonth  DateRange = "this-month"
	RangeLast30Days DateRange = "last-30-days"
	RangeCustom     DateRange = "custom"
)

type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// customDateLayout is the layout of the custom range bounds (HTML date inputs).
const customDateLayout = "2006-01-02"

// Criteria selects the transactions shown in the history view.
type Criteria struct {
	Type        string // "all", "income" or "expense"
	Category    string // "all" or a category id
	Search      string
	Range       DateRange
	CustomStart string // YYYY-MM-DD
	CustomEnd   string // YYYY-MM-DD
	Now         time.Time
	Location    *time.Location
}

// Sort is a single sort key and direction.
type Sort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortByDate, Order: Desc}

// Normalize replaces unknown or empty values with their defaults and clamps
// a custom end that precedes the custom start to the start.
func (c Criteria) Normalize() Criteria {
	switch core.TxType(c.Type) {
	case core.Income, core.Expense:
	default:
		c.Type = All
	}
	if strings.TrimSpace(c.Category) == "" {
		c.Category = All
	}
	switch c.Range {
	case RangeAll, RangeThisMonth, RangeLast30Days, RangeCustom:
	default:
		c.Range = RangeAll
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.CustomStart != "" && c.CustomEnd != "" {
		start, errS := time.ParseInLocation(customDateLayout, c.CustomStart, c.Location)
		end, errE := time.ParseInLocation(customDateLayout, c.CustomEnd, c.Location)
		if errS == nil && errE == nil && end.Before(start) {
			c.CustomEnd = c.CustomStart
		}
	}
	return c
}

// Active reports whether any filter narrows the list. The custom bounds
// alone do not count, mirroring the "clear filters" control.
func (c Criteria) Active() bool {
	c = c.Normalize()
	return c.Search != "" || c.Type != All || c.Category != All || c.Range != RangeAll
}

// Normalize replaces unknown sort values with DefaultSort's.
func (s Sort) Normalize() Sort {
	if s.Field != SortByDate && s.Field != SortByAmount {
		s.Field = DefaultSort.Field
	}
	if s.Order != Asc && s.Order != Desc {
		s.Order = DefaultSort.Order
	}
	return s
}

// Toggle returns the sort after the user clicks the header of field: the same
// field flips direction, a new field starts descending.
func (s Sort) Toggle(field SortField) Sort {
	s = s.Normalize()
	if s.Field == field {
		if s.Order == Asc {
			return Sort{Field: field, Order: Desc}
		}
		return Sort{Field: field, Order: Asc}
	}
	return Sort{Field: field, Order: Desc}
}

// FilterAndSort returns the transactions matching every predicate of c, in
// the order given by s. The input slice is never modified.
func FilterAndSort(txs []core.Transaction, c Criteria, s Sort) []core.Transaction {
	c = c.Normalize()
	s = s.Normalize()

	out := make([]core.Transaction, 0, len(txs))
	needle := strings.ToLower(c.Search)
	start, end, bounded := c.interval()
	for _, tx := range txs {
		if c.Type != All && string(tx.Type) != c.Type {
			continue
		}
		if c.Category != All && tx.Category != c.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Category), needle) {
			continue
		}
		if bounded && (tx.Date.Before(start) || tx.Date.After(end)) {
			continue
		}
		out = append(out, tx)
	}

	factor := 1
	if s.Order == Desc {
		factor = -1
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if s.Field == SortByAmount {
			return a.Amount.Cmp(b.Amount) * factor
		}
		return a.Date.Compare(b.Date) * factor
	})
	return out
}

// interval returns the inclusive date bounds of the range; bounded is false
// when no date filter applies.
func (c Criteria) interval() (start, end time.Time, bounded bool) {
	now := c.Now.In(c.Location)
	switch c.Range {
	case RangeThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.Location)
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), true
	case RangeLast30Days:
		return startOfDay(now.AddDate(0, 0, -30)), endOfDay(now), true
	case RangeCustom:
		if c.CustomStart == "" || c.CustomEnd == "" {
			return time.Time{}, time.Time{}, false
		}
		s, err := time.ParseInLocation(customDateLayout, c.CustomStart, c.Location)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		e, err := time.ParseInLocation(customDateLayout, c.CustomEnd, c.Location)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return startOfDay(s), endOfDay(e), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
