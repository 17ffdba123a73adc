package view

import (
	"fintrack/internal/core"
)

// HistoryInput is everything the history page derives from.
type HistoryInput struct {
	Transactions []core.Transaction
	Rates        core.RateTable
	Base         string
	Criteria     Criteria
	Sort         Sort
	Page         int
	PageSize     int
}

// History is the derived history page: the current page of the filtered,
// sorted list plus summary and analytics over the whole filtered list.
type History struct {
	Criteria  Criteria
	Sort      Sort
	Base      string
	Page      Page[core.Transaction]
	Summary   Summary
	Analytics Analytics
	Active    bool
}

// BuildHistory runs filter/sort, clamps the requested page, paginates and
// aggregates the pre-pagination set.
func BuildHistory(in HistoryInput) History {
	c := in.Criteria.Normalize()
	s := in.Sort.Normalize()
	filtered := FilterAndSort(in.Transactions, c, s)

	size := in.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := (len(filtered) + size - 1) / size
	page := ClampPage(in.Page, totalPages)

	return History{
		Criteria:  c,
		Sort:      s,
		Base:      in.Base,
		Page:      Paginate(filtered, size, page),
		Summary:   Summarize(filtered, in.Rates, in.Base),
		Analytics: Analyze(filtered, in.Rates, in.Base, c.Location),
		Active:    c.Active(),
	}
}
