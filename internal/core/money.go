// Package core holds the finance domain types, amount parsing and the
// currency conversion rule shared by every view.
package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts and rates travel as JSON numbers, matching the stored snapshots.
	decimal.MarshalJSONWithoutQuotes = true
}

// RateTable maps a currency code to its rate against the base currency the
// table was fetched for (units of that currency per one base unit).
type RateTable map[string]decimal.Decimal

// Rate returns the table entry for code. Missing or zero entries fall back
// to 1 so the conversion never divides by zero.
func (r RateTable) Rate(code string) decimal.Decimal {
	if rate, ok := r[code]; ok && !rate.IsZero() {
		return rate
	}
	return decimal.NewFromInt(1)
}

// Codes returns the table's currency codes in ascending order.
func (r RateTable) Codes() []string {
	codes := make([]string, 0, len(r))
	for code := range r {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy of the table.
func (r RateTable) Clone() RateTable {
	if r == nil {
		return nil
	}
	out := make(RateTable, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Convert expresses amount, given in currency from, in the base currency.
//
// The rule is amount / rates[from], with a missing rate treated as 1. The
// division applies even when from equals base; callers only special-case
// that in formatting. Unknown codes are not an error.
func Convert(amount decimal.Decimal, from string, rates RateTable, base string) decimal.Decimal {
	return amount.Div(rates.Rate(from))
}

// ToBase converts the transaction amount into the base currency.
func (tx Transaction) ToBase(rates RateTable, base string) decimal.Decimal {
	return Convert(tx.Amount, tx.Currency, rates, base)
}

// ParseAmount parses a user-entered decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and non-positive values are rejected; the sign of a
// transaction lives in its type.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
