package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DefaultBaseCurrency is the base currency of a fresh finance snapshot.
const DefaultBaseCurrency = "EUR"

type (
	TxType string

	Transaction struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Type        TxType          `json:"type"`
		Date        time.Time       `json:"date"`
	}

	// TransactionPatch carries the fields of an update; nil fields are left untouched.
	TransactionPatch struct {
		Amount      *decimal.Decimal
		Currency    *string
		Category    *string
		Description *string
		Type        *TxType
		Date        *time.Time
	}

	Category struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyLabel      = errors.New("empty category label")
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// DefaultCategories returns the categories a fresh snapshot starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "food", Label: "Food & Dining"},
		{ID: "salary", Label: "Salary"},
		{ID: "rent", Label: "Rent & Housing"},
		{ID: "transport", Label: "Transport"},
		{ID: "utilities", Label: "Utilities"},
		{ID: "shopping", Label: "Shopping"},
		{ID: "entertainment", Label: "Entertainment"},
	}
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// ValidCurrency reports whether code looks like an ISO-4217 code.
func ValidCurrency(code string) bool {
	return currencyCode.MatchString(code)
}

func (tx Transaction) Validate() error {
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !ValidCurrency(tx.Currency) {
		return ErrInvalidCurrency
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Apply returns a copy of tx with the non-nil patch fields applied. The ID never changes.
func (p TransactionPatch) Apply(tx Transaction) Transaction {
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Currency != nil {
		tx.Currency = *p.Currency
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	return tx
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NewCategory builds a user-created category: the id is the lowercased
// label with whitespace runs replaced by hyphens.
func NewCategory(label string) (Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Category{}, ErrEmptyLabel
	}
	return Category{
		ID:    whitespaceRun.ReplaceAllString(strings.ToLower(label), "-"),
		Label: label,
	}, nil
}
