package http

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
	"fintrack/internal/labels"
)

// dateLayout is the HTML date input format.
const dateLayout = "2006-01-02"

// Form field names, shared by the templates, JSON bodies and error maps.
const (
	fieldAmount      = "amount"
	fieldCurrency    = "currency"
	fieldCategory    = "category"
	fieldDescription = "description"
	fieldType        = "type"
	fieldDate        = "date"
)

var formFields = []string{fieldAmount, fieldCurrency, fieldCategory, fieldDescription, fieldType, fieldDate}

// TransactionForm is the add/edit transaction form as submitted.
type TransactionForm struct {
	Amount      string `json:"amount" validate:"required,amount"`
	Currency    string `json:"currency" validate:"required,iso4217"`
	Category    string `json:"category" validate:"required,max=64"`
	Description string `json:"description" validate:"required,max=200"`
	Type        string `json:"type" validate:"required,oneof=income expense"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseAmount(fl.Field().String())
		return err == nil
	})
	return v
}

// defaultForm is a blank form for a new transaction.
func defaultForm(currency string, now time.Time) TransactionForm {
	return TransactionForm{
		Currency: currency,
		Category: "food",
		Type:     string(core.Expense),
		Date:     now.Format(dateLayout),
	}
}

// formFor pre-fills the edit form.
func formFor(tx core.Transaction, loc *time.Location) TransactionForm {
	return TransactionForm{
		Amount:      tx.Amount.String(),
		Currency:    tx.Currency,
		Category:    tx.Category,
		Description: tx.Description,
		Type:        string(tx.Type),
		Date:        tx.Date.In(loc).Format(dateLayout),
	}
}

// readForm fills a form from the body; only the fields present are set.
func readForm(p *RequestBodyParser) (TransactionForm, []string) {
	var f TransactionForm
	var present []string
	set := map[string]*string{
		fieldAmount:      &f.Amount,
		fieldCurrency:    &f.Currency,
		fieldCategory:    &f.Category,
		fieldDescription: &f.Description,
		fieldType:        &f.Type,
		fieldDate:        &f.Date,
	}
	for _, name := range formFields {
		if p.Has(name) {
			*set[name] = p.Get(name)
			present = append(present, name)
		}
	}
	f.Currency = core.NormalizeCurrency(f.Currency)
	return f, present
}

// Validate checks every field and reports one message per failing field.
func (f TransactionForm) Validate(t *labels.Translator) FieldErrors {
	return fieldErrors(validate.Struct(f), t)
}

// ValidatePartial reports failures of the named fields only, for partial
// updates.
func (f TransactionForm) ValidatePartial(t *labels.Translator, fields ...string) FieldErrors {
	all := f.Validate(t)
	out := make(FieldErrors)
	for _, name := range fields {
		if msg, ok := all[name]; ok {
			out[name] = msg
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func fieldErrors(err error, t *labels.Translator) FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fieldMessage(fe, t)
	}
	return out
}

func fieldMessage(fe validator.FieldError, t *labels.Translator) string {
	switch fe.Tag() {
	case "required":
		return t.Text("required")
	case "amount":
		return t.Text("invalidAmount")
	case "iso4217":
		return t.Text("invalidCurrency")
	case "datetime":
		return t.Text("invalidDate")
	case "oneof":
		return t.Text("invalidType", "Choose income or expense")
	case "max":
		return t.Text("tooLong", "This value is too long")
	default:
		return t.Text("invalidValue", "Invalid value")
	}
}

// Transaction converts a validated form. A date equal to today keeps the
// current time of day so same-day entries sort by insertion; other dates
// are local midnight.
func (f TransactionForm) Transaction(now time.Time, loc *time.Location) (core.Transaction, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := f.date(now, loc)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Amount:      amount,
		Currency:    f.Currency,
		Category:    f.Category,
		Description: f.Description,
		Type:        core.TxType(f.Type),
		Date:        date,
	}, nil
}

func (f TransactionForm) date(now time.Time, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, f.Date, loc)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	if now = now.In(loc); d.Format(dateLayout) == now.Format(dateLayout) {
		return now, nil
	}
	return d, nil
}

// Patch converts the named, validated fields into an update of a stored
// transaction dated current. The form only carries a calendar day, so the
// stored time of day is kept: an unchanged day leaves the date alone and a
// new day keeps the old clock time.
func (f TransactionForm) Patch(fields []string, current time.Time, loc *time.Location) (core.TransactionPatch, error) {
	var p core.TransactionPatch
	for _, name := range fields {
		switch name {
		case fieldAmount:
			a, err := core.ParseAmount(f.Amount)
			if err != nil {
				return p, err
			}
			p.Amount = &a
		case fieldCurrency:
			p.Currency = &f.Currency
		case fieldCategory:
			p.Category = &f.Category
		case fieldDescription:
			p.Description = &f.Description
		case fieldType:
			typ := core.TxType(f.Type)
			p.Type = &typ
		case fieldDate:
			day, err := time.ParseInLocation(dateLayout, f.Date, loc)
			if err != nil {
				return p, core.ErrInvalidDate
			}
			old := current.In(loc)
			if day.Format(dateLayout) == old.Format(dateLayout) {
				continue
			}
			d := time.Date(day.Year(), day.Month(), day.Day(),
				old.Hour(), old.Minute(), old.Second(), old.Nanosecond(), loc)
			p.Date = &d
		}
	}
	return p, nil
}
