package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleCreateCategory adds a custom category from its label. Creating an
// existing id is a no-op; htmx callers get the category field back with
// the new category selected.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	body := NewRequestBodyParser(w, r)
	if err := body.Err(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	c, err := core.NewCategory(body.Get("label"))
	if errors.Is(err, core.ErrEmptyLabel) {
		t := s.labels.Translator(s.lang(r))
		ErrorResponse(http.StatusUnprocessableEntity, t.Text("required")).Write(w)
		return
	}
	added, err := s.store.AddCategory(ctx, c)
	if err != nil {
		logger.LogError(ctx, "Failed to add category", err, log.OpCreate, log.NewFields().With(log.FieldCategory, c.ID))
		InternalServerError("Error saving category").Write(w)
		return
	}
	if added {
		logger.InfoContext(ctx, "Category added", log.FieldCategory, c.ID, log.FieldOperation, log.OpCreate)
	}

	switch {
	case body.IsJSON() || wantsJSON(r):
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		NewHTMXResponse().Status(status).JSON(c).Write(w)
	case isHTMX(r):
		ld := s.layout(r)
		form := defaultForm(ld.BaseCurrency, s.now().In(s.loc))
		form.Category = c.ID
		out, err := s.templates.partial(pageIndex, "category-field", s.newFormView(r, ld, form, nil))
		if err != nil {
			s.writeHTML(w, r, http.StatusOK, nil, err)
			return
		}
		NewHTMXResponse().Trigger(EventCategoriesChanged, map[string]string{"id": c.ID}).BodyHTML(out).Write(w)
	default:
		redirectBack(w, r, "/")
	}
}

// handleDeleteCategory removes a category; transactions keep the id.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sanitizeInput(r.PathValue("id"))
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		log.FromContext(ctx).LogError(ctx, "Failed to delete category", err, log.OpDelete,
			log.NewFields().With(log.FieldCategory, id))
		InternalServerError("Error deleting category").Write(w)
		return
	}
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	NewHTMXResponse().Trigger(EventCategoriesChanged, map[string]string{"id": id}).Write(w)
}

// handleSetCurrency changes the base currency and reloads the rates for it.
// A failed rate fetch keeps the previous table and is only logged.
func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	body := NewRequestBodyParser(w, r)
	if err := body.Err(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	code := core.NormalizeCurrency(body.Get("currency"))
	if err := s.store.SetBaseCurrency(ctx, code); err != nil {
		if errors.Is(err, core.ErrInvalidCurrency) {
			t := s.labels.Translator(s.lang(r))
			ErrorResponse(http.StatusUnprocessableEntity, t.Text("invalidCurrency")).Write(w)
			return
		}
		logger.LogError(ctx, "Failed to set base currency", err, log.OpUpdate,
			log.NewFields().With(log.FieldBaseCurrency, code))
		InternalServerError("Error saving currency").Write(w)
		return
	}
	logger.InfoContext(ctx, "Base currency set", log.FieldBaseCurrency, code, log.FieldOperation, log.OpUpdate)
	if s.rates != nil {
		_ = s.rates.Refresh(ctx)
	}

	switch {
	case body.IsJSON() || wantsJSON(r):
		NewHTMXResponse().JSON(map[string]any{"baseCurrency": code, "rates": s.store.Rates()}).Write(w)
	case isHTMX(r):
		NewHTMXResponse().
			Trigger(EventCurrencyChanged, map[string]string{"currency": code}).
			Header("HX-Refresh", "true").
			Write(w)
	default:
		redirectBack(w, r, "/")
	}
}
