package http

import (
	"errors"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func isHTMX(r *http.Request) bool { return r.Header.Get("HX-Request") != "" }

// redirectBack sends plain form posts back where they came from.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if ref := r.Header.Get("Referer"); ref != "" {
		target = ref
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// invalidForm answers a failed validation: the form again with inline
// messages for htmx and plain posts, the messages alone for JSON callers.
func (s *Server) invalidForm(w http.ResponseWriter, r *http.Request, fv formView, jsonBody bool) {
	if jsonBody || wantsJSON(r) {
		NewHTMXResponse().Status(http.StatusUnprocessableEntity).JSON(map[string]any{"errors": fv.Errors}).Write(w)
		return
	}
	if isHTMX(r) {
		s.renderPartial(w, r, http.StatusUnprocessableEntity, pageIndex, "transaction-form", fv)
		return
	}
	page := pageIndex
	var data any = indexView{layoutData: fv.layoutData, Entry: fv}
	if fv.Editing {
		page, data = pageEdit, fv
	}
	s.renderPage(w, r, http.StatusUnprocessableEntity, page, data)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	body := NewRequestBodyParser(w, r)
	if err := body.Err(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	ld := s.layout(r)
	form, _ := readForm(body)
	if errs := form.Validate(ld.T); len(errs) > 0 {
		s.invalidForm(w, r, s.newFormView(r, ld, form, errs), body.IsJSON())
		return
	}

	now := s.now()
	tx, err := form.Transaction(now, s.loc)
	if err == nil {
		tx, err = s.store.AddTransaction(ctx, tx)
	}
	if err != nil {
		logger.LogError(ctx, "Failed to save transaction", err, log.OpCreate,
			log.NewFields().WithTransaction(0, form.Type, form.Amount, form.Currency, form.Category))
		InternalServerError("Error saving transaction").Write(w)
		return
	}

	switch {
	case body.IsJSON() || wantsJSON(r):
		NewHTMXResponse().Status(http.StatusCreated).JSON(tx).Write(w)
	case isHTMX(r):
		fresh := s.newFormView(r, ld, defaultForm(s.store.BaseCurrency(), now.In(s.loc)), nil)
		out, err := s.templates.partial(pageIndex, "transaction-form", fresh)
		if err != nil {
			s.writeHTML(w, r, http.StatusOK, nil, err)
			return
		}
		NewHTMXResponse().
			TriggerTransaction(EventTransactionCreated, tx.ID).
			TriggerFormReset().
			TriggerNotification(NotificationSuccess, ld.T.Text("save"), tx.Description).
			BodyHTML(out).
			Write(w)
	default:
		redirectBack(w, r, "/")
	}
}

// handleEditTransaction renders the edit page.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	tx, err := s.store.Transaction(id)
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	ld := s.layout(r)
	fv := s.newFormView(r, ld, formFor(tx, s.loc), nil)
	fv.Action, fv.Editing = "/transactions/"+strconv.FormatInt(id, 10), true
	s.renderPage(w, r, http.StatusOK, pageEdit, fv)
}

// handleUpdateTransaction applies the fields present in the body; the edit
// form always sends all of them.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	id, ok := pathID(r)
	if !ok {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	body := NewRequestBodyParser(w, r)
	if err := body.Err(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	ld := s.layout(r)
	form, present := readForm(body)
	if len(present) == 0 {
		BadRequestError("Nothing to update").Write(w)
		return
	}
	if errs := form.ValidatePartial(ld.T, present...); len(errs) > 0 {
		fv := s.newFormView(r, ld, form, errs)
		fv.Action, fv.Editing = "/transactions/"+strconv.FormatInt(id, 10), true
		s.invalidForm(w, r, fv, body.IsJSON())
		return
	}

	var tx core.Transaction
	current, err := s.store.Transaction(id)
	if err == nil {
		var patch core.TransactionPatch
		if patch, err = form.Patch(present, current.Date, s.loc); err == nil {
			tx, err = s.store.UpdateTransaction(ctx, id, patch)
		}
	}
	if errors.Is(err, store.ErrTransactionNotFound) {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	if err != nil {
		logger.LogError(ctx, "Failed to update transaction", err, log.OpUpdate,
			log.NewFields().With(log.FieldTransactionID, id))
		InternalServerError("Error updating transaction").Write(w)
		return
	}

	switch {
	case body.IsJSON() || wantsJSON(r):
		NewHTMXResponse().JSON(tx).Write(w)
	case isHTMX(r):
		NewHTMXResponse().
			TriggerTransaction(EventTransactionUpdated, tx.ID).
			TriggerNotification(NotificationSuccess, ld.T.Text("update"), tx.Description).
			Redirect("/transactions").
			Write(w)
	default:
		http.Redirect(w, r, "/transactions", http.StatusSeeOther)
	}
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	id, ok := pathID(r)
	if !ok {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	err := s.store.DeleteTransaction(ctx, id)
	if errors.Is(err, store.ErrTransactionNotFound) {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	if err != nil {
		logger.LogError(ctx, "Failed to delete transaction", err, log.OpDelete,
			log.NewFields().With(log.FieldTransactionID, id))
		InternalServerError("Error deleting transaction").Write(w)
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	t := s.labels.Translator(s.lang(r))
	NewHTMXResponse().
		TriggerTransaction(EventTransactionDeleted, id).
		TriggerNotification(NotificationSuccess, t.Text("transactionDeleted"), t.Text("deleteSuccessMsg")).
		Write(w)
}
