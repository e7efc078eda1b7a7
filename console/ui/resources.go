package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/constants"
	reqctx "airline-ops/airops/internal/context"
	"airline-ops/airops/internal/crud"
	"airline-ops/airops/internal/notify"
	"airline-ops/airops/internal/session"
)

// tokenField carries the session token of the modal that posted a form.
const tokenField = "_token"

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// RowsHandler renders the table body of a resource. On failure the previous
// rows stay on screen.
func (h *UIHandler) RowsHandler(w http.ResponseWriter, r *http.Request) {
	d, ok := h.definition(w, r, chi.URLParam(r, "type"))
	if !ok {
		return
	}

	view, err := h.ctrl.List(r.Context(), d.Type)
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgLoadFailed, strings.ToLower(d.Plural), apiclient.Message(err)))
		return
	}
	_ = h.renderer.RenderFragment(w, "rows", view)
}

// NewHandler opens the create modal.
func (h *UIHandler) NewHandler(w http.ResponseWriter, r *http.Request) {
	d, ok := h.definition(w, r, chi.URLParam(r, "type"))
	if !ok {
		return
	}

	form, err := h.ctrl.OpenCreate(r.Context(), reqctx.GetClientID(r.Context()), d.Type)
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgFormLoadFailed, strings.ToLower(d.Singular), apiclient.Message(err)))
		return
	}
	_ = h.renderer.RenderFragment(w, "form", form)
}

// EditHandler opens the edit modal pre-filled with the record.
func (h *UIHandler) EditHandler(w http.ResponseWriter, r *http.Request) {
	d, ok := h.definition(w, r, chi.URLParam(r, "type"))
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form, err := h.ctrl.OpenEdit(r.Context(), reqctx.GetClientID(r.Context()), d.Type, id)
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgFormLoadFailed, strings.ToLower(d.Singular), apiclient.Message(err)))
		return
	}
	_ = h.renderer.RenderFragment(w, "form", form)
}

// SubmitHandler validates and saves the modal's form. Validation and API
// failures keep the modal open with its inputs.
func (h *UIHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	d, ok := h.definition(w, r, chi.URLParam(r, "type"))
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	sess, err := h.ctrl.Resolve(r.Context(), reqctx.GetClientID(r.Context()), r.PostForm.Get(tokenField))
	if err == nil && sess.Resource != d.Type {
		err = session.ErrStale
	}
	if err != nil {
		h.expired(w, r, err)
		return
	}

	out, err := h.ctrl.Submit(r.Context(), sess, r.PostForm)
	if err != nil {
		var verr *crud.ValidationError
		switch {
		case errors.Is(err, session.ErrStale):
			h.expired(w, r, err)
		case errors.As(err, &verr):
			h.fail(w, r, err, fmt.Sprintf(constants.MsgValidationFailed, verr.Error()))
		default:
			h.fail(w, r, err, fmt.Sprintf(constants.MsgSaveFailed, strings.ToLower(d.Singular), apiclient.Message(err)))
		}
		return
	}
	h.respond(w, out)
}

// ConfirmDeleteHandler shows the delete confirmation dialog.
func (h *UIHandler) ConfirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	d, ok := h.definition(w, r, chi.URLParam(r, "type"))
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	confirm, err := h.ctrl.ConfirmDelete(r.Context(), reqctx.GetClientID(r.Context()), d.Type, id)
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgDeleteFailed, strings.ToLower(d.Singular), apiclient.Message(err)))
		return
	}
	_ = h.renderer.RenderFragment(w, "confirm", confirm)
}

// DeleteHandler carries out the answer to the confirmation dialog. Only
// confirm=yes deletes anything.
func (h *UIHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	d, ok := h.definition(w, r, chi.URLParam(r, "type"))
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	sess, err := h.ctrl.Resolve(r.Context(), reqctx.GetClientID(r.Context()), r.PostForm.Get(tokenField))
	if err == nil && (sess.Resource != d.Type || sess.Mode != session.ModeDelete || sess.TargetID() != id) {
		err = session.ErrStale
	}
	if err != nil {
		h.expired(w, r, err)
		return
	}

	confirmed := r.PostForm.Get("confirm") == "yes"
	out, err := h.ctrl.Delete(r.Context(), sess, confirmed)
	if err != nil {
		if errors.Is(err, session.ErrStale) {
			h.expired(w, r, err)
			return
		}
		h.fail(w, r, err,
			fmt.Sprintf(constants.MsgDeleteFailed, strings.ToLower(d.Singular), apiclient.Message(err)),
			notify.EventCloseModal,
		)
		return
	}
	h.respond(w, out)
}

// ModalHandler re-renders the client's open modal, e.g. after a page reload.
// No open session answers 204 so nothing is swapped in.
func (h *UIHandler) ModalHandler(w http.ResponseWriter, r *http.Request) {
	modal, err := h.ctrl.Reopen(r.Context(), reqctx.GetClientID(r.Context()))
	if errors.Is(err, session.ErrNoSession) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgModalReloadFailed, apiclient.Message(err)), notify.EventCloseModal)
		return
	}

	if modal.Confirm != nil {
		_ = h.renderer.RenderFragment(w, "confirm", modal.Confirm)
		return
	}
	_ = h.renderer.RenderFragment(w, "form", modal.Form)
}

// CloseModalHandler discards the client's open session.
func (h *UIHandler) CloseModalHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Close(r.Context(), reqctx.GetClientID(r.Context())); err != nil {
		h.fail(w, r, err, err.Error(), notify.EventCloseModal)
		return
	}
	notify.NewTrigger().Event(notify.EventCloseModal).Apply(w)
	w.WriteHeader(http.StatusNoContent)
}
