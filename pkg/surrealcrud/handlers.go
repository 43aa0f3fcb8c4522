package surrealcrud

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/surrealdb/surrealcrud/pkg/schema"
	"github.com/surrealdb/surrealcrud/pkg/store"
	"github.com/surrealdb/surrealcrud/pkg/view"
)

// mountResource binds the five CRUD routes of v's resource. C and U are the payload
// types accepted by POST and PATCH.
func mountResource[C, U schema.Payload](a *App, router *mux.Router, v *view.View) {
	base := "/" + v.Resource().Path
	item := base + "/{id}"

	router.HandleFunc(base, a.handleList(v)).Methods(http.MethodGet)
	router.HandleFunc(base, handleCreate[C](a, v)).Methods(http.MethodPost)
	router.HandleFunc(item, a.handleGet(v)).Methods(http.MethodGet)
	router.HandleFunc(item, handleUpdate[U](a, v)).Methods(http.MethodPatch)
	router.HandleFunc(item, a.handleDelete(v)).Methods(http.MethodDelete)
}

func (a *App) handleList(v *view.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := v.List(r.Context())
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, records)
	}
}

func handleCreate[C schema.Payload](a *App, v *view.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := schema.Decode[C](r.Body)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		record, err := v.Add(r.Context(), payload.Fields())
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, record)
	}
}

func (a *App) handleGet(v *view.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := v.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, record)
	}
}

func handleUpdate[U schema.Payload](a *App, v *view.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := schema.Decode[U](r.Body)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		record, err := v.Update(r.Context(), mux.Vars(r)["id"], payload.Fields())
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, record)
	}
}

func (a *App) handleDelete(v *view.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			a.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// errorResponse is the body of every error reply. Detail is a string, or the list of
// validation issues for 422.
type errorResponse struct {
	Detail any `json:"detail"`
}

// writeError maps err to a status code and writes the JSON error body.
// Anything unrecognised is logged and reported as a bare 500.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   *view.NotFoundError
		validation *schema.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Detail: notFound.Error()})
	case errors.As(err, &validation):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: validation.Issues})
	case errors.Is(err, store.ErrReadOnly):
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "service is in read-only mode"})
	default:
		hlog.FromRequest(r).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal Server Error"})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (a *App) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
}

func (a *App) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method Not Allowed"})
}
