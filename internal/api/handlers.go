package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/changsongyang/markerd/internal/apperr"
	"github.com/changsongyang/markerd/internal/markerservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *markerservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *markerservice.Service) *Handler {
	return &Handler{svc: svc}
}

// State handles GET /api/markers/state.
//
//	@Summary		Get the client-facing marker state
//	@Tags			markers
//	@Produce		json
//	@Success		200	{object}	StateView
//	@Security		BearerAuth
//	@Router			/markers/state [get]
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State(r.Context()))
}

// TabClosed handles POST /api/markers/tab-closed.
//
//	@Summary		Discard every marker set (markers tab closed)
//	@Tags			markers
//	@Success		204	"State cleared"
//	@Security		BearerAuth
//	@Router			/markers/tab-closed [post]
func (h *Handler) TabClosed(w http.ResponseWriter, r *http.Request) {
	h.svc.TabClosed(r.Context())
	noContent(w)
}

// SetActive handles PUT /api/markers/active.
//
//	@Summary		Select the active marker set by name
//	@Tags			markers
//	@Accept			json
//	@Param			body	body	SetActiveRequest	true	"Set to activate"
//	@Success		204		"Selection updated (unknown names are a tolerated no-op)"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/markers/active [put]
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	if !h.svc.SetActive(r.Context(), req.Name) {
		// Stale names from the client are expected; the mutation is a no-op.
		slog.Debug("markers: set-active ignored unknown name", slog.String("name", req.Name))
	}
	noContent(w)
}

// ClearActive handles DELETE /api/markers/active.
//
//	@Summary		Remove the active set, falling back to the previous one
//	@Tags			markers
//	@Success		204	"Active set removed"
//	@Security		BearerAuth
//	@Router			/markers/active [delete]
func (h *Handler) ClearActive(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearActive(r.Context())
	noContent(w)
}

// Publish handles POST /api/markers/sets.
//
//	@Summary		Publish a complete marker set and make it active
//	@Tags			markers
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PublishSetRequest	true	"Set to publish"
//	@Success		201		{object}	SetView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/markers/sets [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req PublishSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.Publish(r.Context(), req.toSet()); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	view, err := h.svc.Get(r.Context(), req.Name)
	if err != nil {
		// The set was replaced or cleared between publish and read-back.
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ListSets handles GET /api/markers/sets.
//
//	@Summary		List marker set names and the active selection
//	@Tags			markers
//	@Produce		json
//	@Success		200	{object}	SetListResponse
//	@Security		BearerAuth
//	@Router			/markers/sets [get]
func (h *Handler) ListSets(w http.ResponseWriter, r *http.Request) {
	names, active := h.svc.Names(r.Context())
	writeJSON(w, http.StatusOK, SetListResponse{
		Names:  nonNil(names),
		Active: active,
	})
}

// GetSet handles GET /api/markers/sets/{name}.
//
//	@Summary		Get one marker set in client form
//	@Tags			markers
//	@Produce		json
//	@Param			name	path		string	true	"Set name"
//	@Success		200		{object}	SetView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/markers/sets/{name} [get]
func (h *Handler) GetSet(w http.ResponseWriter, r *http.Request) {
	name := setName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	view, err := h.svc.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get set failed", slog.String("name", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Search handles GET /api/markers/search.
//
//	@Summary		Full-text search across the session's markers
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/markers/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

// ErrorList handles GET /api/markers/errors.
//
//	@Summary		List markers promoted to the error-list view
//	@Tags			search
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	ErrorListResponse
//	@Security		BearerAuth
//	@Router			/markers/errors [get]
func (h *Handler) ErrorList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	markers, err := h.svc.ErrorList(r.Context(), limit)
	if err != nil {
		slog.Error("error list failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ErrorListResponse{Markers: nonNil(markers)})
}

// Summary handles GET /api/markers/summary.
//
//	@Summary		Count markers by kind
//	@Tags			search
//	@Produce		json
//	@Param			set	query		string	false	"Restrict to one set"
//	@Success		200	{object}	SummaryResponse
//	@Security		BearerAuth
//	@Router			/markers/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	set := r.URL.Query().Get("set")
	totals, err := h.svc.Totals(r.Context(), set)
	if err != nil {
		slog.Error("summary failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Set: set, Totals: totals})
}

// setName extracts the set name path parameter, tolerating encoded names
// (e.g. R%20CMD%20check).
func setName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
