package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/changsongyang/markerd/internal/markerservice"
)

// NewRouter creates a chi router with all marker routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *markerservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Client state and the three editor operations.
	r.Get("/markers/state", h.State)
	r.Post("/markers/tab-closed", h.TabClosed)
	r.Put("/markers/active", h.SetActive)
	r.Delete("/markers/active", h.ClearActive)

	// Sets: producer publish plus lookups.
	r.Get("/markers/sets", h.ListSets)
	r.Post("/markers/sets", h.Publish)
	r.Get("/markers/sets/{name}", h.GetSet)

	// Query surface backed by the session index.
	r.Get("/markers/search", h.Search)
	r.Get("/markers/errors", h.ErrorList)
	r.Get("/markers/summary", h.Summary)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
