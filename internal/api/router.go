package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/almadigital/pauta/internal/calendarservice"
	"github.com/almadigital/pauta/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, receives change notifications and is mounted at
// GET /events inside the auth group.
func NewRouter(svc *calendarservice.Service, authEnabled bool, token string, events *sse.Broker) chi.Router {
	h := NewHandler(svc, events)
	mh := NewMediaHandler(svc, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Calendar state.
	r.Get("/calendar", h.GetCalendar)
	r.Post("/calendar/start", h.SetStart)
	r.Post("/calendar/reset", h.Reset)
	r.Patch("/calendar/days/{day}", h.SetField)

	// Attachments.
	r.Post("/calendar/days/{day}/media", mh.Upload)
	r.Get("/calendar/days/{day}/media", mh.List)
	r.Delete("/calendar/days/{day}/media/{id}", mh.Detach)
	r.Get("/media/{id}", mh.Serve)

	// Portable document.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// Blob-store visibility.
	r.Get("/orphans", h.Orphans)

	// SSE endpoint (protected by same auth middleware).
	if events != nil {
		r.Get("/events", http.HandlerFunc(events.ServeHTTP))
	}

	return r
}
