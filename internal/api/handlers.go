package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/almadigital/pauta/internal/apperr"
	"github.com/almadigital/pauta/internal/calendar"
	"github.com/almadigital/pauta/internal/calendarservice"
	"github.com/almadigital/pauta/internal/models"
	"github.com/almadigital/pauta/internal/sse"
)

const maxImportBytes = 10 << 20 // 10 MB

// Handler holds calendar route handlers.
type Handler struct {
	svc    *calendarservice.Service
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil when no SSE broker is
// wired (tests).
func NewHandler(svc *calendarservice.Service, events *sse.Broker) *Handler {
	return &Handler{svc: svc, events: events}
}

func (h *Handler) publish(kind, day string) {
	if h.events != nil {
		h.events.PublishDayEvent(kind, day)
	}
}

// GetCalendar handles GET /calendar: the full state tree, each day enriched
// with its derived display attributes.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Current(r.Context())
	if err != nil {
		slog.Error("get calendar failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse(state))
}

// SetField handles PATCH /calendar/days/{day}: a single-field edit followed
// by a whole-tree save. An unknown day id is a no-op and answers 204.
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "day")
	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Field == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("field is required"))
		return
	}

	state, err := h.svc.SetField(r.Context(), dayID, req.Field, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnknownField), errors.Is(err, apperr.ErrInvalidValue):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("set field failed", slog.String("day", dayID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	if singleDayResponse(w, state, dayID) {
		h.publish(sse.KindDayUpdated, dayID)
	}
}

// SetStart handles POST /calendar/start: re-anchors the plan to the Monday
// on or before the given date, fully replacing the state tree. Existing
// entries never carry over; their blobs stay behind, unreferenced.
func (h *Handler) SetStart(w http.ResponseWriter, r *http.Request) {
	var req SetStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	anchor, err := time.Parse(calendar.DateLayout, req.Start)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("invalid start date: %q", req.Start)))
		return
	}

	state, err := h.svc.Regenerate(r.Context(), anchor)
	if err != nil {
		slog.Error("set start failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish(sse.KindReplaced, "")
	writeJSON(w, http.StatusOK, calendarResponse(state))
}

// Reset handles POST /calendar/reset: a fresh default calendar anchored to
// today. The blob store is untouched.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Reset(r.Context())
	if err != nil {
		slog.Error("reset failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish(sse.KindReplaced, "")
	writeJSON(w, http.StatusOK, calendarResponse(state))
}

// Export handles GET /export: the pretty-printed refs-only document as a
// download named after the week start.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, start, err := h.svc.Export(r.Context())
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="calendario-editorial-%s.json"`, start))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// Import handles POST /import: replaces the state tree wholesale with the
// supplied document. On a malformed document the current state stays
// untouched and the error is the caller's to show.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	state, err := h.svc.Import(r.Context(), doc)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidFormat) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid calendar document"))
			return
		}
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish(sse.KindReplaced, "")
	writeJSON(w, http.StatusOK, calendarResponse(state))
}

// Orphans handles GET /orphans: blob ids no longer referenced by any day.
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.svc.Orphans(r.Context())
	if err != nil {
		slog.Error("orphans failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, OrphansResponse{Orphans: orphans})
}

// singleDayResponse writes the enriched view of one day, or 204 when the id
// is not in the tree. Reports whether the day was found.
func singleDayResponse(w http.ResponseWriter, state *models.CalendarState, dayID string) bool {
	for i := range state.Days {
		if state.Days[i].ID == dayID {
			writeJSON(w, http.StatusOK, dayView(i, state.Days[i]))
			return true
		}
	}
	w.WriteHeader(http.StatusNoContent)
	return false
}
