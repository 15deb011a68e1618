package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/almadigital/pauta/internal/apperr"
	"github.com/almadigital/pauta/internal/calendarservice"
	"github.com/almadigital/pauta/internal/media"
	"github.com/almadigital/pauta/internal/sse"
)

const maxUploadBytes = 50 << 20 // 50 MB per batch

// MediaHandler serves and accepts day attachments.
type MediaHandler struct {
	svc    *calendarservice.Service
	events *sse.Broker
}

// NewMediaHandler creates a handler for attachment routes.
func NewMediaHandler(svc *calendarservice.Service, events *sse.Broker) *MediaHandler {
	return &MediaHandler{svc: svc, events: events}
}

func (h *MediaHandler) publish(kind, day string) {
	if h.events != nil {
		h.events.PublishDayEvent(kind, day)
	}
}

// Upload handles POST /calendar/days/{day}/media
// (multipart/form-data, repeated field "files").
//
// Files are stored one at a time in form order; a file that fails to store
// (or is not image/* or video/*) is skipped without aborting the rest of the
// batch, and the tree is saved once at the end.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "day")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("batch too large or invalid multipart"))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'files' field in multipart form"))
		return
	}

	files := make([]media.File, 0, len(headers))
	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			slog.Warn("upload: open part failed", slog.String("name", hdr.Filename), slog.String("error", err.Error()))
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Warn("upload: read part failed", slog.String("name", hdr.Filename), slog.String("error", err.Error()))
			continue
		}
		files = append(files, media.File{
			Name: hdr.Filename,
			Type: hdr.Header.Get("Content-Type"),
			Data: data,
		})
	}

	attached, entry, err := h.svc.AttachFiles(r.Context(), dayID, files)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("day not found"))
			return
		}
		slog.Error("upload failed", slog.String("day", dayID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	if attached > 0 {
		h.publish(sse.KindMediaAttached, dayID)
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Attached: attached, Media: entry.Media})
}

// List handles GET /calendar/days/{day}/media: every reference on the day
// paired with its payload. References whose blob is gone come back flagged
// as missing instead of being dropped, so the renderer can skip them.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "day")
	resolved, err := h.svc.ResolveMedia(r.Context(), dayID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("day not found"))
			return
		}
		slog.Error("resolve media failed", slog.String("day", dayID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": mediaItems(resolved)})
}

// Detach handles DELETE /calendar/days/{day}/media/{id}. Idempotent:
// deleting an id that is already gone answers 204 as well.
func (h *MediaHandler) Detach(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "day")
	mediaID := chi.URLParam(r, "id")

	if _, err := h.svc.DetachMedia(r.Context(), dayID, mediaID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("day not found"))
			return
		}
		slog.Error("detach failed", slog.String("day", dayID), slog.String("media", mediaID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish(sse.KindMediaDetached, dayID)
	w.WriteHeader(http.StatusNoContent)
}

// Serve handles GET /media/{id}: the decoded blob bytes with the stored
// MIME type. Unknown ids 404.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	blob, err := h.svc.GetBlob(r.Context(), id)
	if err != nil {
		slog.Error("serve media failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if blob == nil {
		http.NotFound(w, r)
		return
	}
	mimeType, data, err := media.DecodeDataURL(blob.DataURL)
	if err != nil {
		slog.Error("serve media: corrupt payload", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("corrupt media payload"))
		return
	}
	if mimeType == "" {
		mimeType = blob.Type
	}
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
