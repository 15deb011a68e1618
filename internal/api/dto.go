package api

import (
	"github.com/almadigital/pauta/internal/calendar"
	"github.com/almadigital/pauta/internal/media"
	"github.com/almadigital/pauta/internal/models"
)

// SetFieldRequest is the request body for a single-field day edit.
type SetFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SetStartRequest is the request body for re-anchoring the calendar.
type SetStartRequest struct {
	Start string `json:"start"`
}

// DayView is a DayEntry enriched with what the grid renderer derives from
// it: the weekday label, the badge class for estado, and the colour class
// for pilar.
type DayView struct {
	models.DayEntry
	Weekday     string `json:"weekday"`
	StatusClass string `json:"statusClass"`
	PilarClass  string `json:"pilarClass"`
}

// CalendarResponse is the full calendar payload.
type CalendarResponse struct {
	Start string    `json:"start"`
	Days  []DayView `json:"days"`
}

// MediaItem is one resolved attachment. DataURL is empty and Missing true
// when the reference dangles.
type MediaItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	DataURL string `json:"dataUrl,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

// UploadResponse is returned after a media upload batch.
type UploadResponse struct {
	Attached int               `json:"attached"`
	Media    []models.MediaRef `json:"media"`
}

// OrphansResponse lists unreferenced blob ids.
type OrphansResponse struct {
	Orphans []string `json:"orphans"`
}

func calendarResponse(state *models.CalendarState) CalendarResponse {
	days := make([]DayView, len(state.Days))
	for i, d := range state.Days {
		days[i] = dayView(i, d)
	}
	return CalendarResponse{Start: state.Start, Days: days}
}

func dayView(i int, d models.DayEntry) DayView {
	return DayView{
		DayEntry:    d,
		Weekday:     calendar.Weekday(i),
		StatusClass: models.StatusClass(d.Estado),
		PilarClass:  models.PilarClass(d.Pilar),
	}
}

func mediaItems(resolved []media.Resolved) []MediaItem {
	out := make([]MediaItem, len(resolved))
	for i, r := range resolved {
		item := MediaItem{ID: r.Ref.ID, Name: r.Ref.Name, Type: r.Ref.Type}
		if r.Blob != nil {
			item.DataURL = r.Blob.DataURL
		} else {
			item.Missing = true
		}
		out[i] = item
	}
	return out
}
