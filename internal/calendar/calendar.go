// Package calendar generates fresh two-week editorial plans.
package calendar

import (
	"time"

	"github.com/almadigital/pauta/internal/models"
)

// DateLayout is the canonical form for day ids and the plan start key.
const DateLayout = "2006-01-02"

// MondayOf returns the Monday on or before t, truncated to midnight in t's
// location.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// Generate builds a default CalendarState anchored to the Monday on or
// before anchor: 14 consecutive entries with every field at its default.
// Pure function; the caller is responsible for persisting the result.
func Generate(anchor time.Time) *models.CalendarState {
	start := MondayOf(anchor)
	state := &models.CalendarState{
		Start: start.Format(DateLayout),
		Days:  make([]models.DayEntry, 0, models.PlanLength),
	}
	for i := 0; i < models.PlanLength; i++ {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		state.Days = append(state.Days, models.DayEntry{
			ID:        date,
			Date:      date,
			Programar: false,
			Estado:    models.Statuses[0],
			Pilar:     models.Pillars[0],
			Documento: models.DocTypes[0],
			Red:       models.Networks[0],
			Media:     []models.MediaRef{},
		})
	}
	return state
}

// Weekday returns the Spanish weekday name for the entry at index i
// (the grid repeats Monday through Sunday twice).
func Weekday(i int) string {
	return models.Weekdays[((i%7)+7)%7]
}
