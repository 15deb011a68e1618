// Package models defines the domain types for Pauta.
package models

import "strings"

// Enum values for DayEntry select fields. Slice order matters: the first
// element of each set is the default for a freshly generated entry, and the
// order matches what the grid renderer shows.
var (
	Weekdays = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

	Pillars = []string{
		"Educación",
		"Entretenimiento",
		"Promocional o Venta",
		"Posicionamiento de marca",
		"Interacción",
		"Noticias o Novedades",
	}

	DocTypes = []string{"Imagen", "Vídeo", "Carrusel", "Stories", "Otro"}

	Statuses = []string{"En proceso", "Trabajando", "Publicado"}

	Networks = []string{"Instagram", "TikTok", "LinkedIn", "Pinterest", "Facebook", "Web / Blog"}
)

// Status values referenced by name.
const (
	StatusInProcess = "En proceso"
	StatusWorking   = "Trabajando"
	StatusPublished = "Publicado"
)

// CalendarState is the root state tree: a two-week editorial plan.
// Start is the canonical Monday the plan is anchored to, and Days holds
// exactly 14 entries in chronological order (Days[i].Date == Start + i days).
type CalendarState struct {
	Start string     `json:"start"`
	Days  []DayEntry `json:"days"`
}

// PlanLength is the number of entries in a calendar (two full weeks).
const PlanLength = 14

// Day returns the entry with the given id, or nil when no entry matches.
func (s *CalendarState) Day(id string) *DayEntry {
	for i := range s.Days {
		if s.Days[i].ID == id {
			return &s.Days[i]
		}
	}
	return nil
}

// MediaIDs returns every blob id referenced anywhere in the tree.
func (s *CalendarState) MediaIDs() map[string]struct{} {
	out := make(map[string]struct{})
	for i := range s.Days {
		for _, m := range s.Days[i].Media {
			out[m.ID] = struct{}{}
		}
	}
	return out
}

// DayEntry is one day's full planning record. ID and Date carry the same
// canonical date string; both are kept so the persisted document stays
// compatible with existing exports.
type DayEntry struct {
	ID   string `json:"id"`
	Date string `json:"date"`

	Programar bool   `json:"programar"`
	Estado    string `json:"estado"`
	Pilar     string `json:"pilar"`

	Contenido string `json:"contenido"`
	Proyecto  string `json:"proyecto"`
	Documento string `json:"documento"`

	Media []MediaRef `json:"media"`

	Copy     string `json:"copy"`
	CTA      string `json:"cta"`
	Hashtags string `json:"hashtags"`
	Red      string `json:"red"`
	Hora     string `json:"hora"`

	Alcance     string `json:"alcance"`
	Interaccion string `json:"interaccion"`
	Notas       string `json:"notas"`
}

// MediaRef points at a blob in the blob store. It carries no bytes; the id
// is a soft foreign key and the target blob may no longer exist.
type MediaRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// MediaBlob is a blob-store record: the full encoded payload of one
// uploaded file. DataURL is a self-describing data: URI (MIME-tagged,
// base64 body).
type MediaBlob struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	DataURL string `json:"dataUrl"`
}

// StatusClass maps an estado value to its badge category.
func StatusClass(estado string) string {
	switch estado {
	case StatusPublished:
		return "published"
	case StatusWorking:
		return "working"
	default:
		return "process"
	}
}

// PilarClass derives the CSS class name used to colour a pillar select.
func PilarClass(pilar string) string {
	return "pilar-" + strings.Join(strings.Fields(pilar), "-")
}
