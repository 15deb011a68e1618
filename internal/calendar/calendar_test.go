package calendar

import (
	"testing"
	"time"

	"github.com/almadigital/pauta/internal/models"
)

func TestMondayOf(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-01", "2024-01-01"}, // already a Monday
		{"2024-01-02", "2024-01-01"},
		{"2024-01-07", "2024-01-01"}, // Sunday snaps back six days
		{"2024-03-15", "2024-03-11"},
	}
	for _, c := range cases {
		in, err := time.Parse(DateLayout, c.in)
		if err != nil {
			t.Fatal(err)
		}
		got := MondayOf(in).Format(DateLayout)
		if got != c.want {
			t.Errorf("MondayOf(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestMondayOfTruncatesTime(t *testing.T) {
	in := time.Date(2024, 1, 3, 17, 42, 9, 0, time.UTC)
	got := MondayOf(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("MondayOf should truncate to midnight, got %v", got)
	}
}

func TestGenerateShape(t *testing.T) {
	anchor, _ := time.Parse(DateLayout, "2024-01-04") // Thursday
	state := Generate(anchor)

	if state.Start != "2024-01-01" {
		t.Errorf("start = %s, want 2024-01-01", state.Start)
	}
	if len(state.Days) != models.PlanLength {
		t.Fatalf("len(days) = %d, want %d", len(state.Days), models.PlanLength)
	}

	start, _ := time.Parse(DateLayout, state.Start)
	for i, d := range state.Days {
		want := start.AddDate(0, 0, i).Format(DateLayout)
		if d.Date != want {
			t.Errorf("days[%d].date = %s, want %s", i, d.Date, want)
		}
		if d.ID != d.Date {
			t.Errorf("days[%d]: id %s != date %s", i, d.ID, d.Date)
		}
	}
}

func TestGenerateDefaults(t *testing.T) {
	state := Generate(time.Now())
	d := state.Days[0]

	if d.Programar {
		t.Error("programar should default to false")
	}
	if d.Estado != "En proceso" {
		t.Errorf("estado = %q", d.Estado)
	}
	if d.Pilar != models.Pillars[0] {
		t.Errorf("pilar = %q", d.Pilar)
	}
	if d.Documento != models.DocTypes[0] {
		t.Errorf("documento = %q", d.Documento)
	}
	if d.Red != models.Networks[0] {
		t.Errorf("red = %q", d.Red)
	}
	if d.Media == nil || len(d.Media) != 0 {
		t.Errorf("media should be empty non-nil, got %#v", d.Media)
	}
	if d.Contenido != "" || d.Copy != "" || d.Hora != "" {
		t.Error("text fields should default empty")
	}
}

func TestWeekdayRepeatsAcrossBothWeeks(t *testing.T) {
	if Weekday(0) != "Lunes" {
		t.Errorf("Weekday(0) = %q", Weekday(0))
	}
	if Weekday(6) != "Domingo" {
		t.Errorf("Weekday(6) = %q", Weekday(6))
	}
	if Weekday(7) != "Lunes" {
		t.Errorf("Weekday(7) = %q", Weekday(7))
	}
	if Weekday(13) != "Domingo" {
		t.Errorf("Weekday(13) = %q", Weekday(13))
	}
}
