// Package calendarservice coordinates the state store, blob store, and
// attachment manager behind every calendar operation.
package calendarservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/almadigital/pauta/internal/apperr"
	"github.com/almadigital/pauta/internal/blobstore"
	"github.com/almadigital/pauta/internal/calendar"
	"github.com/almadigital/pauta/internal/media"
	"github.com/almadigital/pauta/internal/models"
	"github.com/almadigital/pauta/internal/statestore"
)

// Service owns calendar operations. There is no in-memory state tree: every
// operation loads the slot, mutates, and saves, so the stores stay the single
// source of truth. Concurrent operations race as last-write-wins on the final
// save; acceptable for a single-user tool.
type Service struct {
	states *statestore.File
	blobs  blobstore.Store
	attach *media.Manager
	logger *slog.Logger
}

// NewService creates a calendar service.
func NewService(states *statestore.File, blobs blobstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		states: states,
		blobs:  blobs,
		attach: media.NewManager(blobs, logger),
		logger: logger,
	}
}

// Current returns the persisted calendar, generating and saving a fresh
// default plan anchored to now when no prior (or parseable) state exists.
func (s *Service) Current(_ context.Context) (*models.CalendarState, error) {
	state, err := s.states.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = calendar.Generate(time.Now())
		if err := s.states.Save(state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Regenerate discards the current state and persists a fresh default plan
// anchored to the Monday on or before anchor. The blob store is never
// touched: blobs referenced by the old tree become unreferenced garbage.
func (s *Service) Regenerate(_ context.Context, anchor time.Time) (*models.CalendarState, error) {
	state := calendar.Generate(anchor)
	if err := s.states.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Reset regenerates the calendar anchored to today.
func (s *Service) Reset(ctx context.Context) (*models.CalendarState, error) {
	return s.Regenerate(ctx, time.Now())
}

// SetField applies a single-field edit to one day entry and persists the
// whole tree. A missing day id is a silent no-op (the current state is
// returned unchanged). An unknown field key or a value that fails the
// field's constraint is rejected. Every edit is followed by a full-tree
// save, no diffing or batching.
func (s *Service) SetField(ctx context.Context, dayID, field, value string) (*models.CalendarState, error) {
	state, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	entry := state.Day(dayID)
	if entry == nil {
		s.logger.Warn("set field: unknown day", slog.String("day", dayID))
		return state, nil
	}
	if err := applyField(entry, field, value); err != nil {
		return nil, err
	}
	if err := s.states.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}

func applyField(entry *models.DayEntry, field, value string) error {
	switch field {
	case "programar":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: programar: %q", apperr.ErrInvalidValue, value)
		}
		entry.Programar = v
	case "estado":
		if err := inSet(value, models.Statuses); err != nil {
			return err
		}
		entry.Estado = value
	case "pilar":
		if err := inSet(value, models.Pillars); err != nil {
			return err
		}
		entry.Pilar = value
	case "documento":
		if err := inSet(value, models.DocTypes); err != nil {
			return err
		}
		entry.Documento = value
	case "red":
		if err := inSet(value, models.Networks); err != nil {
			return err
		}
		entry.Red = value
	case "hora":
		if err := validation.Validate(value, validation.Date("15:04")); err != nil {
			return fmt.Errorf("%w: hora: %q", apperr.ErrInvalidValue, value)
		}
		entry.Hora = value
	case "contenido":
		entry.Contenido = value
	case "proyecto":
		entry.Proyecto = value
	case "copy":
		entry.Copy = value
	case "cta":
		entry.CTA = value
	case "hashtags":
		entry.Hashtags = value
	case "alcance":
		entry.Alcance = value
	case "interaccion":
		entry.Interaccion = value
	case "notas":
		entry.Notas = value
	default:
		return fmt.Errorf("%w: %q", apperr.ErrUnknownField, field)
	}
	return nil
}

func inSet(value string, set []string) error {
	opts := make([]interface{}, len(set))
	for i, v := range set {
		opts[i] = v
	}
	if err := validation.Validate(value, validation.In(opts...)); err != nil {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidValue, value)
	}
	return nil
}

// AttachFiles uploads files to the given day and persists the tree exactly
// once after the whole batch. Per-file failures are tolerated inside the
// attachment manager; the returned count is the number of references that
// actually landed.
func (s *Service) AttachFiles(ctx context.Context, dayID string, files []media.File) (int, *models.DayEntry, error) {
	state, err := s.Current(ctx)
	if err != nil {
		return 0, nil, err
	}
	entry := state.Day(dayID)
	if entry == nil {
		return 0, nil, apperr.ErrNotFound
	}
	attached := s.attach.Attach(ctx, entry, files)
	if attached > 0 {
		if err := s.states.Save(state); err != nil {
			return attached, nil, err
		}
	}
	return attached, entry, nil
}

// DetachMedia removes one attachment from the given day: blob first, then
// the reference. When the blob delete fails the reference survives and the
// tree is left unsaved.
func (s *Service) DetachMedia(ctx context.Context, dayID, mediaID string) (*models.DayEntry, error) {
	state, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	entry := state.Day(dayID)
	if entry == nil {
		return nil, apperr.ErrNotFound
	}
	if err := s.attach.Detach(ctx, entry, mediaID); err != nil {
		return nil, err
	}
	if err := s.states.Save(state); err != nil {
		return nil, err
	}
	return entry, nil
}

// ResolveMedia returns every reference on the day paired with its blob,
// nil for the ones that dangle.
func (s *Service) ResolveMedia(ctx context.Context, dayID string) ([]media.Resolved, error) {
	state, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	entry := state.Day(dayID)
	if entry == nil {
		return nil, apperr.ErrNotFound
	}
	return s.attach.Resolve(ctx, entry)
}

// GetBlob looks up a blob by id; nil means absent.
func (s *Service) GetBlob(ctx context.Context, id string) (*models.MediaBlob, error) {
	return s.blobs.Get(ctx, id)
}

// Export serializes the current state as a pretty-printed document carrying
// references only — blob bytes never travel with an export. Also returns
// the week-start key for naming the download.
func (s *Service) Export(ctx context.Context) ([]byte, string, error) {
	state, err := s.Current(ctx)
	if err != nil {
		return nil, "", err
	}
	doc, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("calendarservice: export: %w", err)
	}
	return doc, state.Start, nil
}

// Import parses an export document and replaces the current state
// wholesale. Validation is minimal: the document must parse and carry a
// non-empty days sequence. No enum membership check, no field-level merge,
// no check that media references resolve — imported trees may legally carry
// dangling references, since attachments do not travel with the document.
// On any failure the current state is left untouched.
func (s *Service) Import(_ context.Context, doc []byte) (*models.CalendarState, error) {
	var incoming models.CalendarState
	if err := json.Unmarshal(doc, &incoming); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidFormat, err)
	}
	if err := validation.ValidateStruct(&incoming,
		validation.Field(&incoming.Days, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidFormat, err)
	}
	if err := s.states.Save(&incoming); err != nil {
		return nil, err
	}
	return &incoming, nil
}

// Orphans lists blob ids no longer referenced by any day entry. Orphans are
// never collected automatically — regeneration, reset, and import all leave
// the blob store alone — so this is the only visibility into accumulated
// garbage.
func (s *Service) Orphans(ctx context.Context) ([]string, error) {
	state, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.blobs.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	referenced := state.MediaIDs()
	orphans := make([]string, 0)
	for id := range all {
		if _, ok := referenced[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
