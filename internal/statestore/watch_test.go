package statestore

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/almadigital/pauta/internal/calendar"
)

func startWatch(t *testing.T, store *File) *atomic.Int32 {
	t.Helper()
	var fired atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, store, slog.Default(), func() {
			fired.Add(1)
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return &fired
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return cond()
}

func TestWatchDetectsExternalEdit(t *testing.T) {
	s := tempStore(t)
	state := calendar.Generate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Save(state); err != nil {
		t.Fatal(err)
	}

	fired := startWatch(t, s)

	// Simulate the user overwriting the slot by hand.
	if err := os.WriteFile(s.Path(), []byte(`{"start":"2030-01-07","days":[{"id":"2030-01-07","date":"2030-01-07"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return fired.Load() >= 1 }) {
		t.Error("expected reload callback after external edit")
	}
}

func TestWatchIgnoresOwnSave(t *testing.T) {
	s := tempStore(t)
	state := calendar.Generate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Save(state); err != nil {
		t.Fatal(err)
	}

	fired := startWatch(t, s)

	state.Days[0].Copy = "self write"
	if err := s.Save(state); err != nil {
		t.Fatal(err)
	}

	// Allow the debounce window to pass; no callback should fire.
	time.Sleep(600 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("reload fired %d times for our own save", n)
	}
}
