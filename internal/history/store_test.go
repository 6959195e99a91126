package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := t.Context()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{StartedAt: base, Mode: "deploy", Host: "203.0.113.7", Image: "app:latest", ServerName: "app.example.com", Succeeded: true},
		{StartedAt: base.Add(time.Hour), Mode: "deploy", Host: "203.0.113.7", Image: "app:latest", Succeeded: false, Class: "build", Message: "exit status 1"},
		{StartedAt: base.Add(2 * time.Hour), Mode: "down", Host: "203.0.113.7", Succeeded: true},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("listed %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].Mode != "down" || got[2].Mode != "deploy" {
		t.Fatalf("order = [%s %s %s], want newest first", got[0].Mode, got[1].Mode, got[2].Mode)
	}
	if !got[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("timestamp = %v, want %v", got[0].StartedAt, base.Add(2*time.Hour))
	}
	if got[1].Class != "build" || got[1].Succeeded {
		t.Errorf("failure row = %+v", got[1])
	}
}

func TestStoreListLimit(t *testing.T) {
	ctx := t.Context()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, Entry{StartedAt: time.Now(), Mode: "deploy", Host: "h", Succeeded: true}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d entries, want 2", len(got))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
}
