package audit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreAppendAndRecent(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "audit", "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, tool := range []string{"system-info", "file-read", "file-write"} {
		err := store.Append(Entry{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			RequestID:  tool + "-req",
			Tool:       tool,
			Intent:     "store test",
			Inputs:     json.RawMessage(`{"n":1}`),
			Result:     OutcomeSuccess,
			DryRun:     tool == "file-write",
			DurationMs: int64(i),
		})
		if err != nil {
			t.Fatalf("append %s: %v", tool, err)
		}
	}

	entries, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Tool != "file-write" || entries[1].Tool != "file-read" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Tool, entries[1].Tool)
	}
	if !entries[0].DryRun {
		t.Fatal("dry_run flag lost in round trip")
	}
	if string(entries[0].Inputs) != `{"n":1}` {
		t.Fatalf("inputs lost in round trip: %s", entries[0].Inputs)
	}
}

func TestSQLiteStoreRecent_Empty(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
