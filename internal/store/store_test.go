// internal/store/store_test.go
package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"montage/internal/composition"
	"montage/internal/history"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CompositionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	doc := composition.NewDocument()
	doc.Elements = append(doc.Elements, composition.Element{
		ID: "e1", Type: composition.ElementText, From: 0, DurationInFrames: 90,
		Label: "Title", Properties: map[string]any{"text": "Hello"},
	})

	rec := &Composition{ID: doc.ID, ProjectID: "proj-1", IR: doc}
	if err := s.CreateComposition(rec); err != nil {
		t.Fatalf("CreateComposition failed: %v", err)
	}

	got, err := s.GetComposition(doc.ID)
	if err != nil {
		t.Fatalf("GetComposition failed: %v", err)
	}
	if got.Version != 0 {
		t.Errorf("Expected version 0, got %d", got.Version)
	}
	if len(got.IR.Elements) != 1 || got.IR.Elements[0].Label != "Title" {
		t.Errorf("Document did not round-trip: %+v", got.IR.Elements)
	}
	if got.IR.Elements[0].Properties["text"] != "Hello" {
		t.Errorf("Properties did not round-trip: %v", got.IR.Elements[0].Properties)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetComposition("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_ReplaceIR(t *testing.T) {
	s := openTestStore(t)
	doc := composition.NewDocument()
	if err := s.CreateComposition(&Composition{ID: doc.ID, ProjectID: "p", IR: doc}); err != nil {
		t.Fatalf("CreateComposition failed: %v", err)
	}

	t.Run("VersionBump", func(t *testing.T) {
		next := doc.Clone()
		next.Elements = append(next.Elements, composition.Element{
			ID: "e1", Type: composition.ElementShape, From: 0, DurationInFrames: 30,
			Properties: map[string]any{"shape": "rect"},
		})
		rec, err := s.ReplaceIR(doc.ID, next, 0)
		if err != nil {
			t.Fatalf("ReplaceIR failed: %v", err)
		}
		if rec.Version != 1 {
			t.Errorf("Expected version 1, got %d", rec.Version)
		}
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		_, err := s.ReplaceIR(doc.ID, doc, 0)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("Expected ErrConflict for stale version, got %v", err)
		}
	})

	t.Run("MissingRecord", func(t *testing.T) {
		_, err := s.ReplaceIR("nope", doc, 0)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_HistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	doc := composition.NewDocument()
	if err := s.CreateComposition(&Composition{ID: doc.ID, ProjectID: "p", IR: doc}); err != nil {
		t.Fatalf("CreateComposition failed: %v", err)
	}

	entries := []history.Snapshot{
		{CompositionID: doc.ID, IR: doc, Description: "Created composition", Version: 0, Timestamp: time.Now()},
		{CompositionID: doc.ID, IR: doc, Description: "Added text element", Version: 1, Timestamp: time.Now()},
	}
	if err := s.ReplaceHistory(doc.ID, entries, 1); err != nil {
		t.Fatalf("ReplaceHistory failed: %v", err)
	}

	got, cursor, err := s.LoadHistory(doc.ID)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if cursor != 1 {
		t.Errorf("Expected cursor 1, got %d", cursor)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(got))
	}
	if got[0].Description != "Created composition" || got[1].Version != 1 {
		t.Errorf("Snapshots did not round-trip: %+v", got)
	}
	if got[1].IR == nil || got[1].IR.ID != doc.ID {
		t.Errorf("Snapshot IR did not round-trip")
	}

	t.Run("RewriteReplacesLog", func(t *testing.T) {
		if err := s.ReplaceHistory(doc.ID, entries[:1], 0); err != nil {
			t.Fatalf("ReplaceHistory failed: %v", err)
		}
		got, cursor, err := s.LoadHistory(doc.ID)
		if err != nil {
			t.Fatalf("LoadHistory failed: %v", err)
		}
		if len(got) != 1 || cursor != 0 {
			t.Errorf("Expected 1 snapshot and cursor 0, got %d and %d", len(got), cursor)
		}
	})
}

func TestStore_DeleteComposition(t *testing.T) {
	s := openTestStore(t)
	doc := composition.NewDocument()
	if err := s.CreateComposition(&Composition{ID: doc.ID, ProjectID: "p", IR: doc}); err != nil {
		t.Fatalf("CreateComposition failed: %v", err)
	}
	if err := s.ReplaceHistory(doc.ID, []history.Snapshot{{CompositionID: doc.ID, IR: doc, Timestamp: time.Now()}}, 0); err != nil {
		t.Fatalf("ReplaceHistory failed: %v", err)
	}

	if err := s.DeleteComposition(doc.ID); err != nil {
		t.Fatalf("DeleteComposition failed: %v", err)
	}
	if _, err := s.GetComposition(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_ListCompositions(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		doc := composition.NewDocument()
		if err := s.CreateComposition(&Composition{ID: doc.ID, ProjectID: "p", IR: doc}); err != nil {
			t.Fatalf("CreateComposition failed: %v", err)
		}
	}
	recs, err := s.ListCompositions("p")
	if err != nil {
		t.Fatalf("ListCompositions failed: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("Expected 3 compositions, got %d", len(recs))
	}
}
