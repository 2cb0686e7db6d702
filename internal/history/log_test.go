// internal/history/log_test.go
package history

import (
	"fmt"
	"testing"

	"montage/internal/composition"
)

func snap(desc string, version int) Snapshot {
	doc := composition.NewDocument()
	doc.Version = version
	return Snapshot{CompositionID: "comp-1", IR: doc, Description: desc, Version: version}
}

func TestLogUndoRedo(t *testing.T) {
	l := NewLog(50)

	if l.CanUndo() {
		t.Error("Empty log must not allow undo")
	}

	l.Append(snap("Created composition", 0))
	if l.CanUndo() {
		t.Error("A single snapshot must not allow undo")
	}

	l.Append(snap("Added text element", 1))
	l.Append(snap("Moved \"Title\"", 2))

	t.Run("UndoStepsBack", func(t *testing.T) {
		s, ok := l.Undo()
		if !ok {
			t.Fatal("Undo failed")
		}
		if s.Description != "Added text element" {
			t.Errorf("Expected to land on version 1 snapshot, got %q", s.Description)
		}
	})

	t.Run("RedoStepsForward", func(t *testing.T) {
		s, ok := l.Redo()
		if !ok {
			t.Fatal("Redo failed")
		}
		if s.Version != 2 {
			t.Errorf("Expected version 2, got %d", s.Version)
		}
		if l.CanRedo() {
			t.Error("At the newest entry redo must be unavailable")
		}
	})

	t.Run("AppendTruncatesForwardTail", func(t *testing.T) {
		if _, ok := l.Undo(); !ok {
			t.Fatal("Undo failed")
		}
		l.Append(snap("Deleted 2 elements", 3))
		if l.CanRedo() {
			t.Error("Appending after undo must discard the redo tail")
		}
		if l.Len() != 3 {
			t.Errorf("Expected 3 entries after truncate+append, got %d", l.Len())
		}
	})
}

func TestLogEviction(t *testing.T) {
	l := NewLog(50)
	for i := 0; i < 60; i++ {
		l.Append(snap(fmt.Sprintf("edit %d", i), i))
	}
	if l.Len() != 50 {
		t.Fatalf("Expected log capped at 50, got %d", l.Len())
	}
	entries := l.Entries()
	if entries[0].Description != "edit 10" {
		t.Errorf("Expected oldest entries evicted, oldest is %q", entries[0].Description)
	}
	if l.Current().Description != "edit 59" {
		t.Errorf("Cursor must stay on the newest entry, got %q", l.Current().Description)
	}
}

func TestLogRecent(t *testing.T) {
	l := NewLog(50)
	for i := 0; i < 5; i++ {
		l.Append(snap(fmt.Sprintf("edit %d", i), i))
	}
	recent := l.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(recent))
	}
	if recent[0].Description != "edit 4" {
		t.Errorf("Recent must be newest first, got %q", recent[0].Description)
	}
}

func TestNewLogFrom(t *testing.T) {
	entries := []Snapshot{snap("a", 0), snap("b", 1), snap("c", 2)}
	l := NewLogFrom(entries, 1, 50)
	if !l.CanRedo() {
		t.Error("Hydrated log with cursor mid-log must allow redo")
	}
	s, ok := l.Redo()
	if !ok || s.Description != "c" {
		t.Errorf("Expected redo to land on c, got %v %v", s, ok)
	}

	t.Run("OutOfRangeCursorClamped", func(t *testing.T) {
		l := NewLogFrom(entries, 99, 50)
		if l.Cursor() != 2 {
			t.Errorf("Expected cursor clamped to 2, got %d", l.Cursor())
		}
	})
}
