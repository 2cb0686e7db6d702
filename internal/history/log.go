// internal/history/log.go
package history

import (
	"time"

	"montage/internal/composition"
)

// DefaultLimit bounds the snapshot log per composition.
const DefaultLimit = 50

// Snapshot is one saved document state.
type Snapshot struct {
	CompositionID string                `json:"compositionId"`
	IR            *composition.Document `json:"ir"`
	Description   string                `json:"description"`
	Version       int                   `json:"version"`
	Timestamp     time.Time             `json:"timestamp"`
}

// Log is an append-only snapshot log with an explicit cursor. The cursor
// points at the entry representing the current state; undo and redo move it
// rather than popping entries, so redo works after any number of undos.
// Appending while the cursor is not at the end discards the forward tail.
//
// Log is not safe for concurrent use; the engine serializes access per
// composition.
type Log struct {
	entries []Snapshot
	cursor  int
	limit   int
}

// NewLog creates an empty log. A non-positive limit falls back to
// DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{cursor: -1, limit: limit}
}

// NewLogFrom rebuilds a log from persisted entries and cursor position.
func NewLogFrom(entries []Snapshot, cursor, limit int) *Log {
	l := NewLog(limit)
	l.entries = append(l.entries, entries...)
	if cursor < -1 || cursor >= len(l.entries) {
		cursor = len(l.entries) - 1
	}
	l.cursor = cursor
	return l
}

// Append records a new snapshot as the current state. Entries beyond the
// cursor are discarded, and the oldest entry is evicted once the log
// exceeds its limit.
func (l *Log) Append(s Snapshot) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	l.entries = append(l.entries[:l.cursor+1], s)
	if len(l.entries) > l.limit {
		excess := len(l.entries) - l.limit
		l.entries = l.entries[excess:]
	}
	l.cursor = len(l.entries) - 1
}

// Undo moves the cursor one step back and returns the snapshot to restore.
// Returns false when there is nothing to step back to.
func (l *Log) Undo() (*Snapshot, bool) {
	if !l.CanUndo() {
		return nil, false
	}
	l.cursor--
	s := l.entries[l.cursor]
	return &s, true
}

// Redo moves the cursor one step forward and returns the snapshot to
// restore. Returns false when the cursor is already at the newest entry.
func (l *Log) Redo() (*Snapshot, bool) {
	if !l.CanRedo() {
		return nil, false
	}
	l.cursor++
	s := l.entries[l.cursor]
	return &s, true
}

// CanUndo reports whether a backward step is available.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether a forward step is available.
func (l *Log) CanRedo() bool { return l.cursor >= 0 && l.cursor < len(l.entries)-1 }

// Len returns the number of entries in the log.
func (l *Log) Len() int { return len(l.entries) }

// Cursor returns the current cursor index.
func (l *Log) Cursor() int { return l.cursor }

// Current returns the snapshot at the cursor, or nil for an empty log.
func (l *Log) Current() *Snapshot {
	if l.cursor < 0 {
		return nil
	}
	s := l.entries[l.cursor]
	return &s
}

// Recent returns up to n snapshots, newest first.
func (l *Log) Recent(n int) []Snapshot {
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Snapshot, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Entries returns a copy of the full log, oldest first.
func (l *Log) Entries() []Snapshot {
	out := make([]Snapshot, len(l.entries))
	copy(out, l.entries)
	return out
}
