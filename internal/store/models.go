// internal/store/models.go
package store

import (
	"errors"
	"time"

	"montage/internal/composition"
)

// Sentinel errors callers branch on.
var (
	// ErrNotFound is returned when a composition record does not exist.
	ErrNotFound = errors.New("composition not found")

	// ErrConflict is returned when a replace carries a stale version: the
	// stored record advanced since the caller read it. The caller re-reads
	// and retries.
	ErrConflict = errors.New("composition version conflict")
)

// Composition is the persisted record wrapping a document.
type Composition struct {
	ID               string                `json:"id"`
	ProjectID        string                `json:"projectId"`
	IR               *composition.Document `json:"ir"`
	CompiledArtifact string                `json:"compiledArtifact,omitempty"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}
