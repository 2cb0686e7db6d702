// internal/asset/registry.go
package asset

import (
	"fmt"
	"sync"
	"time"
)

// Status is the processing state of an uploaded asset.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Asset is one registered media asset. An element may only reference it
// once Status is ready and Src is set.
type Asset struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"` // "video", "audio", "image"
	Status           Status    `json:"status"`
	Src              string    `json:"src,omitempty"`
	DurationInFrames int       `json:"durationInFrames,omitempty"`
	Error            string    `json:"error,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Ready reports whether the asset can back a timeline element.
func (a *Asset) Ready() bool {
	return a.Status == StatusReady && a.Src != ""
}

// Resolver is the lookup surface the engine depends on.
type Resolver interface {
	Lookup(id string) (*Asset, bool)
}

// Registry tracks asset readiness in memory. The upload/transcode pipeline
// lives elsewhere; the registry only records its outcomes.
type Registry struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{assets: make(map[string]*Asset)}
}

// Register records a new asset in pending state.
func (r *Registry) Register(id, kind string) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[id]; exists {
		return nil, fmt.Errorf("asset %q already registered", id)
	}
	a := &Asset{ID: id, Kind: kind, Status: StatusPending, UpdatedAt: time.Now()}
	r.assets[id] = a
	return a.clone(), nil
}

// MarkReady flips an asset to ready with its source locator and, when
// known, its natural duration in frames.
func (r *Registry) MarkReady(id, src string, durationInFrames int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return fmt.Errorf("asset %q not registered", id)
	}
	a.Status = StatusReady
	a.Src = src
	a.DurationInFrames = durationInFrames
	a.Error = ""
	a.UpdatedAt = time.Now()
	return nil
}

// MarkFailed records a processing failure.
func (r *Registry) MarkFailed(id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return fmt.Errorf("asset %q not registered", id)
	}
	a.Status = StatusFailed
	a.Error = reason
	a.UpdatedAt = time.Now()
	return nil
}

// Lookup returns a copy of the asset, if registered.
func (r *Registry) Lookup(id string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, false
	}
	return a.clone(), true
}

// List returns all registered assets.
func (r *Registry) List() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Asset, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a.clone())
	}
	return out
}

func (a *Asset) clone() *Asset {
	c := *a
	return &c
}
