// internal/plan/plan.go
package plan

import (
	"montage/internal/composition"
	"montage/internal/selector"
)

// Operation is the kind of change an EditPlan requests.
type Operation string

const (
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpMove   Operation = "move"
)

// Changes is the partial element-shaped payload of a plan. Pointer fields
// distinguish "leave unchanged" (nil) from an explicit new value; the
// properties map is merged key-by-key rather than replaced.
type Changes struct {
	Type             composition.ElementType  `json:"type,omitempty"`
	From             *int                     `json:"from,omitempty"`
	DurationInFrames *int                     `json:"durationInFrames,omitempty"`
	Label            *string                  `json:"label,omitempty"`
	Properties       map[string]any           `json:"properties,omitempty"`
	Animations       *[]composition.Animation `json:"animations,omitempty"`
	AppendAnimation  *composition.Animation   `json:"appendAnimation,omitempty"`
}

// EditPlan is the unit of change submitted to the executor.
type EditPlan struct {
	Operation Operation          `json:"operation"`
	Selector  *selector.Selector `json:"selector,omitempty"`
	Changes   *Changes           `json:"changes,omitempty"`
}

// AssetInfo carries the asset-registry facts the executor needs to gate an
// asset-backed add. The caller looks the asset up; the executor stays pure.
type AssetInfo struct {
	ID               string `json:"id"`
	Ready            bool   `json:"ready"`
	Src              string `json:"src,omitempty"`
	DurationInFrames int    `json:"durationInFrames,omitempty"`
}

// Options are the out-of-band inputs to Execute.
type Options struct {
	// ResolvedElementID, when set, bypasses selector resolution entirely.
	// Callers that already know the exact target (for example after a
	// disambiguation round) supply it here.
	ResolvedElementID string

	// Asset holds registry facts for the asset referenced by an add plan.
	Asset *AssetInfo
}

// Result is the outcome of executing a plan. Business-rule failures
// (validation, not-found, ambiguity, asset-not-ready) are returned as data
// with Success=false, never as Go errors.
type Result struct {
	Success               bool                  `json:"success"`
	UpdatedIR             *composition.Document `json:"updatedIr,omitempty"`
	AffectedElements      []string              `json:"affectedElements"`
	Receipt               string                `json:"receipt,omitempty"`
	Error                 string                `json:"error,omitempty"`
	NeedsDisambiguation   bool                  `json:"needsDisambiguation,omitempty"`
	DisambiguationOptions []selector.Option     `json:"disambiguationOptions,omitempty"`
	Warnings              []string              `json:"warnings,omitempty"`
}

func failure(reason string) Result {
	return Result{Success: false, Error: reason, AffectedElements: []string{}}
}
