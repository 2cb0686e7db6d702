// internal/engine/engine.go
package engine

import (
	"fmt"
	"sort"
	"sync"

	"montage/internal/asset"
	"montage/internal/composition"
	"montage/internal/eventhub"
	"montage/internal/history"
	"montage/internal/plan"
	"montage/internal/selector"
	"montage/internal/store"
)

// Engine wraps the pure plan executor with persistence semantics: version
// increment, bounded snapshot history, and the undo/redo cursor. The store
// handles durability and conflict detection; the engine serializes its own
// mutations, matching the single-writer-per-composition assumption.
type Engine struct {
	mu           sync.Mutex
	store        *store.Store
	assets       asset.Resolver
	hub          *eventhub.EventHub
	historyLimit int
	logs         map[string]*history.Log
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventHub attaches an event hub for change notifications.
func WithEventHub(hub *eventhub.EventHub) Option {
	return func(e *Engine) { e.hub = hub }
}

// WithHistoryLimit overrides the snapshot log bound.
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) { e.historyLimit = limit }
}

// New creates an engine over a store and an asset resolver.
func New(st *store.Store, assets asset.Resolver, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		assets:       assets,
		historyLimit: history.DefaultLimit,
		logs:         make(map[string]*history.Log),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RevertResult is the outcome of an undo or redo.
type RevertResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version int    `json:"version,omitempty"`
}

// CreateComposition creates an empty composition for a project and seeds
// its history with a creation snapshot, so the first edit is undoable.
func (e *Engine) CreateComposition(projectID string) (*store.Composition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := composition.NewDocument()
	rec := &store.Composition{ID: doc.ID, ProjectID: projectID, IR: doc}
	if err := e.store.CreateComposition(rec); err != nil {
		return nil, fmt.Errorf("create composition: %w", err)
	}

	log := history.NewLog(e.historyLimit)
	log.Append(history.Snapshot{
		CompositionID: doc.ID,
		IR:            doc.Clone(),
		Description:   "Created composition",
		Version:       0,
	})
	e.logs[doc.ID] = log
	if err := e.store.ReplaceHistory(doc.ID, log.Entries(), log.Cursor()); err != nil {
		return nil, fmt.Errorf("persist history: %w", err)
	}
	return rec, nil
}

// GetComposition returns the current composition record.
func (e *Engine) GetComposition(id string) (*store.Composition, error) {
	return e.store.GetComposition(id)
}

// ResolveSelector resolves a selector against the current document without
// mutating anything; the UI uses it for disambiguation previews.
func (e *Engine) ResolveSelector(compositionID string, sel selector.Selector) (selector.Result, error) {
	rec, err := e.store.GetComposition(compositionID)
	if err != nil {
		return selector.Result{}, err
	}
	return selector.Resolve(rec.IR, sel)
}

// ExecutePlan resolves and applies one edit plan against the composition.
// On success the new document is committed with version+1 and a snapshot
// appended; a rejected or ambiguous plan touches neither. The returned
// error is reserved for caller bugs and infrastructure failures; business
// rejections come back inside the result.
func (e *Engine) ExecutePlan(compositionID string, p plan.EditPlan, resolvedElementID string) (plan.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.GetComposition(compositionID)
	if err != nil {
		return plan.Result{}, err
	}

	opts := plan.Options{ResolvedElementID: resolvedElementID}
	if p.Operation == plan.OpAdd && p.Changes != nil {
		if assetID, ok := p.Changes.Properties["assetId"].(string); ok && assetID != "" {
			if a, found := e.assets.Lookup(assetID); found {
				opts.Asset = &plan.AssetInfo{
					ID:               a.ID,
					Ready:            a.Ready(),
					Src:              a.Src,
					DurationInFrames: a.DurationInFrames,
				}
			}
		}
	}

	result, err := plan.Execute(rec.IR, p, opts)
	if err != nil {
		return plan.Result{}, err
	}
	if !result.Success {
		return result, nil
	}

	if err := e.commit(rec, result.UpdatedIR, result.Receipt); err != nil {
		return plan.Result{}, err
	}
	result.UpdatedIR.Version = rec.Version + 1

	if e.hub != nil {
		e.hub.EmitCompositionChanged(eventhub.CompositionChangedEvent{
			CompositionID:    compositionID,
			Version:          result.UpdatedIR.Version,
			Receipt:          result.Receipt,
			AffectedElements: result.AffectedElements,
		})
	}
	return result, nil
}

// commit persists the new document with a version bump and appends a
// post-state snapshot to the history log. Callers hold e.mu.
func (e *Engine) commit(rec *store.Composition, updated *composition.Document, description string) error {
	updated.Version = rec.Version + 1
	newRec, err := e.store.ReplaceIR(rec.ID, updated, rec.Version)
	if err != nil {
		return fmt.Errorf("commit composition: %w", err)
	}

	log, err := e.historyLog(rec.ID)
	if err != nil {
		return err
	}
	log.Append(history.Snapshot{
		CompositionID: rec.ID,
		IR:            updated.Clone(),
		Description:   description,
		Version:       newRec.Version,
	})
	if err := e.store.ReplaceHistory(rec.ID, log.Entries(), log.Cursor()); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// historyLog returns the in-memory log for a composition, hydrating it
// from the store on first use.
func (e *Engine) historyLog(compositionID string) (*history.Log, error) {
	if log, ok := e.logs[compositionID]; ok {
		return log, nil
	}
	entries, cursor, err := e.store.LoadHistory(compositionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	log := history.NewLogFrom(entries, cursor, e.historyLimit)
	e.logs[compositionID] = log
	return log, nil
}

// AddElement adds one element described by changes.
func (e *Engine) AddElement(compositionID string, changes plan.Changes) (plan.Result, error) {
	return e.ExecutePlan(compositionID, plan.EditPlan{Operation: plan.OpAdd, Changes: &changes}, "")
}

// UpdateElement updates one element by id.
func (e *Engine) UpdateElement(compositionID, elementID string, changes plan.Changes) (plan.Result, error) {
	return e.ExecutePlan(compositionID, plan.EditPlan{Operation: plan.OpUpdate, Changes: &changes}, elementID)
}

// DeleteElement deletes one element by id.
func (e *Engine) DeleteElement(compositionID, elementID string) (plan.Result, error) {
	return e.ExecutePlan(compositionID, plan.EditPlan{Operation: plan.OpDelete}, elementID)
}

// MoveElement changes the timing of one element by id.
func (e *Engine) MoveElement(compositionID, elementID string, from, durationInFrames *int) (plan.Result, error) {
	return e.ExecutePlan(compositionID, plan.EditPlan{
		Operation: plan.OpMove,
		Changes:   &plan.Changes{From: from, DurationInFrames: durationInFrames},
	}, elementID)
}

// ReorderElements replaces the element order (z-order) with the supplied
// id list. The list must be exactly the current id set; the rejection
// names every missing and unknown id and leaves the document unchanged.
func (e *Engine) ReorderElements(compositionID string, orderedIDs []string) (plan.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.GetComposition(compositionID)
	if err != nil {
		return plan.Result{}, err
	}

	current := make(map[string]bool, len(rec.IR.Elements))
	for _, el := range rec.IR.Elements {
		current[el.ID] = true
	}
	supplied := make(map[string]bool, len(orderedIDs))
	var unknown []string
	for _, id := range orderedIDs {
		if supplied[id] {
			return plan.Result{Success: false, AffectedElements: []string{},
				Error: fmt.Sprintf("duplicate element id %q in reorder list", id)}, nil
		}
		supplied[id] = true
		if !current[id] {
			unknown = append(unknown, id)
		}
	}
	var missing []string
	for id := range current {
		if !supplied[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	if len(unknown) > 0 || len(missing) > 0 {
		msg := "reorder list must contain exactly the current element ids"
		if len(missing) > 0 {
			msg += fmt.Sprintf("; missing: %v", missing)
		}
		if len(unknown) > 0 {
			msg += fmt.Sprintf("; unknown: %v", unknown)
		}
		return plan.Result{Success: false, AffectedElements: []string{}, Error: msg}, nil
	}

	updated := rec.IR.Clone()
	byID := make(map[string]composition.Element, len(updated.Elements))
	for _, el := range updated.Elements {
		byID[el.ID] = el
	}
	updated.Elements = make([]composition.Element, len(orderedIDs))
	for i, id := range orderedIDs {
		updated.Elements[i] = byID[id]
	}

	receipt := "Reordered elements"
	if err := e.commit(rec, updated, receipt); err != nil {
		return plan.Result{}, err
	}

	result := plan.Result{
		Success:          true,
		UpdatedIR:        updated,
		AffectedElements: orderedIDs,
		Receipt:          receipt,
	}
	if e.hub != nil {
		e.hub.EmitCompositionChanged(eventhub.CompositionChangedEvent{
			CompositionID:    compositionID,
			Version:          updated.Version,
			Receipt:          receipt,
			AffectedElements: orderedIDs,
		})
	}
	return result, nil
}

// Undo steps the history cursor back and restores that snapshot as a new
// committed version. With nothing to step back to it reports failure
// without error.
func (e *Engine) Undo(compositionID string) (RevertResult, error) {
	return e.revert(compositionID, "undo")
}

// Redo steps the history cursor forward after an undo.
func (e *Engine) Redo(compositionID string) (RevertResult, error) {
	return e.revert(compositionID, "redo")
}

func (e *Engine) revert(compositionID, direction string) (RevertResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.GetComposition(compositionID)
	if err != nil {
		return RevertResult{}, err
	}
	log, err := e.historyLog(compositionID)
	if err != nil {
		return RevertResult{}, err
	}

	var snap *history.Snapshot
	var ok bool
	if direction == "undo" {
		snap, ok = log.Undo()
		if !ok {
			return RevertResult{Success: false, Message: "Nothing to undo"}, nil
		}
	} else {
		snap, ok = log.Redo()
		if !ok {
			return RevertResult{Success: false, Message: "Nothing to redo"}, nil
		}
	}

	restored := snap.IR.Clone()
	restored.Version = rec.Version + 1
	if _, err := e.store.ReplaceIR(compositionID, restored, rec.Version); err != nil {
		// Put the cursor back so the log still matches the stored state.
		if direction == "undo" {
			log.Redo()
		} else {
			log.Undo()
		}
		return RevertResult{}, fmt.Errorf("restore snapshot: %w", err)
	}
	if err := e.store.ReplaceHistory(compositionID, log.Entries(), log.Cursor()); err != nil {
		return RevertResult{}, fmt.Errorf("persist history: %w", err)
	}

	if e.hub != nil {
		e.hub.EmitCompositionReverted(eventhub.CompositionRevertedEvent{
			CompositionID: compositionID,
			Version:       restored.Version,
			Direction:     direction,
			Description:   snap.Description,
		})
	}
	return RevertResult{
		Success: true,
		Message: fmt.Sprintf("Restored %q", snap.Description),
		Version: restored.Version,
	}, nil
}

// History returns up to n snapshots for a composition, newest first.
func (e *Engine) History(compositionID string, n int) ([]history.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.store.GetComposition(compositionID); err != nil {
		return nil, err
	}
	log, err := e.historyLog(compositionID)
	if err != nil {
		return nil, err
	}
	return log.Recent(n), nil
}
