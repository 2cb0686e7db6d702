// bindings.go
package main

import (
	"encoding/json"
	"errors"

	"montage/internal/asset"
	"montage/internal/bridge"
	"montage/internal/engine"
	"montage/internal/history"
	"montage/internal/plan"
	"montage/internal/selector"
	"montage/internal/store"
	"montage/internal/websocket"
)

// Composition lifecycle

func (a *App) CreateComposition(projectID string) (*store.Composition, error) {
	return a.engine.CreateComposition(projectID)
}

func (a *App) GetComposition(id string) (*store.Composition, error) {
	return a.engine.GetComposition(id)
}

func (a *App) ListCompositions(projectID string) ([]*store.Composition, error) {
	return a.store.ListCompositions(projectID)
}

func (a *App) DeleteComposition(id string) error {
	return a.store.DeleteComposition(id)
}

func (a *App) SetCompiledArtifact(id, artifact string) error {
	return a.store.SetCompiledArtifact(id, artifact)
}

// Editing

func (a *App) ExecutePlan(compositionID string, p plan.EditPlan, resolvedElementID string) (plan.Result, error) {
	return a.engine.ExecutePlan(compositionID, p, resolvedElementID)
}

func (a *App) ResolveSelector(compositionID string, sel selector.Selector) (selector.Result, error) {
	return a.engine.ResolveSelector(compositionID, sel)
}

func (a *App) AddElement(compositionID string, changes plan.Changes) (plan.Result, error) {
	return a.engine.AddElement(compositionID, changes)
}

func (a *App) UpdateElement(compositionID, elementID string, changes plan.Changes) (plan.Result, error) {
	return a.engine.UpdateElement(compositionID, elementID, changes)
}

func (a *App) DeleteElement(compositionID, elementID string) (plan.Result, error) {
	return a.engine.DeleteElement(compositionID, elementID)
}

func (a *App) MoveElement(compositionID, elementID string, from, durationInFrames *int) (plan.Result, error) {
	return a.engine.MoveElement(compositionID, elementID, from, durationInFrames)
}

func (a *App) ReorderElements(compositionID string, orderedIDs []string) (plan.Result, error) {
	return a.engine.ReorderElements(compositionID, orderedIDs)
}

// History

func (a *App) Undo(compositionID string) (engine.RevertResult, error) {
	return a.engine.Undo(compositionID)
}

func (a *App) Redo(compositionID string) (engine.RevertResult, error) {
	return a.engine.Redo(compositionID)
}

func (a *App) GetHistory(compositionID string, n int) ([]history.Snapshot, error) {
	return a.engine.History(compositionID, n)
}

// Assets

func (a *App) RegisterAsset(id, kind string) (*asset.Asset, error) {
	return a.assets.Register(id, kind)
}

func (a *App) MarkAssetReady(id, src string, durationInFrames int) error {
	return a.assets.MarkReady(id, src, durationInFrames)
}

func (a *App) ListAssets() []*asset.Asset {
	return a.assets.List()
}

// Assistant

// ListTools exposes the tool catalog so the frontend can show what the
// assistant is allowed to do.
func (a *App) ListTools() []bridge.Tool {
	return bridge.Catalog()
}

// RunAssistant drives one AI editing turn over the given composition.
func (a *App) RunAssistant(compositionID, request string) (*bridge.Outcome, error) {
	a.mu.RLock()
	client := a.modelClient
	a.mu.RUnlock()
	if client == nil {
		return nil, errors.New("no model client configured")
	}
	b := bridge.New(client, a.engine, a.config.BridgeRoundBudget)
	return b.Run(a.ctx, compositionID, request)
}

// RegisterRoutes binds every RPC method on the router. The method set
// here is the whole wire surface.
func (a *App) RegisterRoutes(r *websocket.Router) {
	r.Register("CreateComposition", func(params []json.RawMessage) (any, error) {
		var projectID string
		if err := websocket.DecodeParam(params, 0, &projectID); err != nil {
			return nil, err
		}
		return a.CreateComposition(projectID)
	})

	r.Register("GetComposition", func(params []json.RawMessage) (any, error) {
		var id string
		if err := websocket.DecodeParam(params, 0, &id); err != nil {
			return nil, err
		}
		return a.GetComposition(id)
	})

	r.Register("ListCompositions", func(params []json.RawMessage) (any, error) {
		var projectID string
		if err := websocket.DecodeParam(params, 0, &projectID); err != nil {
			return nil, err
		}
		return a.ListCompositions(projectID)
	})

	r.Register("DeleteComposition", func(params []json.RawMessage) (any, error) {
		var id string
		if err := websocket.DecodeParam(params, 0, &id); err != nil {
			return nil, err
		}
		return nil, a.DeleteComposition(id)
	})

	r.Register("SetCompiledArtifact", func(params []json.RawMessage) (any, error) {
		var id, artifact string
		if err := websocket.DecodeParam(params, 0, &id); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &artifact); err != nil {
			return nil, err
		}
		return nil, a.SetCompiledArtifact(id, artifact)
	})

	r.Register("ExecutePlan", func(params []json.RawMessage) (any, error) {
		var compositionID string
		var p plan.EditPlan
		var resolvedID string
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &p); err != nil {
			return nil, err
		}
		if len(params) > 2 {
			if err := websocket.DecodeParam(params, 2, &resolvedID); err != nil {
				return nil, err
			}
		}
		return a.ExecutePlan(compositionID, p, resolvedID)
	})

	r.Register("ResolveSelector", func(params []json.RawMessage) (any, error) {
		var compositionID string
		var sel selector.Selector
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &sel); err != nil {
			return nil, err
		}
		return a.ResolveSelector(compositionID, sel)
	})

	r.Register("AddElement", func(params []json.RawMessage) (any, error) {
		var compositionID string
		var changes plan.Changes
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &changes); err != nil {
			return nil, err
		}
		return a.AddElement(compositionID, changes)
	})

	r.Register("UpdateElement", func(params []json.RawMessage) (any, error) {
		var compositionID, elementID string
		var changes plan.Changes
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &elementID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 2, &changes); err != nil {
			return nil, err
		}
		return a.UpdateElement(compositionID, elementID, changes)
	})

	r.Register("DeleteElement", func(params []json.RawMessage) (any, error) {
		var compositionID, elementID string
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &elementID); err != nil {
			return nil, err
		}
		return a.DeleteElement(compositionID, elementID)
	})

	r.Register("MoveElement", func(params []json.RawMessage) (any, error) {
		var compositionID, elementID string
		var from, duration *int
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &elementID); err != nil {
			return nil, err
		}
		if len(params) > 2 {
			if err := websocket.DecodeParam(params, 2, &from); err != nil {
				return nil, err
			}
		}
		if len(params) > 3 {
			if err := websocket.DecodeParam(params, 3, &duration); err != nil {
				return nil, err
			}
		}
		return a.MoveElement(compositionID, elementID, from, duration)
	})

	r.Register("ReorderElements", func(params []json.RawMessage) (any, error) {
		var compositionID string
		var orderedIDs []string
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &orderedIDs); err != nil {
			return nil, err
		}
		return a.ReorderElements(compositionID, orderedIDs)
	})

	r.Register("Undo", func(params []json.RawMessage) (any, error) {
		var compositionID string
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		return a.Undo(compositionID)
	})

	r.Register("Redo", func(params []json.RawMessage) (any, error) {
		var compositionID string
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		return a.Redo(compositionID)
	})

	r.Register("GetHistory", func(params []json.RawMessage) (any, error) {
		var compositionID string
		n := 10
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if len(params) > 1 {
			if err := websocket.DecodeParam(params, 1, &n); err != nil {
				return nil, err
			}
		}
		return a.GetHistory(compositionID, n)
	})

	r.Register("RegisterAsset", func(params []json.RawMessage) (any, error) {
		var id, kind string
		if err := websocket.DecodeParam(params, 0, &id); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &kind); err != nil {
			return nil, err
		}
		return a.RegisterAsset(id, kind)
	})

	r.Register("MarkAssetReady", func(params []json.RawMessage) (any, error) {
		var id, src string
		var duration int
		if err := websocket.DecodeParam(params, 0, &id); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &src); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 2, &duration); err != nil {
			return nil, err
		}
		return nil, a.MarkAssetReady(id, src, duration)
	})

	r.Register("ListAssets", func(params []json.RawMessage) (any, error) {
		return a.ListAssets(), nil
	})

	r.Register("ListTools", func(params []json.RawMessage) (any, error) {
		return a.ListTools(), nil
	})

	r.Register("RunAssistant", func(params []json.RawMessage) (any, error) {
		var compositionID, request string
		if err := websocket.DecodeParam(params, 0, &compositionID); err != nil {
			return nil, err
		}
		if err := websocket.DecodeParam(params, 1, &request); err != nil {
			return nil, err
		}
		return a.RunAssistant(compositionID, request)
	})
}
