// internal/engine/engine_test.go
package engine

import (
	"path/filepath"
	"strings"
	"testing"

	"montage/internal/asset"
	"montage/internal/composition"
	"montage/internal/plan"
	"montage/internal/selector"
	"montage/internal/store"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func newTestEngine(t *testing.T) (*Engine, *asset.Registry) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "montage.db"))
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	reg := asset.NewRegistry()
	return New(st, reg), reg
}

func addText(t *testing.T, e *Engine, compID, label string) string {
	t.Helper()
	res, err := e.AddElement(compID, plan.Changes{
		Type: composition.ElementText, Label: strp(label),
		Properties: map[string]any{"text": label},
	})
	if err != nil || !res.Success {
		t.Fatalf("AddElement failed: %v / %s", err, res.Error)
	}
	return res.AffectedElements[0]
}

func TestEngine_CreateComposition(t *testing.T) {
	e, _ := newTestEngine(t)

	rec, err := e.CreateComposition("proj-1")
	if err != nil {
		t.Fatalf("CreateComposition failed: %v", err)
	}
	if rec.Version != 0 {
		t.Errorf("Expected version 0, got %d", rec.Version)
	}
	if len(rec.IR.Elements) != 0 {
		t.Errorf("Expected empty document, got %d elements", len(rec.IR.Elements))
	}

	snaps, err := e.History(rec.ID, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Description != "Created composition" {
		t.Errorf("Expected creation snapshot, got %+v", snaps)
	}
}

func TestEngine_VersionDiscipline(t *testing.T) {
	e, _ := newTestEngine(t)
	rec, _ := e.CreateComposition("proj-1")

	t.Run("SuccessBumpsByOne", func(t *testing.T) {
		addText(t, e, rec.ID, "Title")
		got, _ := e.GetComposition(rec.ID)
		if got.Version != 1 {
			t.Errorf("Expected version 1, got %d", got.Version)
		}
		if got.IR.Version != 1 {
			t.Errorf("Document version must track record version, got %d", got.IR.Version)
		}
	})

	t.Run("RejectedPlanChangesNothing", func(t *testing.T) {
		res, err := e.ExecutePlan(rec.ID, plan.EditPlan{
			Operation: plan.OpUpdate,
			Selector:  &selector.Selector{Kind: selector.ByLabel, Label: "ghost"},
			Changes:   &plan.Changes{Label: strp("x")},
		}, "")
		if err != nil {
			t.Fatalf("ExecutePlan failed: %v", err)
		}
		if res.Success {
			t.Fatal("Expected not-found rejection")
		}
		got, _ := e.GetComposition(rec.ID)
		if got.Version != 1 {
			t.Errorf("Version must be unchanged after rejection, got %d", got.Version)
		}
		snaps, _ := e.History(rec.ID, 10)
		if len(snaps) != 2 {
			t.Errorf("No snapshot may be appended on rejection, got %d", len(snaps))
		}
	})

	t.Run("AmbiguityChangesNothing", func(t *testing.T) {
		addText(t, e, rec.ID, "caption")
		addText(t, e, rec.ID, "Caption")
		before, _ := e.GetComposition(rec.ID)

		res, err := e.ExecutePlan(rec.ID, plan.EditPlan{
			Operation: plan.OpUpdate,
			Selector:  &selector.Selector{Kind: selector.ByLabel, Label: "caption"},
			Changes:   &plan.Changes{Label: strp("x")},
		}, "")
		if err != nil {
			t.Fatalf("ExecutePlan failed: %v", err)
		}
		if !res.NeedsDisambiguation || len(res.DisambiguationOptions) != 2 {
			t.Fatalf("Expected 2-way disambiguation, got %+v", res)
		}
		after, _ := e.GetComposition(rec.ID)
		if after.Version != before.Version {
			t.Errorf("Version changed on ambiguity: %d -> %d", before.Version, after.Version)
		}
	})

	t.Run("ResolvedIDBypassesAmbiguity", func(t *testing.T) {
		got, _ := e.GetComposition(rec.ID)
		var targetID string
		for _, el := range got.IR.Elements {
			if el.Label == "Caption" {
				targetID = el.ID
			}
		}
		res, err := e.ExecutePlan(rec.ID, plan.EditPlan{
			Operation: plan.OpUpdate,
			Selector:  &selector.Selector{Kind: selector.ByLabel, Label: "caption"},
			Changes:   &plan.Changes{Label: strp("Lower third")},
		}, targetID)
		if err != nil || !res.Success {
			t.Fatalf("Expected bypass to succeed: %v / %s", err, res.Error)
		}
	})
}

func TestEngine_AssetGate(t *testing.T) {
	e, reg := newTestEngine(t)
	rec, _ := e.CreateComposition("proj-1")
	reg.Register("clip-1", "video")

	t.Run("PendingAssetRejected", func(t *testing.T) {
		res, err := e.AddElement(rec.ID, plan.Changes{
			Type:       composition.ElementVideo,
			Properties: map[string]any{"assetId": "clip-1"},
		})
		if err != nil {
			t.Fatalf("AddElement failed: %v", err)
		}
		if res.Success {
			t.Fatal("Expected pending asset to be rejected")
		}
	})

	t.Run("ReadyAssetAdds", func(t *testing.T) {
		reg.MarkReady("clip-1", "media/clip-1.mp4", 240)
		res, err := e.AddElement(rec.ID, plan.Changes{
			Type:       composition.ElementVideo,
			Properties: map[string]any{"assetId": "clip-1"},
		})
		if err != nil || !res.Success {
			t.Fatalf("Expected ready asset to add: %v / %s", err, res.Error)
		}
		el := res.UpdatedIR.Elements[0]
		if el.DurationInFrames != 240 {
			t.Errorf("Expected natural duration 240, got %d", el.DurationInFrames)
		}
		if el.Properties["src"] != "media/clip-1.mp4" {
			t.Errorf("Expected src from registry, got %v", el.Properties["src"])
		}
	})

	t.Run("UnregisteredAssetRejected", func(t *testing.T) {
		res, _ := e.AddElement(rec.ID, plan.Changes{
			Type:       composition.ElementVideo,
			Properties: map[string]any{"assetId": "nope"},
		})
		if res.Success {
			t.Fatal("Expected unregistered asset to be rejected")
		}
	})
}

func TestEngine_UndoRedo(t *testing.T) {
	e, _ := newTestEngine(t)
	rec, _ := e.CreateComposition("proj-1")

	t.Run("NothingToUndo", func(t *testing.T) {
		res, err := e.Undo(rec.ID)
		if err != nil {
			t.Fatalf("Undo must not error when empty: %v", err)
		}
		if res.Success {
			t.Error("Expected undo to report failure with only the creation snapshot")
		}
	})

	addText(t, e, rec.ID, "Title")
	addText(t, e, rec.ID, "Subtitle")

	t.Run("UndoRestoresPriorState", func(t *testing.T) {
		res, err := e.Undo(rec.ID)
		if err != nil || !res.Success {
			t.Fatalf("Undo failed: %v / %s", err, res.Message)
		}
		got, _ := e.GetComposition(rec.ID)
		if len(got.IR.Elements) != 1 {
			t.Errorf("Expected 1 element after undo, got %d", len(got.IR.Elements))
		}
		if got.Version != 3 {
			t.Errorf("Undo commits a new version: expected 3, got %d", got.Version)
		}
	})

	t.Run("RedoRestoresUndoneState", func(t *testing.T) {
		res, err := e.Redo(rec.ID)
		if err != nil || !res.Success {
			t.Fatalf("Redo failed: %v / %s", err, res.Message)
		}
		got, _ := e.GetComposition(rec.ID)
		if len(got.IR.Elements) != 2 {
			t.Errorf("Expected 2 elements after redo, got %d", len(got.IR.Elements))
		}
	})

	t.Run("NewEditDiscardsRedoTail", func(t *testing.T) {
		if res, _ := e.Undo(rec.ID); !res.Success {
			t.Fatal("Undo failed")
		}
		addText(t, e, rec.ID, "Replacement")
		res, _ := e.Redo(rec.ID)
		if res.Success {
			t.Error("Redo after a new edit must report nothing to redo")
		}
	})
}

func TestEngine_Reorder(t *testing.T) {
	e, _ := newTestEngine(t)
	rec, _ := e.CreateComposition("proj-1")
	id1 := addText(t, e, rec.ID, "a")
	id2 := addText(t, e, rec.ID, "b")
	id3 := addText(t, e, rec.ID, "c")

	t.Run("Valid", func(t *testing.T) {
		res, err := e.ReorderElements(rec.ID, []string{id3, id1, id2})
		if err != nil || !res.Success {
			t.Fatalf("ReorderElements failed: %v / %s", err, res.Error)
		}
		got, _ := e.GetComposition(rec.ID)
		if got.IR.Elements[0].ID != id3 {
			t.Errorf("Expected %s first, got %s", id3, got.IR.Elements[0].ID)
		}
		if got.Version != 4 {
			t.Errorf("Reorder must bump the version, got %d", got.Version)
		}
	})

	t.Run("MissingIDRejected", func(t *testing.T) {
		before, _ := e.GetComposition(rec.ID)
		res, err := e.ReorderElements(rec.ID, []string{id1, id2})
		if err != nil {
			t.Fatalf("ReorderElements failed: %v", err)
		}
		if res.Success {
			t.Fatal("Expected rejection for incomplete id list")
		}
		if !strings.Contains(res.Error, id3) {
			t.Errorf("Error must name the missing id %s: %s", id3, res.Error)
		}
		after, _ := e.GetComposition(rec.ID)
		if after.Version != before.Version {
			t.Error("Rejected reorder must not change the version")
		}
	})

	t.Run("UnknownIDRejected", func(t *testing.T) {
		res, _ := e.ReorderElements(rec.ID, []string{id1, id2, id3, "ghost"})
		if res.Success || !strings.Contains(res.Error, "ghost") {
			t.Errorf("Expected rejection naming ghost, got %+v", res)
		}
	})

	t.Run("DuplicateIDRejected", func(t *testing.T) {
		res, _ := e.ReorderElements(rec.ID, []string{id1, id2, id2})
		if res.Success {
			t.Fatal("Expected rejection for duplicate id")
		}
	})
}

func TestEngine_History(t *testing.T) {
	e, _ := newTestEngine(t)
	rec, _ := e.CreateComposition("proj-1")
	addText(t, e, rec.ID, "Title")
	addText(t, e, rec.ID, "Subtitle")

	snaps, err := e.History(rec.ID, 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Description != `Added text element "Subtitle"` {
		t.Errorf("Expected newest first, got %q", snaps[0].Description)
	}
	if snaps[0].Timestamp.IsZero() {
		t.Error("Snapshots must carry timestamps")
	}
}

func TestEngine_HistorySurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "montage.db")

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	e := New(st, asset.NewRegistry())
	rec, _ := e.CreateComposition("proj-1")
	addText(t, e, rec.ID, "Title")
	st.Close()

	st2, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen store failed: %v", err)
	}
	defer st2.Close()
	e2 := New(st2, asset.NewRegistry())

	res, err := e2.Undo(rec.ID)
	if err != nil || !res.Success {
		t.Fatalf("Undo after restart failed: %v / %s", err, res.Message)
	}
	got, _ := e2.GetComposition(rec.ID)
	if len(got.IR.Elements) != 0 {
		t.Errorf("Expected empty document after undo, got %d elements", len(got.IR.Elements))
	}
}
