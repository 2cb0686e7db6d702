// internal/plan/executor.go
package plan

import (
	"fmt"

	"montage/internal/composition"
	"montage/internal/selector"
)

// Execute applies an edit plan to a document and returns the new document
// value; the input document is never mutated. It is a pure function with no
// I/O. A non-nil error means a caller bug (unknown operation, missing
// changes) and never a business condition; those come back inside Result.
func Execute(doc *composition.Document, p EditPlan, opts Options) (Result, error) {
	if doc == nil {
		return Result{}, fmt.Errorf("execute: document is nil")
	}
	switch p.Operation {
	case OpAdd, OpUpdate, OpDelete, OpMove:
	default:
		return Result{}, fmt.Errorf("execute: unknown operation %q", p.Operation)
	}
	if p.Changes == nil && p.Operation != OpDelete {
		return Result{}, fmt.Errorf("execute: plan has no changes")
	}
	if p.Operation != OpAdd && p.Selector == nil && opts.ResolvedElementID == "" {
		return failure(fmt.Sprintf("%s requires a selector or a resolved element id", p.Operation)), nil
	}

	switch p.Operation {
	case OpAdd:
		return executeAdd(doc, p, opts), nil
	case OpUpdate:
		return executeUpdate(doc, p, opts), nil
	case OpDelete:
		return executeDelete(doc, p, opts), nil
	default:
		return executeMove(doc, p, opts), nil
	}
}

func executeAdd(doc *composition.Document, p EditPlan, opts Options) Result {
	ch := p.Changes
	if ch.Type == "" {
		return failure("add requires changes.type")
	}
	if !composition.IsKnownElementType(ch.Type) {
		return failure(fmt.Sprintf("unknown element type %q", ch.Type))
	}

	el := composition.Element{
		ID:         composition.NewElementID(),
		Type:       ch.Type,
		Properties: map[string]any{},
	}
	for k, v := range ch.Properties {
		el.Properties[k] = v
	}
	if ch.Label != nil {
		el.Label = *ch.Label
	}
	if ch.From != nil {
		el.From = *ch.From
	}

	// Asset-backed elements may only be added once the asset is ready and
	// exposes a usable source locator.
	if assetID, ok := el.Properties["assetId"].(string); ok && assetID != "" {
		a := opts.Asset
		if a == nil || !a.Ready || a.Src == "" {
			return failure(fmt.Sprintf("asset %q is not ready to be added", assetID))
		}
		el.Properties["src"] = a.Src
	}

	switch {
	case ch.DurationInFrames != nil:
		el.DurationInFrames = *ch.DurationInFrames
	case opts.Asset != nil && opts.Asset.DurationInFrames > 0:
		el.DurationInFrames = opts.Asset.DurationInFrames
	default:
		el.DurationInFrames = 90
	}

	if ch.Animations != nil {
		el.Animations = append([]composition.Animation{}, *ch.Animations...)
	}
	if ch.AppendAnimation != nil {
		el.Animations = append(el.Animations, *ch.AppendAnimation)
	}

	warnings, err := composition.ValidateElement(doc.Metadata, el)
	if err != nil {
		return failure(err.Error())
	}

	updated := doc.Clone()
	updated.Elements = append(updated.Elements, el)

	receipt := fmt.Sprintf("Added %s element", el.Type)
	if el.Label != "" {
		receipt = fmt.Sprintf("Added %s element %q", el.Type, el.Label)
	}
	return Result{
		Success:          true,
		UpdatedIR:        updated,
		AffectedElements: []string{el.ID},
		Receipt:          receipt,
		Warnings:         warnings,
	}
}

// resolveSingle locates exactly one target for update/move. The second
// return value carries the early-exit result when resolution fails.
func resolveSingle(doc *composition.Document, p EditPlan, opts Options) (string, *Result) {
	if opts.ResolvedElementID != "" {
		if doc.FindElement(opts.ResolvedElementID) == nil {
			r := failure(fmt.Sprintf("no element with id %q", opts.ResolvedElementID))
			return "", &r
		}
		return opts.ResolvedElementID, nil
	}

	res, err := selector.Resolve(doc, *p.Selector)
	if err != nil {
		r := failure(err.Error())
		return "", &r
	}
	if res.IsAmbiguous {
		r := Result{
			Success:               false,
			AffectedElements:      []string{},
			Error:                 "selector matches multiple elements",
			NeedsDisambiguation:   true,
			DisambiguationOptions: res.DisambiguationOptions,
		}
		return "", &r
	}
	if len(res.Matches) == 0 {
		r := failure("no element matches the selector")
		return "", &r
	}
	return res.Matches[0].ID, nil
}

func executeUpdate(doc *composition.Document, p EditPlan, opts Options) Result {
	id, halt := resolveSingle(doc, p, opts)
	if halt != nil {
		return *halt
	}

	updated := doc.Clone()
	el := updated.FindElement(id)

	ch := p.Changes
	if ch.From != nil {
		el.From = *ch.From
	}
	if ch.DurationInFrames != nil {
		el.DurationInFrames = *ch.DurationInFrames
	}
	if ch.Label != nil {
		el.Label = *ch.Label
	}
	if ch.Properties != nil {
		if el.Properties == nil {
			el.Properties = map[string]any{}
		}
		// Shallow merge: unspecified keys survive.
		for k, v := range ch.Properties {
			el.Properties[k] = v
		}
	}
	if ch.Animations != nil {
		el.Animations = append([]composition.Animation{}, *ch.Animations...)
	}
	if ch.AppendAnimation != nil {
		el.Animations = append(el.Animations, *ch.AppendAnimation)
	}

	warnings, err := composition.ValidateElement(updated.Metadata, *el)
	if err != nil {
		return failure(err.Error())
	}

	receipt := fmt.Sprintf("Updated %s element", el.Type)
	if el.Label != "" {
		receipt = fmt.Sprintf("Updated %q", el.Label)
	}
	return Result{
		Success:          true,
		UpdatedIR:        updated,
		AffectedElements: []string{id},
		Receipt:          receipt,
		Warnings:         warnings,
	}
}

func executeDelete(doc *composition.Document, p EditPlan, opts Options) Result {
	var targets []string
	if opts.ResolvedElementID != "" {
		if doc.FindElement(opts.ResolvedElementID) == nil {
			return failure(fmt.Sprintf("no element with id %q", opts.ResolvedElementID))
		}
		targets = []string{opts.ResolvedElementID}
	} else {
		res, err := selector.Resolve(doc, *p.Selector)
		if err != nil {
			return failure(err.Error())
		}
		if len(res.Matches) == 0 {
			return failure("no element matches the selector")
		}
		// A selector that legitimately matches several elements deletes all
		// of them in one call; this is the batch-delete path, not an error.
		for _, m := range res.Matches {
			targets = append(targets, m.ID)
		}
	}

	doomed := make(map[string]bool, len(targets))
	for _, id := range targets {
		doomed[id] = true
	}

	updated := doc.Clone()
	var kept []composition.Element
	var label string
	var typ composition.ElementType
	for _, el := range updated.Elements {
		if doomed[el.ID] {
			label, typ = el.Label, el.Type
			continue
		}
		kept = append(kept, el)
	}
	if kept == nil {
		kept = []composition.Element{}
	}
	updated.Elements = kept

	var receipt string
	switch {
	case len(targets) > 1:
		receipt = fmt.Sprintf("Deleted %d elements", len(targets))
	case label != "":
		receipt = fmt.Sprintf("Deleted %q", label)
	default:
		receipt = fmt.Sprintf("Deleted %s element", typ)
	}
	return Result{
		Success:          true,
		UpdatedIR:        updated,
		AffectedElements: targets,
		Receipt:          receipt,
	}
}

func executeMove(doc *composition.Document, p EditPlan, opts Options) Result {
	id, halt := resolveSingle(doc, p, opts)
	if halt != nil {
		return *halt
	}

	ch := p.Changes
	if ch.From == nil && ch.DurationInFrames == nil {
		return failure("move requires from and/or durationInFrames")
	}

	updated := doc.Clone()
	el := updated.FindElement(id)
	if ch.From != nil {
		el.From = *ch.From
	}
	if ch.DurationInFrames != nil {
		el.DurationInFrames = *ch.DurationInFrames
	}

	warnings, err := composition.ValidateElement(updated.Metadata, *el)
	if err != nil {
		return failure(err.Error())
	}

	receipt := fmt.Sprintf("Moved %s element", el.Type)
	if el.Label != "" {
		receipt = fmt.Sprintf("Moved %q", el.Label)
	}
	return Result{
		Success:          true,
		UpdatedIR:        updated,
		AffectedElements: []string{id},
		Receipt:          receipt,
		Warnings:         warnings,
	}
}
