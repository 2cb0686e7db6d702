// internal/selector/selector.go
package selector

import (
	"fmt"
	"strings"

	"montage/internal/composition"
)

// Kind discriminates the selector union.
type Kind string

const (
	ByID    Kind = "byId"
	ByLabel Kind = "byLabel"
	ByIndex Kind = "byIndex"
	ByType  Kind = "byType"
)

// Selector is a loose reference to one or more elements. Exactly the fields
// for its Kind are meaningful; the rest are ignored.
type Selector struct {
	Kind Kind `json:"kind"`

	// byId
	ID string `json:"id,omitempty"`

	// byLabel
	Label   string `json:"label,omitempty"`
	Partial bool   `json:"partial,omitempty"`

	// byIndex. Parent is reserved for nested group resolution, which this
	// resolver does not implement; only top-level positions are picked.
	Index  *int   `json:"index,omitempty"`
	Parent string `json:"parent,omitempty"`

	// byType
	ElementType composition.ElementType `json:"elementType,omitempty"`
	Filter      map[string]any          `json:"filter,omitempty"`
}

// Option describes one candidate when a selector is ambiguous.
type Option struct {
	ElementID   string `json:"elementId"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description"`
}

// Result is the outcome of resolving a selector against a document.
type Result struct {
	Matches               []composition.Element `json:"matches"`
	IsAmbiguous           bool                  `json:"isAmbiguous"`
	DisambiguationOptions []Option              `json:"disambiguationOptions,omitempty"`
}

// Resolve matches a selector against the document. Zero matches is an empty
// result, not an error. Ambiguity is only ever surfaced for byLabel and
// byType; byId and byIndex are unambiguous by construction.
func Resolve(doc *composition.Document, sel Selector) (Result, error) {
	switch sel.Kind {
	case ByID:
		return resolveByID(doc, sel), nil
	case ByLabel:
		return resolveByLabel(doc, sel), nil
	case ByIndex:
		return resolveByIndex(doc, sel), nil
	case ByType:
		return resolveByType(doc, sel), nil
	default:
		return Result{}, fmt.Errorf("unknown selector kind %q", sel.Kind)
	}
}

func resolveByID(doc *composition.Document, sel Selector) Result {
	if el := doc.FindElement(sel.ID); el != nil {
		return Result{Matches: []composition.Element{el.Clone()}}
	}
	return Result{Matches: []composition.Element{}}
}

func resolveByLabel(doc *composition.Document, sel Selector) Result {
	want := strings.ToLower(sel.Label)
	var matches []composition.Element
	for _, el := range doc.Elements {
		label := strings.ToLower(el.Label)
		if label == want || (sel.Partial && label != "" && strings.Contains(label, want)) {
			matches = append(matches, el.Clone())
		}
	}
	return ambiguate(doc, matches)
}

func resolveByIndex(doc *composition.Document, sel Selector) Result {
	if sel.Index == nil || *sel.Index < 0 || *sel.Index >= len(doc.Elements) {
		return Result{Matches: []composition.Element{}}
	}
	return Result{Matches: []composition.Element{doc.Elements[*sel.Index].Clone()}}
}

func resolveByType(doc *composition.Document, sel Selector) Result {
	var ofType []composition.Element
	for _, el := range doc.Elements {
		if el.Type == sel.ElementType {
			ofType = append(ofType, el.Clone())
		}
	}

	if sel.Index != nil {
		if *sel.Index < 0 || *sel.Index >= len(ofType) {
			return Result{Matches: []composition.Element{}}
		}
		return Result{Matches: []composition.Element{ofType[*sel.Index]}}
	}

	if len(sel.Filter) > 0 {
		var filtered []composition.Element
		for _, el := range ofType {
			if matchesFilter(el, sel.Filter) {
				filtered = append(filtered, el)
			}
		}
		return ambiguate(doc, filtered)
	}

	return ambiguate(doc, ofType)
}

// ambiguate wraps matches, flagging 2+ as ambiguous with one option each.
func ambiguate(doc *composition.Document, matches []composition.Element) Result {
	if matches == nil {
		matches = []composition.Element{}
	}
	res := Result{Matches: matches}
	if len(matches) > 1 {
		res.IsAmbiguous = true
		res.DisambiguationOptions = make([]Option, len(matches))
		for i, el := range matches {
			res.DisambiguationOptions[i] = Option{
				ElementID:   el.ID,
				Label:       el.Label,
				Description: Describe(doc.Metadata, el),
			}
		}
	}
	return res
}

// matchesFilter reports whether every filter key equals the corresponding
// element field. Top-level fields are checked first, then the property bag.
func matchesFilter(el composition.Element, filter map[string]any) bool {
	for key, want := range filter {
		var got any
		switch key {
		case "id":
			got = el.ID
		case "type":
			got = string(el.Type)
		case "label":
			got = el.Label
		case "from":
			got = el.From
		case "durationInFrames":
			got = el.DurationInFrames
		default:
			v, ok := el.Properties[key]
			if !ok {
				return false
			}
			got = v
		}
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares values the way JSON-decoded filters need: numbers
// compare across int/float representations, everything else by equality.
func looseEqual(a, b any) bool {
	if an, ok := composition.AsNumber(a); ok {
		if bn, ok := composition.AsNumber(b); ok {
			return an == bn
		}
		return false
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
		if bt, ok := b.(composition.ElementType); ok {
			return as == string(bt)
		}
		return false
	}
	return a == b
}
