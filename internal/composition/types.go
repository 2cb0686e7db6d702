// internal/composition/types.go
package composition

import "github.com/google/uuid"

// ElementType identifies the kind of timeline element. The set is closed;
// anything else is rejected at the document-model boundary.
type ElementType string

const (
	ElementVideo ElementType = "video"
	ElementAudio ElementType = "audio"
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
	ElementShape ElementType = "shape"
	ElementGroup ElementType = "group"
)

// KnownElementTypes lists every valid element type.
var KnownElementTypes = []ElementType{
	ElementVideo, ElementAudio, ElementText, ElementImage, ElementShape, ElementGroup,
}

// IsKnownElementType reports whether t is a member of the closed type set.
func IsKnownElementType(t ElementType) bool {
	for _, k := range KnownElementTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Metadata holds the canvas and timing parameters of a composition.
// Effectively immutable after creation; no edit operation touches it.
type Metadata struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	FPS              float64 `json:"fps"`
	DurationInFrames int     `json:"durationInFrames"`
}

// DefaultMetadata returns the canvas parameters used for new compositions.
func DefaultMetadata() Metadata {
	return Metadata{Width: 1920, Height: 1080, FPS: 30, DurationInFrames: 300}
}

// Element is one timed, typed item on the timeline.
type Element struct {
	ID               string         `json:"id"`
	Type             ElementType    `json:"type"`
	From             int            `json:"from"`
	DurationInFrames int            `json:"durationInFrames"`
	Label            string         `json:"label,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
	Animations       []Animation    `json:"animations,omitempty"`
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	out := e
	if e.Properties != nil {
		out.Properties = make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			out.Properties[k] = v
		}
	}
	if e.Animations != nil {
		out.Animations = make([]Animation, len(e.Animations))
		for i, a := range e.Animations {
			out.Animations[i] = a.Clone()
		}
	}
	return out
}

// Document is the single source of truth for one timeline ("IR").
// Element order is significant: later elements render on top.
type Document struct {
	ID       string    `json:"id"`
	Version  int       `json:"version"`
	Metadata Metadata  `json:"metadata"`
	Elements []Element `json:"elements"`
}

// NewDocument creates an empty document with default metadata and version 0.
func NewDocument() *Document {
	return &Document{
		ID:       uuid.New().String(),
		Metadata: DefaultMetadata(),
		Elements: []Element{},
	}
}

// Clone returns a deep copy of the document. Every mutation path works on a
// clone so the previous value is never observed changing.
func (d *Document) Clone() *Document {
	out := &Document{
		ID:       d.ID,
		Version:  d.Version,
		Metadata: d.Metadata,
		Elements: make([]Element, len(d.Elements)),
	}
	for i, e := range d.Elements {
		out.Elements[i] = e.Clone()
	}
	return out
}

// FindElement returns the element with the given id, or nil.
func (d *Document) FindElement(id string) *Element {
	for i := range d.Elements {
		if d.Elements[i].ID == id {
			return &d.Elements[i]
		}
	}
	return nil
}

// ElementIDs returns the ids of all elements in render order.
func (d *Document) ElementIDs() []string {
	ids := make([]string, len(d.Elements))
	for i, e := range d.Elements {
		ids[i] = e.ID
	}
	return ids
}

// NewElementID generates a fresh element id.
func NewElementID() string {
	return uuid.New().String()
}
