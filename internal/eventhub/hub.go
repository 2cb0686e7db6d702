// internal/eventhub/hub.go
package eventhub

import "context"

// Broadcaster pushes an event to every connected client.
type Broadcaster interface {
	BroadcastEvent(eventType string, payload any)
}

// EventHub is the single fan-out point for engine events. Components emit
// through typed helpers; the transport behind Broadcaster is pluggable.
type EventHub struct {
	ctx         context.Context
	broadcaster Broadcaster
}

// New creates a new EventHub.
func New(ctx context.Context) *EventHub {
	return &EventHub{ctx: ctx}
}

// SetBroadcaster attaches the transport. Events emitted before this are
// dropped.
func (h *EventHub) SetBroadcaster(b Broadcaster) {
	h.broadcaster = b
}

func (h *EventHub) emit(eventType string, payload any) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastEvent(eventType, payload)
	}
}

// Emit sends an arbitrary event.
func (h *EventHub) Emit(eventType string, payload any) {
	h.emit(eventType, payload)
}

// CompositionChangedEvent is emitted after every committed mutation.
type CompositionChangedEvent struct {
	CompositionID    string   `json:"compositionId"`
	Version          int      `json:"version"`
	Receipt          string   `json:"receipt"`
	AffectedElements []string `json:"affectedElements"`
}

func (h *EventHub) EmitCompositionChanged(event CompositionChangedEvent) {
	h.emit("composition:changed", event)
}

// CompositionRevertedEvent is emitted after undo or redo.
type CompositionRevertedEvent struct {
	CompositionID string `json:"compositionId"`
	Version       int    `json:"version"`
	Direction     string `json:"direction"` // "undo" or "redo"
	Description   string `json:"description"`
}

func (h *EventHub) EmitCompositionReverted(event CompositionRevertedEvent) {
	h.emit("composition:reverted", event)
}

// AssetReadyEvent is emitted when a registered asset becomes usable.
type AssetReadyEvent struct {
	AssetID string `json:"assetId"`
	Src     string `json:"src"`
}

func (h *EventHub) EmitAssetReady(event AssetReadyEvent) {
	h.emit("asset:ready", event)
}
