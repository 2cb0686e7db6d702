// internal/eventhub/hub_test.go
package eventhub

import (
	"context"
	"testing"
)

type captureBroadcaster struct {
	events []string
	last   any
}

func (c *captureBroadcaster) BroadcastEvent(eventType string, payload any) {
	c.events = append(c.events, eventType)
	c.last = payload
}

func TestEventHub(t *testing.T) {
	hub := New(context.Background())

	t.Run("DroppedWithoutBroadcaster", func(t *testing.T) {
		hub.EmitCompositionChanged(CompositionChangedEvent{CompositionID: "c1"})
	})

	t.Run("TypedEvents", func(t *testing.T) {
		b := &captureBroadcaster{}
		hub.SetBroadcaster(b)

		hub.EmitCompositionChanged(CompositionChangedEvent{CompositionID: "c1", Version: 2})
		hub.EmitCompositionReverted(CompositionRevertedEvent{CompositionID: "c1", Direction: "undo"})
		hub.EmitAssetReady(AssetReadyEvent{AssetID: "a1", Src: "/media/a1.mp4"})

		want := []string{"composition:changed", "composition:reverted", "asset:ready"}
		if len(b.events) != len(want) {
			t.Fatalf("Expected %d events, got %d", len(want), len(b.events))
		}
		for i, typ := range want {
			if b.events[i] != typ {
				t.Errorf("Expected event %s, got %s", typ, b.events[i])
			}
		}
		evt, ok := b.last.(AssetReadyEvent)
		if !ok || evt.AssetID != "a1" {
			t.Errorf("Expected AssetReadyEvent for a1, got %#v", b.last)
		}
	})
}
