// internal/bridge/tools.go
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"montage/internal/composition"
	"montage/internal/plan"
	"montage/internal/selector"
)

// Tool is one entry of the fixed catalog presented to the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Catalog returns the fixed tool set. Each invocation translates into
// exactly one EditPlan.
func Catalog() []Tool {
	return []Tool{
		{
			Name:        "add-video",
			Description: "Add a video clip to the timeline from an uploaded asset.",
			InputSchema: schema(`{"type":"object","properties":{"assetId":{"type":"string"},"label":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"},"volume":{"type":"number"},"playbackRate":{"type":"number"}},"required":["assetId"]}`),
		},
		{
			Name:        "add-audio",
			Description: "Add an audio track to the timeline from an uploaded asset.",
			InputSchema: schema(`{"type":"object","properties":{"assetId":{"type":"string"},"label":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"},"volume":{"type":"number"}},"required":["assetId"]}`),
		},
		{
			Name:        "add-text",
			Description: "Add a text element to the timeline.",
			InputSchema: schema(`{"type":"object","properties":{"text":{"type":"string"},"label":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"},"fontFamily":{"type":"string"},"fontSize":{"type":"number"},"color":{"type":"string"},"align":{"type":"string","enum":["left","center","right"]}},"required":["text"]}`),
		},
		{
			Name:        "add-image",
			Description: "Add an image element to the timeline.",
			InputSchema: schema(`{"type":"object","properties":{"assetId":{"type":"string"},"src":{"type":"string"},"label":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"},"fit":{"type":"string","enum":["contain","cover","fill"]}}}`),
		},
		{
			Name:        "add-shape",
			Description: "Add a shape element to the timeline.",
			InputSchema: schema(`{"type":"object","properties":{"shape":{"type":"string","enum":["rect","circle","triangle","line"]},"fill":{"type":"string"},"width":{"type":"number"},"height":{"type":"number"},"label":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"}},"required":["shape"]}`),
		},
		{
			Name:        "add-animation",
			Description: "Animate a property of an existing element with keyframes.",
			InputSchema: schema(`{"type":"object","properties":{"selector":{"type":"object"},"resolvedElementId":{"type":"string"},"property":{"type":"string"},"keyframes":{"type":"array","items":{"type":"object","properties":{"frame":{"type":"integer"},"value":{"type":"number"}}}},"easing":{"type":"string","enum":["linear","ease-in","ease-out","ease-in-out"]}},"required":["property","keyframes"]}`),
		},
		{
			Name:        "update-properties",
			Description: "Update properties, label, or timing of an existing element.",
			InputSchema: schema(`{"type":"object","properties":{"selector":{"type":"object"},"resolvedElementId":{"type":"string"},"properties":{"type":"object"},"label":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"}}}`),
		},
		{
			Name:        "delete-element",
			Description: "Delete the element(s) a selector matches.",
			InputSchema: schema(`{"type":"object","properties":{"selector":{"type":"object"},"resolvedElementId":{"type":"string"}}}`),
		},
		{
			Name:        "move-element",
			Description: "Change the start frame and/or duration of an element.",
			InputSchema: schema(`{"type":"object","properties":{"selector":{"type":"object"},"resolvedElementId":{"type":"string"},"from":{"type":"integer"},"durationInFrames":{"type":"integer"}}}`),
		},
	}
}

func schema(s string) json.RawMessage {
	return json.RawMessage(s)
}

// Translate turns one tool invocation into one EditPlan plus an optional
// pre-resolved element id. Arguments the model got wrong surface as errors
// that are fed back into the conversation, not thrown.
func Translate(toolName string, args []byte) (plan.EditPlan, string, error) {
	resolvedID := gjson.GetBytes(args, "resolvedElementId").String()

	switch toolName {
	case "add-video":
		return addPlan(composition.ElementVideo, args, map[string]string{
			"assetId": "assetId", "volume": "volume", "playbackRate": "playbackRate",
		}), resolvedID, nil
	case "add-audio":
		return addPlan(composition.ElementAudio, args, map[string]string{
			"assetId": "assetId", "volume": "volume",
		}), resolvedID, nil
	case "add-text":
		return addPlan(composition.ElementText, args, map[string]string{
			"text": "text", "fontFamily": "fontFamily", "fontSize": "fontSize",
			"color": "color", "align": "align",
		}), resolvedID, nil
	case "add-image":
		return addPlan(composition.ElementImage, args, map[string]string{
			"assetId": "assetId", "src": "src", "fit": "fit",
		}), resolvedID, nil
	case "add-shape":
		return addPlan(composition.ElementShape, args, map[string]string{
			"shape": "shape", "fill": "fill", "width": "width", "height": "height",
		}), resolvedID, nil
	case "add-animation":
		return translateAddAnimation(args, resolvedID)
	case "update-properties":
		return translateUpdate(args, resolvedID)
	case "delete-element":
		p := plan.EditPlan{Operation: plan.OpDelete}
		sel, err := parseSelector(args)
		if err != nil {
			return plan.EditPlan{}, "", err
		}
		p.Selector = sel
		return p, resolvedID, nil
	case "move-element":
		p := plan.EditPlan{Operation: plan.OpMove, Changes: &plan.Changes{}}
		sel, err := parseSelector(args)
		if err != nil {
			return plan.EditPlan{}, "", err
		}
		p.Selector = sel
		applyTiming(p.Changes, args)
		return p, resolvedID, nil
	default:
		return plan.EditPlan{}, "", fmt.Errorf("unknown tool %q", toolName)
	}
}

// addPlan builds an add plan, copying the mapped argument keys into the
// property bag and lifting the shared timing/label fields.
func addPlan(t composition.ElementType, args []byte, propKeys map[string]string) plan.EditPlan {
	ch := &plan.Changes{Type: t, Properties: map[string]any{}}
	for argKey, propKey := range propKeys {
		if v := gjson.GetBytes(args, argKey); v.Exists() {
			ch.Properties[propKey] = v.Value()
		}
	}
	if v := gjson.GetBytes(args, "label"); v.Exists() {
		label := v.String()
		ch.Label = &label
	}
	applyTiming(ch, args)
	return plan.EditPlan{Operation: plan.OpAdd, Changes: ch}
}

func translateAddAnimation(args []byte, resolvedID string) (plan.EditPlan, string, error) {
	sel, err := parseSelector(args)
	if err != nil {
		return plan.EditPlan{}, "", err
	}

	anim := composition.Animation{
		Property: composition.AnimatableProperty(gjson.GetBytes(args, "property").String()),
		Easing:   composition.Easing(gjson.GetBytes(args, "easing").String()),
	}
	for _, kf := range gjson.GetBytes(args, "keyframes").Array() {
		anim.Keyframes = append(anim.Keyframes, composition.Keyframe{
			Frame: int(kf.Get("frame").Int()),
			Value: kf.Get("value").Float(),
		})
	}
	if err := anim.Validate(); err != nil {
		return plan.EditPlan{}, "", err
	}

	return plan.EditPlan{
		Operation: plan.OpUpdate,
		Selector:  sel,
		Changes:   &plan.Changes{AppendAnimation: &anim},
	}, resolvedID, nil
}

func translateUpdate(args []byte, resolvedID string) (plan.EditPlan, string, error) {
	sel, err := parseSelector(args)
	if err != nil {
		return plan.EditPlan{}, "", err
	}

	ch := &plan.Changes{}
	if v := gjson.GetBytes(args, "properties"); v.Exists() {
		props, ok := v.Value().(map[string]any)
		if !ok {
			return plan.EditPlan{}, "", fmt.Errorf("properties must be an object")
		}
		ch.Properties = props
	}
	if v := gjson.GetBytes(args, "label"); v.Exists() {
		label := v.String()
		ch.Label = &label
	}
	applyTiming(ch, args)

	return plan.EditPlan{Operation: plan.OpUpdate, Selector: sel, Changes: ch}, resolvedID, nil
}

func applyTiming(ch *plan.Changes, args []byte) {
	if v := gjson.GetBytes(args, "from"); v.Exists() {
		from := int(v.Int())
		ch.From = &from
	}
	if v := gjson.GetBytes(args, "durationInFrames"); v.Exists() {
		dur := int(v.Int())
		ch.DurationInFrames = &dur
	}
}

// parseSelector decodes the selector argument, if present. A missing
// selector is fine when the call carries a resolvedElementId; the executor
// enforces that one of the two exists.
func parseSelector(args []byte) (*selector.Selector, error) {
	raw := gjson.GetBytes(args, "selector")
	if !raw.Exists() {
		return nil, nil
	}
	var sel selector.Selector
	if err := json.Unmarshal([]byte(raw.Raw), &sel); err != nil {
		return nil, fmt.Errorf("invalid selector: %w", err)
	}
	if sel.Kind == "" {
		return nil, fmt.Errorf("selector requires a kind")
	}
	return &sel, nil
}
