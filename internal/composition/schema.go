// internal/composition/schema.go
package composition

import "fmt"

// propertyRule validates one property value.
type propertyRule func(key string, v any) error

// propertySchemas is the closed per-type property set. Each element type
// carries only the keys listed here; anything else is rejected at the
// document-model boundary, so call sites never need their own checks.
var propertySchemas = map[ElementType]map[string]propertyRule{
	ElementVideo: {
		"src":          isString,
		"assetId":      isString,
		"volume":       numberInRange(0, 1, true),
		"playbackRate": numberInRange(0, 10, false),
		"opacity":      numberInRange(0, 1, true),
		"fit":          stringOneOf("contain", "cover", "fill"),
		"muted":        isBool,
	},
	ElementAudio: {
		"src":          isString,
		"assetId":      isString,
		"volume":       numberInRange(0, 1, true),
		"playbackRate": numberInRange(0, 10, false),
	},
	ElementText: {
		"text":       isString,
		"fontFamily": isString,
		"fontSize":   positiveNumber,
		"fontWeight": isString,
		"color":      isString,
		"align":      stringOneOf("left", "center", "right"),
		"opacity":    numberInRange(0, 1, true),
	},
	ElementImage: {
		"src":     isString,
		"assetId": isString,
		"fit":     stringOneOf("contain", "cover", "fill"),
		"opacity": numberInRange(0, 1, true),
	},
	ElementShape: {
		"shape":       stringOneOf("rect", "circle", "triangle", "line"),
		"fill":        isString,
		"stroke":      isString,
		"strokeWidth": nonNegativeNumber,
		"width":       positiveNumber,
		"height":      positiveNumber,
		"opacity":     numberInRange(0, 1, true),
	},
	ElementGroup: {
		"direction": stringOneOf("sequence", "stack"),
		"opacity":   numberInRange(0, 1, true),
	},
}

// requiredProperties must be present after an add completes.
var requiredProperties = map[ElementType][]string{
	ElementText:  {"text"},
	ElementShape: {"shape"},
}

// ValidateProperties checks a property bag against the schema for t.
func ValidateProperties(t ElementType, props map[string]any) error {
	schema, ok := propertySchemas[t]
	if !ok {
		return fmt.Errorf("unknown element type %q", t)
	}
	for key, val := range props {
		rule, ok := schema[key]
		if !ok {
			return fmt.Errorf("property %q is not valid for %s elements", key, t)
		}
		if err := rule(key, val); err != nil {
			return err
		}
	}
	return nil
}

// ValidateElement enforces the invariants that must hold for every element
// at the boundary of every mutating operation. It returns a hard error for
// violations and advisory warnings for conditions that do not block the
// edit (an element extending past the composition duration).
func ValidateElement(meta Metadata, e Element) ([]string, error) {
	if !IsKnownElementType(e.Type) {
		return nil, fmt.Errorf("unknown element type %q", e.Type)
	}
	if e.From < 0 {
		return nil, fmt.Errorf("from must be >= 0, got %d", e.From)
	}
	if e.DurationInFrames <= 0 {
		return nil, fmt.Errorf("durationInFrames must be > 0, got %d", e.DurationInFrames)
	}
	if err := ValidateProperties(e.Type, e.Properties); err != nil {
		return nil, err
	}
	for _, req := range requiredProperties[e.Type] {
		if _, ok := e.Properties[req]; !ok {
			return nil, fmt.Errorf("%s elements require property %q", e.Type, req)
		}
	}
	for _, anim := range e.Animations {
		if err := anim.Validate(); err != nil {
			return nil, err
		}
	}

	var warnings []string
	if end := e.From + e.DurationInFrames; meta.DurationInFrames > 0 && end > meta.DurationInFrames {
		warnings = append(warnings, fmt.Sprintf(
			"element ends at frame %d, past the composition duration of %d frames", end, meta.DurationInFrames))
	}
	return warnings, nil
}

// AsNumber coerces a JSON-decoded value to float64. JSON numbers decode as
// float64, but properties set in Go code may be ints.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func isString(key string, v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("property %q must be a string", key)
	}
	return nil
}

func isBool(key string, v any) error {
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("property %q must be a boolean", key)
	}
	return nil
}

// numberInRange validates (min, max] or [min, max] depending on inclusiveMin.
func numberInRange(min, max float64, inclusiveMin bool) propertyRule {
	return func(key string, v any) error {
		n, ok := AsNumber(v)
		if !ok {
			return fmt.Errorf("property %q must be a number", key)
		}
		if n > max || n < min || (!inclusiveMin && n == min) {
			open := "("
			if inclusiveMin {
				open = "["
			}
			return fmt.Errorf("property %q must be in %s%g, %g], got %g", key, open, min, max, n)
		}
		return nil
	}
}

func positiveNumber(key string, v any) error {
	n, ok := AsNumber(v)
	if !ok {
		return fmt.Errorf("property %q must be a number", key)
	}
	if n <= 0 {
		return fmt.Errorf("property %q must be > 0, got %g", key, n)
	}
	return nil
}

func nonNegativeNumber(key string, v any) error {
	n, ok := AsNumber(v)
	if !ok {
		return fmt.Errorf("property %q must be a number", key)
	}
	if n < 0 {
		return fmt.Errorf("property %q must be >= 0, got %g", key, n)
	}
	return nil
}

func stringOneOf(allowed ...string) propertyRule {
	return func(key string, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("property %q must be a string", key)
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("property %q must be one of %v, got %q", key, allowed, s)
	}
}
