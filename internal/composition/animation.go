// internal/composition/animation.go
package composition

import "fmt"

// AnimatableProperty is a visual property that can be keyframed.
type AnimatableProperty string

const (
	PropOpacity    AnimatableProperty = "opacity"
	PropScale      AnimatableProperty = "scale"
	PropScaleX     AnimatableProperty = "scaleX"
	PropScaleY     AnimatableProperty = "scaleY"
	PropRotate     AnimatableProperty = "rotate"
	PropRotateX    AnimatableProperty = "rotateX"
	PropRotateY    AnimatableProperty = "rotateY"
	PropTranslateX AnimatableProperty = "translateX"
	PropTranslateY AnimatableProperty = "translateY"
	PropSkewX      AnimatableProperty = "skewX"
	PropSkewY      AnimatableProperty = "skewY"

	// Legacy aliases for translateX/translateY, still accepted.
	PropX AnimatableProperty = "x"
	PropY AnimatableProperty = "y"
)

var animatableProperties = map[AnimatableProperty]bool{
	PropOpacity: true, PropScale: true, PropScaleX: true, PropScaleY: true,
	PropRotate: true, PropRotateX: true, PropRotateY: true,
	PropTranslateX: true, PropTranslateY: true,
	PropSkewX: true, PropSkewY: true,
	PropX: true, PropY: true,
}

// Easing selects the interpolation curve between keyframes.
type Easing string

const (
	EaseLinear    Easing = "linear"
	EaseIn        Easing = "ease-in"
	EaseOut       Easing = "ease-out"
	EaseInOut     Easing = "ease-in-out"
	DefaultEasing        = EaseLinear
)

var knownEasings = map[Easing]bool{
	EaseLinear: true, EaseIn: true, EaseOut: true, EaseInOut: true,
}

// Keyframe pins a property value at a frame. Frame numbers are relative to
// the owning element's from, not absolute timeline frames.
type Keyframe struct {
	Frame int     `json:"frame"`
	Value float64 `json:"value"`
}

// Animation keyframes one property of an element. A single keyframe is
// treated as a constant value; two or more interpolate.
type Animation struct {
	Property  AnimatableProperty `json:"property"`
	Keyframes []Keyframe         `json:"keyframes"`
	Easing    Easing             `json:"easing,omitempty"`
}

// Clone returns a deep copy of the animation.
func (a Animation) Clone() Animation {
	out := a
	out.Keyframes = make([]Keyframe, len(a.Keyframes))
	copy(out.Keyframes, a.Keyframes)
	return out
}

// Validate checks the animation against the fixed property and easing sets.
func (a Animation) Validate() error {
	if !animatableProperties[a.Property] {
		return fmt.Errorf("unknown animatable property %q", a.Property)
	}
	if len(a.Keyframes) == 0 {
		return fmt.Errorf("animation of %q has no keyframes", a.Property)
	}
	for i, kf := range a.Keyframes {
		if kf.Frame < 0 {
			return fmt.Errorf("animation of %q: keyframe %d has negative frame %d", a.Property, i, kf.Frame)
		}
		if i > 0 && kf.Frame < a.Keyframes[i-1].Frame {
			return fmt.Errorf("animation of %q: keyframes out of order at index %d", a.Property, i)
		}
	}
	if a.Easing != "" && !knownEasings[a.Easing] {
		return fmt.Errorf("unknown easing %q", a.Easing)
	}
	return nil
}

// ValueAt interpolates the animated value at a frame relative to the
// element's start, applying the animation's easing between keyframes.
func (a Animation) ValueAt(frame int) float64 {
	kfs := a.Keyframes
	if len(kfs) == 0 {
		return 0
	}
	if frame <= kfs[0].Frame || len(kfs) == 1 {
		return kfs[0].Value
	}
	last := kfs[len(kfs)-1]
	if frame >= last.Frame {
		return last.Value
	}
	for i := 0; i < len(kfs)-1; i++ {
		lo, hi := kfs[i], kfs[i+1]
		if frame < lo.Frame || frame >= hi.Frame {
			continue
		}
		span := float64(hi.Frame - lo.Frame)
		if span == 0 {
			return hi.Value
		}
		t := float64(frame-lo.Frame) / span
		t = ease(a.Easing, t)
		return lo.Value + (hi.Value-lo.Value)*t
	}
	return last.Value
}

// ease maps a linear progress value through the named curve.
func ease(e Easing, t float64) float64 {
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - 2*(1-t)*(1-t)
	default:
		return t
	}
}
