// internal/selector/describe.go
package selector

import (
	"fmt"

	"montage/internal/composition"
)

// Describe builds the human-readable candidate description used in
// disambiguation prompts: element type, start time, and duration, with
// frame counts converted to seconds through the composition fps.
func Describe(meta composition.Metadata, el composition.Element) string {
	start := formatSeconds(framesToSeconds(el.From, meta.FPS))
	dur := formatSeconds(framesToSeconds(el.DurationInFrames, meta.FPS))
	if el.Label != "" {
		return fmt.Sprintf("%s %q starting at %s (%s long)", el.Type, el.Label, start, dur)
	}
	return fmt.Sprintf("%s element starting at %s (%s long)", el.Type, start, dur)
}

func framesToSeconds(frames int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frames) / fps
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.1fs", s)
}
