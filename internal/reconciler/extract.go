// Package reconciler turns raw model output into an AnalysisResult and
// produces mock results when no model output is available.
package reconciler

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON returns the trimmed body of the first fenced block in text, or
// the trimmed text when there is no fence.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
