// Package interpreter extracts a structured skin profile from the free-text
// reply of the analysis service.
package interpreter

import (
	"strings"
)

// Profile is the structured reading of one analysis message.
type Profile struct {
	SkinType         string   `json:"skinType"`
	RecommendedRange string   `json:"recommendedRange"`
	GlobalAppearance string   `json:"globalAppearance"`
	Observations     []string `json:"observations"`
	Priorities       []string `json:"priorities"`
}

// Interpret is total and deterministic: the same message always yields the
// same profile, and an unusable message yields the fallback content.
func Interpret(message string) Profile {
	skinType, ok := firstMatch(skinTypeRules, message)
	if !ok {
		skinType = UnspecifiedSkinType
	}
	rng, _ := firstMatch(rangeRules, message)

	observations := extractObservations(message)
	if len(observations) == 0 {
		observations = []string{fallbackObservation, excerpt(message) + "..."}
	}

	priorities := derivePriorities(message)
	if len(priorities) == 0 {
		priorities = []string{fallbackPriority}
	}

	return Profile{
		SkinType:         skinType,
		RecommendedRange: rng,
		GlobalAppearance: message,
		Observations:     observations,
		Priorities:       priorities,
	}
}

// extractObservations keeps bullet lines unconditionally and unmarked
// keyword lines only while fewer than four candidates exist, then keeps the
// first four in line order.
func extractObservations(message string) []string {
	var pool []string
	for _, line := range splitLines(message) {
		if loc := bulletPattern.FindStringIndex(line); loc != nil {
			if text := strings.TrimSpace(line[loc[1]:]); text != "" {
				pool = append(pool, text)
			}
			continue
		}
		if len(pool) < maxObservations && observationKeywords.MatchString(line) {
			pool = append(pool, line)
		}
	}
	if len(pool) > maxObservations {
		pool = pool[:maxObservations]
	}
	return pool
}

func derivePriorities(message string) []string {
	var out []string
	for _, r := range priorityRules {
		if r.pattern.MatchString(message) {
			out = append(out, r.value)
		}
	}
	if len(out) > maxPriorities {
		out = out[:maxPriorities]
	}
	return out
}

// splitLines returns the trimmed non-blank lines of s.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// excerpt cuts s to its first excerptRunes characters.
func excerpt(s string) string {
	r := []rune(s)
	if len(r) > excerptRunes {
		return string(r[:excerptRunes])
	}
	return s
}
