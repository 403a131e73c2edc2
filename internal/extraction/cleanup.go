package extraction

import (
	"strings"
	"unicode/utf8"
)

const trailingPunctuation = ".,;:-!?*#|/\\\"' "

// cleanDescription trims a captured description: it cuts at the first
// footer marker and the first stop label, strips trailing punctuation,
// collapses spaces and caps the length.
func (e *Extractor) cleanDescription(value string) string {
	value = cutAtAny(value, e.footerMarkers)
	value = cutAtAny(value, e.stopLabels)

	value = strings.Join(strings.Fields(value), " ")
	value = strings.TrimLeft(value, ":- ")
	value = strings.TrimRight(value, trailingPunctuation)

	if utf8.RuneCountInString(value) > e.config.MaxDescriptionLength {
		runes := []rune(value)
		value = strings.TrimRight(string(runes[:e.config.MaxDescriptionLength]), trailingPunctuation)
	}

	return value
}

// cutAtAny truncates s at the earliest case-insensitive occurrence of any
// marker.
func cutAtAny(s string, markers []string) string {
	cut := len(s)
	for _, marker := range markers {
		if i := indexFold(s, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}

func indexFold(s, substr string) int {
	n := len(substr)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
