package extraction

// Field is the result of running one rule table over a text. Absence is a
// value, not an error: Present is false and RuleID is empty.
type Field[T any] struct {
	Value      T
	Present    bool
	Confidence int
	RuleID     string
}

// Absent returns an empty field.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Found returns a present field attributed to a rule.
func Found[T any](value T, confidence int, ruleID string) Field[T] {
	return Field[T]{
		Value:      value,
		Present:    true,
		Confidence: confidence,
		RuleID:     ruleID,
	}
}

// IsHighConfidence reports whether the field is present with at least the
// given confidence.
func (f Field[T]) IsHighConfidence(threshold int) bool {
	return f.Present && f.Confidence >= threshold
}

// OrElse returns the value, or def when the field is absent.
func (f Field[T]) OrElse(def T) T {
	if !f.Present {
		return def
	}
	return f.Value
}
