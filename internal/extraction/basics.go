package extraction

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"golang-alert-ingestion-service/internal/models"
)

// Basics holds every deterministic field of one alert along with the rule
// that produced it.
type Basics struct {
	Amount      Field[decimal.Decimal]
	Currency    Field[string]
	Description Field[string]
	Account     Field[string]
	OccurredAt  Field[time.Time]
	Direction   Field[models.Direction]
}

// FieldDiagnostic records which rule produced a field.
type FieldDiagnostic struct {
	Field      models.FieldName `json:"field"`
	Value      string           `json:"value,omitempty"`
	RuleID     string           `json:"rule_id,omitempty"`
	Confidence int              `json:"confidence"`
	Present    bool             `json:"present"`
}

// Deterministic converts the basics into the deterministic track of a
// candidate. The account identifier is not copied: the resolver sets the
// account reference.
func (b Basics) Deterministic() models.DeterministicFields {
	det := models.DeterministicFields{
		Description: b.Description.Value,
		Direction:   b.Direction.OrElse(models.DirectionDebit),
		OccurredAt:  b.OccurredAt.Value,
		Currency:    b.Currency.Value,
	}
	if b.Amount.Present {
		det.Amount = decimal.NewNullDecimal(b.Amount.Value)
	}
	return det
}

// Diagnostics lists every field in a fixed order.
func (b Basics) Diagnostics() []FieldDiagnostic {
	return []FieldDiagnostic{
		diagnostic(models.FieldAmount, b.Amount, func(v decimal.Decimal) string { return v.String() }),
		diagnostic(models.FieldCurrency, b.Currency, identity),
		diagnostic(models.FieldDescription, b.Description, identity),
		diagnostic(models.FieldAccount, b.Account, identity),
		diagnostic(models.FieldDate, b.OccurredAt, func(v time.Time) string { return v.Format(time.RFC3339) }),
		diagnostic(models.FieldDirection, b.Direction, func(v models.Direction) string { return v.String() }),
	}
}

func diagnostic[T any](name models.FieldName, f Field[T], format func(T) string) FieldDiagnostic {
	d := FieldDiagnostic{
		Field:      name,
		RuleID:     f.RuleID,
		Confidence: f.Confidence,
		Present:    f.Present,
	}
	if f.Present {
		d.Value = format(f.Value)
	}
	return d
}

func identity(s string) string { return s }

var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate accepts ISO dates, day-month-name dates and numeric
// day-month-year dates.
func parseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '-' || r == ',' || r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, month, year := parts[0], parts[1], parts[2]

	yearLayout := "2006"
	if len(year) == 2 {
		yearLayout = "06"
	}

	if isLetters(month) && len(month) >= 3 {
		month = strings.ToUpper(month[:1]) + strings.ToLower(month[1:3])
		t, err := time.ParseInLocation("2 Jan "+yearLayout, fmt.Sprintf("%s %s %s", day, month, year), loc)
		return t, err == nil
	}

	t, err := time.ParseInLocation("2/1/"+yearLayout, fmt.Sprintf("%s/%s/%s", day, month, year), loc)
	return t, err == nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
