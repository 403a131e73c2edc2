package enrichment

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang-alert-ingestion-service/internal/models"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrMalformedResponse marks oracle output that holds no usable object
var ErrMalformedResponse = pkgerrors.New("malformed oracle response")

// OracleResponse is the parsed oracle object. Absent values stay zero.
type OracleResponse struct {
	Amount      decimal.NullDecimal
	Description string
	Direction   models.Direction
	Account     string
	Currency    string
	Category    string
}

// ToFields maps the response onto the enrichment track. AccountRef is left
// empty; the raw account text needs resolving against the roster first.
func (r *OracleResponse) ToFields() models.EnrichmentFields {
	return models.EnrichmentFields{
		Amount:      r.Amount,
		Description: r.Description,
		Direction:   r.Direction,
		Currency:    r.Currency,
		Category:    r.Category,
	}
}

// looseString accepts a JSON string, number, bool or null
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(data)
	return nil
}

type wireResponse struct {
	Amount      json.RawMessage `json:"amount"`
	Description looseString     `json:"description"`
	Type        looseString     `json:"type"`
	Account     looseString     `json:"account"`
	Currency    looseString     `json:"currency"`
	Category    looseString     `json:"category"`
}

// ExtractJSONObject returns the first balanced {...} in raw. Braces inside
// string literals do not count, and escaped quotes do not end a string.
// Prose and code fences around the object are ignored.
func ExtractJSONObject(raw string) (string, error) {
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchBrace(raw, start); end > 0 {
			return raw[start : end+1], nil
		}

		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", pkgerrors.Wrap(ErrMalformedResponse, "no balanced JSON object")
}

// matchBrace returns the index of the brace closing the one at start, or -1
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseResponse extracts and decodes the oracle object
func ParseResponse(raw string) (*OracleResponse, error) {
	object, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(object), &wire); err != nil {
		return nil, pkgerrors.Wrapf(ErrMalformedResponse, "decode object: %v", err)
	}

	response := &OracleResponse{
		Description: strings.TrimSpace(string(wire.Description)),
		Account:     strings.TrimSpace(string(wire.Account)),
		Currency:    strings.ToUpper(strings.TrimSpace(string(wire.Currency))),
		Category:    strings.TrimSpace(string(wire.Category)),
	}

	amount, err := parseAmount(wire.Amount)
	if err != nil {
		return nil, err
	}
	response.Amount = amount

	if t := strings.TrimSpace(string(wire.Type)); t != "" {
		direction, err := models.ParseDirection(t)
		if err != nil {
			return nil, pkgerrors.Wrapf(ErrMalformedResponse, "type: %v", err)
		}
		response.Direction = direction
	}

	return response, nil
}

// parseAmount accepts a JSON number or a string with grouping separators
func parseAmount(data json.RawMessage) (decimal.NullDecimal, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return decimal.NullDecimal{}, nil
	}

	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return decimal.NullDecimal{}, pkgerrors.Wrapf(ErrMalformedResponse, "amount: %v", err)
		}
		if strings.TrimSpace(text) == "" {
			return decimal.NullDecimal{}, nil
		}
	}

	value, err := models.ParseAmount(text)
	if err != nil {
		return decimal.NullDecimal{}, pkgerrors.Wrapf(ErrMalformedResponse, "amount: %v", err)
	}
	return decimal.NewNullDecimal(value.Abs()), nil
}
