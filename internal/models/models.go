package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the direction of money movement in an alert
type Direction string

const (
	// DirectionDebit represents money leaving the account
	DirectionDebit Direction = "DEBIT"
	// DirectionCredit represents money arriving in the account
	DirectionCredit Direction = "CREDIT"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// ParseDirection parses and validates a direction from string
func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	switch s {
	case "DEBIT", "D", "DR":
		return DirectionDebit, nil
	case "CREDIT", "C", "CR":
		return DirectionCredit, nil
	default:
		return "", fmt.Errorf("invalid direction '%s': must be DEBIT or CREDIT", s)
	}
}

// FieldName names an extractable field of an alert
type FieldName string

const (
	FieldAmount      FieldName = "amount"
	FieldCurrency    FieldName = "currency"
	FieldDescription FieldName = "description"
	FieldAccount     FieldName = "account"
	FieldDate        FieldName = "date"
	FieldDirection   FieldName = "direction"
)

// IsValid reports whether the name is one of the known fields.
func (f FieldName) IsValid() bool {
	switch f {
	case FieldAmount, FieldCurrency, FieldDescription, FieldAccount, FieldDate, FieldDirection:
		return true
	}
	return false
}

// MessagePart is one node of a multi-part message body
type MessagePart struct {
	MimeType string         `json:"mime_type"`
	Body     string         `json:"body,omitempty"`
	Parts    []*MessagePart `json:"parts,omitempty"`
}

// RawMessage is one notification as delivered by the mailbox transport.
// It is never persisted as-is.
type RawMessage struct {
	SourceID   string       `json:"source_id"`
	ThreadID   string       `json:"thread_id"`
	ReceivedAt time.Time    `json:"received_at"`
	BodyText   string       `json:"body_text,omitempty"`
	From       string       `json:"from,omitempty"`
	Subject    string       `json:"subject,omitempty"`
	Payload    *MessagePart `json:"payload,omitempty"`
}

// Validate performs basic validation on the RawMessage
func (m *RawMessage) Validate() error {
	if strings.TrimSpace(m.SourceID) == "" {
		return fmt.Errorf("message source ID cannot be empty")
	}
	return nil
}

// String returns a string representation of the RawMessage
func (m *RawMessage) String() string {
	return fmt.Sprintf("RawMessage{ID: %s, Thread: %s, From: %s, Received: %s}",
		m.SourceID, m.ThreadID, m.From, m.ReceivedAt.Format(time.RFC3339))
}

// AccountRosterEntry is a financial account the resolver can match alerts to
type AccountRosterEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Number   string   `json:"number,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Validate performs basic validation on the roster entry
func (a *AccountRosterEntry) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account %s: name cannot be empty", a.ID)
	}
	return nil
}

// Digits returns only the digits of the account number.
func (a *AccountRosterEntry) Digits() string {
	return OnlyDigits(a.Number)
}

// Suffix returns the last n digits of the account number, or "" if the
// number is shorter than n.
func (a *AccountRosterEntry) Suffix(n int) string {
	digits := a.Digits()
	if len(digits) < n {
		return ""
	}
	return digits[len(digits)-n:]
}

// OnlyDigits strips every non-digit rune from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StoredTransaction is what the persistence boundary hands back
type StoredTransaction struct {
	ID             string               `json:"id"`
	SourceThreadID string               `json:"source_thread_id"`
	SourceID       string               `json:"source_id"`
	RawText        string               `json:"raw_text,omitempty"`
	Candidate      CandidateTransaction `json:"candidate"`
	PersistedAt    time.Time            `json:"persisted_at"`
}

// ParseAmount parses a decimal value from an alert or CSV amount string,
// dropping grouping separators and common currency markers
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	for _, marker := range []string{"₹", "$", "€", "£", "Rs.", "Rs", "INR", "USD", "EUR", "GBP"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}
