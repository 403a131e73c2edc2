package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang-alert-ingestion-service/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minBareNumberLength is the shortest unlabelled digit run taken as a full
// account number. Amounts, dates and suffixes are all shorter.
const minBareNumberLength = 9

var (
	digitRunPattern = regexp.MustCompile(`\d+(?:-\d+)*`)

	// XX1234, **1234, x-1234
	maskedDigitsPattern = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])[x*•]+[\s-]?(\d+)`)

	// a/c 501000123456, Account 5010-0012-3456, ending 1234
	labelledDigitsPattern = regexp.MustCompile(
		`(?i)\b(?:a/c|acct|account|card|ending(?:\s+(?:in|with))?)(?:\s*(?:no\.?|number|#))?[\s.:#-]*(\d+(?:-\d+)*)`)
)

// foldedText is the combined alert text prepared for comparison.
// accountDigits holds digit runs that are known to identify an account: the
// supplementary identifiers and masked or labelled runs in the free text.
// bareDigits holds every other run and only counts as a full number.
type foldedText struct {
	tokens        []string
	padded        string
	accountDigits []string
	bareDigits    []string
}

// indexedEntry holds the folded forms of one roster entry
type indexedEntry struct {
	entry    *models.AccountRosterEntry
	name     string
	keywords []string
	aliases  []string
	digits   string
	suffix   string
}

// RosterIndex provides folded, tokenized views of a roster for scoring.
// The roster itself is never modified.
type RosterIndex struct {
	entries []indexedEntry
}

// NewRosterIndex folds every roster entry once for the duration of a run.
// Entries without an id or name cannot be referenced and are left out.
func NewRosterIndex(roster []models.AccountRosterEntry, suffixLength int) *RosterIndex {
	index := &RosterIndex{entries: make([]indexedEntry, 0, len(roster))}

	for i := range roster {
		entry := &roster[i]
		if entry.Validate() != nil {
			continue
		}
		indexed := indexedEntry{
			entry:  entry,
			name:   phrase(entry.Name),
			digits: entry.Digits(),
			suffix: entry.Suffix(suffixLength),
		}
		for _, keyword := range entry.Keywords {
			if p := phrase(keyword); p != "" {
				indexed.keywords = append(indexed.keywords, p)
			}
		}
		for _, alias := range entry.Aliases {
			if p := phrase(alias); p != "" {
				indexed.aliases = append(indexed.aliases, p)
			}
		}
		index.entries = append(index.entries, indexed)
	}

	return index
}

// Len returns the number of indexed entries
func (ri *RosterIndex) Len() int {
	return len(ri.entries)
}

// Fold lower-cases s with Unicode case folding and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Tokenize folds s and splits it on every rune that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func phrase(s string) string {
	return strings.Join(Tokenize(s), " ")
}

func newFoldedText(freeText string, supplementary ...string) foldedText {
	combined := strings.Join(append([]string{freeText}, supplementary...), " ")
	tokens := Tokenize(combined)

	var accountDigits, bareDigits []string
	for _, part := range supplementary {
		for _, run := range digitRunPattern.FindAllString(part, -1) {
			accountDigits = append(accountDigits, models.OnlyDigits(run))
		}
	}
	for _, pattern := range []*regexp.Regexp{maskedDigitsPattern, labelledDigitsPattern} {
		for _, match := range pattern.FindAllStringSubmatch(freeText, -1) {
			accountDigits = append(accountDigits, models.OnlyDigits(match[1]))
		}
	}
	for _, run := range digitRunPattern.FindAllString(freeText, -1) {
		if digits := models.OnlyDigits(run); len(digits) >= minBareNumberLength {
			bareDigits = append(bareDigits, digits)
		}
	}

	return foldedText{
		tokens:        tokens,
		padded:        " " + strings.Join(tokens, " ") + " ",
		accountDigits: accountDigits,
		bareDigits:    bareDigits,
	}
}

// containsPhrase reports whether the folded phrase appears on token boundaries
func (ft foldedText) containsPhrase(p string) bool {
	if p == "" {
		return false
	}
	return strings.Contains(ft.padded, " "+p+" ")
}

// hasNumber reports whether the full account number appears
func (ft foldedText) hasNumber(digits string) bool {
	if digits == "" {
		return false
	}
	return contains(ft.accountDigits, digits) ||
		(len(digits) >= minBareNumberLength && contains(ft.bareDigits, digits))
}

// hasSuffix reports whether an account-identifying run equals suffix
func (ft foldedText) hasSuffix(suffix string) bool {
	return suffix != "" && contains(ft.accountDigits, suffix)
}

func contains(runs []string, digits string) bool {
	for _, run := range runs {
		if run == digits {
			return true
		}
	}
	return false
}
