package extraction

import (
	"regexp"
	"strings"

	"golang-alert-ingestion-service/internal/models"
)

// DirectionClassifier decides DEBIT or CREDIT by counting keyword votes.
type DirectionClassifier struct {
	credit         []*regexp.Regexp
	debit          []*regexp.Regexp
	voteConfidence int
	tieConfidence  int
}

// Votes holds the keyword counts for one text.
type Votes struct {
	Credit int
	Debit  int
}

// NewDirectionClassifier builds a classifier from the config keyword lists.
func NewDirectionClassifier(config *Config) *DirectionClassifier {
	return &DirectionClassifier{
		credit:         compileKeywords(config.CreditKeywords),
		debit:          compileKeywords(config.DebitKeywords),
		voteConfidence: config.DirectionVoteConfidence,
		tieConfidence:  config.DirectionTieConfidence,
	}
}

// Votes counts whole-word credit and debit keyword occurrences.
func (d *DirectionClassifier) Votes(text string) Votes {
	return Votes{
		Credit: countAll(d.credit, text),
		Debit:  countAll(d.debit, text),
	}
}

// Classify returns the direction with the strictly higher vote count. Equal
// counts, including none at all, resolve to DEBIT.
func (d *DirectionClassifier) Classify(text string) Field[models.Direction] {
	votes := d.Votes(text)
	switch {
	case votes.Credit > votes.Debit:
		return Found(models.DirectionCredit, d.voteConfidence, RuleDirectionVote)
	case votes.Debit > votes.Credit:
		return Found(models.DirectionDebit, d.voteConfidence, RuleDirectionVote)
	default:
		return Found(models.DirectionDebit, d.tieConfidence, RuleDirectionTie)
	}
}

func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return patterns
}

func countAll(patterns []*regexp.Regexp, text string) int {
	count := 0
	for _, re := range patterns {
		count += len(re.FindAllStringIndex(text, -1))
	}
	return count
}
