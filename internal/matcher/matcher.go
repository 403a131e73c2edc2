package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang-alert-ingestion-service/internal/models"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// tokenDistance weighs substitutions like a single edit
var tokenDistance = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Resolver scores roster entries against alert text
type Resolver struct {
	Config *ResolverConfig
}

// MatchResult is the outcome of resolving one alert against a roster
type MatchResult struct {
	Account  *models.AccountRosterEntry
	Score    float64
	Valid    bool
	Reasons  []string
	RunnerUp float64
}

// EntryScore is the score of one roster entry
type EntryScore struct {
	Entry   *models.AccountRosterEntry
	Score   float64
	Reasons []string
}

// NewResolver creates a resolver with the specified configuration
func NewResolver(config *ResolverConfig) *Resolver {
	if config == nil {
		config = DefaultResolverConfig()
	}

	return &Resolver{
		Config: config,
	}
}

// Resolve picks the roster entry that best matches the free text and any
// supplementary fragments (for example an extracted account suffix).
// A tie at the top is reported as no match with a nil Account.
func (r *Resolver) Resolve(roster []models.AccountRosterEntry, freeText string, supplementary ...string) MatchResult {
	if len(roster) == 0 {
		return MatchResult{Reasons: []string{"empty roster"}}
	}

	return r.ResolveIndexed(NewRosterIndex(roster, r.Config.SuffixLength), freeText, supplementary...)
}

// ResolveIndexed is Resolve over a prebuilt index
func (r *Resolver) ResolveIndexed(index *RosterIndex, freeText string, supplementary ...string) MatchResult {
	scores := r.ScoreAll(index, freeText, supplementary...)
	if len(scores) == 0 {
		return MatchResult{Reasons: []string{"empty roster"}}
	}

	best := scores[0]
	result := MatchResult{
		Account: best.Entry,
		Score:   best.Score,
		Reasons: best.Reasons,
	}
	if len(scores) > 1 {
		result.RunnerUp = scores[1].Score
	}

	if len(scores) > 1 && scores[1].Score >= best.Score {
		result.Account = nil
		result.Reasons = append(append([]string(nil), best.Reasons...),
			fmt.Sprintf("tied with %s at %.1f", scores[1].Entry.ID, best.Score))
		return result
	}

	result.Valid = best.Score >= r.Config.AcceptanceThreshold
	if !result.Valid {
		result.Reasons = append(append([]string(nil), best.Reasons...),
			fmt.Sprintf("score %.1f below threshold %.1f", best.Score, r.Config.AcceptanceThreshold))
	}

	return result
}

// ScoreAll scores every entry and returns them best first; entries with
// equal scores keep roster order.
func (r *Resolver) ScoreAll(index *RosterIndex, freeText string, supplementary ...string) []EntryScore {
	text := newFoldedText(freeText, supplementary...)

	scores := make([]EntryScore, 0, index.Len())
	for i := range index.entries {
		scores = append(scores, r.scoreEntry(&index.entries[i], text))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	return scores
}

// scoreEntry adds up the independent contributions of one entry
func (r *Resolver) scoreEntry(entry *indexedEntry, text foldedText) EntryScore {
	weights := r.Config.Weights
	result := EntryScore{Entry: entry.entry, Reasons: []string{}}
	score := 0.0

	// Number: only digits in account context count, see foldedText
	if len(entry.digits) >= r.Config.SuffixLength && text.hasNumber(entry.digits) {
		score += weights.NumberExact
		result.Reasons = append(result.Reasons, "Account number match")
	} else if text.hasSuffix(entry.suffix) {
		score += weights.NumberSuffix
		result.Reasons = append(result.Reasons, fmt.Sprintf("Account suffix %s", entry.suffix))
	}

	// Name
	if text.containsPhrase(entry.name) {
		score += weights.NameExact
		result.Reasons = append(result.Reasons, "Exact name match")
	} else if matched, total := r.fuzzyOverlap(entry.name, text); matched > 0 {
		score += weights.NameFuzzy * float64(matched) / float64(total)
		result.Reasons = append(result.Reasons, fmt.Sprintf("Fuzzy name match (%d/%d tokens)", matched, total))
	}

	// Keywords
	keywordScore := 0.0
	for _, keyword := range entry.keywords {
		if text.containsPhrase(keyword) {
			keywordScore += weights.KeywordHit
			result.Reasons = append(result.Reasons, fmt.Sprintf("Keyword %q", keyword))
		}
	}
	score += math.Min(keywordScore, weights.KeywordCap)

	// Aliases: the best single alias counts
	aliasScore, aliasReason := 0.0, ""
	for _, alias := range entry.aliases {
		if text.containsPhrase(alias) {
			if weights.AliasExact > aliasScore {
				aliasScore, aliasReason = weights.AliasExact, fmt.Sprintf("Alias %q", alias)
			}
			continue
		}
		if matched, total := r.fuzzyOverlap(alias, text); matched > 0 {
			if s := weights.AliasFuzzy * float64(matched) / float64(total); s > aliasScore {
				aliasScore, aliasReason = s, fmt.Sprintf("Fuzzy alias %q (%d/%d tokens)", alias, matched, total)
			}
		}
	}
	if aliasReason != "" {
		score += aliasScore
		result.Reasons = append(result.Reasons, aliasReason)
	}

	result.Score = math.Max(0.0, math.Min(100.0, score))
	return result
}

// fuzzyOverlap counts the phrase tokens that have a similar token in text
func (r *Resolver) fuzzyOverlap(p string, text foldedText) (matched, total int) {
	for _, token := range strings.Fields(p) {
		if len([]rune(token)) < r.Config.MinTokenLength {
			continue
		}
		total++

		for _, candidate := range text.tokens {
			if len([]rune(candidate)) < r.Config.MinTokenLength {
				continue
			}
			if Similarity(token, candidate) >= r.Config.FuzzyTokenThreshold {
				matched++
				break
			}
		}
	}
	return matched, total
}

// Similarity returns 1 minus the edit distance over the longer length
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}

	distance := levenshtein.DistanceForStrings(ra, rb, tokenDistance)
	return math.Max(0.0, 1.0-float64(distance)/float64(longest))
}

// String returns a string representation of the match result
func (mr MatchResult) String() string {
	account := "<none>"
	if mr.Account != nil {
		account = mr.Account.ID
	}
	return fmt.Sprintf("MatchResult{Account: %s, Score: %.1f, Valid: %t, RunnerUp: %.1f}",
		account, mr.Score, mr.Valid, mr.RunnerUp)
}
