// Package normalizer turns a raw notification into one line of clean text
// that the extraction rules can work on.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"golang-alert-ingestion-service/internal/models"
)

// NoContent is returned when a message carries no usable text. Callers skip
// such messages; they are never retried.
const NoContent = ""

// IsNoContent reports whether normalized text should be skipped.
func IsNoContent(text string) bool {
	return strings.TrimSpace(text) == NoContent
}

// Config controls HTML detection for plain bodies.
type Config struct {
	// HTMLMarkers are case-insensitive substrings that make a plain body be
	// treated as HTML.
	HTMLMarkers []string
}

// DefaultConfig returns the default normalizer configuration
func DefaultConfig() *Config {
	return &Config{
		HTMLMarkers: []string{"<html", "<body", "<div", "<table", "<br", "<p>"},
	}
}

// Normalizer flattens message bodies into whitespace-collapsed text.
type Normalizer struct {
	htmlMarkers []string
}

// New creates a normalizer. A nil config uses DefaultConfig.
func New(config *Config) *Normalizer {
	if config == nil {
		config = DefaultConfig()
	}

	markers := make([]string, 0, len(config.HTMLMarkers))
	for _, m := range config.HTMLMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}

	return &Normalizer{
		htmlMarkers: markers,
	}
}

// folding is built per call; transform chains carry state.
func folding() transform.Transformer {
	return transform.Chain(
		norm.NFKC,
		runes.Map(zeroWidthToSpace),
		runes.Remove(runes.In(unicode.Cf)),
	)
}

// Normalize returns the clean text of a message, or NoContent.
func (n *Normalizer) Normalize(msg *models.RawMessage) string {
	if msg == nil {
		return NoContent
	}

	var text string
	if msg.Payload != nil {
		text = n.collect(msg.Payload)
	}
	if IsNoContent(text) {
		text = n.plain(msg.BodyText)
	}

	return n.clean(text)
}

// NormalizePart returns the clean text of a single part tree.
func (n *Normalizer) NormalizePart(part *models.MessagePart) string {
	if part == nil {
		return NoContent
	}
	return n.clean(n.collect(part))
}

// LooksLikeHTML reports whether a plain body contains HTML markup.
func (n *Normalizer) LooksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range n.htmlMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (n *Normalizer) collect(part *models.MessagePart) string {
	mime := strings.ToLower(strings.TrimSpace(part.MimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch {
	case mime == "text/html":
		return StripHTML(part.Body)
	case mime == "text/plain", mime == "" && len(part.Parts) == 0:
		return n.plain(part.Body)
	case strings.HasPrefix(mime, "multipart/"), mime == "":
		texts := make([]string, 0, len(part.Parts))
		for _, child := range part.Parts {
			if child == nil {
				continue
			}
			if text := n.collect(child); !IsNoContent(text) {
				texts = append(texts, text)
			}
		}
		return strings.Join(texts, "\n")
	default:
		// attachments and other non-text parts
		return ""
	}
}

func (n *Normalizer) plain(body string) string {
	if n.LooksLikeHTML(body) {
		return StripHTML(body)
	}
	return body
}

func (n *Normalizer) clean(text string) string {
	if text == "" {
		return NoContent
	}

	folded, _, err := transform.String(folding(), text)
	if err != nil {
		folded = text
	}

	return strings.Join(strings.Fields(folded), " ")
}

func zeroWidthToSpace(r rune) rune {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return ' '
	}
	return r
}
