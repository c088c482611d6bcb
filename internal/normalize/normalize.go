// Package normalize holds the Content Normalizer: stateless functions that
// clean candidate text, judge acceptability, and compute dedup
// fingerprints. All functions here are pure.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

const minContentChars = 40

var leadingPromotional = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Learn\s+(everything\s+)?(you\s+need\s+to\s+know\s+)?(about\s+)?`),
	regexp.MustCompile(`(?i)^Discover\s+(everything\s+)?(about\s+)?`),
	regexp.MustCompile(`(?i)^Find\s+out\s+(everything\s+)?(about\s+)?`),
	regexp.MustCompile(`(?i)^Get\s+(started\s+)?(with\s+)?(everything\s+)?(about\s+)?`),
	regexp.MustCompile(`(?i)^Explore\s+(everything\s+)?(about\s+)?`),
	regexp.MustCompile(`(?i)^Master\s+(everything\s+)?(about\s+)?`),
	regexp.MustCompile(`(?i)^Unlock\s+(the\s+)?(secrets?\s+of\s+)?`),
	regexp.MustCompile(`(?i)^Click\s+(here\s+)?(to\s+)?`),
	regexp.MustCompile(`(?i)^Visit\s+(our\s+)?(website\s+)?(to\s+)?`),
	regexp.MustCompile(`(?i)^Check\s+out\s+(our\s+)?`),
	regexp.MustCompile(`(?i)^Sign\s+up\s+(for\s+)?`),
	regexp.MustCompile(`(?i)^Subscribe\s+(to\s+)?`),
	regexp.MustCompile(`(?i)^Join\s+(us\s+)?(to\s+)?`),
	regexp.MustCompile(`(?i)^Start\s+(your\s+)?(journey\s+)?(with\s+)?`),
	regexp.MustCompile(`(?i)^Buy\s+now\s*`),
}

var trailingCTA = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+to\s+get\s+started\.?$`),
	regexp.MustCompile(`(?i)\s+to\s+learn\s+more\.?$`),
	regexp.MustCompile(`(?i)\s+to\s+find\s+out\s+more\.?$`),
	regexp.MustCompile(`(?i)\s+to\s+discover\s+more\.?$`),
	regexp.MustCompile(`(?i)\s+and\s+more\.?$`),
	regexp.MustCompile(`(?i)\s*subscribe\s+now!?\.?$`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var genericOpeners = regexp.MustCompile(`(?i)^(Official|Welcome|Visit|Click)\b`)

// PromoVocab is the promotional-vocabulary pattern shared by CN's hard
// rejection (Acceptable, below) and the reranker's soft promotional penalty.
var PromoVocab = regexp.MustCompile(`(?i)\b(buy now|subscribe|click here|sign up|limited time|discount|act now|order now|free trial|exclusive offer|learn more|don't miss out|best price)\b`)

// promoDensityThreshold is the fraction of words in a candidate that must
// match PromoVocab before it is considered dominated by promotional
// language, rather than merely mentioning it once.
const promoDensityThreshold = 0.06

// citation markers like [1], [citation needed], or trailing footnote refs
var citationMarker = regexp.MustCompile(`\[\d+\]|\[citation needed\]`)

// StripPromotional removes leading/trailing call-to-action phrasing,
// collapses whitespace, and capitalizes the first letter.
func StripPromotional(text string) string {
	cleaned := strings.TrimSpace(text)
	for {
		prev := cleaned
		for _, p := range leadingPromotional {
			cleaned = strings.TrimSpace(p.ReplaceAllString(cleaned, ""))
		}
		for _, p := range trailingCTA {
			cleaned = p.ReplaceAllString(cleaned, ".")
		}
		if cleaned == prev {
			break
		}
	}
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	return capitalizeFirst(cleaned)
}

// StripEncyclopediaArtifacts removes reference/citation markers
// characteristic of encyclopedia sources.
func StripEncyclopediaArtifacts(text string) string {
	cleaned := citationMarker.ReplaceAllString(text, "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Acceptable reports whether text clears the minimum-length bar, isn't
// dominated by promotional vocabulary, and doesn't begin with a generic
// opener.
func Acceptable(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minContentChars {
		return false
	}
	if genericOpeners.MatchString(trimmed) {
		return false
	}
	if isPromotionallyDominated(trimmed) {
		return false
	}
	return true
}

// isPromotionallyDominated reports whether the fraction of words belonging
// to PromoVocab matches meets promoDensityThreshold. This catches
// promotional text that survives StripPromotional's leading/trailing-only
// regexes by being buried mid-body rather than at the edges.
func isPromotionallyDominated(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}

	matches := PromoVocab.FindAllString(text, -1)
	if len(matches) == 0 {
		return false
	}

	promoWords := 0
	for _, m := range matches {
		promoWords += len(strings.Fields(m))
	}

	return float64(promoWords)/float64(len(words)) >= promoDensityThreshold
}

// Fingerprint computes a stable dedup hash from a normalized title, the
// first 280 characters of normalized content, and the adapter identifier
// truncated to 8 characters.
func Fingerprint(title, content string, adapter types.AdapterName) string {
	normTitle := normalizeForHash(title)
	normContent := normalizeForHash(content)
	if r := []rune(normContent); len(r) > 280 {
		normContent = string(r[:280])
	}
	adapterKey := string(adapter)
	if len(adapterKey) > 8 {
		adapterKey = adapterKey[:8]
	}

	h := sha256.New()
	h.Write([]byte(normTitle))
	h.Write([]byte("|"))
	h.Write([]byte(normContent))
	h.Write([]byte("|"))
	h.Write([]byte(adapterKey))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeForHash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRun.ReplaceAllString(s, " ")
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
