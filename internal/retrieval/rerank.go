package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ayaan-rulhania/thor-acquisition/internal/normalize"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// synonyms is a small built-in alias table for the semantic relevance term,
// e.g. "js" should overlap with content mentioning "javascript".
var synonyms = map[string][]string{
	"js":         {"javascript"},
	"javascript": {"js"},
	"ts":         {"typescript"},
	"typescript": {"ts"},
	"py":         {"python"},
	"python":     {"py"},
	"golang":     {"go"},
	"go":         {"golang"},
	"k8s":        {"kubernetes"},
	"kubernetes": {"k8s"},
}

var wordSplit = regexp.MustCompile(`[^a-z0-9]+`)

const recencyHalfLifeDays = 90.0
const recencyWeight = 0.1

// rerank scores each candidate and returns them sorted descending, before
// diversity sampling is applied.
func rerank(query string, candidates []types.RawCandidate) []types.ScoredCandidate {
	queryTerms := expandTerms(tokenize(query))

	scored := make([]types.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := semanticRelevance(queryTerms, c.Title, c.Content)
		score += recencyBonus(c.PublishedAt)
		score += promotionalPenalty(c.Content)
		score += lowContentPenalty(c.Content)

		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}

		scored = append(scored, types.ScoredCandidate{
			RawCandidate: c,
			Score:        score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].AdapterIndex < scored[j].AdapterIndex
	})

	return dedupeByTitle(scored)
}

func dedupeByTitle(scored []types.ScoredCandidate) []types.ScoredCandidate {
	seen := make(map[string]bool)
	out := make([]types.ScoredCandidate, 0, len(scored))
	for _, c := range scored {
		key := strings.ToLower(strings.TrimSpace(c.Title))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func semanticRelevance(queryTerms map[string]bool, title, content string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	bodyTerms := tokenize(title + " " + content)
	bodySet := make(map[string]bool, len(bodyTerms))
	for _, t := range bodyTerms {
		bodySet[t] = true
	}

	matches := 0
	for term := range queryTerms {
		if bodySet[term] {
			matches++
		}
	}
	return float64(matches) / float64(len(queryTerms))
}

func recencyBonus(publishedAt *time.Time) float64 {
	if publishedAt == nil {
		return 0
	}
	ageDays := time.Since(*publishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return recencyWeight * math.Exp(-ageDays/recencyHalfLifeDays)
}

func promotionalPenalty(content string) float64 {
	if normalize.PromoVocab.MatchString(content) {
		return -0.2
	}
	return 0
}

func lowContentPenalty(content string) float64 {
	if len([]rune(content)) < 80 {
		return -0.1
	}
	return 0
}

func tokenize(s string) []string {
	lower := strings.ToLower(s)
	parts := wordSplit.Split(lower, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandTerms(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms)*2)
	for _, t := range terms {
		set[t] = true
		for _, alias := range synonyms[t] {
			set[alias] = true
		}
	}
	return set
}

// diversify caps each source_adapter's contribution to perSourceCap when
// isComparison is set, filling remaining slots from global score order, then
// truncates to k.
func diversify(scored []types.ScoredCandidate, k int, isComparison bool) []types.ScoredCandidate {
	if !isComparison {
		if len(scored) > k {
			return scored[:k]
		}
		return scored
	}

	perSource := make(map[types.AdapterName]int)
	out := make([]types.ScoredCandidate, 0, k)
	var overflow []types.ScoredCandidate

	for _, c := range scored {
		if len(out) >= k {
			break
		}
		if perSource[c.SourceAdapter] < perSourceCap {
			out = append(out, c)
			perSource[c.SourceAdapter]++
		} else {
			overflow = append(overflow, c)
		}
	}

	for _, c := range overflow {
		if len(out) >= k {
			break
		}
		out = append(out, c)
	}

	return out
}
