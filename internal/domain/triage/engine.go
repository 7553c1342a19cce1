package triage

import (
	"sort"
	"strings"

	"github.com/carebridge/carebridge/pkg/textmatch"
)

const fuzzyCutoff = 0.85

type Outcome string

const (
	// OutcomeFallback routes the patient to the fallback specialization.
	OutcomeFallback Outcome = "fallback"
	// OutcomeWinner names a single clear specialization.
	OutcomeWinner Outcome = "winner"
	// OutcomeDisambiguate asks the patient to rate candidate severity.
	OutcomeDisambiguate Outcome = "disambiguate"
)

type SpecScore struct {
	Specialization string `json:"specialization"`
	Score          int    `json:"score"`
}

type Recommendation struct {
	Outcome        Outcome  `json:"outcome"`
	Specialization string   `json:"specialization,omitempty"`
	Score          int      `json:"score,omitempty"`
	Candidates     []string `json:"candidates,omitempty"`
}

type Resolution struct {
	Specialization string `json:"specialization"`
	WeightedScore  int    `json:"weighted_score"`
}

// Engine maps free-form symptom text onto specializations. It holds no
// state beyond the knowledge base and every method is a pure function of
// its inputs.
type Engine struct {
	kb KnowledgeBase
}

func NewEngine(kb KnowledgeBase) *Engine {
	return &Engine{kb: kb}
}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(text))
	return strings.Fields(cleaned)
}

// Score runs the keyword scan: an exact token hit adds the keyword's
// weight; failing that, the best fuzzy match within the same
// specialization's set (ratio >= 0.85, first listed wins ties) adds the
// matched keyword's weight. At most one hit per token per specialization.
func (e *Engine) Score(text string) map[string]int {
	scores := make(map[string]int)
	for _, word := range tokenize(text) {
		for _, sk := range e.kb {
			weight, hit := matchKeyword(word, sk.Keywords)
			if hit {
				scores[sk.Specialization] += weight
			}
		}
	}
	return scores
}

func matchKeyword(word string, keywords []Keyword) (int, bool) {
	terms := make([]string, len(keywords))
	for i, k := range keywords {
		if k.Term == word {
			return k.Weight, true
		}
		terms[i] = k.Term
	}
	term, ok := textmatch.BestMatch(word, terms, fuzzyCutoff)
	if !ok {
		return 0, false
	}
	for _, k := range keywords {
		if k.Term == term {
			return k.Weight, true
		}
	}
	return 0, false
}

// rank filters out zero scores and sorts descending, keeping knowledge
// base order among equals.
func (e *Engine) rank(scores map[string]int) []SpecScore {
	var ranked []SpecScore
	for _, sk := range e.kb {
		if s := scores[sk.Specialization]; s > 0 {
			ranked = append(ranked, SpecScore{sk.Specialization, s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// Recommend classifies symptom text into one of the three outcomes: no
// keyword hits fall back, a lone hit or a top score strictly more than
// double the runner-up wins outright, anything closer asks the patient
// to rate the top three candidates.
func (e *Engine) Recommend(text string) Recommendation {
	ranked := e.rank(e.Score(text))

	if len(ranked) == 0 {
		return Recommendation{Outcome: OutcomeFallback, Specialization: FallbackSpecialization}
	}
	if len(ranked) == 1 || ranked[0].Score > ranked[1].Score*2 {
		return Recommendation{
			Outcome:        OutcomeWinner,
			Specialization: ranked[0].Specialization,
			Score:          ranked[0].Score,
		}
	}
	n := len(ranked)
	if n > 3 {
		n = 3
	}
	candidates := make([]string, n)
	for i := 0; i < n; i++ {
		candidates[i] = ranked[i].Specialization
	}
	return Recommendation{Outcome: OutcomeDisambiguate, Candidates: candidates}
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > 10 {
		return 10
	}
	return r
}

// Resolve settles a disambiguation round. Candidates are ranked by the
// patient's severity rating alone; keyword weight only scales the
// reported score. An exact tie between the top two ratings is treated as
// unresolved and forces the fallback with a zero score.
func (e *Engine) Resolve(text string, candidates []string, ratings map[string]int) Resolution {
	if len(candidates) == 0 {
		return Resolution{Specialization: FallbackSpecialization}
	}
	raw := e.Score(text)

	clamped := make(map[string]int, len(candidates))
	for _, c := range candidates {
		clamped[c] = clampRating(ratings[c])
	}
	byRating := append([]string(nil), candidates...)
	sort.SliceStable(byRating, func(i, j int) bool {
		return clamped[byRating[i]] > clamped[byRating[j]]
	})

	if len(byRating) >= 2 && clamped[byRating[0]] == clamped[byRating[1]] {
		return Resolution{Specialization: FallbackSpecialization}
	}
	winner := byRating[0]
	return Resolution{
		Specialization: winner,
		WeightedScore:  raw[winner] * clamped[winner],
	}
}
