package triage

import "testing"

func newTestEngine() *Engine {
	return NewEngine(DefaultKnowledgeBase())
}

func TestEngine_Score_ExactMatches(t *testing.T) {
	e := newTestEngine()
	scores := e.Score("I have chest pain and shortness of breath")

	if got := scores["Cardiologist"]; got != 18 {
		t.Errorf("expected Cardiologist score 18 (chest 10 + breath 8), got %d", got)
	}
	for spec, score := range scores {
		if spec != "Cardiologist" && score != 0 {
			t.Errorf("unexpected score %d for %s", score, spec)
		}
	}
}

func TestEngine_Score_FuzzyTypo(t *testing.T) {
	e := newTestEngine()
	scores := e.Score("terrible migrane since morning")

	if got := scores["Neurologist"]; got != 15 {
		t.Errorf("expected migrane to fuzzy-match migraine for 15, got %d", got)
	}
}

func TestEngine_Score_StripsPunctuation(t *testing.T) {
	e := newTestEngine()
	scores := e.Score("chest, breath.")

	if got := scores["Cardiologist"]; got != 18 {
		t.Errorf("expected punctuation-stripped score 18, got %d", got)
	}
}

func TestEngine_Recommend_Fallback(t *testing.T) {
	e := newTestEngine()
	rec := e.Recommend("i feel generally unwell today")

	if rec.Outcome != OutcomeFallback {
		t.Fatalf("expected fallback, got %s", rec.Outcome)
	}
	if rec.Specialization != FallbackSpecialization {
		t.Errorf("expected %s, got %s", FallbackSpecialization, rec.Specialization)
	}
}

func TestEngine_Recommend_SingleWinner(t *testing.T) {
	e := newTestEngine()
	rec := e.Recommend("I have chest pain and shortness of breath")

	if rec.Outcome != OutcomeWinner {
		t.Fatalf("expected winner, got %s", rec.Outcome)
	}
	if rec.Specialization != "Cardiologist" || rec.Score != 18 {
		t.Errorf("expected Cardiologist/18, got %s/%d", rec.Specialization, rec.Score)
	}
}

func TestEngine_Recommend_DoubleMarginWins(t *testing.T) {
	e := newTestEngine()
	// Cardiologist 30 (heart 10 + attack 20) vs Dermatologist 10 (rash).
	rec := e.Recommend("heart attack and a rash")

	if rec.Outcome != OutcomeWinner {
		t.Fatalf("expected winner, got %s (candidates %v)", rec.Outcome, rec.Candidates)
	}
	if rec.Specialization != "Cardiologist" || rec.Score != 30 {
		t.Errorf("expected Cardiologist/30, got %s/%d", rec.Specialization, rec.Score)
	}
}

func TestEngine_Recommend_Disambiguation(t *testing.T) {
	e := newTestEngine()
	// Neurologist 10 (headache) vs Orthopedic 8 (back): within the 2x margin.
	rec := e.Recommend("headache and back pain")

	if rec.Outcome != OutcomeDisambiguate {
		t.Fatalf("expected disambiguate, got %s", rec.Outcome)
	}
	want := []string{"Neurologist", "Orthopedic"}
	if len(rec.Candidates) != len(want) {
		t.Fatalf("expected candidates %v, got %v", want, rec.Candidates)
	}
	for i := range want {
		if rec.Candidates[i] != want[i] {
			t.Errorf("candidate %d: expected %s, got %s", i, want[i], rec.Candidates[i])
		}
	}
}

func TestEngine_Recommend_TopThreeCandidates(t *testing.T) {
	e := newTestEngine()
	// Four specializations score: Dermatologist 10, Orthopedic 8,
	// Neurologist 10, ENT 10. Only the top three go to the patient.
	rec := e.Recommend("headache back skin ear")

	if rec.Outcome != OutcomeDisambiguate {
		t.Fatalf("expected disambiguate, got %s", rec.Outcome)
	}
	if len(rec.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %v", rec.Candidates)
	}
	if rec.Candidates[0] != "Dermatologist" || rec.Candidates[1] != "Neurologist" || rec.Candidates[2] != "ENT" {
		t.Errorf("unexpected candidate order: %v", rec.Candidates)
	}
}

func TestEngine_Resolve_UniqueTopRatingWins(t *testing.T) {
	e := newTestEngine()
	candidates := []string{"Neurologist", "Orthopedic"}
	ratings := map[string]int{"Neurologist": 3, "Orthopedic": 9}

	res := e.Resolve("headache and back pain", candidates, ratings)
	if res.Specialization != "Orthopedic" {
		t.Fatalf("expected Orthopedic (severity beats keyword weight), got %s", res.Specialization)
	}
	if res.WeightedScore != 72 { // back 8 * rating 9
		t.Errorf("expected weighted score 72, got %d", res.WeightedScore)
	}
}

func TestEngine_Resolve_EqualTopRatingsForceFallback(t *testing.T) {
	e := newTestEngine()
	candidates := []string{"Neurologist", "Orthopedic"}
	ratings := map[string]int{"Neurologist": 8, "Orthopedic": 8}

	res := e.Resolve("headache and back pain", candidates, ratings)
	if res.Specialization != FallbackSpecialization {
		t.Fatalf("expected fallback on rating tie, got %s", res.Specialization)
	}
	if res.WeightedScore != 0 {
		t.Errorf("expected zero score on fallback, got %d", res.WeightedScore)
	}
}

func TestEngine_Resolve_ClampsRatings(t *testing.T) {
	e := newTestEngine()
	candidates := []string{"Neurologist", "Orthopedic"}
	// 99 clamps to 10, 0 clamps to 1.
	ratings := map[string]int{"Neurologist": 99, "Orthopedic": 0}

	res := e.Resolve("headache and back pain", candidates, ratings)
	if res.Specialization != "Neurologist" {
		t.Fatalf("expected Neurologist, got %s", res.Specialization)
	}
	if res.WeightedScore != 100 { // headache 10 * clamped 10
		t.Errorf("expected weighted score 100, got %d", res.WeightedScore)
	}
}

func TestEngine_Resolve_MissingRatingDefaultsToOne(t *testing.T) {
	e := newTestEngine()
	candidates := []string{"Neurologist", "Orthopedic"}
	ratings := map[string]int{"Orthopedic": 5}

	res := e.Resolve("headache and back pain", candidates, ratings)
	if res.Specialization != "Orthopedic" {
		t.Fatalf("expected Orthopedic over unrated Neurologist, got %s", res.Specialization)
	}
}
