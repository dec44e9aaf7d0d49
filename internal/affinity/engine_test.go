package affinity

import (
	"errors"
	"testing"
)

func twoCandidates() []Candidate {
	return []Candidate{
		{ID: 1, Name: "Candidata A", Positions: map[int64]int{1: 5, 2: 1}},
		{ID: 2, Name: "Candidato B", Positions: map[int64]int{1: 1, 2: 5}},
	}
}

func TestComputeExactAndWorstCase(t *testing.T) {
	t.Parallel()

	answers := []Answer{
		{QuestionID: 1, Position: 5},
		{QuestionID: 2, Position: 1},
	}

	results, err := New(UnansweredZero).Compute(answers, twoCandidates())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].CandidateID != 1 || results[0].Affinity != 100.0 {
		t.Fatalf("expected exact match candidate first with 100.0, got %+v", results[0])
	}
	if results[1].CandidateID != 2 || results[1].Affinity != 0.0 {
		t.Fatalf("expected opposite candidate last with 0.0, got %+v", results[1])
	}
}

func TestComputeEmptyAnswersScoresZero(t *testing.T) {
	t.Parallel()

	results, err := New(UnansweredZero).Compute(nil, twoCandidates())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, result := range results {
		if result.Affinity != 0 {
			t.Fatalf("expected zero score with no answers, got %+v", result)
		}
	}
}

func TestComputeEmptyCandidates(t *testing.T) {
	t.Parallel()

	results, err := New(UnansweredZero).Compute([]Answer{{QuestionID: 1, Position: 3}}, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result list, got %d entries", len(results))
	}
}

func TestComputeBoundsAndDeterminism(t *testing.T) {
	t.Parallel()

	answers := []Answer{
		{QuestionID: 1, Position: 2},
		{QuestionID: 2, Position: 4},
		{QuestionID: 3, Position: 3},
	}
	candidates := []Candidate{
		{ID: 10, Name: "X", Positions: map[int64]int{1: 5, 2: 4, 3: 1}},
		{ID: 11, Name: "Y", Positions: map[int64]int{1: 2, 3: 3}},
	}

	first, err := New(UnansweredZero).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	second, err := New(UnansweredZero).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute again: %v", err)
	}

	for i := range first {
		if first[i].Affinity < 0 || first[i].Affinity > 100 {
			t.Fatalf("affinity out of bounds: %+v", first[i])
		}
		if first[i] != second[i] {
			t.Fatalf("non-deterministic result at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestUnansweredPolicies(t *testing.T) {
	t.Parallel()

	answers := []Answer{
		{QuestionID: 1, Position: 5},
		{QuestionID: 2, Position: 5},
	}
	// Candidate answered only question 1 and matches it exactly.
	candidates := []Candidate{
		{ID: 1, Name: "Sparse", Positions: map[int64]int{1: 5}},
	}

	zero, err := New(UnansweredZero).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute zero policy: %v", err)
	}
	if zero[0].Affinity != 50.0 {
		t.Fatalf("zero policy: expected 50.0, got %v", zero[0].Affinity)
	}

	exclude, err := New(UnansweredExclude).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute exclude policy: %v", err)
	}
	if exclude[0].Affinity != 100.0 {
		t.Fatalf("exclude policy: expected 100.0, got %v", exclude[0].Affinity)
	}
}

func TestUnansweredExcludeWithNoOverlapScoresZero(t *testing.T) {
	t.Parallel()

	answers := []Answer{{QuestionID: 9, Position: 3}}
	candidates := []Candidate{{ID: 1, Name: "None", Positions: map[int64]int{1: 3}}}

	results, err := New(UnansweredExclude).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if results[0].Affinity != 0 {
		t.Fatalf("expected zero score without overlap, got %v", results[0].Affinity)
	}
}

func TestTieBreakPreservesInputOrder(t *testing.T) {
	t.Parallel()

	answers := []Answer{{QuestionID: 1, Position: 3}}
	candidates := []Candidate{
		{ID: 7, Name: "First", Positions: map[int64]int{1: 3}},
		{ID: 8, Name: "Second", Positions: map[int64]int{1: 3}},
	}

	results, err := New(UnansweredZero).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if results[0].CandidateID != 7 || results[1].CandidateID != 8 {
		t.Fatalf("expected input order on ties, got %+v", results)
	}
}

func TestComputeRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		answers []Answer
	}{
		{"position too high", []Answer{{QuestionID: 1, Position: 6}}},
		{"position too low", []Answer{{QuestionID: 1, Position: 0}}},
		{"missing question id", []Answer{{QuestionID: 0, Position: 3}}},
		{"duplicate question", []Answer{{QuestionID: 1, Position: 3}, {QuestionID: 1, Position: 4}}},
	}

	for _, tc := range cases {
		if _, err := New(UnansweredZero).Compute(tc.answers, twoCandidates()); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	if policy, err := ParsePolicy(" ZERO "); err != nil || policy != UnansweredZero {
		t.Fatalf("unexpected parse of zero: %v %v", policy, err)
	}
	if policy, err := ParsePolicy("exclude"); err != nil || policy != UnansweredExclude {
		t.Fatalf("unexpected parse of exclude: %v %v", policy, err)
	}
	if _, err := ParsePolicy("average"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestRoundingToOneDecimal(t *testing.T) {
	t.Parallel()

	// One answer at distance 1: 75 points over 100 => 75.0.
	// Three answers with distances 1,1,0 => 250/300*100 = 83.333 => 83.3.
	answers := []Answer{
		{QuestionID: 1, Position: 2},
		{QuestionID: 2, Position: 2},
		{QuestionID: 3, Position: 2},
	}
	candidates := []Candidate{
		{ID: 1, Name: "R", Positions: map[int64]int{1: 3, 2: 3, 3: 2}},
	}

	results, err := New(UnansweredZero).Compute(answers, candidates)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if results[0].Affinity != 83.3 {
		t.Fatalf("expected 83.3, got %v", results[0].Affinity)
	}
}
