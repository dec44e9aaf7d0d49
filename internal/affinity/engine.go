package affinity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidInput marks malformed quiz input: out-of-range positions,
// missing question identifiers, or duplicate answers for one question.
// Handlers map it to a 400 response.
var ErrInvalidInput = errors.New("invalid quiz input")

const (
	// MinPosition and MaxPosition bound the agreement scale
	// (1 = strongly disagree, 5 = strongly agree).
	MinPosition = 1
	MaxPosition = 5

	pointsPerQuestion = 100
)

// UnansweredPolicy selects how a question the candidate never answered
// affects that candidate's score.
type UnansweredPolicy int

const (
	// UnansweredZero keeps the question in the denominator at zero
	// points. This matches the historical behavior and understates
	// affinity for candidates with sparse answer coverage.
	UnansweredZero UnansweredPolicy = iota
	// UnansweredExclude drops the question from the denominator.
	UnansweredExclude
)

// ParsePolicy maps the AFFINITY_UNANSWERED_POLICY config value.
func ParsePolicy(raw string) (UnansweredPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "zero":
		return UnansweredZero, nil
	case "exclude":
		return UnansweredExclude, nil
	default:
		return UnansweredZero, fmt.Errorf("unknown unanswered policy %q", raw)
	}
}

// Answer is one user response: agreement position on a question.
type Answer struct {
	QuestionID int64
	Position   int
}

// Candidate carries a candidate's stored positions, at most one per
// question.
type Candidate struct {
	ID        int64
	Name      string
	Positions map[int64]int
}

// Result is one ranked affinity entry, score in [0,100] with one
// decimal place.
type Result struct {
	CandidateID int64   `json:"candidato_id"`
	Name        string  `json:"nombre"`
	Affinity    float64 `json:"afinidad"`
}

// Engine computes quiz affinity. It is a pure function over its inputs
// and never mutates candidate or answer data.
type Engine struct {
	policy UnansweredPolicy
}

func New(policy UnansweredPolicy) *Engine {
	return &Engine{policy: policy}
}

// Compute scores every candidate against the user's answers and returns
// results sorted by affinity descending. Candidates with equal scores
// keep their input order.
func (e *Engine) Compute(answers []Answer, candidates []Candidate) ([]Result, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, candidate := range candidates {
		score, err := e.scoreCandidate(answers, candidate)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			CandidateID: candidate.ID,
			Name:        candidate.Name,
			Affinity:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Affinity > results[j].Affinity
	})
	return results, nil
}

func (e *Engine) scoreCandidate(answers []Answer, candidate Candidate) (float64, error) {
	points := 0
	answered := 0
	for _, answer := range answers {
		position, ok := candidate.Positions[answer.QuestionID]
		if !ok {
			continue
		}
		if position < MinPosition || position > MaxPosition {
			return 0, fmt.Errorf("%w: candidate %d has stored position %d for question %d",
				ErrInvalidInput, candidate.ID, position, answer.QuestionID)
		}
		diff := answer.Position - position
		if diff < 0 {
			diff = -diff
		}
		points += (MaxPosition - 1 - diff) * (pointsPerQuestion / (MaxPosition - 1))
		answered++
	}

	total := len(answers)
	if e.policy == UnansweredExclude {
		total = answered
	}
	if total == 0 {
		return 0, nil
	}

	score := float64(points) / float64(total*pointsPerQuestion) * 100
	return round1(score), nil
}

func validateAnswers(answers []Answer) error {
	seen := make(map[int64]struct{}, len(answers))
	for _, answer := range answers {
		if answer.QuestionID <= 0 {
			return fmt.Errorf("%w: question id is required", ErrInvalidInput)
		}
		if answer.Position < MinPosition || answer.Position > MaxPosition {
			return fmt.Errorf("%w: position %d for question %d is outside [%d,%d]",
				ErrInvalidInput, answer.Position, answer.QuestionID, MinPosition, MaxPosition)
		}
		if _, dup := seen[answer.QuestionID]; dup {
			return fmt.Errorf("%w: duplicate answer for question %d", ErrInvalidInput, answer.QuestionID)
		}
		seen[answer.QuestionID] = struct{}{}
	}
	return nil
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
