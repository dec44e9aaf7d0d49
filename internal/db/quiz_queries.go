package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"horse.fit/civica/internal/affinity"
)

// QuestionRecord is the API-facing quiz question row.
type QuestionRecord struct {
	QuestionID int64     `json:"question_id"`
	Text       string    `json:"text"`
	Category   *string   `json:"category,omitempty"`
	Ordering   int       `json:"ordering"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionInput carries client-supplied question fields.
type QuestionInput struct {
	Text     string  `json:"text"`
	Category *string `json:"category"`
	Ordering *int    `json:"ordering"`
}

// CandidateAnswerRecord is one candidate position on one question.
type CandidateAnswerRecord struct {
	AnswerID    int64     `json:"answer_id"`
	QuestionID  int64     `json:"question_id"`
	CandidateID int64     `json:"candidate_id"`
	Position    int       `json:"position"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListQuestions returns quiz questions in presentation order.
func (p *Pool) ListQuestions(ctx context.Context) ([]QuestionRecord, error) {
	const q = `
SELECT
	q.question_id,
	q.text,
	q.category,
	q.ordering,
	q.created_at
FROM questions q
ORDER BY q.ordering ASC, q.question_id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	items := make([]QuestionRecord, 0, 16)
	for rows.Next() {
		var row QuestionRecord
		if err := rows.Scan(
			&row.QuestionID,
			&row.Text,
			&row.Category,
			&row.Ordering,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rows: %w", err)
	}

	return items, nil
}

// GetQuestion returns one question or ErrNoRows.
func (p *Pool) GetQuestion(ctx context.Context, questionID int64) (QuestionRecord, error) {
	const q = `
SELECT
	q.question_id,
	q.text,
	q.category,
	q.ordering,
	q.created_at
FROM questions q
WHERE q.question_id = $1
`

	var row QuestionRecord
	err := p.QueryRow(ctx, q, questionID).Scan(
		&row.QuestionID,
		&row.Text,
		&row.Category,
		&row.Ordering,
		&row.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return QuestionRecord{}, ErrNoRows
		}
		return QuestionRecord{}, fmt.Errorf("query question %d: %w", questionID, err)
	}

	return row, nil
}

// CreateQuestion inserts a question. A missing ordering lands the
// question at the end of the quiz.
func (p *Pool) CreateQuestion(ctx context.Context, in QuestionInput) (QuestionRecord, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return QuestionRecord{}, fmt.Errorf("question text is required")
	}

	const q = `
INSERT INTO questions (text, category, ordering, created_at)
VALUES (
	$1,
	$2,
	COALESCE($3, (SELECT COALESCE(MAX(ordering), 0) + 1 FROM questions)),
	NOW()
)
RETURNING question_id
`

	var questionID int64
	if err := p.QueryRow(ctx, q, text, in.Category, in.Ordering).Scan(&questionID); err != nil {
		return QuestionRecord{}, fmt.Errorf("insert question: %w", err)
	}

	return p.GetQuestion(ctx, questionID)
}

// UpdateQuestion overwrites a question's fields, or returns ErrNoRows.
func (p *Pool) UpdateQuestion(ctx context.Context, questionID int64, in QuestionInput) (QuestionRecord, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return QuestionRecord{}, fmt.Errorf("question text is required")
	}

	const q = `
UPDATE questions
SET text = $2,
    category = $3,
    ordering = COALESCE($4, ordering)
WHERE question_id = $1
`

	tag, err := p.Exec(ctx, q, questionID, text, in.Category, in.Ordering)
	if err != nil {
		return QuestionRecord{}, fmt.Errorf("update question %d: %w", questionID, err)
	}
	if tag.RowsAffected() == 0 {
		return QuestionRecord{}, ErrNoRows
	}

	return p.GetQuestion(ctx, questionID)
}

// DeleteQuestion removes a question and its candidate answers.
func (p *Pool) DeleteQuestion(ctx context.Context, questionID int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete question tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM candidate_answers WHERE question_id = $1`, questionID); err != nil {
		return fmt.Errorf("delete question answers: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", questionID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete question tx: %w", err)
	}
	return nil
}

// UpsertCandidateAnswer stores a candidate's position on a question,
// replacing any previous position.
func (p *Pool) UpsertCandidateAnswer(ctx context.Context, questionID, candidateID int64, position int) (CandidateAnswerRecord, error) {
	if position < affinity.MinPosition || position > affinity.MaxPosition {
		return CandidateAnswerRecord{}, fmt.Errorf("position must be between %d and %d", affinity.MinPosition, affinity.MaxPosition)
	}

	const q = `
INSERT INTO candidate_answers (question_id, candidate_id, position, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (question_id, candidate_id)
DO UPDATE SET position = EXCLUDED.position, updated_at = NOW()
RETURNING answer_id, question_id, candidate_id, position, updated_at
`

	var row CandidateAnswerRecord
	err := p.QueryRow(ctx, q, questionID, candidateID, position).Scan(
		&row.AnswerID,
		&row.QuestionID,
		&row.CandidateID,
		&row.Position,
		&row.UpdatedAt,
	)
	if err != nil {
		return CandidateAnswerRecord{}, fmt.Errorf("upsert candidate answer: %w", err)
	}

	return row, nil
}

// ListCandidateAnswers returns every stored position, optionally scoped
// to one candidate.
func (p *Pool) ListCandidateAnswers(ctx context.Context, candidateID int64) ([]CandidateAnswerRecord, error) {
	const q = `
SELECT
	a.answer_id,
	a.question_id,
	a.candidate_id,
	a.position,
	a.updated_at
FROM candidate_answers a
WHERE ($1 = 0 OR a.candidate_id = $1)
ORDER BY a.candidate_id ASC, a.question_id ASC
`

	rows, err := p.Query(ctx, q, candidateID)
	if err != nil {
		return nil, fmt.Errorf("query candidate answers: %w", err)
	}
	defer rows.Close()

	items := make([]CandidateAnswerRecord, 0, 32)
	for rows.Next() {
		var row CandidateAnswerRecord
		if err := rows.Scan(
			&row.AnswerID,
			&row.QuestionID,
			&row.CandidateID,
			&row.Position,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate answer row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate answer rows: %w", err)
	}

	return items, nil
}

// CandidatesForAffinity loads all candidates with their stored positions
// in the shape the scoring engine consumes.
func (p *Pool) CandidatesForAffinity(ctx context.Context) ([]affinity.Candidate, error) {
	const q = `
SELECT
	c.candidate_id,
	c.name,
	a.question_id,
	a.position
FROM candidates c
LEFT JOIN candidate_answers a ON a.candidate_id = c.candidate_id
ORDER BY c.candidate_id ASC, a.question_id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query candidates for affinity: %w", err)
	}
	defer rows.Close()

	candidates := make([]affinity.Candidate, 0, 8)
	index := make(map[int64]int, 8)
	for rows.Next() {
		var (
			candidateID int64
			name        string
			questionID  *int64
			position    *int
		)
		if err := rows.Scan(&candidateID, &name, &questionID, &position); err != nil {
			return nil, fmt.Errorf("scan affinity row: %w", err)
		}

		i, ok := index[candidateID]
		if !ok {
			candidates = append(candidates, affinity.Candidate{
				ID:        candidateID,
				Name:      name,
				Positions: make(map[int64]int, 16),
			})
			i = len(candidates) - 1
			index[candidateID] = i
		}
		if questionID != nil && position != nil {
			candidates[i].Positions[*questionID] = *position
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affinity rows: %w", err)
	}

	return candidates, nil
}
