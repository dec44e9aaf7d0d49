package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CandidateRecord is the API-facing candidate row.
type CandidateRecord struct {
	CandidateID int64           `json:"candidate_id"`
	Name        string          `json:"name"`
	Party       *string         `json:"party,omitempty"`
	PhotoURL    *string         `json:"photo_url,omitempty"`
	Biography   *string         `json:"biography,omitempty"`
	Platform    json.RawMessage `json:"platform,omitempty"`
	Timeline    json.RawMessage `json:"timeline,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CandidateInput carries client-supplied candidate fields for create and
// update.
type CandidateInput struct {
	Name      string          `json:"name"`
	Party     *string         `json:"party"`
	PhotoURL  *string         `json:"photo_url"`
	Biography *string         `json:"biography"`
	Platform  json.RawMessage `json:"platform"`
	Timeline  json.RawMessage `json:"timeline"`
}

func (in CandidateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("candidate name is required")
	}
	return nil
}

// ListCandidates returns every candidate ordered by name.
func (p *Pool) ListCandidates(ctx context.Context) ([]CandidateRecord, error) {
	const q = `
SELECT
	c.candidate_id,
	c.name,
	c.party,
	c.photo_url,
	c.biography,
	c.platform,
	c.timeline,
	c.created_at,
	c.updated_at
FROM candidates c
ORDER BY c.name ASC, c.candidate_id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	items := make([]CandidateRecord, 0, 8)
	for rows.Next() {
		var row CandidateRecord
		if err := rows.Scan(
			&row.CandidateID,
			&row.Name,
			&row.Party,
			&row.PhotoURL,
			&row.Biography,
			&row.Platform,
			&row.Timeline,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}

	return items, nil
}

// GetCandidate returns one candidate or ErrNoRows.
func (p *Pool) GetCandidate(ctx context.Context, candidateID int64) (CandidateRecord, error) {
	const q = `
SELECT
	c.candidate_id,
	c.name,
	c.party,
	c.photo_url,
	c.biography,
	c.platform,
	c.timeline,
	c.created_at,
	c.updated_at
FROM candidates c
WHERE c.candidate_id = $1
`

	var row CandidateRecord
	err := p.QueryRow(ctx, q, candidateID).Scan(
		&row.CandidateID,
		&row.Name,
		&row.Party,
		&row.PhotoURL,
		&row.Biography,
		&row.Platform,
		&row.Timeline,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return CandidateRecord{}, ErrNoRows
		}
		return CandidateRecord{}, fmt.Errorf("query candidate %d: %w", candidateID, err)
	}

	return row, nil
}

// CreateCandidate inserts a candidate and returns the stored row.
func (p *Pool) CreateCandidate(ctx context.Context, in CandidateInput) (CandidateRecord, error) {
	if err := in.validate(); err != nil {
		return CandidateRecord{}, err
	}

	const q = `
INSERT INTO candidates (name, party, photo_url, biography, platform, timeline, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING candidate_id
`

	var candidateID int64
	err := p.QueryRow(ctx, q,
		strings.TrimSpace(in.Name),
		in.Party,
		in.PhotoURL,
		in.Biography,
		nullableJSON(in.Platform),
		nullableJSON(in.Timeline),
	).Scan(&candidateID)
	if err != nil {
		return CandidateRecord{}, fmt.Errorf("insert candidate: %w", err)
	}

	return p.GetCandidate(ctx, candidateID)
}

// UpdateCandidate overwrites a candidate's fields and returns the stored
// row, or ErrNoRows when the candidate does not exist.
func (p *Pool) UpdateCandidate(ctx context.Context, candidateID int64, in CandidateInput) (CandidateRecord, error) {
	if err := in.validate(); err != nil {
		return CandidateRecord{}, err
	}

	const q = `
UPDATE candidates
SET name = $2,
    party = $3,
    photo_url = $4,
    biography = $5,
    platform = $6,
    timeline = $7,
    updated_at = NOW()
WHERE candidate_id = $1
`

	tag, err := p.Exec(ctx, q,
		candidateID,
		strings.TrimSpace(in.Name),
		in.Party,
		in.PhotoURL,
		in.Biography,
		nullableJSON(in.Platform),
		nullableJSON(in.Timeline),
	)
	if err != nil {
		return CandidateRecord{}, fmt.Errorf("update candidate %d: %w", candidateID, err)
	}
	if tag.RowsAffected() == 0 {
		return CandidateRecord{}, ErrNoRows
	}

	return p.GetCandidate(ctx, candidateID)
}

// DeleteCandidate removes a candidate along with its answers and votes.
func (p *Pool) DeleteCandidate(ctx context.Context, candidateID int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete candidate tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM candidate_answers WHERE candidate_id = $1`, candidateID); err != nil {
		return fmt.Errorf("delete candidate answers: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE candidate_id = $1`, candidateID); err != nil {
		return fmt.Errorf("delete candidate votes: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM candidates WHERE candidate_id = $1`, candidateID)
	if err != nil {
		return fmt.Errorf("delete candidate %d: %w", candidateID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete candidate tx: %w", err)
	}
	return nil
}

// nullableJSON maps empty payloads to NULL so jsonb columns never store
// the empty string.
func nullableJSON(raw json.RawMessage) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return string(raw)
}
