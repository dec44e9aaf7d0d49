package db

import (
	"context"
	"fmt"
	"strings"
)

// VoteTally is one candidate's share of the popular vote.
type VoteTally struct {
	CandidateID int64   `json:"candidate_id"`
	Name        string  `json:"name"`
	Votes       int64   `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

// HasVoted reports whether a voter hash already cast a vote.
func (p *Pool) HasVoted(ctx context.Context, voterHash string) (bool, error) {
	hash := strings.TrimSpace(voterHash)
	if hash == "" {
		return false, nil
	}

	const q = `SELECT EXISTS (SELECT 1 FROM votes WHERE voter_hash = $1)`

	var exists bool
	if err := p.QueryRow(ctx, q, hash).Scan(&exists); err != nil {
		return false, fmt.Errorf("query voter hash: %w", err)
	}
	return exists, nil
}

// CreateVote records a vote for a candidate. The candidate must exist.
func (p *Pool) CreateVote(ctx context.Context, candidateID int64, voterHash string) error {
	const q = `
INSERT INTO votes (candidate_id, voter_hash, created_at)
SELECT c.candidate_id, NULLIF($2, ''), NOW()
FROM candidates c
WHERE c.candidate_id = $1
`

	tag, err := p.Exec(ctx, q, candidateID, strings.TrimSpace(voterHash))
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// CountVotes returns the total number of votes cast.
func (p *Pool) CountVotes(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*)::BIGINT FROM votes`

	var total int64
	if err := p.QueryRow(ctx, q).Scan(&total); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return total, nil
}

// VoteResults returns per-candidate counts with percentage of the total,
// most voted first.
func (p *Pool) VoteResults(ctx context.Context) ([]VoteTally, error) {
	const q = `
SELECT
	c.candidate_id,
	c.name,
	COUNT(v.vote_id)::BIGINT AS votes
FROM candidates c
LEFT JOIN votes v ON v.candidate_id = c.candidate_id
GROUP BY c.candidate_id, c.name
ORDER BY votes DESC, c.name ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query vote results: %w", err)
	}
	defer rows.Close()

	tallies := make([]VoteTally, 0, 8)
	var total int64
	for rows.Next() {
		var row VoteTally
		if err := rows.Scan(&row.CandidateID, &row.Name, &row.Votes); err != nil {
			return nil, fmt.Errorf("scan vote tally row: %w", err)
		}
		total += row.Votes
		tallies = append(tallies, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote tally rows: %w", err)
	}

	for i := range tallies {
		tallies[i].Percentage = votePercentage(tallies[i].Votes, total)
	}

	return tallies, nil
}

// ResetVotes deletes every vote and returns how many were removed.
func (p *Pool) ResetVotes(ctx context.Context) (int64, error) {
	tag, err := p.Exec(ctx, `DELETE FROM votes`)
	if err != nil {
		return 0, fmt.Errorf("reset votes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func votePercentage(votes, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(votes) / float64(total) * 100
}
