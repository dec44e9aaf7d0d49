package db

import (
	"context"
	"fmt"

	"horse.fit/civica/internal/scrape"
)

// SeedSummary reports what the demo seed created.
type SeedSummary struct {
	Candidates int `json:"candidates"`
	Questions  int `json:"questions"`
	Answers    int `json:"answers"`
	Sources    int `json:"sources"`
}

type seedCandidate struct {
	name      string
	party     string
	photoURL  string
	biography string
	platform  string
	timeline  string
	positions []int
}

var seedCandidates = []seedCandidate{
	{
		name:      "José Antonio Kast",
		party:     "Partido Republicano",
		photoURL:  "/images/candidato1.jpg",
		biography: "Abogado y político chileno, fundador del Partido Republicano.",
		platform: `{
			"Economía": "Reducción de impuestos, apoyo a empresas, libre mercado",
			"Seguridad": "Mano dura contra la delincuencia, más policías",
			"Educación": "Vouchers educativos, libertad de elección",
			"Salud": "Sistema mixto público-privado fortalecido"
		}`,
		timeline: `[
			{"año": 1997, "evento": "Egresa como abogado de la Universidad de los Andes"},
			{"año": 2002, "evento": "Primer cargo político como Concejal"},
			{"año": 2018, "evento": "Funda el Partido Republicano"},
			{"año": 2021, "evento": "Segunda vuelta presidencial"}
		]`,
		positions: []int{2, 1, 2, 5, 2, 5, 2, 3},
	},
	{
		name:      "Gabriel Boric",
		party:     "Apruebo Dignidad",
		photoURL:  "/images/candidato2.jpg",
		biography: "Abogado y político chileno, ex presidente de la FECH.",
		platform: `{
			"Economía": "Mayor redistribución, reforma tributaria progresiva",
			"Seguridad": "Enfoque en prevención y cohesión social",
			"Educación": "Educación pública gratuita y de calidad",
			"Salud": "Sistema único de salud universal"
		}`,
		timeline: `[
			{"año": 2011, "evento": "Líder estudiantil en movilizaciones"},
			{"año": 2014, "evento": "Electo diputado por Magallanes"},
			{"año": 2017, "evento": "Fundación del Frente Amplio"},
			{"año": 2021, "evento": "Electo Presidente de Chile"}
		]`,
		positions: []int{4, 5, 5, 2, 5, 2, 4, 5},
	},
}

type seedQuestion struct {
	text     string
	category string
}

var seedQuestions = []seedQuestion{
	{"El Estado debe tener un rol principal en la economía", "Economía"},
	{"Se deben aumentar los impuestos a los más ricos", "Economía"},
	{"La educación universitaria debe ser gratuita", "Educación"},
	{"Se necesitan penas más duras para los delincuentes", "Seguridad"},
	{"El sistema de salud debe ser completamente público", "Salud"},
	{"Las empresas privadas son más eficientes que el Estado", "Economía"},
	{"Se debe priorizar la rehabilitación sobre el castigo", "Seguridad"},
	{"El cambio climático requiere acción gubernamental urgente", "Medio Ambiente"},
}

// SeedDemoData wipes quiz, vote, and source tables and reloads the demo
// election data set in one transaction.
func (p *Pool) SeedDemoData(ctx context.Context) (SeedSummary, error) {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return SeedSummary{}, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"candidate_answers", "votes", "questions", "candidates", "news_sources"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return SeedSummary{}, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	var summary SeedSummary

	candidateIDs := make([]int64, 0, len(seedCandidates))
	for _, c := range seedCandidates {
		const q = `
INSERT INTO candidates (name, party, photo_url, biography, platform, timeline, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, NOW(), NOW())
RETURNING candidate_id
`
		var candidateID int64
		if err := tx.QueryRow(ctx, q, c.name, c.party, c.photoURL, c.biography, c.platform, c.timeline).Scan(&candidateID); err != nil {
			return SeedSummary{}, fmt.Errorf("seed candidate %q: %w", c.name, err)
		}
		candidateIDs = append(candidateIDs, candidateID)
		summary.Candidates++
	}

	questionIDs := make([]int64, 0, len(seedQuestions))
	for i, question := range seedQuestions {
		const q = `
INSERT INTO questions (text, category, ordering, created_at)
VALUES ($1, $2, $3, NOW())
RETURNING question_id
`
		var questionID int64
		if err := tx.QueryRow(ctx, q, question.text, question.category, i+1).Scan(&questionID); err != nil {
			return SeedSummary{}, fmt.Errorf("seed question %d: %w", i+1, err)
		}
		questionIDs = append(questionIDs, questionID)
		summary.Questions++
	}

	for ci, c := range seedCandidates {
		if len(c.positions) != len(questionIDs) {
			return SeedSummary{}, fmt.Errorf("candidate %q has %d positions for %d questions", c.name, len(c.positions), len(questionIDs))
		}
		for qi, questionID := range questionIDs {
			const q = `
INSERT INTO candidate_answers (question_id, candidate_id, position, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
`
			if _, err := tx.Exec(ctx, q, questionID, candidateIDs[ci], c.positions[qi]); err != nil {
				return SeedSummary{}, fmt.Errorf("seed answer for candidate %q question %d: %w", c.name, qi+1, err)
			}
			summary.Answers++
		}
	}

	for _, source := range scrape.DefaultSources() {
		const q = `
INSERT INTO news_sources (slug, name, url, kind, logo, active, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NOW())
`
		if _, err := tx.Exec(ctx, q, source.ID, source.Name, source.URL, string(source.Kind), source.Logo, source.Active); err != nil {
			return SeedSummary{}, fmt.Errorf("seed news source %q: %w", source.ID, err)
		}
		summary.Sources++
	}

	if err := tx.Commit(ctx); err != nil {
		return SeedSummary{}, fmt.Errorf("commit seed tx: %w", err)
	}

	return summary, nil
}
