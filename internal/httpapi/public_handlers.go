package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/civica/internal/affinity"
	"horse.fit/civica/internal/db"
	"horse.fit/civica/internal/globaltime"
	"horse.fit/civica/internal/reader"
)

type voteRequest struct {
	CandidateID int64  `json:"candidato_id"`
	VoterHash   string `json:"ip_hash"`
}

type quizAnswerInput struct {
	QuestionID int64 `json:"pregunta_id"`
	Position   int   `json:"posicion"`
}

type quizComputeRequest struct {
	Answers []quizAnswerInput `json:"respuestas"`
}

type quizQuestionResponse struct {
	ID       int64   `json:"id"`
	Text     string  `json:"texto"`
	Category *string `json:"categoria,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "civica",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleSiteConfig(c echo.Context) error {
	cfg, err := s.pool.GetSiteConfig(c.Request().Context())
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Site configuration not initialized")
		}
		s.logger.Error().Err(err).Msg("query site config failed")
		return internalError(c, "Failed to load configuration")
	}
	return success(c, cfg)
}

func (s *Server) handleCandidates(c echo.Context) error {
	candidates, err := s.pool.ListCandidates(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query candidates failed")
		return internalError(c, "Failed to load candidates")
	}
	return success(c, map[string]any{"items": candidates})
}

func (s *Server) handleCandidateDetail(c echo.Context) error {
	candidateID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	candidate, err := s.pool.GetCandidate(c.Request().Context(), candidateID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Candidate not found")
		}
		s.logger.Error().Err(err).Int64("candidate_id", candidateID).Msg("query candidate failed")
		return internalError(c, "Failed to load candidate")
	}
	return success(c, candidate)
}

// handleCompare builds the side-by-side platform comparison. Only the
// categories the first two candidates share are compared.
func (s *Server) handleCompare(c echo.Context) error {
	candidates, err := s.pool.ListCandidates(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query candidates for compare failed")
		return internalError(c, "Failed to load candidates")
	}
	if len(candidates) < 2 {
		return failValidation(c, map[string]string{"candidatos": "at least 2 candidates are required"})
	}

	summaries := make([]map[string]any, 0, len(candidates))
	for _, candidate := range candidates {
		summaries = append(summaries, map[string]any{
			"id":       candidate.CandidateID,
			"nombre":   candidate.Name,
			"partido":  candidate.Party,
			"foto_url": candidate.PhotoURL,
		})
	}

	programs := map[string]map[string]string{}
	first := decodePlatform(candidates[0].Platform)
	second := decodePlatform(candidates[1].Platform)
	for category, firstText := range first {
		secondText, shared := second[category]
		if !shared {
			continue
		}
		programs[category] = map[string]string{
			candidates[0].Name: firstText,
			candidates[1].Name: secondText,
		}
	}

	return success(c, map[string]any{
		"candidatos": summaries,
		"programas":  programs,
	})
}

func (s *Server) handleVote(c echo.Context) error {
	var req voteRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if req.CandidateID <= 0 {
		return failValidation(c, map[string]string{"candidato_id": "is required"})
	}

	ctx := c.Request().Context()
	if hash := strings.TrimSpace(req.VoterHash); hash != "" {
		voted, err := s.pool.HasVoted(ctx, hash)
		if err != nil {
			s.logger.Error().Err(err).Msg("voter hash lookup failed")
			return internalError(c, "Failed to record vote")
		}
		if voted {
			return fail(c, http.StatusForbidden, "Ya has votado", nil)
		}
	}

	if err := s.pool.CreateVote(ctx, req.CandidateID, req.VoterHash); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Candidate not found")
		}
		s.logger.Error().Err(err).Int64("candidate_id", req.CandidateID).Msg("insert vote failed")
		return internalError(c, "Failed to record vote")
	}

	return successWithStatus(c, http.StatusCreated, map[string]any{"message": "Voto registrado exitosamente"})
}

func (s *Server) handleVoteResults(c echo.Context) error {
	ctx := c.Request().Context()

	total, err := s.pool.CountVotes(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("count votes failed")
		return internalError(c, "Failed to load results")
	}

	tallies, err := s.pool.VoteResults(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("query vote results failed")
		return internalError(c, "Failed to load results")
	}

	results := make([]map[string]any, 0, len(tallies))
	for _, tally := range tallies {
		results = append(results, map[string]any{
			"candidato_id": tally.CandidateID,
			"nombre":       tally.Name,
			"votos":        tally.Votes,
			"porcentaje":   round2(tally.Percentage),
		})
	}

	return success(c, map[string]any{
		"total_votos": total,
		"resultados":  results,
	})
}

func (s *Server) handleQuizQuestions(c echo.Context) error {
	questions, err := s.pool.ListQuestions(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query questions failed")
		return internalError(c, "Failed to load questions")
	}

	items := make([]quizQuestionResponse, 0, len(questions))
	for _, question := range questions {
		items = append(items, quizQuestionResponse{
			ID:       question.QuestionID,
			Text:     question.Text,
			Category: question.Category,
		})
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleQuizCompute(c echo.Context) error {
	var req quizComputeRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	answers := make([]affinity.Answer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, affinity.Answer{
			QuestionID: answer.QuestionID,
			Position:   answer.Position,
		})
	}

	candidates, err := s.pool.CandidatesForAffinity(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query candidates for affinity failed")
		return internalError(c, "Failed to compute affinity")
	}

	results, err := s.engine.Compute(answers, candidates)
	if err != nil {
		if errors.Is(err, affinity.ErrInvalidInput) {
			return failValidation(c, map[string]string{"respuestas": err.Error()})
		}
		s.logger.Error().Err(err).Msg("affinity computation failed")
		return internalError(c, "Failed to compute affinity")
	}

	return success(c, map[string]any{"afinidades": results})
}

func (s *Server) handleNewsList(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultNewsLimit, 1, maxNewsLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	items, err := s.pool.ListNewsItems(c.Request().Context(), db.NewsListOptions{
		SourceSlug: strings.TrimSpace(c.QueryParam("fuente")),
		Limit:      limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("query news failed")
		return internalError(c, "Failed to load news")
	}

	return success(c, map[string]any{
		"items": items,
		"limit": limit,
	})
}

func (s *Server) handleNewsPreview(c echo.Context) error {
	newsItemID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	item, err := s.pool.GetNewsItem(c.Request().Context(), newsItemID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "News item not found")
		}
		s.logger.Error().Err(err).Int64("news_item_id", newsItemID).Msg("query news item failed")
		return internalError(c, "Failed to load news item")
	}

	text, err := s.fetchPreviewText(c.Request().Context(), item)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", item.URL).Msg("preview extraction failed")
		return fail(c, http.StatusBadGateway, "Failed to extract article preview", nil)
	}

	preview, truncated := reader.TruncateText(text, maxPreviewChars)
	return success(c, map[string]any{
		"news_item_id": item.NewsItemID,
		"url":          item.URL,
		"title":        item.Title,
		"preview":      preview,
		"truncated":    truncated,
	})
}

func (s *Server) fetchPreviewText(ctx context.Context, item db.NewsItemRecord) (string, error) {
	return s.fetchPreview(ctx, item.URL, item.Title)
}

func decodePlatform(raw json.RawMessage) map[string]string {
	platform := map[string]string{}
	if len(raw) == 0 {
		return platform
	}
	_ = json.Unmarshal(raw, &platform)
	return platform
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
