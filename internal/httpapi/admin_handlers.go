package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/civica/internal/db"
	"horse.fit/civica/internal/scrape"
	sourceschema "horse.fit/civica/schema"
)

type upsertAnswerRequest struct {
	QuestionID  int64 `json:"question_id"`
	CandidateID int64 `json:"candidate_id"`
	Position    int   `json:"position"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type refreshSummary struct {
	TotalScraped int `json:"total_scraped"`
	NewCount     int `json:"new_count"`
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := s.pool.GetSiteStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("query site stats failed")
		return internalError(c, "Failed to load stats")
	}

	tallies, err := s.pool.VoteResults(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("query vote tallies failed")
		return internalError(c, "Failed to load stats")
	}

	return success(c, map[string]any{
		"counts":              stats,
		"votes_per_candidate": tallies,
	})
}

func (s *Server) handleUpdateSiteConfig(c echo.Context) error {
	var req db.SiteConfigInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	updated, err := s.pool.UpdateSiteConfig(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Site configuration not initialized")
		}
		s.logger.Error().Err(err).Msg("update site config failed")
		return internalError(c, "Failed to update configuration")
	}
	return success(c, updated)
}

func (s *Server) handleCreateCandidate(c echo.Context) error {
	var req db.CandidateInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Name) == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	candidate, err := s.pool.CreateCandidate(c.Request().Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Msg("create candidate failed")
		return internalError(c, "Failed to create candidate")
	}
	return successWithStatus(c, http.StatusCreated, candidate)
}

func (s *Server) handleUpdateCandidate(c echo.Context) error {
	candidateID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	var req db.CandidateInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Name) == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	candidate, err := s.pool.UpdateCandidate(c.Request().Context(), candidateID, req)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Candidate not found")
		}
		s.logger.Error().Err(err).Int64("candidate_id", candidateID).Msg("update candidate failed")
		return internalError(c, "Failed to update candidate")
	}
	return success(c, candidate)
}

func (s *Server) handleDeleteCandidate(c echo.Context) error {
	candidateID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	if err := s.pool.DeleteCandidate(c.Request().Context(), candidateID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Candidate not found")
		}
		s.logger.Error().Err(err).Int64("candidate_id", candidateID).Msg("delete candidate failed")
		return internalError(c, "Failed to delete candidate")
	}
	return success(c, map[string]any{"deleted": true})
}

func (s *Server) handleCreateQuestion(c echo.Context) error {
	var req db.QuestionInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Text) == "" {
		return failValidation(c, map[string]string{"text": "is required"})
	}

	question, err := s.pool.CreateQuestion(c.Request().Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Msg("create question failed")
		return internalError(c, "Failed to create question")
	}
	return successWithStatus(c, http.StatusCreated, question)
}

func (s *Server) handleUpdateQuestion(c echo.Context) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	var req db.QuestionInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Text) == "" {
		return failValidation(c, map[string]string{"text": "is required"})
	}

	question, err := s.pool.UpdateQuestion(c.Request().Context(), questionID, req)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Question not found")
		}
		s.logger.Error().Err(err).Int64("question_id", questionID).Msg("update question failed")
		return internalError(c, "Failed to update question")
	}
	return success(c, question)
}

func (s *Server) handleDeleteQuestion(c echo.Context) error {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	if err := s.pool.DeleteQuestion(c.Request().Context(), questionID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Question not found")
		}
		s.logger.Error().Err(err).Int64("question_id", questionID).Msg("delete question failed")
		return internalError(c, "Failed to delete question")
	}
	return success(c, map[string]any{"deleted": true})
}

func (s *Server) handleListAnswers(c echo.Context) error {
	candidateID := int64(0)
	if raw := strings.TrimSpace(c.QueryParam("candidate_id")); raw != "" {
		parsed, err := parsePositiveInt(raw, 0, 1, 1<<31-1)
		if err != nil {
			return failValidation(c, map[string]string{"candidate_id": err.Error()})
		}
		candidateID = int64(parsed)
	}

	answers, err := s.pool.ListCandidateAnswers(c.Request().Context(), candidateID)
	if err != nil {
		s.logger.Error().Err(err).Msg("query candidate answers failed")
		return internalError(c, "Failed to load answers")
	}
	return success(c, map[string]any{"items": answers})
}

func (s *Server) handleUpsertAnswer(c echo.Context) error {
	var req upsertAnswerRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if req.QuestionID <= 0 {
		return failValidation(c, map[string]string{"question_id": "is required"})
	}
	if req.CandidateID <= 0 {
		return failValidation(c, map[string]string{"candidate_id": "is required"})
	}

	answer, err := s.pool.UpsertCandidateAnswer(c.Request().Context(), req.QuestionID, req.CandidateID, req.Position)
	if err != nil {
		if strings.Contains(err.Error(), "position must be") {
			return failValidation(c, map[string]string{"position": err.Error()})
		}
		s.logger.Error().Err(err).Msg("upsert candidate answer failed")
		return internalError(c, "Failed to store answer")
	}
	return success(c, answer)
}

func (s *Server) handleListSources(c echo.Context) error {
	sources, err := s.pool.ListNewsSources(c.Request().Context(), false)
	if err != nil {
		s.logger.Error().Err(err).Msg("query news sources failed")
		return internalError(c, "Failed to load sources")
	}
	return success(c, map[string]any{"items": sources})
}

func (s *Server) handleCreateSource(c echo.Context) error {
	var req db.NewsSourceInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	source, err := s.pool.CreateNewsSource(c.Request().Context(), req)
	if err != nil {
		if isInputError(err) {
			return failValidation(c, map[string]string{"source": err.Error()})
		}
		s.logger.Error().Err(err).Msg("create news source failed")
		return internalError(c, "Failed to create source")
	}
	return successWithStatus(c, http.StatusCreated, source)
}

func (s *Server) handleUpdateSource(c echo.Context) error {
	sourceID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	var req db.NewsSourceInput
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	source, err := s.pool.UpdateNewsSource(c.Request().Context(), sourceID, req)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Source not found")
		}
		if isInputError(err) {
			return failValidation(c, map[string]string{"source": err.Error()})
		}
		s.logger.Error().Err(err).Int64("source_id", sourceID).Msg("update news source failed")
		return internalError(c, "Failed to update source")
	}
	return success(c, source)
}

func (s *Server) handleDeleteSource(c echo.Context) error {
	sourceID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	if err := s.pool.DeleteNewsSource(c.Request().Context(), sourceID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Source not found")
		}
		s.logger.Error().Err(err).Int64("source_id", sourceID).Msg("delete news source failed")
		return internalError(c, "Failed to delete source")
	}
	return success(c, map[string]any{"deleted": true})
}

// handleImportSources bulk-imports sources from a schema-validated JSON
// document. Slugs already present are updated in place.
func (s *Server) handleImportSources(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	doc, err := sourceschema.ValidateImportPayload(body)
	if err != nil {
		return failValidation(c, map[string]string{"payload": err.Error()})
	}

	imported := 0
	updated := 0
	for _, entry := range doc.Sources {
		_, inserted, err := s.pool.UpsertNewsSource(c.Request().Context(), db.NewsSourceInput{
			Slug:   entry.Slug,
			Name:   entry.Name,
			URL:    entry.URL,
			Kind:   entry.Kind,
			Logo:   entry.Logo,
			Active: entry.Active,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("slug", entry.Slug).Msg("import news source failed")
			return internalError(c, "Failed to import sources")
		}
		if inserted {
			imported++
		} else {
			updated++
		}
	}

	return success(c, map[string]any{
		"imported": imported,
		"updated":  updated,
		"total":    len(doc.Sources),
	})
}

// handleRefreshNews runs the political news scrape over the configured
// sources and stores items whose URLs have not been seen before.
func (s *Server) handleRefreshNews(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := s.pool.ListNewsSources(ctx, true)
	if err != nil {
		s.logger.Error().Err(err).Msg("query sources for refresh failed")
		return internalError(c, "Failed to refresh news")
	}

	sources := make([]scrape.Source, 0, len(records))
	for _, record := range records {
		sources = append(sources, record.ScrapeSource())
	}
	if len(sources) == 0 {
		sources = scrape.DefaultSources()
	}

	aggregator := s.aggregatorFor(sources)
	items := aggregator.PoliticalNews(ctx, s.opts.ScrapeLimit)

	summary := refreshSummary{TotalScraped: len(items)}
	for _, item := range items {
		exists, err := s.pool.NewsURLExists(ctx, item.URL)
		if err != nil {
			s.logger.Error().Err(err).Str("url", item.URL).Msg("news url lookup failed")
			continue
		}
		if exists {
			continue
		}

		inserted, err := s.pool.InsertNewsItem(ctx, item)
		if err != nil {
			s.logger.Error().Err(err).Str("url", item.URL).Msg("insert news item failed")
			continue
		}
		if inserted {
			summary.NewCount++
		}
	}

	s.logger.Info().
		Int("total_scraped", summary.TotalScraped).
		Int("new_count", summary.NewCount).
		Msg("news refresh complete")
	return success(c, summary)
}

func (s *Server) handleSetNewsActive(c echo.Context) error {
	newsItemID, err := parseIDParam(c, "id")
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	var req setActiveRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	if err := s.pool.SetNewsItemActive(c.Request().Context(), newsItemID, req.Active); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "News item not found")
		}
		s.logger.Error().Err(err).Int64("news_item_id", newsItemID).Msg("set news active failed")
		return internalError(c, "Failed to update news item")
	}
	return success(c, map[string]any{"news_item_id": newsItemID, "active": req.Active})
}

func (s *Server) handleResetVotes(c echo.Context) error {
	removed, err := s.pool.ResetVotes(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("reset votes failed")
		return internalError(c, "Failed to reset votes")
	}
	return success(c, map[string]any{"removed": removed})
}

func (s *Server) handleResetNews(c echo.Context) error {
	removed, err := s.pool.ResetNews(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("reset news failed")
		return internalError(c, "Failed to reset news")
	}
	return success(c, map[string]any{"removed": removed})
}

func readBody(c echo.Context) (json.RawMessage, error) {
	if c == nil || c.Request() == nil || c.Request().Body == nil {
		return nil, errors.New("request body is required")
	}
	defer c.Request().Body.Close()

	body, err := readAllLimited(c)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.New("request body is required")
	}
	return body, nil
}

// isInputError distinguishes caller mistakes from storage failures for
// the source write paths, which validate inside the query layer.
func isInputError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "is required") || strings.Contains(msg, "must be")
}
