package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/civica/internal/affinity"
	"horse.fit/civica/internal/db"
	"horse.fit/civica/internal/reader"
	"horse.fit/civica/internal/scrape"
)

const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100

	maxPreviewChars = 6000
)

// Options tunes the HTTP server. Zero values pick sane defaults.
type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	SessionTTL    time.Duration
	SessionCookie string
	SessionSecure bool

	CORSOrigins []string

	ScrapeLimit int
	Scrape      scrape.Options
}

// Server serves the public election API and the admin API.
type Server struct {
	pool   *db.Pool
	logger zerolog.Logger
	engine *affinity.Engine
	opts   Options

	// aggregatorFor builds a news aggregator over the given sources;
	// tests swap it for a stub.
	aggregatorFor func(sources []scrape.Source) newsAggregator
	// fetchPreview extracts readable article text; tests swap it too.
	fetchPreview func(ctx context.Context, articleURL, title string) (string, error)
}

type newsAggregator interface {
	PoliticalNews(ctx context.Context, limit int) []scrape.Item
}

func NewServer(pool *db.Pool, engine *affinity.Engine, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	sessionCookie := strings.TrimSpace(opts.SessionCookie)
	if sessionCookie == "" {
		sessionCookie = "civica_session"
	}
	scrapeLimit := opts.ScrapeLimit
	if scrapeLimit <= 0 {
		scrapeLimit = defaultNewsLimit
	}

	resolved := opts
	resolved.Host = host
	resolved.Port = port
	resolved.ReadTimeout = readTimeout
	resolved.WriteTimeout = writeTimeout
	resolved.ShutdownTimeout = shutdownTimeout
	resolved.SessionTTL = sessionTTL
	resolved.SessionCookie = sessionCookie
	resolved.ScrapeLimit = scrapeLimit

	server := &Server{
		pool:   pool,
		logger: logger,
		engine: engine,
		opts:   resolved,
	}
	server.aggregatorFor = func(sources []scrape.Source) newsAggregator {
		return scrape.NewAggregator(sources, logger, resolved.Scrape)
	}
	server.fetchPreview = func(ctx context.Context, articleURL, title string) (string, error) {
		return reader.FetchText(ctx, articleURL, title)
	}
	return server
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("civica api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("civica api server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	allowOrigins := s.opts.CORSOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: len(s.opts.CORSOrigins) > 0,
		MaxAge:           3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/config", s.handleSiteConfig)

	api.GET("/candidatos", s.handleCandidates)
	api.GET("/candidatos/:id", s.handleCandidateDetail)
	api.GET("/comparar", s.handleCompare)

	api.POST("/votar", s.handleVote)
	api.GET("/resultados", s.handleVoteResults)

	api.GET("/quiz/preguntas", s.handleQuizQuestions)
	api.POST("/quiz/calcular", s.handleQuizCompute)

	api.GET("/noticias", s.handleNewsList)
	api.GET("/noticias/:id/preview", s.handleNewsPreview)

	api.POST("/admin/login", s.handleLogin)
	api.POST("/admin/logout", s.handleLogout)

	admin := api.Group("/admin", s.requireAuth())
	admin.GET("/check-auth", s.handleCheckAuth)
	admin.GET("/stats", s.handleStats)

	admin.GET("/config", s.handleSiteConfig)
	admin.PUT("/config", s.handleUpdateSiteConfig)

	admin.POST("/candidatos", s.handleCreateCandidate)
	admin.PUT("/candidatos/:id", s.handleUpdateCandidate)
	admin.DELETE("/candidatos/:id", s.handleDeleteCandidate)

	admin.GET("/preguntas", s.handleQuizQuestions)
	admin.POST("/preguntas", s.handleCreateQuestion)
	admin.PUT("/preguntas/:id", s.handleUpdateQuestion)
	admin.DELETE("/preguntas/:id", s.handleDeleteQuestion)

	admin.GET("/respuestas", s.handleListAnswers)
	admin.PUT("/respuestas", s.handleUpsertAnswer)

	admin.GET("/fuentes", s.handleListSources)
	admin.POST("/fuentes", s.handleCreateSource)
	admin.PUT("/fuentes/:id", s.handleUpdateSource)
	admin.DELETE("/fuentes/:id", s.handleDeleteSource)
	admin.POST("/fuentes/import", s.handleImportSources)

	admin.POST("/noticias/refresh", s.handleRefreshNews)
	admin.PUT("/noticias/:id/active", s.handleSetNewsActive)
	admin.POST("/reset-votos", s.handleResetVotes)
	admin.POST("/reset-noticias", s.handleResetNews)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func decodeJSONBody(c echo.Context, target any) error {
	if c == nil || c.Request() == nil || c.Request().Body == nil {
		return fmt.Errorf("request body is required")
	}

	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body contains trailing content")
	}
	return nil
}

const maxBodyBytes = 1 << 20

func readAllLimited(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, fmt.Errorf("is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return id, nil
}
