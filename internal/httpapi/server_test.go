package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestNewServerAppliesDefaults(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, nil, zerolog.Nop(), Options{})
	if server == nil {
		t.Fatalf("expected server")
	}
	if server.opts.Host != "0.0.0.0" || server.opts.Port != 8080 {
		t.Fatalf("unexpected default addr: %s:%d", server.opts.Host, server.opts.Port)
	}
	if server.opts.SessionTTL != 7*24*time.Hour {
		t.Fatalf("unexpected default session ttl: %s", server.opts.SessionTTL)
	}
	if server.opts.SessionCookie != "civica_session" {
		t.Fatalf("unexpected default cookie name: %q", server.opts.SessionCookie)
	}
	if server.opts.ScrapeLimit != defaultNewsLimit {
		t.Fatalf("unexpected default scrape limit: %d", server.opts.ScrapeLimit)
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 20, 1, 100); err != nil || got != 20 {
		t.Fatalf("expected default for empty input, got %d err %v", got, err)
	}
	if got, err := parsePositiveInt("42", 20, 1, 100); err != nil || got != 42 {
		t.Fatalf("expected 42, got %d err %v", got, err)
	}
	if _, err := parsePositiveInt("abc", 20, 1, 100); err == nil {
		t.Fatalf("expected error for non-integer")
	}
	if _, err := parsePositiveInt("101", 20, 1, 100); err == nil {
		t.Fatalf("expected error for out-of-range value")
	}
}

func TestParseIDParam(t *testing.T) {
	t.Parallel()

	e := echo.New()
	newCtx := func(raw string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}

	if id, err := parseIDParam(newCtx("7"), "id"); err != nil || id != 7 {
		t.Fatalf("expected 7, got %d err %v", id, err)
	}
	if _, err := parseIDParam(newCtx("0"), "id"); err == nil {
		t.Fatalf("expected error for zero id")
	}
	if _, err := parseIDParam(newCtx("x"), "id"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestDecodeJSONBodyRejectsUnknownAndTrailing(t *testing.T) {
	t.Parallel()

	e := echo.New()
	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return e.NewContext(req, httptest.NewRecorder())
	}

	var req loginRequest
	if err := decodeJSONBody(newCtx(`{"username":"admin","password":"secret"}`), &req); err != nil {
		t.Fatalf("expected valid body to decode: %v", err)
	}
	if req.Username != "admin" {
		t.Fatalf("unexpected username: %q", req.Username)
	}

	if err := decodeJSONBody(newCtx(`{"username":"a","extra":true}`), &loginRequest{}); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if err := decodeJSONBody(newCtx(`{"username":"a"} {}`), &loginRequest{}); err == nil {
		t.Fatalf("expected trailing content error")
	}
}

func TestHandleHealthEnvelope(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, nil, zerolog.Nop(), Options{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := server.handleHealth(c); err != nil {
		t.Fatalf("health handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("unexpected status field: %q", resp.Status)
	}
	if resp.Data["service"] != "civica" {
		t.Fatalf("unexpected service field: %v", resp.Data["service"])
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, nil, zerolog.Nop(), Options{SessionCookie: "test_session"})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	expiresAt := time.Now().Add(time.Hour)
	server.setSessionCookie(c, "abc-123", expiresAt)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != "test_session" || cookie.Value != "abc-123" {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly cookie")
	}

	readReq := httptest.NewRequest(http.MethodGet, "/", nil)
	readReq.AddCookie(&http.Cookie{Name: "test_session", Value: "abc-123"})
	readCtx := e.NewContext(readReq, httptest.NewRecorder())

	sessionID, found := server.sessionIDFromCookie(readCtx)
	if !found || sessionID != "abc-123" {
		t.Fatalf("expected session id from cookie, got %q found=%v", sessionID, found)
	}

	clearRec := httptest.NewRecorder()
	clearCtx := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), clearRec)
	server.clearSessionCookie(clearCtx)
	cleared := clearRec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", cleared)
	}
}

func TestDecodePlatform(t *testing.T) {
	t.Parallel()

	platform := decodePlatform(json.RawMessage(`{"Economía":"libre mercado","Salud":"sistema mixto"}`))
	if len(platform) != 2 || platform["Economía"] != "libre mercado" {
		t.Fatalf("unexpected platform: %+v", platform)
	}

	if got := decodePlatform(nil); len(got) != 0 {
		t.Fatalf("expected empty platform for nil payload, got %+v", got)
	}
	if got := decodePlatform(json.RawMessage(`"not an object"`)); len(got) != 0 {
		t.Fatalf("expected empty platform for non-object payload, got %+v", got)
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	if got := round2(33.3333); got != 33.33 {
		t.Fatalf("unexpected rounding: %v", got)
	}
	if got := round2(66.6666); got != 66.67 {
		t.Fatalf("unexpected rounding: %v", got)
	}
	if got := round2(0); got != 0 {
		t.Fatalf("unexpected rounding: %v", got)
	}
}

func TestIsInputError(t *testing.T) {
	t.Parallel()

	if !isInputError(errNeedSlug) {
		t.Fatalf("expected required-field error to classify as input error")
	}
	if isInputError(nil) {
		t.Fatalf("nil is not an input error")
	}
}

var errNeedSlug = errSource("source slug is required")

type errSource string

func (e errSource) Error() string { return string(e) }
