package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	t.Parallel()

	input := "  Primer   párrafo \n\n Segundo\tpárrafo \r\n\r\nTercera línea "
	got := CleanText(input)
	want := "Primer párrafo\n\nSegundo párrafo\n\nTercera línea"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	input := "abcdefghijklmnopqrstuvwxyz"

	got, truncated := TruncateText(input, 10)
	if !truncated {
		t.Fatalf("expected truncated=true")
	}
	if got != "abcdefghi…" {
		t.Fatalf("unexpected truncated text: %q", got)
	}

	full, wasTruncated := TruncateText("corto", 10)
	if wasTruncated {
		t.Fatalf("expected truncated=false for short text")
	}
	if full != "corto" {
		t.Fatalf("unexpected short text: %q", full)
	}
}

func TestFetchTextReturnsPlainTextBodies(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("cuerpo  del   artículo\n\nsegunda parte"))
	}))
	t.Cleanup(server.Close)

	text, err := FetchTextWithOptions(context.Background(), server.URL, "título", FetchOptions{HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("fetch text: %v", err)
	}
	if !strings.Contains(text, "cuerpo del artículo") {
		t.Fatalf("unexpected preview text: %q", text)
	}
}

func TestFetchTextRejectsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	if _, err := FetchTextWithOptions(context.Background(), server.URL, "", FetchOptions{HTTPClient: server.Client()}); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestFetchTextRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := FetchText(context.Background(), "   ", "título"); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}
