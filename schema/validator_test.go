package sourceschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateImportPayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"sources":[
			{
				"slug":"emol",
				"name":"Emol",
				"url":"https://www.emol.com/noticias/Nacional/portada.aspx",
				"kind":"markup",
				"logo":"https://www.emol.com/logo.png",
				"active":true
			},
			{
				"slug":"biobio",
				"name":"BioBioChile",
				"url":"https://www.biobiochile.cl/rss/nacional.xml",
				"kind":"feed"
			}
		]
	}`)

	doc, err := ValidateImportPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if len(doc.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(doc.Sources))
	}
	if doc.Sources[0].Slug != "emol" || doc.Sources[0].Kind != "markup" {
		t.Fatalf("unexpected first source: %+v", doc.Sources[0])
	}
	if doc.Sources[1].Logo != nil {
		t.Fatalf("expected nil logo for second source, got %q", *doc.Sources[1].Logo)
	}
}

func TestValidateImportPayload_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`{
		"sources":[
			{"slug":"t13","name":"T13","kind":"feed"}
		]
	}`)

	_, err := ValidateImportPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for missing url")
	}
}

func TestValidateImportPayload_BadKind(t *testing.T) {
	payload := json.RawMessage(`{
		"sources":[
			{"slug":"latercera","name":"La Tercera","url":"https://www.latercera.com","kind":"api"}
		]
	}`)

	_, err := ValidateImportPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for unknown kind")
	}
}

func TestValidateImportPayload_DuplicateSlug(t *testing.T) {
	payload := json.RawMessage(`{
		"sources":[
			{"slug":"emol","name":"Emol","url":"https://www.emol.com","kind":"markup"},
			{"slug":"emol","name":"Emol otra vez","url":"https://www.emol.com/otra","kind":"feed"}
		]
	}`)

	_, err := ValidateImportPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for repeated slug")
	}
	if !strings.Contains(err.Error(), "repeats slug") {
		t.Fatalf("expected duplicate slug error, got: %v", err)
	}
}

func TestValidateImportPayload_NonHTTPURL(t *testing.T) {
	payload := json.RawMessage(`{
		"sources":[
			{"slug":"ftp","name":"FTP","url":"ftp://archive.example.cl/news","kind":"feed"}
		]
	}`)

	_, err := ValidateImportPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for non-http scheme")
	}
}

func TestValidateImportPayload_EmptyAndTrailing(t *testing.T) {
	if _, err := ValidateImportPayload(json.RawMessage("  ")); err == nil {
		t.Fatalf("expected validation to fail for empty payload")
	}
	if _, err := ValidateImportPayload(json.RawMessage(`{"sources":[{"slug":"a","name":"A","url":"https://a.cl","kind":"feed"}]} {}`)); err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}
