package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testClient(baseURL string) *Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &Client{
		httpClient:        http.DefaultClient,
		transcriptBaseURL: baseURL,
		log:               log,
	}
}

func TestParseTimedText(t *testing.T) {
	payload := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.32" dur="2.5">it&#39;s a great product</text>
  <text start="2.82" dur="1.9">but &amp; quite pricey</text>
  <text start="4.72" dur="1.0">   </text>
</transcript>`)

	segments, err := parseTimedText(payload)
	if err != nil {
		t.Fatalf("parseTimedText() error: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Text != "it's a great product" {
		t.Errorf("first segment = %q, entities not unescaped", segments[0].Text)
	}
	if segments[0].Start != 0.32 || segments[0].Duration != 2.5 {
		t.Errorf("first segment timing = %v/%v, want 0.32/2.5", segments[0].Start, segments[0].Duration)
	}
	if segments[1].Text != "but & quite pricey" {
		t.Errorf("second segment = %q", segments[1].Text)
	}
}

func TestParseTimedTextEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"EmptyBody", ""},
		{"WhitespaceBody", "  \n  "},
		{"NoTextElements", `<transcript></transcript>`},
		{"OnlyBlankText", `<transcript><text start="0" dur="1">  </text></transcript>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := parseTimedText([]byte(tt.data))
			if err != nil {
				t.Fatalf("parseTimedText() error: %v", err)
			}
			if segments != nil {
				t.Errorf("got %v, want nil for captionless response", segments)
			}
		})
	}
}

func TestParseTimedTextMalformed(t *testing.T) {
	if _, err := parseTimedText([]byte(`<transcript><text`)); err == nil {
		t.Fatal("expected error for malformed XML")
	}
}

func TestFetchTranscript(t *testing.T) {
	var gotVideo, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVideo = r.URL.Query().Get("v")
		gotLang = r.URL.Query().Get("lang")
		w.Write([]byte(`<transcript><text start="0" dur="2">hello there</text></transcript>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	segments, err := c.FetchTranscript(context.Background(), "abc123", "en")
	if err != nil {
		t.Fatalf("FetchTranscript() error: %v", err)
	}
	if gotVideo != "abc123" || gotLang != "en" {
		t.Errorf("request params = v=%q lang=%q", gotVideo, gotLang)
	}
	if len(segments) != 1 || segments[0].Text != "hello there" {
		t.Errorf("unexpected segments: %+v", segments)
	}
}

func TestFetchTranscriptNoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The timedtext endpoint returns 200 with an empty body when a
		// video has no captions in the requested language.
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	segments, err := c.FetchTranscript(context.Background(), "abc123", "en")
	if err != nil {
		t.Fatalf("FetchTranscript() error: %v", err)
	}
	if segments != nil {
		t.Errorf("got %v, want nil segments", segments)
	}
}

func TestFetchTranscriptClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.FetchTranscript(context.Background(), "abc123", "en"); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if calls != 1 {
		t.Errorf("made %d requests, want 1: client errors are not retried", calls)
	}
}
