package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/agentrank/internal/fingerprint"
	"github.com/FranksOps/agentrank/internal/ranking"
)

func TestExtractTitle(t *testing.T) {
	cases := map[string]string{
		`<html><head><meta property="og:title" content=" Jane Doe Realty "><title>Home</title></head></html>`: "Jane Doe Realty",
		`<html><head><meta name="title" content="Smith Team"><title>Home</title></head></html>`:               "Smith Team",
		`<html><head><title>
			Best Realtor in Town
		</title></head></html>`: "Best Realtor in Town",
		`<html><head><meta property="og:title" content=""><title>Fallback Broker</title></head></html>`: "Fallback Broker",
		`<html><body>no title</body></html>`: "",
	}
	for html, want := range cases {
		if got := ExtractTitle([]byte(html)); got != want {
			t.Errorf("ExtractTitle(%q) = %q, want %q", html, got, want)
		}
	}
}

func newVerifyServer(t *testing.T, fetches *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /blocked\n"))
	})
	mux.HandleFunc("/agent", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="The Rivera Team | Realtors"></head></html>`))
	})
	mux.HandleFunc("/blog", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>10 tips for buying a home</title></head></html>`))
	})
	mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Hidden Realty</title></head></html>`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func TestPageVerifier_Verify(t *testing.T) {
	var fetches atomic.Int32
	ts := newVerifyServer(t, &fetches)
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifier := NewPageVerifier(fetcher, NewRobotsTxtAuditor(fetcher, nil), nil)
	ctx := context.Background()

	hit := ranking.Hit{Query: "q", Rank: 1, Title: "serp title", URL: ts.URL + "/agent"}
	got, ok := verifier.Verify(ctx, hit)
	if !ok {
		t.Fatalf("expected agent page to verify")
	}
	if got.Title != "The Rivera Team | Realtors" {
		t.Errorf("expected page title, got %q", got.Title)
	}
	if got.Rank != 1 || got.URL != hit.URL || got.Query != "q" {
		t.Errorf("expected other hit fields to be preserved, got %+v", got)
	}

	// Memoised per URL.
	if _, ok := verifier.Verify(ctx, hit); !ok {
		t.Errorf("expected cached verdict to verify")
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("expected agent page fetched once, got %d", n)
	}

	for _, path := range []string{"/blog", "/blocked", "/gone"} {
		if _, ok := verifier.Verify(ctx, ranking.Hit{Query: "q", Rank: 2, Title: "t", URL: ts.URL + path}); ok {
			t.Errorf("expected %s to fail verification", path)
		}
	}
}

func TestPageVerifier_NoRobots(t *testing.T) {
	var fetches atomic.Int32
	ts := newVerifyServer(t, &fetches)
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{Fingerprint: fingerprint.ProfileGo})
	verifier := NewPageVerifier(fetcher, nil, nil)

	got, ok := verifier.Verify(context.Background(), ranking.Hit{Query: "q", Rank: 3, URL: ts.URL + "/blocked"})
	if !ok || got.Title != "Hidden Realty" {
		t.Errorf("expected robots.txt to be ignored without an auditor, got %v %q", ok, got.Title)
	}
}
