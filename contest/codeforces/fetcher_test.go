package codeforces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contestcal/contest"
)

const samplePayload = `{
	"status": "OK",
	"result": [
		{"id": 1900, "name": "Div2 #1", "phase": "BEFORE", "startTimeSeconds": 1893456000, "durationSeconds": 7200},
		{"id": 1899, "name": "Already running", "phase": "CODING", "startTimeSeconds": 1893400000, "durationSeconds": 7200},
		{"id": 1898, "name": "Missing start", "phase": "BEFORE", "durationSeconds": 7200}
	]
}`

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})
	contests, skipped, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %s", err)
	}
	if len(contests) != 1 {
		t.Fatalf("expected 1 contest, got %d: %s", len(contests), contests)
	}
	if skipped != 1 {
		t.Errorf("the record without a start time should be skipped, got %d", skipped)
	}

	c := contests[0]
	if c.ID != "codeforces_1900" {
		t.Errorf("unexpected identity %q", c.ID)
	}
	if !c.StartTime.Equal(time.Unix(1893456000, 0)) {
		t.Errorf("unexpected start time %s", c.StartTime)
	}
	if c.Duration != 2*time.Hour {
		t.Errorf("unexpected duration %s", c.Duration)
	}
	if c.URL != "https://codeforces.com/contest/1900" {
		t.Errorf("unexpected url %q", c.URL)
	}
}

func TestLoadIdentityStableAcrossFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})
	first, _, err := f.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := f.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first[0].ID != second[0].ID {
		t.Errorf("identity changed between fetches: %q vs %q", first[0].ID, second[0].ID)
	}
}

func TestLoadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := New(Config{URL: srv.URL})
	_, _, err := f.Load(context.Background())
	var fetchErr *contest.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("transport failure should come back as a FetchError, got %v", err)
	}
	if fetchErr.Platform != contest.LabelCodeforces {
		t.Errorf("unexpected platform %q", fetchErr.Platform)
	}
}

func TestLoadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})
	if _, _, err := f.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a non-success response")
	}
}

func TestLoadAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "FAILED", "result": []}`))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL})
	_, _, err := f.Load(context.Background())
	var fetchErr *contest.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Platform != contest.LabelCodeforces {
		t.Errorf("unexpected platform %q", fetchErr.Platform)
	}
}
