package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
	"ChartFeed/internal/services/synthetic"
	xhttp "ChartFeed/pkg/http"
)

type denyThrottle struct{}

func (denyThrottle) Allow(context.Context, string) error { return errors.New("throttled") }

func TestHTTPTableFetcher(t *testing.T) {
	var gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(historyPage))
	}))
	defer srv.Close()

	f := NewHTTPTableFetcher(xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), srv.URL+"/history/{symbol}", nil)
	body, err := f.FetchTable(context.Background(), "BRK/B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != historyPage {
		t.Fatalf("unexpected body")
	}
	if gotPath != "/history/BRK%2FB" {
		t.Fatalf("symbol not escaped into path: %s", gotPath)
	}
	if gotAccept == "" {
		t.Fatalf("expected Accept header")
	}
}

func TestHTTPJSONFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPJSONFetcher(xhttp.NewClient(), srv.URL+"/chart?s={symbol}", nil)
	_, err := f.FetchJSON(context.Background(), "NABIL")
	if !errors.Is(err, models.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestHTTPFetcherThrottledAndUnconfigured(t *testing.T) {
	f := NewHTTPJSONFetcher(xhttp.NewClient(), "http://127.0.0.1:1/{symbol}", denyThrottle{})
	if _, err := f.FetchJSON(context.Background(), "NABIL"); !errors.Is(err, models.ErrSourceUnavailable) {
		t.Fatalf("expected throttled fetch to be unavailable, got %v", err)
	}

	empty := NewHTTPTableFetcher(xhttp.NewClient(), "", nil)
	if _, err := empty.FetchTable(context.Background(), "NABIL"); !errors.Is(err, models.ErrSourceUnavailable) {
		t.Fatalf("expected unconfigured fetch to be unavailable, got %v", err)
	}
}

type staticTable []byte

func (s staticTable) FetchTable(context.Context, string) ([]byte, error) { return s, nil }

func TestTableStrategyInsufficient(t *testing.T) {
	s := NewTableStrategy(staticTable(historyPage))
	if s.Source() != models.SourceTable {
		t.Fatalf("unexpected source tag %s", s.Source())
	}
	_, dropped, err := s.Acquire(context.Background(), "NABIL", 30)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for 2 rows, got %v", err)
	}
	if dropped != 4 {
		t.Fatalf("expected dropped rows to be reported, got %d", dropped)
	}
}

func TestSyntheticStrategy(t *testing.T) {
	s := NewSyntheticStrategy(synthetic.New())
	bars, _, err := s.Acquire(context.Background(), "NEPSE", 30)
	if err != nil || len(bars) != 30 {
		t.Fatalf("expected 30 synthetic bars, got %d, %v", len(bars), err)
	}
}
