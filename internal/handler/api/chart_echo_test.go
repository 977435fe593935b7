package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ChartFeed/internal/service/ratelimit"
	"ChartFeed/internal/services/sources"
	"ChartFeed/internal/services/synthetic"
	"ChartFeed/internal/usecase"
)

func newTestEcho(opts ...HandlerOption) *echo.Echo {
	gen := synthetic.New(synthetic.WithClock(func() time.Time {
		return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	}))
	acq := usecase.NewBarAcquirer(gen, []usecase.Strategy{sources.NewSyntheticStrategy(gen)})
	h := NewChartEchoHandler(nil, usecase.NewChartSeriesUseCase(acq), opts...)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
	}
	return rec, env
}

func TestBarsEndpoint(t *testing.T) {
	e := newTestEcho()
	rec, env := get(t, e, "/api/bars?symbol=nepse&range=1M")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var body barsResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if body.Symbol != "NEPSE" || body.Range != "1M" || body.Source != "synthetic" || len(body.Bars) != 30 {
		t.Fatalf("unexpected body %s/%s/%s/%d", body.Symbol, body.Range, body.Source, len(body.Bars))
	}
	if body.Bars[29].Date != "2026-10-17" {
		t.Fatalf("last bar must be today, got %s", body.Bars[29].Date)
	}
}

func TestBarsDefaultsRange(t *testing.T) {
	_, env := get(t, newTestEcho(), "/api/bars?symbol=ADBL")
	var body barsResponse
	_ = json.Unmarshal(env.Data, &body)
	if body.Range != "3M" || len(body.Bars) != 90 {
		t.Fatalf("expected default 3M/90, got %s/%d", body.Range, len(body.Bars))
	}
}

func TestValidationErrors(t *testing.T) {
	e := newTestEcho()
	cases := []struct {
		target string
		code   string
		field  string
	}{
		{"/api/chart", "ERR_REQUIRED", "symbol"},
		{"/api/indicators?symbol=NEPSE&range=2Y", "ERR_ONEOF", "range"},
		{"/api/patterns?symbol=" + strings.Repeat("X", 33), "ERR_MAX", "symbol"},
		{"/api/bars/export?symbol=NEPSE&format=xlsx", "ERR_ONEOF", "format"},
	}
	for _, tc := range cases {
		rec, env := get(t, e, tc.target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.target, rec.Code)
		}
		var errs []struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		}
		if err := json.Unmarshal(env.Data, &errs); err != nil || len(errs) == 0 {
			t.Fatalf("%s: decode errors: %v", tc.target, err)
		}
		if errs[0].Code != tc.code || errs[0].Field != tc.field {
			t.Fatalf("%s: got %s/%s", tc.target, errs[0].Code, errs[0].Field)
		}
	}
}

func TestIndicatorsAndPatternsEndpoints(t *testing.T) {
	e := newTestEcho()

	_, env := get(t, e, "/api/indicators?symbol=NEPSE&range=6M")
	var ind indicatorsResponse
	_ = json.Unmarshal(env.Data, &ind)
	if len(ind.Points) != 180 {
		t.Fatalf("expected 180 points, got %d", len(ind.Points))
	}
	for _, p := range ind.Points {
		if p.RSI < 0 || p.RSI > 100 {
			t.Fatalf("rsi out of bounds: %v", p.RSI)
		}
	}

	_, env = get(t, e, "/api/patterns?symbol=NEPSE&range=6M")
	var pat patternsResponse
	_ = json.Unmarshal(env.Data, &pat)
	if len(pat.Bullish) != 12 || len(pat.Bearish) != 10 {
		t.Fatalf("expected 12/10 tallies, got %d/%d", len(pat.Bullish), len(pat.Bearish))
	}
}

func TestChartEndpoint(t *testing.T) {
	rec, env := get(t, newTestEcho(), "/api/chart?symbol=NEPSE&range=1Y")
	if rec.Header().Get(echo.HeaderCacheControl) == "" {
		t.Fatalf("expected cache header")
	}
	var body chartResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Bars) != 365 || len(body.Indicators) != 365 {
		t.Fatalf("unexpected lengths %d/%d", len(body.Bars), len(body.Indicators))
	}
	total := 0
	for _, tl := range append(body.Bullish, body.Bearish...) {
		total += tl.Count
	}
	if total != len(body.Matches) {
		t.Fatalf("tallies (%d) disagree with matches (%d)", total, len(body.Matches))
	}
}

func TestExportCSV(t *testing.T) {
	rec, _ := get(t, newTestEcho(), "/api/bars/export?symbol=nepse&range=1M&format=csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "nepse_1m.csv") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "date,open,high,low,close,volume" || len(lines) != 31 {
		t.Fatalf("unexpected csv with %d lines, header %q", len(lines), lines[0])
	}
	if rec.Header().Get("X-Data-Source") != "synthetic" {
		t.Fatalf("missing source header")
	}
}

func TestRateLimited(t *testing.T) {
	e := newTestEcho(WithRateLimit(ratelimit.New(), 1, 0.0001))
	if rec, _ := get(t, e, "/api/bars?symbol=NEPSE&range=1M"); rec.Code != http.StatusOK {
		t.Fatalf("first request must pass, got %d", rec.Code)
	}
	rec, env := get(t, e, "/api/bars?symbol=NEPSE&range=1M")
	if rec.Code != http.StatusTooManyRequests || env.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec, _ := get(t, newTestEcho(WithHealthCheck("redis", func(context.Context) error { return nil })), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	e := newTestEcho(WithHealthCheck("audit", func(context.Context) error { return errors.New("down") }))
	rec, env := get(t, e, "/healthz")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(string(env.Data), "down") {
		t.Fatalf("expected 503 with reason, got %d %s", rec.Code, env.Data)
	}
}

func TestChartSocket(t *testing.T) {
	srv := httptest.NewServer(newTestEcho())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chart", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"symbol":"nepse","range":"1m"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var chart chartResponse
	if err := conn.ReadJSON(&chart); err != nil {
		t.Fatalf("read: %v", err)
	}
	if chart.Symbol != "NEPSE" || len(chart.Bars) != 30 {
		t.Fatalf("unexpected frame %s/%d", chart.Symbol, len(chart.Bars))
	}

	for _, bad := range []string{`{"range":"1M"}`, `not json`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(bad)); err != nil {
			t.Fatalf("write: %v", err)
		}
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		if frame["error"] == nil {
			t.Fatalf("expected error frame for %s, got %v", bad, frame)
		}
	}
}
