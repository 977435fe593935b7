package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
	"ChartFeed/internal/services/sources"
	"ChartFeed/internal/services/synthetic"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func testGenerator() *synthetic.Generator {
	return synthetic.New(synthetic.WithClock(func() time.Time { return testNow }))
}

func liveBars(n int) []models.Bar {
	start := testNow.AddDate(0, 0, -n)
	out := make([]models.Bar, n)
	for i := range out {
		p := float64(200 + i)
		out[i] = models.Bar{Date: models.Day(start.AddDate(0, 0, i)), Open: p, High: p + 2, Low: p - 2, Close: p + 1, Volume: 5000}
	}
	return out
}

type fakeStrategy struct {
	source  models.Source
	bars    []models.Bar
	dropped int
	err     error
	block   bool
	panics  bool

	mu    sync.Mutex
	calls int
	days  int
	sym   string
}

func (f *fakeStrategy) Source() models.Source { return f.source }

func (f *fakeStrategy) Acquire(ctx context.Context, symbol string, days int) ([]models.Bar, int, error) {
	f.mu.Lock()
	f.calls++
	f.days = days
	f.sym = symbol
	f.mu.Unlock()

	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, 0, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, ctx.Err())
	}
	return f.bars, f.dropped, f.err
}

func (f *fakeStrategy) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memoryAudit struct {
	mu     sync.Mutex
	events []*models.AcquisitionEvent
	err    error
}

func (m *memoryAudit) Init(context.Context) error { return nil }
func (m *memoryAudit) Close() error { return nil }

func (m *memoryAudit) Record(_ context.Context, ev *models.AcquisitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

type recordingMetrics struct {
	mu           sync.Mutex
	acquisitions map[string]int
	failures     map[string]string
	dropped      map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{acquisitions: map[string]int{}, failures: map[string]string{}, dropped: map[string]int{}}
}

func (r *recordingMetrics) RecordAcquisition(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acquisitions[source]++
}

func (r *recordingMetrics) RecordStrategyFailure(strategy, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[strategy] = reason
}

func (r *recordingMetrics) RecordRowsDropped(strategy string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[strategy] += n
}

func (r *recordingMetrics) RecordLatency(string, float64) {}
func (r *recordingMetrics) SetSourceUp(string, bool) {}

func chain(gen *synthetic.Generator, live ...Strategy) []Strategy {
	return append(live, sources.NewSyntheticStrategy(gen))
}

func TestAcquireTableWinsOverJSON(t *testing.T) {
	gen := testGenerator()
	table := &fakeStrategy{source: models.SourceTable, bars: liveBars(20)}
	js := &fakeStrategy{source: models.SourceJSON, bars: liveBars(30)}
	a := NewBarAcquirer(gen, chain(gen, table, js))

	res := a.Acquire(context.Background(), " nabil ", "1M")
	if res.Source != models.SourceTable {
		t.Fatalf("expected live-table, got %s", res.Source)
	}
	if !reflect.DeepEqual(res.Bars, table.bars) {
		t.Fatalf("expected table bars verbatim")
	}
	if js.callCount() != 0 {
		t.Fatalf("json strategy must not run after table success")
	}
	if res.Symbol != "NABIL" || res.Range != models.Range1M {
		t.Fatalf("unexpected normalization: %s %s", res.Symbol, res.Range)
	}
	if table.days != 30 || table.sym != "NABIL" {
		t.Fatalf("strategy got days=%d symbol=%s", table.days, table.sym)
	}
}

func TestAcquireFallsThroughToJSON(t *testing.T) {
	gen := testGenerator()
	metrics := newRecordingMetrics()
	table := &fakeStrategy{source: models.SourceTable, dropped: 3, err: fmt.Errorf("%w: 4 bars", models.ErrInsufficientData)}
	js := &fakeStrategy{source: models.SourceJSON, bars: liveBars(15)}
	a := NewBarAcquirer(gen, chain(gen, table, js), WithAcquirerMetrics(metrics))

	res := a.Acquire(context.Background(), "NABIL", "3M")
	if res.Source != models.SourceJSON || len(res.Bars) != 15 {
		t.Fatalf("expected 15 live-json bars, got %s/%d", res.Source, len(res.Bars))
	}
	if metrics.failures["live-table"] != "insufficient_data" {
		t.Fatalf("expected insufficient_data failure, got %q", metrics.failures["live-table"])
	}
	if metrics.dropped["live-table"] != 3 {
		t.Fatalf("expected dropped rows recorded")
	}
	if metrics.acquisitions["live-json"] != 1 {
		t.Fatalf("expected one live-json acquisition")
	}
}

func TestAcquireSyntheticWhenLiveFails(t *testing.T) {
	gen := testGenerator()
	table := &fakeStrategy{source: models.SourceTable, err: models.ErrSourceUnavailable}
	js := &fakeStrategy{source: models.SourceJSON, panics: true}
	a := NewBarAcquirer(gen, chain(gen, table, js))

	res := a.Acquire(context.Background(), "NEPSE", "6M")
	if res.Source != models.SourceSynthetic {
		t.Fatalf("expected synthetic, got %s", res.Source)
	}
	if !reflect.DeepEqual(res.Bars, gen.Generate("NEPSE", 180)) {
		t.Fatalf("expected the generator output for 180 days")
	}
}

func TestAcquireStrategyTimeout(t *testing.T) {
	gen := testGenerator()
	metrics := newRecordingMetrics()
	slow := &fakeStrategy{source: models.SourceTable, block: true}
	a := NewBarAcquirer(gen, chain(gen, slow), WithStrategyTimeout(20*time.Millisecond), WithAcquirerMetrics(metrics))

	start := time.Now()
	res := a.Acquire(context.Background(), "NEPSE", "1M")
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not applied")
	}
	if res.Source != models.SourceSynthetic || len(res.Bars) != 30 {
		t.Fatalf("expected synthetic fallback, got %s/%d", res.Source, len(res.Bars))
	}
	if metrics.failures["live-table"] != "timeout" {
		t.Fatalf("expected timeout reason, got %q", metrics.failures["live-table"])
	}
}

func TestAcquireEmptyChainStillAnswers(t *testing.T) {
	a := NewBarAcquirer(testGenerator(), nil)
	res := a.Acquire(context.Background(), "NEPSE", "bogus")
	if res.Source != models.SourceSynthetic || res.Range != models.DefaultRange() || len(res.Bars) != 90 {
		t.Fatalf("unexpected result %s/%s/%d", res.Source, res.Range, len(res.Bars))
	}
}

func TestAcquireRecordsAudit(t *testing.T) {
	gen := testGenerator()
	audit := &memoryAudit{err: errors.New("sink down")}
	table := &fakeStrategy{source: models.SourceTable, err: models.ErrSourceUnavailable}
	a := NewBarAcquirer(gen, chain(gen, table), WithAuditSink(audit, time.Second))

	res := a.Acquire(context.Background(), "NEPSE", "1M")
	if res.Source != models.SourceSynthetic {
		t.Fatalf("audit failure must not affect the result")
	}
	if len(audit.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(audit.events))
	}
	ev := audit.events[0]
	if ev.ID == "" || ev.Symbol != "NEPSE" || ev.Source != models.SourceSynthetic || ev.Bars != 30 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(ev.Attempts) != 2 || ev.Attempts[0].Err == "" || ev.Attempts[1].Err != "" {
		t.Fatalf("unexpected attempts %+v", ev.Attempts)
	}
}

func TestFailureReason(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("%w: x", models.ErrInsufficientData):  "insufficient_data",
		fmt.Errorf("%w: x", models.ErrSourceUnavailable): "unavailable",
		fmt.Errorf("%w: x", models.ErrMalformedRow):      "malformed",
		context.DeadlineExceeded:                         "timeout",
		errors.New("other"):                              "error",
	}
	for err, want := range cases {
		if got := failureReason(err); got != want {
			t.Fatalf("failureReason(%v) = %s, want %s", err, got, want)
		}
	}
}
