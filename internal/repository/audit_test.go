package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
)

func sampleEvent(id, symbol string, at time.Time) *models.AcquisitionEvent {
	return &models.AcquisitionEvent{
		ID:     id,
		Symbol: symbol,
		Range:  models.Range3M,
		Source: models.SourceJSON,
		Bars:   62,
		Attempts: []models.StrategyAttempt{
			{Strategy: models.SourceTable, Err: "live-table: unavailable", Duration: 120 * time.Millisecond},
			{Strategy: models.SourceJSON, Bars: 62, Duration: 80 * time.Millisecond},
		},
		Duration:  200 * time.Millisecond,
		Timestamp: at,
	}
}

func TestToAuditRecord(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	rec := toAuditRecord(sampleEvent("e1", "NABIL", at))

	if rec.Range != "3M" || rec.Source != "live-json" || rec.DurationMS != 200 {
		t.Fatalf("unexpected record %+v", rec)
	}
	raw, err := rec.attemptsJSON()
	if err != nil {
		t.Fatalf("attempts json: %v", err)
	}
	var attempts []map[string]any
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		t.Fatalf("attempts not valid json: %v", err)
	}
	if len(attempts) != 2 || attempts[0]["error"] != "live-table: unavailable" {
		t.Fatalf("unexpected attempts %s", raw)
	}
	if _, ok := attempts[1]["error"]; ok {
		t.Fatalf("successful attempt must omit error")
	}
}

func TestSQLiteAuditSink(t *testing.T) {
	ctx := context.Background()
	sink, err := NewSQLiteAuditSink(filepath.Join(t.TempDir(), "audit", "chartfeed.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sink.Close()

	if err := sink.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := sink.Init(ctx); err != nil {
		t.Fatalf("init must be idempotent: %v", err)
	}

	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := sink.Record(ctx, sampleEvent(id, "NABIL", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	if err := sink.Record(ctx, sampleEvent("z", "ADBL", base)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.Record(ctx, sampleEvent("a", "NABIL", base)); err == nil {
		t.Fatalf("duplicate id must fail")
	}

	got, err := sink.Recent(ctx, "nabil", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("unexpected recent rows %+v", got)
	}
	if got[0].Source != models.SourceJSON || got[0].Range != models.Range3M || got[0].Bars != 62 {
		t.Fatalf("unexpected row %+v", got[0])
	}
	if !got[1].Timestamp.Equal(base.Add(time.Minute)) {
		t.Fatalf("timestamp not round-tripped: %v", got[1].Timestamp)
	}
}

type fakePublisher struct {
	topic string
	key   []byte
	value any
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, key []byte, value any) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func TestKafkaAuditSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaAuditSink(pub, "chartfeed.acquisitions")
	if err := sink.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := sink.Record(context.Background(), sampleEvent("e1", "NABIL", time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	if pub.topic != "chartfeed.acquisitions" || string(pub.key) != "NABIL" {
		t.Fatalf("unexpected publish %s/%s", pub.topic, pub.key)
	}
	if rec, ok := pub.value.(auditRecord); !ok || rec.ID != "e1" {
		t.Fatalf("unexpected value %#v", pub.value)
	}

	pub.err = errors.New("broker down")
	if err := sink.Record(context.Background(), sampleEvent("e2", "NABIL", time.Now())); err == nil {
		t.Fatalf("expected publish error")
	}
	if err := NewKafkaAuditSink(pub, "").Init(context.Background()); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}

func TestNoopAuditSink(t *testing.T) {
	var s NoopAuditSink
	if s.Init(context.Background()) != nil || s.Record(context.Background(), nil) != nil || s.Close() != nil {
		t.Fatalf("noop sink must never fail")
	}
}
