package kafka

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(WithRegisterer(prometheus.NewRegistry())); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithHashByKey(true),
		WithBatching(10, 0, 0),
		WithRegisterer(prometheus.NewRegistry()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.writer.Compression != kafka.Zstd {
		t.Fatalf("compression not applied")
	}
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer")
	}
	if p.writer.BatchSize != 10 || p.writer.BatchBytes != 1048576 {
		t.Fatalf("batching not applied: %d/%d", p.writer.BatchSize, p.writer.BatchBytes)
	}
}

func TestEncodeValue(t *testing.T) {
	if _, err := encodeValue(nil); err == nil {
		t.Fatalf("nil value must fail")
	}
	b, err := encodeValue(map[string]int{"bars": 30})
	if err != nil || string(b) != `{"bars":30}` {
		t.Fatalf("unexpected encoding %s, %v", b, err)
	}
	if b, _ := encodeValue("raw"); string(b) != "raw" {
		t.Fatalf("strings pass through")
	}
}
