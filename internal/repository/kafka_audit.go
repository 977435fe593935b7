package repository

import (
	"context"
	"errors"
	"fmt"

	"ChartFeed/internal/domain/models"
)

// Publisher is the subset of pkg/kafka.Producer the audit sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
	Close() error
}

// KafkaAuditSink publishes events as JSON keyed by symbol so one symbol's history stays ordered.
type KafkaAuditSink struct {
	pub   Publisher
	topic string
}

func NewKafkaAuditSink(pub Publisher, topic string) *KafkaAuditSink {
	return &KafkaAuditSink{pub: pub, topic: topic}
}

func (s *KafkaAuditSink) Init(context.Context) error {
	if s.pub == nil {
		return errors.New("kafka audit: publisher is nil")
	}
	if s.topic == "" {
		return errors.New("kafka audit: topic is empty")
	}
	return nil
}

func (s *KafkaAuditSink) Record(ctx context.Context, ev *models.AcquisitionEvent) error {
	if ev == nil {
		return nil
	}
	if err := s.pub.Publish(ctx, s.topic, []byte(ev.Symbol), toAuditRecord(ev)); err != nil {
		return fmt.Errorf("kafka audit %s: %w", ev.ID, err)
	}
	return nil
}

func (s *KafkaAuditSink) Close() error {
	if s.pub == nil {
		return nil
	}
	return s.pub.Close()
}
