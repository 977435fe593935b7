package repository

import (
	"context"

	"ChartFeed/internal/domain/models"
)

// NoopAuditSink discards every event. Used when audit.backend is none.
type NoopAuditSink struct{}

func NewNoopAuditSink() *NoopAuditSink { return &NoopAuditSink{} }

func (NoopAuditSink) Init(context.Context) error { return nil }
func (NoopAuditSink) Record(context.Context, *models.AcquisitionEvent) error { return nil }
func (NoopAuditSink) Close() error { return nil }
