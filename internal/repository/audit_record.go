package repository

import (
	"encoding/json"
	"time"

	"ChartFeed/internal/domain/models"
)

// auditRecord is the serialized form of an AcquisitionEvent shared by every sink.
type auditRecord struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Range      string          `json:"range"`
	Source     string          `json:"source"`
	Bars       int             `json:"bars"`
	Attempts   []attemptRecord `json:"attempts"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}

type attemptRecord struct {
	Strategy   string `json:"strategy"`
	Bars       int    `json:"bars"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func toAuditRecord(ev *models.AcquisitionEvent) auditRecord {
	attempts := make([]attemptRecord, 0, len(ev.Attempts))
	for _, a := range ev.Attempts {
		attempts = append(attempts, attemptRecord{
			Strategy:   string(a.Strategy),
			Bars:       a.Bars,
			Error:      a.Err,
			DurationMS: a.Duration.Milliseconds(),
		})
	}
	return auditRecord{
		ID:         ev.ID,
		Symbol:     ev.Symbol,
		Range:      string(ev.Range),
		Source:     string(ev.Source),
		Bars:       ev.Bars,
		Attempts:   attempts,
		DurationMS: ev.Duration.Milliseconds(),
		Timestamp:  ev.Timestamp.UTC(),
	}
}

// attemptsJSON flattens attempts for column stores.
func (r auditRecord) attemptsJSON() (string, error) {
	b, err := json.Marshal(r.Attempts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
