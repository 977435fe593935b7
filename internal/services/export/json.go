package export

import (
	"encoding/json"
	"io"

	"ChartFeed/internal/domain/models"
)

// JSONEncoder writes an indented JSON array of rows.
type JSONEncoder struct{}

func (JSONEncoder) Extension() string { return "json" }

func (JSONEncoder) ContentType() string { return "application/json" }

func (JSONEncoder) Encode(w io.Writer, bars []models.Bar) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toRows(bars))
}
