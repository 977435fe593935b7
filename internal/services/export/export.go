// Package export encodes bar sequences as downloadable files.
package export

import (
	"io"
	"strings"

	"ChartFeed/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Encoder writes bars in one file format.
type Encoder interface {
	Encode(w io.Writer, bars []models.Bar) error
	ContentType() string
	Extension() string
}

// Row is the flat record shared by every format.
type Row struct {
	Date   string  `json:"date" parquet:"date"`
	Open   float64 `json:"open" parquet:"open"`
	High   float64 `json:"high" parquet:"high"`
	Low    float64 `json:"low" parquet:"low"`
	Close  float64 `json:"close" parquet:"close"`
	Volume int64   `json:"volume" parquet:"volume"`
}

func toRows(bars []models.Bar) []Row {
	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = Row{
			Date:   b.Date.UTC().Format(dateLayout),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return rows
}

// NewEncoder returns the encoder for format (json, csv, parquet) or nil if unsupported.
func NewEncoder(format string) Encoder {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONEncoder{}
	case "csv":
		return CSVEncoder{}
	case "parquet":
		return ParquetEncoder{}
	default:
		return nil
	}
}

// Filename builds the attachment name for a download.
func Filename(symbol string, rng models.RangeToken, enc Encoder) string {
	return strings.ToLower(symbol) + "_" + strings.ToLower(string(rng)) + "." + enc.Extension()
}
