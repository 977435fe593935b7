package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"ChartFeed/internal/domain/models"
)

var csvHeader = []string{"date", "open", "high", "low", "close", "volume"}

// CSVEncoder writes a header line followed by one line per bar.
type CSVEncoder struct{}

func (CSVEncoder) Extension() string { return "csv" }

func (CSVEncoder) ContentType() string { return "text/csv" }

func (CSVEncoder) Encode(w io.Writer, bars []models.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range toRows(bars) {
		rec := []string{
			r.Date,
			formatPrice(r.Open),
			formatPrice(r.High),
			formatPrice(r.Low),
			formatPrice(r.Close),
			strconv.FormatInt(r.Volume, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
