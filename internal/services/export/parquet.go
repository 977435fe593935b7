package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"ChartFeed/internal/domain/models"
)

// ParquetEncoder writes a single row group of Row records.
type ParquetEncoder struct{}

func (ParquetEncoder) Extension() string { return "parquet" }

func (ParquetEncoder) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetEncoder) Encode(w io.Writer, bars []models.Bar) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(toRows(bars)); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
