package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"ChartFeed/internal/domain/models"
)

func sampleBars() []models.Bar {
	d := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	return []models.Bar{
		{Date: d, Open: 100, High: 105.5, Low: 99.25, Close: 104, Volume: 12000},
		{Date: d.AddDate(0, 0, 1), Open: 104, High: 106, Low: 101, Close: 102.75, Volume: 0},
	}
}

func TestNewEncoder(t *testing.T) {
	for _, f := range []string{"json", " CSV ", "parquet"} {
		if NewEncoder(f) == nil {
			t.Fatalf("expected encoder for %q", f)
		}
	}
	if NewEncoder("xlsx") != nil {
		t.Fatalf("xlsx must be unsupported")
	}
	if got := Filename("NABIL", models.Range1Y, CSVEncoder{}); got != "nabil_1y.csv" {
		t.Fatalf("unexpected filename %s", got)
	}
}

func TestCSVEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVEncoder{}).Encode(&buf, sampleBars()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "date,open,high,low,close,volume\n" +
		"2026-10-15,100,105.5,99.25,104,12000\n" +
		"2026-10-16,104,106,101,102.75,0\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestCSVEncoderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVEncoder{}).Encode(&buf, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "date,open,high,low,close,volume" {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONEncoder{}).Encode(&buf, sampleBars()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var rows []Row
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[1].Date != "2026-10-16" || rows[0].Volume != 12000 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestParquetEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (ParquetEncoder{}).Encode(&buf, sampleBars()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	rows, err := parquet.Read[Row](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 || rows[0] != toRows(sampleBars())[0] {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
