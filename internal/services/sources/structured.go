package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ChartFeed/internal/domain/models"
	"ChartFeed/pkg/util"
)

// columnKeys maps the parallel arrays of a columnar chart payload onto row field names.
var columnKeys = [][2]string{
	{"t", "date"}, {"o", "open"}, {"h", "high"}, {"l", "low"}, {"c", "close"}, {"v", "volume"},
}

// ParseJSON extracts daily bars from a JSON array of objects, from an object that
// wraps such an array under "data", or from a columnar object of parallel arrays
// (t, o, h, l, c and optionally v). Field names are matched case-insensitively.
// Rows with a missing or non-finite numeric field are skipped and counted in dropped.
func ParseJSON(body []byte) (bars []models.Bar, dropped int, err error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("%w: invalid json", models.ErrSourceUnavailable)
	}

	root := gjson.ParseBytes(body)
	if root.IsObject() {
		fields := lowerKeys(root)
		if fields["t"].IsArray() && fields["c"].IsArray() {
			bars, dropped = parseColumns(fields)
			return bars, dropped, nil
		}
		root = fields["data"]
	}
	if !root.IsArray() {
		return nil, 0, fmt.Errorf("%w: expected an array of rows", models.ErrSourceUnavailable)
	}

	for _, row := range root.Array() {
		if !row.IsObject() {
			dropped++
			continue
		}
		b, rowErr := barFromObject(lowerKeys(row))
		if rowErr != nil {
			dropped++
			continue
		}
		bars = append(bars, b)
	}
	return bars, dropped, nil
}

// parseColumns zips the parallel arrays by index. The timestamp array sets the row
// count; a short value array leaves that field missing and the row is dropped.
func parseColumns(fields map[string]gjson.Result) (bars []models.Bar, dropped int) {
	columns := make(map[string][]gjson.Result, len(columnKeys))
	for _, k := range columnKeys {
		if col, ok := fields[k[0]]; ok && col.IsArray() {
			columns[k[1]] = col.Array()
		}
	}

	for i := range columns["date"] {
		row := make(map[string]gjson.Result, len(columns))
		for name, col := range columns {
			if i < len(col) {
				row[name] = col[i]
			}
		}
		b, err := barFromObject(row)
		if err != nil {
			dropped++
			continue
		}
		bars = append(bars, b)
	}
	return bars, dropped
}

func lowerKeys(obj gjson.Result) map[string]gjson.Result {
	out := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := strings.ToLower(strings.TrimSpace(key.String()))
		if _, dup := out[k]; !dup {
			out[k] = value
		}
		return true
	})
	return out
}

func barFromObject(fields map[string]gjson.Result) (models.Bar, error) {
	date, ok := jsonDate(fields["date"])
	if !ok {
		return models.Bar{}, fmt.Errorf("%w: date %s", models.ErrMalformedRow, fields["date"].Raw)
	}

	var ohlc [4]float64
	for k, name := range []string{"open", "high", "low", "close"} {
		v, ok := jsonNumber(fields[name])
		if !ok {
			return models.Bar{}, fmt.Errorf("%w: %s %s", models.ErrMalformedRow, name, fields[name].Raw)
		}
		ohlc[k] = v
	}

	var volume int64
	vol, present := fields["volume"]
	if !present {
		vol, present = fields["turnover"]
	}
	if present && vol.Type != gjson.Null {
		v, ok := jsonNumber(vol)
		if ok {
			volume, ok = util.Volume(v)
		}
		if !ok {
			return models.Bar{}, fmt.Errorf("%w: volume %s", models.ErrMalformedRow, vol.Raw)
		}
	}

	b := models.Bar{Date: date, Open: ohlc[0], High: ohlc[1], Low: ohlc[2], Close: ohlc[3], Volume: volume}
	if !b.Valid() {
		return models.Bar{}, fmt.Errorf("%w: ohlc out of order on %s", models.ErrMalformedRow, date.Format("2006-01-02"))
	}
	return b, nil
}

func jsonNumber(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		v := r.Float()
		return v, util.IsFinite(v)
	case gjson.String:
		return util.ParseNumber(r.Str)
	default:
		return 0, false
	}
}

func jsonDate(r gjson.Result) (time.Time, bool) {
	switch r.Type {
	case gjson.Number:
		return util.UnixDate(r.Float())
	case gjson.String:
		if t, ok := util.ParseDate(r.Str); ok {
			return t, true
		}
		if v, ok := util.ParseNumber(r.Str); ok {
			return util.UnixDate(v)
		}
	}
	return time.Time{}, false
}
