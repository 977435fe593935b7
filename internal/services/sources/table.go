package sources

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ChartFeed/internal/domain/models"
	"ChartFeed/pkg/util"
)

// columns maps the fields a bar needs to cell positions. -1 means absent.
type columns struct {
	date, open, high, low, close, volume, turnover int
}

func (c columns) ok() bool {
	return c.date >= 0 && c.open >= 0 && c.high >= 0 && c.low >= 0 && c.close >= 0
}

func (c columns) volumeCol() int {
	if c.volume >= 0 {
		return c.volume
	}
	return c.turnover
}

func (c columns) maxIndex() int {
	m := c.date
	for _, v := range []int{c.open, c.high, c.low, c.close, c.volume, c.turnover} {
		if v > m {
			m = v
		}
	}
	return m
}

// ParseTable extracts daily bars from the first HTML table whose header names
// open, high, low, close and a date column (case-insensitive). Rows that cannot be
// coerced are skipped and counted in dropped. The result is not yet sorted.
func ParseTable(page []byte) (bars []models.Bar, dropped int, err error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: parse html: %v", models.ErrSourceUnavailable, err)
	}

	for _, table := range findTables(doc) {
		rows := tableRows(table)
		if len(rows) < 2 {
			continue
		}
		cols, found := headerColumns(rowCells(rows[0]))
		if !found {
			continue
		}
		for _, row := range rows[1:] {
			b, rowErr := barFromCells(rowCells(row), cols)
			if rowErr != nil {
				dropped++
				continue
			}
			bars = append(bars, b)
		}
		return bars, dropped, nil
	}
	return nil, 0, fmt.Errorf("%w: no table with open/high/low/close header", models.ErrSourceUnavailable)
}

func findTables(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// tableRows collects the <tr> elements of table without descending into nested tables.
func tableRows(table *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				out = append(out, c)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return out
}

func rowCells(tr *html.Node) []string {
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			out = append(out, textContent(c))
		}
	}
	return out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// normalizeHeader lower-cases and keeps letters only, so "Close Price" becomes "closeprice".
func normalizeHeader(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func headerColumns(cells []string) (columns, bool) {
	cols := columns{-1, -1, -1, -1, -1, -1, -1}
	set := func(dst *int, i int) {
		if *dst < 0 {
			*dst = i
		}
	}
	for i, cell := range cells {
		h := normalizeHeader(cell)
		switch {
		case h == "":
		case strings.HasPrefix(h, "open"):
			set(&cols.open, i)
		case strings.HasPrefix(h, "high"):
			set(&cols.high, i)
		case strings.HasPrefix(h, "low"):
			set(&cols.low, i)
		case strings.HasPrefix(h, "close"), strings.HasPrefix(h, "closing"):
			set(&cols.close, i)
		case strings.HasPrefix(h, "volume"), h == "vol", h == "qty", strings.HasSuffix(h, "quantity"):
			set(&cols.volume, i)
		case strings.HasPrefix(h, "turnover"):
			set(&cols.turnover, i)
		case strings.HasPrefix(h, "date"), strings.HasSuffix(h, "date"):
			set(&cols.date, i)
		}
	}
	return cols, cols.ok()
}

func barFromCells(cells []string, cols columns) (models.Bar, error) {
	if len(cells) <= cols.maxIndex() {
		return models.Bar{}, fmt.Errorf("%w: %d cells", models.ErrMalformedRow, len(cells))
	}
	date, ok := util.ParseDate(cells[cols.date])
	if !ok {
		return models.Bar{}, fmt.Errorf("%w: date %q", models.ErrMalformedRow, cells[cols.date])
	}

	var ohlc [4]float64
	for k, idx := range []int{cols.open, cols.high, cols.low, cols.close} {
		v, ok := util.ParseNumber(cells[idx])
		if !ok {
			return models.Bar{}, fmt.Errorf("%w: value %q", models.ErrMalformedRow, cells[idx])
		}
		ohlc[k] = v
	}

	var volume int64
	if vc := cols.volumeCol(); vc >= 0 {
		v, ok := util.ParseNumber(cells[vc])
		if ok {
			volume, ok = util.Volume(v)
		}
		if !ok {
			return models.Bar{}, fmt.Errorf("%w: volume %q", models.ErrMalformedRow, cells[vc])
		}
	}

	b := models.Bar{Date: date, Open: ohlc[0], High: ohlc[1], Low: ohlc[2], Close: ohlc[3], Volume: volume}
	if !b.Valid() {
		return models.Bar{}, fmt.Errorf("%w: ohlc out of order on %s", models.ErrMalformedRow, date.Format("2006-01-02"))
	}
	return b, nil
}
